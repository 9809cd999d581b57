package http_server

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/valyala/fasthttp"
	"gitlab.faza.io/quote-project/draft-quote-service/domain"
	"gitlab.faza.io/quote-project/draft-quote-service/domain/models/entities"
	"gitlab.faza.io/quote-project/draft-quote-service/domain/states"
	"gitlab.faza.io/quote-project/draft-quote-service/domain/validator"
	"gitlab.faza.io/quote-project/draft-quote-service/infrastructure/future"
	"gitlab.faza.io/quote-project/draft-quote-service/infrastructure/utils/calculate"
)

type OpenSessionRequest struct {
	RequestQuoteId string `json:"requestQuoteId,omitempty"`
	DraftQuoteId   string `json:"draftQuoteId,omitempty"`
}

type AddOptionRequest struct {
	OptionId string `json:"optionId,omitempty"`
	entities.OptionPatch
}

type NotesRequest struct {
	Notes string `json:"notes"`
}

type SelectionRequest struct {
	OptionId string `json:"optionId"`
}

type StatusRequest struct {
	Status entities.DraftQuoteStatus `json:"status"`
	Strict bool                      `json:"strict,omitempty"`
}

type EditingRequest struct {
	Editing bool `json:"editing"`
}

type FinalizeRequest struct {
	ValidityDays int `json:"validityDays,omitempty"`
}

type SessionResponse struct {
	SessionId   string                     `json:"sessionId"`
	State       domain.StoreState          `json:"state"`
	DraftQuote  entities.DraftQuote        `json:"draftQuote"`
	Validation  validator.ValidationResult `json:"validation"`
	CanFinalize bool                       `json:"canFinalize"`
	TotalValue  decimal.Decimal            `json:"totalValue"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

func NewSessionResponse(session domain.Session) SessionResponse {
	store := session.Store
	return SessionResponse{
		SessionId:   session.SessionId,
		State:       store.State(),
		DraftQuote:  store.Snapshot(),
		Validation:  store.Validation(),
		CanFinalize: store.CanFinalize(),
		TotalValue:  store.TotalValue(),
	}
}

func (server *Server) health(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, HealthResponse{Status: "ok", Sessions: server.sessions.Count()})
}

func (server *Server) calculateTotals(ctx *fasthttp.RequestCtx) {
	var option entities.DraftQuoteOption
	if !decodeBody(ctx, &option) {
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, calculate.CalculateOptionTotals(option))
}

func (server *Server) validateDraftQuote(ctx *fasthttp.RequestCtx) {
	var draft entities.DraftQuote
	if !decodeBody(ctx, &draft) {
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, validator.ValidateDraftQuote(&draft))
}

func (server *Server) openSession(ctx *fasthttp.RequestCtx) {
	var request OpenSessionRequest
	if !decodeBody(ctx, &request) {
		return
	}

	if request.DraftQuoteId == "" {
		if request.RequestQuoteId == "" {
			writeError(ctx, fasthttp.StatusBadRequest, "requestQuoteId or draftQuoteId required")
			return
		}
		writeJSON(ctx, fasthttp.StatusCreated, NewSessionResponse(server.sessions.Open(request.RequestQuoteId)))
		return
	}

	portCtx, cancel := server.portContext(ctx, domain.Session{})
	defer cancel()
	session, err := server.sessions.OpenExisting(portCtx, request.DraftQuoteId)
	if err != nil {
		server.logger.FromContext(portCtx).Error("open draft quote session failed",
			"fn", "openSession",
			"draftQuoteId", request.DraftQuoteId,
			"error", err)
		var loadErr *domain.SessionLoadError
		if errors.As(err, &loadErr) && loadErr.Code == future.NotFound {
			writeError(ctx, fasthttp.StatusNotFound, err.Error())
			return
		}
		writeError(ctx, fasthttp.StatusBadGateway, err.Error())
		return
	}
	writeJSON(ctx, fasthttp.StatusCreated, NewSessionResponse(session))
}

func (server *Server) getSession(ctx *fasthttp.RequestCtx, session domain.Session) {
	writeJSON(ctx, fasthttp.StatusOK, NewSessionResponse(session))
}

func (server *Server) closeSession(ctx *fasthttp.RequestCtx, sessionId string) {
	if !server.sessions.Close(sessionId) {
		writeError(ctx, fasthttp.StatusNotFound, "Session Not Found")
		return
	}
	ctx.SetStatusCode(fasthttp.StatusNoContent)
}

func (server *Server) updateCustomer(ctx *fasthttp.RequestCtx, session domain.Session) {
	var patch entities.CustomerPatch
	if !decodeBody(ctx, &patch) {
		return
	}
	session.Store.UpdateCustomer(patch)
	writeJSON(ctx, fasthttp.StatusOK, NewSessionResponse(session))
}

func (server *Server) updateShipment(ctx *fasthttp.RequestCtx, session domain.Session) {
	var patch entities.ShipmentPatch
	if !decodeBody(ctx, &patch) {
		return
	}
	session.Store.UpdateShipment(patch)
	writeJSON(ctx, fasthttp.StatusOK, NewSessionResponse(session))
}

func (server *Server) updateWizard(ctx *fasthttp.RequestCtx, session domain.Session) {
	var patch entities.WizardPatch
	if !decodeBody(ctx, &patch) {
		return
	}
	session.Store.UpdateWizard(patch)
	writeJSON(ctx, fasthttp.StatusOK, NewSessionResponse(session))
}

func (server *Server) updateCommercialTerms(ctx *fasthttp.RequestCtx, session domain.Session) {
	var patch entities.CommercialTermsPatch
	if !decodeBody(ctx, &patch) {
		return
	}
	session.Store.UpdateCommercialTerms(patch)
	writeJSON(ctx, fasthttp.StatusOK, NewSessionResponse(session))
}

func (server *Server) updateNotes(ctx *fasthttp.RequestCtx, session domain.Session) {
	var request NotesRequest
	if !decodeBody(ctx, &request) {
		return
	}
	session.Store.UpdateNotes(request.Notes)
	writeJSON(ctx, fasthttp.StatusOK, NewSessionResponse(session))
}

func (server *Server) addOption(ctx *fasthttp.RequestCtx, session domain.Session) {
	var request AddOptionRequest
	if len(ctx.PostBody()) > 0 && !decodeBody(ctx, &request) {
		return
	}
	option := session.Store.AddOption(request.OptionId, request.OptionPatch)
	writeJSON(ctx, fasthttp.StatusCreated, option)
}

func (server *Server) updateOption(ctx *fasthttp.RequestCtx, session domain.Session, optionId string) {
	var patch entities.OptionPatch
	if !decodeBody(ctx, &patch) {
		return
	}
	session.Store.UpdateOption(optionId, patch)
	writeJSON(ctx, fasthttp.StatusOK, NewSessionResponse(session))
}

func (server *Server) deleteOption(ctx *fasthttp.RequestCtx, session domain.Session, optionId string) {
	session.Store.DeleteOption(optionId)
	writeJSON(ctx, fasthttp.StatusOK, NewSessionResponse(session))
}

func (server *Server) recalculateOption(ctx *fasthttp.RequestCtx, session domain.Session, optionId string) {
	session.Store.RecalculateTotals(optionId)
	writeJSON(ctx, fasthttp.StatusOK, NewSessionResponse(session))
}

func (server *Server) recalculateAll(ctx *fasthttp.RequestCtx, session domain.Session) {
	session.Store.RecalculateAllTotals()
	writeJSON(ctx, fasthttp.StatusOK, NewSessionResponse(session))
}

func (server *Server) selectOption(ctx *fasthttp.RequestCtx, session domain.Session) {
	var request SelectionRequest
	if !decodeBody(ctx, &request) {
		return
	}
	session.Store.SetSelectedOptionId(request.OptionId)
	writeJSON(ctx, fasthttp.StatusOK, NewSessionResponse(session))
}

func (server *Server) setStatus(ctx *fasthttp.RequestCtx, session domain.Session) {
	var request StatusRequest
	if !decodeBody(ctx, &request) {
		return
	}
	if !request.Status.IsValid() {
		writeError(ctx, fasthttp.StatusBadRequest, "Unknown Status: "+string(request.Status))
		return
	}

	if !request.Strict {
		session.Store.SetStatus(request.Status)
		writeJSON(ctx, fasthttp.StatusOK, NewSessionResponse(session))
		return
	}

	if err := session.Store.TransitionStatus(request.Status); err != nil {
		switch {
		case errors.Is(err, states.ErrInvalidTransition):
			writeError(ctx, fasthttp.StatusConflict, err.Error())
		case errors.Is(err, domain.ErrDraftQuoteDeleted):
			writeError(ctx, fasthttp.StatusGone, err.Error())
		default:
			writeError(ctx, fasthttp.StatusBadRequest, err.Error())
		}
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, NewSessionResponse(session))
}

func (server *Server) setEditing(ctx *fasthttp.RequestCtx, session domain.Session) {
	var request EditingRequest
	if !decodeBody(ctx, &request) {
		return
	}
	if request.Editing {
		session.Store.StartEditing()
	} else {
		session.Store.StopEditing()
	}
	writeJSON(ctx, fasthttp.StatusOK, NewSessionResponse(session))
}

func (server *Server) save(ctx *fasthttp.RequestCtx, session domain.Session) {
	portCtx, cancel := server.portContext(ctx, session)
	defer cancel()
	server.respondOutcome(ctx, session, session.Store.Save(portCtx))
}

func (server *Server) finalize(ctx *fasthttp.RequestCtx, session domain.Session) {
	var request FinalizeRequest
	if len(ctx.PostBody()) > 0 && !decodeBody(ctx, &request) {
		return
	}
	portCtx, cancel := server.portContext(ctx, session)
	defer cancel()
	server.respondOutcome(ctx, session, session.Store.Finalize(portCtx, request.ValidityDays))
}

func (server *Server) reset(ctx *fasthttp.RequestCtx, session domain.Session) {
	session.Store.Reset()
	writeJSON(ctx, fasthttp.StatusOK, NewSessionResponse(session))
}

func (server *Server) deleteDraftQuote(ctx *fasthttp.RequestCtx, session domain.Session) {
	portCtx, cancel := server.portContext(ctx, session)
	defer cancel()
	server.respondOutcome(ctx, session, session.Store.Delete(portCtx))
}

func (server *Server) persistOption(ctx *fasthttp.RequestCtx, session domain.Session, optionId string) {
	portCtx, cancel := server.portContext(ctx, session)
	defer cancel()
	server.respondOutcome(ctx, session, session.Store.PersistOption(portCtx, optionId))
}

func (server *Server) removePersistedOption(ctx *fasthttp.RequestCtx, session domain.Session, optionId string) {
	portCtx, cancel := server.portContext(ctx, session)
	defer cancel()
	server.respondOutcome(ctx, session, session.Store.RemovePersistedOption(portCtx, optionId))
}

// respondOutcome answers a persistence operation: the session on success, the save error otherwise.
func (server *Server) respondOutcome(ctx *fasthttp.RequestCtx, session domain.Session, ok bool) {
	if ok {
		writeJSON(ctx, fasthttp.StatusOK, NewSessionResponse(session))
		return
	}

	state := session.Store.State()
	validation := session.Store.Validation()
	if !validation.IsValid && state.SaveError == validation.Message() {
		writeError(ctx, fasthttp.StatusUnprocessableEntity, state.SaveError, validation.Errors...)
		return
	}
	writeError(ctx, fasthttp.StatusUnprocessableEntity, state.SaveError)
}
