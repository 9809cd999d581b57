package quote_service

import (
	"context"

	"github.com/pkg/errors"
	"gitlab.faza.io/quote-project/draft-quote-service/domain/models/entities"
	draftquote_repository "gitlab.faza.io/quote-project/draft-quote-service/domain/models/repository/draftquote"
	"gitlab.faza.io/quote-project/draft-quote-service/infrastructure/future"
	applog "gitlab.faza.io/quote-project/draft-quote-service/infrastructure/logger"
)

// iQuoteServiceLocalImpl serves the persistence port straight from the draft quote repository.
type iQuoteServiceLocalImpl struct {
	repository draftquote_repository.IDraftQuoteRepository
}

func NewLocalQuoteService(repository draftquote_repository.IDraftQuoteRepository) IQuoteService {
	return &iQuoteServiceLocalImpl{repository: repository}
}

func (local iQuoteServiceLocalImpl) Create(ctx context.Context, request CreateDraftQuoteRequest) future.IFuture {
	draft := entities.NewDraftQuote(request.RequestQuoteId)
	if request.Customer != nil {
		draft.Customer = *request.Customer
	}
	if request.Shipment != nil {
		draft.Shipment = *request.Shipment
	}
	if request.Wizard != nil {
		draft.Wizard = *request.Wizard
	}

	inserted, err := local.repository.Insert(ctx, draft)
	if err != nil {
		applog.GLog.Logger.FromContext(ctx).Error("repository.Insert failed",
			"fn", "Create",
			"requestQuoteId", request.RequestQuoteId,
			"error", err)
		return repoErrorFuture(err)
	}
	return future.Factory().SetCapacity(1).SetData(NewDraftQuoteResponse(*inserted)).BuildAndSend()
}

func (local iQuoteServiceLocalImpl) Update(ctx context.Context, draftQuoteId string, request UpdateDraftQuoteRequest) future.IFuture {
	draft, err := local.repository.FindById(ctx, draftQuoteId)
	if err != nil {
		return repoErrorFuture(err)
	}
	if draft.Status.IsTerminal() {
		return closedDraftFuture(draft)
	}

	if request.Customer != nil {
		draft.Customer = *request.Customer
	}
	if request.Shipment != nil {
		draft.Shipment = *request.Shipment
	}
	if request.Wizard != nil {
		draft.Wizard = *request.Wizard
	}
	if request.CommercialTerms != nil {
		draft.CommercialTerms = *request.CommercialTerms
	}
	if request.Options != nil {
		draft.Options = request.Options
	}
	if request.Notes != nil {
		draft.Notes = *request.Notes
	}
	if request.Status != "" {
		draft.Status = request.Status
	}

	return local.update(ctx, "Update", *draft)
}

func (local iQuoteServiceLocalImpl) AddOption(ctx context.Context, draftQuoteId string, option entities.DraftQuoteOption) future.IFuture {
	draft, err := local.repository.FindById(ctx, draftQuoteId)
	if err != nil {
		return repoErrorFuture(err)
	}
	if draft.Status.IsTerminal() {
		return closedDraftFuture(draft)
	}

	if index, found := draft.FindOption(option.OptionId); found {
		draft.Options[index] = option
	} else {
		draft.Options = append(draft.Options, option)
	}
	return local.update(ctx, "AddOption", *draft)
}

func (local iQuoteServiceLocalImpl) DeleteOption(ctx context.Context, draftQuoteId, optionId string) future.IFuture {
	draft, err := local.repository.FindById(ctx, draftQuoteId)
	if err != nil {
		return repoErrorFuture(err)
	}
	if draft.Status.IsTerminal() {
		return closedDraftFuture(draft)
	}

	index, found := draft.FindOption(optionId)
	if !found {
		return future.Factory().SetCapacity(1).
			SetError(future.NotFound, "Option Not Found", errors.Errorf("option %s not found", optionId)).
			BuildAndSend()
	}
	draft.Options = append(draft.Options[:index], draft.Options[index+1:]...)

	iFuture := local.update(ctx, "DeleteOption", *draft)
	result := iFuture.Get()
	if result.Error() != nil {
		return future.Factory().SetCapacity(1).SetErrorOf(result.Error()).BuildAndSend()
	}
	return future.Factory().SetCapacity(1).BuildAndSend()
}

func (local iQuoteServiceLocalImpl) Finalize(ctx context.Context, draftQuoteId, selectedOptionId string, validityDays int) future.IFuture {
	draft, err := local.repository.FindById(ctx, draftQuoteId)
	if err != nil {
		return repoErrorFuture(err)
	}
	if draft.Status.IsTerminal() {
		return closedDraftFuture(draft)
	}
	if _, found := draft.FindOption(selectedOptionId); !found {
		return future.Factory().SetCapacity(1).
			SetError(future.BadRequest, "Selected Option Invalid", errors.Errorf("option %s not found", selectedOptionId)).
			BuildAndSend()
	}

	draft.Status = entities.FinalizedStatus
	draft.CommercialTerms.ValidityDays = validityDays
	updated, err := local.repository.Update(ctx, *draft)
	if err != nil {
		applog.GLog.Logger.FromContext(ctx).Error("repository.Update failed",
			"fn", "Finalize",
			"draftQuoteId", draftQuoteId,
			"error", err)
		return repoErrorFuture(err)
	}

	validUntil := updated.UpdatedAt.AddDate(0, 0, validityDays)
	return future.Factory().SetCapacity(1).
		SetData(FinalizeResponse{DraftQuoteId: updated.DraftQuoteId, Status: updated.Status, ValidUntil: &validUntil}).
		BuildAndSend()
}

func (local iQuoteServiceLocalImpl) FetchById(ctx context.Context, draftQuoteId string) future.IFuture {
	draft, err := local.repository.FindById(ctx, draftQuoteId)
	if err != nil {
		return repoErrorFuture(err)
	}
	return future.Factory().SetCapacity(1).SetData(NewDraftQuoteResponse(*draft)).BuildAndSend()
}

func (local iQuoteServiceLocalImpl) Delete(ctx context.Context, draftQuoteId string) future.IFuture {
	if err := local.repository.DeleteById(ctx, draftQuoteId); err != nil {
		applog.GLog.Logger.FromContext(ctx).Error("repository.DeleteById failed",
			"fn", "Delete",
			"draftQuoteId", draftQuoteId,
			"error", err)
		return repoErrorFuture(err)
	}
	return future.Factory().SetCapacity(1).BuildAndSend()
}

func (local iQuoteServiceLocalImpl) update(ctx context.Context, fn string, draft entities.DraftQuote) future.IFuture {
	updated, err := local.repository.Update(ctx, draft)
	if err != nil {
		applog.GLog.Logger.FromContext(ctx).Error("repository.Update failed",
			"fn", fn,
			"draftQuoteId", draft.DraftQuoteId,
			"error", err)
		return repoErrorFuture(err)
	}
	return future.Factory().SetCapacity(1).SetData(NewDraftQuoteResponse(*updated)).BuildAndSend()
}

func closedDraftFuture(draft *entities.DraftQuote) future.IFuture {
	return future.Factory().SetCapacity(1).
		SetError(future.NotAccepted, "Draft Quote Closed", errors.Errorf("draft quote %s is %s", draft.DraftQuoteId, draft.Status)).
		BuildAndSend()
}

func repoErrorFuture(err error) future.IFuture {
	switch {
	case errors.Is(err, draftquote_repository.ErrorNotFound):
		return future.Factory().SetCapacity(1).
			SetError(future.NotFound, "Draft Quote Not Found", err).
			BuildAndSend()
	case errors.Is(err, draftquote_repository.ErrorUpdateFailed):
		return future.Factory().SetCapacity(1).
			SetError(future.Conflict, "Draft Quote Update Failed", err).
			BuildAndSend()
	case errors.Is(err, context.DeadlineExceeded):
		return future.Factory().SetCapacity(1).
			SetError(future.InternalError, "Request Timeout", err).
			BuildAndSend()
	default:
		return future.Factory().SetCapacity(1).
			SetError(future.InternalError, "Unknown Error", err).
			BuildAndSend()
	}
}

