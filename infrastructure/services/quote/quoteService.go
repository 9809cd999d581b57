package quote_service

import (
	"context"
	"time"

	"gitlab.faza.io/quote-project/draft-quote-service/domain/models/entities"
	"gitlab.faza.io/quote-project/draft-quote-service/infrastructure/future"
)

// IQuoteService is the persistence port of the draft quote store.
// Every call completes its future exactly once, with DraftQuoteResponse,
// FinalizeResponse or nil data, or with an IErrorFuture.
type IQuoteService interface {
	Create(ctx context.Context, request CreateDraftQuoteRequest) future.IFuture
	Update(ctx context.Context, draftQuoteId string, request UpdateDraftQuoteRequest) future.IFuture
	AddOption(ctx context.Context, draftQuoteId string, option entities.DraftQuoteOption) future.IFuture
	DeleteOption(ctx context.Context, draftQuoteId, optionId string) future.IFuture
	Finalize(ctx context.Context, draftQuoteId, selectedOptionId string, validityDays int) future.IFuture
	FetchById(ctx context.Context, draftQuoteId string) future.IFuture
	Delete(ctx context.Context, draftQuoteId string) future.IFuture
}

type CreateDraftQuoteRequest struct {
	RequestQuoteId string             `json:"requestQuoteId"`
	Customer       *entities.Customer `json:"customer,omitempty"`
	Shipment       *entities.Shipment `json:"shipment,omitempty"`
	Wizard         *entities.Wizard   `json:"wizard,omitempty"`
}

type UpdateDraftQuoteRequest struct {
	Customer        *entities.Customer          `json:"customer,omitempty"`
	Shipment        *entities.Shipment          `json:"shipment,omitempty"`
	Wizard          *entities.Wizard            `json:"wizard,omitempty"`
	CommercialTerms *entities.CommercialTerms   `json:"commercialTerms,omitempty"`
	Options         []entities.DraftQuoteOption `json:"options"`
	Notes           *string                     `json:"notes"`
	Status          entities.DraftQuoteStatus   `json:"status,omitempty"`
}

type FinalizeRequest struct {
	SelectedOptionId string `json:"selectedOptionId"`
	ValidityDays     int    `json:"validityDays"`
}

type DraftQuoteResponse struct {
	DraftQuoteId    string                      `json:"draftQuoteId"`
	RequestQuoteId  string                      `json:"requestQuoteId,omitempty"`
	Status          entities.DraftQuoteStatus   `json:"status,omitempty"`
	Currency        string                      `json:"currency,omitempty"`
	Customer        *entities.Customer          `json:"customer,omitempty"`
	Shipment        *entities.Shipment          `json:"shipment,omitempty"`
	CommercialTerms *entities.CommercialTerms   `json:"commercialTerms,omitempty"`
	Wizard          *entities.Wizard            `json:"wizard,omitempty"`
	Options         []entities.DraftQuoteOption `json:"options,omitempty"`
	Notes           string                      `json:"notes,omitempty"`
	CreatedAt       *time.Time                  `json:"createdAt,omitempty"`
	UpdatedAt       *time.Time                  `json:"updatedAt,omitempty"`
}

type FinalizeResponse struct {
	DraftQuoteId string                    `json:"draftQuoteId"`
	Status       entities.DraftQuoteStatus `json:"status,omitempty"`
	ValidUntil   *time.Time                `json:"validUntil,omitempty"`
}

// ErrorResponse is the error body returned by the quote service API.
type ErrorResponse struct {
	Status  int      `json:"status"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

func NewCreateDraftQuoteRequest(draft entities.DraftQuote) CreateDraftQuoteRequest {
	clone := draft.Clone()
	return CreateDraftQuoteRequest{
		RequestQuoteId: clone.RequestQuoteId,
		Customer:       &clone.Customer,
		Shipment:       &clone.Shipment,
		Wizard:         &clone.Wizard,
	}
}

func NewUpdateDraftQuoteRequest(draft entities.DraftQuote) UpdateDraftQuoteRequest {
	clone := draft.Clone()
	request := UpdateDraftQuoteRequest{
		Customer:        &clone.Customer,
		Shipment:        &clone.Shipment,
		Wizard:          &clone.Wizard,
		CommercialTerms: &clone.CommercialTerms,
		Options:         clone.Options,
		Notes:           &clone.Notes,
		Status:          clone.Status,
	}
	// an empty slice clears the stored options, nil would leave them untouched
	if request.Options == nil {
		request.Options = make([]entities.DraftQuoteOption, 0)
	}
	return request
}

func NewDraftQuoteResponse(draft entities.DraftQuote) DraftQuoteResponse {
	clone := draft.Clone()
	response := DraftQuoteResponse{
		DraftQuoteId:    clone.DraftQuoteId,
		RequestQuoteId:  clone.RequestQuoteId,
		Status:          clone.Status,
		Currency:        clone.Currency,
		Customer:        &clone.Customer,
		Shipment:        &clone.Shipment,
		CommercialTerms: &clone.CommercialTerms,
		Wizard:          &clone.Wizard,
		Options:         clone.Options,
		Notes:           clone.Notes,
	}
	if !clone.CreatedAt.IsZero() {
		response.CreatedAt = &clone.CreatedAt
	}
	if !clone.UpdatedAt.IsZero() {
		response.UpdatedAt = &clone.UpdatedAt
	}
	return response
}

// ToDraftQuote rebuilds the aggregate, applying entity defaults where the response is silent.
func (response DraftQuoteResponse) ToDraftQuote() entities.DraftQuote {
	draft := entities.NewDraftQuote(response.RequestQuoteId)
	draft.DraftQuoteId = response.DraftQuoteId
	if response.Status != "" {
		draft.Status = response.Status
	}
	if response.Currency != "" {
		draft.Currency = response.Currency
	}
	if response.Customer != nil {
		draft.Customer = *response.Customer
	}
	if response.Shipment != nil {
		draft.Shipment = *response.Shipment
	}
	if response.CommercialTerms != nil {
		draft.CommercialTerms = *response.CommercialTerms
	}
	if response.Wizard != nil {
		draft.Wizard = *response.Wizard
	}
	if response.Options != nil {
		draft.Options = response.Options
	}
	draft.Notes = response.Notes
	if response.CreatedAt != nil {
		draft.CreatedAt = *response.CreatedAt
	}
	if response.UpdatedAt != nil {
		draft.UpdatedAt = *response.UpdatedAt
	}
	return draft.Clone()
}
