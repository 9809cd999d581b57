package validator

import (
	"strings"

	"gitlab.faza.io/quote-project/draft-quote-service/domain/models/entities"
)

const (
	ErrMsgRequestQuoteIdRequired      string = "Request quote ID is required"
	ErrMsgCustomerNameRequired        string = "Customer name is required"
	ErrMsgOriginLocationRequired      string = "Origin location is required"
	ErrMsgDestinationLocationRequired string = "Destination location is required"
	ErrMsgContainerTypesRequired      string = "At least one container type is required"
)

type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// Message joins all errors the way they are surfaced as save error.
func (result ValidationResult) Message() string {
	return strings.Join(result.Errors, ", ")
}

// ValidateDraftQuote runs every required-field check without short-circuiting.
// A nil draft is treated as a draft with every field missing.
func ValidateDraftQuote(draft *entities.DraftQuote) ValidationResult {
	if draft == nil {
		draft = &entities.DraftQuote{}
	}

	errors := make([]string, 0, 5)
	if draft.RequestQuoteId == "" {
		errors = append(errors, ErrMsgRequestQuoteIdRequired)
	}
	if draft.Customer.Name == "" {
		errors = append(errors, ErrMsgCustomerNameRequired)
	}
	if draft.Shipment.Origin.Location == "" {
		errors = append(errors, ErrMsgOriginLocationRequired)
	}
	if draft.Shipment.Destination.Location == "" {
		errors = append(errors, ErrMsgDestinationLocationRequired)
	}
	if len(draft.Shipment.ContainerTypes) == 0 {
		errors = append(errors, ErrMsgContainerTypesRequired)
	}

	return ValidationResult{
		IsValid: len(errors) == 0,
		Errors:  errors,
	}
}
