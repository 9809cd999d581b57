package domain

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gitlab.faza.io/quote-project/draft-quote-service/domain/models/entities"
)

var ErrOptionNotFound = errors.New("option not found")

// IOptionStore manages the options of one draft quote plus the selected option pointer.
// Implementations are not safe for concurrent use; the draft quote store serializes access.
type IOptionStore interface {
	// AddOption appends an option built from the default template merged with seed.
	// An empty optionId is replaced by a generated one. The new option is not selected.
	AddOption(optionId string, seed entities.OptionPatch) entities.DraftQuoteOption
	UpdateOption(optionId string, patch entities.OptionPatch) error
	// DeleteOption clears the selection when it pointed at the removed option.
	DeleteOption(optionId string) error
	RecalculateTotals(optionId string) error
	RecalculateAllTotals() int

	// SetSelectedOptionId does not check that the id exists, an empty id clears the selection.
	SetSelectedOptionId(optionId string)
	// SelectOption is the checked variant of SetSelectedOptionId.
	SelectOption(optionId string) error
	SelectedOptionId() string

	Option(optionId string) (entities.DraftQuoteOption, bool)
	Options() []entities.DraftQuoteOption
	SelectedOption() (entities.DraftQuoteOption, bool)
	HasOptions() bool
	TotalOptions() int
	TotalValue() decimal.Decimal
}
