package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gitlab.faza.io/quote-project/draft-quote-service/domain/models/entities"
	"gitlab.faza.io/quote-project/draft-quote-service/infrastructure/utils/calculate"
)

type iOptionStoreImpl struct {
	options          *[]entities.DraftQuoteOption
	selectedOptionId string
	now              func() time.Time
	newOptionId      func() string
}

// NewOptionStore manages the given options slice in place.
func NewOptionStore(options *[]entities.DraftQuoteOption) IOptionStore {
	return newOptionStore(options, time.Now, uuid.NewString)
}

func newOptionStore(options *[]entities.DraftQuoteOption, now func() time.Time, newOptionId func() string) *iOptionStoreImpl {
	if *options == nil {
		*options = make([]entities.DraftQuoteOption, 0, 4)
	}
	return &iOptionStoreImpl{
		options:     options,
		now:         now,
		newOptionId: newOptionId,
	}
}

func (store *iOptionStoreImpl) AddOption(optionId string, seed entities.OptionPatch) entities.DraftQuoteOption {
	if optionId == "" {
		optionId = store.newOptionId()
	}
	option := entities.NewDraftQuoteOption(optionId, store.now())
	option.Apply(seed)
	*store.options = append(*store.options, option)
	return option.Clone()
}

func (store *iOptionStoreImpl) UpdateOption(optionId string, patch entities.OptionPatch) error {
	index, ok := store.find(optionId)
	if !ok {
		return errors.Wrap(ErrOptionNotFound, optionId)
	}
	(*store.options)[index].Apply(patch)
	return nil
}

func (store *iOptionStoreImpl) DeleteOption(optionId string) error {
	index, ok := store.find(optionId)
	if !ok {
		return errors.Wrap(ErrOptionNotFound, optionId)
	}
	options := *store.options
	*store.options = append(options[:index:index], options[index+1:]...)
	if store.selectedOptionId == optionId {
		store.selectedOptionId = ""
	}
	return nil
}

func (store *iOptionStoreImpl) RecalculateTotals(optionId string) error {
	index, ok := store.find(optionId)
	if !ok {
		return errors.Wrap(ErrOptionNotFound, optionId)
	}
	(*store.options)[index] = calculate.CalculateOptionTotals((*store.options)[index])
	return nil
}

func (store *iOptionStoreImpl) RecalculateAllTotals() int {
	for i := range *store.options {
		(*store.options)[i] = calculate.CalculateOptionTotals((*store.options)[i])
	}
	return len(*store.options)
}

func (store *iOptionStoreImpl) SetSelectedOptionId(optionId string) {
	store.selectedOptionId = optionId
}

func (store *iOptionStoreImpl) SelectOption(optionId string) error {
	if optionId != "" {
		if _, ok := store.find(optionId); !ok {
			return errors.Wrap(ErrOptionNotFound, optionId)
		}
	}
	store.selectedOptionId = optionId
	return nil
}

func (store *iOptionStoreImpl) SelectedOptionId() string {
	return store.selectedOptionId
}

func (store *iOptionStoreImpl) Option(optionId string) (entities.DraftQuoteOption, bool) {
	index, ok := store.find(optionId)
	if !ok {
		return entities.DraftQuoteOption{}, false
	}
	return (*store.options)[index].Clone(), true
}

func (store *iOptionStoreImpl) Options() []entities.DraftQuoteOption {
	options := make([]entities.DraftQuoteOption, len(*store.options))
	for i := range *store.options {
		options[i] = (*store.options)[i].Clone()
	}
	return options
}

func (store *iOptionStoreImpl) SelectedOption() (entities.DraftQuoteOption, bool) {
	if store.selectedOptionId == "" {
		return entities.DraftQuoteOption{}, false
	}
	return store.Option(store.selectedOptionId)
}

func (store *iOptionStoreImpl) HasOptions() bool {
	return len(*store.options) > 0
}

func (store *iOptionStoreImpl) TotalOptions() int {
	return len(*store.options)
}

func (store *iOptionStoreImpl) TotalValue() decimal.Decimal {
	return calculate.TotalValue(*store.options)
}

// find returns the first option with the id, ids are not enforced unique.
func (store *iOptionStoreImpl) find(optionId string) (int, bool) {
	for i := range *store.options {
		if (*store.options)[i].OptionId == optionId {
			return i, true
		}
	}
	return -1, false
}
