package domain

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gitlab.faza.io/quote-project/draft-quote-service/domain/models/entities"
	"gitlab.faza.io/quote-project/draft-quote-service/domain/validator"
	"gitlab.faza.io/quote-project/draft-quote-service/infrastructure/future"
	"gitlab.faza.io/quote-project/draft-quote-service/infrastructure/metrics"
	applog "gitlab.faza.io/quote-project/draft-quote-service/infrastructure/logger"
)

const (
	DefaultAutosaveDelay        = 2 * time.Second
	DefaultFinalizeValidityDays = 30
)

const (
	ErrMsgDraftQuoteDeleted    string = "draft quote deleted"
	ErrMsgDraftQuoteNotSaved   string = "draft quote not saved yet"
	ErrMsgCannotFinalize       string = "draft quote cannot be finalized"
	ErrMsgSaveInProgress       string = "draft quote save in progress"
	ErrMsgOptionNotFound       string = "option not found"
	ErrMsgUnexpectedPortResult string = "unexpected quote service response"
)

var ErrDraftQuoteDeleted = errors.New(ErrMsgDraftQuoteDeleted)

// IDraftQuoteStore owns one draft quote and its editing state. Mutations never fail:
// unknown option ids are ignored. Persistence operations report their outcome as a bool
// and publish failures through State().SaveError.
type IDraftQuoteStore interface {
	Snapshot() entities.DraftQuote
	State() StoreState
	Validation() validator.ValidationResult

	UpdateCustomer(patch entities.CustomerPatch)
	UpdateShipment(patch entities.ShipmentPatch)
	UpdateWizard(patch entities.WizardPatch)
	UpdateCommercialTerms(patch entities.CommercialTermsPatch)
	UpdateNotes(notes string)

	AddOption(optionId string, seed entities.OptionPatch) entities.DraftQuoteOption
	UpdateOption(optionId string, patch entities.OptionPatch)
	DeleteOption(optionId string)
	RecalculateTotals(optionId string)
	RecalculateAllTotals()
	SetSelectedOptionId(optionId string)

	SelectedOption() (entities.DraftQuoteOption, bool)
	HasOptions() bool
	TotalOptions() int
	TotalValue() decimal.Decimal
	CanFinalize() bool

	StartEditing()
	StopEditing()
	Reset()
	// SetStatus assigns any status; TransitionStatus only follows the status table.
	SetStatus(status entities.DraftQuoteStatus)
	TransitionStatus(status entities.DraftQuoteStatus) error

	Save(ctx context.Context) bool
	Load(ctx context.Context, draftQuoteId string) bool
	Finalize(ctx context.Context, validityDays int) bool
	Delete(ctx context.Context) bool
	PersistOption(ctx context.Context, optionId string) bool
	RemovePersistedOption(ctx context.Context, optionId string) bool

	// Close cancels the autosave timer. The store keeps answering reads.
	Close()
}

type StoreState struct {
	DraftQuoteId     string           `json:"draftQuoteId,omitempty"`
	SelectedOptionId string           `json:"selectedOptionId,omitempty"`
	IsEditing        bool             `json:"isEditing"`
	IsDirty          bool             `json:"isDirty"`
	IsSaving         bool             `json:"isSaving"`
	IsDeleted        bool             `json:"isDeleted"`
	LastSavedAt      *time.Time       `json:"lastSavedAt,omitempty"`
	SaveError        string           `json:"saveError,omitempty"`
	// SaveErrorCode is the quote service error code behind SaveError, zero when the failure is local.
	SaveErrorCode    future.ErrorCode `json:"saveErrorCode,omitempty"`
}

// StoreOptions tunes a draft quote store. Zero values fall back to defaults,
// a negative AutosaveDelay disables autosave.
type StoreOptions struct {
	AutosaveDelay        time.Duration
	FinalizeValidityDays int
	Metrics              *metrics.Metrics
	Logger               applog.Logger
	Now                  func() time.Time
	NewOptionId          func() string
	// BaseContext is used by autosave, which has no caller context.
	BaseContext context.Context
}
