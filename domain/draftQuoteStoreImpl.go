package domain

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gitlab.faza.io/quote-project/draft-quote-service/domain/models/entities"
	"gitlab.faza.io/quote-project/draft-quote-service/domain/states"
	"gitlab.faza.io/quote-project/draft-quote-service/domain/validator"
	"gitlab.faza.io/quote-project/draft-quote-service/infrastructure/future"
	"gitlab.faza.io/quote-project/draft-quote-service/infrastructure/metrics"
	applog "gitlab.faza.io/quote-project/draft-quote-service/infrastructure/logger"
	quote_service "gitlab.faza.io/quote-project/draft-quote-service/infrastructure/services/quote"
	"gitlab.faza.io/quote-project/draft-quote-service/infrastructure/utils"
)

type saveFlight struct {
	ctx      context.Context
	release  func()
	done     chan struct{}
	revision uint64
	result   bool
}

type savePlan struct {
	ready    bool
	snapshot entities.DraftQuote
	revision uint64
}

type iDraftQuoteStoreImpl struct {
	mutex        sync.Mutex
	quoteService quote_service.IQuoteService
	draft        entities.DraftQuote
	initial      entities.DraftQuote
	optionStore  *iOptionStoreImpl

	isEditing          bool
	isSaving           bool
	isDeleted          bool
	isClosed           bool
	revision           uint64
	savedRevision      uint64
	savedSinceSnapshot bool
	lastSavedAt        *time.Time
	saveError          string
	saveErrorCode      future.ErrorCode

	inflight *saveFlight
	pending  *saveFlight
	timer    *time.Timer
	timerGen uint64

	autosaveDelay        time.Duration
	finalizeValidityDays int
	metrics              *metrics.Metrics
	logger               applog.Logger
	now                  func() time.Time
	baseCtx              context.Context
}

func NewDraftQuoteStore(quoteService quote_service.IQuoteService, draft entities.DraftQuote, options StoreOptions) IDraftQuoteStore {
	return newDraftQuoteStore(quoteService, draft, options)
}

func newDraftQuoteStore(quoteService quote_service.IQuoteService, draft entities.DraftQuote, options StoreOptions) *iDraftQuoteStoreImpl {
	if options.AutosaveDelay == 0 {
		options.AutosaveDelay = DefaultAutosaveDelay
	}
	if options.FinalizeValidityDays <= 0 {
		options.FinalizeValidityDays = DefaultFinalizeValidityDays
	}
	if options.Logger == nil {
		options.Logger = applog.GLog.Logger
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.NewOptionId == nil {
		options.NewOptionId = uuid.NewString
	}
	if options.BaseContext == nil {
		options.BaseContext = context.Background()
	}

	store := &iDraftQuoteStoreImpl{
		quoteService:         quoteService,
		draft:                draft.Clone(),
		autosaveDelay:        options.AutosaveDelay,
		finalizeValidityDays: options.FinalizeValidityDays,
		metrics:              options.Metrics,
		logger:               options.Logger,
		now:                  options.Now,
		baseCtx:              options.BaseContext,
	}
	store.optionStore = newOptionStore(&store.draft.Options, options.Now, options.NewOptionId)
	store.initial = store.draft.Clone()
	return store
}

func (store *iDraftQuoteStoreImpl) Snapshot() entities.DraftQuote {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return store.draft.Clone()
}

func (store *iDraftQuoteStoreImpl) State() StoreState {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	state := StoreState{
		DraftQuoteId:     store.draft.DraftQuoteId,
		SelectedOptionId: store.optionStore.SelectedOptionId(),
		IsEditing:        store.isEditing,
		IsDirty:          store.isDirtyLocked(),
		IsSaving:         store.isSaving,
		IsDeleted:        store.isDeleted,
		SaveError:        store.saveError,
		SaveErrorCode:    store.saveErrorCode,
	}
	if store.lastSavedAt != nil {
		lastSavedAt := *store.lastSavedAt
		state.LastSavedAt = &lastSavedAt
	}
	return state
}

func (store *iDraftQuoteStoreImpl) Validation() validator.ValidationResult {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return validator.ValidateDraftQuote(&store.draft)
}

func (store *iDraftQuoteStoreImpl) UpdateCustomer(patch entities.CustomerPatch) {
	store.mutate("UpdateCustomer", func() bool {
		store.draft.Customer.Apply(patch)
		return true
	})
}

func (store *iDraftQuoteStoreImpl) UpdateShipment(patch entities.ShipmentPatch) {
	store.mutate("UpdateShipment", func() bool {
		store.draft.Shipment.Apply(patch)
		return true
	})
}

func (store *iDraftQuoteStoreImpl) UpdateWizard(patch entities.WizardPatch) {
	store.mutate("UpdateWizard", func() bool {
		store.draft.Wizard.Apply(patch)
		return true
	})
}

func (store *iDraftQuoteStoreImpl) UpdateCommercialTerms(patch entities.CommercialTermsPatch) {
	store.mutate("UpdateCommercialTerms", func() bool {
		store.draft.CommercialTerms.Apply(patch)
		return true
	})
}

func (store *iDraftQuoteStoreImpl) UpdateNotes(notes string) {
	store.mutate("UpdateNotes", func() bool {
		if store.draft.Notes == notes {
			return false
		}
		store.draft.Notes = notes
		return true
	})
}

func (store *iDraftQuoteStoreImpl) AddOption(optionId string, seed entities.OptionPatch) entities.DraftQuoteOption {
	var option entities.DraftQuoteOption
	store.mutate("AddOption", func() bool {
		option = store.optionStore.AddOption(optionId, seed)
		return true
	})
	return option
}

func (store *iDraftQuoteStoreImpl) UpdateOption(optionId string, patch entities.OptionPatch) {
	store.mutate("UpdateOption", func() bool {
		return store.tolerate("UpdateOption", optionId, store.optionStore.UpdateOption(optionId, patch))
	})
}

func (store *iDraftQuoteStoreImpl) DeleteOption(optionId string) {
	store.mutate("DeleteOption", func() bool {
		return store.tolerate("DeleteOption", optionId, store.optionStore.DeleteOption(optionId))
	})
}

func (store *iDraftQuoteStoreImpl) RecalculateTotals(optionId string) {
	store.mutate("RecalculateTotals", func() bool {
		if !store.tolerate("RecalculateTotals", optionId, store.optionStore.RecalculateTotals(optionId)) {
			return false
		}
		store.metrics.TotalsRecalculated(1)
		return true
	})
}

func (store *iDraftQuoteStoreImpl) RecalculateAllTotals() {
	store.mutate("RecalculateAllTotals", func() bool {
		count := store.optionStore.RecalculateAllTotals()
		store.metrics.TotalsRecalculated(count)
		return count > 0
	})
}

func (store *iDraftQuoteStoreImpl) SetSelectedOptionId(optionId string) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.optionStore.SetSelectedOptionId(optionId)
}

func (store *iDraftQuoteStoreImpl) SelectedOption() (entities.DraftQuoteOption, bool) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return store.optionStore.SelectedOption()
}

func (store *iDraftQuoteStoreImpl) HasOptions() bool {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return store.optionStore.HasOptions()
}

func (store *iDraftQuoteStoreImpl) TotalOptions() int {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return store.optionStore.TotalOptions()
}

func (store *iDraftQuoteStoreImpl) TotalValue() decimal.Decimal {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return store.optionStore.TotalValue()
}

func (store *iDraftQuoteStoreImpl) CanFinalize() bool {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return store.canFinalizeLocked()
}

func (store *iDraftQuoteStoreImpl) StartEditing() {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.isEditing = true
}

func (store *iDraftQuoteStoreImpl) StopEditing() {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.isEditing = false
}

// Reset restores the snapshot taken at construction or the last Load. An assigned
// draftQuoteId survives, and when a save happened or is running since the snapshot
// the restored content is dirty against the stored document.
func (store *iDraftQuoteStoreImpl) Reset() {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	if store.isDeleted {
		return
	}

	draftQuoteId := store.draft.DraftQuoteId
	store.draft = store.initial.Clone()
	if draftQuoteId != "" {
		store.draft.DraftQuoteId = draftQuoteId
	}
	if store.draft.Options == nil {
		store.draft.Options = make([]entities.DraftQuoteOption, 0, 4)
	}
	store.optionStore.SetSelectedOptionId("")
	store.isEditing = false
	store.setSaveErrorLocked("", 0)

	if store.savedSinceSnapshot || store.inflight != nil {
		store.markDirtyLocked()
		return
	}
	store.revision++
	store.savedRevision = store.revision
	store.stopTimerLocked()
}

func (store *iDraftQuoteStoreImpl) SetStatus(status entities.DraftQuoteStatus) {
	store.mutate("SetStatus", func() bool {
		if !status.IsValid() {
			store.logger.Debug("unknown status ignored", "fn", "SetStatus", "status", status)
			return false
		}
		if store.draft.Status == status {
			return false
		}
		store.draft.Status = status
		return true
	})
}

func (store *iDraftQuoteStoreImpl) TransitionStatus(status entities.DraftQuoteStatus) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	if store.isDeleted {
		return ErrDraftQuoteDeleted
	}

	next, err := states.Transition(store.draft.Status, status)
	if err != nil {
		return err
	}
	store.draft.Status = next
	store.markDirtyLocked()
	return nil
}

// Save validates and persists the draft. At most one port call is in flight: a Save that
// arrives meanwhile waits for it, or, when the draft changed since that call started,
// for the single follow-up save queued behind it.
func (store *iDraftQuoteStoreImpl) Save(ctx context.Context) bool {
	store.mutex.Lock()
	if store.inflight != nil {
		flight := store.inflight
		if store.revision != flight.revision {
			if store.pending == nil {
				store.pending = newQueuedSaveFlight(ctx, store.baseCtx)
			}
			flight = store.pending
		}
		mode := store.saveMode()
		store.mutex.Unlock()
		store.metrics.SaveCompleted(mode, metrics.CoalescedOutcome, 0)

		waitCtx, cancel := utils.ORContext(ctx, store.baseCtx)
		defer cancel()
		select {
		case <-flight.done:
			return flight.result
		case <-waitCtx.Done():
			return false
		}
	}

	flight := newSaveFlight(ctx)
	store.inflight = flight
	plan := store.prepareLocked(flight)
	store.mutex.Unlock()

	store.run(flight, plan)
	return flight.result
}

func (store *iDraftQuoteStoreImpl) Load(ctx context.Context, draftQuoteId string) bool {
	store.mutex.Lock()
	if store.inflight != nil {
		store.setSaveErrorLocked(ErrMsgSaveInProgress, 0)
		store.mutex.Unlock()
		return false
	}
	store.mutex.Unlock()

	futureData := store.quoteService.FetchById(ctx, draftQuoteId).Get()
	if !store.acceptPortResult(ctx, "Load", draftQuoteId, futureData) {
		return false
	}

	response, ok := futureData.Data().(quote_service.DraftQuoteResponse)
	if !ok {
		store.failPort(ctx, "Load", draftQuoteId, ErrMsgUnexpectedPortResult, future.InternalError)
		return false
	}
	draft := response.ToDraftQuote()
	if draft.DraftQuoteId == "" {
		draft.DraftQuoteId = draftQuoteId
	}

	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.stopTimerLocked()
	store.draft = draft
	if store.draft.Options == nil {
		store.draft.Options = make([]entities.DraftQuoteOption, 0, 4)
	}
	store.initial = store.draft.Clone()
	store.optionStore.SetSelectedOptionId("")
	store.revision++
	store.savedRevision = store.revision
	store.savedSinceSnapshot = false
	store.isEditing = false
	store.isDeleted = false
	store.setSaveErrorLocked("", 0)
	return true
}

func (store *iDraftQuoteStoreImpl) Finalize(ctx context.Context, validityDays int) bool {
	if validityDays <= 0 {
		validityDays = store.finalizeValidityDays
	}

	store.mutex.Lock()
	if !store.checkFinalizeLocked() {
		store.mutex.Unlock()
		return false
	}
	needsSave := store.draft.DraftQuoteId == "" || store.isDirtyLocked()
	store.mutex.Unlock()

	if needsSave && !store.Save(ctx) {
		return false
	}

	store.mutex.Lock()
	if !store.checkFinalizeLocked() {
		store.mutex.Unlock()
		return false
	}
	draftQuoteId := store.draft.DraftQuoteId
	selectedOptionId := store.optionStore.SelectedOptionId()
	store.mutex.Unlock()

	futureData := store.quoteService.Finalize(ctx, draftQuoteId, selectedOptionId, validityDays).Get()
	if !store.acceptPortResult(ctx, "Finalize", draftQuoteId, futureData) {
		return false
	}

	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.draft.Status = entities.FinalizedStatus
	store.draft.CommercialTerms.ValidityDays = validityDays
	lastSavedAt := store.now()
	store.lastSavedAt = &lastSavedAt
	store.setSaveErrorLocked("", 0)
	store.logger.FromContext(ctx).Info("draft quote finalized",
		"fn", "Finalize",
		"draftQuoteId", draftQuoteId,
		"optionId", selectedOptionId)
	return true
}

func (store *iDraftQuoteStoreImpl) Delete(ctx context.Context) bool {
	store.mutex.Lock()
	if store.isDeleted {
		store.mutex.Unlock()
		return true
	}
	if store.inflight != nil {
		store.setSaveErrorLocked(ErrMsgSaveInProgress, 0)
		store.mutex.Unlock()
		return false
	}
	draftQuoteId := store.draft.DraftQuoteId
	store.mutex.Unlock()

	if draftQuoteId != "" {
		futureData := store.quoteService.Delete(ctx, draftQuoteId).Get()
		if !store.acceptPortResult(ctx, "Delete", draftQuoteId, futureData) {
			return false
		}
	}

	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.isDeleted = true
	store.isEditing = false
	store.setSaveErrorLocked("", 0)
	store.stopTimerLocked()
	return true
}

func (store *iDraftQuoteStoreImpl) PersistOption(ctx context.Context, optionId string) bool {
	store.mutex.Lock()
	draftQuoteId, ok := store.persistedIdLocked()
	if !ok {
		store.mutex.Unlock()
		return false
	}
	option, found := store.optionStore.Option(optionId)
	if !found {
		store.setSaveErrorLocked(ErrMsgOptionNotFound, 0)
		store.mutex.Unlock()
		return false
	}
	store.mutex.Unlock()

	futureData := store.quoteService.AddOption(ctx, draftQuoteId, option).Get()
	if !store.acceptPortResult(ctx, "PersistOption", draftQuoteId, futureData) {
		return false
	}

	store.mutex.Lock()
	store.setSaveErrorLocked("", 0)
	store.mutex.Unlock()
	return true
}

// RemovePersistedOption deletes the option on the quote service and then locally.
// The local removal mirrors the stored document, so it does not dirty the draft.
func (store *iDraftQuoteStoreImpl) RemovePersistedOption(ctx context.Context, optionId string) bool {
	store.mutex.Lock()
	draftQuoteId, ok := store.persistedIdLocked()
	store.mutex.Unlock()
	if !ok {
		return false
	}

	futureData := store.quoteService.DeleteOption(ctx, draftQuoteId, optionId).Get()
	if !store.acceptPortResult(ctx, "RemovePersistedOption", draftQuoteId, futureData) {
		return false
	}

	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.tolerate("RemovePersistedOption", optionId, store.optionStore.DeleteOption(optionId))
	store.setSaveErrorLocked("", 0)
	return true
}

func (store *iDraftQuoteStoreImpl) Close() {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.isClosed = true
	store.stopTimerLocked()
}

func newSaveFlight(ctx context.Context) *saveFlight {
	return &saveFlight{ctx: ctx, done: make(chan struct{})}
}

// newQueuedSaveFlight keeps the values of the queuing caller's context but not its
// cancellation: the follow-up serves every waiter joined to it, so only the store's
// base context ends it.
func newQueuedSaveFlight(ctx, baseCtx context.Context) *saveFlight {
	detached, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(baseCtx, cancel)
	return &saveFlight{
		ctx:  detached,
		done: make(chan struct{}),
		release: func() {
			stop()
			cancel()
		},
	}
}

func (store *iDraftQuoteStoreImpl) prepareLocked(flight *saveFlight) savePlan {
	flight.revision = store.revision
	if store.isDeleted {
		store.setSaveErrorLocked(ErrMsgDraftQuoteDeleted, 0)
		store.metrics.SaveCompleted(store.saveMode(), metrics.DeletedOutcome, 0)
		return savePlan{}
	}

	validation := validator.ValidateDraftQuote(&store.draft)
	if !validation.IsValid {
		store.setSaveErrorLocked(validation.Message(), 0)
		store.metrics.SaveCompleted(store.saveMode(), metrics.InvalidOutcome, 0)
		store.logger.FromContext(flight.ctx).Debug("save blocked by validation",
			"fn", "Save",
			"requestQuoteId", store.draft.RequestQuoteId,
			"errors", validation.Errors)
		return savePlan{}
	}

	store.isSaving = true
	return savePlan{
		ready:    true,
		snapshot: store.draft.Clone(),
		revision: store.revision,
	}
}

func (store *iDraftQuoteStoreImpl) run(flight *saveFlight, plan savePlan) {
	result := false
	if plan.ready {
		result = store.persist(flight.ctx, plan)
	}
	if flight.release != nil {
		flight.release()
	}

	store.mutex.Lock()
	defer store.mutex.Unlock()
	flight.result = result
	close(flight.done)

	next := store.pending
	store.pending = nil
	if next != nil {
		store.inflight = next
		nextPlan := store.prepareLocked(next)
		go store.run(next, nextPlan)
		return
	}

	store.inflight = nil
	if store.isDirtyLocked() && store.revision != flight.revision {
		store.scheduleAutosaveLocked()
	}
}

func (store *iDraftQuoteStoreImpl) persist(ctx context.Context, plan savePlan) bool {
	startTime := store.now()
	mode := metrics.UpdateMode

	var futureData, followUp future.IDataFuture
	if plan.snapshot.DraftQuoteId == "" {
		mode = metrics.CreateMode
		futureData, followUp = store.create(ctx, plan.snapshot)
	} else {
		futureData = store.quoteService.Update(ctx, plan.snapshot.DraftQuoteId, quote_service.NewUpdateDraftQuoteRequest(plan.snapshot)).Get()
	}
	duration := store.now().Sub(startTime)

	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.isSaving = false

	if !store.acceptSaveResultLocked(ctx, mode, plan, futureData, duration) {
		return false
	}

	if mode == metrics.CreateMode {
		response, ok := futureData.Data().(quote_service.DraftQuoteResponse)
		if !ok || response.DraftQuoteId == "" {
			store.setSaveErrorLocked(ErrMsgUnexpectedPortResult, future.InternalError)
			store.metrics.SaveCompleted(mode, metrics.FailedOutcome, duration)
			return false
		}
		if store.draft.DraftQuoteId == "" {
			store.draft.DraftQuoteId = response.DraftQuoteId
		}
		store.savedSinceSnapshot = true
		// the document exists but misses what only an update carries, so the draft stays dirty
		if followUp != nil && !store.acceptSaveResultLocked(ctx, metrics.UpdateMode, plan, followUp, duration) {
			return false
		}
	}

	if plan.revision > store.savedRevision {
		store.savedRevision = plan.revision
	}
	store.savedSinceSnapshot = true
	lastSavedAt := store.now()
	store.lastSavedAt = &lastSavedAt
	store.setSaveErrorLocked("", 0)
	store.metrics.SaveCompleted(mode, metrics.SuccessOutcome, duration)
	store.logger.FromContext(ctx).Debug("draft quote saved",
		"fn", "Save",
		"mode", mode,
		"draftQuoteId", store.draft.DraftQuoteId)
	return true
}

// create posts a new document. The create request carries only the request quote id,
// customer, shipment and wizard; anything else the draft holds is sent right after
// with an update of the new document.
func (store *iDraftQuoteStoreImpl) create(ctx context.Context, snapshot entities.DraftQuote) (future.IDataFuture, future.IDataFuture) {
	futureData := store.quoteService.Create(ctx, quote_service.NewCreateDraftQuoteRequest(snapshot)).Get()
	if futureData == nil || futureData.Error() != nil || !outgrowsCreateRequest(snapshot) {
		return futureData, nil
	}
	response, ok := futureData.Data().(quote_service.DraftQuoteResponse)
	if !ok || response.DraftQuoteId == "" {
		return futureData, nil
	}
	return futureData, store.quoteService.Update(ctx, response.DraftQuoteId, quote_service.NewUpdateDraftQuoteRequest(snapshot)).Get()
}

func outgrowsCreateRequest(draft entities.DraftQuote) bool {
	return len(draft.Options) > 0 ||
		draft.Notes != "" ||
		draft.CommercialTerms != (entities.CommercialTerms{}) ||
		draft.Status != entities.DraftStatus
}

func (store *iDraftQuoteStoreImpl) acceptSaveResultLocked(ctx context.Context, mode string, plan savePlan, futureData future.IDataFuture, duration time.Duration) bool {
	if futureData == nil {
		store.setSaveErrorLocked(ErrMsgUnexpectedPortResult, future.InternalError)
		store.metrics.SaveCompleted(mode, metrics.FailedOutcome, duration)
		return false
	}

	if errFuture := futureData.Error(); errFuture != nil {
		store.setSaveErrorLocked(portErrorMessage(errFuture), errFuture.Code())
		store.metrics.SaveCompleted(mode, metrics.FailedOutcome, duration)
		store.logger.FromContext(ctx).Error("save draft quote failed",
			"fn", "Save",
			"mode", mode,
			"requestQuoteId", plan.snapshot.RequestQuoteId,
			"draftQuoteId", store.draft.DraftQuoteId,
			"error", errFuture)
		return false
	}
	return true
}

func (store *iDraftQuoteStoreImpl) autosave(gen uint64) {
	store.mutex.Lock()
	if gen != store.timerGen || store.isClosed || store.isDeleted || !store.isDirtyLocked() || store.inflight != nil {
		store.mutex.Unlock()
		return
	}
	ctx := store.baseCtx
	store.mutex.Unlock()

	store.metrics.AutosaveTriggered()
	store.Save(ctx)
}

func (store *iDraftQuoteStoreImpl) mutate(fn string, mutation func() bool) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	if store.isDeleted {
		store.logger.Debug("mutation ignored, draft quote deleted", "fn", fn, "draftQuoteId", store.draft.DraftQuoteId)
		return
	}
	if mutation() {
		store.markDirtyLocked()
	}
}

// tolerate turns a missing option into a logged no-op.
func (store *iDraftQuoteStoreImpl) tolerate(fn, optionId string, err error) bool {
	if err != nil {
		store.logger.Debug("option not found, ignored", "fn", fn, "optionId", optionId, "error", err)
		return false
	}
	return true
}

func (store *iDraftQuoteStoreImpl) markDirtyLocked() {
	store.revision++
	store.scheduleAutosaveLocked()
}

func (store *iDraftQuoteStoreImpl) isDirtyLocked() bool {
	return store.revision != store.savedRevision
}

func (store *iDraftQuoteStoreImpl) scheduleAutosaveLocked() {
	if store.autosaveDelay <= 0 || store.isClosed || store.isDeleted {
		return
	}
	store.stopTimerLocked()
	gen := store.timerGen
	store.timer = time.AfterFunc(store.autosaveDelay, func() {
		store.autosave(gen)
	})
}

func (store *iDraftQuoteStoreImpl) stopTimerLocked() {
	store.timerGen++
	if store.timer != nil {
		store.timer.Stop()
		store.timer = nil
	}
}

func (store *iDraftQuoteStoreImpl) canFinalizeLocked() bool {
	return validator.ValidateDraftQuote(&store.draft).IsValid &&
		store.optionStore.HasOptions() &&
		store.optionStore.SelectedOptionId() != "" &&
		store.draft.Status == entities.InProgressStatus
}

func (store *iDraftQuoteStoreImpl) checkFinalizeLocked() bool {
	if store.isDeleted {
		store.setSaveErrorLocked(ErrMsgDraftQuoteDeleted, 0)
		return false
	}
	if !store.canFinalizeLocked() {
		store.setSaveErrorLocked(ErrMsgCannotFinalize, 0)
		return false
	}
	return true
}

func (store *iDraftQuoteStoreImpl) persistedIdLocked() (string, bool) {
	if store.isDeleted {
		store.setSaveErrorLocked(ErrMsgDraftQuoteDeleted, 0)
		return "", false
	}
	if store.draft.DraftQuoteId == "" {
		store.setSaveErrorLocked(ErrMsgDraftQuoteNotSaved, 0)
		return "", false
	}
	return store.draft.DraftQuoteId, true
}

func (store *iDraftQuoteStoreImpl) saveMode() string {
	if store.draft.DraftQuoteId == "" {
		return metrics.CreateMode
	}
	return metrics.UpdateMode
}

// acceptPortResult records a failed port call in saveError and reports whether it succeeded.
func (store *iDraftQuoteStoreImpl) acceptPortResult(ctx context.Context, fn, draftQuoteId string, futureData future.IDataFuture) bool {
	if futureData == nil {
		store.failPort(ctx, fn, draftQuoteId, ErrMsgUnexpectedPortResult, future.InternalError)
		return false
	}
	if errFuture := futureData.Error(); errFuture != nil {
		store.failPort(ctx, fn, draftQuoteId, portErrorMessage(errFuture), errFuture.Code())
		return false
	}
	store.metrics.PortCallCompleted(fn, metrics.SuccessOutcome)
	return true
}

func (store *iDraftQuoteStoreImpl) failPort(ctx context.Context, fn, draftQuoteId, message string, code future.ErrorCode) {
	store.metrics.PortCallCompleted(fn, metrics.FailedOutcome)
	store.logger.FromContext(ctx).Error("quote service call failed",
		"fn", fn,
		"draftQuoteId", draftQuoteId,
		"error", message)

	store.mutex.Lock()
	store.setSaveErrorLocked(message, code)
	store.mutex.Unlock()
}

func (store *iDraftQuoteStoreImpl) setSaveErrorLocked(message string, code future.ErrorCode) {
	store.saveError = message
	store.saveErrorCode = code
}

func portErrorMessage(errFuture future.IErrorFuture) string {
	message := errFuture.Message()
	reason := errFuture.Reason()
	if reason == nil || reason.Error() == message {
		if message == "" {
			return errFuture.Error()
		}
		return message
	}
	if message == "" {
		return reason.Error()
	}
	return message + ": " + reason.Error()
}
