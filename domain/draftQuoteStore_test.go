package domain

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"gitlab.faza.io/quote-project/draft-quote-service/domain/models/entities"
	"gitlab.faza.io/quote-project/draft-quote-service/domain/states"
	"gitlab.faza.io/quote-project/draft-quote-service/domain/validator"
	"gitlab.faza.io/quote-project/draft-quote-service/infrastructure/future"
	"gitlab.faza.io/quote-project/draft-quote-service/infrastructure/metrics"
	quote_service "gitlab.faza.io/quote-project/draft-quote-service/infrastructure/services/quote"
)

func createValidDraft() entities.DraftQuote {
	draft := entities.NewDraftQuote("RQ-1")
	draft.Customer.Name = "Acme Shipping"
	draft.Shipment.Origin.Location = "Antwerp"
	draft.Shipment.Destination.Location = "Shanghai"
	draft.Shipment.ContainerTypes = []string{"20GP", "40HC"}
	return draft
}

func createStore(t *testing.T, quoteService quote_service.IQuoteService, draft entities.DraftQuote, options StoreOptions) *iDraftQuoteStoreImpl {
	if options.AutosaveDelay == 0 {
		options.AutosaveDelay = -1
	}
	options.Now = func() time.Time { return fixedNow }
	options.NewOptionId = sequenceIds("OPT")
	store := newDraftQuoteStore(quoteService, draft, options)
	t.Cleanup(store.Close)
	return store
}

func stringOf(value string) *string {
	return &value
}

func runSave(ctx context.Context, store IDraftQuoteStore) <-chan bool {
	result := make(chan bool, 1)
	go func() {
		result <- store.Save(ctx)
	}()
	return result
}

func coalescedSaves(registry *prometheus.Registry) float64 {
	families, err := registry.Gather()
	if err != nil {
		return -1
	}
	total := float64(0)
	for _, family := range families {
		if family.GetName() != "draft_quote_saves_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "outcome" && label.GetValue() == metrics.CoalescedOutcome {
					total += metric.GetCounter().GetValue()
				}
			}
		}
	}
	return total
}

func savesSeries(registry *prometheus.Registry) int {
	count, err := testutil.GatherAndCount(registry, "draft_quote_saves_total")
	if err != nil {
		return -1
	}
	return count
}

func TestNewStoreIsClean(t *testing.T) {
	store := createStore(t, quote_service.NewQuoteServiceMock(), entities.NewDraftQuote("RQ-1"), StoreOptions{})
	state := store.State()
	require.False(t, state.IsDirty)
	require.False(t, state.IsSaving)
	require.False(t, state.IsEditing)
	require.Nil(t, state.LastSavedAt)
	require.Empty(t, state.SaveError)
	require.False(t, store.HasOptions())
	require.True(t, store.TotalValue().IsZero())
}

func TestMutationsMarkDirty(t *testing.T) {
	mutations := map[string]func(store IDraftQuoteStore){
		"customer":        func(s IDraftQuoteStore) { s.UpdateCustomer(entities.CustomerPatch{Name: stringOf("Globex")}) },
		"shipment":        func(s IDraftQuoteStore) { s.UpdateShipment(entities.ShipmentPatch{Incoterm: stringOf("FOB")}) },
		"wizard":          func(s IDraftQuoteStore) { s.UpdateWizard(entities.WizardPatch{ServiceLevel: stringOf("express")}) },
		"commercialTerms": func(s IDraftQuoteStore) { s.UpdateCommercialTerms(entities.CommercialTermsPatch{PaymentTerms: stringOf("30d")}) },
		"notes":           func(s IDraftQuoteStore) { s.UpdateNotes("call first") },
		"addOption":       func(s IDraftQuoteStore) { s.AddOption("", entities.OptionPatch{}) },
		"status":          func(s IDraftQuoteStore) { s.SetStatus(entities.InProgressStatus) },
	}

	for name, mutation := range mutations {
		t.Run(name, func(t *testing.T) {
			store := createStore(t, quote_service.NewQuoteServiceMock(), createValidDraft(), StoreOptions{})
			mutation(store)
			require.True(t, store.State().IsDirty)
		})
	}
}

func TestOptionMutationsMarkDirty(t *testing.T) {
	store := createStore(t, quote_service.NewQuoteServiceMock(), createValidDraft(), StoreOptions{})
	store.AddOption("A", pricedPatch())
	require.True(t, store.Save(context.Background()))

	store.UpdateOption("A", entities.OptionPatch{Label: stringOf("Cheapest")})
	require.True(t, store.State().IsDirty)
	require.True(t, store.Save(context.Background()))

	store.RecalculateTotals("A")
	require.True(t, store.State().IsDirty)
	require.True(t, store.Save(context.Background()))

	store.DeleteOption("A")
	require.True(t, store.State().IsDirty)
}

func TestUnknownOptionIsNoop(t *testing.T) {
	store := createStore(t, quote_service.NewQuoteServiceMock(), createValidDraft(), StoreOptions{})
	store.UpdateOption("ghost", entities.OptionPatch{Label: stringOf("x")})
	store.DeleteOption("ghost")
	store.RecalculateTotals("ghost")
	require.False(t, store.State().IsDirty)
	require.Equal(t, 0, store.TotalOptions())
}

func TestSelectionDoesNotMarkDirty(t *testing.T) {
	store := createStore(t, quote_service.NewQuoteServiceMock(), createValidDraft(), StoreOptions{})
	store.AddOption("A", entities.OptionPatch{})
	require.True(t, store.Save(context.Background()))

	store.SetSelectedOptionId("A")
	require.False(t, store.State().IsDirty)
	require.Equal(t, "A", store.State().SelectedOptionId)
	option, ok := store.SelectedOption()
	require.True(t, ok)
	require.Equal(t, "A", option.OptionId)
}

func TestTotalsAcrossOptions(t *testing.T) {
	store := createStore(t, quote_service.NewQuoteServiceMock(), createValidDraft(), StoreOptions{})
	store.AddOption("A", pricedPatch())
	store.AddOption("B", pricedPatch())
	store.RecalculateAllTotals()

	require.Equal(t, 2, store.TotalOptions())
	require.Equal(t, "8190", store.TotalValue().String())
}

func TestSaveInvalidNeverCallsPort(t *testing.T) {
	mock := quote_service.NewQuoteServiceMock()
	store := createStore(t, mock, entities.NewDraftQuote("RQ-1"), StoreOptions{})
	store.UpdateNotes("draft")

	require.False(t, store.Save(context.Background()))
	require.Empty(t, mock.Calls())
	state := store.State()
	require.Equal(t, store.Validation().Message(), state.SaveError)
	require.Contains(t, state.SaveError, validator.ErrMsgCustomerNameRequired)
	require.Zero(t, state.SaveErrorCode)
	require.True(t, state.IsDirty)
}

func TestSaveCreatesThenUpdates(t *testing.T) {
	mock := quote_service.NewQuoteServiceMock()
	store := createStore(t, mock, createValidDraft(), StoreOptions{})

	require.True(t, store.Save(context.Background()))
	require.Equal(t, 1, mock.CallCount(quote_service.CreateMethod))
	state := store.State()
	require.Equal(t, "DQ-000001", state.DraftQuoteId)
	require.False(t, state.IsDirty)
	require.Empty(t, state.SaveError)
	require.NotNil(t, state.LastSavedAt)
	require.Equal(t, fixedNow, *state.LastSavedAt)

	create := mock.Calls()[0].Request.(quote_service.CreateDraftQuoteRequest)
	require.Equal(t, "RQ-1", create.RequestQuoteId)
	require.Equal(t, "Acme Shipping", create.Customer.Name)

	store.UpdateNotes("fragile cargo")
	require.True(t, store.Save(context.Background()))
	calls := mock.Calls()
	require.Len(t, calls, 2)
	require.Equal(t, quote_service.UpdateMethod, calls[1].Method)
	require.Equal(t, "DQ-000001", calls[1].DraftQuoteId)
	update := calls[1].Request.(quote_service.UpdateDraftQuoteRequest)
	require.Equal(t, "fragile cargo", *update.Notes)

	stored, ok := mock.Stored("DQ-000001")
	require.True(t, ok)
	require.Equal(t, "fragile cargo", stored.Notes)
}

func TestSaveFailureKeepsDirty(t *testing.T) {
	mock := quote_service.NewQuoteServiceMock()
	mock.Fail(quote_service.CreateMethod, future.InternalError, "quote service unavailable")
	store := createStore(t, mock, createValidDraft(), StoreOptions{})
	store.UpdateNotes("x")

	require.False(t, store.Save(context.Background()))
	state := store.State()
	require.Equal(t, "quote service unavailable", state.SaveError)
	require.True(t, state.IsDirty)
	require.Empty(t, state.DraftQuoteId)

	mock.Recover(quote_service.CreateMethod)
	require.True(t, store.Save(context.Background()))
	require.Empty(t, store.State().SaveError)
}

func TestSaveJoinsInflightSave(t *testing.T) {
	mock := quote_service.NewQuoteServiceMock()
	registry := prometheus.NewRegistry()
	store := createStore(t, mock, createValidDraft(), StoreOptions{Metrics: metrics.NewMetrics(registry)})
	release := mock.Hold()
	defer release()

	first := runSave(context.Background(), store)
	require.Eventually(t, func() bool { return mock.CallCount(quote_service.CreateMethod) == 1 }, time.Second, time.Millisecond)
	require.True(t, store.State().IsSaving)

	second := runSave(context.Background(), store)
	require.Eventually(t, func() bool { return savesSeries(registry) == 1 }, time.Second, time.Millisecond)

	release()
	require.True(t, <-first)
	require.True(t, <-second)
	require.Equal(t, 1, mock.CallCount(quote_service.CreateMethod))
	require.Equal(t, 0, mock.CallCount(quote_service.UpdateMethod))
}

func TestSaveQueuesFollowUpAfterChange(t *testing.T) {
	mock := quote_service.NewQuoteServiceMock()
	registry := prometheus.NewRegistry()
	store := createStore(t, mock, createValidDraft(), StoreOptions{Metrics: metrics.NewMetrics(registry)})
	require.True(t, store.Save(context.Background()))

	release := mock.Hold()
	defer release()
	store.UpdateNotes("first")
	first := runSave(context.Background(), store)
	require.Eventually(t, func() bool { return mock.CallCount(quote_service.UpdateMethod) == 1 }, time.Second, time.Millisecond)

	store.UpdateNotes("second")
	second := runSave(context.Background(), store)
	// create success plus the coalesced update
	require.Eventually(t, func() bool { return savesSeries(registry) == 2 }, time.Second, time.Millisecond)

	release()
	require.True(t, <-first)
	require.True(t, <-second)

	calls := mock.Calls()
	require.Equal(t, 2, mock.CallCount(quote_service.UpdateMethod))
	require.Equal(t, "first", *calls[1].Request.(quote_service.UpdateDraftQuoteRequest).Notes)
	require.Equal(t, "second", *calls[2].Request.(quote_service.UpdateDraftQuoteRequest).Notes)
	require.False(t, store.State().IsDirty)
}

func TestSaveWaiterHonoursContext(t *testing.T) {
	mock := quote_service.NewQuoteServiceMock()
	store := createStore(t, mock, createValidDraft(), StoreOptions{})
	release := mock.Hold()
	defer release()

	first := runSave(context.Background(), store)
	require.Eventually(t, func() bool { return mock.CallCount(quote_service.CreateMethod) == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.False(t, store.Save(ctx))

	release()
	require.True(t, <-first)
}

func TestSaveWaiterReleasedOnStoreShutdown(t *testing.T) {
	mock := quote_service.NewQuoteServiceMock()
	baseCtx, shutdown := context.WithCancel(context.Background())
	store := createStore(t, mock, createValidDraft(), StoreOptions{BaseContext: baseCtx})
	release := mock.Hold()
	defer release()

	first := runSave(context.Background(), store)
	require.Eventually(t, func() bool { return mock.CallCount(quote_service.CreateMethod) == 1 }, time.Second, time.Millisecond)

	waiter := runSave(context.Background(), store)
	shutdown()
	select {
	case result := <-waiter:
		require.False(t, result)
	case <-time.After(time.Second):
		t.Fatal("waiter not released after shutdown")
	}

	release()
	require.True(t, <-first)
}

func TestAutosaveDebounces(t *testing.T) {
	mock := quote_service.NewQuoteServiceMock()
	store := createStore(t, mock, createValidDraft(), StoreOptions{AutosaveDelay: 30 * time.Millisecond})

	store.UpdateNotes("a")
	store.UpdateNotes("ab")
	store.UpdateNotes("abc")

	require.Eventually(t, func() bool { return !store.State().IsDirty }, time.Second, 5*time.Millisecond)
	require.Equal(t, 1, mock.CallCount(quote_service.CreateMethod))
	// notes travel with the update right behind the create
	require.Equal(t, 1, mock.CallCount(quote_service.UpdateMethod))
	time.Sleep(60 * time.Millisecond)
	require.Len(t, mock.Calls(), 2)
}

func TestAutosaveSkipsInvalidDraft(t *testing.T) {
	mock := quote_service.NewQuoteServiceMock()
	store := createStore(t, mock, entities.NewDraftQuote("RQ-1"), StoreOptions{AutosaveDelay: 10 * time.Millisecond})
	store.UpdateNotes("x")

	require.Eventually(t, func() bool { return store.State().SaveError != "" }, time.Second, 5*time.Millisecond)
	require.Empty(t, mock.Calls())
}

func TestAutosaveDisabled(t *testing.T) {
	mock := quote_service.NewQuoteServiceMock()
	store := createStore(t, mock, createValidDraft(), StoreOptions{AutosaveDelay: -1})
	store.UpdateNotes("x")
	time.Sleep(30 * time.Millisecond)
	require.Empty(t, mock.Calls())
	require.True(t, store.State().IsDirty)
}

func TestCloseCancelsAutosave(t *testing.T) {
	mock := quote_service.NewQuoteServiceMock()
	store := createStore(t, mock, createValidDraft(), StoreOptions{AutosaveDelay: 20 * time.Millisecond})
	store.UpdateNotes("x")
	store.Close()
	time.Sleep(60 * time.Millisecond)
	require.Empty(t, mock.Calls())
	require.Equal(t, "x", store.Snapshot().Notes)
}

func TestResetRestoresSnapshot(t *testing.T) {
	store := createStore(t, quote_service.NewQuoteServiceMock(), createValidDraft(), StoreOptions{})
	store.StartEditing()
	store.UpdateNotes("temporary")
	store.AddOption("A", entities.OptionPatch{})
	store.SetSelectedOptionId("A")

	store.Reset()
	snapshot := store.Snapshot()
	require.Empty(t, snapshot.Notes)
	require.Empty(t, snapshot.Options)
	state := store.State()
	require.False(t, state.IsDirty)
	require.False(t, state.IsEditing)
	require.Empty(t, state.SelectedOptionId)
}

func TestResetAfterSaveKeepsIdAndIsDirty(t *testing.T) {
	store := createStore(t, quote_service.NewQuoteServiceMock(), createValidDraft(), StoreOptions{})
	store.UpdateNotes("saved")
	require.True(t, store.Save(context.Background()))

	store.Reset()
	snapshot := store.Snapshot()
	require.Equal(t, "DQ-000001", snapshot.DraftQuoteId)
	require.Empty(t, snapshot.Notes)
	require.True(t, store.State().IsDirty)
}

func TestLoadReplacesDraft(t *testing.T) {
	mock := quote_service.NewQuoteServiceMock()
	seeded := createValidDraft()
	seeded.Notes = "from server"
	seeded.Options = []entities.DraftQuoteOption{entities.NewDraftQuoteOption("A", fixedNow)}
	id := mock.Put(seeded)

	store := createStore(t, mock, entities.NewDraftQuote("RQ-9"), StoreOptions{})
	store.UpdateNotes("local")
	require.True(t, store.Load(context.Background(), id))

	snapshot := store.Snapshot()
	require.Equal(t, id, snapshot.DraftQuoteId)
	require.Equal(t, "from server", snapshot.Notes)
	require.Equal(t, 1, store.TotalOptions())
	require.False(t, store.State().IsDirty)

	store.UpdateNotes("edited")
	store.Reset()
	require.Equal(t, "from server", store.Snapshot().Notes)
	require.False(t, store.State().IsDirty)
}

func TestLoadMissingDraft(t *testing.T) {
	store := createStore(t, quote_service.NewQuoteServiceMock(), createValidDraft(), StoreOptions{})
	require.False(t, store.Load(context.Background(), "DQ-404"))
	state := store.State()
	require.Equal(t, "Draft Quote Not Found: draft quote DQ-404 not found", state.SaveError)
	require.Equal(t, future.NotFound, state.SaveErrorCode)
	require.Equal(t, "RQ-1", store.Snapshot().RequestQuoteId)

	require.True(t, store.Save(context.Background()))
	require.Empty(t, store.State().SaveError)
	require.Zero(t, store.State().SaveErrorCode)
}

func TestCanFinalize(t *testing.T) {
	store := createStore(t, quote_service.NewQuoteServiceMock(), createValidDraft(), StoreOptions{})
	require.False(t, store.CanFinalize())

	store.AddOption("A", entities.OptionPatch{})
	store.SetSelectedOptionId("A")
	require.False(t, store.CanFinalize())

	require.NoError(t, store.TransitionStatus(entities.InProgressStatus))
	require.True(t, store.CanFinalize())

	store.UpdateCustomer(entities.CustomerPatch{Name: stringOf("")})
	require.False(t, store.CanFinalize())
}

func TestFinalizeUnsavedDraft(t *testing.T) {
	mock := quote_service.NewQuoteServiceMock()
	store := createStore(t, mock, createValidDraft(), StoreOptions{})
	store.AddOption("A", pricedPatch())
	store.SetSelectedOptionId("A")
	require.NoError(t, store.TransitionStatus(entities.InProgressStatus))

	require.True(t, store.Finalize(context.Background(), 0))

	calls := mock.Calls()
	require.Len(t, calls, 3)
	require.Equal(t, quote_service.CreateMethod, calls[0].Method)
	require.Equal(t, quote_service.UpdateMethod, calls[1].Method)
	require.Equal(t, quote_service.FinalizeMethod, calls[2].Method)
	request := calls[2].Request.(quote_service.FinalizeRequest)
	require.Equal(t, "A", request.SelectedOptionId)
	require.Equal(t, DefaultFinalizeValidityDays, request.ValidityDays)

	require.Equal(t, entities.FinalizedStatus, store.Snapshot().Status)
	require.False(t, store.State().IsDirty)
	stored, _ := mock.Stored("DQ-000001")
	require.Equal(t, entities.FinalizedStatus, stored.Status)
}

func TestFinalizeRejectedLocally(t *testing.T) {
	mock := quote_service.NewQuoteServiceMock()
	store := createStore(t, mock, createValidDraft(), StoreOptions{})
	store.AddOption("A", entities.OptionPatch{})

	require.False(t, store.Finalize(context.Background(), 10))
	require.Equal(t, ErrMsgCannotFinalize, store.State().SaveError)
	require.Empty(t, mock.Calls())
}

func TestFinalizePortFailure(t *testing.T) {
	mock := quote_service.NewQuoteServiceMock()
	store := createStore(t, mock, createValidDraft(), StoreOptions{})
	store.AddOption("A", entities.OptionPatch{})
	store.SetSelectedOptionId("A")
	store.SetStatus(entities.InProgressStatus)
	require.True(t, store.Save(context.Background()))
	require.True(t, store.Save(context.Background()))

	mock.Fail(quote_service.FinalizeMethod, future.NotAccepted, "Draft Quote Closed")
	require.False(t, store.Finalize(context.Background(), 7))
	require.Equal(t, "Draft Quote Closed", store.State().SaveError)
	require.Equal(t, entities.InProgressStatus, store.Snapshot().Status)
	require.Equal(t, 1, mock.CallCount(quote_service.FinalizeMethod))
}

func TestDeleteUnsavedDraft(t *testing.T) {
	mock := quote_service.NewQuoteServiceMock()
	store := createStore(t, mock, createValidDraft(), StoreOptions{})
	require.True(t, store.Delete(context.Background()))
	require.Empty(t, mock.Calls())

	store.UpdateNotes("ignored")
	require.Empty(t, store.Snapshot().Notes)
	require.False(t, store.Save(context.Background()))
	require.Equal(t, ErrMsgDraftQuoteDeleted, store.State().SaveError)
	require.True(t, errors.Is(store.TransitionStatus(entities.InProgressStatus), ErrDraftQuoteDeleted))
}

func TestDeleteSavedDraft(t *testing.T) {
	mock := quote_service.NewQuoteServiceMock()
	store := createStore(t, mock, createValidDraft(), StoreOptions{})
	require.True(t, store.Save(context.Background()))

	mock.Fail(quote_service.DeleteMethod, future.InternalError, "delete failed")
	require.False(t, store.Delete(context.Background()))
	require.False(t, store.State().IsDeleted)

	mock.Recover(quote_service.DeleteMethod)
	require.True(t, store.Delete(context.Background()))
	require.True(t, store.State().IsDeleted)
	_, ok := mock.Stored("DQ-000001")
	require.False(t, ok)
	require.True(t, store.Delete(context.Background()))
	require.Equal(t, 2, mock.CallCount(quote_service.DeleteMethod))
}

func TestPersistOptionRequiresSavedDraft(t *testing.T) {
	mock := quote_service.NewQuoteServiceMock()
	store := createStore(t, mock, createValidDraft(), StoreOptions{})
	store.AddOption("A", entities.OptionPatch{})

	require.False(t, store.PersistOption(context.Background(), "A"))
	require.Equal(t, ErrMsgDraftQuoteNotSaved, store.State().SaveError)
	require.Empty(t, mock.Calls())
}

func TestPersistAndRemoveOption(t *testing.T) {
	mock := quote_service.NewQuoteServiceMock()
	store := createStore(t, mock, createValidDraft(), StoreOptions{})
	require.True(t, store.Save(context.Background()))

	store.AddOption("A", pricedPatch())
	require.False(t, store.PersistOption(context.Background(), "ghost"))
	require.Equal(t, ErrMsgOptionNotFound, store.State().SaveError)

	require.True(t, store.PersistOption(context.Background(), "A"))
	stored, _ := mock.Stored("DQ-000001")
	require.Len(t, stored.Options, 1)

	require.True(t, store.Save(context.Background()))
	require.True(t, store.RemovePersistedOption(context.Background(), "A"))
	require.Equal(t, 0, store.TotalOptions())
	require.False(t, store.State().IsDirty)
	stored, _ = mock.Stored("DQ-000001")
	require.Empty(t, stored.Options)

	require.False(t, store.RemovePersistedOption(context.Background(), "A"))
	require.Equal(t, "Option Not Found: option A not found", store.State().SaveError)
}

func TestStatusAssignment(t *testing.T) {
	store := createStore(t, quote_service.NewQuoteServiceMock(), createValidDraft(), StoreOptions{})

	err := store.TransitionStatus(entities.FinalizedStatus)
	require.True(t, errors.Is(err, states.ErrInvalidTransition))
	require.Equal(t, entities.DraftStatus, store.Snapshot().Status)

	store.SetStatus(entities.FinalizedStatus)
	store.SetStatus(entities.DraftStatus)
	require.Equal(t, entities.DraftStatus, store.Snapshot().Status)

	store.SetStatus(entities.DraftQuoteStatus("archived"))
	require.Equal(t, entities.DraftStatus, store.Snapshot().Status)
}

func TestPortErrorMessage(t *testing.T) {
	require.Equal(t, "Not Found", portErrorMessage(future.NewErrorFuture(future.NotFound, "Not Found", nil)))
	require.Equal(t, "Not Found: id 7", portErrorMessage(future.NewErrorFuture(future.NotFound, "Not Found", errors.New("id 7"))))
	require.Equal(t, "id 7", portErrorMessage(future.NewErrorFuture(future.NotFound, "", errors.New("id 7"))))
}

func TestClearedFieldsReachQuoteService(t *testing.T) {
	mock := quote_service.NewQuoteServiceMock()
	store := createStore(t, mock, createValidDraft(), StoreOptions{})
	require.True(t, store.Save(context.Background()))

	store.UpdateNotes("call first")
	store.AddOption("A", pricedPatch())
	require.True(t, store.Save(context.Background()))
	stored, _ := mock.Stored("DQ-000001")
	require.Equal(t, "call first", stored.Notes)
	require.Len(t, stored.Options, 1)

	store.UpdateNotes("")
	store.DeleteOption("A")
	require.True(t, store.Save(context.Background()))

	calls := mock.Calls()
	update := calls[len(calls)-1].Request.(quote_service.UpdateDraftQuoteRequest)
	require.NotNil(t, update.Notes)
	require.Empty(t, *update.Notes)
	require.NotNil(t, update.Options)
	require.Empty(t, update.Options)

	stored, _ = mock.Stored("DQ-000001")
	require.Empty(t, stored.Notes)
	require.Empty(t, stored.Options)
	require.False(t, store.State().IsDirty)
}

func TestQueuedSaveOutlivesCanceledCaller(t *testing.T) {
	mock := quote_service.NewQuoteServiceMock()
	registry := prometheus.NewRegistry()
	store := createStore(t, mock, createValidDraft(), StoreOptions{Metrics: metrics.NewMetrics(registry)})
	release := mock.Hold()
	defer release()

	first := runSave(context.Background(), store)
	require.Eventually(t, func() bool { return mock.CallCount(quote_service.CreateMethod) == 1 }, time.Second, time.Millisecond)

	store.UpdateNotes("queued")
	queuerCtx, cancelQueuer := context.WithCancel(context.Background())
	queuer := runSave(queuerCtx, store)
	require.Eventually(t, func() bool { return coalescedSaves(registry) == 1 }, time.Second, time.Millisecond)
	joiner := runSave(context.Background(), store)
	require.Eventually(t, func() bool { return coalescedSaves(registry) == 2 }, time.Second, time.Millisecond)

	cancelQueuer()
	require.False(t, <-queuer)

	release()
	require.True(t, <-first)
	require.True(t, <-joiner)
	require.Equal(t, 1, mock.CallCount(quote_service.UpdateMethod))
	stored, _ := mock.Stored("DQ-000001")
	require.Equal(t, "queued", stored.Notes)
	require.Empty(t, store.State().SaveError)
	require.False(t, store.State().IsDirty)
}

func TestQueuedSaveEndsWithStore(t *testing.T) {
	mock := quote_service.NewQuoteServiceMock()
	baseCtx, shutdown := context.WithCancel(context.Background())
	store := createStore(t, mock, createValidDraft(), StoreOptions{BaseContext: baseCtx})
	release := mock.Hold()
	defer release()

	first := runSave(context.Background(), store)
	require.Eventually(t, func() bool { return mock.CallCount(quote_service.CreateMethod) == 1 }, time.Second, time.Millisecond)

	store.UpdateNotes("queued")
	queuer := runSave(context.Background(), store)
	require.Eventually(t, func() bool {
		store.mutex.Lock()
		defer store.mutex.Unlock()
		return store.pending != nil
	}, time.Second, time.Millisecond)

	shutdown()
	require.False(t, <-queuer)
	release()
	require.True(t, <-first)

	require.Eventually(t, func() bool { return mock.CallCount(quote_service.UpdateMethod) == 1 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return store.State().SaveError != "" }, time.Second, time.Millisecond)
	require.True(t, store.State().IsDirty)
}

func TestResetDuringCreateKeepsDirty(t *testing.T) {
	mock := quote_service.NewQuoteServiceMock()
	store := createStore(t, mock, createValidDraft(), StoreOptions{})
	store.UpdateNotes("typed")
	release := mock.Hold()
	defer release()

	first := runSave(context.Background(), store)
	require.Eventually(t, func() bool { return mock.CallCount(quote_service.CreateMethod) == 1 }, time.Second, time.Millisecond)
	store.Reset()

	release()
	require.True(t, <-first)
	state := store.State()
	require.Equal(t, "DQ-000001", state.DraftQuoteId)
	require.True(t, state.IsDirty)
	require.Empty(t, store.Snapshot().Notes)

	require.True(t, store.Save(context.Background()))
	stored, _ := mock.Stored("DQ-000001")
	require.Empty(t, stored.Notes)
	require.False(t, store.State().IsDirty)
}

func TestCreateSendsContentOfUpdateRequest(t *testing.T) {
	mock := quote_service.NewQuoteServiceMock()
	store := createStore(t, mock, createValidDraft(), StoreOptions{})
	store.AddOption("A", pricedPatch())
	store.UpdateNotes("fragile cargo")
	store.UpdateCommercialTerms(entities.CommercialTermsPatch{PaymentTerms: stringOf("30d")})

	require.True(t, store.Save(context.Background()))
	calls := mock.Calls()
	require.Len(t, calls, 2)
	require.Equal(t, quote_service.CreateMethod, calls[0].Method)
	require.Equal(t, quote_service.UpdateMethod, calls[1].Method)
	require.Equal(t, "DQ-000001", calls[1].DraftQuoteId)

	stored, _ := mock.Stored("DQ-000001")
	require.Len(t, stored.Options, 1)
	require.Equal(t, "fragile cargo", stored.Notes)
	require.Equal(t, "30d", stored.CommercialTerms.PaymentTerms)
	require.False(t, store.State().IsDirty)
}

func TestCreateFollowUpFailureKeepsDirty(t *testing.T) {
	mock := quote_service.NewQuoteServiceMock()
	mock.Fail(quote_service.UpdateMethod, future.InternalError, "update unavailable")
	store := createStore(t, mock, createValidDraft(), StoreOptions{})
	store.AddOption("A", pricedPatch())

	require.False(t, store.Save(context.Background()))
	state := store.State()
	require.Equal(t, "DQ-000001", state.DraftQuoteId)
	require.True(t, state.IsDirty)
	require.Equal(t, "update unavailable", state.SaveError)
	require.Equal(t, future.InternalError, state.SaveErrorCode)

	mock.Recover(quote_service.UpdateMethod)
	require.True(t, store.Save(context.Background()))
	require.Equal(t, 1, mock.CallCount(quote_service.CreateMethod))
	require.Equal(t, 2, mock.CallCount(quote_service.UpdateMethod))
	stored, _ := mock.Stored("DQ-000001")
	require.Len(t, stored.Options, 1)
	require.False(t, store.State().IsDirty)
}

func TestRemovePersistedOptionMissingLocally(t *testing.T) {
	mock := quote_service.NewQuoteServiceMock()
	store := createStore(t, mock, createValidDraft(), StoreOptions{})
	require.True(t, store.Save(context.Background()))
	store.AddOption("A", pricedPatch())
	require.True(t, store.PersistOption(context.Background(), "A"))

	store.DeleteOption("A")
	require.True(t, store.RemovePersistedOption(context.Background(), "A"))
	require.Empty(t, store.State().SaveError)
	require.Equal(t, 0, store.TotalOptions())
	stored, _ := mock.Stored("DQ-000001")
	require.Empty(t, stored.Options)
}
