package quote_service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gitlab.faza.io/quote-project/draft-quote-service/domain/models/entities"
	"gitlab.faza.io/quote-project/draft-quote-service/infrastructure/future"
)

const (
	CreateMethod       string = "Create"
	UpdateMethod       string = "Update"
	AddOptionMethod    string = "AddOption"
	DeleteOptionMethod string = "DeleteOption"
	FinalizeMethod     string = "Finalize"
	FetchByIdMethod    string = "FetchById"
	DeleteMethod       string = "Delete"
)

type MockCall struct {
	Method       string
	DraftQuoteId string
	Request      interface{}
}

// QuoteServiceMock keeps draft quotes in memory and records every call it receives.
type QuoteServiceMock struct {
	mutex    sync.Mutex
	drafts   map[string]entities.DraftQuote
	calls    []MockCall
	failures map[string]future.IErrorFuture
	gate     chan struct{}
	sequence int
}

func NewQuoteServiceMock() *QuoteServiceMock {
	return &QuoteServiceMock{
		drafts:   make(map[string]entities.DraftQuote, 16),
		calls:    make([]MockCall, 0, 16),
		failures: make(map[string]future.IErrorFuture, 4),
	}
}

// Fail makes every following call of method complete with the given error until Recover is called.
func (mock *QuoteServiceMock) Fail(method string, code future.ErrorCode, message string) {
	mock.mutex.Lock()
	defer mock.mutex.Unlock()
	mock.failures[method] = future.NewErrorFuture(code, message, errors.New(message))
}

func (mock *QuoteServiceMock) Recover(method string) {
	mock.mutex.Lock()
	defer mock.mutex.Unlock()
	delete(mock.failures, method)
}

// Hold blocks Create and Update calls after they are recorded until the returned release is called.
func (mock *QuoteServiceMock) Hold() (release func()) {
	mock.mutex.Lock()
	defer mock.mutex.Unlock()
	gate := make(chan struct{})
	mock.gate = gate
	var once sync.Once
	return func() {
		once.Do(func() {
			mock.mutex.Lock()
			if mock.gate == gate {
				mock.gate = nil
			}
			mock.mutex.Unlock()
			close(gate)
		})
	}
}

func (mock *QuoteServiceMock) Calls() []MockCall {
	mock.mutex.Lock()
	defer mock.mutex.Unlock()
	return append([]MockCall(nil), mock.calls...)
}

func (mock *QuoteServiceMock) CallCount(method string) int {
	mock.mutex.Lock()
	defer mock.mutex.Unlock()
	count := 0
	for _, call := range mock.calls {
		if call.Method == method {
			count++
		}
	}
	return count
}

// Put seeds a stored draft quote, assigning an id when it has none.
func (mock *QuoteServiceMock) Put(draft entities.DraftQuote) string {
	mock.mutex.Lock()
	defer mock.mutex.Unlock()
	if draft.DraftQuoteId == "" {
		draft.DraftQuoteId = mock.nextId()
	}
	mock.drafts[draft.DraftQuoteId] = draft.Clone()
	return draft.DraftQuoteId
}

func (mock *QuoteServiceMock) Stored(draftQuoteId string) (entities.DraftQuote, bool) {
	mock.mutex.Lock()
	defer mock.mutex.Unlock()
	draft, ok := mock.drafts[draftQuoteId]
	if !ok {
		return entities.DraftQuote{}, false
	}
	return draft.Clone(), true
}

func (mock *QuoteServiceMock) Create(ctx context.Context, request CreateDraftQuoteRequest) future.IFuture {
	if errFuture := mock.begin(ctx, CreateMethod, "", request, true); errFuture != nil {
		return future.Factory().SetCapacity(1).SetErrorOf(errFuture).BuildAndSend()
	}

	mock.mutex.Lock()
	defer mock.mutex.Unlock()
	draft := entities.NewDraftQuote(request.RequestQuoteId)
	draft.DraftQuoteId = mock.nextId()
	if request.Customer != nil {
		draft.Customer = *request.Customer
	}
	if request.Shipment != nil {
		draft.Shipment = *request.Shipment
	}
	if request.Wizard != nil {
		draft.Wizard = *request.Wizard
	}
	draft.CreatedAt = time.Now().UTC()
	draft.UpdatedAt = draft.CreatedAt
	mock.drafts[draft.DraftQuoteId] = draft.Clone()
	return future.Factory().SetCapacity(1).SetData(NewDraftQuoteResponse(draft)).BuildAndSend()
}

func (mock *QuoteServiceMock) Update(ctx context.Context, draftQuoteId string, request UpdateDraftQuoteRequest) future.IFuture {
	if errFuture := mock.begin(ctx, UpdateMethod, draftQuoteId, request, true); errFuture != nil {
		return future.Factory().SetCapacity(1).SetErrorOf(errFuture).BuildAndSend()
	}

	mock.mutex.Lock()
	defer mock.mutex.Unlock()
	draft, ok := mock.drafts[draftQuoteId]
	if !ok {
		return notFoundFuture(draftQuoteId)
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
	draft.UpdatedAt = time.Now().UTC()
	mock.drafts[draftQuoteId] = draft.Clone()
	return future.Factory().SetCapacity(1).SetData(NewDraftQuoteResponse(draft)).BuildAndSend()
}

func (mock *QuoteServiceMock) AddOption(ctx context.Context, draftQuoteId string, option entities.DraftQuoteOption) future.IFuture {
	if errFuture := mock.begin(ctx, AddOptionMethod, draftQuoteId, option, false); errFuture != nil {
		return future.Factory().SetCapacity(1).SetErrorOf(errFuture).BuildAndSend()
	}

	mock.mutex.Lock()
	defer mock.mutex.Unlock()
	draft, ok := mock.drafts[draftQuoteId]
	if !ok {
		return notFoundFuture(draftQuoteId)
	}
	if index, found := draft.FindOption(option.OptionId); found {
		draft.Options[index] = option.Clone()
	} else {
		draft.Options = append(draft.Options, option.Clone())
	}
	mock.drafts[draftQuoteId] = draft.Clone()
	return future.Factory().SetCapacity(1).SetData(NewDraftQuoteResponse(draft)).BuildAndSend()
}

func (mock *QuoteServiceMock) DeleteOption(ctx context.Context, draftQuoteId, optionId string) future.IFuture {
	if errFuture := mock.begin(ctx, DeleteOptionMethod, draftQuoteId, optionId, false); errFuture != nil {
		return future.Factory().SetCapacity(1).SetErrorOf(errFuture).BuildAndSend()
	}

	mock.mutex.Lock()
	defer mock.mutex.Unlock()
	draft, ok := mock.drafts[draftQuoteId]
	if !ok {
		return notFoundFuture(draftQuoteId)
	}
	index, found := draft.FindOption(optionId)
	if !found {
		return future.Factory().SetCapacity(1).
			SetError(future.NotFound, "Option Not Found", errors.Errorf("option %s not found", optionId)).
			BuildAndSend()
	}
	draft.Options = append(draft.Options[:index], draft.Options[index+1:]...)
	mock.drafts[draftQuoteId] = draft.Clone()
	return future.Factory().SetCapacity(1).BuildAndSend()
}

func (mock *QuoteServiceMock) Finalize(ctx context.Context, draftQuoteId, selectedOptionId string, validityDays int) future.IFuture {
	request := FinalizeRequest{SelectedOptionId: selectedOptionId, ValidityDays: validityDays}
	if errFuture := mock.begin(ctx, FinalizeMethod, draftQuoteId, request, false); errFuture != nil {
		return future.Factory().SetCapacity(1).SetErrorOf(errFuture).BuildAndSend()
	}

	mock.mutex.Lock()
	defer mock.mutex.Unlock()
	draft, ok := mock.drafts[draftQuoteId]
	if !ok {
		return notFoundFuture(draftQuoteId)
	}
	if draft.Status.IsTerminal() {
		return future.Factory().SetCapacity(1).
			SetError(future.NotAccepted, "Draft Quote Closed", errors.Errorf("draft quote status is %s", draft.Status)).
			BuildAndSend()
	}
	if _, found := draft.FindOption(selectedOptionId); !found {
		return future.Factory().SetCapacity(1).
			SetError(future.BadRequest, "Selected Option Invalid", errors.Errorf("option %s not found", selectedOptionId)).
			BuildAndSend()
	}

	validUntil := time.Now().UTC().AddDate(0, 0, validityDays)
	draft.Status = entities.FinalizedStatus
	mock.drafts[draftQuoteId] = draft.Clone()
	return future.Factory().SetCapacity(1).
		SetData(FinalizeResponse{DraftQuoteId: draftQuoteId, Status: entities.FinalizedStatus, ValidUntil: &validUntil}).
		BuildAndSend()
}

func (mock *QuoteServiceMock) FetchById(ctx context.Context, draftQuoteId string) future.IFuture {
	if errFuture := mock.begin(ctx, FetchByIdMethod, draftQuoteId, nil, false); errFuture != nil {
		return future.Factory().SetCapacity(1).SetErrorOf(errFuture).BuildAndSend()
	}

	mock.mutex.Lock()
	defer mock.mutex.Unlock()
	draft, ok := mock.drafts[draftQuoteId]
	if !ok {
		return notFoundFuture(draftQuoteId)
	}
	return future.Factory().SetCapacity(1).SetData(NewDraftQuoteResponse(draft)).BuildAndSend()
}

func (mock *QuoteServiceMock) Delete(ctx context.Context, draftQuoteId string) future.IFuture {
	if errFuture := mock.begin(ctx, DeleteMethod, draftQuoteId, nil, false); errFuture != nil {
		return future.Factory().SetCapacity(1).SetErrorOf(errFuture).BuildAndSend()
	}

	mock.mutex.Lock()
	defer mock.mutex.Unlock()
	if _, ok := mock.drafts[draftQuoteId]; !ok {
		return notFoundFuture(draftQuoteId)
	}
	delete(mock.drafts, draftQuoteId)
	return future.Factory().SetCapacity(1).BuildAndSend()
}

// begin records the call, waits on the hold gate for save calls and returns the configured failure.
// A call whose context is done once the gate opens fails like a canceled request.
func (mock *QuoteServiceMock) begin(ctx context.Context, method, draftQuoteId string, request interface{}, gated bool) future.IErrorFuture {
	mock.mutex.Lock()
	mock.calls = append(mock.calls, MockCall{Method: method, DraftQuoteId: draftQuoteId, Request: request})
	gate := mock.gate
	mock.mutex.Unlock()

	if gated && gate != nil {
		<-gate
	}

	if err := ctx.Err(); err != nil {
		return future.NewErrorFuture(future.InternalError, "Request Canceled", errors.Wrap(err, "context done before request"))
	}

	mock.mutex.Lock()
	defer mock.mutex.Unlock()
	return mock.failures[method]
}

func (mock *QuoteServiceMock) nextId() string {
	mock.sequence++
	return fmt.Sprintf("DQ-%06d", mock.sequence)
}

func notFoundFuture(draftQuoteId string) future.IFuture {
	return future.Factory().SetCapacity(1).
		SetError(future.NotFound, "Draft Quote Not Found", errors.Errorf("draft quote %s not found", draftQuoteId)).
		BuildAndSend()
}
