package quote_service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gitlab.faza.io/quote-project/draft-quote-service/domain/models/entities"
	"gitlab.faza.io/quote-project/draft-quote-service/infrastructure/future"
)

func TestMockCreateUpdateFetch(t *testing.T) {
	mock := NewQuoteServiceMock()
	ctx := context.Background()

	customer := entities.Customer{Name: "Acme"}
	created := mock.Create(ctx, CreateDraftQuoteRequest{RequestQuoteId: "R1", Customer: &customer}).Get()
	require.Nil(t, created.Error())
	draftQuoteId := created.Data().(DraftQuoteResponse).DraftQuoteId
	require.Equal(t, "DQ-000001", draftQuoteId)

	notes := "call back monday"
	updated := mock.Update(ctx, draftQuoteId, UpdateDraftQuoteRequest{Notes: &notes}).Get()
	require.Nil(t, updated.Error())

	fetched := mock.FetchById(ctx, draftQuoteId).Get()
	require.Nil(t, fetched.Error())
	response := fetched.Data().(DraftQuoteResponse)
	require.Equal(t, "Acme", response.Customer.Name)
	require.Equal(t, notes, response.Notes)
	require.Equal(t, 1, mock.CallCount(CreateMethod))
	require.Equal(t, 1, mock.CallCount(UpdateMethod))
	require.Len(t, mock.Calls(), 3)
}

func TestMockFailAndRecover(t *testing.T) {
	mock := NewQuoteServiceMock()
	ctx := context.Background()

	mock.Fail(CreateMethod, future.InternalError, "quote service unavailable")
	futureData := mock.Create(ctx, CreateDraftQuoteRequest{RequestQuoteId: "R1"}).Get()
	require.NotNil(t, futureData.Error())
	require.Equal(t, "quote service unavailable", futureData.Error().Message())

	mock.Recover(CreateMethod)
	require.Nil(t, mock.Create(ctx, CreateDraftQuoteRequest{RequestQuoteId: "R1"}).Get().Error())
}

func TestMockHoldBlocksSaves(t *testing.T) {
	mock := NewQuoteServiceMock()
	release := mock.Hold()

	done := make(chan future.IDataFuture, 1)
	go func() {
		done <- mock.Create(context.Background(), CreateDraftQuoteRequest{RequestQuoteId: "R1"}).Get()
	}()

	require.Eventually(t, func() bool { return mock.CallCount(CreateMethod) == 1 }, time.Second, 5*time.Millisecond)
	select {
	case <-done:
		t.Fatal("create completed while held")
	case <-time.After(20 * time.Millisecond):
	}

	release()
	select {
	case futureData := <-done:
		require.Nil(t, futureData.Error())
	case <-time.After(time.Second):
		t.Fatal("create not released")
	}
}

func TestMockOptionsAndFinalize(t *testing.T) {
	mock := NewQuoteServiceMock()
	ctx := context.Background()
	draftQuoteId := mock.Put(entities.NewDraftQuote("R1"))

	option := entities.NewDraftQuoteOption("OPT-1", time.Now())
	require.Nil(t, mock.AddOption(ctx, draftQuoteId, option).Get().Error())

	futureData := mock.Finalize(ctx, draftQuoteId, "OPT-2", 30).Get()
	require.Equal(t, future.BadRequest, futureData.Error().Code())

	futureData = mock.Finalize(ctx, draftQuoteId, "OPT-1", 30).Get()
	require.Nil(t, futureData.Error())
	require.Equal(t, entities.FinalizedStatus, futureData.Data().(FinalizeResponse).Status)

	futureData = mock.Finalize(ctx, draftQuoteId, "OPT-1", 30).Get()
	require.Equal(t, future.NotAccepted, futureData.Error().Code())

	require.Nil(t, mock.DeleteOption(ctx, draftQuoteId, "OPT-1").Get().Error())
	require.Equal(t, future.NotFound, mock.DeleteOption(ctx, draftQuoteId, "OPT-1").Get().Error().Code())

	require.Nil(t, mock.Delete(ctx, draftQuoteId).Get().Error())
	_, ok := mock.Stored(draftQuoteId)
	require.False(t, ok)
	require.Equal(t, future.NotFound, mock.FetchById(ctx, draftQuoteId).Get().Error().Code())
}
