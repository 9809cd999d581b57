package quote_service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gitlab.faza.io/quote-project/draft-quote-service/domain/models/entities"
	"gitlab.faza.io/quote-project/draft-quote-service/infrastructure/cache"
)

func TestCachedFetchHitsCache(t *testing.T) {
	mock := NewQuoteServiceMock()
	quoteService := NewCachedQuoteService(mock, cache.NewMemoryCache(), time.Minute)
	ctx := context.Background()
	draftQuoteId := mock.Put(entities.NewDraftQuote("R1"))

	require.Nil(t, quoteService.FetchById(ctx, draftQuoteId).Get().Error())
	futureData := quoteService.FetchById(ctx, draftQuoteId).Get()
	require.Nil(t, futureData.Error())
	require.Equal(t, draftQuoteId, futureData.Data().(DraftQuoteResponse).DraftQuoteId)
	require.Equal(t, 1, mock.CallCount(FetchByIdMethod))
}

func TestCachedMutationInvalidates(t *testing.T) {
	mock := NewQuoteServiceMock()
	quoteService := NewCachedQuoteService(mock, cache.NewMemoryCache(), time.Minute)
	ctx := context.Background()
	draftQuoteId := mock.Put(entities.NewDraftQuote("R1"))

	require.Nil(t, quoteService.FetchById(ctx, draftQuoteId).Get().Error())

	customer := entities.Customer{Name: "Globex"}
	require.Nil(t, quoteService.Update(ctx, draftQuoteId, UpdateDraftQuoteRequest{Customer: &customer}).Get().Error())

	futureData := quoteService.FetchById(ctx, draftQuoteId).Get()
	require.Nil(t, futureData.Error())
	require.Equal(t, "Globex", futureData.Data().(DraftQuoteResponse).Customer.Name)
	require.Equal(t, 2, mock.CallCount(FetchByIdMethod))
}

func TestCachedFailedMutationKeepsEntry(t *testing.T) {
	mock := NewQuoteServiceMock()
	quoteService := NewCachedQuoteService(mock, cache.NewMemoryCache(), time.Minute)
	ctx := context.Background()
	draftQuoteId := mock.Put(entities.NewDraftQuote("R1"))

	require.Nil(t, quoteService.FetchById(ctx, draftQuoteId).Get().Error())
	require.NotNil(t, quoteService.DeleteOption(ctx, draftQuoteId, "missing").Get().Error())
	require.Nil(t, quoteService.FetchById(ctx, draftQuoteId).Get().Error())
	require.Equal(t, 1, mock.CallCount(FetchByIdMethod))
}

func TestCachedDeleteInvalidates(t *testing.T) {
	mock := NewQuoteServiceMock()
	quoteService := NewCachedQuoteService(mock, cache.NewMemoryCache(), time.Minute)
	ctx := context.Background()
	draftQuoteId := mock.Put(entities.NewDraftQuote("R1"))

	require.Nil(t, quoteService.FetchById(ctx, draftQuoteId).Get().Error())
	require.Nil(t, quoteService.Delete(ctx, draftQuoteId).Get().Error())
	require.NotNil(t, quoteService.FetchById(ctx, draftQuoteId).Get().Error())
}
