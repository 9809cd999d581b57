package quote_service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gitlab.faza.io/quote-project/draft-quote-service/domain/models/entities"
	"gitlab.faza.io/quote-project/draft-quote-service/infrastructure/cache"
	"gitlab.faza.io/quote-project/draft-quote-service/infrastructure/future"
	applog "gitlab.faza.io/quote-project/draft-quote-service/infrastructure/logger"
)

// iQuoteServiceCacheImpl serves FetchById from the cache and invalidates
// the draft quote key after every successful mutation.
type iQuoteServiceCacheImpl struct {
	delegate IQuoteService
	cache    cache.ICache
	ttl      time.Duration
}

func NewCachedQuoteService(delegate IQuoteService, quoteCache cache.ICache, ttl time.Duration) IQuoteService {
	return &iQuoteServiceCacheImpl{
		delegate: delegate,
		cache:    quoteCache,
		ttl:      ttl,
	}
}

func (cached iQuoteServiceCacheImpl) Create(ctx context.Context, request CreateDraftQuoteRequest) future.IFuture {
	result := cached.delegate.Create(ctx, request).Get()
	if result != nil && result.Error() == nil {
		if response, ok := result.Data().(DraftQuoteResponse); ok {
			cached.invalidate(ctx, response.DraftQuoteId)
		}
	}
	return relay(result)
}

func (cached iQuoteServiceCacheImpl) Update(ctx context.Context, draftQuoteId string, request UpdateDraftQuoteRequest) future.IFuture {
	return cached.mutate(ctx, draftQuoteId, cached.delegate.Update(ctx, draftQuoteId, request))
}

func (cached iQuoteServiceCacheImpl) AddOption(ctx context.Context, draftQuoteId string, option entities.DraftQuoteOption) future.IFuture {
	return cached.mutate(ctx, draftQuoteId, cached.delegate.AddOption(ctx, draftQuoteId, option))
}

func (cached iQuoteServiceCacheImpl) DeleteOption(ctx context.Context, draftQuoteId, optionId string) future.IFuture {
	return cached.mutate(ctx, draftQuoteId, cached.delegate.DeleteOption(ctx, draftQuoteId, optionId))
}

func (cached iQuoteServiceCacheImpl) Finalize(ctx context.Context, draftQuoteId, selectedOptionId string, validityDays int) future.IFuture {
	return cached.mutate(ctx, draftQuoteId, cached.delegate.Finalize(ctx, draftQuoteId, selectedOptionId, validityDays))
}

func (cached iQuoteServiceCacheImpl) Delete(ctx context.Context, draftQuoteId string) future.IFuture {
	return cached.mutate(ctx, draftQuoteId, cached.delegate.Delete(ctx, draftQuoteId))
}

func (cached iQuoteServiceCacheImpl) FetchById(ctx context.Context, draftQuoteId string) future.IFuture {
	key := cache.DraftQuoteKey(draftQuoteId)

	var response DraftQuoteResponse
	err := cached.cache.Get(ctx, key, &response)
	if err == nil {
		return future.Factory().SetCapacity(1).SetData(response).BuildAndSend()
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		applog.GLog.Logger.FromContext(ctx).Warn("cache get failed",
			"fn", "FetchById",
			"draftQuoteId", draftQuoteId,
			"error", err)
	}

	result := cached.delegate.FetchById(ctx, draftQuoteId).Get()
	if result != nil && result.Error() == nil {
		if response, ok := result.Data().(DraftQuoteResponse); ok {
			if err := cached.cache.Set(ctx, key, response, cached.ttl); err != nil {
				applog.GLog.Logger.FromContext(ctx).Warn("cache set failed",
					"fn", "FetchById",
					"draftQuoteId", draftQuoteId,
					"error", err)
			}
		}
	}
	return relay(result)
}

func (cached iQuoteServiceCacheImpl) mutate(ctx context.Context, draftQuoteId string, iFuture future.IFuture) future.IFuture {
	result := iFuture.Get()
	if result != nil && result.Error() == nil {
		cached.invalidate(ctx, draftQuoteId)
	}
	return relay(result)
}

func (cached iQuoteServiceCacheImpl) invalidate(ctx context.Context, draftQuoteId string) {
	if draftQuoteId == "" {
		return
	}
	if err := cached.cache.Invalidate(ctx, cache.DraftQuoteKey(draftQuoteId)); err != nil {
		applog.GLog.Logger.FromContext(ctx).Warn("cache invalidate failed",
			"fn", "invalidate",
			"draftQuoteId", draftQuoteId,
			"error", err)
	}
}

// relay re-sends an already received result on a fresh future.
func relay(result future.IDataFuture) future.IFuture {
	if result == nil {
		return future.Factory().SetCapacity(1).
			SetError(future.InternalError, "Unknown Error", errors.New("future closed without result")).
			BuildAndSend()
	}
	if result.Error() != nil {
		return future.Factory().SetCapacity(1).SetErrorOf(result.Error()).BuildAndSend()
	}
	return future.Factory().SetCapacity(1).SetData(result.Data()).BuildAndSend()
}
