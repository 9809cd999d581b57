package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrCacheMiss = errors.New("cache miss")

// ICache stores values by logical resource key. Values are stored encoded,
// so a hit always returns a fresh copy.
type ICache interface {
	// Get decodes the cached value into value and reports ErrCacheMiss when nothing is stored.
	Get(ctx context.Context, key string, value interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

func DraftQuoteKey(draftQuoteId string) string {
	return "draft-quote:" + draftQuoteId
}
