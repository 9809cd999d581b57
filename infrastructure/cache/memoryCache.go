package cache

import (
	"context"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
)

type memoryEntry struct {
	payload  []byte
	expireAt time.Time
}

type iMemoryCacheImpl struct {
	mutex   sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() ICache {
	return &iMemoryCacheImpl{
		entries: make(map[string]memoryEntry, 64),
		now:     time.Now,
	}
}

func (memoryCache *iMemoryCacheImpl) Get(ctx context.Context, key string, value interface{}) error {
	memoryCache.mutex.RLock()
	entry, ok := memoryCache.entries[key]
	memoryCache.mutex.RUnlock()

	if !ok {
		return ErrCacheMiss
	}

	if !entry.expireAt.IsZero() && !memoryCache.now().Before(entry.expireAt) {
		memoryCache.mutex.Lock()
		if current, ok := memoryCache.entries[key]; ok && current.expireAt.Equal(entry.expireAt) {
			delete(memoryCache.entries, key)
		}
		memoryCache.mutex.Unlock()
		return ErrCacheMiss
	}

	if err := json.Unmarshal(entry.payload, value); err != nil {
		return errors.Wrap(err, "json.Unmarshal cached value failed")
	}
	return nil
}

// Set with a zero ttl keeps the entry until it is invalidated.
func (memoryCache *iMemoryCacheImpl) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "json.Marshal cache value failed")
	}

	entry := memoryEntry{payload: payload}
	if ttl > 0 {
		entry.expireAt = memoryCache.now().Add(ttl)
	}

	memoryCache.mutex.Lock()
	memoryCache.entries[key] = entry
	memoryCache.mutex.Unlock()
	return nil
}

func (memoryCache *iMemoryCacheImpl) Invalidate(ctx context.Context, key string) error {
	memoryCache.mutex.Lock()
	delete(memoryCache.entries, key)
	memoryCache.mutex.Unlock()
	return nil
}
