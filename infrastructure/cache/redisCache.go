package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
)

type iRedisCacheImpl struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client, prefix string) ICache {
	return &iRedisCacheImpl{client: client, prefix: prefix}
}

func (redisCache iRedisCacheImpl) Get(ctx context.Context, key string, value interface{}) error {
	payload, err := redisCache.client.Get(ctx, redisCache.prefix+key).Bytes()
	if err == redis.Nil {
		return ErrCacheMiss
	} else if err != nil {
		return errors.Wrap(err, "redis Get failed")
	}

	if err := json.Unmarshal(payload, value); err != nil {
		return errors.Wrap(err, "json.Unmarshal cached value failed")
	}
	return nil
}

func (redisCache iRedisCacheImpl) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "json.Marshal cache value failed")
	}

	if err := redisCache.client.Set(ctx, redisCache.prefix+key, payload, ttl).Err(); err != nil {
		return errors.Wrap(err, "redis Set failed")
	}
	return nil
}

func (redisCache iRedisCacheImpl) Invalidate(ctx context.Context, key string) error {
	if err := redisCache.client.Del(ctx, redisCache.prefix+key).Err(); err != nil {
		return errors.Wrap(err, "redis Del failed")
	}
	return nil
}
