package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"gitlab.faza.io/quote-project/draft-quote-service/configs"
	"gitlab.faza.io/quote-project/draft-quote-service/domain"
	"gitlab.faza.io/quote-project/draft-quote-service/domain/models/entities"
	draftquote_repository "gitlab.faza.io/quote-project/draft-quote-service/domain/models/repository/draftquote"
	"gitlab.faza.io/quote-project/draft-quote-service/infrastructure/cache"
	applog "gitlab.faza.io/quote-project/draft-quote-service/infrastructure/logger"
	"gitlab.faza.io/quote-project/draft-quote-service/infrastructure/metrics"
	quote_service "gitlab.faza.io/quote-project/draft-quote-service/infrastructure/services/quote"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const cacheKeyPrefix string = "draft-quote-service:"

var Globals struct {
	Config               *configs.Config
	ZapLogger            *zap.Logger
	Logger               applog.Logger
	MongoClient          *mongo.Client
	RedisClient          *redis.Client
	DraftQuoteRepository draftquote_repository.IDraftQuoteRepository
	QuoteCache           cache.ICache
	QuoteService         quote_service.IQuoteService
	Registry             *prometheus.Registry
	Metrics              *metrics.Metrics
	SessionRegistry      domain.ISessionRegistry
}

func InitZap() (zapLogger *zap.Logger) {
	zapLogger = applog.InitZap()
	applog.GLog.ZapLogger = zapLogger
	applog.GLog.Logger = applog.NewZapLogger(zapLogger)
	return
}

func SetupMongoDriver(config configs.Config) (*mongo.Client, error) {
	uri := fmt.Sprintf("mongodb://%s:%d", config.Mongo.Host, config.Mongo.Port)
	clientOptions := options.Client().
		ApplyURI(uri).
		SetRegistry(draftquote_repository.NewRegistry()).
		SetConnectTimeout(time.Duration(config.Mongo.ConnectionTimeout) * time.Second).
		SetSocketTimeout(time.Duration(config.Mongo.ReadTimeout+config.Mongo.WriteTimeout) * time.Second)

	if config.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username: config.Mongo.User,
			Password: config.Mongo.Pass,
		})
	}
	if config.Mongo.MaxConnIdleTime > 0 {
		clientOptions.SetMaxConnIdleTime(time.Duration(config.Mongo.MaxConnIdleTime) * time.Second)
	}
	if config.Mongo.MaxPoolSize > 0 {
		clientOptions.SetMaxPoolSize(uint64(config.Mongo.MaxPoolSize))
	}
	if config.Mongo.MinPoolSize > 0 {
		clientOptions.SetMinPoolSize(uint64(config.Mongo.MinPoolSize))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(config.Mongo.ConnectionTimeout)*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		applog.GLog.Logger.Error("mongo.Connect failed",
			"fn", "SetupMongoDriver",
			"host", config.Mongo.Host,
			"error", err)
		return nil, errors.Wrap(err, "mongo.Connect init failed")
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		applog.GLog.Logger.Error("mongo ping failed",
			"fn", "SetupMongoDriver",
			"host", config.Mongo.Host,
			"error", err)
		return nil, errors.Wrap(err, "mongo ping failed")
	}
	return client, nil
}

func SetupRedisClient(config configs.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Redis.Host, config.Redis.Port),
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		applog.GLog.Logger.Error("redis ping failed",
			"fn", "SetupRedisClient",
			"host", config.Redis.Host,
			"error", err)
		_ = client.Close()
		return nil, errors.Wrap(err, "redis ping failed")
	}
	return client, nil
}

// SetupQuoteCache returns nil when caching is disabled.
func SetupQuoteCache(config configs.Config, redisClient *redis.Client) cache.ICache {
	switch config.App.CacheMode {
	case configs.MemoryCache:
		return cache.NewMemoryCache()
	case configs.RedisCache:
		return cache.NewRedisCache(redisClient, cacheKeyPrefix)
	default:
		return nil
	}
}

// SetupQuoteService picks the persistence port implementation for the configured mode
// and wraps it with the cache decorator when a cache is given.
func SetupQuoteService(config configs.Config, repository draftquote_repository.IDraftQuoteRepository, quoteCache cache.ICache) (quote_service.IQuoteService, error) {
	var quoteService quote_service.IQuoteService
	switch config.App.PersistenceMode {
	case configs.RemotePersistence:
		quoteService = quote_service.NewQuoteService(config.QuoteService.BaseUrl, config.QuoteServiceTimeout(), config.QuoteService.AuthToken)
	case configs.LocalPersistence:
		if repository == nil {
			return nil, errors.New("draft quote repository required in local persistence mode")
		}
		quoteService = quote_service.NewLocalQuoteService(repository)
	case configs.MockPersistence:
		quoteService = quote_service.NewQuoteServiceMock()
	default:
		return nil, errors.Errorf("unknown persistence mode %s", config.App.PersistenceMode)
	}

	if quoteCache == nil {
		return quoteService, nil
	}

	ttl, err := config.CacheTTL()
	if err != nil {
		return nil, err
	}
	return quote_service.NewCachedQuoteService(quoteService, quoteCache, ttl), nil
}

// SetupStoreOptions maps the configuration onto draft quote store options and applies
// the entity defaults.
func SetupStoreOptions(config configs.Config, storeMetrics *metrics.Metrics, logger applog.Logger) (domain.StoreOptions, error) {
	delay, err := config.AutosaveDelay()
	if err != nil {
		return domain.StoreOptions{}, err
	}
	if delay == 0 {
		delay = -1
	}

	entities.DefaultCurrency = config.App.DefaultCurrency
	entities.DefaultOptionValidityDays = config.App.OptionValidityDays

	return domain.StoreOptions{
		AutosaveDelay:        delay,
		FinalizeValidityDays: config.App.FinalizeValidityDays,
		Metrics:              storeMetrics,
		Logger:               logger,
	}, nil
}
