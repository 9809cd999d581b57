package configs

import (
	"flag"
	"os"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	applog "gitlab.faza.io/quote-project/draft-quote-service/infrastructure/logger"
)

const (
	RemotePersistence string = "remote"
	LocalPersistence  string = "local"
	MockPersistence   string = "mock"

	MemoryCache string = "memory"
	RedisCache  string = "redis"
	NoCache     string = "none"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	App struct {
		ServiceMode          string `env:"DRAFT_QUOTE_SERVICE_MODE"`
		AutosaveDelay        string `env:"DRAFT_QUOTE_AUTOSAVE_DELAY"`
		DefaultCurrency      string `env:"DRAFT_QUOTE_DEFAULT_CURRENCY"`
		OptionValidityDays   int    `env:"DRAFT_QUOTE_OPTION_VALIDITY_DAYS"`
		FinalizeValidityDays int    `env:"DRAFT_QUOTE_FINALIZE_VALIDITY_DAYS"`
		PersistenceMode      string `env:"DRAFT_QUOTE_PERSISTENCE_MODE"`
		CacheMode            string `env:"DRAFT_QUOTE_CACHE_MODE"`
		CacheTTL             string `env:"DRAFT_QUOTE_CACHE_TTL"`
	}

	HTTPServer struct {
		Address string `env:"DRAFT_QUOTE_HTTP_ADDRESS"`
		Port    int    `env:"DRAFT_QUOTE_HTTP_PORT"`
	}

	GRPCServer struct {
		Address string `env:"DRAFT_QUOTE_GRPC_ADDRESS"`
		Port    int    `env:"DRAFT_QUOTE_GRPC_PORT"`
	}

	QuoteService struct {
		BaseUrl   string `env:"DRAFT_QUOTE_QUOTE_SERVICE_BASE_URL"`
		Timeout   int    `env:"DRAFT_QUOTE_QUOTE_SERVICE_TIMEOUT"`
		AuthToken string `env:"DRAFT_QUOTE_QUOTE_SERVICE_AUTH_TOKEN"`
	}

	Mongo struct {
		User              string `env:"DRAFT_QUOTE_MONGO_USER"`
		Pass              string `env:"DRAFT_QUOTE_MONGO_PASS"`
		Host              string `env:"DRAFT_QUOTE_MONGO_HOST"`
		Port              int    `env:"DRAFT_QUOTE_MONGO_PORT"`
		Database          string `env:"DRAFT_QUOTE_MONGO_DATABASE"`
		Collection        string `env:"DRAFT_QUOTE_MONGO_COLLECTION"`
		ConnectionTimeout int    `env:"DRAFT_QUOTE_MONGO_CONN_TIMEOUT"`
		ReadTimeout       int    `env:"DRAFT_QUOTE_MONGO_READ_TIMEOUT"`
		WriteTimeout      int    `env:"DRAFT_QUOTE_MONGO_WRITE_TIMEOUT"`
		MaxConnIdleTime   int    `env:"DRAFT_QUOTE_MONGO_MAX_CONN_IDLE_TIME"`
		MaxPoolSize       int    `env:"DRAFT_QUOTE_MONGO_MAX_POOL_SIZE"`
		MinPoolSize       int    `env:"DRAFT_QUOTE_MONGO_MIN_POOL_SIZE"`
	}

	Redis struct {
		Host     string `env:"DRAFT_QUOTE_REDIS_HOST"`
		Port     int    `env:"DRAFT_QUOTE_REDIS_PORT"`
		Password string `env:"DRAFT_QUOTE_REDIS_PASSWORD"`
		DB       int    `env:"DRAFT_QUOTE_REDIS_DB"`
	}
}

func LoadConfig(path string) (*Config, error) {
	var config = &Config{}
	currentPath, err := os.Getwd()
	if err != nil {
		applog.GLog.Logger.Error("get current working directory failed", "fn", "LoadConfig", "error", err)
	}

	if os.Getenv("APP_ENV") == "dev" {
		if path != "" {
			if err := godotenv.Load(path); err != nil {
				applog.GLog.Logger.Error("loading .env file failed",
					"fn", "LoadConfig",
					"workingDirectory", currentPath,
					"path", path,
					"error", err)
			}
		} else if flag.Lookup("test.v") != nil {
			if err := godotenv.Load("../testdata/.env"); err != nil {
				applog.GLog.Logger.Error("loading testdata .env file failed", "fn", "LoadConfig", "error", err)
			}
		} else {
			if err := godotenv.Load("./.env"); err != nil {
				applog.GLog.Logger.Error("loading .env file failed", "fn", "LoadConfig", "error", err)
			}
		}
	}

	if _, err = env.UnmarshalFromEnviron(config); err != nil {
		return nil, err
	}

	config.applyDefaults()
	return config, nil
}

func (config *Config) applyDefaults() {
	if config.App.ServiceMode == "" {
		config.App.ServiceMode = "server"
	}
	if config.App.AutosaveDelay == "" {
		config.App.AutosaveDelay = "2s"
	}
	if config.App.DefaultCurrency == "" {
		config.App.DefaultCurrency = "EUR"
	}
	if config.App.OptionValidityDays == 0 {
		config.App.OptionValidityDays = 15
	}
	if config.App.FinalizeValidityDays == 0 {
		config.App.FinalizeValidityDays = 30
	}
	if config.App.PersistenceMode == "" {
		config.App.PersistenceMode = RemotePersistence
	}
	if config.App.CacheMode == "" {
		config.App.CacheMode = NoCache
	}
	if config.App.CacheTTL == "" {
		config.App.CacheTTL = "30s"
	}
	if config.HTTPServer.Port == 0 {
		config.HTTPServer.Port = 8080
	}
	if config.GRPCServer.Port == 0 {
		config.GRPCServer.Port = 9090
	}
	if config.QuoteService.Timeout == 0 {
		config.QuoteService.Timeout = 10
	}
	if config.Mongo.Port == 0 {
		config.Mongo.Port = 27017
	}
	if config.Mongo.Database == "" {
		config.Mongo.Database = "draftQuoteService"
	}
	if config.Mongo.Collection == "" {
		config.Mongo.Collection = "draftQuotes"
	}
	if config.Mongo.ConnectionTimeout == 0 {
		config.Mongo.ConnectionTimeout = 10
	}
	if config.Mongo.ReadTimeout == 0 {
		config.Mongo.ReadTimeout = 5
	}
	if config.Mongo.WriteTimeout == 0 {
		config.Mongo.WriteTimeout = 5
	}
	if config.Redis.Port == 0 {
		config.Redis.Port = 6379
	}
}

// AutosaveDelay returns the parsed autosave delay, zero means autosave is disabled.
func (config *Config) AutosaveDelay() (time.Duration, error) {
	delay, err := time.ParseDuration(config.App.AutosaveDelay)
	if err != nil {
		return 0, errors.Wrap(err, "DRAFT_QUOTE_AUTOSAVE_DELAY")
	}
	return delay, nil
}

func (config *Config) CacheTTL() (time.Duration, error) {
	ttl, err := time.ParseDuration(config.App.CacheTTL)
	if err != nil {
		return 0, errors.Wrap(err, "DRAFT_QUOTE_CACHE_TTL")
	}
	return ttl, nil
}

func (config *Config) QuoteServiceTimeout() time.Duration {
	return time.Duration(config.QuoteService.Timeout) * time.Second
}

// Validate checks the settings required by the selected persistence and cache modes.
func (config *Config) Validate() error {
	if delay, err := config.AutosaveDelay(); err != nil {
		return errors.Wrap(ErrInvalidConfig, err.Error())
	} else if delay < 0 {
		return errors.Wrap(ErrInvalidConfig, "autosave delay is negative")
	}
	if _, err := config.CacheTTL(); err != nil {
		return errors.Wrap(ErrInvalidConfig, err.Error())
	}
	if config.App.FinalizeValidityDays < 0 {
		return errors.Wrap(ErrInvalidConfig, "finalize validity days is negative")
	}

	switch config.App.PersistenceMode {
	case RemotePersistence:
		if config.QuoteService.BaseUrl == "" {
			return errors.Wrap(ErrInvalidConfig, "DRAFT_QUOTE_QUOTE_SERVICE_BASE_URL is required in remote mode")
		}
	case LocalPersistence:
		if config.Mongo.Host == "" {
			return errors.Wrap(ErrInvalidConfig, "DRAFT_QUOTE_MONGO_HOST is required in local mode")
		}
	case MockPersistence:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown persistence mode %s", config.App.PersistenceMode)
	}

	switch config.App.CacheMode {
	case RedisCache:
		if config.Redis.Host == "" {
			return errors.Wrap(ErrInvalidConfig, "DRAFT_QUOTE_REDIS_HOST is required in redis cache mode")
		}
	case MemoryCache, NoCache:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown cache mode %s", config.App.CacheMode)
	}
	return nil
}
