package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gitlab.faza.io/quote-project/draft-quote-service/configs"
	"gitlab.faza.io/quote-project/draft-quote-service/domain/models/entities"
	applog "gitlab.faza.io/quote-project/draft-quote-service/infrastructure/logger"
	quote_service "gitlab.faza.io/quote-project/draft-quote-service/infrastructure/services/quote"
)

func createConfig() configs.Config {
	config := configs.Config{}
	config.App.AutosaveDelay = "2s"
	config.App.CacheTTL = "30s"
	config.App.DefaultCurrency = "EUR"
	config.App.OptionValidityDays = 15
	config.App.FinalizeValidityDays = 30
	config.App.PersistenceMode = configs.MockPersistence
	config.App.CacheMode = configs.NoCache
	config.QuoteService.BaseUrl = "http://localhost:3000"
	config.QuoteService.Timeout = 5
	return config
}

func TestSetupQuoteServiceModes(t *testing.T) {
	config := createConfig()
	quoteService, err := SetupQuoteService(config, nil, nil)
	require.NoError(t, err)
	require.IsType(t, &quote_service.QuoteServiceMock{}, quoteService)

	config.App.PersistenceMode = configs.RemotePersistence
	quoteService, err = SetupQuoteService(config, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, quoteService)

	config.App.PersistenceMode = configs.LocalPersistence
	_, err = SetupQuoteService(config, nil, nil)
	require.Error(t, err)

	config.App.PersistenceMode = "ftp"
	_, err = SetupQuoteService(config, nil, nil)
	require.Error(t, err)
}

func TestSetupQuoteServiceWithCache(t *testing.T) {
	config := createConfig()
	config.App.CacheMode = configs.MemoryCache
	quoteCache := SetupQuoteCache(config, nil)
	require.NotNil(t, quoteCache)

	quoteService, err := SetupQuoteService(config, nil, quoteCache)
	require.NoError(t, err)
	_, isMock := quoteService.(*quote_service.QuoteServiceMock)
	require.False(t, isMock)

	config.App.CacheMode = configs.NoCache
	require.Nil(t, SetupQuoteCache(config, nil))
}

func TestSetupStoreOptions(t *testing.T) {
	defer func() {
		entities.DefaultCurrency = "EUR"
		entities.DefaultOptionValidityDays = 15
	}()

	config := createConfig()
	config.App.DefaultCurrency = "USD"
	config.App.OptionValidityDays = 7
	storeOptions, err := SetupStoreOptions(config, nil, applog.NewNopLogger())
	require.NoError(t, err)
	require.Equal(t, 2*time.Second, storeOptions.AutosaveDelay)
	require.Equal(t, 30, storeOptions.FinalizeValidityDays)
	require.Equal(t, "USD", entities.DefaultCurrency)
	require.Equal(t, 7, entities.DefaultOptionValidityDays)

	config.App.AutosaveDelay = "0s"
	storeOptions, err = SetupStoreOptions(config, nil, applog.NewNopLogger())
	require.NoError(t, err)
	require.Less(t, storeOptions.AutosaveDelay, time.Duration(0))

	config.App.AutosaveDelay = "later"
	_, err = SetupStoreOptions(config, nil, applog.NewNopLogger())
	require.Error(t, err)
}
