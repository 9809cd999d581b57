package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"gitlab.faza.io/quote-project/draft-quote-service/app"
	"gitlab.faza.io/quote-project/draft-quote-service/configs"
	"gitlab.faza.io/quote-project/draft-quote-service/domain"
	"gitlab.faza.io/quote-project/draft-quote-service/domain/models/entities"
	draftquote_repository "gitlab.faza.io/quote-project/draft-quote-service/domain/models/repository/draftquote"
	"gitlab.faza.io/quote-project/draft-quote-service/domain/validator"
	applog "gitlab.faza.io/quote-project/draft-quote-service/infrastructure/logger"
	"gitlab.faza.io/quote-project/draft-quote-service/infrastructure/metrics"
	"gitlab.faza.io/quote-project/draft-quote-service/infrastructure/utils/calculate"
	grpc_server "gitlab.faza.io/quote-project/draft-quote-service/server/grpc"
	http_server "gitlab.faza.io/quote-project/draft-quote-service/server/http"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "draft-quote-service",
		Short:        "Draft quote option engine",
		SilenceUsage: true,
	}
	root.AddCommand(serveCommand(), calcCommand(), validateCommand())
	return root
}

func serveCommand() *cobra.Command {
	var envPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the gRPC health server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), envPath)
		},
	}
	cmd.Flags().StringVar(&envPath, "env", "", ".env file loaded when APP_ENV=dev")
	return cmd
}

func calcCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Print an option with recomputed totals",
		Long: `Read a draft quote option as JSON and print it with its totals recomputed.

Examples:
  draft-quote-service calc --file option.json
  cat option.json | draft-quote-service calc --file -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInput(cmd, file, func(in io.Reader) error {
				return runCalc(in, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "option JSON file, - reads stdin")
	return cmd
}

func validateCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Print the validation result of a draft quote",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInput(cmd, file, func(in io.Reader) error {
				return runValidate(in, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "draft quote JSON file, - reads stdin")
	return cmd
}

func withInput(cmd *cobra.Command, file string, fn func(in io.Reader) error) error {
	if file == "-" {
		return fn(cmd.InOrStdin())
	}
	in, err := os.Open(file)
	if err != nil {
		return errors.Wrap(err, "open input file failed")
	}
	defer in.Close()
	return fn(in)
}

func runCalc(in io.Reader, out io.Writer) error {
	var option entities.DraftQuoteOption
	if err := json.NewDecoder(in).Decode(&option); err != nil {
		return errors.Wrap(err, "decode option failed")
	}
	return writeIndented(out, calculate.CalculateOptionTotals(option))
}

func runValidate(in io.Reader, out io.Writer) error {
	var draft entities.DraftQuote
	if err := json.NewDecoder(in).Decode(&draft); err != nil {
		return errors.Wrap(err, "decode draft quote failed")
	}
	return writeIndented(out, validator.ValidateDraftQuote(&draft))
}

func writeIndented(out io.Writer, value interface{}) error {
	body, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal output failed")
	}
	_, err = out.Write(append(body, '\n'))
	return err
}

func runServe(ctx context.Context, envPath string) error {
	app.Globals.ZapLogger = app.InitZap()
	app.Globals.Logger = applog.GLog.Logger
	logger := app.Globals.Logger
	defer func() {
		_ = app.Globals.ZapLogger.Sync()
	}()

	config, err := configs.LoadConfig(envPath)
	if err != nil {
		logger.Error("LoadConfig failed", "fn", "runServe", "error", err)
		return err
	}
	if err := config.Validate(); err != nil {
		logger.Error("configuration invalid", "fn", "runServe", "error", err)
		return err
	}
	app.Globals.Config = config

	app.Globals.Registry = prometheus.NewRegistry()
	app.Globals.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.Globals.Metrics = metrics.NewMetrics(app.Globals.Registry)

	if config.App.PersistenceMode == configs.LocalPersistence {
		app.Globals.MongoClient, err = app.SetupMongoDriver(*config)
		if err != nil {
			return err
		}
		defer func() {
			_ = app.Globals.MongoClient.Disconnect(context.Background())
		}()

		app.Globals.DraftQuoteRepository, err = draftquote_repository.NewDraftQuoteRepository(ctx,
			app.Globals.MongoClient, config.Mongo.Database, config.Mongo.Collection)
		if err != nil {
			logger.Error("NewDraftQuoteRepository failed", "fn", "runServe", "error", err)
			return err
		}
	}

	if config.App.CacheMode == configs.RedisCache {
		app.Globals.RedisClient, err = app.SetupRedisClient(*config)
		if err != nil {
			return err
		}
		defer func() {
			_ = app.Globals.RedisClient.Close()
		}()
	}
	app.Globals.QuoteCache = app.SetupQuoteCache(*config, app.Globals.RedisClient)

	app.Globals.QuoteService, err = app.SetupQuoteService(*config, app.Globals.DraftQuoteRepository, app.Globals.QuoteCache)
	if err != nil {
		logger.Error("SetupQuoteService failed", "fn", "runServe", "error", err)
		return err
	}

	storeOptions, err := app.SetupStoreOptions(*config, app.Globals.Metrics, logger)
	if err != nil {
		logger.Error("SetupStoreOptions failed", "fn", "runServe", "error", err)
		return err
	}
	signalCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	storeOptions.BaseContext = signalCtx
	app.Globals.SessionRegistry = domain.NewSessionRegistry(app.Globals.QuoteService, storeOptions)

	httpServer := http_server.NewServer(config.HTTPServer.Address, uint16(config.HTTPServer.Port),
		app.Globals.SessionRegistry, app.Globals.Registry, logger)
	grpcServer := grpc_server.NewServer(config.GRPCServer.Address, uint16(config.GRPCServer.Port),
		app.Globals.Registry, logger)

	serveErrors := make(chan error, 2)
	go func() {
		serveErrors <- httpServer.Start()
	}()
	go func() {
		serveErrors <- grpcServer.Start()
	}()
	logger.Info("draft quote service started",
		"fn", "runServe",
		"persistenceMode", config.App.PersistenceMode,
		"cacheMode", config.App.CacheMode)

	select {
	case <-signalCtx.Done():
		logger.Info("shutdown signal received", "fn", "runServe")
	case err = <-serveErrors:
		logger.Error("server stopped", "fn", "runServe", "error", err)
	}

	grpcServer.Stop()
	if shutdownErr := httpServer.Shutdown(); shutdownErr != nil {
		logger.Error("http shutdown failed", "fn", "runServe", "error", shutdownErr)
	}
	closed := app.Globals.SessionRegistry.CloseAll()
	logger.Info("draft quote service stopped", "fn", "runServe", "closedSessions", closed)
	return err
}
