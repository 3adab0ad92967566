package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rewired-gh/bikeshare/internal/config"
	"github.com/rewired-gh/bikeshare/internal/dataset"
	"github.com/rewired-gh/bikeshare/internal/httpapi"
	"github.com/rewired-gh/bikeshare/internal/logger"
	"github.com/rewired-gh/bikeshare/internal/models"
	"github.com/rewired-gh/bikeshare/internal/pipeline"
	"github.com/rewired-gh/bikeshare/internal/source"
	"github.com/rewired-gh/bikeshare/internal/storage"
	"github.com/rewired-gh/bikeshare/internal/telegram"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")
	mode       = flag.String("mode", "serve", "Run mode: serve, import or report")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Setup logging with level support
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	if err := run(cfg); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	// Initialize storage
	store, err := storage.New(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	// Initialize dataset loader
	fetcher := source.NewClient(cfg.Dataset.FetchTimeout, source.ClientConfig{
		MaxRetries:     cfg.Dataset.MaxRetries,
		RetryDelayBase: cfg.Dataset.RetryDelayBase,
	})
	loader := dataset.NewLoader(store, fetcher,
		dataset.Source{Path: cfg.Dataset.HourlyPath, URL: cfg.Dataset.HourlyURL},
		dataset.Source{Path: cfg.Dataset.DailyPath, URL: cfg.Dataset.DailyURL},
	)
	provider := dataset.NewProvider(loader.Load)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	switch *mode {
	case "import":
		return runImport(ctx, loader)
	case "report":
		return runReport(ctx, cfg, provider)
	case "serve":
		return runServe(ctx, cfg, provider, store)
	default:
		return fmt.Errorf("unknown mode %q", *mode)
	}
}

func runImport(ctx context.Context, loader *dataset.Loader) error {
	if err := loader.ImportAll(ctx); err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	logger.Info("Dataset import complete")
	return nil
}

// defaultReport computes the report for the configured default selection
func defaultReport(cfg *config.Config, provider *dataset.Provider) telegram.ReportFunc {
	sel, view := cfg.DefaultSelection(), cfg.DefaultView()
	return func(ctx context.Context) (pipeline.Report, error) {
		ds, err := provider.Get(ctx)
		if err != nil {
			return pipeline.Report{}, err
		}
		return pipeline.Compute(ds.Records(view.Granularity), sel, view), nil
	}
}

func runReport(ctx context.Context, cfg *config.Config, provider *dataset.Provider) error {
	if !cfg.Telegram.Enabled {
		return fmt.Errorf("report mode requires telegram.enabled")
	}
	client, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
	if err != nil {
		return fmt.Errorf("failed to initialize Telegram client: %w", err)
	}

	report, err := defaultReport(cfg, provider)(ctx)
	if err != nil {
		return fmt.Errorf("failed to compute report: %w", err)
	}
	if err := client.SendReport(report); err != nil {
		return err
	}
	logger.Info("Report %s sent (%d records, %d rentals)", report.ID, report.Records, report.TotalRentals)
	return nil
}

func runServe(ctx context.Context, cfg *config.Config, provider *dataset.Provider, store *storage.Storage) error {
	// Load the dataset up front so the first request does not pay for it
	ds, err := provider.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	logger.Info("Dataset ready: %d hourly, %d daily records",
		len(ds.Records(models.Hourly)), len(ds.Records(models.Daily)))

	// Initialize Telegram client
	if cfg.Telegram.Enabled {
		client, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			return fmt.Errorf("failed to initialize Telegram client: %w", err)
		}
		logger.Info("Telegram client initialized successfully")
		go client.ListenForCommands(ctx, defaultReport(cfg, provider))
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	if !cfg.Server.Enabled {
		logger.Info("HTTP API disabled, waiting for shutdown")
		<-ctx.Done()
		return nil
	}

	server := httpapi.NewServer(cfg.Server, provider, store, cfg.DefaultSelection(), cfg.DefaultView())
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if err := server.ShutdownWithTimeout(); err != nil {
		logger.Error("HTTP shutdown failed: %v", err)
	}
	logger.Info("Service stopped")
	return nil
}
