// Package app wires configuration, clients, storage and services into the
// shared core used by cmd/fairval-server.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bobmcallan/fairval/internal/clients/edgar"
	"github.com/bobmcallan/fairval/internal/clients/eodhd"
	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/interfaces"
	"github.com/bobmcallan/fairval/internal/metrics"
	"github.com/bobmcallan/fairval/internal/services/directory"
	"github.com/bobmcallan/fairval/internal/services/prices"
	"github.com/bobmcallan/fairval/internal/services/quote"
	"github.com/bobmcallan/fairval/internal/services/report"
	"github.com/bobmcallan/fairval/internal/signals"
	"github.com/bobmcallan/fairval/internal/storage"
	"github.com/bobmcallan/fairval/internal/valuation"
)

// App holds all initialized services, clients and storage.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Store            interfaces.CacheStore
	Metrics          *metrics.Metrics
	EDGARClient      *edgar.Client
	EODHDClient      *eodhd.Client
	DirectoryService interfaces.DirectoryService
	PriceService     interfaces.PriceService
	QuoteService     interfaces.QuoteService
	ReportService    interfaces.ReportService
	StartupTime      time.Time

	scheduler       *cron.Cron
	warmCacheCancel context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// ResolveConfigPath picks the config file: the explicit path, FAIRVAL_CONFIG,
// fairval.toml next to the binary, then config/fairval.toml.
func ResolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("FAIRVAL_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "fairval.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/fairval.toml" // fallback for development
		}
	}
	return configPath
}

// NewApp loads configuration and initializes all services.
// configPath may be empty, in which case ResolveConfigPath decides.
func NewApp(configPath string) (*App, error) {
	common.LoadVersionFromFile()

	config, err := common.LoadConfig(ResolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative log file path to binary directory
	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(getBinaryDir(), config.Logging.FilePath)
	}

	logger := common.NewLoggerFromConfig(config.Logging)
	return New(context.Background(), config, logger)
}

// New wires an App from an already loaded configuration.
func New(ctx context.Context, config *common.Config, logger *common.Logger) (*App, error) {
	startupStart := time.Now()

	for _, name := range config.ValidateRequired() {
		logger.Warn().Str("setting", name).Msg("Required setting missing - affected feeds will fail")
	}

	store, err := storage.NewCacheStore(ctx, logger, config.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	edgarCfg := config.Clients.EDGAR
	edgarClient := edgar.NewClient(edgarCfg.UserAgent,
		edgar.WithDataURL(edgarCfg.DataURL),
		edgar.WithWWWURL(edgarCfg.WWWURL),
		edgar.WithLogger(logger),
		edgar.WithRateLimit(edgarCfg.RateLimit),
		edgar.WithTimeout(edgarCfg.GetTimeout()),
	)

	eodhdCfg := config.Clients.EODHD
	eodhdClient := eodhd.NewClient(eodhdCfg.APIKey,
		eodhd.WithBaseURL(eodhdCfg.BaseURL),
		eodhd.WithLogger(logger),
		eodhd.WithRateLimit(eodhdCfg.RateLimit),
		eodhd.WithTimeout(eodhdCfg.GetTimeout()),
	)

	m := metrics.New()

	directoryService := directory.NewService(edgarClient, store, config.Cache.GetDirectoryTTL(), m, logger)
	priceService := prices.NewService(eodhdClient, store, config.Cache.GetPriceTTL(), config.Cache.GetPriceHistory(), m, logger)
	quoteService := quote.NewService(eodhdClient, priceService, logger)

	valuationEngine := valuation.NewEngine(valuation.ParamsFromConfig(config.Valuation), logger)
	signalEngine := signals.NewEngine(signals.ParamsFromConfig(config.Signals), logger)

	reportService := report.NewService(
		directoryService,
		edgarClient,
		eodhdClient,
		quoteService,
		priceService,
		valuationEngine,
		signalEngine,
		m,
		report.Options{
			Exchange:        eodhdCfg.Exchange,
			UpstreamTimeout: config.Cache.GetUpstreamTimeout(),
		},
		logger,
	)

	a := &App{
		Config:           config,
		Logger:           logger,
		Store:            store,
		Metrics:          m,
		EDGARClient:      edgarClient,
		EODHDClient:      eodhdClient,
		DirectoryService: directoryService,
		PriceService:     priceService,
		QuoteService:     quoteService,
		ReportService:    reportService,
		StartupTime:      startupStart,
	}

	logger.Info().
		Str("storage", config.Storage.Backend).
		Str("exchange", eodhdCfg.Exchange).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a, nil
}

// Close releases all resources held by the App.
// Shutdown order: stop scheduler, cancel warm cache, close storage.
func (a *App) Close() {
	if a.scheduler != nil {
		<-a.scheduler.Stop().Done()
		a.scheduler = nil
	}
	if a.warmCacheCancel != nil {
		a.warmCacheCancel()
		a.warmCacheCancel = nil
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
		a.Store = nil
	}
}

// StartWarmCache launches the background directory warm-up.
func (a *App) StartWarmCache() {
	if !a.Config.Scheduler.WarmOnStart {
		return
	}
	warmCtx, warmCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	a.warmCacheCancel = warmCancel
	go func() {
		defer warmCancel()
		warmCache(warmCtx, a.DirectoryService, a.Logger)
	}()
}

// StartScheduler registers the directory refresh cron job and starts it.
// A disabled scheduler or an empty expression is not an error.
func (a *App) StartScheduler() error {
	cfg := a.Config.Scheduler
	if !cfg.Enabled || cfg.DirectoryRefresh == "" {
		a.Logger.Info().Msg("Scheduler: disabled")
		return nil
	}

	c, err := newScheduler(cfg.DirectoryRefresh, a.DirectoryService, a.Logger, directoryRefreshTimeout)
	if err != nil {
		return err
	}
	c.Start()
	a.scheduler = c

	a.Logger.Info().Str("schedule", cfg.DirectoryRefresh).Msg("Scheduler: directory refresh registered")
	return nil
}
