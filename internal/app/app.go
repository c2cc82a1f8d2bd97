package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/roshan4665/fundfolio/internal/clients/jsonbin"
	"github.com/roshan4665/fundfolio/internal/clients/sheets"
	"github.com/roshan4665/fundfolio/internal/common"
	"github.com/roshan4665/fundfolio/internal/interfaces"
	"github.com/roshan4665/fundfolio/internal/services/catalog"
	"github.com/roshan4665/fundfolio/internal/services/portfolio"
	"github.com/roshan4665/fundfolio/internal/storage"
)

// App holds all initialized services, clients, and storage.
// It is the shared core behind cmd/fundfolio-server.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Blobs            interfaces.BlobStore
	SheetsClient     interfaces.SheetsClient
	BinClient        interfaces.BinClient
	CatalogService   interfaces.CatalogService
	PortfolioService interfaces.PortfolioService
	StartupTime      time.Time

	schedulerCancel context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, storage, clients, and services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	// Get binary directory for self-contained operation
	binDir := getBinaryDir()

	// Load configuration - check provided path, FUNDFOLIO_CONFIG, then binary dir, then fallback
	if configPath == "" {
		configPath = os.Getenv("FUNDFOLIO_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "fundfolio.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/fundfolio.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative storage path to binary directory
	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}

	// Initialize logger
	logger := common.NewLoggerFromConfig(config.Logging)

	// Initialize storage
	blobs, err := storage.NewFileBlobStore(logger, config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Initialize API clients
	sheetsClient := sheets.NewClient(config.Clients.Sheets.DefaultPortfolioURL,
		sheets.WithLogger(logger),
		sheets.WithRateLimit(config.Clients.Sheets.RateLimit),
		sheets.WithTimeout(config.Clients.Sheets.GetTimeout()),
	)

	binOpts := []jsonbin.ClientOption{
		jsonbin.WithLogger(logger),
		jsonbin.WithTimeout(config.Clients.JSONBin.GetTimeout()),
	}
	if config.Clients.JSONBin.BaseURL != "" {
		binOpts = append(binOpts, jsonbin.WithBaseURL(config.Clients.JSONBin.BaseURL))
	}
	binClient := jsonbin.NewClient(config.Clients.JSONBin.BinID, config.Clients.JSONBin.MasterKey, binOpts...)
	if !binClient.Enabled() {
		logger.Warn().Msg("JSONBin bin ID not configured - portfolio persists locally only")
	}

	// Initialize services
	catalogService := catalog.NewService(sheetsClient, blobs, config.Clients.Sheets.SourceURLs, logger)
	portfolioService := portfolio.NewService(
		catalogService,
		blobs,
		binClient,
		sheetsClient,
		config.Ingest.GetPersistDebounce(),
		logger,
	)

	a := &App{
		Config:           config,
		Logger:           logger,
		Blobs:            blobs,
		SheetsClient:     sheetsClient,
		BinClient:        binClient,
		CatalogService:   catalogService,
		PortfolioService: portfolioService,
		StartupTime:      startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// Close releases background resources held by the App.
// The portfolio service is flushed separately before shutdown.
func (a *App) Close() {
	if a.schedulerCancel != nil {
		a.schedulerCancel()
		a.schedulerCancel = nil
	}
}
