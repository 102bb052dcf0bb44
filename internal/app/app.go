// Package app wires configuration, storage, clients, and services together.
// It is the shared core used by cmd/ydrx-server.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ydrx/ydrx/internal/clients/supabase"
	"github.com/ydrx/ydrx/internal/common"
	"github.com/ydrx/ydrx/internal/interfaces"
	"github.com/ydrx/ydrx/internal/services/auth"
	"github.com/ydrx/ydrx/internal/services/catalog"
	"github.com/ydrx/ydrx/internal/services/ledger"
	"github.com/ydrx/ydrx/internal/services/report"
	"github.com/ydrx/ydrx/internal/storage"
)

// App holds all initialized services and clients.
type App struct {
	Config         *common.Config
	Logger         *common.Logger
	Blobs          interfaces.BlobStore
	Store          interfaces.DocumentStore
	Identity       interfaces.IdentityProvider
	AuthService    interfaces.AuthService
	CatalogService interfaces.CatalogService
	LedgerService  interfaces.LedgerService
	ReportService  interfaces.ReportService
	StartupTime    time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes storage, clients, and services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	binDir := getBinaryDir()

	// Load configuration - check provided path, YDRX_CONFIG, then binary dir, then fallback
	if configPath == "" {
		configPath = os.Getenv("YDRX_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "ydrx.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/ydrx.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative paths to the binary directory
	if config.Storage.File.BasePath != "" && !filepath.IsAbs(config.Storage.File.BasePath) {
		config.Storage.File.BasePath = filepath.Join(binDir, config.Storage.File.BasePath)
	}
	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(binDir, config.Logging.FilePath)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	blobs, err := storage.NewBlobStore(logger, &config.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	store := storage.NewDocumentStore(logger, blobs, config.Storage.DocumentKey)

	var identity interfaces.IdentityProvider
	if config.Clients.Supabase.Enabled() {
		identity = supabase.NewClient(
			config.Clients.Supabase.URL,
			config.Clients.Supabase.AnonKey,
			supabase.WithLogger(logger),
			supabase.WithRateLimit(config.Clients.Supabase.RateLimit),
			supabase.WithTimeout(config.Clients.Supabase.GetTimeout()),
			supabase.WithJWTSecret(config.Clients.Supabase.JWTSecret),
		)
		logger.Info().Str("url", config.Clients.Supabase.URL).Msg("Identity provider configured")
	} else {
		logger.Info().Msg("No identity provider configured, using local accounts")
	}

	authService := auth.NewService(store, identity, logger)

	a := &App{
		Config:         config,
		Logger:         logger,
		Blobs:          blobs,
		Store:          store,
		Identity:       identity,
		AuthService:    authService,
		CatalogService: catalog.NewService(store, logger),
		LedgerService:  ledger.NewService(store, logger),
		ReportService:  report.NewService(store, logger),
		StartupTime:    startupStart,
	}

	// Seed the document and reconcile any existing provider session before
	// the server starts taking requests.
	ctx := context.Background()
	if _, err := store.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	authService.SyncOnStartup(ctx)

	logger.Info().
		Str("backend", config.Storage.Backend).
		Dur("startup", time.Since(startupStart)).
		Msg("Application initialized")
	return a, nil
}

// Close releases storage resources.
func (a *App) Close() error {
	if a.Blobs != nil {
		return a.Blobs.Close()
	}
	return nil
}
