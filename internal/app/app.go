package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sitework/internal/aps"
	"github.com/ternarybob/sitework/internal/common"
	"github.com/ternarybob/sitework/internal/handlers"
	"github.com/ternarybob/sitework/internal/services/auth"
	"github.com/ternarybob/sitework/internal/services/export"
	"github.com/ternarybob/sitework/internal/services/issues"
	"github.com/ternarybob/sitework/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Storage
	DB       *badger.BadgerDB
	Sessions *badger.SessionStorage

	// Provider client and services
	Client        *aps.Client
	Flow          *auth.Flow
	IssuesService *issues.Service
	ExportService *export.Service

	// HTTP handlers
	APIHandler    *handlers.APIHandler
	AuthHandler   *handlers.AuthHandler
	DataHandler   *handlers.DataHandler
	ExportHandler *handlers.ExportHandler
	PageHandler   *handlers.PageHandler

	purgeCancel context.CancelFunc
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	logger.Info().Msg("Application initialization complete")
	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	db, err := badger.NewBadgerDB(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	a.DB = db
	a.Sessions = badger.NewSessionStorage(db, a.Logger)

	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	// Abandoned sessions hold tokens; drop them on startup and then hourly
	// while the server runs.
	if _, err := a.Sessions.PurgeStale(context.Background(), a.Config.SessionMaxAge()); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to purge stale sessions")
	}

	purgeCtx, cancel := context.WithCancel(context.Background())
	a.purgeCancel = cancel
	common.SafeGoWithContext(purgeCtx, a.Logger, "sessionPurge", func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-purgeCtx.Done():
				return
			case <-ticker.C:
				if _, err := a.Sessions.PurgeStale(purgeCtx, a.Config.SessionMaxAge()); err != nil {
					a.Logger.Warn().Err(err).Msg("Failed to purge stale sessions")
				}
			}
		}
	})

	return nil
}

// initServices initializes the provider client and business services
func (a *App) initServices() error {
	opts := []aps.ClientOption{aps.WithLogger(a.Logger)}
	if a.Config.Auth.BaseURL != "" {
		opts = append(opts, aps.WithBaseURL(a.Config.Auth.BaseURL))
	}
	a.Client = aps.NewClient(opts...)

	a.Flow = auth.NewFlow(
		a.Client,
		a.Config.Auth.ClientID,
		a.Config.Auth.ClientSecret,
		a.Config.CallbackURL(),
		a.Logger,
	)

	a.IssuesService = issues.NewService(a.Client, a.Logger)
	a.ExportService = export.NewService(a.Logger)

	a.Logger.Debug().
		Str("base_url", a.Client.BaseURL()).
		Str("callback_url", a.Config.CallbackURL()).
		Msg("Provider services initialized")

	return nil
}

// initHandlers initializes all HTTP handlers
func (a *App) initHandlers() {
	resolver := handlers.NewSessionResolver(a.Sessions, a.Logger)

	a.APIHandler = handlers.NewAPIHandler()
	a.AuthHandler = handlers.NewAuthHandler(a.Flow, resolver, a.Logger)
	a.DataHandler = handlers.NewDataHandler(a.IssuesService, resolver, a.Logger)
	a.ExportHandler = handlers.NewExportHandler(a.IssuesService, a.ExportService, resolver, a.Logger)
	a.PageHandler = handlers.NewPageHandler(a.Logger)
}

// Close closes all application resources
func (a *App) Close() error {
	if a.purgeCancel != nil {
		a.purgeCancel()
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}
	return nil
}
