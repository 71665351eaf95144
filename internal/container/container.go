package container

import (
	"context"
	"fmt"

	"ncsresearch/adapters/backend"
	"ncsresearch/adapters/postgres"
	"ncsresearch/app"
	"ncsresearch/internal"
	"ncsresearch/internal/auth"
	"ncsresearch/internal/config"
	"ncsresearch/internal/locale"
	"ncsresearch/internal/settings"
	"ncsresearch/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB *sqlx.DB

	// Repositories (data access layer)
	UserRepo     ports.UserRepository
	SessionRepo  ports.SessionRepository
	ResultRepo   ports.ResultRepository
	SettingsRepo ports.SettingsRepository

	// Cross-cutting components
	Settings   *settings.Store
	Translator locale.Localizer
	Identity   ports.IdentityProvider

	// Statistics backend transport
	Backend *backend.Client
	Poller  *backend.Poller

	// Application services
	Wizard   *app.WizardService
	Exporter *app.ExportService

	log *internal.Logger
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	return &Container{
		Config: cfg,
		log:    internal.DefaultLogger.Named("container"),
	}, nil
}

// InitWithDatabase initializes every component that needs database access
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	c.DB = db

	if err := db.Ping(); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	c.initRepositories()

	if err := c.initSettings(ctx); err != nil {
		return fmt.Errorf("failed to initialize settings: %w", err)
	}
	c.initBackend()
	c.initServices()

	c.log.Info("container initialized, backend origin %s", c.Backend.BaseURL())
	return nil
}

func (c *Container) initRepositories() {
	c.UserRepo = postgres.NewUserRepository(c.DB)
	c.SessionRepo = postgres.NewSessionRepository(c.DB)
	c.ResultRepo = postgres.NewResultRepository(c.DB)
	c.SettingsRepo = postgres.NewSettingsRepository(c.DB)
}

func (c *Container) initSettings(ctx context.Context) error {
	store, err := settings.NewStore(ctx, c.SettingsRepo)
	if err != nil {
		return err
	}
	c.Settings = store

	// The persisted language preference wins over the env default; seed it so
	// the store is the single source the translator reads from.
	if _, ok := store.Get(settings.KeyLanguage); !ok {
		if err := store.Set(ctx, settings.KeyLanguage, c.Config.Locale.Default); err != nil {
			return err
		}
	}
	c.Translator = locale.NewDynamicTranslator(store)
	c.Identity = auth.NewStaticProvider(store)
	return nil
}

func (c *Container) initBackend() {
	c.Backend = backend.NewClient(
		c.Config.Backend.BaseURL,
		c.Translator,
		backend.WithRequestTimeout(c.Config.Backend.RequestTimeout),
		backend.WithPreflightTimeout(c.Config.Backend.PreflightTimeout),
		backend.WithTokenSource(c.Settings),
	)
	c.Poller = backend.NewPoller(c.Backend, c.Config.Backend.PollInterval, nil)
}

func (c *Container) initServices() {
	c.Wizard = app.NewWizardService(c.SessionRepo, c.ResultRepo, c.Backend)
	c.Exporter = app.NewExportService(c.Backend)
}

// Close releases held resources
func (c *Container) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
