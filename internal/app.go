// Package internal contains core application functionality
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"gestao/internal/config"
	"gestao/internal/dashboard"
	"gestao/internal/database"
	"gestao/internal/gateway"
	"gestao/internal/http"
	"gestao/internal/jobs"
	"gestao/internal/logging"
	"gestao/internal/snapshots"
	"gestao/internal/timeframe"
)

// snapshotCleanupInterval is how often expired snapshots are purged
const snapshotCleanupInterval = 24 * time.Hour

// Options override the components NewAppWithOptions builds from the config
type Options struct {
	Config *config.Config

	// Optional overrides, mostly for tests
	Logger       *slog.Logger
	LogOutput    io.Writer
	TimeProvider timeframe.TimeProvider
	HTTPClient   gateway.HTTPClient
	Gateway      gateway.Gateway
}

// Application holds the wired dashboard components
type Application struct {
	Config     *config.Config
	Logger     *slog.Logger
	Clock      *timeframe.Clock
	Parser     *timeframe.RangeParser
	Registry   *prometheus.Registry
	Gateway    gateway.Gateway
	Controller *dashboard.Controller
	Server     *http.Server

	// Nil when the snapshot cache is disabled
	DBManager *database.DBManager
	Store     *snapshots.Store
	Scheduler *jobs.Scheduler

	logCloser io.Closer
}

// NewApp creates a new application instance with default settings
func NewApp() (*Application, error) {
	return NewAppWithConfig(config.GetConfig())
}

// NewAppWithConfig creates a new application with the provided config
func NewAppWithConfig(cfg *config.Config) (*Application, error) {
	return NewAppWithOptions(Options{Config: cfg})
}

// NewAppWithOptions wires config, logger, metrics API gateway, snapshot cache, controller,
// background jobs and HTTP routes
func NewAppWithOptions(opts Options) (*Application, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("application requires a config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{Config: cfg}

	// Create logger
	app.Logger = opts.Logger
	if app.Logger == nil {
		app.Logger, app.logCloser = logging.NewLogger(cfg, opts.LogOutput)
	}

	provider := opts.TimeProvider
	if provider == nil {
		provider = &timeframe.DefaultTimeProvider{}
	}
	clock, err := timeframe.NewClock(cfg.Timezone, provider)
	if err != nil {
		return nil, &gateway.ConfigurationError{Field: "timezone", Msg: err.Error()}
	}
	app.Clock = clock
	app.Parser = timeframe.NewRangeParser(clock, cfg.HistoryMonths)

	app.Registry = prometheus.NewRegistry()
	app.Registry.MustRegister(collectors.NewGoCollector())

	gw := opts.Gateway
	if gw == nil {
		httpGateway, err := gateway.NewHTTPGateway(gateway.Options{
			BaseURL: cfg.APIBaseURL,
			Timeout: cfg.GetAPITimeout(),
			Client:  opts.HTTPClient,
			Logger:  app.Logger,
		})
		if err != nil {
			return nil, err
		}
		gw = httpGateway
	}

	instrumented, err := gateway.NewInstrumented(gw, app.Registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register gateway metrics: %w", err)
	}
	app.Gateway = instrumented

	if cfg.CacheEnabled {
		// Initialize snapshot database
		app.DBManager = database.NewDBManager(cfg, app.Logger)
		if err := app.DBManager.Init(); err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := app.DBManager.MigrateDatabase(); err != nil {
			app.DBManager.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}

		app.Store = snapshots.NewStore(app.DBManager.GetConnection())
		cached := snapshots.NewCachingGateway(app.Gateway, app.Store, clock, app.Logger)
		app.Gateway = cached

		// Initialize jobs system
		app.Scheduler = jobs.NewScheduler(
			jobs.NewCleanupJob(app.Store, app.Logger, cfg.GetCacheRetention()), snapshotCleanupInterval,
			jobs.NewWarmJob(cached, clock, app.Logger), cfg.GetJobInterval(),
			app.Logger,
		)
	}

	app.Controller = dashboard.NewController(app.Gateway, app.Logger)

	deps := &http.Deps{
		Controller: app.Controller,
		Parser:     app.Parser,
		Logger:     app.Logger,
		Gatherer:   app.Registry,
	}
	if app.DBManager != nil {
		deps.DB = app.DBManager.GetConnection()
	}
	app.Server = http.NewServer(deps)
	MountAppRoutes(app.Server)

	return app, nil
}

// Run starts background jobs and serves HTTP until ctx is cancelled
func (a *Application) Run(ctx context.Context) error {
	if a.Scheduler != nil {
		if err := a.Scheduler.Start(); err != nil {
			return err
		}
	}

	addr := ":" + a.Config.GetPort()
	listenErr := make(chan error, 1)
	go func() {
		a.Logger.Info("Server listening", slog.String("addr", addr))
		listenErr <- a.Server.Listen(addr)
	}()

	var err error
	select {
	case <-ctx.Done():
		a.Logger.Info("Shutting down server")
		err = a.Server.Shutdown()
	case err = <-listenErr:
	}

	return errors.Join(err, a.Close())
}

// Close stops jobs, cancels the live cycle and releases the database and log file
func (a *Application) Close() error {
	if a.Scheduler != nil && a.Scheduler.IsRunning() {
		a.Scheduler.Stop()
	}
	a.Controller.Close()

	var errs []error
	if a.DBManager != nil {
		errs = append(errs, a.DBManager.Close())
	}
	if a.logCloser != nil {
		errs = append(errs, a.logCloser.Close())
	}
	return errors.Join(errs...)
}
