// Package bootstrap wires all dependencies and starts the application:
// configuration, logging, metrics, the capability registry, the built-in
// module surfaces, and the HTTP server that exposes them.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/avinashfc/agentic-visionxtract/adapters/clock"
	apihttp "github.com/avinashfc/agentic-visionxtract/adapters/http"
	"github.com/avinashfc/agentic-visionxtract/adapters/idgen"
	"github.com/avinashfc/agentic-visionxtract/adapters/metrics"
	"github.com/avinashfc/agentic-visionxtract/app"
	"github.com/avinashfc/agentic-visionxtract/config"
	"github.com/avinashfc/agentic-visionxtract/core/registry"
	"github.com/avinashfc/agentic-visionxtract/domain/call"
	"github.com/avinashfc/agentic-visionxtract/modules/judge"
	"github.com/avinashfc/agentic-visionxtract/modules/ocr"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Registry   *registry.Registry
	Metrics    *metrics.Collector
	HTTPServer *http.Server

	// Holder is non-nil when hot reload is enabled.
	Holder *config.Holder

	cfg *config.Config
}

// New creates and initializes the application from a loaded config.
func New(cfg *config.Config) (*App, error) {
	return newApp(cfg, nil)
}

// NewWithHotReload creates the application from a config file and keeps
// watching it: file writes and SIGHUP both trigger a reload. Reloads
// update module addresses in the registry, so they affect sessions
// opened afterwards, never an already-resolved session.
func NewWithHotReload(path string) (*App, error) {
	holder, err := config.NewHolder(path, setupLogger(config.LoggingConfig{Level: "info", Format: "json"}))
	if err != nil {
		return nil, err
	}
	return newApp(holder.Get(), holder)
}

func newApp(cfg *config.Config, holder *config.Holder) (*App, error) {
	logger := setupLogger(cfg.Logging)

	logger.Info().Msg("initializing visionxtract")

	a := &App{
		Logger:   logger,
		Registry: registry.New(),
		Holder:   holder,
		cfg:      cfg,
	}

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New()
		logger.Info().Msg("prometheus metrics enabled")
	}

	a.applyModuleConfig(cfg)

	if err := a.registerSurfaces(cfg); err != nil {
		return nil, fmt.Errorf("register surfaces: %w", err)
	}

	a.initHTTPServer(cfg)

	if holder != nil {
		holder.OnChange(a.onConfigChange)
		holder.OnError(func(error) {
			if a.Metrics != nil {
				a.Metrics.ConfigReloadErrors.Inc()
			}
		})
		if err := holder.WatchFile(); err != nil {
			return nil, fmt.Errorf("watch config: %w", err)
		}
		holder.WatchSignals()
	}

	return a, nil
}

// Client returns a module client backed by this application's registry,
// using the configured default mode and timeout.
func (a *App) Client(module string) *app.ModuleClient {
	mode, err := call.ParseMode(a.cfg.A2A.Mode)
	if err != nil {
		mode = call.ModeAuto
	}
	return app.NewModuleClient(app.ClientDeps{
		Registry: a.Registry,
		Clock:    clock.Real{},
		IDGen:    idgen.UUID{},
		Metrics:  a.Metrics,
		Logger:   a.Logger,
	}, app.ClientConfig{
		Module:  module,
		Mode:    mode,
		Timeout: a.cfg.A2A.Timeout,
	})
}

func (a *App) registerSurfaces(cfg *config.Config) error {
	if !cfg.Modules[judge.ModuleName].Disabled {
		s := judge.New(judge.Deps{
			IDGen:  idgen.UUID{},
			Logger: a.Logger,
		})
		if err := a.Registry.RegisterSurface(s); err != nil {
			return err
		}
		a.Logger.Info().Str("module", s.Module()).Strs("operations", s.Operations()).Msg("surface registered")
	}

	if !cfg.Modules[ocr.ModuleName].Disabled {
		s := ocr.New(ocr.Deps{
			Clock:  clock.Real{},
			Judge:  a.Client(judge.ModuleName),
			Logger: a.Logger,
		})
		if err := a.Registry.RegisterSurface(s); err != nil {
			return err
		}
		a.Logger.Info().Str("module", s.Module()).Strs("operations", s.Operations()).Msg("surface registered")
	}

	return nil
}

// applyModuleConfig pushes per-module addresses and ports into the
// registry. Called at startup and again on every config reload.
func (a *App) applyModuleConfig(cfg *config.Config) {
	for name, m := range cfg.Modules {
		if m.URL != "" {
			a.Registry.SetAddress(name, m.URL)
		}
		if m.Port != 0 {
			a.Registry.SetPort(name, m.Port)
		}
	}
}

func (a *App) onConfigChange(cfg *config.Config) {
	a.applyModuleConfig(cfg)
	if a.Metrics != nil {
		a.Metrics.ConfigReloads.Inc()
	}
	a.Logger.Info().Msg("module configuration applied")
}

func (a *App) initHTTPServer(cfg *config.Config) {
	var handler *apihttp.Handler
	if a.Metrics != nil {
		handler = apihttp.NewHandlerWithMetrics(a.Registry, a.Logger, a.Metrics)
	} else {
		handler = apihttp.NewHandler(a.Registry, a.Logger)
	}

	router := handler.Router()
	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, promhttp.Handler())
		a.Logger.Info().Str("path", cfg.Metrics.Path).Msg("metrics handler mounted")
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	a.HTTPServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	a.Logger.Info().Str("addr", addr).Msg("http server configured")
}

// Run starts the HTTP server and blocks until an interrupt arrives or
// the server fails.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Strs("modules", a.Registry.Modules()).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.Holder != nil {
		a.Holder.Stop()
	}

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
