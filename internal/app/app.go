package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"npopulse/internal/config"
	"npopulse/internal/infrastructure"
	"npopulse/internal/operations"
	"npopulse/internal/services"
	transport "npopulse/internal/transport/http"
)

// Version is set at build time via -ldflags
var Version = "dev"

// Application is the assembled dashboard server
type Application struct {
	Config  *config.Config
	Paths   *config.Paths
	Logger  *slog.Logger
	Metrics *infrastructure.MetricsProvider
	Manager *operations.Manager
	Server  *http.Server
}

// New wires the application from configuration
func New() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	paths := config.GetPaths(cfg)
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	metrics, err := infrastructure.InitializeMetrics()
	if err != nil {
		return nil, fmt.Errorf("initialize metrics: %w", err)
	}

	manager := operations.NewManager(operations.NewRegistry(), metrics.Metrics, logger)
	deps := operations.Deps{
		Config:  cfg,
		Paths:   paths,
		Metrics: metrics.Metrics,
		Logger:  logger,
	}
	if err := operations.RegisterAll(manager, deps); err != nil {
		return nil, fmt.Errorf("register pipeline steps: %w", err)
	}

	router := transport.NewRouter(transport.RouterDeps{
		Dashboard:      services.NewDashboardService(paths, logger),
		Operations:     services.NewOperationsService(manager, logger),
		Health:         services.NewHealthService(Version, paths),
		MetricsHandler: metrics.PrometheusHTTP,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Application{
		Config:  cfg,
		Paths:   paths,
		Logger:  logger,
		Metrics: metrics,
		Manager: manager,
		Server:  server,
	}, nil
}

// Run serves the API until SIGINT or SIGTERM, then shuts down within
// the configured grace period.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("server listening",
			slog.String("addr", a.Server.Addr),
			slog.String("version", Version),
		)
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := a.Metrics.Shutdown(shutdownCtx); err != nil {
		a.Logger.Warn("metrics shutdown failed", slog.String("error", err.Error()))
	}
	infrastructure.CloseLogger()

	return nil
}
