package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	apierrors "npopulse/internal/errors"
	"npopulse/internal/middleware"
)

const (
	requestTimeout = 10 * time.Minute // pipeline runs execute in-request
	rateLimitRPS   = 50
	rateLimitBurst = 100
)

// RouterDeps carries everything the router needs
type RouterDeps struct {
	Dashboard  DashboardServiceInterface
	Operations OperationsServiceInterface
	Health     HealthServiceInterface

	// MetricsHandler serves Prometheus scrapes; nil disables /metrics
	MetricsHandler http.Handler

	Logger *slog.Logger
}

// NewRouter assembles the API router with the full middleware chain
func NewRouter(deps RouterDeps) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	errorHandler := apierrors.NewErrorHandler(logger, false)
	validation := middleware.NewValidationMiddleware(logger, errorHandler)
	rateLimiter := middleware.NewRateLimiter(rateLimitRPS, rateLimitBurst, logger)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(rateLimiter.Handler)
	r.Use(middleware.Timeout(requestTimeout, logger))
	r.Use(validation.ValidateRequest)

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/organizations", NewOrganizationHandler(deps.Dashboard, logger, errorHandler).Routes())
		r.Mount("/operations", NewOperationsHandler(deps.Operations, logger, errorHandler).Routes())
		r.Mount("/health", NewHealthHandler(deps.Health, logger).Routes())
	})

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	return r
}
