package http

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sabercli/internal/config"
	apierrors "sabercli/internal/errors"
	"sabercli/internal/middleware"
)

// NewRouter assembles the full middleware chain and route tree for the
// report API.
func NewRouter(provider SnapshotProvider, cfg config.ServerConfig, logger *slog.Logger) chi.Router {
	errorHandler := apierrors.NewErrorHandler(logger, false)
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = config.DefaultHTTPTimeout
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics := middleware.NewMetrics(registry)
	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(limiter.Handler)
	r.Use(metrics.Handler)
	r.Use(middleware.Timeout(requestTimeout, logger))
	r.Use(middleware.Compress(5))

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	reports := NewReportHandler(provider, logger, errorHandler)
	health := NewHealthHandler(provider)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/", reports.Routes())
		r.Get("/health", health.Get)
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return r
}
