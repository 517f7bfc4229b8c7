package infrastructure

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	ServiceName    = "npopulse"
	ServiceVersion = "v1.0.0"
	MeterName      = "npopulse"
)

// Metrics holds the instruments recorded by pipeline stages and the
// dashboard server.
type Metrics struct {
	OrgsClassified metric.Int64Counter
	OrgsSkipped    metric.Int64Counter
	OrgsScored     metric.Int64Counter
	FetchCacheHits metric.Int64Counter
	FetchRequests  metric.Int64Counter
	FetchErrors    metric.Int64Counter
	StepDuration   metric.Float64Histogram
}

// MetricsProvider wires the OpenTelemetry meter provider to a Prometheus
// exporter so the dashboard can serve /metrics.
type MetricsProvider struct {
	MeterProvider  *sdkmetric.MeterProvider
	Meter          metric.Meter
	Metrics        *Metrics
	PrometheusHTTP http.Handler
}

// InitializeMetrics sets up the meter provider, registers instruments and
// returns the provider. Safe to call from batch CLIs as well; they simply
// never serve the Prometheus handler.
func InitializeMetrics() (*MetricsProvider, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(ServiceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	meter := provider.Meter(MeterName)

	metrics, err := newMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("register instruments: %w", err)
	}

	return &MetricsProvider{
		MeterProvider:  provider,
		Meter:          meter,
		Metrics:        metrics,
		PrometheusHTTP: promhttp.Handler(),
	}, nil
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	var m Metrics
	var err error

	if m.OrgsClassified, err = meter.Int64Counter("npopulse_orgs_classified_total",
		metric.WithDescription("Organizations assigned a momentum class")); err != nil {
		return nil, err
	}
	if m.OrgsSkipped, err = meter.Int64Counter("npopulse_orgs_skipped_total",
		metric.WithDescription("Organizations excluded by the coverage policy")); err != nil {
		return nil, err
	}
	if m.OrgsScored, err = meter.Int64Counter("npopulse_orgs_scored_total",
		metric.WithDescription("Organizations assigned a priority score")); err != nil {
		return nil, err
	}
	if m.FetchCacheHits, err = meter.Int64Counter("npopulse_fetch_cache_hits_total",
		metric.WithDescription("Filing documents served from the local cache")); err != nil {
		return nil, err
	}
	if m.FetchRequests, err = meter.Int64Counter("npopulse_fetch_requests_total",
		metric.WithDescription("Filing documents requested from the remote API")); err != nil {
		return nil, err
	}
	if m.FetchErrors, err = meter.Int64Counter("npopulse_fetch_errors_total",
		metric.WithDescription("Failed filing document fetches")); err != nil {
		return nil, err
	}
	if m.StepDuration, err = meter.Float64Histogram("npopulse_step_duration_seconds",
		metric.WithDescription("Pipeline step wall-clock duration")); err != nil {
		return nil, err
	}

	return &m, nil
}

// Shutdown flushes and stops the meter provider
func (p *MetricsProvider) Shutdown(ctx context.Context) error {
	if p.MeterProvider == nil {
		return nil
	}
	return p.MeterProvider.Shutdown(ctx)
}
