package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector provides application metrics collection
type Collector struct {
	registry *prometheus.Registry

	// API Metrics
	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec

	// Ingestion Metrics
	RowsLoadedTotal  prometheus.Counter
	RowsDroppedTotal prometheus.Counter

	// Forecast Metrics
	ModelFitDuration    prometheus.Histogram
	ModelFitFailures    *prometheus.CounterVec
	ForecastPointsTotal prometheus.Counter
}

// NewCollector creates a new metrics collector backed by its own registry
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		APIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of API requests by endpoint, method, and status",
			},
			[]string{"endpoint", "method", "status"},
		),

		APIRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
			[]string{"endpoint"},
		),

		RowsLoadedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sales_rows_loaded_total",
				Help:      "Total number of sales rows kept after cleaning",
			},
		),

		RowsDroppedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sales_rows_dropped_total",
				Help:      "Total number of sales rows dropped for invalid date, demand, or product",
			},
		),

		ModelFitDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "model_fit_duration_seconds",
				Help:      "Duration of a single product model fit and prediction",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
			},
		),

		ModelFitFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_fit_failures_total",
				Help:      "Total number of per-product forecast failures by reason",
			},
			[]string{"reason"},
		),

		ForecastPointsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "forecast_points_total",
				Help:      "Total number of daily forecast points produced",
			},
		),
	}
}

// Registry exposes the underlying registry (tests gather from it)
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns the /metrics HTTP handler
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
