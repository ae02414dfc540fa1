// Package metrics provides the centralized Prometheus metrics registry for edge-lab.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "edge_lab"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	ProjectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "projections_total",
		Help:      "Total number of game projections by status",
	}, []string{"status"})
	RecommendationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recommendations_total",
		Help:      "Total number of recommendations by market and tier",
	}, []string{"market", "tier"})
	StatsFetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stats_fetch_total",
		Help:      "Total number of stats source fetches by source and status",
	}, []string{"source", "status"})
)

// Gauge metrics
var (
	RatedTeams = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rated_teams",
		Help:      "Number of teams in the most recent rating table",
	})
)

// Histogram metrics
var (
	ProjectionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "projection_duration_seconds",
		Help:      "Duration of a single game projection in seconds",
		Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
	})
	BatchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "batch_duration_seconds",
		Help:      "Duration of projection batch runs in seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	})
)

// Projection status label values
const (
	StatusProjected   = "projected"
	StatusMissingData = "missing_data"
)

// Fetch status label values
const (
	FetchSuccess = "success"
	FetchError   = "error"
	FetchCached  = "cached"
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(ProjectionsTotal)
		registry.MustRegister(RecommendationsTotal)
		registry.MustRegister(StatsFetchTotal)

		registry.MustRegister(RatedTeams)

		registry.MustRegister(ProjectionDuration)
		registry.MustRegister(BatchDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordProjection records one projected game and its latency.
func RecordProjection(hasData bool, durationSeconds float64) {
	status := StatusProjected
	if !hasData {
		status = StatusMissingData
	}
	ProjectionsTotal.WithLabelValues(status).Inc()
	ProjectionDuration.Observe(durationSeconds)
}

// RecordRecommendation records a recommendation for market ("spread" or "total").
func RecordRecommendation(market, tier string) {
	RecommendationsTotal.WithLabelValues(market, tier).Inc()
}

// RecordStatsFetch records a stats or schedule fetch outcome.
func RecordStatsFetch(source, status string) {
	StatsFetchTotal.WithLabelValues(source, status).Inc()
}

// UpdateRatedTeams sets the rated teams gauge.
func UpdateRatedTeams(count int) {
	RatedTeams.Set(float64(count))
}

// RecordBatchDuration records batch duration.
func RecordBatchDuration(durationSeconds float64) {
	BatchDuration.Observe(durationSeconds)
}
