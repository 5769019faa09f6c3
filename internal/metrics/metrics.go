package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Dashboard views rendered, by view name.
	RenderTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nidsboard_render_total",
		Help: "Dashboard views rendered by view",
	}, []string{"view"})

	RenderDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nidsboard_render_duration_seconds",
		Help:    "Latency of dashboard view rendering",
		Buckets: prometheus.DefBuckets,
	}, []string{"view"})

	ExplanationCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nidsboard_explanation_cache_lookups_total",
		Help: "Explanation cache lookups by result (hit, miss, error, disabled)",
	}, []string{"result"})

	SimulationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nidsboard_simulations_total",
		Help: "Simulated traffic classifications by model and prediction",
	}, []string{"model", "prediction"})

	IndicatorMatches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nidsboard_indicator_matches_total",
		Help: "Sigma indicator matches on simulated traffic by rule id",
	}, []string{"rule"})

	ExportedExplanations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nidsboard_exported_explanations_total",
		Help: "Explanations written by the export pipeline by sink",
	}, []string{"sink"})
)

var registerOnce sync.Once

// Init registers all collectors with the default registry. Safe to call
// more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RenderTotal,
			RenderDuration,
			ExplanationCacheLookups,
			SimulationsTotal,
			IndicatorMatches,
			ExportedExplanations,
		)
	})
}
