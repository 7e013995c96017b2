// Package metrics exposes the Prometheus instrumentation for the
// inference service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PredictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neuroscreen_predictions_total",
		Help: "Completed prediction requests by input type and outcome status.",
	}, []string{"input_type", "status"})

	PredictionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "neuroscreen_prediction_duration_seconds",
		Help:    "End-to-end prediction latency, extraction included.",
		Buckets: prometheus.DefBuckets,
	}, []string{"input_type"})

	ExtractionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neuroscreen_extraction_failures_total",
		Help: "Feature extraction rejections by error kind.",
	}, []string{"kind"})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "neuroscreen_result_cache_hits_total",
		Help: "Predictions served from the result cache.",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "neuroscreen_result_cache_misses_total",
		Help: "Result cache lookups that fell through to the pipeline.",
	})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neuroscreen_prediction_events_total",
		Help: "Prediction events written to the broker, by outcome.",
	}, []string{"status"})

	ModelLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "neuroscreen_model_loaded",
		Help: "1 once the model artifact is loaded and serving.",
	})
)

// Handler serves the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
