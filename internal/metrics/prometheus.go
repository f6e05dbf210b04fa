package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Prediction endpoint metrics
	PredictionRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prophet_prediction_requests_total",
			Help: "Total number of prediction requests",
		},
		[]string{"endpoint", "model", "status"}, // status: success|client_error|error
	)

	PredictionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prophet_prediction_duration_seconds",
			Help:    "End-to-end prediction request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"endpoint"},
	)

	// Model inference metrics
	InferenceDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prophet_inference_duration_seconds",
			Help:    "Single model inference duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"model"},
	)

	ModelsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "prophet_models_loaded",
			Help: "Number of models currently loaded in the registry",
		},
	)

	// Cache metrics
	CacheOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prophet_cache_operations_total",
			Help: "Total prediction cache operations",
		},
		[]string{"result"}, // result: hit|miss|error
	)

	// Rate limiting
	RequestsThrottled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prophet_requests_throttled_total",
			Help: "Total requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)
)

// Init registers all metrics with Prometheus
func Init() {
	prometheus.MustRegister(PredictionRequests)
	prometheus.MustRegister(PredictionDuration)
	prometheus.MustRegister(InferenceDuration)
	prometheus.MustRegister(ModelsLoaded)
	prometheus.MustRegister(CacheOps)
	prometheus.MustRegister(RequestsThrottled)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordPrediction records a prediction request outcome
func RecordPrediction(endpoint, model, status string, duration time.Duration) {
	PredictionRequests.WithLabelValues(endpoint, model, status).Inc()
	PredictionDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordInference records a single model inference
func RecordInference(model string, duration time.Duration) {
	InferenceDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// RecordCache records a cache lookup result
func RecordCache(result string) {
	CacheOps.WithLabelValues(result).Inc()
}
