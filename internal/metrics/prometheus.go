package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Prediction metrics
	PredictionRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripcast_prediction_requests_total",
			Help: "Total number of prediction requests",
		},
		[]string{"outcome"}, // outcome: model|fallback|validation_error
	)

	PredictionLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tripcast_prediction_latency_seconds",
			Help:    "Prediction request latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"outcome"},
	)

	PredictionConfidence = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tripcast_prediction_confidence",
			Help:    "Confidence scores of served predictions",
			Buckets: []float64{0.4, 0.5, 0.6, 0.7, 0.75, 0.8, 0.85, 0.9, 1},
		},
		[]string{"outcome"},
	)

	// Model lifecycle metrics
	ModelLoadAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripcast_model_load_attempts_total",
			Help: "Model load attempts by strategy",
		},
		[]string{"strategy", "status"}, // status: success|error
	)

	ArtifactScans = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripcast_artifact_scans_total",
			Help: "Artifact store scans",
		},
		[]string{"status"}, // status: success|error
	)

	ModelReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripcast_model_reloads_total",
			Help: "Explicit model reload operations",
		},
		[]string{"status"},
	)

	ModelCached = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tripcast_model_cached",
			Help: "Whether a model is currently cached (1) or not (0)",
		},
	)

	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripcast_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tripcast_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"worker"},
	)

	// Database metrics
	DBQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripcast_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"database", "operation", "status"}, // database: postgres|redis
	)

	// Event metrics
	KafkaMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripcast_kafka_messages_total",
			Help: "Total Kafka messages produced",
		},
		[]string{"topic", "status"},
	)
)

// Init registers all metrics with the default Prometheus registry.
// Call once at startup.
func Init() {
	prometheus.MustRegister(PredictionRequests)
	prometheus.MustRegister(PredictionLatency)
	prometheus.MustRegister(PredictionConfidence)

	prometheus.MustRegister(ModelLoadAttempts)
	prometheus.MustRegister(ArtifactScans)
	prometheus.MustRegister(ModelReloads)
	prometheus.MustRegister(ModelCached)

	prometheus.MustRegister(WorkerExecutions)
	prometheus.MustRegister(WorkerDuration)

	prometheus.MustRegister(DBQueries)
	prometheus.MustRegister(KafkaMessages)
}

// Handler returns the HTTP handler for the /metrics endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}
