package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PredictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sipca_predictions_total",
			Help: "Total number of predictions served",
		},
		[]string{"outcome"},
	)

	PredictionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sipca_prediction_duration_seconds",
			Help:    "Single-record prediction duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	BatchRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sipca_batch_rows_total",
			Help: "Batch rows processed by status",
		},
		[]string{"status"},
	)

	BatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sipca_batch_duration_seconds",
			Help:    "Batch run duration in seconds",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 10, 30},
		},
	)

	AlertsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sipca_alerts_sent_total",
			Help: "Alert notifications delivered",
		},
	)

	AlertsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sipca_alerts_failed_total",
			Help: "Alert notifications that could not be delivered",
		},
	)

	Subscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sipca_subscribers",
			Help: "Current number of alert subscribers",
		},
	)

	ChatRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sipca_chat_requests_total",
			Help: "Chat turns by result",
		},
		[]string{"status"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sipca_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sipca_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)
)

func Init() {
	prometheus.MustRegister(PredictionsTotal)
	prometheus.MustRegister(PredictionDuration)
	prometheus.MustRegister(BatchRows)
	prometheus.MustRegister(BatchDuration)
	prometheus.MustRegister(AlertsSent)
	prometheus.MustRegister(AlertsFailed)
	prometheus.MustRegister(Subscribers)
	prometheus.MustRegister(ChatRequests)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
