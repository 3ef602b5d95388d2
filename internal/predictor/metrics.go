package predictor

import "github.com/prometheus/client_golang/prometheus"

var (
	predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "predictd",
			Subsystem: "predictor",
			Name:      "predictions_total",
			Help:      "Total number of predictions by variant and outcome",
		},
		[]string{"variant", "status"},
	)

	predictionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "predictd",
			Subsystem: "predictor",
			Name:      "prediction_duration_seconds",
			Help:      "Duration of predictions in seconds, including queueing",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"variant"},
	)

	piecesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "predictd",
			Subsystem: "predictor",
			Name:      "pieces_total",
			Help:      "Total text pieces emitted by the runtime",
		},
	)

	cacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "predictd",
			Subsystem: "predictor",
			Name:      "cache_hits_total",
			Help:      "Predictions served from the result cache",
		},
	)

	queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "predictd",
			Subsystem: "predictor",
			Name:      "queue_depth",
			Help:      "Requests queued or in flight",
		},
	)

	setupDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "predictd",
			Subsystem: "predictor",
			Name:      "setup_duration_seconds",
			Help:      "Model load time in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
		},
	)
)

func init() {
	prometheus.MustRegister(predictionsTotal, predictionDuration, piecesTotal, cacheHitsTotal, queueDepth, setupDuration)
}
