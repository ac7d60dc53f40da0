// Package metrics exposes Prometheus instrumentation for the API server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder bundles the collectors the evaluation service updates. Pass a
// dedicated registry in tests; nil registers on the default one.
type Recorder struct {
	evaluations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSharpe  prometheus.Gauge
	lastHitRate prometheus.Gauge
}

// NewRecorder registers the collectors on reg and returns the recorder.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Recorder{
		evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arima_backtest_evaluations_total",
			Help: "Completed evaluation requests by outcome.",
		}, []string{"status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "arima_backtest_evaluation_duration_seconds",
			Help:    "Wall time spent running one evaluation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		lastSharpe: factory.NewGauge(prometheus.GaugeOpts{
			Name: "arima_backtest_last_sharpe_ratio",
			Help: "Annualized Sharpe ratio of the most recent successful run.",
		}),
		lastHitRate: factory.NewGauge(prometheus.GaugeOpts{
			Name: "arima_backtest_last_directional_accuracy",
			Help: "Directional accuracy of the most recent successful run.",
		}),
	}
}

// ObserveEvaluation records one finished evaluation request.
func (r *Recorder) ObserveEvaluation(status string, elapsed time.Duration) {
	r.evaluations.WithLabelValues(status).Inc()
	r.duration.WithLabelValues(status).Observe(elapsed.Seconds())
}

// SetLastRun publishes headline numbers from the latest successful run.
func (r *Recorder) SetLastRun(sharpe, accuracy float64) {
	r.lastSharpe.Set(sharpe)
	r.lastHitRate.Set(accuracy)
}
