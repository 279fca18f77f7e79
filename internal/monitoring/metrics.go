package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Backtest metrics
	backtestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quant_backtests_total",
			Help: "Total number of completed backtest runs",
		},
		[]string{"strategy"},
	)

	backtestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quant_backtest_duration_seconds",
			Help:    "Wall time of a single backtest run",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	tradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quant_trades_total",
			Help: "Total number of simulated fills",
		},
		[]string{"strategy", "side"},
	)

	tradeValue = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quant_trade_value",
			Help:    "Distribution of simulated trade notional values",
			Buckets: prometheus.ExponentialBuckets(100, 4, 8),
		},
		[]string{"strategy"},
	)

	skippedTradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quant_skipped_trades_total",
			Help: "Entries skipped because capital could not cover value plus commission",
		},
		[]string{"strategy"},
	)

	// Optimizer metrics
	optimizationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quant_optimizations_total",
			Help: "Total number of portfolio optimizations by outcome",
		},
		[]string{"method", "converged"},
	)

	optimizerIterations = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quant_optimizer_iterations",
			Help:    "Solver iterations used per optimization",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"method"},
	)

	// Error metrics
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quant_errors_total",
			Help: "Total number of errors",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(backtestsTotal)
	prometheus.MustRegister(backtestDuration)
	prometheus.MustRegister(tradesTotal)
	prometheus.MustRegister(tradeValue)
	prometheus.MustRegister(skippedTradesTotal)
	prometheus.MustRegister(optimizationsTotal)
	prometheus.MustRegister(optimizerIterations)
	prometheus.MustRegister(errorsTotal)
}

// MetricsHandler handles Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordBacktest records a finished backtest run
func RecordBacktest(strategy string, elapsed time.Duration) {
	backtestsTotal.WithLabelValues(strategy).Inc()
	backtestDuration.WithLabelValues(strategy).Observe(elapsed.Seconds())
}

// RecordTrade records a simulated fill
func RecordTrade(strategy, side string, value float64) {
	tradesTotal.WithLabelValues(strategy, side).Inc()
	tradeValue.WithLabelValues(strategy).Observe(value)
}

// RecordSkippedTrade records an entry rejected for insufficient capital
func RecordSkippedTrade(strategy string) {
	skippedTradesTotal.WithLabelValues(strategy).Inc()
}

// RecordOptimization records a solver outcome
func RecordOptimization(method string, iterations int, converged bool) {
	optimizationsTotal.WithLabelValues(method, strconv.FormatBool(converged)).Inc()
	optimizerIterations.WithLabelValues(method).Observe(float64(iterations))
}

// RecordError records an error metric
func RecordError(errorType string) {
	errorsTotal.WithLabelValues(errorType).Inc()
}
