// Package metrics provides the centralized Prometheus registry for the engine.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	BacktestRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gmf_engine",
		Name:      "backtest_runs_total",
		Help:      "Total number of backtest runs by outcome",
	}, []string{"status"})
	RebalancePeriodsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gmf_engine",
		Name:      "rebalance_periods_total",
		Help:      "Total number of rebalance periods processed",
	})
	RebalancePeriodsSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gmf_engine",
		Name:      "rebalance_periods_skipped_total",
		Help:      "Total number of rebalance periods skipped by reason",
	}, []string{"reason"})
	ForecastRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gmf_engine",
		Name:      "forecast_requests_total",
		Help:      "Total number of forecast requests by model and outcome",
	}, []string{"model", "status"})
	PricesIngestedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gmf_engine",
		Name:      "prices_ingested_total",
		Help:      "Total number of price rows ingested by ticker",
	}, []string{"ticker"})
	DataSourceErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gmf_engine",
		Name:      "data_source_errors_total",
		Help:      "Total number of data source errors by source",
	}, []string{"source"})
)

// Gauge metrics
var (
	ForecastCacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gmf_engine",
		Name:      "forecast_cache_hit_ratio",
		Help:      "Forecast cache hit ratio",
	})
	LastRunFinalValue = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gmf_engine",
		Name:      "last_run_final_value",
		Help:      "Final cumulative value of the most recent backtest run",
	})
	LastRunSharpeRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gmf_engine",
		Name:      "last_run_sharpe_ratio",
		Help:      "Annualized Sharpe ratio of the most recent backtest run",
	})
)

// Histogram metrics
var (
	OptimizationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gmf_engine",
		Name:      "optimization_duration_seconds",
		Help:      "Duration of max-Sharpe optimizations in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	BacktestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gmf_engine",
		Name:      "backtest_duration_seconds",
		Help:      "Duration of backtest runs in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})
	ForecastDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gmf_engine",
		Name:      "forecast_duration_seconds",
		Help:      "Duration of forecast calls in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(BacktestRunsTotal)
		registry.MustRegister(RebalancePeriodsTotal)
		registry.MustRegister(RebalancePeriodsSkippedTotal)
		registry.MustRegister(ForecastRequestsTotal)
		registry.MustRegister(PricesIngestedTotal)
		registry.MustRegister(DataSourceErrorsTotal)

		registry.MustRegister(ForecastCacheHitRatio)
		registry.MustRegister(LastRunFinalValue)
		registry.MustRegister(LastRunSharpeRatio)

		registry.MustRegister(OptimizationDuration)
		registry.MustRegister(BacktestDuration)
		registry.MustRegister(ForecastDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordRunCompleted records a finished backtest run.
func RecordRunCompleted(durationSeconds float64) {
	BacktestRunsTotal.WithLabelValues("completed").Inc()
	BacktestDuration.Observe(durationSeconds)
}

// RecordRunFailed records a failed backtest run.
func RecordRunFailed() {
	BacktestRunsTotal.WithLabelValues("failed").Inc()
}

// RecordPeriodSkipped records a skipped rebalance period.
func RecordPeriodSkipped(reason string) {
	RebalancePeriodsSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordForecast records the outcome of a single forecast call.
func RecordForecast(model, status string, durationSeconds float64) {
	ForecastRequestsTotal.WithLabelValues(model, status).Inc()
	ForecastDuration.Observe(durationSeconds)
}
