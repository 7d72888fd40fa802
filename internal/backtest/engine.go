package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/gmf-engine/internal/forecast"
	"github.com/yourusername/gmf-engine/internal/marketdata"
	"github.com/yourusername/gmf-engine/internal/metrics"
	"github.com/yourusername/gmf-engine/internal/portfolio"
)

// PeriodResult describes one rebalance period of a run
type PeriodResult struct {
	Index          int                    `json:"index"`
	Date           time.Time              `json:"date"`
	Skipped        bool                   `json:"skipped"`
	SkipReason     string                 `json:"skip_reason,omitempty"`
	ForecastReturn float64                `json:"forecast_return"`
	Weights        portfolio.WeightVector `json:"weights,omitempty"`
}

// RunResult is the full outcome of a backtest run
type RunResult struct {
	ID        uuid.UUID       `json:"id"`
	Track     CumulativeTrack `json:"track"`
	Benchmark CumulativeTrack `json:"benchmark,omitempty"`
	Periods   []PeriodResult  `json:"periods"`
	StartedAt time.Time       `json:"started_at"`
	Duration  time.Duration   `json:"duration"`
}

// Engine orchestrates rolling backtest runs. At each rebalance date it
// re-estimates moments from the history strictly before that date, overlays
// the forecast for the target asset and re-optimizes the allocation.
type Engine struct {
	config     BacktestConfig
	optimizer  portfolio.Optimizer
	forecaster forecast.Forecaster
	logger     *logrus.Logger

	// OnPeriod, when set, is invoked after each rebalance period. It runs
	// on the engine goroutine and must not block.
	OnPeriod func(PeriodResult)
}

// NewEngine creates a new backtest engine
func NewEngine(cfg BacktestConfig, forecaster forecast.Forecaster, logger *logrus.Logger) (*Engine, error) {
	if forecaster == nil {
		return nil, fmt.Errorf("forecaster is required")
	}
	if logger == nil {
		logger = logrus.New()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Engine{
		config:     cfg,
		optimizer:  portfolio.NewMaxSharpeOptimizer(),
		forecaster: forecaster,
		logger:     logger,
	}, nil
}

// Config returns the backtest configuration
func (e *Engine) Config() BacktestConfig {
	return e.config
}

// Run executes the rolling backtest over the full price table
func (e *Engine) Run(ctx context.Context, prices *marketdata.PriceTable) (*RunResult, error) {
	started := time.Now()
	runID := uuid.New()

	e.logger.WithFields(logrus.Fields{
		"run_id":    runID,
		"assets":    len(prices.Assets()),
		"frequency": e.config.RebalanceFrequency,
		"target":    e.config.ForecastTarget,
	}).Info("Starting backtest run")

	result, err := e.run(ctx, runID, prices)
	if err != nil {
		metrics.RecordRunFailed()
		return nil, err
	}

	result.StartedAt = started
	result.Duration = time.Since(started)
	metrics.RecordRunCompleted(result.Duration.Seconds())
	metrics.LastRunFinalValue.Set(result.Track.FinalValue())

	e.logger.WithFields(logrus.Fields{
		"run_id":      runID,
		"periods":     len(result.Periods),
		"final_value": result.Track.FinalValue(),
		"duration":    result.Duration,
	}).Info("Backtest run completed")

	return result, nil
}

func (e *Engine) run(ctx context.Context, runID uuid.UUID, prices *marketdata.PriceTable) (*RunResult, error) {
	if !contains(prices.Assets(), e.config.ForecastTarget) {
		return nil, fmt.Errorf("forecast target %q not in price table", e.config.ForecastTarget)
	}
	for asset := range e.config.BenchmarkWeights {
		if !contains(prices.Assets(), asset) {
			return nil, fmt.Errorf("benchmark asset %q not in price table", asset)
		}
	}

	returns, err := prices.Returns()
	if err != nil {
		return nil, fmt.Errorf("failed to derive returns: %w", err)
	}

	sched, err := BuildSchedule(returns.Dates(), e.config.RebalanceFrequency)
	if err != nil {
		return nil, err
	}

	result := &RunResult{ID: runID}
	assets := prices.Assets()

	// Both tracks compound from 1.0 at the first price date; the point for
	// each return date carries the value after that day's return.
	track := CumulativeTrack{{Time: prices.Dates()[0], Value: 1.0}}
	var benchmark CumulativeTrack
	if len(e.config.BenchmarkWeights) > 0 {
		benchmark = CumulativeTrack{{Time: prices.Dates()[0], Value: 1.0}}
	}

	var current portfolio.WeightVector

	for i := 0; i < sched.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		startIdx := sched.Indices[i]
		endIdx := sched.PeriodEnd(i, returns.Len())
		date := sched.Dates[i]
		metrics.RebalancePeriodsTotal.Inc()

		period := PeriodResult{Index: i, Date: date}

		weights, forecastReturn, err := e.rebalance(ctx, prices, returns, startIdx, date, assets)
		switch {
		case err == nil:
			current = weights
			period.Weights = weights
			period.ForecastReturn = forecastReturn
		case isSkippable(err):
			period.Skipped = true
			period.SkipReason = err.Error()
			e.logger.WithFields(logrus.Fields{
				"run_id": runID,
				"period": i,
				"date":   date.Format("2006-01-02"),
			}).WithError(err).Warn("Skipping rebalance period")
		default:
			return nil, fmt.Errorf("period %d (%s): %w", i, date.Format("2006-01-02"), err)
		}

		// Weights hold over [d_i, d_{i+1}); with no allocation yet the
		// value is carried forward unchanged.
		for j := startIdx; j < endIdx; j++ {
			row, err := returns.Row(j)
			if err != nil {
				return nil, err
			}
			d := returns.Dates()[j]
			track = appendCompounded(track, d, current, row)
			if benchmark != nil {
				benchmark = appendCompounded(benchmark, d, e.config.BenchmarkWeights, row)
			}
		}

		result.Periods = append(result.Periods, period)
		if e.OnPeriod != nil {
			e.OnPeriod(period)
		}
	}

	result.Track = track
	result.Benchmark = benchmark
	return result, nil
}

// rebalance computes the allocation effective at the given date. The training
// window is every return strictly before the date.
func (e *Engine) rebalance(ctx context.Context, prices *marketdata.PriceTable, returns *marketdata.ReturnTable, startIdx int, date time.Time, assets []string) (portfolio.WeightVector, float64, error) {
	if startIdx < e.config.MinTrainObservations {
		metrics.RecordPeriodSkipped("insufficient_history")
		return nil, 0, fmt.Errorf("%w: %d observations, need %d", ErrInsufficientHistory, startIdx, e.config.MinTrainObservations)
	}

	window, err := returns.Window(0, startIdx)
	if err != nil {
		return nil, 0, err
	}

	forecastStart := time.Now()
	history, err := prices.SeriesThrough(e.config.ForecastTarget, date)
	if err != nil {
		return nil, 0, err
	}
	fc, err := e.forecaster.Forecast(ctx, history, e.config.ForecastHorizonDays)
	if err != nil {
		metrics.RecordForecast(e.forecaster.Name(), "error", time.Since(forecastStart).Seconds())
		metrics.RecordPeriodSkipped("forecast_failed")
		if e.config.ForecastFailurePolicy == PolicyAbort {
			// Not wrapped as a skippable error so the run fails.
			return nil, 0, fmt.Errorf("forecast for %s failed: %v", e.config.ForecastTarget, err)
		}
		return nil, 0, fmt.Errorf("%w: %v", forecast.ErrForecastFailed, err)
	}
	metrics.RecordForecast(e.forecaster.Name(), "ok", time.Since(forecastStart).Seconds())

	mu, err := portfolio.AnnualizedMeanReturns(window, assets)
	if err != nil {
		return nil, 0, err
	}
	mu[e.config.ForecastTarget] = fc.AnnualReturn

	cov, err := portfolio.AnnualizedCovariance(window, assets)
	if err != nil {
		return nil, 0, err
	}

	optStart := time.Now()
	weights, err := e.optimizer.MaxSharpe(mu, cov, assets, e.config.RiskFreeRate)
	metrics.OptimizationDuration.Observe(time.Since(optStart).Seconds())
	if err != nil {
		return nil, 0, err
	}

	return weights, fc.AnnualReturn, nil
}

// isSkippable reports whether a rebalance failure skips the period instead of
// failing the run. Optimization errors are always fatal.
func isSkippable(err error) bool {
	return errors.Is(err, ErrInsufficientHistory) || errors.Is(err, forecast.ErrForecastFailed)
}

func appendCompounded(track CumulativeTrack, date time.Time, weights portfolio.WeightVector, row map[string]float64) CumulativeTrack {
	prev := track[len(track)-1].Value
	value := prev
	if len(weights) > 0 {
		dayReturn := 0.0
		for asset, w := range weights {
			dayReturn += w * row[asset]
		}
		value = prev * (1 + dayReturn)
	}
	return append(track, TrackPoint{Time: date, Value: value})
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
