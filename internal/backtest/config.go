package backtest

import (
	"fmt"

	"github.com/yourusername/gmf-engine/internal/config"
	"github.com/yourusername/gmf-engine/internal/portfolio"
)

// Frequency controls how return dates are grouped into rebalance periods
type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyAnnual    Frequency = "annual"
)

// Valid reports whether the frequency is one of the supported buckets
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyAnnual:
		return true
	}
	return false
}

// ForecastFailurePolicy decides what happens to a period whose forecast fails
type ForecastFailurePolicy string

const (
	// PolicySkipPeriod logs the failure and carries the previous weights
	// forward.
	PolicySkipPeriod ForecastFailurePolicy = "skip"
	// PolicyAbort fails the whole run on the first forecast error.
	PolicyAbort ForecastFailurePolicy = "abort"
)

// BacktestConfig extends core config with engine-specific settings
type BacktestConfig struct {
	RebalanceFrequency    Frequency
	ForecastTarget        string
	ForecastHorizonDays   int
	BenchmarkWeights      portfolio.WeightVector
	RiskFreeRate          float64
	MinTrainObservations  int
	ForecastFailurePolicy ForecastFailurePolicy
}

// FromConfig converts app config to backtest config
func FromConfig(cfg *config.BacktestConfig, horizonDays int) (BacktestConfig, error) {
	if cfg == nil {
		return BacktestConfig{}, fmt.Errorf("backtest config is required")
	}

	bt := BacktestConfig{
		RebalanceFrequency:    Frequency(cfg.RebalanceFrequency),
		ForecastTarget:        cfg.ForecastTarget,
		ForecastHorizonDays:   horizonDays,
		BenchmarkWeights:      portfolio.WeightVector(cfg.BenchmarkWeights),
		RiskFreeRate:          cfg.RiskFreeRate,
		MinTrainObservations:  cfg.MinTrainObservations,
		ForecastFailurePolicy: ForecastFailurePolicy(cfg.ForecastFailurePolicy),
	}

	return bt, bt.Validate()
}

// Validate validates backtest config parameters
func (b BacktestConfig) Validate() error {
	if !b.RebalanceFrequency.Valid() {
		return fmt.Errorf("unknown rebalance frequency: %s", b.RebalanceFrequency)
	}
	if b.ForecastTarget == "" {
		return fmt.Errorf("forecast target is required")
	}
	if b.ForecastHorizonDays <= 0 {
		return fmt.Errorf("forecast horizon must be positive")
	}
	if b.MinTrainObservations < 2 {
		return fmt.Errorf("minimum training observations must be at least 2")
	}
	if b.ForecastFailurePolicy != PolicySkipPeriod && b.ForecastFailurePolicy != PolicyAbort {
		return fmt.Errorf("unknown forecast failure policy: %s", b.ForecastFailurePolicy)
	}
	if len(b.BenchmarkWeights) > 0 {
		if err := b.BenchmarkWeights.Validate(); err != nil {
			return fmt.Errorf("invalid benchmark weights: %w", err)
		}
	}
	return nil
}
