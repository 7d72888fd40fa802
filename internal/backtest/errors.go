package backtest

import "errors"

var (
	// ErrInsufficientHistory indicates a rebalance period had fewer training
	// observations than the configured minimum. Periods hitting it are
	// skipped, not fatal.
	ErrInsufficientHistory = errors.New("insufficient training history")

	// ErrInsufficientData indicates a track is too short or too flat for
	// performance statistics.
	ErrInsufficientData = errors.New("insufficient data for analysis")

	// ErrNoPeriods indicates the schedule produced no rebalance dates.
	ErrNoPeriods = errors.New("no rebalance periods in range")
)
