// Package forecast provides interchangeable price forecasters behind a single
// contract: given an asset's history and a horizon, produce a forward price
// path and an annualized-return estimate.
package forecast

import (
	"context"
	"math"
	"time"

	"github.com/yourusername/gmf-engine/internal/marketdata"
)

// Band is an optional confidence interval around a forecast path
type Band struct {
	Lower *marketdata.Series
	Upper *marketdata.Series
}

// Result is the outcome of one forecast invocation
type Result struct {
	AnnualReturn float64
	Path         *marketdata.Series
	Band         *Band
}

// Forecaster is the model contract. Implementations must be safe to call
// once per rebalance period without shared mutable state across calls.
type Forecaster interface {
	Name() string
	Forecast(ctx context.Context, history *marketdata.Series, horizonDays int) (*Result, error)
}

// annualReturnFromPath converts the forecast endpoint into an annualized
// growth rate relative to the last observed price.
func annualReturnFromPath(lastPrice, endPrice float64, horizonDays int) float64 {
	return math.Pow(endPrice/lastPrice, 252/float64(horizonDays)) - 1
}

// forecastDates projects business days following the last observed date
func forecastDates(last time.Time, horizonDays int) []time.Time {
	dates := make([]time.Time, 0, horizonDays)
	d := last
	for len(dates) < horizonDays {
		d = d.AddDate(0, 0, 1)
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		dates = append(dates, d)
	}
	return dates
}
