package forecast

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/yourusername/gmf-engine/internal/marketdata"
)

// DriftForecaster is the statistical model variant: a random walk with drift
// fitted on log returns. The projected path grows at the mean log return and
// the confidence band widens with the square root of the horizon.
type DriftForecaster struct {
	confidence float64
}

// NewDriftForecaster creates a drift forecaster with the given confidence
// level for its band (e.g. 0.95).
func NewDriftForecaster(confidence float64) *DriftForecaster {
	if confidence <= 0 || confidence >= 1 {
		confidence = 0.95
	}
	return &DriftForecaster{confidence: confidence}
}

// Name identifies the model variant
func (f *DriftForecaster) Name() string { return "drift" }

// Forecast projects the history forward by horizonDays business days
func (f *DriftForecaster) Forecast(ctx context.Context, history *marketdata.Series, horizonDays int) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if horizonDays <= 0 {
		return nil, fmt.Errorf("%w: horizon must be positive", ErrForecastFailed)
	}
	if history == nil || len(history.Values) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 observations", ErrInsufficientHistory)
	}

	logReturns := make([]float64, len(history.Values)-1)
	for i := 1; i < len(history.Values); i++ {
		logReturns[i-1] = math.Log(history.Values[i] / history.Values[i-1])
	}
	drift := stat.Mean(logReturns, nil)
	sigma := stat.StdDev(logReturns, nil)
	if math.IsNaN(sigma) {
		sigma = 0
	}

	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(0.5 + f.confidence/2)

	last := history.Values[len(history.Values)-1]
	dates := forecastDates(history.Dates[len(history.Dates)-1], horizonDays)

	path := make([]float64, horizonDays)
	lower := make([]float64, horizonDays)
	upper := make([]float64, horizonDays)
	for k := 1; k <= horizonDays; k++ {
		mean := drift * float64(k)
		spread := z * sigma * math.Sqrt(float64(k))
		path[k-1] = last * math.Exp(mean)
		lower[k-1] = last * math.Exp(mean-spread)
		upper[k-1] = last * math.Exp(mean+spread)
	}

	return &Result{
		AnnualReturn: annualReturnFromPath(last, path[horizonDays-1], horizonDays),
		Path:         &marketdata.Series{Asset: history.Asset, Dates: dates, Values: path},
		Band: &Band{
			Lower: &marketdata.Series{Asset: history.Asset, Dates: dates, Values: lower},
			Upper: &marketdata.Series{Asset: history.Asset, Dates: dates, Values: upper},
		},
	}, nil
}
