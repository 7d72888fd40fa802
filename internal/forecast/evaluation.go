package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/yourusername/gmf-engine/internal/marketdata"
)

// Evaluation holds out-of-sample error statistics for a forecaster, computed
// against the actual prices after a chronological split.
type Evaluation struct {
	Asset     string    `json:"asset"`
	Model     string    `json:"model"`
	SplitDate time.Time `json:"split_date"`
	Horizon   int       `json:"horizon"`
	MAE       float64   `json:"mae"`
	RMSE      float64   `json:"rmse"`
	MAPE      float64   `json:"mape"`
}

// Evaluate fits the forecaster on history through splitDate and scores the
// projected path against the prices that actually followed. The comparison
// is positional: the k-th projected point against the k-th later observation.
func Evaluate(ctx context.Context, f Forecaster, series *marketdata.Series, splitDate time.Time) (*Evaluation, error) {
	if series == nil || len(series.Values) == 0 {
		return nil, fmt.Errorf("%w: empty series", ErrInsufficientHistory)
	}

	var splitIdx int
	for splitIdx = 0; splitIdx < len(series.Dates); splitIdx++ {
		if series.Dates[splitIdx].After(splitDate) {
			break
		}
	}
	if splitIdx < 2 {
		return nil, fmt.Errorf("%w: too few observations before split", ErrInsufficientHistory)
	}
	horizon := len(series.Values) - splitIdx
	if horizon == 0 {
		return nil, fmt.Errorf("%w: no observations after split", ErrInsufficientHistory)
	}

	train := &marketdata.Series{
		Asset:  series.Asset,
		Dates:  series.Dates[:splitIdx],
		Values: series.Values[:splitIdx],
	}
	actual := series.Values[splitIdx:]

	result, err := f.Forecast(ctx, train, horizon)
	if err != nil {
		return nil, err
	}
	if len(result.Path.Values) < horizon {
		return nil, fmt.Errorf("%w: path shorter than holdout", ErrInvalidResponse)
	}

	var sumAbs, sumSq, sumPct float64
	for k := 0; k < horizon; k++ {
		diff := result.Path.Values[k] - actual[k]
		sumAbs += math.Abs(diff)
		sumSq += diff * diff
		sumPct += math.Abs(diff) / actual[k]
	}
	n := float64(horizon)

	return &Evaluation{
		Asset:     series.Asset,
		Model:     f.Name(),
		SplitDate: splitDate,
		Horizon:   horizon,
		MAE:       sumAbs / n,
		RMSE:      math.Sqrt(sumSq / n),
		MAPE:      sumPct / n * 100,
	}, nil
}
