package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yourusername/gmf-engine/internal/marketdata"
)

// oracleForecaster replays a fixed set of future values, recording the last
// history it was fitted on.
type oracleForecaster struct {
	future   []float64
	lastSeen *marketdata.Series
}

func (o *oracleForecaster) Name() string { return "oracle" }

func (o *oracleForecaster) Forecast(ctx context.Context, history *marketdata.Series, horizonDays int) (*Result, error) {
	o.lastSeen = history
	if horizonDays > len(o.future) {
		return nil, errors.New("oracle exhausted")
	}
	last := history.Values[len(history.Values)-1]
	values := append([]float64(nil), o.future[:horizonDays]...)
	return &Result{
		AnnualReturn: annualReturnFromPath(last, values[horizonDays-1], horizonDays),
		Path: &marketdata.Series{
			Asset:  history.Asset,
			Dates:  forecastDates(history.Dates[len(history.Dates)-1], horizonDays),
			Values: values,
		},
	}, nil
}

func TestEvaluatePerfectForecast(t *testing.T) {
	series := growthSeries(20, 0.01)
	split := series.Dates[14]
	oracle := &oracleForecaster{future: append([]float64(nil), series.Values[15:]...)}

	eval, err := Evaluate(context.Background(), oracle, series, split)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if eval.Horizon != 5 {
		t.Fatalf("Horizon = %d, want 5", eval.Horizon)
	}
	if eval.MAE != 0 || eval.RMSE != 0 || eval.MAPE != 0 {
		t.Fatalf("expected zero errors for a perfect forecast, got MAE=%g RMSE=%g MAPE=%g", eval.MAE, eval.RMSE, eval.MAPE)
	}
	if eval.Model != "oracle" || eval.Asset != "AAA" {
		t.Fatalf("unexpected metadata: %+v", eval)
	}
}

func TestEvaluateFitsOnlyOnTrainingData(t *testing.T) {
	series := growthSeries(20, 0.01)
	split := series.Dates[14]
	oracle := &oracleForecaster{future: append([]float64(nil), series.Values[15:]...)}

	if _, err := Evaluate(context.Background(), oracle, series, split); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got := len(oracle.lastSeen.Values); got != 15 {
		t.Fatalf("forecaster saw %d observations, want 15", got)
	}
	last := oracle.lastSeen.Dates[len(oracle.lastSeen.Dates)-1]
	if last.After(split) {
		t.Fatalf("training data leaks past the split: %s > %s", last, split)
	}
}

func TestEvaluateKnownErrorStats(t *testing.T) {
	series := growthSeries(12, 0.0) // flat at 100
	split := series.Dates[9]
	// Forecast overshoots by a constant 1.0 at every step.
	oracle := &oracleForecaster{future: []float64{101, 101}}

	eval, err := Evaluate(context.Background(), oracle, series, split)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if eval.MAE != 1.0 {
		t.Fatalf("MAE = %g, want 1.0", eval.MAE)
	}
	if eval.RMSE != 1.0 {
		t.Fatalf("RMSE = %g, want 1.0", eval.RMSE)
	}
	if eval.MAPE != 1.0 {
		t.Fatalf("MAPE = %g, want 1.0", eval.MAPE)
	}
}

func TestEvaluateSplitErrors(t *testing.T) {
	series := growthSeries(10, 0.01)

	// Split before any usable training data.
	_, err := Evaluate(context.Background(), &oracleForecaster{}, series, day(2000, time.January, 1))
	if !errors.Is(err, ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}

	// Split after the entire series leaves no holdout.
	_, err = Evaluate(context.Background(), &oracleForecaster{}, series, series.Dates[len(series.Dates)-1])
	if !errors.Is(err, ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}

	if _, err := Evaluate(context.Background(), &oracleForecaster{}, nil, time.Now()); !errors.Is(err, ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory for nil series, got %v", err)
	}
}
