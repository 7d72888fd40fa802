package forecast

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/yourusername/gmf-engine/internal/marketdata"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// growthSeries builds a history where every price is the previous price
// times (1+rate), so the log returns are constant with zero variance.
func growthSeries(n int, rate float64) *marketdata.Series {
	dates := make([]time.Time, n)
	values := make([]float64, n)
	price := 100.0
	d := day(2024, time.January, 1)
	for i := 0; i < n; i++ {
		for {
			d = d.AddDate(0, 0, 1)
			if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
				break
			}
		}
		dates[i] = d
		values[i] = price
		price *= 1 + rate
	}
	return &marketdata.Series{Asset: "AAA", Dates: dates, Values: values}
}

func TestDriftForecastZeroVariance(t *testing.T) {
	history := growthSeries(50, 0.01)
	f := NewDriftForecaster(0.95)

	result, err := f.Forecast(context.Background(), history, 10)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}

	last := history.Values[len(history.Values)-1]
	drift := math.Log(1.01)
	for k := 1; k <= 10; k++ {
		want := last * math.Exp(drift*float64(k))
		if math.Abs(result.Path.Values[k-1]-want) > 1e-9 {
			t.Fatalf("path[%d] = %g, want %g", k-1, result.Path.Values[k-1], want)
		}
		// Near-zero sigma collapses the band onto the path.
		if math.Abs(result.Band.Lower.Values[k-1]-result.Path.Values[k-1]) > 1e-9 {
			t.Fatalf("lower band diverges from path at step %d", k)
		}
		if math.Abs(result.Band.Upper.Values[k-1]-result.Path.Values[k-1]) > 1e-9 {
			t.Fatalf("upper band diverges from path at step %d", k)
		}
	}

	end := result.Path.Values[9]
	wantAnnual := math.Pow(end/last, 252.0/10.0) - 1
	if math.Abs(result.AnnualReturn-wantAnnual) > 1e-12 {
		t.Fatalf("AnnualReturn = %g, want %g", result.AnnualReturn, wantAnnual)
	}
}

func TestDriftForecastBandWidensWithVariance(t *testing.T) {
	history := growthSeries(50, 0.01)
	// Perturb one value so sigma is strictly positive.
	history.Values[25] *= 1.05

	result, err := NewDriftForecaster(0.95).Forecast(context.Background(), history, 20)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}

	spread1 := result.Band.Upper.Values[0] - result.Band.Lower.Values[0]
	spread20 := result.Band.Upper.Values[19] - result.Band.Lower.Values[19]
	if spread1 <= 0 {
		t.Fatal("expected positive band spread at step 1")
	}
	if spread20 <= spread1 {
		t.Fatalf("band should widen with horizon: step1=%g step20=%g", spread1, spread20)
	}
}

func TestDriftForecastSkipsWeekends(t *testing.T) {
	history := growthSeries(10, 0.0)

	result, err := NewDriftForecaster(0.95).Forecast(context.Background(), history, 15)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if len(result.Path.Dates) != 15 {
		t.Fatalf("expected 15 forecast dates, got %d", len(result.Path.Dates))
	}
	for _, d := range result.Path.Dates {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Fatalf("forecast date %s falls on a weekend", d.Format("2006-01-02"))
		}
	}
}

func TestDriftForecastErrors(t *testing.T) {
	f := NewDriftForecaster(0.95)

	_, err := f.Forecast(context.Background(), growthSeries(1, 0.01), 10)
	if !errors.Is(err, ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}

	_, err = f.Forecast(context.Background(), growthSeries(10, 0.01), 0)
	if !errors.Is(err, ErrForecastFailed) {
		t.Fatalf("expected ErrForecastFailed for zero horizon, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Forecast(ctx, growthSeries(10, 0.01), 5); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestNewDriftForecasterClampsConfidence(t *testing.T) {
	for _, bad := range []float64{-0.5, 0, 1, 2} {
		f := NewDriftForecaster(bad)
		if f.confidence != 0.95 {
			t.Fatalf("confidence %g not clamped, got %g", bad, f.confidence)
		}
	}
}
