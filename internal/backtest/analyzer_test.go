package backtest

import (
	"errors"
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/yourusername/gmf-engine/internal/portfolio"
)

// trackFromReturns compounds daily returns from 1.0, mirroring how the
// engine builds its tracks.
func trackFromReturns(returns []float64) CumulativeTrack {
	track := CumulativeTrack{{Time: day(2024, time.January, 2), Value: 1.0}}
	value := 1.0
	for i, r := range returns {
		value *= 1 + r
		track = append(track, TrackPoint{Time: day(2024, time.January, 3).AddDate(0, 0, i), Value: value})
	}
	return track
}

func TestAnalyzeKnownTrack(t *testing.T) {
	returns := []float64{0.01, -0.005, 0.02, 0.0, -0.01, 0.015}
	result := &RunResult{Track: trackFromReturns(returns)}

	riskFree := 0.02
	report, err := Analyze(result, riskFree)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	final := result.Track.FinalValue()
	n := float64(len(returns))
	wantCAGR := math.Pow(final, float64(portfolio.TradingDaysPerYear)/n) - 1
	wantVol := stat.StdDev(returns, nil) * math.Sqrt(float64(portfolio.TradingDaysPerYear))
	wantSharpe := (wantCAGR - riskFree) / wantVol

	s := report.Strategy
	if math.Abs(s.AnnualizedReturn-wantCAGR) > 1e-9 {
		t.Fatalf("AnnualizedReturn = %g, want %g", s.AnnualizedReturn, wantCAGR)
	}
	if math.Abs(s.AnnualizedVol-wantVol) > 1e-9 {
		t.Fatalf("AnnualizedVol = %g, want %g", s.AnnualizedVol, wantVol)
	}
	if math.Abs(s.SharpeRatio-wantSharpe) > 1e-9 {
		t.Fatalf("SharpeRatio = %g, want %g", s.SharpeRatio, wantSharpe)
	}
	if s.TradingDays != len(returns) {
		t.Fatalf("TradingDays = %d, want %d", s.TradingDays, len(returns))
	}
	if s.FinalValue != final {
		t.Fatalf("FinalValue = %g, want %g", s.FinalValue, final)
	}
	if report.Benchmark != nil {
		t.Fatal("unexpected benchmark summary")
	}
}

func TestAnalyzeWithBenchmark(t *testing.T) {
	result := &RunResult{
		Track:     trackFromReturns([]float64{0.01, 0.02, -0.01}),
		Benchmark: trackFromReturns([]float64{0.005, 0.005, 0.002}),
	}

	report, err := Analyze(result, 0.0)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.Benchmark == nil {
		t.Fatal("missing benchmark summary")
	}
	if report.Benchmark.Name != "benchmark" || report.Strategy.Name != "strategy" {
		t.Fatalf("unexpected names: %q / %q", report.Strategy.Name, report.Benchmark.Name)
	}
}

func TestAnalyzeInsufficientData(t *testing.T) {
	short := &RunResult{Track: trackFromReturns([]float64{0.01})}
	if _, err := Analyze(short, 0.0); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData for short track, got %v", err)
	}

	flat := &RunResult{Track: trackFromReturns([]float64{0, 0, 0, 0})}
	if _, err := Analyze(flat, 0.0); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData for flat track, got %v", err)
	}

	if _, err := Analyze(nil, 0.0); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData for nil result, got %v", err)
	}
}
