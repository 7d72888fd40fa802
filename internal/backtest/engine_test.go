package backtest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/yourusername/gmf-engine/internal/forecast"
	"github.com/yourusername/gmf-engine/internal/marketdata"
	"github.com/yourusername/gmf-engine/internal/portfolio"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// stubForecaster returns a fixed annual return and records the history
// cutoff of every call.
type stubForecaster struct {
	annualReturn float64
	cutoffs      []time.Time
}

func (s *stubForecaster) Name() string { return "stub" }

func (s *stubForecaster) Forecast(ctx context.Context, history *marketdata.Series, horizonDays int) (*forecast.Result, error) {
	s.cutoffs = append(s.cutoffs, history.Dates[len(history.Dates)-1])
	return &forecast.Result{AnnualReturn: s.annualReturn}, nil
}

// failingForecaster always fails
type failingForecaster struct{}

func (f *failingForecaster) Name() string { return "failing" }

func (f *failingForecaster) Forecast(ctx context.Context, history *marketdata.Series, horizonDays int) (*forecast.Result, error) {
	return nil, fmt.Errorf("model server down")
}

// fixedOptimizer returns the same allocation for every period
type fixedOptimizer struct {
	weights portfolio.WeightVector
}

func (o *fixedOptimizer) MaxSharpe(mu map[string]float64, cov *mat.SymDense, order []string, riskFree float64) (portfolio.WeightVector, error) {
	return o.weights, nil
}

// constantTable builds a two-asset price table over n+1 weekdays where every
// daily return is exactly r.
func constantTable(t *testing.T, n int, r float64) *marketdata.PriceTable {
	t.Helper()
	dates := weekdays(day(2024, time.January, 2), day(2024, time.December, 31))[:n+1]

	aaa := make([]float64, n+1)
	bbb := make([]float64, n+1)
	pa, pb := 100.0, 50.0
	for i := 0; i <= n; i++ {
		aaa[i], bbb[i] = pa, pb
		pa *= 1 + r
		pb *= 1 + r
	}

	table, err := marketdata.NewPriceTable([]string{"AAA", "BBB"}, dates, map[string][]float64{"AAA": aaa, "BBB": bbb})
	if err != nil {
		t.Fatalf("NewPriceTable: %v", err)
	}
	return table
}

func dailyConfig() BacktestConfig {
	return BacktestConfig{
		RebalanceFrequency:    FrequencyDaily,
		ForecastTarget:        "AAA",
		ForecastHorizonDays:   10,
		RiskFreeRate:          0.02,
		MinTrainObservations:  2,
		ForecastFailurePolicy: PolicySkipPeriod,
	}
}

func TestRunCompoundsConstantReturns(t *testing.T) {
	const r = 0.01
	prices := constantTable(t, 10, r)

	eng, err := NewEngine(dailyConfig(), &stubForecaster{annualReturn: 0.10}, quietLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	eng.optimizer = &fixedOptimizer{weights: portfolio.WeightVector{"AAA": 0.6, "BBB": 0.4}}

	result, err := eng.Run(context.Background(), prices)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Track) != 11 {
		t.Fatalf("track has %d points, want 11", len(result.Track))
	}
	if !result.Track[0].Time.Equal(prices.Dates()[0]) || result.Track[0].Value != 1.0 {
		t.Fatalf("track must start at 1.0 on the first price date, got %+v", result.Track[0])
	}

	// The first two periods lack training history, so the value holds at
	// 1.0 for two return days and compounds at r for the remaining eight.
	for i := 1; i <= 2; i++ {
		if result.Track[i].Value != 1.0 {
			t.Fatalf("track[%d] = %g before first allocation, want 1.0", i, result.Track[i].Value)
		}
	}
	want := math.Pow(1+r, 8)
	if math.Abs(result.Track.FinalValue()-want) > 1e-9 {
		t.Fatalf("final value = %g, want %g", result.Track.FinalValue(), want)
	}

	if len(result.Periods) != 10 {
		t.Fatalf("got %d periods, want 10", len(result.Periods))
	}
	for i, p := range result.Periods {
		if i < 2 {
			if !p.Skipped || !strings.Contains(p.SkipReason, "insufficient") {
				t.Fatalf("period %d should skip on history: %+v", i, p)
			}
			continue
		}
		if p.Skipped {
			t.Fatalf("period %d unexpectedly skipped: %s", i, p.SkipReason)
		}
		if err := p.Weights.Validate(); err != nil {
			t.Fatalf("period %d weights invalid: %v", i, err)
		}
		if p.ForecastReturn != 0.10 {
			t.Fatalf("period %d forecast return = %g", i, p.ForecastReturn)
		}
	}
}

// twoRateTable builds a price table where AAA returns exactly ra per day and
// BBB exactly rb.
func twoRateTable(t *testing.T, n int, ra, rb float64) *marketdata.PriceTable {
	t.Helper()
	dates := weekdays(day(2024, time.January, 2), day(2024, time.December, 31))[:n+1]

	aaa := make([]float64, n+1)
	bbb := make([]float64, n+1)
	pa, pb := 100.0, 50.0
	for i := 0; i <= n; i++ {
		aaa[i], bbb[i] = pa, pb
		pa *= 1 + ra
		pb *= 1 + rb
	}

	table, err := marketdata.NewPriceTable([]string{"AAA", "BBB"}, dates, map[string][]float64{"AAA": aaa, "BBB": bbb})
	if err != nil {
		t.Fatalf("NewPriceTable: %v", err)
	}
	return table
}

func TestRunBenchmarkCompoundsBlendedReturn(t *testing.T) {
	const ra, rb = 0.0, 0.001
	prices := twoRateTable(t, 10, ra, rb)

	cfg := dailyConfig()
	cfg.BenchmarkWeights = portfolio.WeightVector{"AAA": 0.5, "BBB": 0.5}
	eng, err := NewEngine(cfg, &stubForecaster{annualReturn: 0.10}, quietLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	eng.optimizer = &fixedOptimizer{weights: portfolio.WeightVector{"AAA": 1.0}}

	result, err := eng.Run(context.Background(), prices)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// The benchmark holds its fixed blend from day one, so each point is
	// the blended daily return compounded.
	blend := 0.5*ra + 0.5*rb
	if len(result.Benchmark) != 11 {
		t.Fatalf("benchmark has %d points, want 11", len(result.Benchmark))
	}
	for j, p := range result.Benchmark {
		want := math.Pow(1+blend, float64(j))
		if math.Abs(p.Value-want) > 1e-9 {
			t.Fatalf("benchmark[%d] = %g, want %g", j, p.Value, want)
		}
	}

	// The strategy has no allocation for the first two periods, so its
	// track stays flat while the benchmark already compounds.
	if result.Track[2].Value != 1.0 {
		t.Fatalf("strategy track[2] = %g, want 1.0", result.Track[2].Value)
	}
	if result.Benchmark[2].Value <= 1.0 {
		t.Fatalf("benchmark[2] = %g, want > 1.0", result.Benchmark[2].Value)
	}
}

func TestRunNoLookahead(t *testing.T) {
	prices := constantTable(t, 10, 0.01)
	stub := &stubForecaster{annualReturn: 0.10}

	eng, err := NewEngine(dailyConfig(), stub, quietLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	eng.optimizer = &fixedOptimizer{weights: portfolio.WeightVector{"AAA": 1.0}}

	result, err := eng.Run(context.Background(), prices)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// One forecast per non-skipped period, fitted on history ending exactly
	// at that period's rebalance date.
	var rebalanced []PeriodResult
	for _, p := range result.Periods {
		if !p.Skipped {
			rebalanced = append(rebalanced, p)
		}
	}
	if len(stub.cutoffs) != len(rebalanced) {
		t.Fatalf("%d forecasts for %d rebalanced periods", len(stub.cutoffs), len(rebalanced))
	}
	for i, p := range rebalanced {
		if !stub.cutoffs[i].Equal(p.Date) {
			t.Fatalf("forecast %d fitted through %s, rebalance date %s",
				i, stub.cutoffs[i].Format("2006-01-02"), p.Date.Format("2006-01-02"))
		}
	}
}

func TestRunSkipsFailedForecasts(t *testing.T) {
	prices := constantTable(t, 8, 0.01)

	eng, err := NewEngine(dailyConfig(), &failingForecaster{}, quietLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	result, err := eng.Run(context.Background(), prices)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for i, p := range result.Periods {
		if !p.Skipped {
			t.Fatalf("period %d not skipped", i)
		}
	}
	// No allocation was ever active, so the value never moves.
	for i, p := range result.Track {
		if p.Value != 1.0 {
			t.Fatalf("track[%d] = %g, want flat 1.0", i, p.Value)
		}
	}
}

func TestRunAbortsOnForecastFailure(t *testing.T) {
	prices := constantTable(t, 8, 0.01)
	cfg := dailyConfig()
	cfg.ForecastFailurePolicy = PolicyAbort

	eng, err := NewEngine(cfg, &failingForecaster{}, quietLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	if _, err := eng.Run(context.Background(), prices); err == nil {
		t.Fatal("expected run to fail under abort policy")
	}
}

func TestRunFailsOnDegenerateOptimization(t *testing.T) {
	// Constant identical returns make the covariance matrix singular. With
	// the real optimizer that must fail the whole run, not skip periods.
	// 0.5 is exactly representable, so the sample covariance is exactly zero.
	prices := constantTable(t, 8, 0.5)

	eng, err := NewEngine(dailyConfig(), &stubForecaster{annualReturn: 0.10}, quietLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	_, err = eng.Run(context.Background(), prices)
	if !errors.Is(err, portfolio.ErrOptimization) {
		t.Fatalf("expected ErrOptimization, got %v", err)
	}
}

func TestRunRejectsUnknownAssets(t *testing.T) {
	prices := constantTable(t, 8, 0.01)

	cfg := dailyConfig()
	cfg.ForecastTarget = "ZZZ"
	eng, err := NewEngine(cfg, &stubForecaster{}, quietLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if _, err := eng.Run(context.Background(), prices); err == nil {
		t.Fatal("expected error for unknown forecast target")
	}

	cfg = dailyConfig()
	cfg.BenchmarkWeights = portfolio.WeightVector{"ZZZ": 1.0}
	eng, err = NewEngine(cfg, &stubForecaster{}, quietLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if _, err := eng.Run(context.Background(), prices); err == nil {
		t.Fatal("expected error for unknown benchmark asset")
	}
}

func TestRunCancelledContext(t *testing.T) {
	prices := constantTable(t, 8, 0.01)
	eng, err := NewEngine(dailyConfig(), &stubForecaster{}, quietLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := eng.Run(ctx, prices); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewEngineValidation(t *testing.T) {
	if _, err := NewEngine(dailyConfig(), nil, quietLogger()); err == nil {
		t.Fatal("expected error for nil forecaster")
	}

	cfg := dailyConfig()
	cfg.RebalanceFrequency = "hourly"
	if _, err := NewEngine(cfg, &stubForecaster{}, quietLogger()); err == nil {
		t.Fatal("expected error for invalid frequency")
	}
}

func TestRunSyntheticEndToEnd(t *testing.T) {
	prices, err := marketdata.GenerateSynthetic(marketdata.SyntheticConfig{
		Tickers: []string{"TSLA", "SPY", "BND"},
		Start:   day(2022, time.January, 3),
		End:     day(2023, time.December, 29),
		Seed:    42,
	})
	if err != nil {
		t.Fatalf("GenerateSynthetic: %v", err)
	}

	cfg := BacktestConfig{
		RebalanceFrequency:    FrequencyMonthly,
		ForecastTarget:        "TSLA",
		ForecastHorizonDays:   21,
		BenchmarkWeights:      portfolio.WeightVector{"SPY": 0.5, "BND": 0.5},
		RiskFreeRate:          0.02,
		MinTrainObservations:  60,
		ForecastFailurePolicy: PolicySkipPeriod,
	}

	var periods int
	run := func() *RunResult {
		eng, err := NewEngine(cfg, forecast.NewDriftForecaster(0.95), quietLogger())
		if err != nil {
			t.Fatalf("NewEngine: %v", err)
		}
		eng.OnPeriod = func(PeriodResult) { periods++ }
		result, err := eng.Run(context.Background(), prices)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return result
	}

	result := run()

	returns, err := prices.Returns()
	if err != nil {
		t.Fatalf("Returns: %v", err)
	}
	if len(result.Track) != returns.Len()+1 {
		t.Fatalf("track has %d points for %d returns", len(result.Track), returns.Len())
	}
	if len(result.Benchmark) != len(result.Track) {
		t.Fatalf("benchmark has %d points, track %d", len(result.Benchmark), len(result.Track))
	}
	if periods != len(result.Periods) {
		t.Fatalf("OnPeriod fired %d times for %d periods", periods, len(result.Periods))
	}

	var rebalanced int
	for _, p := range result.Periods {
		if p.Skipped {
			continue
		}
		rebalanced++
		if err := p.Weights.Validate(); err != nil {
			t.Fatalf("period %d weights invalid: %v", p.Index, err)
		}
	}
	if rebalanced == 0 {
		t.Fatal("no period ever rebalanced")
	}

	if _, err := Analyze(result, cfg.RiskFreeRate); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	// The run is deterministic for a fixed seed.
	again := run()
	if again.Track.FinalValue() != result.Track.FinalValue() {
		t.Fatalf("runs diverge: %g vs %g", again.Track.FinalValue(), result.Track.FinalValue())
	}
}
