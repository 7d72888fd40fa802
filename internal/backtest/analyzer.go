package backtest

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/yourusername/gmf-engine/internal/portfolio"
)

// TrackSummary holds annualized performance statistics for one track
type TrackSummary struct {
	Name             string  `json:"name"`
	AnnualizedReturn float64 `json:"annualized_return"`
	AnnualizedVol    float64 `json:"annualized_volatility"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	FinalValue       float64 `json:"final_value"`
	TradingDays      int     `json:"trading_days"`
}

// PerformanceReport collects summaries for the strategy and, when present,
// its benchmark
type PerformanceReport struct {
	Strategy  TrackSummary  `json:"strategy"`
	Benchmark *TrackSummary `json:"benchmark,omitempty"`
}

// Analyze computes annualized statistics for a run. The Sharpe ratio is net
// of the risk-free rate. A track with fewer than two observations or zero
// volatility yields ErrInsufficientData with no partial report.
func Analyze(result *RunResult, riskFree float64) (*PerformanceReport, error) {
	if result == nil {
		return nil, fmt.Errorf("%w: nil result", ErrInsufficientData)
	}

	strategy, err := summarize("strategy", result.Track, riskFree)
	if err != nil {
		return nil, err
	}

	report := &PerformanceReport{Strategy: strategy}
	if result.Benchmark != nil {
		benchmark, err := summarize("benchmark", result.Benchmark, riskFree)
		if err != nil {
			return nil, err
		}
		report.Benchmark = &benchmark
	}
	return report, nil
}

func summarize(name string, track CumulativeTrack, riskFree float64) (TrackSummary, error) {
	returns := track.GetReturns()
	if len(returns) < 2 {
		return TrackSummary{}, fmt.Errorf("%w: %s track has %d return observations", ErrInsufficientData, name, len(returns))
	}

	n := float64(len(returns))
	final := track.FinalValue()
	cagr := math.Pow(final, float64(portfolio.TradingDaysPerYear)/n) - 1
	vol := stat.StdDev(returns, nil) * math.Sqrt(float64(portfolio.TradingDaysPerYear))
	if vol == 0 {
		return TrackSummary{}, fmt.Errorf("%w: %s track has zero volatility", ErrInsufficientData, name)
	}

	return TrackSummary{
		Name:             name,
		AnnualizedReturn: cagr,
		AnnualizedVol:    vol,
		SharpeRatio:      (cagr - riskFree) / vol,
		MaxDrawdown:      track.MaxDrawdown(),
		FinalValue:       final,
		TradingDays:      len(returns),
	}, nil
}
