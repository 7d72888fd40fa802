package portfolio

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualization factor for daily observations
const TradingDaysPerYear = 252

// AnnualizedMeanReturns compounds each asset's daily returns in the window
// into an annualized growth rate: prod(1+r)^(252/n) - 1.
func AnnualizedMeanReturns(window map[string][]float64, order []string) (map[string]float64, error) {
	mu := make(map[string]float64, len(order))
	for _, asset := range order {
		rets, ok := window[asset]
		if !ok {
			return nil, fmt.Errorf("no returns for asset %s", asset)
		}
		if len(rets) == 0 {
			return nil, fmt.Errorf("empty return window for asset %s", asset)
		}
		total := 1.0
		for _, r := range rets {
			total *= 1 + r
		}
		if total <= 0 {
			return nil, fmt.Errorf("non-positive compounded growth for asset %s", asset)
		}
		mu[asset] = math.Pow(total, TradingDaysPerYear/float64(len(rets))) - 1
	}
	return mu, nil
}

// AnnualizedCovariance computes the annualized sample covariance matrix of
// the window's daily returns, ordered per the given asset order.
func AnnualizedCovariance(window map[string][]float64, order []string) (*mat.SymDense, error) {
	n := len(order)
	if n == 0 {
		return nil, fmt.Errorf("no assets")
	}
	samples := -1
	for _, asset := range order {
		rets, ok := window[asset]
		if !ok {
			return nil, fmt.Errorf("no returns for asset %s", asset)
		}
		if samples == -1 {
			samples = len(rets)
		} else if len(rets) != samples {
			return nil, fmt.Errorf("unaligned return windows: %s has %d rows, want %d", asset, len(rets), samples)
		}
	}
	if samples < 2 {
		return nil, fmt.Errorf("need at least 2 observations for covariance, got %d", samples)
	}

	data := make([]float64, samples*n)
	for j, asset := range order {
		for i, r := range window[asset] {
			data[i*n+j] = r
		}
	}

	var daily mat.SymDense
	stat.CovarianceMatrix(&daily, mat.NewDense(samples, n, data), nil)

	annual := mat.NewSymDense(n, nil)
	annual.ScaleSym(TradingDaysPerYear, &daily)
	return annual, nil
}
