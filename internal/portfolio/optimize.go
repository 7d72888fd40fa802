package portfolio

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/gmf-engine/internal/marketdata"
)

// Performance summarizes the expected behavior of an allocation
type Performance struct {
	ExpectedAnnualReturn float64 `json:"expected_annual_return"`
	AnnualVolatility     float64 `json:"annual_volatility"`
	SharpeRatio          float64 `json:"sharpe_ratio"`
}

// Optimize computes the one-shot maximum-Sharpe allocation over the full
// price history, substituting the forecasted annual return for the target
// asset before solving.
func Optimize(prices *marketdata.PriceTable, forecastReturn float64, target string, riskFree float64, logger *logrus.Logger) (WeightVector, Performance, error) {
	if logger == nil {
		logger = logrus.New()
	}

	returns, err := prices.Returns()
	if err != nil {
		return nil, Performance{}, fmt.Errorf("failed to derive returns: %w", err)
	}
	window, err := returns.Window(0, returns.Len())
	if err != nil {
		return nil, Performance{}, err
	}

	order := prices.Assets()
	mu, err := AnnualizedMeanReturns(window, order)
	if err != nil {
		return nil, Performance{}, err
	}
	if _, ok := mu[target]; !ok {
		return nil, Performance{}, fmt.Errorf("forecast target %q not in price table", target)
	}
	mu[target] = forecastReturn

	cov, err := AnnualizedCovariance(window, order)
	if err != nil {
		return nil, Performance{}, err
	}

	weights, err := NewMaxSharpeOptimizer().MaxSharpe(mu, cov, order, riskFree)
	if err != nil {
		return nil, Performance{}, err
	}

	perf := evaluatePerformance(weights, mu, cov, order, riskFree)
	for _, asset := range order {
		logger.WithFields(logrus.Fields{"asset": asset, "weight": weights[asset]}).
			Info("Optimal portfolio weight")
	}
	logger.WithFields(logrus.Fields{
		"expected_annual_return": perf.ExpectedAnnualReturn,
		"annual_volatility":      perf.AnnualVolatility,
		"sharpe_ratio":           perf.SharpeRatio,
	}).Info("Optimal portfolio performance")

	return weights, perf, nil
}

func evaluatePerformance(w WeightVector, mu map[string]float64, cov interface{ At(i, j int) float64 }, order []string, riskFree float64) Performance {
	ret := 0.0
	for _, asset := range order {
		ret += w[asset] * mu[asset]
	}
	vol := 0.0
	for i, a := range order {
		for j, b := range order {
			vol += w[a] * w[b] * cov.At(i, j)
		}
	}
	vol = math.Sqrt(vol)

	sr := 0.0
	if vol > 0 {
		sr = (ret - riskFree) / vol
	}
	return Performance{ExpectedAnnualReturn: ret, AnnualVolatility: vol, SharpeRatio: sr}
}
