package marketdata

import (
	"math/rand"
	"strings"
	"time"
)

// assetProfile sets the random-walk characteristics for one asset class
type assetProfile struct {
	startPrice float64
	drift      float64
	volatility float64
}

// profileFor assigns characteristics by ticker so the generated data
// resembles a bond fund, a broad index, or a volatile growth stock.
func profileFor(ticker string) assetProfile {
	switch {
	case strings.Contains(ticker, "BND"):
		return assetProfile{startPrice: 75, drift: 0.00002, volatility: 0.005}
	case strings.Contains(ticker, "SPY"):
		return assetProfile{startPrice: 200, drift: 0.0004, volatility: 0.01}
	default:
		return assetProfile{startPrice: 50, drift: 0.0012, volatility: 0.03}
	}
}

// SyntheticConfig configures the offline data generator
type SyntheticConfig struct {
	Tickers []string
	Start   time.Time
	End     time.Time
	Seed    int64
}

// GenerateSynthetic produces a reproducible random-walk price table over
// business days. It stands in for the live feed during offline development
// and in tests.
func GenerateSynthetic(cfg SyntheticConfig) (*PriceTable, error) {
	dates := BusinessDays(cfg.Start, cfg.End)
	rng := rand.New(rand.NewSource(cfg.Seed))

	cols := make(map[string][]float64, len(cfg.Tickers))
	for _, ticker := range cfg.Tickers {
		profile := profileFor(ticker)
		prices := make([]float64, len(dates))
		value := profile.startPrice
		for i := range dates {
			value *= 1 + rng.NormFloat64()*profile.volatility + profile.drift
			prices[i] = value
		}
		cols[ticker] = prices
	}

	return NewPriceTable(cfg.Tickers, dates, cols)
}

// BusinessDays enumerates weekdays in [start, end]
func BusinessDays(start, end time.Time) []time.Time {
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		days = append(days, d)
	}
	return days
}
