package marketdata

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// RawPoint is one observation as delivered by a data source. Close is the
// provider's raw string so precision survives transport; Valid is false for
// gaps (holidays, feed dropouts).
type RawPoint struct {
	Date  time.Time
	Close string
	Valid bool
}

// PricePoint is a cleaned observation ready for storage
type PricePoint struct {
	Date  time.Time
	Close float64
}

// Normalizer cleans raw provider observations into storable price points
type Normalizer struct {
	logger *logrus.Logger
}

// NewNormalizer creates a normalizer
func NewNormalizer(logger *logrus.Logger) *Normalizer {
	if logger == nil {
		logger = logrus.New()
	}
	return &Normalizer{logger: logger}
}

// Normalize parses, validates, and gap-fills a raw observation sequence.
// Prices are parsed through decimal to catch malformed provider values before
// they reach float math, and rounded to four places. Gaps are forward-filled,
// then leading gaps are back-filled from the first valid observation.
func (n *Normalizer) Normalize(ticker string, raw []RawPoint) ([]PricePoint, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("no observations for %s", ticker)
	}

	parsed := make([]float64, len(raw))
	valid := make([]bool, len(raw))
	for i, pt := range raw {
		if !pt.Valid {
			continue
		}
		d, err := decimal.NewFromString(pt.Close)
		if err != nil {
			n.logger.WithFields(logrus.Fields{
				"ticker": ticker,
				"date":   pt.Date.Format("2006-01-02"),
				"close":  pt.Close,
			}).Warn("Dropping unparseable price")
			continue
		}
		if !d.IsPositive() {
			return nil, fmt.Errorf("non-positive price %s for %s at %s",
				pt.Close, ticker, pt.Date.Format("2006-01-02"))
		}
		value, _ := d.Round(4).Float64()
		parsed[i] = value
		valid[i] = true
	}

	// Forward-fill interior gaps
	filled := 0
	last := 0.0
	haveLast := false
	for i := range parsed {
		if valid[i] {
			last = parsed[i]
			haveLast = true
			continue
		}
		if haveLast {
			parsed[i] = last
			valid[i] = true
			filled++
		}
	}

	// Back-fill leading gaps from the first valid value
	first := -1
	for i := range parsed {
		if valid[i] {
			first = i
			break
		}
	}
	if first == -1 {
		return nil, fmt.Errorf("no valid observations for %s", ticker)
	}
	for i := 0; i < first; i++ {
		parsed[i] = parsed[first]
		valid[i] = true
		filled++
	}

	if filled > 0 {
		n.logger.WithFields(logrus.Fields{"ticker": ticker, "filled": filled}).
			Debug("Filled gaps in price history")
	}

	points := make([]PricePoint, len(raw))
	for i, pt := range raw {
		points[i] = PricePoint{Date: pt.Date, Close: parsed[i]}
	}
	return points, nil
}
