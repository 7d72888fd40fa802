// Package marketdata provides the immutable price-history tables the engine
// consumes, along with synthetic and remote data sources feeding them.
package marketdata

import (
	"errors"
	"fmt"
	"time"
)

// Data integrity errors
var (
	ErrEmptyTable       = errors.New("price table has no rows")
	ErrUnalignedColumn  = errors.New("price column length does not match dates")
	ErrUnorderedDates   = errors.New("dates must be strictly increasing")
	ErrNonPositivePrice = errors.New("prices must be positive")
	ErrUnknownAsset     = errors.New("asset not present in table")
)

// PriceTable is an immutable, date-indexed table of per-asset prices.
// Dates are strictly increasing and every column is aligned to them.
type PriceTable struct {
	dates  []time.Time
	assets []string
	cols   map[string][]float64
}

// Series is a single asset's dated price history.
type Series struct {
	Asset  string
	Dates  []time.Time
	Values []float64
}

// NewPriceTable validates and assembles a price table. The assets slice fixes
// the column order used by every downstream consumer.
func NewPriceTable(assets []string, dates []time.Time, cols map[string][]float64) (*PriceTable, error) {
	if len(dates) == 0 {
		return nil, ErrEmptyTable
	}
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return nil, fmt.Errorf("%w: %s then %s",
				ErrUnorderedDates, dates[i-1].Format("2006-01-02"), dates[i].Format("2006-01-02"))
		}
	}
	for _, asset := range assets {
		col, ok := cols[asset]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
		}
		if len(col) != len(dates) {
			return nil, fmt.Errorf("%w: %s has %d values for %d dates",
				ErrUnalignedColumn, asset, len(col), len(dates))
		}
		for i, v := range col {
			if v <= 0 {
				return nil, fmt.Errorf("%w: %s at %s", ErrNonPositivePrice, asset, dates[i].Format("2006-01-02"))
			}
		}
	}

	copied := make(map[string][]float64, len(assets))
	for _, asset := range assets {
		copied[asset] = append([]float64(nil), cols[asset]...)
	}
	return &PriceTable{
		dates:  append([]time.Time(nil), dates...),
		assets: append([]string(nil), assets...),
		cols:   copied,
	}, nil
}

// Len returns the number of rows
func (p *PriceTable) Len() int { return len(p.dates) }

// Dates returns the ordered row dates
func (p *PriceTable) Dates() []time.Time { return p.dates }

// Assets returns the ordered column names
func (p *PriceTable) Assets() []string { return p.assets }

// Column returns the price column for one asset
func (p *PriceTable) Column(asset string) ([]float64, error) {
	col, ok := p.cols[asset]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
	}
	return col, nil
}

// Series extracts one asset's dated history
func (p *PriceTable) Series(asset string) (*Series, error) {
	col, err := p.Column(asset)
	if err != nil {
		return nil, err
	}
	return &Series{Asset: asset, Dates: p.dates, Values: col}, nil
}

// Through returns the sub-table of rows dated at or before cutoff. The
// returned table shares backing storage; callers must not mutate it.
func (p *PriceTable) Through(cutoff time.Time) (*PriceTable, error) {
	n := 0
	for n < len(p.dates) && !p.dates[n].After(cutoff) {
		n++
	}
	if n == 0 {
		return nil, ErrEmptyTable
	}
	cols := make(map[string][]float64, len(p.assets))
	for _, asset := range p.assets {
		cols[asset] = p.cols[asset][:n]
	}
	return &PriceTable{dates: p.dates[:n], assets: p.assets, cols: cols}, nil
}

// SeriesThrough extracts one asset's history dated at or before cutoff
func (p *PriceTable) SeriesThrough(asset string, cutoff time.Time) (*Series, error) {
	sub, err := p.Through(cutoff)
	if err != nil {
		return nil, err
	}
	return sub.Series(asset)
}

// Returns derives the simple daily-return table. It is one row shorter than
// the price table: the first date carries no return.
func (p *PriceTable) Returns() (*ReturnTable, error) {
	if len(p.dates) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 rows to compute returns", ErrEmptyTable)
	}
	cols := make(map[string][]float64, len(p.assets))
	for _, asset := range p.assets {
		prices := p.cols[asset]
		rets := make([]float64, len(prices)-1)
		for i := 1; i < len(prices); i++ {
			rets[i-1] = prices[i]/prices[i-1] - 1
		}
		cols[asset] = rets
	}
	return &ReturnTable{dates: p.dates[1:], assets: p.assets, cols: cols}, nil
}

// ReturnTable is a date-indexed table of simple daily returns per asset.
type ReturnTable struct {
	dates  []time.Time
	assets []string
	cols   map[string][]float64
}

// Len returns the number of rows
func (r *ReturnTable) Len() int { return len(r.dates) }

// Dates returns the ordered row dates
func (r *ReturnTable) Dates() []time.Time { return r.dates }

// Assets returns the ordered column names
func (r *ReturnTable) Assets() []string { return r.assets }

// Column returns the return column for one asset
func (r *ReturnTable) Column(asset string) ([]float64, error) {
	col, ok := r.cols[asset]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
	}
	return col, nil
}

// Window returns per-asset return slices for rows [from, to). The slices
// share backing storage with the table.
func (r *ReturnTable) Window(from, to int) (map[string][]float64, error) {
	if from < 0 || to > len(r.dates) || from > to {
		return nil, fmt.Errorf("invalid window [%d, %d) over %d rows", from, to, len(r.dates))
	}
	out := make(map[string][]float64, len(r.assets))
	for _, asset := range r.assets {
		out[asset] = r.cols[asset][from:to]
	}
	return out, nil
}

// Row returns the per-asset returns at one row index
func (r *ReturnTable) Row(i int) (map[string]float64, error) {
	if i < 0 || i >= len(r.dates) {
		return nil, fmt.Errorf("row %d out of range", i)
	}
	out := make(map[string]float64, len(r.assets))
	for _, asset := range r.assets {
		out[asset] = r.cols[asset][i]
	}
	return out, nil
}
