package marketdata

import (
	"fmt"
	"sort"
	"time"
)

// TableFromPoints aligns per-asset price points into a PriceTable. Only dates
// present for every asset are kept so the table invariants hold.
func TableFromPoints(assets []string, points map[string][]PricePoint) (*PriceTable, error) {
	if len(assets) == 0 {
		return nil, ErrEmptyTable
	}

	byAsset := make(map[string]map[time.Time]float64, len(assets))
	for _, asset := range assets {
		pts, ok := points[asset]
		if !ok || len(pts) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
		}
		m := make(map[time.Time]float64, len(pts))
		for _, p := range pts {
			m[p.Date] = p.Close
		}
		byAsset[asset] = m
	}

	var dates []time.Time
	for d := range byAsset[assets[0]] {
		shared := true
		for _, asset := range assets[1:] {
			if _, ok := byAsset[asset][d]; !ok {
				shared = false
				break
			}
		}
		if shared {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	cols := make(map[string][]float64, len(assets))
	for _, asset := range assets {
		col := make([]float64, len(dates))
		for i, d := range dates {
			col[i] = byAsset[asset][d]
		}
		cols[asset] = col
	}

	return NewPriceTable(assets, dates, cols)
}
