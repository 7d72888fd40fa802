package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// DataSource is the ingestion collaborator contract: a provider of dated
// closing prices for one ticker over a range.
type DataSource interface {
	Name() string
	FetchDaily(ctx context.Context, ticker string, start, end time.Time) ([]RawPoint, error)
}

// SourceConfig selects and parameterizes a data source
type SourceConfig struct {
	Kind          string // "synthetic" or "yahoo"
	Tickers       []string
	Start         time.Time
	End           time.Time
	SyntheticSeed int64
	RateLimit     float64
}

// NewDataSource builds the configured data source
func NewDataSource(cfg SourceConfig, logger *logrus.Logger) (DataSource, error) {
	switch cfg.Kind {
	case "synthetic":
		return NewSyntheticSource(cfg.Tickers, cfg.Start, cfg.End, cfg.SyntheticSeed)
	case "yahoo":
		httpCfg := DefaultHTTPClientConfig()
		if cfg.RateLimit > 0 {
			httpCfg.RateLimit = cfg.RateLimit
		}
		return NewYahooSource(NewRateLimitedHTTPClient(httpCfg, logger), logger), nil
	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.Kind)
	}
}

// SyntheticSource serves generated random-walk data through the DataSource
// contract so the ingestion path is identical offline and live.
type SyntheticSource struct {
	table *PriceTable
}

// NewSyntheticSource generates the backing table once and serves slices of it
func NewSyntheticSource(tickers []string, start, end time.Time, seed int64) (*SyntheticSource, error) {
	table, err := GenerateSynthetic(SyntheticConfig{Tickers: tickers, Start: start, End: end, Seed: seed})
	if err != nil {
		return nil, fmt.Errorf("failed to generate synthetic data: %w", err)
	}
	return &SyntheticSource{table: table}, nil
}

// Name identifies the source
func (s *SyntheticSource) Name() string { return "synthetic" }

// FetchDaily returns generated observations for the requested range
func (s *SyntheticSource) FetchDaily(ctx context.Context, ticker string, start, end time.Time) ([]RawPoint, error) {
	_ = ctx
	series, err := s.table.Series(ticker)
	if err != nil {
		return nil, err
	}
	var points []RawPoint
	for i, d := range series.Dates {
		if d.Before(start) || d.After(end) {
			continue
		}
		points = append(points, RawPoint{
			Date:  d,
			Close: fmt.Sprintf("%.4f", series.Values[i]),
			Valid: true,
		})
	}
	return points, nil
}
