// Package ingest handles the price ingestion workflow: fetch, normalize,
// persist.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/gmf-engine/internal/marketdata"
	"github.com/yourusername/gmf-engine/internal/metrics"
	"github.com/yourusername/gmf-engine/internal/store"
)

// Metrics tracks counters for a single ingestion pass
type Metrics struct {
	TotalTickers      int
	SuccessfulFetches int
	RowsWritten       int
	ValidationErrors  int
	Errors            int
	Duration          time.Duration
}

// Reset zeroes all counters
func (m *Metrics) Reset() {
	*m = Metrics{}
}

// Service handles the price ingestion workflow
type Service struct {
	sources    []marketdata.DataSource
	priceRepo  store.PriceRepository
	normalizer *marketdata.Normalizer
	metrics    *Metrics
	logger     *logrus.Logger
}

// NewService creates a new ingestion service
func NewService(sources []marketdata.DataSource, priceRepo store.PriceRepository, normalizer *marketdata.Normalizer, logger *logrus.Logger) *Service {
	return &Service{
		sources:    sources,
		priceRepo:  priceRepo,
		normalizer: normalizer,
		metrics:    &Metrics{},
		logger:     logger,
	}
}

// IngestHistorical fetches, normalizes and persists daily closes for the
// tickers from the named source
func (s *Service) IngestHistorical(ctx context.Context, sourceName string, tickers []string, startDate, endDate time.Time) (*Metrics, error) {
	s.metrics.Reset()
	startTime := time.Now()

	s.logger.WithFields(logrus.Fields{
		"source":  sourceName,
		"tickers": len(tickers),
		"start":   startDate.Format("2006-01-02"),
		"end":     endDate.Format("2006-01-02"),
	}).Info("Starting historical price ingestion")

	var source marketdata.DataSource
	for _, src := range s.sources {
		if src.Name() == sourceName {
			source = src
			break
		}
	}
	if source == nil {
		return nil, fmt.Errorf("data source not found: %s", sourceName)
	}

	s.metrics.TotalTickers = len(tickers)
	for _, ticker := range tickers {
		if err := s.ingestTicker(ctx, source, ticker, startDate, endDate); err != nil {
			s.metrics.Errors++
			metrics.DataSourceErrorsTotal.WithLabelValues(sourceName).Inc()
			s.logger.WithField("ticker", ticker).WithError(err).Error("Failed to ingest ticker")
			// Continue with remaining tickers
		}
	}

	s.metrics.Duration = time.Since(startTime)
	s.logger.WithFields(logrus.Fields{
		"fetched":  s.metrics.SuccessfulFetches,
		"rows":     s.metrics.RowsWritten,
		"errors":   s.metrics.Errors,
		"duration": s.metrics.Duration,
	}).Info("Historical ingestion complete")

	return s.metrics, nil
}

// ingestTicker processes a single ticker: fetch, normalize, persist
func (s *Service) ingestTicker(ctx context.Context, source marketdata.DataSource, ticker string, startDate, endDate time.Time) error {
	raw, err := source.FetchDaily(ctx, ticker, startDate, endDate)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", ticker, err)
	}
	s.metrics.SuccessfulFetches++

	points, err := s.normalizer.Normalize(ticker, raw)
	if err != nil {
		s.metrics.ValidationErrors++
		return fmt.Errorf("failed to normalize %s: %w", ticker, err)
	}

	written, err := s.priceRepo.Upsert(ctx, ticker, points)
	s.metrics.RowsWritten += written
	if err != nil {
		return fmt.Errorf("failed to persist %s: %w", ticker, err)
	}
	metrics.PricesIngestedTotal.WithLabelValues(ticker).Add(float64(written))

	return nil
}

// GetMetrics returns current ingestion metrics
func (s *Service) GetMetrics() *Metrics {
	return s.metrics
}
