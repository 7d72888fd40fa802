// Package pipeline orchestrates the end-to-end workflow: data acquisition,
// forecaster evaluation, one-shot optimization, dynamic backtest, analysis
// and reporting.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/gmf-engine/internal/backtest"
	"github.com/yourusername/gmf-engine/internal/config"
	"github.com/yourusername/gmf-engine/internal/forecast"
	"github.com/yourusername/gmf-engine/internal/marketdata"
	"github.com/yourusername/gmf-engine/internal/metrics"
	"github.com/yourusername/gmf-engine/internal/portfolio"
	"github.com/yourusername/gmf-engine/internal/report"
	"github.com/yourusername/gmf-engine/internal/store"
)

// Result collects the artifacts of a full pipeline run
type Result struct {
	Prices         *marketdata.PriceTable
	Evaluation     *forecast.Evaluation
	ForecastReturn float64
	StaticWeights  portfolio.WeightVector
	StaticPerf     portfolio.Performance
	Run            *backtest.RunResult
	Report         *backtest.PerformanceReport
}

// Pipeline wires the engine components into a single run
type Pipeline struct {
	cfg        *config.Config
	forecaster forecast.Forecaster
	priceRepo  store.PriceRepository
	runRepo    store.RunRepository
	logger     *logrus.Logger

	// OnPeriod is forwarded to the engine when set.
	OnPeriod func(backtest.PeriodResult)
}

// New creates a pipeline. Repositories are optional; without them the run is
// not persisted and prices must come from a non-postgres source.
func New(cfg *config.Config, forecaster forecast.Forecaster, priceRepo store.PriceRepository, runRepo store.RunRepository, logger *logrus.Logger) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		forecaster: forecaster,
		priceRepo:  priceRepo,
		runRepo:    runRepo,
		logger:     logger,
	}
}

// Run executes the full workflow
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	p.logger.Info("Pipeline start: acquiring price history")

	prices, err := p.loadPrices(ctx)
	if err != nil {
		return nil, fmt.Errorf("data acquisition failed: %w", err)
	}
	result := &Result{Prices: prices}

	target := p.cfg.Backtest.ForecastTarget
	targetSeries, err := prices.Series(target)
	if err != nil {
		return nil, err
	}

	p.logger.WithFields(logrus.Fields{
		"assets": len(prices.Assets()),
		"days":   prices.Len(),
	}).Info("Price history ready")

	// Model accuracy on the chronological holdout.
	splitDate, err := time.Parse("2006-01-02", p.cfg.Data.TrainTestSplitDate)
	if err != nil {
		return nil, fmt.Errorf("invalid split date: %w", err)
	}
	eval, err := forecast.Evaluate(ctx, p.forecaster, targetSeries, splitDate)
	if err != nil {
		p.logger.WithError(err).Warn("Forecaster evaluation skipped")
	} else {
		result.Evaluation = eval
		p.logger.WithFields(logrus.Fields{
			"model": eval.Model,
			"mae":   eval.MAE,
			"rmse":  eval.RMSE,
			"mape":  eval.MAPE,
		}).Info("Forecaster evaluated on holdout")
	}

	// Forecast on the full history drives the one-shot optimization.
	fc, err := p.forecaster.Forecast(ctx, targetSeries, p.cfg.Forecast.HorizonDays)
	if err != nil {
		return nil, fmt.Errorf("forecast failed: %w", err)
	}
	result.ForecastReturn = fc.AnnualReturn

	weights, perf, err := portfolio.Optimize(prices, fc.AnnualReturn, target, p.cfg.Backtest.RiskFreeRate, p.logger)
	if err != nil {
		return nil, fmt.Errorf("static optimization failed: %w", err)
	}
	result.StaticWeights = weights
	result.StaticPerf = perf

	// Dynamic rolling backtest validates the strategy.
	btCfg, err := backtest.FromConfig(&p.cfg.Backtest, p.cfg.Forecast.HorizonDays)
	if err != nil {
		return nil, err
	}
	engine, err := backtest.NewEngine(btCfg, p.forecaster, p.logger)
	if err != nil {
		return nil, err
	}
	engine.OnPeriod = p.OnPeriod

	run, err := engine.Run(ctx, prices)
	if err != nil {
		return nil, fmt.Errorf("backtest failed: %w", err)
	}
	result.Run = run

	perfReport, err := backtest.Analyze(run, p.cfg.Backtest.RiskFreeRate)
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}
	result.Report = perfReport
	metrics.LastRunSharpeRatio.Set(perfReport.Strategy.SharpeRatio)

	if err := p.export(run, perfReport); err != nil {
		return nil, fmt.Errorf("report export failed: %w", err)
	}
	if err := p.persist(ctx, run, perfReport); err != nil {
		// Persistence failure is logged but does not invalidate the run.
		p.logger.WithError(err).Error("Failed to persist backtest run")
	}

	p.logger.Info("Pipeline finished successfully")
	return result, nil
}

// loadPrices acquires the aligned price table from the configured source
func (p *Pipeline) loadPrices(ctx context.Context) (*marketdata.PriceTable, error) {
	start, err := time.Parse("2006-01-02", p.cfg.Data.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date: %w", err)
	}
	end, err := time.Parse("2006-01-02", p.cfg.Data.EndDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end date: %w", err)
	}

	if p.cfg.Data.Source == "postgres" {
		if p.priceRepo == nil {
			return nil, fmt.Errorf("postgres source requires a price repository")
		}
		return p.priceRepo.GetRange(ctx, p.cfg.Data.Tickers, start, end)
	}

	source, err := marketdata.NewDataSource(marketdata.SourceConfig{
		Kind:          p.cfg.Data.Source,
		Tickers:       p.cfg.Data.Tickers,
		Start:         start,
		End:           end,
		SyntheticSeed: p.cfg.Data.SyntheticSeed,
		RateLimit:     p.cfg.Data.RateLimitPerSecond,
	}, p.logger)
	if err != nil {
		return nil, err
	}

	normalizer := marketdata.NewNormalizer(p.logger)
	points := make(map[string][]marketdata.PricePoint, len(p.cfg.Data.Tickers))
	for _, ticker := range p.cfg.Data.Tickers {
		raw, err := source.FetchDaily(ctx, ticker, start, end)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", ticker, err)
		}
		normalized, err := normalizer.Normalize(ticker, raw)
		if err != nil {
			return nil, fmt.Errorf("failed to normalize %s: %w", ticker, err)
		}
		points[ticker] = normalized
	}

	return marketdata.TableFromPoints(p.cfg.Data.Tickers, points)
}

// export writes console, JSON, CSV and chart artifacts per config
func (p *Pipeline) export(run *backtest.RunResult, perfReport *backtest.PerformanceReport) error {
	fmt.Print(report.GenerateConsoleReport(perfReport, run))

	outDir := p.cfg.Report.OutputDir
	if p.cfg.Report.ExportJSON {
		if err := report.ExportJSON(perfReport, run, filepath.Join(outDir, "backtest_report.json")); err != nil {
			return err
		}
	}
	if err := report.ExportTrackCSV(run.Track, filepath.Join(outDir, "cumulative_track.csv")); err != nil {
		return err
	}
	return report.RenderTrackChart(perfReport, run, filepath.Join(p.cfg.Report.ChartsDir, "backtest_performance.png"))
}

// persist stores the run when a run repository is configured
func (p *Pipeline) persist(ctx context.Context, run *backtest.RunResult, perfReport *backtest.PerformanceReport) error {
	if p.runRepo == nil {
		return nil
	}

	record := &store.RunRecord{
		ID:          run.ID,
		Frequency:   string(p.cfg.Backtest.RebalanceFrequency),
		Target:      p.cfg.Backtest.ForecastTarget,
		Model:       p.forecaster.Name(),
		FinalValue:  run.Track.FinalValue(),
		SharpeRatio: perfReport.Strategy.SharpeRatio,
		Report:      perfReport,
		Track:       run.Track,
		StartedAt:   run.StartedAt,
		Duration:    run.Duration,
	}
	return p.runRepo.Create(ctx, record)
}
