// Package main provides the entry point for the standalone backtest CLI tool.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/gmf-engine/internal/backtest"
	"github.com/yourusername/gmf-engine/internal/config"
	"github.com/yourusername/gmf-engine/internal/forecast"
	"github.com/yourusername/gmf-engine/internal/logger"
	"github.com/yourusername/gmf-engine/internal/marketdata"
	"github.com/yourusername/gmf-engine/internal/report"
)

func main() {
	var (
		configPath = flag.String("config", "config/config.yaml", "Path to config file")
		frequency  = flag.String("frequency", "", "Override rebalance frequency: daily, weekly, monthly, quarterly, annual")
		target     = flag.String("target", "", "Override forecast target ticker")
		startDate  = flag.String("start-date", "", "Override start date (YYYY-MM-DD)")
		endDate    = flag.String("end-date", "", "Override end date (YYYY-MM-DD)")
		output     = flag.String("output", "", "Override report output directory")
	)
	flag.Parse()

	ctx := context.Background()

	cfg := loadConfigWithSecrets(*configPath)
	appLog := logger.NewLogger(cfg.App.LogLevel)

	applyOverrides(cfg, *frequency, *target, *startDate, *endDate, *output, appLog)

	prices := loadPrices(ctx, cfg, appLog)
	forecaster, err := forecast.New(&cfg.Forecast, appLog)
	if err != nil {
		appLog.Fatalf("Failed to build forecaster: %v", err)
	}

	btCfg, err := backtest.FromConfig(&cfg.Backtest, cfg.Forecast.HorizonDays)
	if err != nil {
		appLog.Fatalf("Invalid backtest config: %v", err)
	}
	engine, err := backtest.NewEngine(btCfg, forecaster, appLog)
	if err != nil {
		appLog.Fatalf("Failed to create engine: %v", err)
	}

	run, err := engine.Run(ctx, prices)
	if err != nil {
		appLog.Fatalf("Backtest failed: %v", err)
	}

	perfReport, err := backtest.Analyze(run, btCfg.RiskFreeRate)
	if err != nil {
		appLog.Fatalf("Analysis failed: %v", err)
	}

	fmt.Print(report.GenerateConsoleReport(perfReport, run))
	if cfg.Report.ExportJSON {
		path := filepath.Join(cfg.Report.OutputDir, "backtest_report.json")
		if err := report.ExportJSON(perfReport, run, path); err != nil {
			appLog.Fatalf("Failed to export report: %v", err)
		}
		appLog.WithField("path", path).Info("Report exported")
	}
}

func loadConfigWithSecrets(path string) *config.Config {
	cfg, err := config.LoadWithDefaults(path)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			logrus.Fatalf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			logrus.Fatalf("Failed to load secrets: %v", err)
		}
	}
	if err := config.Validate(cfg); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

func applyOverrides(cfg *config.Config, frequency, target, startDate, endDate, output string, appLog *logrus.Logger) {
	if frequency != "" {
		cfg.Backtest.RebalanceFrequency = frequency
	}
	if target != "" {
		cfg.Backtest.ForecastTarget = target
	}
	if startDate != "" {
		if _, err := time.Parse("2006-01-02", startDate); err != nil {
			appLog.Fatalf("Invalid start date: %v", err)
		}
		cfg.Data.StartDate = startDate
	}
	if endDate != "" {
		if _, err := time.Parse("2006-01-02", endDate); err != nil {
			appLog.Fatalf("Invalid end date: %v", err)
		}
		cfg.Data.EndDate = endDate
	}
	if output != "" {
		cfg.Report.OutputDir = output
	}
}

func loadPrices(ctx context.Context, cfg *config.Config, appLog *logrus.Logger) *marketdata.PriceTable {
	start, err := time.Parse("2006-01-02", cfg.Data.StartDate)
	if err != nil {
		appLog.Fatalf("Invalid start date: %v", err)
	}
	end, err := time.Parse("2006-01-02", cfg.Data.EndDate)
	if err != nil {
		appLog.Fatalf("Invalid end date: %v", err)
	}

	kind := cfg.Data.Source
	if kind == "postgres" {
		appLog.Fatal("The standalone backtest tool reads from synthetic or yahoo sources; use the gmf CLI for postgres")
	}

	source, err := marketdata.NewDataSource(marketdata.SourceConfig{
		Kind:          kind,
		Tickers:       cfg.Data.Tickers,
		Start:         start,
		End:           end,
		SyntheticSeed: cfg.Data.SyntheticSeed,
		RateLimit:     cfg.Data.RateLimitPerSecond,
	}, appLog)
	if err != nil {
		appLog.Fatalf("Failed to build data source: %v", err)
	}

	normalizer := marketdata.NewNormalizer(appLog)
	points := make(map[string][]marketdata.PricePoint, len(cfg.Data.Tickers))
	for _, ticker := range cfg.Data.Tickers {
		raw, err := source.FetchDaily(ctx, ticker, start, end)
		if err != nil {
			appLog.Fatalf("Failed to fetch %s: %v", ticker, err)
		}
		normalized, err := normalizer.Normalize(ticker, raw)
		if err != nil {
			appLog.Fatalf("Failed to normalize %s: %v", ticker, err)
		}
		points[ticker] = normalized
	}

	prices, err := marketdata.TableFromPoints(cfg.Data.Tickers, points)
	if err != nil {
		appLog.Fatalf("Failed to build price table: %v", err)
	}
	return prices
}
