// Package main provides the primary CLI for the portfolio engine.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/gmf-engine/internal/config"
	"github.com/yourusername/gmf-engine/internal/dashboard"
	"github.com/yourusername/gmf-engine/internal/forecast"
	"github.com/yourusername/gmf-engine/internal/ingest"
	"github.com/yourusername/gmf-engine/internal/logger"
	"github.com/yourusername/gmf-engine/internal/marketdata"
	"github.com/yourusername/gmf-engine/internal/metrics"
	"github.com/yourusername/gmf-engine/internal/pipeline"
	"github.com/yourusername/gmf-engine/internal/scheduler"
	"github.com/yourusername/gmf-engine/internal/store"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile string
	appLog     *logrus.Logger
	cfg        *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}

var rootCmd = &cobra.Command{
	Use:   "gmf",
	Short: "Forecast-driven portfolio optimization engine",
	Long:  `Runs the end-to-end pipeline: price ingestion, forecasting, max-Sharpe optimization and rolling backtests.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadWithDefaults(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
			region := os.Getenv("AWS_REGION")
			secretName := os.Getenv("AWS_SECRET_NAME")
			if region == "" || secretName == "" {
				return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
			}
			if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
				return fmt.Errorf("failed to load secrets: %w", err)
			}
		}
		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		appLog = logger.NewLogger(cfg.App.LogLevel)
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the full pipeline once",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		appLog.WithFields(logrus.Fields{
			"version": Version,
			"commit":  GitCommit,
		}).Info("GMF engine starting")
		metrics.InitRegistry()

		forecaster, err := forecast.New(&cfg.Forecast, appLog)
		if err != nil {
			return err
		}

		priceRepo, runRepo, closeDB, err := connectStore(ctx)
		if err != nil {
			return err
		}
		defer closeDB()

		p := pipeline.New(cfg, forecaster, priceRepo, runRepo, appLog)
		if _, err := p.Run(ctx); err != nil {
			appLog.WithError(err).Error("Pipeline failed")
			return err
		}
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard server with scheduled price sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		metrics.InitRegistry()

		forecaster, err := forecast.New(&cfg.Forecast, appLog)
		if err != nil {
			return err
		}

		db, err := store.NewDB(ctx, &cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		priceRepo := store.NewPostgresPriceRepository(db)
		runRepo := store.NewPostgresRunRepository(db)

		server := dashboard.NewServer(dashboard.Config{
			ServiceName: cfg.App.Name,
			Port:        cfg.Dashboard.Port,
			Logger:      appLog,
			DB:          db,
		})
		if err := server.Start(ctx); err != nil {
			return err
		}

		var sched *scheduler.Scheduler
		if cfg.Ingestion.Enabled {
			sched, err = buildScheduler(db, appLog)
			if err != nil {
				return err
			}
			if err := sched.Start(); err != nil {
				return err
			}
			defer sched.Stop()
		}

		server.SetReady(true)
		appLog.WithField("port", cfg.Dashboard.Port).Info("Serving dashboard; starting pipeline run")

		// Runs stream per-period progress to connected clients.
		p := pipeline.New(cfg, forecaster, priceRepo, runRepo, appLog)
		p.OnPeriod = server.PublishPeriod
		result, err := p.Run(ctx)
		if err != nil {
			appLog.WithError(err).Error("Pipeline failed")
		} else {
			server.PublishReport(result.Report)
		}

		<-ctx.Done()
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// connectStore opens the database when the configured source or persistence
// needs it. A synthetic run without persistence works without a database.
func connectStore(ctx context.Context) (store.PriceRepository, store.RunRepository, func(), error) {
	if cfg.Data.Source != "postgres" && !backtestPersistEnabled() {
		return nil, nil, func() {}, nil
	}

	db, err := store.NewDB(ctx, &cfg.Database)
	if err != nil {
		if cfg.Data.Source == "postgres" {
			return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		appLog.WithError(err).Warn("Database unavailable; run will not be persisted")
		return nil, nil, func() {}, nil
	}
	return store.NewPostgresPriceRepository(db), store.NewPostgresRunRepository(db), db.Close, nil
}

func backtestPersistEnabled() bool {
	return cfg.Report.ExportJSON
}

func buildScheduler(db *store.DB, appLog *logrus.Logger) (*scheduler.Scheduler, error) {
	source, err := marketdata.NewDataSource(marketdata.SourceConfig{
		Kind:    "yahoo",
		Tickers: cfg.Data.Tickers,
	}, appLog)
	if err != nil {
		return nil, err
	}

	svc := ingest.NewService(
		[]marketdata.DataSource{source},
		store.NewPostgresPriceRepository(db),
		marketdata.NewNormalizer(appLog),
		appLog,
	)

	sched := scheduler.NewScheduler(svc, appLog)
	if err := sched.SchedulePriceSync(cfg.Ingestion.SyncSchedule, source.Name(), cfg.Data.Tickers, cfg.Ingestion.LookbackDays); err != nil {
		return nil, err
	}
	return sched, nil
}
