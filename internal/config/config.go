// Package config provides configuration management for the GMF portfolio engine.
package config

import (
	"fmt"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Data      DataConfig      `mapstructure:"data" validate:"required"`
	Forecast  ForecastConfig  `mapstructure:"forecast" validate:"required"`
	Backtest  BacktestConfig  `mapstructure:"backtest" validate:"required"`
	Report    ReportConfig    `mapstructure:"report" validate:"required"`
	Dashboard DashboardConfig `mapstructure:"dashboard" validate:"required"`
	Metrics   MetricsConfig   `mapstructure:"metrics" validate:"required"`
	Ingestion IngestionConfig `mapstructure:"ingestion" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host           string `mapstructure:"host" validate:"required"`
	Port           int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name           string `mapstructure:"name" validate:"required"`
	User           string `mapstructure:"user" validate:"required"`
	Password       string `mapstructure:"password" validate:"required"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"required,gt=0"`
}

// DataConfig represents price-history acquisition configuration
type DataConfig struct {
	Tickers            []string `mapstructure:"tickers" validate:"required,min=2"`
	StartDate          string   `mapstructure:"start_date" validate:"required,tradingdate"`
	EndDate            string   `mapstructure:"end_date" validate:"required,tradingdate"`
	TrainTestSplitDate string   `mapstructure:"train_test_split_date" validate:"required,tradingdate"`
	Source             string   `mapstructure:"source" validate:"required,oneof=synthetic yahoo postgres"`
	SyntheticSeed      int64    `mapstructure:"synthetic_seed"`
	APIKey             string   `mapstructure:"api_key"`
	RateLimitPerSecond float64  `mapstructure:"rate_limit_per_second" validate:"gte=0"`
}

// ForecastConfig represents forecasting model configuration
type ForecastConfig struct {
	Model                 string  `mapstructure:"model" validate:"required,oneof=drift remote"`
	HorizonDays           int     `mapstructure:"horizon_days" validate:"required,gt=0"`
	ServiceURL            string  `mapstructure:"service_url" validate:"omitempty,url"`
	ServiceAPIKey         string  `mapstructure:"service_api_key"`
	RequestTimeoutSeconds int     `mapstructure:"request_timeout_seconds" validate:"omitempty,gt=0"`
	CacheTTLSeconds       int     `mapstructure:"cache_ttl_seconds" validate:"omitempty,gt=0"`
	CacheMaxSize          int     `mapstructure:"cache_max_size" validate:"omitempty,gt=0"`
	ConfidenceLevel       float64 `mapstructure:"confidence_level" validate:"omitempty,gt=0,lt=1"`
}

// BacktestConfig represents rolling-backtest configuration
type BacktestConfig struct {
	RebalanceFrequency    string             `mapstructure:"rebalance_frequency" validate:"required,frequency"`
	ForecastTarget        string             `mapstructure:"forecast_target" validate:"required"`
	BenchmarkWeights      map[string]float64 `mapstructure:"benchmark_weights" validate:"required,min=1"`
	RiskFreeRate          float64            `mapstructure:"risk_free_rate" validate:"gte=0,lte=1"`
	MinTrainObservations  int                `mapstructure:"min_train_observations" validate:"required,gt=0"`
	ForecastFailurePolicy string             `mapstructure:"forecast_failure_policy" validate:"required,oneof=skip abort"`
}

// ReportConfig represents report output configuration
type ReportConfig struct {
	OutputDir  string `mapstructure:"output_dir" validate:"required"`
	ChartsDir  string `mapstructure:"charts_dir" validate:"required"`
	ExportJSON bool   `mapstructure:"export_json"`
}

// DashboardConfig represents the progress dashboard server configuration
type DashboardConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port" validate:"required,min=1,max=65535"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// IngestionConfig represents scheduled price synchronization configuration
type IngestionConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	SyncSchedule string `mapstructure:"sync_schedule" validate:"required"`
	LookbackDays int    `mapstructure:"lookback_days" validate:"required,gt=0"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
