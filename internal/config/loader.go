// Package config provides configuration management for the GMF portfolio engine.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME}).
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewBuffer([]byte(expanded))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	v.SetEnvPrefix("GMF_ENGINE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	normalizeTickers(cfg)
	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional fields.
// Missing config files are tolerated; defaults and environment variables apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	v := viper.New()

	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v.SetConfigType("yaml")
	v.SetEnvPrefix("GMF_ENGINE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "gmf-engine")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("data.source", "synthetic")
	v.SetDefault("data.synthetic_seed", 42)
	v.SetDefault("forecast.model", "drift")
	v.SetDefault("forecast.horizon_days", 252)
	v.SetDefault("forecast.confidence_level", 0.95)
	v.SetDefault("backtest.rebalance_frequency", "quarterly")
	v.SetDefault("backtest.min_train_observations", 252)
	v.SetDefault("backtest.forecast_failure_policy", "skip")
	v.SetDefault("backtest.risk_free_rate", 0.02)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBuffer([]byte(expanded))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	normalizeTickers(cfg)
	return cfg, nil
}

// normalizeTickers uppercases ticker symbols wherever they appear. Viper
// lowercases map keys on unmarshal, which would otherwise desynchronize the
// benchmark weights from the ticker list.
func normalizeTickers(cfg *Config) {
	for i, t := range cfg.Data.Tickers {
		cfg.Data.Tickers[i] = strings.ToUpper(t)
	}
	cfg.Backtest.ForecastTarget = strings.ToUpper(cfg.Backtest.ForecastTarget)
	if len(cfg.Backtest.BenchmarkWeights) > 0 {
		weights := make(map[string]float64, len(cfg.Backtest.BenchmarkWeights))
		for asset, w := range cfg.Backtest.BenchmarkWeights {
			weights[strings.ToUpper(asset)] = w
		}
		cfg.Backtest.BenchmarkWeights = weights
	}
}
