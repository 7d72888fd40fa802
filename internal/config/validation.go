// Package config provides configuration management for the GMF portfolio engine.
package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// benchmarkWeightTolerance bounds the acceptable deviation of the benchmark
// weight sum from 1.0.
const benchmarkWeightTolerance = 1e-6

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("frequency", validateFrequency)
	_ = v.RegisterValidation("tradingdate", validateTradingDate)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func validateFrequency(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "daily", "weekly", "monthly", "quarterly", "annual":
		return true
	default:
		return false
	}
}

func validateTradingDate(fl validator.FieldLevel) bool {
	_, err := time.Parse("2006-01-02", fl.Field().String())
	return err == nil
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	startDate, err := time.Parse("2006-01-02", cfg.Data.StartDate)
	if err != nil {
		return fmt.Errorf("invalid data start_date format: %w", err)
	}
	endDate, err := time.Parse("2006-01-02", cfg.Data.EndDate)
	if err != nil {
		return fmt.Errorf("invalid data end_date format: %w", err)
	}
	if !startDate.Before(endDate) {
		return fmt.Errorf("data start_date must be before end_date")
	}

	splitDate, err := time.Parse("2006-01-02", cfg.Data.TrainTestSplitDate)
	if err != nil {
		return fmt.Errorf("invalid train_test_split_date format: %w", err)
	}
	if !splitDate.After(startDate) || !splitDate.Before(endDate) {
		return fmt.Errorf("train_test_split_date must fall inside the data range")
	}

	tickers := make(map[string]bool, len(cfg.Data.Tickers))
	for _, t := range cfg.Data.Tickers {
		tickers[t] = true
	}
	if !tickers[cfg.Backtest.ForecastTarget] {
		return fmt.Errorf("forecast_target %q is not among the configured tickers", cfg.Backtest.ForecastTarget)
	}

	sum := 0.0
	for asset, w := range cfg.Backtest.BenchmarkWeights {
		if w < 0 {
			return fmt.Errorf("benchmark weight for %q must be non-negative", asset)
		}
		if !tickers[asset] {
			return fmt.Errorf("benchmark asset %q is not among the configured tickers", asset)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > benchmarkWeightTolerance {
		return fmt.Errorf("benchmark weights must sum to 1.0, got %.6f", sum)
	}

	if cfg.Forecast.Model == "remote" && cfg.Forecast.ServiceURL == "" {
		return fmt.Errorf("forecast.service_url is required when forecast.model is remote")
	}

	return nil
}

func formatValidationErrors(errs validator.ValidationErrors) error {
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		messages = append(messages, fmt.Sprintf("%s failed on %q", e.Namespace(), e.Tag()))
	}
	return fmt.Errorf("configuration validation failed: %s", strings.Join(messages, "; "))
}
