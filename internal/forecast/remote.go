package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/gmf-engine/internal/config"
	"github.com/yourusername/gmf-engine/internal/marketdata"
)

// RemoteForecaster calls an external model service over HTTP. The service is
// expected to return a projected price path for the requested horizon.
type RemoteForecaster struct {
	client  *http.Client
	baseURL string
	apiKey  string
	logger  *logrus.Logger
}

// NewRemoteForecaster creates a forecaster backed by the model service
func NewRemoteForecaster(cfg *config.ForecastConfig, logger *logrus.Logger) *RemoteForecaster {
	return &RemoteForecaster{
		client: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		},
		baseURL: cfg.ServiceURL,
		apiKey:  cfg.ServiceAPIKey,
		logger:  logger,
	}
}

// Name identifies the model variant
func (f *RemoteForecaster) Name() string { return "remote" }

// forecastRequest represents the forecast request payload
type forecastRequest struct {
	Ticker      string    `json:"ticker"`
	Dates       []string  `json:"dates"`
	Closes      []float64 `json:"closes"`
	HorizonDays int       `json:"horizon_days"`
}

// forecastResponse represents the forecast response payload
type forecastResponse struct {
	Ticker string    `json:"ticker"`
	Path   []float64 `json:"path"`
	Lower  []float64 `json:"lower,omitempty"`
	Upper  []float64 `json:"upper,omitempty"`
}

// Forecast requests a projected path from the model service
func (f *RemoteForecaster) Forecast(ctx context.Context, history *marketdata.Series, horizonDays int) (*Result, error) {
	if history == nil || len(history.Values) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 observations", ErrInsufficientHistory)
	}

	start := time.Now()

	dates := make([]string, len(history.Dates))
	for i, d := range history.Dates {
		dates[i] = d.Format("2006-01-02")
	}
	reqBody := forecastRequest{
		Ticker:      history.Asset,
		Dates:       dates,
		Closes:      history.Values,
		HorizonDays: horizonDays,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", f.baseURL+"/api/v1/forecast", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if f.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.apiKey)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: forecast request failed with status %d: %s", ErrServiceUnavailable, resp.StatusCode, string(body))
	}

	var fr forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(fr.Path) != horizonDays {
		return nil, fmt.Errorf("%w: expected %d path points, got %d", ErrInvalidResponse, horizonDays, len(fr.Path))
	}
	for _, p := range fr.Path {
		if p <= 0 {
			return nil, fmt.Errorf("%w: non-positive price in path", ErrInvalidResponse)
		}
	}

	f.logger.WithFields(logrus.Fields{
		"ticker":   history.Asset,
		"horizon":  horizonDays,
		"duration": time.Since(start),
	}).Debug("Forecast received from model service")

	last := history.Values[len(history.Values)-1]
	pathDates := forecastDates(history.Dates[len(history.Dates)-1], horizonDays)

	result := &Result{
		AnnualReturn: annualReturnFromPath(last, fr.Path[horizonDays-1], horizonDays),
		Path:         &marketdata.Series{Asset: history.Asset, Dates: pathDates, Values: fr.Path},
	}
	if len(fr.Lower) == horizonDays && len(fr.Upper) == horizonDays {
		result.Band = &Band{
			Lower: &marketdata.Series{Asset: history.Asset, Dates: pathDates, Values: fr.Lower},
			Upper: &marketdata.Series{Asset: history.Asset, Dates: pathDates, Values: fr.Upper},
		}
	}

	return result, nil
}

// HealthCheck checks model service availability
func (f *RemoteForecaster) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", f.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrServiceUnavailable, resp.StatusCode)
	}

	return nil
}
