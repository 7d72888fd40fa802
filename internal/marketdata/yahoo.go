package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrYahooNoResult indicates the chart API returned no usable series
var ErrYahooNoResult = errors.New("yahoo: no result")

// YahooSource fetches daily closes from the Yahoo Finance v8 chart API
type YahooSource struct {
	client *RateLimitedHTTPClient
	logger *logrus.Logger
}

// NewYahooSource creates a Yahoo chart-API data source
func NewYahooSource(client *RateLimitedHTTPClient, logger *logrus.Logger) *YahooSource {
	if logger == nil {
		logger = logrus.New()
	}
	return &YahooSource{client: client, logger: logger}
}

// Name identifies the source
func (y *YahooSource) Name() string { return "yahoo" }

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"chart"`
}

// FetchDaily pulls daily closing prices for one ticker over [start, end].
// Null closes (holidays, partial sessions) come back as invalid points for
// the normalizer to fill.
func (y *YahooSource) FetchDaily(ctx context.Context, ticker string, start, end time.Time) ([]RawPoint, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("ticker is required")
	}

	url := fmt.Sprintf(
		"https://query2.finance.yahoo.com/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d",
		ticker, start.Unix(), end.Unix(),
	)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "gmf-engine/1.0")

	resp, err := y.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("yahoo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo http %d", resp.StatusCode)
	}

	var raw yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode yahoo response: %w", err)
	}

	if len(raw.Chart.Result) == 0 || len(raw.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, ErrYahooNoResult
	}

	result := raw.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close
	if len(result.Timestamp) != len(closes) {
		return nil, fmt.Errorf("yahoo response misaligned: %d timestamps, %d closes",
			len(result.Timestamp), len(closes))
	}

	points := make([]RawPoint, 0, len(closes))
	for i, ts := range result.Timestamp {
		day := time.Unix(ts, 0).UTC().Truncate(24 * time.Hour)
		pt := RawPoint{Date: day}
		if closes[i] != nil {
			pt.Close = strconv.FormatFloat(*closes[i], 'f', -1, 64)
			pt.Valid = true
		}
		points = append(points, pt)
	}

	y.logger.WithFields(logrus.Fields{"ticker": ticker, "rows": len(points)}).
		Debug("Fetched daily closes from yahoo")
	return points, nil
}
