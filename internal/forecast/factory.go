package forecast

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/gmf-engine/internal/config"
)

// New builds a forecaster from configuration. The result is wrapped in a
// cache when a positive TTL is configured.
func New(cfg *config.ForecastConfig, logger *logrus.Logger) (Forecaster, error) {
	var inner Forecaster
	switch cfg.Model {
	case "drift":
		inner = NewDriftForecaster(cfg.ConfidenceLevel)
	case "remote":
		inner = NewRemoteForecaster(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown forecast model: %s", cfg.Model)
	}

	if cfg.CacheTTLSeconds > 0 {
		return NewCachedForecaster(inner, time.Duration(cfg.CacheTTLSeconds)*time.Second, cfg.CacheMaxSize, logger), nil
	}
	return inner, nil
}
