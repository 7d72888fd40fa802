package forecast

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/gmf-engine/internal/marketdata"
)

// CachedForecaster wraps a Forecaster with result caching. Repeated rebalance
// schedules and evaluation runs frequently ask for the same asset and cutoff,
// so identical requests are served from memory.
type CachedForecaster struct {
	inner  Forecaster
	cache  *ResultCache
	logger *logrus.Logger
}

// NewCachedForecaster wraps the given forecaster with a result cache
func NewCachedForecaster(inner Forecaster, ttl time.Duration, maxSize int, logger *logrus.Logger) *CachedForecaster {
	return &CachedForecaster{
		inner:  inner,
		cache:  NewResultCache(ttl, maxSize),
		logger: logger,
	}
}

// Name identifies the underlying model variant
func (c *CachedForecaster) Name() string { return c.inner.Name() }

// Forecast serves from cache when the same request was seen before
func (c *CachedForecaster) Forecast(ctx context.Context, history *marketdata.Series, horizonDays int) (*Result, error) {
	if history == nil || len(history.Dates) == 0 {
		return c.inner.Forecast(ctx, history, horizonDays)
	}

	key := CacheKey{
		Asset:       history.Asset,
		LastDate:    history.Dates[len(history.Dates)-1],
		HorizonDays: horizonDays,
		Model:       c.inner.Name(),
	}

	if cached := c.cache.Get(key); cached != nil {
		c.logger.WithField("cache_key", key.String()).Debug("Cache hit for forecast")
		return cached, nil
	}

	c.logger.WithField("cache_key", key.String()).Debug("Cache miss, computing forecast")
	result, err := c.inner.Forecast(ctx, history, horizonDays)
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, result)
	return result, nil
}

// ClearCache clears all cached forecasts
func (c *CachedForecaster) ClearCache() {
	c.cache.Clear()
}

// CacheStats returns cache statistics
func (c *CachedForecaster) CacheStats() (hits, misses uint64, ratio float64) {
	return c.cache.Stats()
}
