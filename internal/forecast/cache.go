package forecast

import (
	"fmt"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/gmf-engine/internal/metrics"
)

// CacheKey uniquely identifies a forecast by its inputs. Two requests with
// the same asset, history endpoint, horizon and model are interchangeable.
type CacheKey struct {
	Asset       string
	LastDate    time.Time
	HorizonDays int
	Model       string
}

// String returns string representation of cache key
func (k CacheKey) String() string {
	return fmt.Sprintf("%s:%s:%d:%s", k.Asset, k.LastDate.Format("2006-01-02"), k.HorizonDays, k.Model)
}

// ResultCache provides in-memory caching for forecast results
type ResultCache struct {
	cache     *cache.Cache
	ttl       time.Duration
	maxSize   int
	mu        sync.RWMutex
	hitCount  uint64
	missCount uint64
}

// NewResultCache creates a new forecast result cache
func NewResultCache(ttl time.Duration, maxSize int) *ResultCache {
	return &ResultCache{
		cache:   cache.New(ttl, ttl*2),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Get retrieves a cached forecast result
func (rc *ResultCache) Get(key CacheKey) *Result {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if cached, found := rc.cache.Get(key.String()); found {
		rc.hitCount++
		rc.updateMetrics()
		if result, ok := cached.(*Result); ok {
			return result
		}
	}

	rc.missCount++
	rc.updateMetrics()
	return nil
}

// Set stores a forecast result in cache
func (rc *ResultCache) Set(key CacheKey, result *Result) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.cache.ItemCount() >= rc.maxSize {
		rc.cache.DeleteExpired()
	}

	rc.cache.Set(key.String(), result, rc.ttl)
}

// Clear flushes the entire cache
func (rc *ResultCache) Clear() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.cache.Flush()
	rc.hitCount = 0
	rc.missCount = 0
}

// Stats returns cache statistics
func (rc *ResultCache) Stats() (hits, misses uint64, ratio float64) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	hits = rc.hitCount
	misses = rc.missCount
	total := hits + misses
	if total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

// ItemCount returns the number of items in cache
func (rc *ResultCache) ItemCount() int {
	return rc.cache.ItemCount()
}

func (rc *ResultCache) updateMetrics() {
	total := rc.hitCount + rc.missCount
	if total > 0 {
		metrics.ForecastCacheHitRatio.Set(float64(rc.hitCount) / float64(total))
	}
}
