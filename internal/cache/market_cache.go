package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/stockai-go/internal/models"
	"github.com/irfndi/stockai-go/internal/services"
)

// CacheStats tracks cache performance counters.
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
	Errors int64 `json:"errors"`
}

// HitRate returns hits as a percentage of lookups.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// MarketDataCache stores fetched bars and headlines in Redis. Redis failures
// degrade to a pass-through; they never fail an analysis.
type MarketDataCache struct {
	redis    *redis.Client
	priceTTL time.Duration
	newsTTL  time.Duration
	logger   *logrus.Logger

	mu    sync.RWMutex
	stats CacheStats
}

// NewMarketDataCache creates a Redis-backed market data cache.
func NewMarketDataCache(redisClient *redis.Client, priceTTL, newsTTL time.Duration, logger *logrus.Logger) *MarketDataCache {
	return &MarketDataCache{
		redis:    redisClient,
		priceTTL: priceTTL,
		newsTTL:  newsTTL,
		logger:   logger,
	}
}

func priceKey(symbol, period string) string {
	return fmt.Sprintf("prices:%s:%s", symbol, period)
}

func newsKey(symbol string, limit int) string {
	return "news:" + symbol + ":" + strconv.Itoa(limit)
}

// Stats returns a snapshot of the counters.
func (c *MarketDataCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

func (c *MarketDataCache) record(update func(*CacheStats)) {
	c.mu.Lock()
	update(&c.stats)
	c.mu.Unlock()
}

func (c *MarketDataCache) get(ctx context.Context, key string, dest any) bool {
	data, err := c.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.record(func(s *CacheStats) { s.Misses++ })
		return false
	}
	if err != nil {
		c.logger.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Redis error reading cache")
		c.record(func(s *CacheStats) { s.Misses++; s.Errors++ })
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Discarding corrupt cache entry")
		c.record(func(s *CacheStats) { s.Misses++; s.Errors++ })
		return false
	}
	c.record(func(s *CacheStats) { s.Hits++ })
	return true
}

func (c *MarketDataCache) set(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		c.record(func(s *CacheStats) { s.Errors++ })
		return
	}
	if err := c.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Redis error writing cache")
		c.record(func(s *CacheStats) { s.Errors++ })
		return
	}
	c.record(func(s *CacheStats) { s.Sets++ })
}

// Invalidate drops every cached entry for symbol.
func (c *MarketDataCache) Invalidate(ctx context.Context, symbol string) error {
	var keys []string
	for _, pattern := range []string{"prices:" + symbol + ":*", "news:" + symbol + ":*"} {
		iter := c.redis.Scan(ctx, 0, pattern, 100).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("failed to scan cache keys for %s: %w", symbol, err)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	return c.redis.Del(ctx, keys...).Err()
}

// Prices wraps next so repeated fetches within the price TTL hit Redis.
func (c *MarketDataCache) Prices(next services.PriceSource) services.PriceSource {
	return services.PriceSourceFunc(func(ctx context.Context, symbol, period string) ([]models.PriceBar, error) {
		key := priceKey(symbol, period)
		var bars []models.PriceBar
		if c.get(ctx, key, &bars) && len(bars) > 0 {
			return bars, nil
		}

		bars, err := next.FetchPrices(ctx, symbol, period)
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, bars, c.priceTTL)
		return bars, nil
	})
}

// News wraps next so repeated fetches within the news TTL hit Redis. Empty
// results are not cached.
func (c *MarketDataCache) News(next services.NewsSource) services.NewsSource {
	return services.NewsSourceFunc(func(ctx context.Context, symbol string, limit int) ([]models.NewsArticle, error) {
		key := newsKey(symbol, limit)
		var articles []models.NewsArticle
		if c.get(ctx, key, &articles) {
			return articles, nil
		}

		articles, err := next.FetchNews(ctx, symbol, limit)
		if err != nil {
			return nil, err
		}
		if len(articles) > 0 {
			c.set(ctx, key, articles, c.newsTTL)
		}
		return articles, nil
	})
}
