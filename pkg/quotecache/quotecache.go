package quotecache

import (
  "context"
  "encoding/json"
  "time"

  "github.com/go-redis/redis/v8"
  "github.com/stockdash/stockdash/pkg/logger"
  "github.com/stockdash/stockdash/pkg/metrics"
  "github.com/stockdash/stockdash/pkg/models"
  "go.uber.org/zap"
)

const keyPrefix = "quote:"

// Cache is a Redis-backed quote cache. A short TTL keeps dashboard polling
// from burning the provider's per-minute request budget. Cache failures are
// soft: a broken Redis degrades to a miss, never a request failure.
type Cache struct {
  rdb *redis.Client
  ttl time.Duration
}

// New constructs a Cache with sensible defaults from a Redis URL.
func New(redisURL string, ttl time.Duration) (*Cache, error) {
  opt, err := redis.ParseURL(redisURL)
  if err != nil {
    return nil, err
  }
  opt.PoolSize = 10
  opt.MinIdleConns = 2
  opt.MaxRetries = 3
  opt.DialTimeout = 5 * time.Second
  opt.ReadTimeout = 3 * time.Second
  opt.WriteTimeout = 3 * time.Second
  if ttl <= 0 {
    ttl = time.Minute
  }
  return &Cache{rdb: redis.NewClient(opt), ttl: ttl}, nil
}

// Get returns the cached quote for a symbol, or (nil, false) on a miss.
func (c *Cache) Get(ctx context.Context, symbol string) (*models.Quote, bool) {
  data, err := c.rdb.Get(ctx, keyPrefix+symbol).Result()
  if err == redis.Nil {
    metrics.QuoteCacheMisses.Inc()
    return nil, false
  }
  if err != nil {
    metrics.QuoteCacheErrors.WithLabelValues("get").Inc()
    logger.Log.Warn("quote cache get failed", zap.String("symbol", symbol), zap.Error(err))
    return nil, false
  }

  var q models.Quote
  if err := json.Unmarshal([]byte(data), &q); err != nil {
    metrics.QuoteCacheErrors.WithLabelValues("decode").Inc()
    logger.Log.Warn("quote cache entry corrupt", zap.String("symbol", symbol), zap.Error(err))
    return nil, false
  }

  metrics.QuoteCacheHits.Inc()
  return &q, true
}

// Set stores a quote under its symbol with the cache TTL.
func (c *Cache) Set(ctx context.Context, symbol string, q *models.Quote) {
  data, err := json.Marshal(q)
  if err != nil {
    metrics.QuoteCacheErrors.WithLabelValues("encode").Inc()
    return
  }
  if err := c.rdb.Set(ctx, keyPrefix+symbol, data, c.ttl).Err(); err != nil {
    metrics.QuoteCacheErrors.WithLabelValues("set").Inc()
    logger.Log.Warn("quote cache set failed", zap.String("symbol", symbol), zap.Error(err))
  }
}

// Ping checks connectivity for health endpoints.
func (c *Cache) Ping(ctx context.Context) error {
  return c.rdb.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *Cache) Close() error {
  return c.rdb.Close()
}
