package rescache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tomtom-odat/odat-go/internal/result"
)

// Entry is the cached payload for one OpenLR code.
type Entry struct {
	Result   result.AnalysisResult `json:"result"`
	Fraction float64               `json:"fraction"`
}

// Cache is the repository a worker consults before running the
// decision tree. A nil *Cache is a valid no-op cache (SPEC_FULL.md §8:
// caching is optional, disabled by leaving redis_addr empty).
type Cache struct {
	redis *Redis
	ttl   time.Duration
}

// New builds a Cache over an established Redis connection.
func New(redis *Redis, ttl time.Duration) *Cache {
	return &Cache{redis: redis, ttl: ttl}
}

// Get returns the cached Entry for olr, or ok=false on a cache miss. A
// nil Cache always misses.
func (c *Cache) Get(ctx context.Context, olr string) (entry Entry, ok bool) {
	if c == nil {
		return Entry{}, false
	}

	val, err := c.redis.client.Get(ctx, key(olr)).Bytes()
	if err == redis.Nil {
		return Entry{}, false
	}
	if err != nil {
		c.redis.logger.Warn("result cache get failed, treating as miss", zap.String("olr", olr), zap.Error(err))
		return Entry{}, false
	}

	if err := json.Unmarshal(val, &entry); err != nil {
		c.redis.logger.Warn("result cache entry corrupt, treating as miss", zap.String("olr", olr), zap.Error(err))
		return Entry{}, false
	}
	return entry, true
}

// Set stores entry for olr. A nil Cache is a no-op.
func (c *Cache) Set(ctx context.Context, olr string, entry Entry) {
	if c == nil {
		return
	}

	body, err := json.Marshal(entry)
	if err != nil {
		c.redis.logger.Warn("result cache marshal failed", zap.String("olr", olr), zap.Error(err))
		return
	}
	if err := c.redis.client.Set(ctx, key(olr), body, c.ttl).Err(); err != nil {
		c.redis.logger.Warn("result cache set failed", zap.String("olr", olr), zap.Error(err))
	}
}
