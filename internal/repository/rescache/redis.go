// Package rescache is an optional decode-result cache keyed by OpenLR
// hex string, letting a worker skip re-running the full decision tree
// for an OpenLR code it has already analyzed (SPEC_FULL.md §4: "a
// cache miss always re-runs the full decision tree"). Grounded on the
// teacher's internal/repository/cache Redis client and
// cacheRepository Get/Set idiom, generalized from raw []byte payloads
// to a single (AnalysisResult, fraction) pair.
package rescache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tomtom-odat/odat-go/internal/config"
	"github.com/tomtom-odat/odat-go/internal/pkg/apperrors"
)

// Redis wraps a connection to the result cache.
type Redis struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedis connects to cfg.RedisAddr and pings it, in the teacher's
// NewRedis idiom.
func NewRedis(cfg config.CacheConfig, logger *zap.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, apperrors.ErrCacheError.WithDetails(map[string]interface{}{"cause": err.Error()})
	}

	logger.Info("result cache connected", zap.String("addr", cfg.RedisAddr))
	return &Redis{client: client, logger: logger}, nil
}

func (r *Redis) Close() error {
	r.logger.Info("closing result cache connection")
	return r.client.Close()
}

func (r *Redis) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func key(olr string) string {
	return fmt.Sprintf("odat:result:%s", olr)
}
