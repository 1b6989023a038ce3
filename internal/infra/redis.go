package infra

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedis creates and validates a go-redis client connection. An empty
// URL is reported as an error so callers can fall back to running without
// Redis.
func NewRedis(redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, errRedisDisabled
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opts)

	// Validate connectivity at startup
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return rdb, nil
}

var errRedisDisabled = errors.New("redis: REDIS_URL is empty")
