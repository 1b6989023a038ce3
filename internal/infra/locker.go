package infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonyGudino21/pharma-back/internal/apierror"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisLocker is a per-document mutex shared by every replica. It sits on
// top of the row locks taken inside the transaction and keeps two replicas
// from interleaving multi-statement mutations of the same Venta, Compra or
// Cliente.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	retry  redislock.RetryStrategy
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{
		client: redislock.New(rdb),
		ttl:    ttl,
		// wait up to ~2s for a concurrent request on the same document
		retry: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 20),
	}
}

// Lock obtains "lock:<key>". The returned release must be called once.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lock, err := l.client.Obtain(ctx, "lock:"+key, l.ttl, &redislock.Options{RetryStrategy: l.retry})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, apierror.Conflict("Documento en uso, reintente")
	}
	if err != nil {
		return nil, fmt.Errorf("locker: obtain %s: %w", key, err)
	}
	return func() {
		// Release uses a fresh context: the request context may already be
		// cancelled, and the lock must not linger until TTL.
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := lock.Release(rctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			log.Warn().Err(err).Str("key", key).Msg("locker: release failed")
		}
	}, nil
}

// NoopLocker is used when Redis is not configured. Row locks still apply.
type NoopLocker struct{}

func (NoopLocker) Lock(context.Context, string) (func(), error) { return func() {}, nil }
