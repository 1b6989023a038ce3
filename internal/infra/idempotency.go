package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/JonyGudino21/pharma-back/internal/apierror"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore remembers client-supplied request keys in Redis so a
// retried payment is not applied twice.
type IdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewIdempotencyStore(rdb *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

func idemKey(module, key string) string { return "idem:" + module + ":" + key }

// CheckAndInsert claims key atomically (SET NX). A key that was already
// claimed is a Conflict.
func (s *IdempotencyStore) CheckAndInsert(ctx context.Context, key, module string) error {
	ok, err := s.rdb.SetNX(ctx, idemKey(module, key), time.Now().UTC().Format(time.RFC3339), s.ttl).Result()
	if err != nil {
		return fmt.Errorf("idempotency: setnx: %w", err)
	}
	if !ok {
		return apierror.Conflict("La operación con llave %s ya fue procesada", key)
	}
	return nil
}

// Delete releases a key whose operation failed, so the client can retry.
func (s *IdempotencyStore) Delete(ctx context.Context, key, module string) error {
	return s.rdb.Del(ctx, idemKey(module, key)).Err()
}
