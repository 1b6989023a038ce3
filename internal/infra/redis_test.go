package infra

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JonyGudino21/pharma-back/internal/apierror"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestNewRedisDisabled(t *testing.T) {
	rdb, err := NewRedis("")
	assert.Nil(t, rdb)
	assert.ErrorIs(t, err, errRedisDisabled)
}

func TestNewRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := NewRedis("redis://" + mr.Addr())
	require.NoError(t, err)
	defer rdb.Close()
	assert.NoError(t, rdb.Ping(context.Background()).Err())
}

func TestRedisLockerSerializes(t *testing.T) {
	_, rdb := newTestRedis(t)
	locker := NewRedisLocker(rdb, 5*time.Second)

	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Lock(context.Background(), "venta:1")
			if !assert.NoError(t, err) {
				return
			}
			n := inside.Add(1)
			if n > maxInside.Load() {
				maxInside.Store(n)
			}
			time.Sleep(20 * time.Millisecond)
			inside.Add(-1)
			release()
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, maxInside.Load())
}

func TestRedisLockerOcupado(t *testing.T) {
	_, rdb := newTestRedis(t)
	locker := NewRedisLocker(rdb, 5*time.Second)
	locker.retry = nil

	release, err := locker.Lock(context.Background(), "compra:9")
	require.NoError(t, err)
	defer release()

	_, err = locker.Lock(context.Background(), "compra:9")
	assert.True(t, apierror.Is(err, apierror.KindConflict), "got %v", err)

	other, err := locker.Lock(context.Background(), "compra:10")
	require.NoError(t, err)
	other()
}

func TestIdempotencyStore(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()
	store := NewIdempotencyStore(rdb, time.Hour)

	require.NoError(t, store.CheckAndInsert(ctx, "k1", "abonos"))
	err := store.CheckAndInsert(ctx, "k1", "abonos")
	assert.True(t, apierror.Is(err, apierror.KindConflict))

	// same key in another module is independent
	require.NoError(t, store.CheckAndInsert(ctx, "k1", "pagos"))

	require.NoError(t, store.Delete(ctx, "k1", "abonos"))
	require.NoError(t, store.CheckAndInsert(ctx, "k1", "abonos"))

	mr.FastForward(2 * time.Hour)
	assert.NoError(t, store.CheckAndInsert(ctx, "k1", "abonos"))
}
