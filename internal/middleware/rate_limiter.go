package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/JonyGudino21/pharma-back/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ── Redis fixed-window limiter ────────────────────────────────────────────────

// RateLimiter limits requests per client IP. With Redis the counter is
// shared across replicas (INCR + EXPIRE on a per-window key); without it
// each process keeps its own in-memory window.
func RateLimiter(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	if rdb == nil {
		return memoryRateLimiter(limit, window)
	}
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		now := time.Now()
		bucket := now.UnixNano() / int64(window)
		key := fmt.Sprintf("ratelimit:%s:%d", c.ClientIP(), bucket)

		pipe := rdb.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, window)
		if _, err := pipe.Exec(ctx); err != nil {
			// fail open: a Redis outage must not stop the counter
			log.Warn().Err(err).Msg("rate limiter: redis unavailable")
			c.Next()
			return
		}

		if incr.Val() > int64(limit) {
			reset := time.Unix(0, (bucket+1)*int64(window))
			c.Header("Retry-After", strconv.Itoa(int(time.Until(reset).Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Demasiadas solicitudes. Intente nuevamente en un momento."))
			return
		}
		c.Next()
	}
}

// ── In-memory fallback ────────────────────────────────────────────────────────

// rateEntry tracks request counts per IP within a window.
type rateEntry struct {
	count     int
	windowEnd time.Time
	mu        sync.Mutex
}

var (
	apiRateMap   = make(map[string]*rateEntry)
	apiRateMapMu sync.Mutex
	purgeOnce    sync.Once
)

func memoryRateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	purgeOnce.Do(func() { go purgeExpiredEntries() })
	return func(c *gin.Context) {
		ip := c.ClientIP()

		apiRateMapMu.Lock()
		entry, exists := apiRateMap[ip]
		if !exists {
			entry = &rateEntry{}
			apiRateMap[ip] = entry
		}
		apiRateMapMu.Unlock()

		entry.mu.Lock()
		defer entry.mu.Unlock()

		now := time.Now()
		if now.After(entry.windowEnd) {
			entry.count = 0
			entry.windowEnd = now.Add(window)
		}

		entry.count++
		if entry.count > limit {
			c.Header("Retry-After", strconv.Itoa(int(time.Until(entry.windowEnd).Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Demasiadas solicitudes. Intente nuevamente en un momento."))
			return
		}
		c.Next()
	}
}

// Periodically removes expired entries so IPs that never return do not
// accumulate.

const purgeInterval = 5 * time.Minute

func purgeExpiredEntries() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()

		apiRateMapMu.Lock()
		purged := 0
		for ip, entry := range apiRateMap {
			entry.mu.Lock()
			if now.After(entry.windowEnd) {
				delete(apiRateMap, ip)
				purged++
			}
			entry.mu.Unlock()
		}
		remaining := len(apiRateMap)
		apiRateMapMu.Unlock()

		if purged > 0 {
			log.Debug().
				Int("entries_purged", purged).
				Int("entries_remaining", remaining).
				Msg("rate limiter map purged")
		}
	}
}
