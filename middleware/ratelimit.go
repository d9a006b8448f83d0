package middleware

import (
	"bookshelf-service/utils"
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// maxTrackedKeys bounds the memory counter store. When exceeded, one
// arbitrary existing entry is evicted before inserting the new key. This is
// an anti-leak guard, not LRU; eviction order is unspecified.
const maxTrackedKeys = 10000

// CheckResult is the outcome of one rate-limit check
type CheckResult struct {
	Allowed           bool
	Remaining         int
	RetryAfterSeconds int
}

// CounterStore increments and returns the running count for one window key.
// The ttl is the window length; stores that support expiry use it to drop
// stale windows, the memory store relies on the size ceiling instead.
type CounterStore interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// MemoryCounterStore keeps per-window counters in a process-local map.
// Counters are independent per serving process, so the effective global
// limit is maxRequests multiplied by the instance count.
type MemoryCounterStore struct {
	mu     sync.Mutex
	counts map[string]int64
}

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{
		counts: make(map[string]int64),
	}
}

func (s *MemoryCounterStore) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.counts[key]; !exists && len(s.counts) >= maxTrackedKeys {
		// Evict one arbitrary entry to stay under the ceiling
		for k := range s.counts {
			delete(s.counts, k)
			break
		}
	}

	s.counts[key]++
	return s.counts[key], nil
}

// Len reports the number of tracked keys
func (s *MemoryCounterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counts)
}

// RedisCounterStore keeps per-window counters in Redis so that limits hold
// across serving instances. Keys expire one window after creation.
type RedisCounterStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisCounterStore(rdb *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{rdb: rdb, prefix: "ratelimit"}
}

func (s *RedisCounterStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	fullKey := s.prefix + ":" + key

	pipe := s.rdb.Pipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.Expire(ctx, fullKey, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// Limiter is the fixed-window rate limiter. It owns its counter store;
// no other component touches the counters directly.
type Limiter struct {
	store CounterStore
	now   func() time.Time
}

func NewLimiter(store CounterStore) *Limiter {
	return &Limiter{
		store: store,
		now:   time.Now,
	}
}

// Check increments the counter for (identifier, current window) and decides
// whether the request is allowed. The window index is floor(nowMillis /
// windowMillis), so a window's count can never be read across into a
// different window.
func (l *Limiter) Check(ctx context.Context, identifier string, maxRequests int, window time.Duration) CheckResult {
	windowIndex := l.now().UnixMilli() / window.Milliseconds()
	key := fmt.Sprintf("%s:%d", identifier, windowIndex)

	count, err := l.store.Incr(ctx, key, window)
	if err != nil {
		// Counter store trouble is infrastructure, not caller abuse; fail open
		log.Printf("Rate limit store error for %s: %v", identifier, err)
		return CheckResult{Allowed: true, Remaining: 0}
	}

	remaining := maxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}

	if count > int64(maxRequests) {
		retryAfter := int((window.Milliseconds() + 999) / 1000)
		return CheckResult{Allowed: false, Remaining: 0, RetryAfterSeconds: retryAfter}
	}

	return CheckResult{Allowed: true, Remaining: remaining}
}

// GetRealIP extracts the real client IP from request headers
func GetRealIP(c *gin.Context) string {
	// Priority: X-Forwarded-For (first IP) > X-Real-IP > ClientIP
	forwarded := c.GetHeader("X-Forwarded-For")
	if forwarded != "" {
		// X-Forwarded-For can contain multiple IPs, take the first one
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}

	realIP := c.GetHeader("X-Real-IP")
	if realIP != "" {
		return realIP
	}

	return c.ClientIP()
}

// RateLimitMiddleware applies the limiter per client IP.
// maxRequests: maximum requests allowed per fixed window
// window: fixed window duration
func RateLimitMiddleware(limiter *Limiter, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		identifier := GetRealIP(c)

		result := limiter.Check(c.Request.Context(), identifier, maxRequests, window)
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			c.Header("Retry-After", strconv.Itoa(result.RetryAfterSeconds))
			utils.TooManyRequestsResponse(c, result.RetryAfterSeconds)
			c.Abort()
			return
		}

		c.Next()
	}
}
