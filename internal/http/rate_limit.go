package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/allisson/volt/internal/httputil"
	"github.com/allisson/volt/internal/metrics"
)

const (
	rateLimitCleanupInterval = 5 * time.Minute
	rateLimitIdleTTL         = time.Hour
	throttledCode            = "Throttled"
)

// clientLimiters holds one token bucket per client IP.
type clientLimiters struct {
	limiters sync.Map // client IP -> *clientLimiter
	rps      float64
	burst    int
}

type clientLimiter struct {
	limiter    *rate.Limiter
	mu         sync.Mutex
	lastAccess time.Time
}

// RateLimitMiddleware enforces a per client IP token bucket on the vault routes.
//
// Rejected requests get 429 with a Retry-After header and a vault error envelope.
// Idle limiters are dropped in the background until ctx is canceled.
func RateLimitMiddleware(ctx context.Context, rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	store := &clientLimiters{rps: rps, burst: burst}
	go store.cleanupStale(ctx, rateLimitCleanupInterval, rateLimitIdleTTL)

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		limiter := store.get(clientIP, time.Now())

		if limiter.Allow() {
			c.Next()
			return
		}

		reservation := limiter.Reserve()
		retryAfter := int(reservation.Delay().Seconds())
		reservation.Cancel()
		if retryAfter < 1 {
			retryAfter = 1
		}

		logger.Debug("rate limit exceeded",
			slog.String("client_ip", clientIP),
			slog.Int("retry_after", retryAfter),
			slog.String("request_id", c.Writer.Header().Get(httputil.RequestIDHeader)))

		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.Set(metrics.ErrorCodeKey, throttledCode)
		c.AbortWithStatusJSON(http.StatusTooManyRequests, httputil.ErrorResponse{
			Error: httputil.VaultError{
				Code:    throttledCode,
				Message: "Too many requests from this client. Please retry after the specified delay.",
			},
		})
	}
}

func (s *clientLimiters) get(ip string, now time.Time) *rate.Limiter {
	if val, ok := s.limiters.Load(ip); ok {
		entry := val.(*clientLimiter)
		entry.mu.Lock()
		entry.lastAccess = now
		entry.mu.Unlock()
		return entry.limiter
	}

	entry := &clientLimiter{
		limiter:    rate.NewLimiter(rate.Limit(s.rps), s.burst),
		lastAccess: now,
	}
	actual, _ := s.limiters.LoadOrStore(ip, entry)
	return actual.(*clientLimiter).limiter
}

// evictIdle removes limiters last used before threshold and returns how many were removed.
func (s *clientLimiters) evictIdle(threshold time.Time) int {
	removed := 0
	s.limiters.Range(func(key, value any) bool {
		entry := value.(*clientLimiter)
		entry.mu.Lock()
		idle := entry.lastAccess.Before(threshold)
		entry.mu.Unlock()

		if idle {
			s.limiters.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

func (s *clientLimiters) cleanupStale(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.evictIdle(time.Now().Add(-ttl))
		}
	}
}
