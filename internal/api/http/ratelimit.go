package http

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	apperrors "github.com/agricoop/magasin-service/pkg/util/errorutil"
)

// limiterRegistry hands out one token bucket per client IP.
type limiterRegistry struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newLimiterRegistry(perSecond float64, burst int) *limiterRegistry {
	if burst < 1 {
		burst = 1
	}
	return &limiterRegistry{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

func (r *limiterRegistry) get(key string) *rate.Limiter {
	r.mu.RLock()
	limiter, ok := r.limiters[key]
	r.mu.RUnlock()
	if ok {
		return limiter
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if limiter, ok := r.limiters[key]; ok {
		return limiter
	}
	limiter = rate.NewLimiter(r.limit, r.burst)
	r.limiters[key] = limiter
	return limiter
}

// RateLimit throttles requests per client IP. A non-positive rate disables it.
func RateLimit(perSecond float64, burst int) fiber.Handler {
	if perSecond <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	registry := newLimiterRegistry(perSecond, burst)

	return func(c *fiber.Ctx) error {
		if !registry.get(c.IP()).Allow() {
			return apperrors.NewTooManyRequests("rate limit exceeded")
		}
		return c.Next()
	}
}
