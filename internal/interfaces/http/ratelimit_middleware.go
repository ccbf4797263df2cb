package http

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"github.com/jhoicas/Contabilidad-api/internal/domain"
)

const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimiter token bucket por IP de cliente.
type RateLimiter struct {
	mu        sync.Mutex
	entries   map[string]*limiterEntry
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter perMinute peticiones sostenidas por minuto con ráfaga del mismo tamaño.
// perMinute <= 0 desactiva el límite.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &RateLimiter{
		entries: make(map[string]*limiterEntry),
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   perMinute,
		now:     time.Now,
	}
}

// Allow consume un token de key.
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if now.Sub(r.lastSweep) > limiterIdleTTL {
		for k, e := range r.entries {
			if now.Sub(e.lastSeen) > limiterIdleTTL {
				delete(r.entries, k)
			}
		}
		r.lastSweep = now
	}
	e, ok := r.entries[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(r.limit, r.burst)}
		r.entries[key] = e
	}
	e.lastSeen = now
	return e.lim.AllowN(now, 1)
}

// Middleware responde 429 RATE_LIMITED con Retry-After. Un limiter nil deja pasar todo.
func (r *RateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if r == nil || r.Allow(c.IP()) {
			return c.Next()
		}
		retry := int(1/float64(r.limit)) + 1
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retry))
		return domain.ErrRateLimited
	}
}
