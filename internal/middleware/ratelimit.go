package middleware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/daniyal2335/eprojectfitness/internal/models"
	"github.com/daniyal2335/eprojectfitness/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

// ErrNoStore is returned when an enabled limiter has no Redis client.
var ErrNoStore = errors.New("rate limit store unavailable")

// fixedWindow increments the counter and starts its window on first use,
// returning the new count and the milliseconds left in the window.
var fixedWindow = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {n, redis.call('PTTL', KEYS[1])}
`)

// Decision is the outcome of one limiter check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter enforces fixed-window quotas per caller, keyed in Redis.
type RateLimiter struct {
	rdb     *redis.Client
	enabled bool
	policy  FailPolicy
}

// NewRateLimiter creates a limiter. A disabled limiter allows everything,
// which is what local development and tests run with.
func NewRateLimiter(rdb *redis.Client, enabled bool, policy FailPolicy) *RateLimiter {
	return &RateLimiter{rdb: rdb, enabled: enabled, policy: policy}
}

// Check counts one request by id against resource.
func (l *RateLimiter) Check(ctx context.Context, resource, id string, limit int, window time.Duration) (Decision, error) {
	if !l.enabled {
		return Decision{Allowed: true, Remaining: limit}, nil
	}
	if l.rdb == nil {
		return Decision{}, ErrNoStore
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)
	vals, err := fixedWindow.Run(ctx, l.rdb, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, err
	}
	if len(vals) != 2 {
		return Decision{}, fmt.Errorf("unexpected rate limit reply %v", vals)
	}

	count, ttl := vals[0], time.Duration(vals[1])*time.Millisecond
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:    count <= int64(limit),
		Remaining:  remaining,
		RetryAfter: ttl,
	}, nil
}

// Limit returns a Fiber middleware enforcing limit requests per window on resource.
// It keys by authenticated userID (c.Locals("userID")), otherwise by remote IP.
func (l *RateLimiter) Limit(resource string, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id string
		if uid := c.Locals("userID"); uid != nil {
			id = fmt.Sprintf("user:%v", uid)
		} else {
			id = "ip:" + c.IP()
		}

		d, err := l.Check(c.UserContext(), resource, id, limit, window)
		if err != nil {
			observability.RateLimitDecisions.WithLabelValues(resource, "error").Inc()
			if l.policy == FailClosed {
				log.Printf("WARNING: Rate limit fail-closed for %s: %v", resource, err)
				return models.RespondWithError(c, fiber.StatusServiceUnavailable,
					models.NewInternalError(err))
			}
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			observability.RateLimitDecisions.WithLabelValues(resource, "rejected").Inc()
			secs := int((d.RetryAfter + time.Second - 1) / time.Second)
			if secs < 1 {
				secs = 1
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secs))
			return models.RespondWithAppError(c, models.NewRateLimitedError())
		}
		observability.RateLimitDecisions.WithLabelValues(resource, "allowed").Inc()
		return c.Next()
	}
}
