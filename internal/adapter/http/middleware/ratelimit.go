package middleware

import (
	"time"

	redisStore "shared-account-ledger/internal/adapter/storage/redis"
	"shared-account-ledger/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RateLimitRule is a fixed-window limit.
type RateLimitRule struct {
	Limit  int64
	Window time.Duration
}

// DefaultRateLimitRules returns per-route-group limits.
func DefaultRateLimitRules() map[string]RateLimitRule {
	return map[string]RateLimitRule{
		"mutations": {Limit: 60, Window: time.Minute},
		"queries":   {Limit: 300, Window: time.Minute},
	}
}

// RateLimiter enforces a fixed-window limit per caller identity (falling
// back to client IP for unauthenticated requests). Store errors fail open:
// a broken limiter must not take the ledger down with it.
func RateLimiter(store *redisStore.RateLimitStore, group string, rule RateLimitRule, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := group + ":"
		if identity, ok := CallerIdentity(c); ok {
			key += string(identity)
		} else {
			key += c.ClientIP()
		}

		result, err := store.Allow(c.Request.Context(), key, rule.Limit, rule.Window)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("rate limit store error, allowing request")
			c.Next()
			return
		}
		if !result.Allowed {
			abort(c, apperror.ErrRateLimitExceeded())
			return
		}
		c.Next()
	}
}
