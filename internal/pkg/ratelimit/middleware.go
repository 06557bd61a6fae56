package ratelimit

import (
	"strconv"
	"time"

	"plant-doctor-be/internal/pkg/logger"
	"plant-doctor-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
)

type Config struct {
	Prefix string
	Max    int
	Window time.Duration
}

// Middleware allows Max requests per Window for each caller, identified by
// the authenticated user id or, for anonymous callers, the client IP. Store
// failures let the request through.
func Middleware(store Store, cfg Config, log logger.ILogger) fiber.Handler {
	if cfg.Prefix == "" {
		cfg.Prefix = "ratelimit"
	}

	return func(ctx *fiber.Ctx) error {
		key := cfg.Prefix + ":" + callerKey(ctx)
		c := ctx.UserContext()

		// Incrementing first keeps concurrent requests from all passing a
		// stale read.
		count, err := store.Increment(c, key)
		if err != nil {
			log.Warn("RATELIMIT", "Store unavailable, allowing request", map[string]interface{}{"key": key, "error": err.Error()})
			return ctx.Next()
		}
		if count == 1 {
			if err := store.Expire(c, key, cfg.Window); err != nil {
				// A counter without expiry would block the caller for good.
				log.Warn("RATELIMIT", "Failed to set window expiry, dropping counter", map[string]interface{}{"key": key, "error": err.Error()})
				if err := store.Delete(c, key); err != nil {
					log.Error("RATELIMIT", "Failed to drop counter without expiry", map[string]interface{}{"key": key, "error": err.Error()})
				}
			}
		}
		if count > cfg.Max {
			ctx.Set("Retry-After", strconv.Itoa(int(cfg.Window.Seconds())))
			return ctx.Status(fiber.StatusTooManyRequests).
				JSON(serverutils.ErrorResponse(fiber.StatusTooManyRequests, "Too many diagnosis requests, please try again later"))
		}

		ctx.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Max))
		ctx.Set("X-RateLimit-Remaining", strconv.Itoa(max(cfg.Max-count, 0)))
		return ctx.Next()
	}
}

func callerKey(ctx *fiber.Ctx) string {
	if id := serverutils.UserID(ctx); id != "" {
		return "user:" + id
	}
	return "ip:" + ctx.IP()
}
