package middleware

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	// Global limits (per IP)
	GlobalAPIMax        int
	GlobalAPIExpiration time.Duration

	// Write limits (per user ID)
	MutationMax        int
	MutationExpiration time.Duration
}

// NewRateLimitConfig builds limits from per-minute maxima. Non-positive
// values fall back to the defaults; development relaxes the global limit.
func NewRateLimitConfig(globalPerMinute, mutationsPerMinute int, development bool) *RateLimitConfig {
	config := &RateLimitConfig{
		// Global: 200/min = ~3.3 req/sec - very generous for normal use
		GlobalAPIMax:        200,
		GlobalAPIExpiration: 1 * time.Minute,

		// Writes: 60/min = 1 req/sec average
		MutationMax:        60,
		MutationExpiration: 1 * time.Minute,
	}

	if globalPerMinute > 0 {
		config.GlobalAPIMax = globalPerMinute
	}
	if mutationsPerMinute > 0 {
		config.MutationMax = mutationsPerMinute
	}

	if development {
		config.GlobalAPIMax = 1000
		log.Println("⚠️  [RATE-LIMIT] Development mode: using relaxed rate limits")
	}

	return config
}

// GlobalAPIRateLimiter creates a rate limiter for all API requests
func GlobalAPIRateLimiter(config *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.GlobalAPIMax,
		Expiration: config.GlobalAPIExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "global:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("🚫 [RATE-LIMIT] Global limit reached for IP: %s", c.IP())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too many requests. Please slow down.",
				"retry_after": int(config.GlobalAPIExpiration.Seconds()),
			})
		},
	})
}

// MutationRateLimiter limits writes per authenticated user. Reads pass through.
func MutationRateLimiter(config *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.MutationMax,
		Expiration: config.MutationExpiration,
		Next: func(c *fiber.Ctx) bool {
			switch c.Method() {
			case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
				return true
			}
			return false
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			if userID, ok := c.Locals(LocalUserID).(string); ok && userID != "" {
				return "mutation:" + userID
			}
			return "mutation-ip:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			userID, _ := c.Locals(LocalUserID).(string)
			log.Printf("⚠️  [RATE-LIMIT] Mutation limit reached for user: %s on %s", userID, c.Path())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too many changes. Please wait before trying again.",
				"retry_after": int(config.MutationExpiration.Seconds()),
			})
		},
	})
}
