package middleware

import (
	"time"

	"brickshelf/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestLogger tags each request with an ID (taken from the incoming
// header when present) and stores a child logger carrying it in the user
// context, where services pick it up with logger.FromContext.
func RequestLogger(base *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDHeader, requestID)
		c.Locals("request_id", requestID)

		log := base.With("request_id", requestID)
		c.SetUserContext(log.WithContext(c.UserContext()))

		start := time.Now()
		err := c.Next()

		log.Debug().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Dur("latency", time.Since(start)).
			Msg("request handled")
		return err
	}
}
