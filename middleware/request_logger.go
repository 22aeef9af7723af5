package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"hootqna/config"
)

// RequestLogger creates a middleware handler for structured request logging
// with Logrus. Every request gets a request id, and the acting user (X-User-ID
// header or user_id query) is attached when present so upload and analysis
// activity can be traced per user.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := uuid.NewString()

		// Handlers can pick the request id up from locals.
		c.Locals("requestid", requestID)

		err := c.Next()

		latency := time.Since(start)
		statusCode := c.Response().StatusCode()

		fields := map[string]interface{}{
			"request_id":  requestID,
			"http_method": c.Method(),
			"uri":         c.OriginalURL(),
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   c.IP(),
		}
		if user := c.Get("X-User-ID"); user != "" {
			fields["user"] = user
		} else if user := c.Query("user_id"); user != "" {
			fields["user"] = user
		}

		logEntry := config.Log.WithFields(fields)

		switch {
		case err != nil:
			// The global error handler deals with the response; log it here
			// with the request context attached.
			logEntry.WithField("error", err.Error()).Error("Request processing failed")
		case statusCode >= 500:
			logEntry.Error("Request completed with server error")
		case statusCode >= 400:
			logEntry.Warn("Request completed with client error")
		default:
			logEntry.Info("Request completed")
		}

		// Returned so fiber's error handler still sees it.
		return err
	}
}
