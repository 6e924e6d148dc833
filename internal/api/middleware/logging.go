package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// ServiceName is attached to every request log line.
const ServiceName = "plant-health"

// StructuredLogging logs every request through the default slog logger.
func StructuredLogging() gin.HandlerFunc {
	return LoggingMiddleware(slog.Default(), ServiceName)
}

// LoggingMiddleware logs one line per request once the handler chain has
// finished.
func LoggingMiddleware(logger *slog.Logger, serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		statusCode := c.Writer.Status()
		var outcome string
		var level slog.Level

		switch {
		case statusCode >= 200 && statusCode < 300:
			outcome = "success"
			level = slog.LevelInfo
		case statusCode >= 400 && statusCode < 500:
			outcome = "client_error"
			level = slog.LevelWarn
		case statusCode >= 500:
			outcome = "server_error"
			level = slog.LevelError
		default:
			outcome = "unknown"
			level = slog.LevelInfo
		}

		attrs := []slog.Attr{
			slog.String("service", serviceName),
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.String("raw_path", c.Request.URL.Path),
			slog.Int("status_code", statusCode),
			slog.Int64("duration_ms", time.Since(startTime).Milliseconds()),
			slog.Int("response_bytes", c.Writer.Size()),
			slog.String("outcome", outcome),
		}

		// Auth runs inside the chain, so identity is read after c.Next.
		if correlationID, ok := c.Get(KeyCorrelationID); ok {
			attrs = append(attrs, slog.Any("correlation_id", correlationID))
		}
		if p, ok := Principal(c); ok {
			attrs = append(attrs,
				slog.Int64("user_id", p.ID),
				slog.String("role", p.Role),
			)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}

		logger.LogAttrs(c.Request.Context(), level, "request processed", attrs...)
	}
}
