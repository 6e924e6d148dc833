package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderCorrelationID = "X-Correlation-ID"
	KeyCorrelationID    = "correlation_id"

	maxCorrelationIDLen = 128
)

// CorrelationMiddleware propagates the caller's correlation ID or assigns a
// new one. Oversized IDs are replaced.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(HeaderCorrelationID)
		if correlationID == "" || len(correlationID) > maxCorrelationIDLen {
			correlationID = uuid.New().String()
		}

		c.Set(KeyCorrelationID, correlationID)
		c.Header(HeaderCorrelationID, correlationID)

		c.Next()
	}
}
