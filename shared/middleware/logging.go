package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// RequestID propagates the caller's X-Request-ID or assigns a new one, and
// echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestId", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// LoggingMiddleware writes one access log line per request.
func LoggingMiddleware() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(p gin.LogFormatterParams) string {
		requestID, _ := p.Keys["requestId"].(string)
		line := fmt.Sprintf("[%s] %s %d %s %s (%s) req=%s",
			p.TimeStamp.UTC().Format(time.RFC3339),
			p.ClientIP,
			p.StatusCode,
			p.Method,
			p.Path,
			p.Latency,
			requestID,
		)
		if p.ErrorMessage != "" {
			line += " err=" + p.ErrorMessage
		}
		return line + "\n"
	})
}
