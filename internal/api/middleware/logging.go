package middleware

import (
	"time"

	"github.com/frostdev-ops/pma-goveelife/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// LoggingMiddleware logs requests through a batch logger so routine 2xx
// traffic is summarized while failures are logged individually
func LoggingMiddleware(batch *logger.BatchLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := logrus.Fields{
			"client_ip":  c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
			"request_id": getRequestID(c),
		}
		if len(c.Errors) > 0 {
			fields["error_message"] = c.Errors.String()
		}
		batch.LogRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start), fields)
	}
}
