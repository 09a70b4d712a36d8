package middleware

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"runtime/debug"

	apperrors "github.com/frostdev-ops/pma-goveelife/pkg/errors"
	"github.com/frostdev-ops/pma-goveelife/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const requestIDKey = "request_id"

// RequestIDMiddleware tags every request with an id, reusing X-Request-ID
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(requestIDKey, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// ErrorHandlingMiddleware recovers panics and answers with a 500
func ErrorHandlingMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"query":       c.Request.URL.RawQuery,
			"ip":          c.ClientIP(),
			"request_id":  getRequestID(c),
			"panic":       fmt.Sprintf("%+v", recovered),
			"stack_trace": string(debug.Stack()),
		}).Error("Panic recovered in API middleware")

		utils.SendErrorWithDetails(c, http.StatusInternalServerError, apperrors.ErrInternalServer.Message,
			gin.H{"request_id": getRequestID(c)})
		c.Abort()
	})
}

// ErrorResponseMiddleware converts errors attached with c.Error into responses
func ErrorResponseMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		status := apperrors.GetStatusCode(err)

		entry := logger.WithError(err).WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"request_id": getRequestID(c),
		})
		if status >= http.StatusInternalServerError {
			entry.Error("API request error")
		} else {
			entry.Debug("API request rejected")
		}

		if c.Writer.Written() {
			return
		}
		var details interface{}
		message := http.StatusText(status)
		if appErr := asAppError(err); appErr != nil {
			message = appErr.Message
			if appErr.Details != "" {
				details = appErr.Details
			}
		}
		utils.SendErrorWithDetails(c, status, message, details)
	}
}

func asAppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return nil
}

func getRequestID(c *gin.Context) string {
	if requestID := c.GetString(requestIDKey); requestID != "" {
		return requestID
	}
	return c.GetHeader("X-Request-ID")
}
