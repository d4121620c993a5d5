package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const loggerKey = "logger"

// RequestLogger attaches a request-scoped logrus entry and logs each completed request.
func RequestLogger(base *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		entry := base.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
		})
		c.Header("X-Request-ID", requestID)
		c.Set(loggerKey, entry)

		c.Next()

		fields := logrus.Fields{
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}
		if actor, ok := ActorFrom(c); ok {
			fields["user_id"] = actor.UserID.String()
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}
		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.WithFields(fields).Error("request completed")
		case status >= 400:
			entry.WithFields(fields).Warn("request completed")
		default:
			entry.WithFields(fields).Info("request completed")
		}
	}
}

// LoggerFrom returns the request-scoped entry, or a bare entry on base when absent.
func LoggerFrom(c *gin.Context, base *logrus.Logger) *logrus.Entry {
	if v, ok := c.Get(loggerKey); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	return logrus.NewEntry(base)
}
