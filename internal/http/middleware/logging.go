// README: Access log middleware writing one zap line per request.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"ridebook/internal/logger"
)

func Logging(log logger.ILogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []logger.Field{
			logger.String("method", c.Request.Method),
			logger.String("path", c.FullPath()),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("latency", time.Since(start)),
			logger.String("request_id", RequestIDFrom(c)),
		}
		if p := Caller(c); p.ID != 0 {
			fields = append(fields, logger.Int64("caller_id", int64(p.ID)), logger.String("caller_role", string(p.Role)))
		}
		switch {
		case c.Writer.Status() >= 500:
			log.Error("request", fields...)
		case c.Writer.Status() >= 400:
			log.Warning("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}
