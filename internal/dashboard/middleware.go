package dashboard

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/YuminosukeSato/crimescope/pkg/log"
)

// requestLogger records one line per request.
func requestLogger(logger log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []any{
			log.HTTPMethodKey, c.Request.Method,
			log.HTTPPathKey, c.Request.URL.Path,
			log.HTTPStatusKey, c.Writer.Status(),
			log.DurationMsKey, time.Since(start).Milliseconds(),
		}
		switch {
		case c.Writer.Status() >= 500:
			logger.Error("request failed", append([]any{log.ErrAttrKey, c.Errors.String()}, fields...)...)
		case c.Writer.Status() >= 400:
			logger.Warn("request rejected", fields...)
		default:
			logger.Debug("request", fields...)
		}
	}
}
