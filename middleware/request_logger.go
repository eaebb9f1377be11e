package middleware

import (
	"time"

	"papermerge/logger"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs one line per request after the handler chain ran,
// including the resolved actor when authentication succeeded. Responses
// with an error status are logged at warn level so they surface without
// debug logging enabled.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if rawQuery := c.Request.URL.RawQuery; rawQuery != "" {
			path = path + "?" + rawQuery
		}

		c.Next()

		username := "-"
		if actor, ok := ActorFrom(c); ok {
			username = actor.User.Username
		}

		status := c.Writer.Status()
		line := "%s %s | %d | %s | ip=%s user=%s"
		args := []interface{}{
			c.Request.Method, path, status, time.Since(start), c.ClientIP(), username,
		}
		if status >= 400 {
			logger.Warnf(line, args...)
			return
		}
		logger.Debugf(line, args...)
	}
}
