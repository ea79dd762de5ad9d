package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"taskctl/internal/shared/idgen"
)

// resolveLogID reuses a caller-supplied correlation header if present,
// otherwise mints one.
func resolveLogID(c *gin.Context) string {
	for _, h := range []string{"X-Log-Id", "X-Request-Id", "X-Correlation-Id"} {
		if v := c.GetHeader(h); v != "" {
			return v
		}
	}
	return idgen.NewLogID()
}

// loggingMiddleware logs method, path, client IP, status and duration per
// request, and threads the resolved log ID through the X-Log-Id response
// header and the gin context key "log_id".
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		logID := resolveLogID(c)
		c.Writer.Header().Set("X-Log-Id", logID)
		c.Set("log_id", logID)

		start := time.Now()
		c.Next()
		s.logger.Info("%s %s from %s (%d, %s)", c.Request.Method, c.Request.URL.Path, c.ClientIP(), c.Writer.Status(), time.Since(start))
	}
}
