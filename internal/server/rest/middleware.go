package rest

import (
	"time"

	"github.com/dmitrijs2005/foodscheduler/internal/logging"
	"github.com/gin-gonic/gin"
)

// requestLogger logs one structured line per handled request.
func requestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}
