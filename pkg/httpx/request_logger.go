package httpx

import (
	"time"

	"github.com/Gunvolt24/ordersync/internal/ports"
	"github.com/gin-gonic/gin"
)

// skipLogPaths — служебные маршруты, которые не попадают в журнал запросов.
var skipLogPaths = map[string]struct{}{
	"/metrics": {},
	"/ping":    {},
	"/readyz":  {},
}

// RequestLogger — middleware для логирования HTTP-запросов.
// request_id и trace/span добавляет сам логгер из контекста запроса.
func RequestLogger(log ports.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if _, skip := skipLogPaths[path]; skip {
			return
		}
		if path == "" {
			path = c.Request.URL.Path
		}

		ctx := c.Request.Context()
		status := c.Writer.Status()
		logf := log.Infof
		if status >= 500 {
			logf = log.Errorf
		}
		logf(ctx,
			"request method=%s path=%s status=%d ip=%s duration=%s size=%d",
			c.Request.Method,
			path,
			status,
			c.ClientIP(),
			time.Since(start),
			c.Writer.Size(),
		)
	}
}
