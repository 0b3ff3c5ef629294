package observability

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// routeLabel is the registered route, or fallback when nothing matched.
func routeLabel(c *gin.Context, fallback string) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return fallback
}

// RequestLogger logs one line per request as "<component> request ...".
// Client errors log at warn, server errors at error, the rest at debug.
func RequestLogger(logger zerolog.Logger, component string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := zerolog.DebugLevel
		switch {
		case status >= 500:
			level = zerolog.ErrorLevel
		case status >= 400:
			level = zerolog.WarnLevel
		}
		logger.WithLevel(level).Msgf("%s request method=%s route=%q status=%d elapsed=%s remote=%q",
			component, c.Request.Method, routeLabel(c, c.Request.URL.Path), status,
			time.Since(start).Round(time.Microsecond), c.ClientIP())
	}
}

// RequestMetricsMiddleware counts requests by method, route and status class.
func RequestMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		RecordHTTPRequest(c.Request.Method, routeLabel(c, "unmatched"), c.Writer.Status())
	}
}
