package observability

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PrometheusHandler exposes the exporter registry on a gin route.
// Without a registry the route answers 503 so scrapers see the outage.
func PrometheusHandler(handler http.Handler) gin.HandlerFunc {
	if handler == nil {
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": "metrics are not available",
			})
		}
	}
	return gin.WrapH(handler)
}
