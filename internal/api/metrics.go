package api

import (
	"github.com/AgungSukaAFK/ga-web-sub000/internal/metrics"
	"github.com/gin-gonic/gin"
)

// MetricsHandler serves the Prometheus scrape endpoint.
func MetricsHandler(c *gin.Context) {
	metrics.Handler().ServeHTTP(c.Writer, c.Request)
}
