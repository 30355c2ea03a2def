package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lokapasar-be/internal/metrics"
)

var stats metrics.RequestStats

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := metrics.StartTimer()
		c.Next()
		stats.Observe(c.Writer.Status(), timer.Duration())
	}
}

func statsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, stats.Snapshot())
}
