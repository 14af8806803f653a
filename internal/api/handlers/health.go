package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

const version = "1.0.0"

// ConnectionCounter reports live game connections
type ConnectionCounter interface {
	Count() int
}

// HealthCheck returns server health status
func HealthCheck(conns ConnectionCounter) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"status":  "ok",
			"service": "playrummy-api",
			"version": version,
			"uptime":  time.Since(startTime).String(),
		}
		if conns != nil {
			body["connections"] = conns.Count()
		}
		c.JSON(http.StatusOK, body)
	}
}
