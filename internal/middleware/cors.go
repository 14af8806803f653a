package middleware

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/playrummy/backend/internal/config"
)

var devOrigins = []string{
	"http://localhost:5173", // Vite dev server
	"http://127.0.0.1:5173",
}

// AllowedOrigins lists the browser origins accepted for the environment
func AllowedOrigins(cfg *config.Config) []string {
	if cfg.Environment == "development" {
		return devOrigins
	}
	if cfg.FrontendURL != "" {
		return []string{cfg.FrontendURL}
	}
	return nil
}

// CORSMiddleware returns a CORS middleware configured for the environment
func CORSMiddleware(cfg *config.Config, logger *zap.Logger) gin.HandlerFunc {
	origins := AllowedOrigins(cfg)
	if logger != nil {
		logger.Info("CORS configured", zap.String("environment", cfg.Environment), zap.Strings("origins", origins))
	}

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Length", "Content-Type", "Accept", "Cache-Control", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour, // Cache preflight responses
	}

	if len(origins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}

	return cors.New(corsConfig)
}

// WebSocketCORSCheck validates WebSocket upgrade origins. Requests without
// an Origin header come from non-browser clients and pass.
func WebSocketCORSCheck(cfg *config.Config) gin.HandlerFunc {
	origins := AllowedOrigins(cfg)
	return func(c *gin.Context) {
		if strings.ToLower(c.GetHeader("Upgrade")) != "websocket" {
			c.Next()
			return
		}

		origin := c.GetHeader("Origin")
		if origin == "" || len(origins) == 0 {
			c.Next()
			return
		}

		allowed := slices.Contains(origins, origin)
		if !allowed && cfg.Environment == "development" {
			allowed = strings.HasPrefix(origin, "http://localhost:") ||
				strings.HasPrefix(origin, "http://127.0.0.1:")
		}

		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "WebSocket origin not allowed"})
			return
		}

		c.Next()
	}
}
