package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/playrummy/backend/internal/api/handlers"
	"github.com/playrummy/backend/internal/config"
	"github.com/playrummy/backend/internal/middleware"
	"github.com/playrummy/backend/internal/session"
	"github.com/playrummy/backend/internal/ws"
)

// Deps are the components the HTTP surface reads from. Moves and Recent
// are optional and their routes are only mounted when set.
type Deps struct {
	Config  *config.Config
	Session *session.Session
	Hub     *ws.Hub
	Moves   handlers.MoveLister
	Recent  handlers.RecentReader
	Logger  *zap.Logger
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, deps Deps) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router.Use(middleware.CORSMiddleware(deps.Config, logger))

	if !deps.Config.IsProduction() {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Next()
		})
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(deps.Hub))
		v1.GET("/session", handlers.GetSession(deps.Session))
		v1.GET("/ws", middleware.WebSocketCORSCheck(deps.Config), deps.Hub.HandleWebSocket)

		sessions := v1.Group("/sessions")
		if deps.Moves != nil {
			sessions.GET("/:id/moves", handlers.GetSessionMoves(deps.Moves, logger))
		}
		if deps.Recent != nil {
			sessions.GET("/:id/events", handlers.GetRecentEvents(deps.Recent, logger))
		}
	}
}
