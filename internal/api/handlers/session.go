package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/playrummy/backend/internal/session"
	"github.com/playrummy/backend/internal/store"
)

// SnapshotSource is satisfied by *session.Session
type SnapshotSource interface {
	Snapshot() session.Snapshot
}

// MoveLister reads the persisted move log
type MoveLister interface {
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]store.Move, error)
}

// RecentReader reads the capped per-session event list
type RecentReader interface {
	Recent(ctx context.Context, sessionID string, limit int64) ([]session.Event, error)
}

// GetSession returns the public state of the running session
func GetSession(src SnapshotSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, src.Snapshot())
	}
}

// GetSessionMoves returns the logged moves of a session by id
func GetSessionMoves(moves MoveLister, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session id"})
			return
		}

		list, err := moves.ListBySession(c.Request.Context(), id)
		if err != nil {
			logger.Error("list moves failed", zap.String("session_id", id.String()), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load moves"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"session_id": id.String(),
			"count":      len(list),
			"moves":      list,
		})
	}
}

// GetRecentEvents returns the latest published events of a session.
// ?limit= caps the result.
func GetRecentEvents(recent RecentReader, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session id"})
			return
		}

		var limit int64
		if raw := c.Query("limit"); raw != "" {
			limit, err = strconv.ParseInt(raw, 10, 64)
			if err != nil || limit < 1 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
		}

		list, err := recent.Recent(c.Request.Context(), id.String(), limit)
		if err != nil {
			logger.Error("read recent events failed", zap.String("session_id", id.String()), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load events"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"session_id": id.String(),
			"events":     list,
		})
	}
}
