package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/playrummy/backend/internal/session"
)

// Move is one row of game_moves
type Move struct {
	ID        int64     `db:"id" json:"id"`
	SessionID uuid.UUID `db:"session_id" json:"session_id"`
	Seq       int       `db:"seq" json:"seq"`
	PlayerID  int       `db:"player_id" json:"player_id"`
	MoveType  string    `db:"move_type" json:"move_type"`
	Payload   string    `db:"payload" json:"payload"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// MoveFromEvent maps a session event onto a row
func MoveFromEvent(e session.Event) Move {
	return Move{
		SessionID: e.SessionID,
		Seq:       e.Seq,
		PlayerID:  e.PlayerID,
		MoveType:  e.Type,
		Payload:   e.Payload,
		CreatedAt: e.At,
	}
}

// MoveLog is an append-only audit of accepted session events
type MoveLog struct {
	db *sqlx.DB
}

// NewMoveLog creates a MoveLog on db
func NewMoveLog(db *sqlx.DB) *MoveLog {
	return &MoveLog{db: db}
}

// Name identifies the sink in pipeline logs
func (l *MoveLog) Name() string { return "movelog" }

// Write records one event. Replayed events with a known (session_id, seq)
// are ignored.
func (l *MoveLog) Write(ctx context.Context, e session.Event) error {
	m := MoveFromEvent(e)
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	_, err := l.db.NamedExecContext(ctx, `
		INSERT INTO game_moves (session_id, seq, player_id, move_type, payload, created_at)
		VALUES (:session_id, :seq, :player_id, :move_type, :payload, :created_at)
		ON CONFLICT (session_id, seq) DO NOTHING`, m)
	if err != nil {
		return fmt.Errorf("insert move %s/%d: %w", m.SessionID, m.Seq, err)
	}
	return nil
}

// ListBySession returns a session's moves in sequence order
func (l *MoveLog) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]Move, error) {
	moves := []Move{}
	err := l.db.SelectContext(ctx, &moves, `
		SELECT id, session_id, seq, player_id, move_type, payload, created_at
		FROM game_moves
		WHERE session_id = $1
		ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list moves for %s: %w", sessionID, err)
	}
	return moves, nil
}
