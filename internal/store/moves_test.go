package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playrummy/backend/internal/database"
	"github.com/playrummy/backend/internal/session"
)

func TestMoveFromEvent(t *testing.T) {
	id := uuid.New()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	m := MoveFromEvent(session.Event{SessionID: id, Seq: 7, PlayerID: 2, Type: "CARD_DISCARD", Payload: "2 3", At: at})

	assert.Equal(t, Move{SessionID: id, Seq: 7, PlayerID: 2, MoveType: "CARD_DISCARD", Payload: "2 3", CreatedAt: at}, m)
}

// TestMoveLogPostgres runs against a real database when TEST_DATABASE_URL
// points at one with the migrations applied.
func TestMoveLogPostgres(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, url)
	require.NoError(t, err)
	defer db.Close()

	log := NewMoveLog(db)
	id := uuid.New()
	for seq, typ := range []string{"JOIN", "JOIN", "START", "TURN"} {
		require.NoError(t, log.Write(ctx, session.Event{SessionID: id, Seq: seq + 1, PlayerID: 1, Type: typ}))
	}
	// duplicate seq is dropped
	require.NoError(t, log.Write(ctx, session.Event{SessionID: id, Seq: 3, Type: "TURN"}))

	moves, err := log.ListBySession(ctx, id)
	require.NoError(t, err)
	require.Len(t, moves, 4)
	assert.Equal(t, "START", moves[2].MoveType)
	assert.Equal(t, 4, moves[3].Seq)

	empty, err := log.ListBySession(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, empty)
}
