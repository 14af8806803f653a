package session

import (
	"time"

	"github.com/google/uuid"
)

// Event types emitted besides the client opcode names
const (
	EventJoin     = "JOIN"
	EventLeave    = "LEAVE"
	EventStart    = "START"
	EventTurn     = "TURN"
	EventFinished = "FINISHED"
)

// Event describes one applied message or lifecycle transition
type Event struct {
	SessionID uuid.UUID `json:"session_id"`
	Seq       int       `json:"seq"`
	PlayerID  int       `json:"player_id"`
	Type      string    `json:"type"`
	Payload   string    `json:"payload"`
	At        time.Time `json:"at"`
}

// Notifier receives session events. Notify is called with the session lock
// held and must not block.
type Notifier interface {
	Notify(Event)
}

type nopNotifier struct{}

func (nopNotifier) Notify(Event) {}
