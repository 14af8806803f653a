package session

import (
	"errors"

	"github.com/playrummy/backend/internal/game"
	"github.com/playrummy/backend/internal/protocol"
)

// Errors
var (
	ErrSessionFull      = errors.New("session is full")
	ErrUnknownPlayer    = errors.New("unknown player")
	ErrUnknownGroup     = errors.New("unknown group id")
	ErrInsertOutOfRange = errors.New("insert index out of range")
	ErrNotInProgress    = errors.New("session is not in progress")
	ErrAlreadyStarted   = errors.New("session already started")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrInvalidConfig    = errors.New("invalid session config")
)

var fatalErrors = []error{
	ErrUnknownPlayer,
	ErrUnknownGroup,
	ErrInsertOutOfRange,
	protocol.ErrMalformedMessage,
	protocol.ErrUnsupportedProtocol,
	game.ErrEmptyDeck,
}

// IsFatal reports whether err should close the offending connection.
// Everything else rejects the single action and keeps the player connected.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range fatalErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
