package game

// SessionStatus represents the current state of a session
type SessionStatus string

const (
	StatusAwaitingPlayers SessionStatus = "AWAITING_PLAYERS"
	StatusInProgress      SessionStatus = "IN_PROGRESS"
	StatusFinished        SessionStatus = "FINISHED"
)
