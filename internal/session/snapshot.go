package session

import (
	"sort"

	"github.com/playrummy/backend/internal/game"
)

// TableGroup is one group on the table as seen in a snapshot
type TableGroup struct {
	ID    int         `json:"id"`
	Cards []game.Card `json:"cards"`
}

// Snapshot is a read-only copy of the public session state
type Snapshot struct {
	ID             string             `json:"id"`
	Status         game.SessionStatus `json:"status"`
	PlayerAmount   int                `json:"player_amount"`
	Joined         int                `json:"joined"`
	Ready          int                `json:"ready"`
	CurrentPlayer  int                `json:"current_player"`
	DeckSize       int                `json:"deck_size"`
	GraveyardSize  int                `json:"graveyard_size"`
	GraveyardTop   *game.Card         `json:"graveyard_top,omitempty"`
	Groups         []TableGroup       `json:"groups"`
	NextGroupID    int                `json:"next_group_id"`
	EnforceRules   bool               `json:"enforce_rules"`
	ConnectedCount int                `json:"connected"`
}

// Snapshot copies the current state. Hands are never included.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:            s.id.String(),
		Status:        s.status,
		PlayerAmount:  s.cfg.PlayerAmount,
		Joined:        s.joined,
		Ready:         len(s.ready),
		CurrentPlayer: s.current,
		DeckSize:      s.deck.Remaining(),
		GraveyardSize: s.graveyard.Len(),
		Groups:        make([]TableGroup, 0, len(s.groups)),
		NextGroupID:   s.nextGroupID,
		EnforceRules:  s.cfg.EnforceRules,
	}

	if top, ok := s.graveyard.Top(); ok {
		snap.GraveyardTop = &top
	}

	for id, cards := range s.groups {
		snap.Groups = append(snap.Groups, TableGroup{ID: id, Cards: append([]game.Card(nil), cards...)})
	}
	sort.Slice(snap.Groups, func(i, j int) bool { return snap.Groups[i].ID < snap.Groups[j].ID })

	for _, sender := range s.players {
		if sender != nil {
			snap.ConnectedCount++
		}
	}

	return snap
}
