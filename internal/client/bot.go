package client

import (
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/playrummy/backend/internal/game"
	"github.com/playrummy/backend/internal/protocol"
)

// Bot plays automatically on top of a Controller: on each turn it lays
// down suggested groups, appends what fits, discards its most valuable
// card and ends the turn.
type Bot struct {
	ctrl   *Controller
	logger *zap.Logger
}

// NewBot wraps ctrl
func NewBot(ctrl *Controller, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{ctrl: ctrl, logger: logger.With(zap.String("component", "bot"))}
}

// Controller returns the wrapped controller
func (b *Bot) Controller() *Controller {
	return b.ctrl
}

// Serve forwards the message to the controller and takes a turn on TURN_START
func (b *Bot) Serve(op protocol.ServerOp, tokens []string) error {
	if err := b.ctrl.Serve(op, tokens); err != nil {
		return err
	}
	if op == protocol.TurnStart {
		return b.takeTurn()
	}
	return nil
}

func (b *Bot) takeTurn() error {
	if groups := b.ctrl.Suggest(); len(groups) > 0 {
		points, err := b.ctrl.Play(groups)
		switch {
		case err == nil:
			b.logger.Info("Played groups", zap.Int("groups", len(groups)), zap.Int("points", points))
		case !errors.Is(err, ErrIllegalPlay):
			return err
		}
	}

	if err := b.appendAll(); err != nil {
		return err
	}

	state := b.ctrl.State()
	if len(state.Hand) == 0 {
		return b.ctrl.DeclareVictory()
	}

	card := highest(state.Hand)
	if err := b.ctrl.Discard(card); err != nil {
		return err
	}
	if len(state.Hand) == 1 {
		// the discard emptied the hand and declared victory
		return nil
	}
	return b.ctrl.EndTurn()
}

// appendAll adds at most one hand card to each table group. The local table
// only changes once the server echoes an append. One card is always kept
// back for the discard.
func (b *Bot) appendAll() error {
	state := b.ctrl.State()
	if !state.DidInitial {
		return nil
	}

	ids := make([]int, 0, len(state.Table))
	for id := range state.Table {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	hand := state.Hand
	for _, id := range ids {
		group := state.Table[id]
		for i, card := range hand {
			if len(hand) <= 1 {
				return nil
			}
			idx, ok := fitsAt(group, card)
			if !ok {
				continue
			}
			if _, err := b.ctrl.Append(card, id, idx); err != nil {
				return err
			}
			hand = append(hand[:i:i], hand[i+1:]...)
			break
		}
	}
	return nil
}

func fitsAt(group []game.Card, card game.Card) (int, bool) {
	for _, idx := range []int{len(group), 0} {
		if game.AppendPoints(group, card, idx) > 0 {
			return idx, true
		}
	}
	return 0, false
}

func highest(hand []game.Card) game.Card {
	best := hand[0]
	for _, c := range hand[1:] {
		if game.PointValue(c.Rank, false) > game.PointValue(best.Rank, false) {
			best = c
		}
	}
	return best
}
