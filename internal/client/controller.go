package client

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/playrummy/backend/internal/game"
	"github.com/playrummy/backend/internal/protocol"
)

// Errors
var (
	ErrIllegalPlay  = errors.New("illegal play")
	ErrNotInHand    = errors.New("card not in hand")
	ErrUnknownGroup = errors.New("unknown group id")
)

// Outbound sends a message to the server
type Outbound interface {
	Send(op protocol.ClientOp, tokens []string) error
}

// State is a copy of the local view
type State struct {
	PlayerID   int                 `json:"player_id"`
	Hand       []game.Card         `json:"hand"`
	Table      map[int][]game.Card `json:"table"`
	Graveyard  []game.Card         `json:"graveyard"`
	MyTurn     bool                `json:"my_turn"`
	Blocked    bool                `json:"blocked"`
	DidInitial bool                `json:"did_initial"`
	Finished   bool                `json:"finished"`
	Won        bool                `json:"won"`
	Points     int                 `json:"points"`
}

// Controller keeps one player's view of the game in sync with the server
// and gates outgoing plays with the rule engine.
type Controller struct {
	mu     sync.Mutex
	out    Outbound
	logger *zap.Logger
	state  State
}

// NewController creates a controller sending through out
func NewController(out Outbound, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		out:    out,
		logger: logger.With(zap.String("component", "client")),
		state:  State{Table: make(map[int][]game.Card)},
	}
}

// Serve applies one server message to the local view
func (c *Controller) Serve(op protocol.ServerOp, tokens []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logger.Debug("Received", zap.Stringer("op", op), zap.Strings("tokens", tokens))

	switch op {
	case protocol.Welcome:
		return c.onWelcome(tokens)
	case protocol.TurnStart:
		c.state.MyTurn = true
		c.state.Blocked = false
	case protocol.TurnEndNotice:
		c.state.MyTurn = false
	case protocol.Block:
		c.state.MyTurn = false
		c.state.Blocked = true
	case protocol.SendCards:
		cards, _, err := protocol.DecodeCards(tokens, 0)
		if err != nil {
			return err
		}
		c.state.Hand = append(c.state.Hand, cards...)
	case protocol.CardsPlayedUpdate:
		return c.onCardsPlayed(tokens)
	case protocol.GraveyardUpdate:
		card, err := protocol.DecodeCard(tokens)
		if err != nil {
			return err
		}
		c.state.Graveyard = append(c.state.Graveyard, card)
	case protocol.CardAppendUpdate:
		return c.onCardAppend(tokens)
	case protocol.Defeat:
		c.state.Finished = true
		c.state.Won = false
	case protocol.VictoryNotice:
		c.state.Finished = true
		c.state.Won = true
	case protocol.GraveyardEmpty:
		c.state.Graveyard = nil
	case protocol.GraveyardDecrease:
		if n := len(c.state.Graveyard); n > 0 {
			c.state.Graveyard = c.state.Graveyard[:n-1]
		}
	default:
		return fmt.Errorf("%w: server opcode %d", protocol.ErrUnsupportedProtocol, int(op))
	}
	return nil
}

func (c *Controller) onWelcome(tokens []string) error {
	if len(tokens) < 1 {
		return fmt.Errorf("%w: welcome without id", protocol.ErrMalformedMessage)
	}
	id, err := protocol.ParseInt(tokens[0])
	if err != nil {
		return err
	}
	c.state.PlayerID = id
	c.logger.Info("Welcomed", zap.Int("player_id", id))

	return c.out.Send(protocol.Ready, []string{strconv.Itoa(id)})
}

func (c *Controller) onCardsPlayed(tokens []string) error {
	groups, ids, err := protocol.DecodeCardsPlayed(tokens)
	if err != nil {
		return err
	}
	if len(ids) != len(groups) {
		return fmt.Errorf("%w: %d groups with %d ids", protocol.ErrMalformedMessage, len(groups), len(ids))
	}

	parsed := make([]int, len(ids))
	for i, raw := range ids {
		if parsed[i], err = protocol.ParseInt(raw); err != nil {
			return err
		}
	}
	for i, g := range groups {
		c.state.Table[parsed[i]] = g
	}
	return nil
}

func (c *Controller) onCardAppend(tokens []string) error {
	a, err := protocol.DecodeAppendCard(tokens)
	if err != nil {
		return err
	}
	group, ok := c.state.Table[a.GroupID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownGroup, a.GroupID)
	}
	if a.InsertIndex < 0 || a.InsertIndex > len(group) {
		return fmt.Errorf("%w: insert index %d", protocol.ErrMalformedMessage, a.InsertIndex)
	}

	updated := make([]game.Card, 0, len(group)+1)
	updated = append(updated, group[:a.InsertIndex]...)
	updated = append(updated, a.Card)
	updated = append(updated, group[a.InsertIndex:]...)
	c.state.Table[a.GroupID] = updated
	return nil
}

// Play lays groups on the table. The first play must reach the initial
// threshold and every group must be a set or a run. Returns the points scored.
func (c *Controller) Play(groups [][]game.Card) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.DidInitial && !game.IsValidInitialPlay(groups) {
		return 0, fmt.Errorf("%w: initial play below %d", ErrIllegalPlay, game.InitialPlayThreshold)
	}
	for i, g := range groups {
		if game.GroupPoints(g) == 0 {
			return 0, fmt.Errorf("%w: group %d is neither a set nor a run", ErrIllegalPlay, i)
		}
	}
	points := game.TotalPoints(groups)
	if points <= 0 {
		return 0, fmt.Errorf("%w: play scores nothing", ErrIllegalPlay)
	}

	var played []game.Card
	for _, g := range groups {
		played = append(played, g...)
	}
	hand, err := removeAll(c.state.Hand, played)
	if err != nil {
		return 0, err
	}

	if err := c.out.Send(protocol.CardsPlayed, protocol.EncodeCardsPlayed(groups, nil)); err != nil {
		return 0, err
	}

	c.state.DidInitial = true
	c.state.Hand = hand
	c.state.Points += points
	return points, nil
}

// Append inserts card into a table group. Requires the initial play.
func (c *Controller) Append(card game.Card, groupID, insertIndex int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	points := game.AppendPoints(c.state.Table[groupID], card, insertIndex)
	if points <= 0 || !c.state.DidInitial {
		return 0, fmt.Errorf("%w: %s into group %d at %d", ErrIllegalPlay, card, groupID, insertIndex)
	}

	hand, err := removeAll(c.state.Hand, []game.Card{card})
	if err != nil {
		return 0, err
	}

	if err := c.out.Send(protocol.CardAppend, protocol.EncodeAppendCard(card, groupID, insertIndex)); err != nil {
		return 0, err
	}

	c.state.Hand = hand
	c.state.Points += points
	return points, nil
}

// Discard throws a card on the graveyard. Emptying the hand declares victory.
func (c *Controller) Discard(card game.Card) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	hand, err := removeAll(c.state.Hand, []game.Card{card})
	if err != nil {
		return err
	}

	if err := c.out.Send(protocol.CardDiscard, protocol.EncodeCard(card)); err != nil {
		return err
	}
	c.state.Hand = hand

	if len(hand) == 0 {
		return c.out.Send(protocol.Victory, nil)
	}
	return nil
}

// DeclareVictory announces an empty hand
func (c *Controller) DeclareVictory() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.state.Hand) > 0 {
		return fmt.Errorf("%w: %d cards left", ErrIllegalPlay, len(c.state.Hand))
	}
	return c.out.Send(protocol.Victory, nil)
}

// Draw asks the server for amount cards
func (c *Controller) Draw(amount int) error {
	return c.out.Send(protocol.DrawCards, []string{strconv.Itoa(amount)})
}

// Ready signals the server this player can start
func (c *Controller) Ready() error {
	c.mu.Lock()
	id := c.state.PlayerID
	c.mu.Unlock()
	return c.out.Send(protocol.Ready, []string{strconv.Itoa(id)})
}

// EndTurn passes the turn on
func (c *Controller) EndTurn() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.out.Send(protocol.TurnEnd, nil); err != nil {
		return err
	}
	c.state.MyTurn = false
	return nil
}

// PickupGraveyard takes the top discard
func (c *Controller) PickupGraveyard() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.state.Graveyard) == 0 {
		return fmt.Errorf("%w: graveyard is empty", ErrIllegalPlay)
	}
	return c.out.Send(protocol.GraveyardPickup, nil)
}

// Suggest proposes disjoint groups from the hand: runs first, then sets
// from what is left.
func (c *Controller) Suggest() [][]game.Card {
	c.mu.Lock()
	hand := append([]game.Card(nil), c.state.Hand...)
	c.mu.Unlock()

	sort.Slice(hand, func(i, j int) bool {
		if hand[i].Suit != hand[j].Suit {
			return hand[i].Suit < hand[j].Suit
		}
		return hand[i].Rank < hand[j].Rank
	})
	runs, rest := takeSpans(hand)

	sort.Slice(rest, func(i, j int) bool {
		if rest[i].Rank != rest[j].Rank {
			return rest[i].Rank < rest[j].Rank
		}
		return rest[i].Suit < rest[j].Suit
	})
	sets, _ := takeSpans(rest)

	return append(runs, sets...)
}

// State returns a copy of the local view
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	s.Hand = append([]game.Card(nil), c.state.Hand...)
	s.Graveyard = append([]game.Card(nil), c.state.Graveyard...)
	s.Table = make(map[int][]game.Card, len(c.state.Table))
	for id, g := range c.state.Table {
		s.Table[id] = append([]game.Card(nil), g...)
	}
	return s
}

func takeSpans(cards []game.Card) (groups [][]game.Card, rest []game.Card) {
	used := make([]bool, len(cards))
	for _, span := range game.FindMaximalValidSpans(cards) {
		groups = append(groups, append([]game.Card(nil), cards[span.Start:span.End]...))
		for i := span.Start; i < span.End; i++ {
			used[i] = true
		}
	}
	for i, c := range cards {
		if !used[i] {
			rest = append(rest, c)
		}
	}
	return groups, rest
}

// removeAll returns hand without one copy of each card, or ErrNotInHand
func removeAll(hand, cards []game.Card) ([]game.Card, error) {
	out := append([]game.Card(nil), hand...)
	for _, card := range cards {
		idx := -1
		for i, h := range out {
			if h == card {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotInHand, card)
		}
		out = append(out[:idx], out[idx+1:]...)
	}
	return out, nil
}
