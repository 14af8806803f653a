package session

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/playrummy/backend/internal/game"
	"github.com/playrummy/backend/internal/protocol"
)

// Sender delivers one server message to a connected player. Implementations
// enqueue and return without blocking on the network.
type Sender interface {
	Send(op protocol.ServerOp, tokens []string) error
}

// Config holds the per-session game settings
type Config struct {
	PlayerAmount int
	HandSize     int
	EnforceRules bool
}

// Validate checks that the deck can deal every hand plus the first turn's card
func (c Config) Validate() error {
	if c.PlayerAmount < 2 {
		return fmt.Errorf("%w: need at least 2 players, got %d", ErrInvalidConfig, c.PlayerAmount)
	}
	if c.HandSize < 1 {
		return fmt.Errorf("%w: hand size %d", ErrInvalidConfig, c.HandSize)
	}
	if c.PlayerAmount*c.HandSize >= 52 {
		return fmt.Errorf("%w: %d players with %d cards exceed the deck", ErrInvalidConfig, c.PlayerAmount, c.HandSize)
	}
	return nil
}

// DefaultConfig returns the two player, ten card game with rules enforced
func DefaultConfig() Config {
	return Config{PlayerAmount: 2, HandSize: 10, EnforceRules: true}
}

// Session is the authoritative state of one game. Every exported method
// takes the session lock, so handlers run one at a time and all players
// observe updates in the order they were applied.
type Session struct {
	mu sync.Mutex

	id       uuid.UUID
	cfg      Config
	logger   *zap.Logger
	notifier Notifier

	status    game.SessionStatus
	deck      *game.Deck
	graveyard game.Graveyard

	groups      map[int][]game.Card
	nextGroupID int

	players    map[int]Sender
	joined     int
	ready      map[int]bool
	didInitial map[int]bool
	current    int

	seq int
}

// New creates a session waiting for cfg.PlayerAmount players.
// A nil logger or notifier is replaced by a no-op.
func New(cfg Config, logger *zap.Logger, notifier Notifier) *Session {
	return NewWithRand(cfg, rand.New(rand.NewSource(time.Now().UnixNano())), logger, notifier)
}

// NewWithRand is New with a fixed shuffle source
func NewWithRand(cfg Config, rng *rand.Rand, logger *zap.Logger, notifier Notifier) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}

	id := uuid.New()
	return &Session{
		id:         id,
		cfg:        cfg,
		logger:     logger.With(zap.String("component", "session"), zap.String("session_id", id.String())),
		notifier:   notifier,
		status:     game.StatusAwaitingPlayers,
		deck:       game.NewDeckWithRand(rng),
		groups:     make(map[int][]game.Card),
		players:    make(map[int]Sender),
		ready:      make(map[int]bool),
		didInitial: make(map[int]bool),
	}
}

// ID returns the session identifier
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Join attaches a player connection and sends WELCOME with its id.
// Ids are handed out as 1..PlayerAmount in connection order.
func (s *Session) Join(sender Sender) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != game.StatusAwaitingPlayers || s.joined >= s.cfg.PlayerAmount {
		return 0, ErrSessionFull
	}

	s.joined++
	playerID := s.joined
	s.players[playerID] = sender

	s.send(playerID, protocol.Welcome, []string{strconv.Itoa(playerID)})
	s.emit(playerID, EventJoin, "")
	s.logger.Info("Player joined", zap.Int("player_id", playerID), zap.Int("joined", s.joined))

	return playerID, nil
}

// Leave detaches a player's connection. The slot is not reused.
func (s *Session) Leave(playerID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.players[playerID] == nil {
		return
	}
	s.players[playerID] = nil
	s.emit(playerID, EventLeave, "")
	s.logger.Info("Player left", zap.Int("player_id", playerID))
}

// Handle applies one client message. All decoding and validation happens
// before state is touched, so a returned error leaves the session unchanged.
func (s *Session) Handle(playerID int, op protocol.ClientOp, tokens []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[playerID]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownPlayer, playerID)
	}

	var err error
	switch op {
	case protocol.Ready:
		err = s.handleReady(playerID)
	case protocol.CardsPlayed:
		err = s.handleCardsPlayed(playerID, tokens)
	case protocol.CardAppend:
		err = s.handleCardAppend(playerID, tokens)
	case protocol.CardDiscard:
		err = s.handleCardDiscard(playerID, tokens)
	case protocol.DrawCards:
		err = s.handleDrawCards(playerID, tokens)
	case protocol.TurnEnd:
		err = s.handleTurnEnd(playerID)
	case protocol.Victory:
		err = s.handleVictory(playerID)
	case protocol.GraveyardPickup:
		err = s.handleGraveyardPickup(playerID)
	default:
		err = fmt.Errorf("%w: client opcode %d", protocol.ErrUnsupportedProtocol, int(op))
	}

	if err != nil {
		s.logger.Warn("Rejected message",
			zap.Int("player_id", playerID),
			zap.Stringer("op", op),
			zap.Bool("fatal", IsFatal(err)),
			zap.Error(err),
		)
		return err
	}

	s.emit(playerID, op.String(), strings.Join(tokens, " "))
	return nil
}

func (s *Session) handleReady(playerID int) error {
	if s.status != game.StatusAwaitingPlayers {
		return ErrAlreadyStarted
	}

	if !s.ready[playerID] && len(s.ready)+1 >= s.cfg.PlayerAmount {
		if err := s.cfg.Validate(); err != nil {
			return err
		}
	}

	s.ready[playerID] = true
	if len(s.ready) < s.cfg.PlayerAmount {
		return nil
	}
	return s.start()
}

// start deals every player a hand and grants the first turn
func (s *Session) start() error {
	s.deck.Generate()
	s.status = game.StatusInProgress
	s.emit(0, EventStart, "")
	s.logger.Info("Session started", zap.Int("players", s.cfg.PlayerAmount))

	for id := 1; id <= s.cfg.PlayerAmount; id++ {
		if err := s.draw(id, s.cfg.HandSize); err != nil {
			return err
		}
	}
	return s.nextTurn()
}

func (s *Session) handleCardsPlayed(playerID int, tokens []string) error {
	if err := s.requireTurn(playerID); err != nil {
		return err
	}

	groups, _, err := protocol.DecodeCardsPlayed(tokens)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		return fmt.Errorf("%w: no groups played", protocol.ErrMalformedMessage)
	}

	if s.cfg.EnforceRules {
		for i, g := range groups {
			if game.GroupPoints(g) == 0 {
				return fmt.Errorf("%w: group %d is neither a set nor a run", game.ErrIllegalGameAction, i)
			}
		}
		if !s.didInitial[playerID] && !game.IsValidInitialPlay(groups) {
			return fmt.Errorf("%w: initial play scores %d, needs %d",
				game.ErrIllegalGameAction, game.TotalPoints(groups), game.InitialPlayThreshold)
		}
		s.didInitial[playerID] = true
	}

	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		id := s.nextGroupID
		s.nextGroupID++
		s.groups[id] = g
		ids = append(ids, strconv.Itoa(id))
	}

	s.broadcast(protocol.CardsPlayedUpdate, protocol.EncodeCardsPlayed(groups, ids))
	return nil
}

func (s *Session) handleCardAppend(playerID int, tokens []string) error {
	if err := s.requireTurn(playerID); err != nil {
		return err
	}

	a, err := protocol.DecodeAppendCard(tokens)
	if err != nil {
		return err
	}

	group, ok := s.groups[a.GroupID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownGroup, a.GroupID)
	}
	if a.InsertIndex < 0 || a.InsertIndex > len(group) {
		return fmt.Errorf("%w: %d not in [0, %d]", ErrInsertOutOfRange, a.InsertIndex, len(group))
	}

	if s.cfg.EnforceRules {
		if !s.didInitial[playerID] {
			return fmt.Errorf("%w: append before initial play", game.ErrIllegalGameAction)
		}
		if game.AppendPoints(group, a.Card, a.InsertIndex) == 0 {
			return fmt.Errorf("%w: %s does not fit group %d at %d",
				game.ErrIllegalGameAction, a.Card, a.GroupID, a.InsertIndex)
		}
	}

	updated := make([]game.Card, 0, len(group)+1)
	updated = append(updated, group[:a.InsertIndex]...)
	updated = append(updated, a.Card)
	updated = append(updated, group[a.InsertIndex:]...)
	s.groups[a.GroupID] = updated

	s.broadcast(protocol.CardAppendUpdate, protocol.EncodeAppendCard(a.Card, a.GroupID, a.InsertIndex))
	return nil
}

func (s *Session) handleCardDiscard(playerID int, tokens []string) error {
	if err := s.requireTurn(playerID); err != nil {
		return err
	}

	card, err := protocol.DecodeCard(tokens)
	if err != nil {
		return err
	}

	s.graveyard.Push(card)
	s.broadcast(protocol.GraveyardUpdate, protocol.EncodeCard(card))
	return nil
}

func (s *Session) handleDrawCards(playerID int, tokens []string) error {
	if err := s.requireInProgress(); err != nil {
		return err
	}
	if len(tokens) < 1 {
		return fmt.Errorf("%w: draw amount missing", protocol.ErrMalformedMessage)
	}

	amount, err := protocol.ParseInt(tokens[0])
	if err != nil {
		return err
	}
	if amount < 0 {
		return fmt.Errorf("%w: negative draw amount %d", protocol.ErrMalformedMessage, amount)
	}

	return s.draw(playerID, amount)
}

func (s *Session) handleTurnEnd(playerID int) error {
	if err := s.requireTurn(playerID); err != nil {
		return err
	}
	return s.nextTurn()
}

func (s *Session) handleVictory(playerID int) error {
	if err := s.requireInProgress(); err != nil {
		return err
	}

	s.broadcastExcept(playerID, protocol.Defeat, nil)
	s.send(playerID, protocol.VictoryNotice, nil)

	s.status = game.StatusFinished
	s.emit(playerID, EventFinished, "")
	s.logger.Info("Session finished", zap.Int("winner", playerID))
	return nil
}

func (s *Session) handleGraveyardPickup(playerID int) error {
	if err := s.requireTurn(playerID); err != nil {
		return err
	}

	card, err := s.graveyard.Pop()
	if err != nil {
		return err
	}

	s.send(playerID, protocol.SendCards, protocol.EncodeCards([]game.Card{card}))
	s.broadcast(protocol.GraveyardDecrease, nil)
	return nil
}

// nextTurn passes the turn on, blocks everyone else and hands the new
// current player a card before TURN_START.
func (s *Session) nextTurn() error {
	if err := s.checkAvailable(1); err != nil {
		return err
	}

	s.current = (s.current % s.cfg.PlayerAmount) + 1
	s.emit(s.current, EventTurn, "")

	s.broadcastExcept(s.current, protocol.Block, nil)
	if err := s.draw(s.current, 1); err != nil {
		return err
	}
	s.send(s.current, protocol.TurnStart, nil)
	return nil
}

// draw deals amount cards to playerID, recycling the graveyard into the deck
// whenever the deck runs out.
func (s *Session) draw(playerID, amount int) error {
	if err := s.checkAvailable(amount); err != nil {
		return err
	}

	cards := make([]game.Card, 0, amount)
	for i := 0; i < amount; i++ {
		if s.deck.IsEmpty() {
			s.deck.GenerateFrom(s.graveyard.Drain())
			s.broadcast(protocol.GraveyardEmpty, nil)
			s.logger.Debug("Recycled graveyard", zap.Int("cards", s.deck.Remaining()))
		}

		c, err := s.deck.Draw()
		if err != nil {
			return err
		}
		cards = append(cards, c)
	}

	s.send(playerID, protocol.SendCards, protocol.EncodeCards(cards))
	return nil
}

func (s *Session) checkAvailable(amount int) error {
	if available := s.deck.Remaining() + s.graveyard.Len(); available < amount {
		return fmt.Errorf("%w: need %d cards, %d left", game.ErrEmptyDeck, amount, available)
	}
	return nil
}

func (s *Session) requireInProgress() error {
	if s.status != game.StatusInProgress {
		return fmt.Errorf("%w: status %s", ErrNotInProgress, s.status)
	}
	return nil
}

func (s *Session) requireTurn(playerID int) error {
	if err := s.requireInProgress(); err != nil {
		return err
	}
	if s.cfg.EnforceRules && playerID != s.current {
		return fmt.Errorf("%w: player %d, current %d", ErrNotYourTurn, playerID, s.current)
	}
	return nil
}

func (s *Session) send(playerID int, op protocol.ServerOp, tokens []string) {
	sender := s.players[playerID]
	if sender == nil {
		return
	}
	if err := sender.Send(op, tokens); err != nil {
		s.logger.Warn("Send failed",
			zap.Int("player_id", playerID),
			zap.Stringer("op", op),
			zap.Error(err),
		)
	}
}

// broadcast sends to every player in increasing id order
func (s *Session) broadcast(op protocol.ServerOp, tokens []string) {
	s.broadcastExcept(0, op, tokens)
}

func (s *Session) broadcastExcept(excluded int, op protocol.ServerOp, tokens []string) {
	for id := 1; id <= s.joined; id++ {
		if id == excluded {
			continue
		}
		s.send(id, op, tokens)
	}
}

func (s *Session) emit(playerID int, eventType, payload string) {
	s.seq++
	s.notifier.Notify(Event{
		SessionID: s.id,
		Seq:       s.seq,
		PlayerID:  playerID,
		Type:      eventType,
		Payload:   payload,
		At:        time.Now().UTC(),
	})
}
