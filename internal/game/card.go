package game

import (
	"errors"
	"math/rand"
	"time"
)

// Errors
var (
	ErrEmptyDeck      = errors.New("deck is empty")
	ErrEmptyGraveyard = errors.New("graveyard is empty")
)

// Suit represents a card suit. The order of the constants is the wire ordinal.
type Suit int

const (
	Spades Suit = iota
	Diamonds
	Hearts
	Clubs
	NoSuit // joker backing only
)

// SuitCount is the number of Suit values, NoSuit included.
const SuitCount = int(NoSuit) + 1

// Rank represents a card rank. The order of the constants is the wire ordinal.
type Rank int

const (
	Two Rank = iota
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
	Joker
)

// RankCount is the number of Rank values, Joker included.
const RankCount = int(Joker) + 1

var suitNames = [SuitCount]string{"S", "D", "H", "C", "-"}

var rankNames = [RankCount]string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A", "JK"}

func (s Suit) String() string {
	if s < 0 || int(s) >= SuitCount {
		return "?"
	}
	return suitNames[s]
}

func (r Rank) String() string {
	if r < 0 || int(r) >= RankCount {
		return "?"
	}
	return rankNames[r]
}

// Card represents a playing card. Cards are compared by value.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// String returns a short representation of the card (e.g., "AS" for Ace of Spades)
func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// StandardSuits are the four suits a generated deck is built from.
var StandardSuits = []Suit{Spades, Diamonds, Hearts, Clubs}

// Deck is a stack of cards; the last element is the top.
// It is not safe for concurrent use, the owning session serializes access.
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// NewDeck creates an empty deck. Call Generate to fill it.
func NewDeck() *Deck {
	return NewDeckWithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewDeckWithRand creates an empty deck shuffling with the given source
func NewDeckWithRand(rng *rand.Rand) *Deck {
	return &Deck{rng: rng}
}

// Generate fills the deck with the 52 standard cards and shuffles it
func (d *Deck) Generate() {
	d.cards = make([]Card, 0, 52)
	for r := Two; r <= Ace; r++ {
		for _, s := range StandardSuits {
			d.cards = append(d.cards, Card{Suit: s, Rank: r})
		}
	}
	d.Shuffle()
}

// GenerateFrom replaces the deck contents with the given cards and shuffles
func (d *Deck) GenerateFrom(cards []Card) {
	d.cards = make([]Card, len(cards))
	copy(d.cards, cards)
	d.Shuffle()
}

// Shuffle randomizes the deck
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Draw removes and returns the top card from the deck
func (d *Deck) Draw() (Card, error) {
	if len(d.cards) == 0 {
		return Card{}, ErrEmptyDeck
	}

	card := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return card, nil
}

// IsEmpty reports whether no cards remain
func (d *Deck) IsEmpty() bool {
	return len(d.cards) == 0
}

// Remaining returns the number of cards left in the deck
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Cards returns a copy of the deck's cards, bottom first
func (d *Deck) Cards() []Card {
	cards := make([]Card, len(d.cards))
	copy(cards, d.cards)
	return cards
}

// Graveyard is the discard pile; the last element is the most recent discard.
type Graveyard struct {
	cards []Card
}

// Push discards a card onto the pile
func (g *Graveyard) Push(c Card) {
	g.cards = append(g.cards, c)
}

// Pop removes and returns the top card
func (g *Graveyard) Pop() (Card, error) {
	if len(g.cards) == 0 {
		return Card{}, ErrEmptyGraveyard
	}
	c := g.cards[len(g.cards)-1]
	g.cards = g.cards[:len(g.cards)-1]
	return c, nil
}

// Top returns the most recent discard without removing it
func (g *Graveyard) Top() (Card, bool) {
	if len(g.cards) == 0 {
		return Card{}, false
	}
	return g.cards[len(g.cards)-1], true
}

// Len returns the number of discarded cards
func (g *Graveyard) Len() int {
	return len(g.cards)
}

// Drain empties the pile and returns its cards, top first.
func (g *Graveyard) Drain() []Card {
	out := make([]Card, 0, len(g.cards))
	for i := len(g.cards) - 1; i >= 0; i-- {
		out = append(out, g.cards[i])
	}
	g.cards = nil
	return out
}
