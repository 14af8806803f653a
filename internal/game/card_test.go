package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateBuildsStandardDeck(t *testing.T) {
	d := NewDeckWithRand(rand.New(rand.NewSource(1)))
	d.Generate()

	require.Equal(t, 52, d.Remaining())

	seen := make(map[Card]bool)
	for _, c := range d.Cards() {
		assert.NotEqual(t, NoSuit, c.Suit)
		assert.NotEqual(t, Joker, c.Rank)
		assert.False(t, seen[c], "duplicate card %s", c)
		seen[c] = true
	}
}

func TestDrawUntilEmpty(t *testing.T) {
	d := NewDeckWithRand(rand.New(rand.NewSource(2)))
	d.Generate()

	for i := 0; i < 52; i++ {
		_, err := d.Draw()
		require.NoError(t, err)
	}

	assert.True(t, d.IsEmpty())
	_, err := d.Draw()
	assert.ErrorIs(t, err, ErrEmptyDeck)
}

func TestGenerateFromReplacesContents(t *testing.T) {
	d := NewDeckWithRand(rand.New(rand.NewSource(3)))
	d.Generate()

	cards := []Card{{Clubs, Two}, {Hearts, King}, {Spades, Ace}}
	d.GenerateFrom(cards)

	assert.Equal(t, 3, d.Remaining())
	assert.ElementsMatch(t, cards, d.Cards())

	// the input slice is not aliased
	cards[0] = Card{Diamonds, Nine}
	assert.NotContains(t, d.Cards(), Card{Diamonds, Nine})
}

func TestGraveyardOrder(t *testing.T) {
	var g Graveyard
	_, err := g.Pop()
	assert.ErrorIs(t, err, ErrEmptyGraveyard)

	g.Push(Card{Clubs, Two})
	g.Push(Card{Hearts, Five})
	g.Push(Card{Spades, Jack})

	top, ok := g.Top()
	require.True(t, ok)
	assert.Equal(t, Card{Spades, Jack}, top)

	c, err := g.Pop()
	require.NoError(t, err)
	assert.Equal(t, Card{Spades, Jack}, c)

	drained := g.Drain()
	assert.Equal(t, []Card{{Hearts, Five}, {Clubs, Two}}, drained)
	assert.Equal(t, 0, g.Len())
}

func TestCardString(t *testing.T) {
	assert.Equal(t, "AS", Card{Spades, Ace}.String())
	assert.Equal(t, "10H", Card{Hearts, Ten}.String())
	assert.Equal(t, "JK-", Card{NoSuit, Joker}.String())
}
