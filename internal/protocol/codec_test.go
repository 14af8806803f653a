package protocol

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playrummy/backend/internal/game"
)

func randomCards(rng *rand.Rand, n int) []game.Card {
	cards := make([]game.Card, 0, n)
	for i := 0; i < n; i++ {
		cards = append(cards, game.Card{
			Suit: game.Suit(rng.Intn(game.SuitCount)),
			Rank: game.Rank(rng.Intn(game.RankCount)),
		})
	}
	return cards
}

func TestCardRoundTrip(t *testing.T) {
	for s := 0; s < game.SuitCount; s++ {
		for r := 0; r < game.RankCount; r++ {
			c := game.Card{Suit: game.Suit(s), Rank: game.Rank(r)}
			got, err := DecodeCard(EncodeCard(c))
			require.NoError(t, err)
			assert.Equal(t, c, got)
		}
	}
}

func TestCardsRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for n := 0; n <= 50; n++ {
		cards := randomCards(rng, n)
		tokens := EncodeCards(cards)
		require.Len(t, tokens, 1+2*n)

		got, next, err := DecodeCards(tokens, 0)
		require.NoError(t, err)
		assert.Equal(t, cards, got)
		assert.Equal(t, len(tokens), next)
	}
}

func TestCardsPlayedRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for n := 1; n <= 6; n++ {
		groups := make([][]game.Card, 0, n)
		ids := make([]string, 0, n)
		for i := 0; i < n; i++ {
			groups = append(groups, randomCards(rng, 3+rng.Intn(5)))
			ids = append(ids, strconv.Itoa(i*3))
		}

		gotGroups, gotIDs, err := DecodeCardsPlayed(EncodeCardsPlayed(groups, ids))
		require.NoError(t, err)
		assert.Equal(t, groups, gotGroups)
		assert.Equal(t, ids, gotIDs)
	}
}

func TestEncodeCardsPlayedLayout(t *testing.T) {
	groups := [][]game.Card{
		{
			{Suit: game.Clubs, Rank: game.Ace},
			{Suit: game.Diamonds, Rank: game.Ace},
			{Suit: game.Spades, Rank: game.Ace},
			{Suit: game.Hearts, Rank: game.Ace},
		},
		{
			{Suit: game.Hearts, Rank: game.Six},
			{Suit: game.Hearts, Rank: game.Seven},
			{Suit: game.Hearts, Rank: game.Eight},
		},
	}

	tokens := EncodeCardsPlayed(groups, []string{"0", "1"})
	expected := []string{
		"4", "3", "12", "1", "12", "0", "12", "2", "12",
		"3", "2", "4", "2", "5", "2", "6",
		"+", "0", "1",
	}
	assert.Equal(t, expected, tokens)
}

func TestDecodeCardsPlayedWithoutIDs(t *testing.T) {
	groups := [][]game.Card{{
		{Suit: game.Clubs, Rank: game.Ten},
		{Suit: game.Clubs, Rank: game.Jack},
		{Suit: game.Clubs, Rank: game.Queen},
	}}

	tokens := EncodeCardsPlayed(groups, nil)
	assert.NotContains(t, tokens, IDSeparator)

	got, ids, err := DecodeCardsPlayed(tokens)
	require.NoError(t, err)
	assert.Equal(t, groups, got)
	assert.Nil(t, ids)
}

func TestAppendCardRoundTrip(t *testing.T) {
	card := game.Card{Suit: game.Hearts, Rank: game.Nine}
	tokens := EncodeAppendCard(card, 5, 2)
	assert.Equal(t, []string{"2", "7", "5", "2"}, tokens)

	got, err := DecodeAppendCard(tokens)
	require.NoError(t, err)
	assert.Equal(t, AppendCard{Card: card, GroupID: 5, InsertIndex: 2}, got)
}

func TestMalformedTokens(t *testing.T) {
	tests := []struct {
		name   string
		decode func() error
	}{
		{"card too short", func() error { _, err := DecodeCard([]string{"1"}); return err }},
		{"suit out of range", func() error { _, err := DecodeCard([]string{"5", "0"}); return err }},
		{"rank out of range", func() error { _, err := DecodeCard([]string{"0", "14"}); return err }},
		{"non canonical ordinal", func() error { _, err := DecodeCard([]string{"01", "0"}); return err }},
		{"negative ordinal", func() error { _, err := DecodeCard([]string{"-1", "0"}); return err }},
		{"not a number", func() error { _, err := DecodeCard([]string{"x", "0"}); return err }},
		{"truncated segment", func() error { _, _, err := DecodeCards([]string{"2", "0", "0", "1"}, 0); return err }},
		{"negative count", func() error { _, _, err := DecodeCards([]string{"-1"}, 0); return err }},
		{"overflowing count", func() error { _, _, err := DecodeCards([]string{"4611686018427387904"}, 0); return err }},
		{"played overflowing count", func() error { _, _, err := DecodeCardsPlayed([]string{"4611686018427387904", "0", "0"}); return err }},
		{"offset past end", func() error { _, _, err := DecodeCards([]string{"0"}, 1); return err }},
		{"played truncated", func() error { _, _, err := DecodeCardsPlayed([]string{"3", "0", "0"}); return err }},
		{"append too short", func() error { _, err := DecodeAppendCard([]string{"0", "0", "1"}); return err }},
		{"append bad group", func() error { _, err := DecodeAppendCard([]string{"0", "0", "a", "1"}); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.decode(), ErrMalformedMessage)
		})
	}
}

func TestParseOrdinal(t *testing.T) {
	s, err := ParseOrdinal[game.Suit]("3", game.SuitCount)
	require.NoError(t, err)
	assert.Equal(t, game.Clubs, s)

	_, err = ParseOrdinal[game.Suit]("5", game.SuitCount)
	assert.ErrorIs(t, err, ErrMalformedMessage)
}
