package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/playrummy/backend/internal/game"
	"github.com/playrummy/backend/internal/protocol"
)

type mockOutbound struct {
	mock.Mock
}

func (m *mockOutbound) Send(op protocol.ClientOp, tokens []string) error {
	args := m.Called(op, tokens)
	return args.Error(0)
}

func card(s game.Suit, r game.Rank) game.Card {
	return game.Card{Suit: s, Rank: r}
}

var faceRun = []game.Card{
	card(game.Clubs, game.Ten),
	card(game.Clubs, game.Jack),
	card(game.Clubs, game.Queen),
	card(game.Clubs, game.King),
}

func deal(t *testing.T, c *Controller, cards ...game.Card) {
	t.Helper()
	require.NoError(t, c.Serve(protocol.SendCards, protocol.EncodeCards(cards)))
}

func TestWelcomeSendsReady(t *testing.T) {
	out := &mockOutbound{}
	out.On("Send", protocol.Ready, []string{"2"}).Return(nil)

	c := NewController(out, nil)
	require.NoError(t, c.Serve(protocol.Welcome, []string{"2"}))

	assert.Equal(t, 2, c.State().PlayerID)
	out.AssertExpectations(t)
}

func TestTurnFlags(t *testing.T) {
	c := NewController(&mockOutbound{}, nil)

	require.NoError(t, c.Serve(protocol.Block, nil))
	assert.True(t, c.State().Blocked)
	assert.False(t, c.State().MyTurn)

	require.NoError(t, c.Serve(protocol.TurnStart, nil))
	assert.False(t, c.State().Blocked)
	assert.True(t, c.State().MyTurn)

	require.NoError(t, c.Serve(protocol.TurnEndNotice, nil))
	assert.False(t, c.State().MyTurn)
}

func TestPlayBelowThreshold(t *testing.T) {
	out := &mockOutbound{}
	c := NewController(out, nil)

	low := []game.Card{card(game.Clubs, game.Two), card(game.Diamonds, game.Two), card(game.Spades, game.Two)}
	deal(t, c, low...)

	_, err := c.Play([][]game.Card{low})
	assert.ErrorIs(t, err, ErrIllegalPlay)
	assert.Len(t, c.State().Hand, 3)
	out.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestPlayRemovesCards(t *testing.T) {
	out := &mockOutbound{}
	out.On("Send", protocol.CardsPlayed, protocol.EncodeCardsPlayed([][]game.Card{faceRun}, nil)).Return(nil)

	c := NewController(out, nil)
	extra := card(game.Hearts, game.Five)
	deal(t, c, append([]game.Card{extra}, faceRun...)...)

	points, err := c.Play([][]game.Card{faceRun})
	require.NoError(t, err)
	assert.Equal(t, 40, points)

	state := c.State()
	assert.Equal(t, []game.Card{extra}, state.Hand)
	assert.True(t, state.DidInitial)
	assert.Equal(t, 40, state.Points)
	out.AssertExpectations(t)
}

func TestPlayRejectsInvalidGroup(t *testing.T) {
	out := &mockOutbound{}
	c := NewController(out, nil)

	junk := []game.Card{card(game.Hearts, game.Two), card(game.Spades, game.Five), card(game.Diamonds, game.Nine)}
	deal(t, c, append(append([]game.Card{}, faceRun...), junk...)...)

	_, err := c.Play([][]game.Card{faceRun, junk})
	assert.ErrorIs(t, err, ErrIllegalPlay)

	state := c.State()
	assert.Len(t, state.Hand, 7)
	assert.False(t, state.DidInitial)
	assert.Zero(t, state.Points)
	out.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestPlayCardsNotInHand(t *testing.T) {
	out := &mockOutbound{}
	c := NewController(out, nil)
	deal(t, c, faceRun[:3]...)

	_, err := c.Play([][]game.Card{faceRun})
	assert.ErrorIs(t, err, ErrNotInHand)
	assert.False(t, c.State().DidInitial)
	out.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestAppendNeedsInitialPlay(t *testing.T) {
	out := &mockOutbound{}
	out.On("Send", mock.Anything, mock.Anything).Return(nil)

	c := NewController(out, nil)
	nine := card(game.Clubs, game.Nine)
	deal(t, c, nine)
	require.NoError(t, c.Serve(protocol.CardsPlayedUpdate,
		protocol.EncodeCardsPlayed([][]game.Card{faceRun}, []string{"0"})))

	_, err := c.Append(nine, 0, 0)
	assert.ErrorIs(t, err, ErrIllegalPlay)
	out.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestAppendAfterInitialPlay(t *testing.T) {
	out := &mockOutbound{}
	out.On("Send", mock.Anything, mock.Anything).Return(nil)

	c := NewController(out, nil)
	nine := card(game.Clubs, game.Nine)
	ace := card(game.Clubs, game.Ace)
	deal(t, c, append([]game.Card{nine, ace}, faceRun...)...)

	_, err := c.Play([][]game.Card{faceRun})
	require.NoError(t, err)
	require.NoError(t, c.Serve(protocol.CardsPlayedUpdate,
		protocol.EncodeCardsPlayed([][]game.Card{faceRun}, []string{"4"})))

	_, err = c.Append(nine, 4, 4)
	assert.ErrorIs(t, err, ErrIllegalPlay)

	points, err := c.Append(nine, 4, 0)
	require.NoError(t, err)
	assert.Equal(t, 9, points)
	out.AssertCalled(t, "Send", protocol.CardAppend, protocol.EncodeAppendCard(nine, 4, 0))
	assert.Equal(t, []game.Card{ace}, c.State().Hand)

	// the table changes only when the server echoes the append
	assert.Len(t, c.State().Table[4], 4)
	require.NoError(t, c.Serve(protocol.CardAppendUpdate, protocol.EncodeAppendCard(nine, 4, 0)))
	assert.Equal(t, nine, c.State().Table[4][0])
}

func TestDiscardLastCardDeclaresVictory(t *testing.T) {
	out := &mockOutbound{}
	out.On("Send", mock.Anything, mock.Anything).Return(nil)

	c := NewController(out, nil)
	last := card(game.Spades, game.Seven)
	deal(t, c, last)

	require.NoError(t, c.Discard(last))

	require.Len(t, out.Calls, 2)
	assert.Equal(t, protocol.CardDiscard, out.Calls[0].Arguments.Get(0))
	assert.Equal(t, protocol.EncodeCard(last), out.Calls[0].Arguments.Get(1))
	assert.Equal(t, protocol.Victory, out.Calls[1].Arguments.Get(0))
	assert.Empty(t, c.State().Hand)
}

func TestDiscardUnknownCard(t *testing.T) {
	out := &mockOutbound{}
	c := NewController(out, nil)
	deal(t, c, card(game.Spades, game.Seven))

	assert.ErrorIs(t, c.Discard(card(game.Hearts, game.Seven)), ErrNotInHand)
	out.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestGraveyardTracking(t *testing.T) {
	out := &mockOutbound{}
	c := NewController(out, nil)

	assert.ErrorIs(t, c.PickupGraveyard(), ErrIllegalPlay)

	require.NoError(t, c.Serve(protocol.GraveyardUpdate, protocol.EncodeCard(card(game.Hearts, game.Two))))
	require.NoError(t, c.Serve(protocol.GraveyardUpdate, protocol.EncodeCard(card(game.Hearts, game.Three))))
	assert.Len(t, c.State().Graveyard, 2)

	require.NoError(t, c.Serve(protocol.GraveyardDecrease, nil))
	assert.Equal(t, []game.Card{card(game.Hearts, game.Two)}, c.State().Graveyard)

	out.On("Send", protocol.GraveyardPickup, []string(nil)).Return(nil)
	require.NoError(t, c.PickupGraveyard())

	require.NoError(t, c.Serve(protocol.GraveyardEmpty, nil))
	assert.Empty(t, c.State().Graveyard)
}

func TestServeErrors(t *testing.T) {
	c := NewController(&mockOutbound{}, nil)

	err := c.Serve(protocol.CardsPlayedUpdate,
		protocol.EncodeCardsPlayed([][]game.Card{faceRun}, []string{"0", "1"}))
	assert.ErrorIs(t, err, protocol.ErrMalformedMessage)

	err = c.Serve(protocol.CardAppendUpdate, protocol.EncodeAppendCard(faceRun[0], 3, 0))
	assert.ErrorIs(t, err, ErrUnknownGroup)

	err = c.Serve(protocol.ServerOp(40), nil)
	assert.ErrorIs(t, err, protocol.ErrUnsupportedProtocol)

	err = c.Serve(protocol.SendCards, []string{"2", "0"})
	assert.ErrorIs(t, err, protocol.ErrMalformedMessage)
}

func TestVictoryAndDefeat(t *testing.T) {
	c := NewController(&mockOutbound{}, nil)
	require.NoError(t, c.Serve(protocol.Defeat, nil))
	assert.True(t, c.State().Finished)
	assert.False(t, c.State().Won)

	c = NewController(&mockOutbound{}, nil)
	require.NoError(t, c.Serve(protocol.VictoryNotice, nil))
	assert.True(t, c.State().Won)
}

func TestSuggest(t *testing.T) {
	c := NewController(&mockOutbound{}, nil)
	deal(t, c,
		card(game.Spades, game.Nine),
		card(game.Diamonds, game.Two),
		card(game.Diamonds, game.Three),
		card(game.Diamonds, game.Four),
		card(game.Hearts, game.Nine),
		card(game.Clubs, game.Nine),
		card(game.Clubs, game.King),
	)

	assert.Equal(t, [][]game.Card{
		{card(game.Diamonds, game.Two), card(game.Diamonds, game.Three), card(game.Diamonds, game.Four)},
		{card(game.Spades, game.Nine), card(game.Hearts, game.Nine), card(game.Clubs, game.Nine)},
	}, c.Suggest())
}
