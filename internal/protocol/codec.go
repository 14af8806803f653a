package protocol

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/playrummy/backend/internal/game"
)

// Errors
var (
	ErrMalformedMessage    = errors.New("malformed message")
	ErrUnsupportedProtocol = errors.New("unsupported protocol")
)

// IDSeparator precedes the group ids in a CARDS_PLAYED payload
const IDSeparator = "+"

// AppendCard is the payload of CARD_APPEND and CARD_APPEND_UPDATE
type AppendCard struct {
	Card        game.Card `json:"card"`
	GroupID     int       `json:"group_id"`
	InsertIndex int       `json:"insert_index"`
}

// ParseOrdinal converts a decimal ordinal token into a member of an
// enumeration with count members. Only the canonical rendering is accepted,
// so "01" and "+1" are rejected.
func ParseOrdinal[T ~int](token string, count int) (T, error) {
	n, err := strconv.Atoi(token)
	if err != nil || n < 0 || n >= count || strconv.Itoa(n) != token {
		return 0, fmt.Errorf("%w: %q is not an ordinal below %d", ErrMalformedMessage, token, count)
	}
	return T(n), nil
}

// ParseInt reads a plain decimal integer token
func ParseInt(token string) (int, error) {
	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrMalformedMessage, token)
	}
	return n, nil
}

// EncodeCard returns [suit, rank]
func EncodeCard(c game.Card) []string {
	return []string{strconv.Itoa(int(c.Suit)), strconv.Itoa(int(c.Rank))}
}

// DecodeCard reads a card from tokens[0] and tokens[1]
func DecodeCard(tokens []string) (game.Card, error) {
	return decodeCardAt(tokens, 0)
}

func decodeCardAt(tokens []string, i int) (game.Card, error) {
	if i < 0 || i+1 >= len(tokens) {
		return game.Card{}, fmt.Errorf("%w: card at %d needs 2 tokens, have %d", ErrMalformedMessage, i, len(tokens))
	}
	suit, err := ParseOrdinal[game.Suit](tokens[i], game.SuitCount)
	if err != nil {
		return game.Card{}, err
	}
	rank, err := ParseOrdinal[game.Rank](tokens[i+1], game.RankCount)
	if err != nil {
		return game.Card{}, err
	}
	return game.Card{Suit: suit, Rank: rank}, nil
}

// EncodeCards returns [count, suit1, rank1, suit2, rank2, ...]
func EncodeCards(cards []game.Card) []string {
	out := make([]string, 0, 1+2*len(cards))
	out = append(out, strconv.Itoa(len(cards)))
	for _, c := range cards {
		out = append(out, EncodeCard(c)...)
	}
	return out
}

// DecodeCards reads one count-prefixed segment starting at offset. It returns
// the cards and the offset just past the segment.
func DecodeCards(tokens []string, offset int) ([]game.Card, int, error) {
	if offset < 0 || offset >= len(tokens) {
		return nil, offset, fmt.Errorf("%w: missing card count at %d", ErrMalformedMessage, offset)
	}
	count, err := ParseInt(tokens[offset])
	if err != nil {
		return nil, offset, err
	}
	if count < 0 || count > (len(tokens)-offset-1)/2 {
		return nil, offset, fmt.Errorf("%w: segment of %d cards at %d exceeds %d tokens", ErrMalformedMessage, count, offset, len(tokens))
	}

	cards := make([]game.Card, 0, count)
	for i := 0; i < count; i++ {
		c, err := decodeCardAt(tokens, offset+1+2*i)
		if err != nil {
			return nil, offset, err
		}
		cards = append(cards, c)
	}
	return cards, offset + 1 + 2*count, nil
}

// EncodeCardsPlayed concatenates one segment per group. When ids is non-nil
// the separator and the ids follow.
func EncodeCardsPlayed(groups [][]game.Card, ids []string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, EncodeCards(g)...)
	}
	if ids != nil {
		out = append(out, IDSeparator)
		out = append(out, ids...)
	}
	if out == nil {
		out = []string{}
	}
	return out
}

// DecodeCardsPlayed walks card segments until the separator or the end of
// tokens. ids is nil when no separator is present. Matching the number of ids
// to the number of groups is left to the caller.
func DecodeCardsPlayed(tokens []string) ([][]game.Card, []string, error) {
	var groups [][]game.Card

	i := 0
	for i < len(tokens) {
		if tokens[i] == IDSeparator {
			ids := make([]string, len(tokens)-i-1)
			copy(ids, tokens[i+1:])
			return groups, ids, nil
		}

		cards, next, err := DecodeCards(tokens, i)
		if err != nil {
			return nil, nil, err
		}
		groups = append(groups, cards)
		i = next
	}

	return groups, nil, nil
}

// EncodeAppendCard returns [suit, rank, groupID, insertIndex]
func EncodeAppendCard(c game.Card, groupID, insertIndex int) []string {
	return append(EncodeCard(c), strconv.Itoa(groupID), strconv.Itoa(insertIndex))
}

// DecodeAppendCard is the inverse of EncodeAppendCard
func DecodeAppendCard(tokens []string) (AppendCard, error) {
	if len(tokens) < 4 {
		return AppendCard{}, fmt.Errorf("%w: append needs 4 tokens, have %d", ErrMalformedMessage, len(tokens))
	}
	card, err := DecodeCard(tokens)
	if err != nil {
		return AppendCard{}, err
	}
	groupID, err := ParseInt(tokens[2])
	if err != nil {
		return AppendCard{}, err
	}
	insertIndex, err := ParseInt(tokens[3])
	if err != nil {
		return AppendCard{}, err
	}
	return AppendCard{Card: card, GroupID: groupID, InsertIndex: insertIndex}, nil
}
