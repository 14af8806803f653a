package game

import "errors"

// ErrIllegalGameAction is returned when a play or append fails rule validation
var ErrIllegalGameAction = errors.New("illegal game action")

// InitialPlayThreshold is the minimum total a player's first play must reach
const InitialPlayThreshold = 40

// MinGroupSize is the smallest number of cards forming a set or a run
const MinGroupSize = 3

// Span is a half-open [Start, End) range of card positions.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// PointValue returns the points a rank scores. Ace scores 1 when counted low.
func PointValue(r Rank, aceLow bool) int {
	switch r {
	case Ace:
		if aceLow {
			return 1
		}
		return 10
	case Ten, Jack, Queen, King:
		return 10
	case Joker:
		return 0
	default:
		if r >= Two && r <= Nine {
			return int(r-Two) + 2
		}
		return 0
	}
}

// FollowsInRun reports whether next directly succeeds prev in a run.
// The relation is cyclic: Ace->Two ... King->Ace.
func FollowsInRun(prev, next Rank) bool {
	switch prev {
	case King:
		return next == Ace
	case Ace:
		return next == Two
	case Joker:
		return false
	default:
		return prev >= Two && prev < King && next == prev+1
	}
}

// aceLowAt decides whether the card at i, if it is an Ace, counts as one.
func aceLowAt(cards []Card, i int) bool {
	if i > 0 && cards[i-1].Rank == King {
		return false
	}
	if i+1 >= len(cards) {
		return false
	}
	return cards[i+1].Rank == Two
}

// IsSet returns the points of cards as a set, or 0 if they do not form one.
// Duplicate suits are not rejected here.
func IsSet(cards []Card) int {
	if len(cards) < MinGroupSize {
		return 0
	}

	rank := cards[0].Rank
	sum := 0
	for _, c := range cards {
		if c.Rank != rank {
			return 0
		}
		sum += PointValue(c.Rank, false)
	}
	return sum
}

// IsRun returns the points of cards as a run, or 0 if they do not form one.
// Consecutive pairs are checked left to right against FollowsInRun.
func IsRun(cards []Card) int {
	if len(cards) < MinGroupSize {
		return 0
	}

	sum := PointValue(cards[0].Rank, aceLowAt(cards, 0))
	for i := 1; i < len(cards); i++ {
		prev, cur := cards[i-1], cards[i]
		if cur.Suit != prev.Suit {
			return 0
		}
		if !FollowsInRun(prev.Rank, cur.Rank) {
			return 0
		}
		sum += PointValue(cur.Rank, cur.Rank == Ace && aceLowAt(cards, i))
	}
	return sum
}

// GroupPoints scores a single group as a set or, failing that, as a run
func GroupPoints(cards []Card) int {
	if p := IsSet(cards); p > 0 {
		return p
	}
	return IsRun(cards)
}

// TotalPoints sums IsSet and IsRun over every group. A group satisfying
// neither contributes nothing.
func TotalPoints(groups [][]Card) int {
	sum := 0
	for _, g := range groups {
		sum += IsSet(g)
		sum += IsRun(g)
	}
	return sum
}

// IsValidInitialPlay reports whether groups reach InitialPlayThreshold
func IsValidInitialPlay(groups [][]Card) bool {
	return TotalPoints(groups) >= InitialPlayThreshold
}

// FindMaximalValidSpans scans cards left to right and returns the greedy
// leftmost-longest windows that form a valid set or run.
func FindMaximalValidSpans(cards []Card) []Span {
	var spans []Span

	start := 0
	for start < len(cards) {
		end := start + MinGroupSize
		if end > len(cards) {
			break
		}

		points := 0
		for end <= len(cards) {
			prev := points
			points = GroupPoints(cards[start:end])

			if points > 0 {
				end++
				if end > len(cards) {
					// still valid at the end of the list
					spans = append(spans, Span{Start: start, End: end - 1})
					start = end - 1
					break
				}
				continue
			}

			if prev == 0 {
				start++
				break
			}

			spans = append(spans, Span{Start: start, End: end - 1})
			start = end - 1
			break
		}
	}

	return spans
}

// AppendPoints returns the points scored by inserting card into group at
// insertIndex, or 0 if the insertion is illegal. group is never modified.
func AppendPoints(group []Card, card Card, insertIndex int) int {
	if len(group) == 0 || insertIndex < 0 || insertIndex > len(group) {
		return 0
	}

	value := PointValue(card.Rank, false)

	if IsSet(group) > 0 {
		for _, c := range group {
			if c.Rank != card.Rank || c.Suit == card.Suit {
				return 0
			}
		}
		return value
	}

	if card.Suit != group[0].Suit {
		return 0
	}

	switch insertIndex {
	case 0:
		if FollowsInRun(card.Rank, group[0].Rank) {
			return value
		}
		return 0
	case len(group):
		if FollowsInRun(group[len(group)-1].Rank, card.Rank) {
			return value
		}
		return 0
	}

	if FollowsInRun(group[insertIndex-1].Rank, card.Rank) && FollowsInRun(card.Rank, group[insertIndex].Rank) {
		return value
	}
	return 0
}
