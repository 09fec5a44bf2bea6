// Package abstraction collapses observable game states into coarse buckets
// and builds the information-set keys the solver tables are keyed by. Every
// function here is pure: equal inputs always produce equal keys, and nothing
// derived from the opponent's private cards may enter.
package abstraction

import (
	"fmt"

	"github.com/tossbot/holdemtoss/internal/deck"
	"github.com/tossbot/holdemtoss/internal/evaluator"
)

// rankTier groups ranks into high (T+), mid (7-9) and low (6-).
func rankTier(r deck.Rank) string {
	switch {
	case r >= deck.Ten:
		return "high"
	case r >= deck.Seven:
		return "mid"
	default:
		return "low"
	}
}

// PreflopBucket classifies a 3-card holding by rank multiplicity, then by
// rank tier and suit composition. The hole must be sorted rank-descending.
func PreflopBucket(hole []deck.Card) string {
	if len(hole) != 3 {
		return "invalid"
	}

	r0, r1, r2 := hole[0].Rank(), hole[1].Rank(), hole[2].Rank()

	if r0 == r1 && r1 == r2 {
		return "trips_" + rankTier(r0)
	}

	if r0 == r1 || r1 == r2 {
		pair, kicker := r1, r0
		if r0 == r1 {
			kicker = r2
		}
		return fmt.Sprintf("pair_%s_%s", rankTier(pair), rankTier(kicker))
	}

	s0, s1, s2 := hole[0].Suit(), hole[1].Suit(), hole[2].Suit()
	suitTag := "two_suit"
	switch {
	case s0 == s1 && s1 == s2:
		suitTag = "mono"
	case s0 != s1 && s1 != s2 && s0 != s2:
		suitTag = "rainbow"
	}
	return fmt.Sprintf("high_%s_%s", rankTier(r0), suitTag)
}

// BoardTexture emits a single structural tag for the shared board. Stronger
// features win: trips beats paired, a 3-card suit beats two_tone, and
// connectivity only matters once nothing suit- or pair-shaped applies.
func BoardTexture(board []deck.Card) string {
	if len(board) == 0 {
		return "dry"
	}

	var rankCounts [13]int
	var suitCounts [4]int
	for _, c := range board {
		rankCounts[c.Rank()]++
		suitCounts[c.Suit()]++
	}

	maxRank, maxSuit := 0, 0
	for _, n := range rankCounts {
		if n > maxRank {
			maxRank = n
		}
	}
	for _, n := range suitCounts {
		if n > maxSuit {
			maxSuit = n
		}
	}

	switch {
	case maxRank >= 3:
		return "trips"
	case maxRank == 2:
		return "paired"
	case maxSuit >= 3:
		return "flush_draw"
	case maxSuit == 2:
		return "two_tone"
	case isConnected(rankCounts):
		return "connected"
	case len(board) <= 4:
		return "rainbow"
	default:
		return "dry"
	}
}

// isConnected reports whether three distinct ranks fit inside a 5-rank span.
func isConnected(rankCounts [13]int) bool {
	distinct := make([]int, 0, 13)
	for r := 12; r >= 0; r-- {
		if rankCounts[r] > 0 {
			distinct = append(distinct, r)
		}
	}
	if len(distinct) < 3 {
		return false
	}
	for i := 0; i+2 < len(distinct); i++ {
		if distinct[i]-distinct[i+2] <= 4 {
			return true
		}
	}
	return false
}

// PostflopBucket combines the hand category of hole+board with the board
// texture. Publicly discarded cards are already part of the board by the
// time this runs.
func PostflopBucket(hole, board []deck.Card) string {
	combined := make([]deck.Card, 0, len(hole)+len(board))
	combined = append(combined, hole...)
	combined = append(combined, board...)
	return fmt.Sprintf("cat%d_%s", evaluator.CategoryOf(combined), BoardTexture(board))
}

// DiscardBucket encodes the relative quality of each toss option: for every
// candidate index it computes the category of the two kept cards plus the
// known board, then marks the index whose removal preserves the most equity.
func DiscardBucket(hole, board []deck.Card) string {
	if len(hole) != 3 {
		return "invalid"
	}

	var cats [3]int
	kept := make([]deck.Card, 0, 2+len(board))
	for drop := 0; drop < 3; drop++ {
		kept = kept[:0]
		for i, c := range hole {
			if i != drop {
				kept = append(kept, c)
			}
		}
		kept = append(kept, board...)
		cats[drop] = evaluator.CategoryOf(kept)
	}

	best := 0
	for i := 1; i < 3; i++ {
		if cats[i] > cats[best] {
			best = i
		}
	}
	return fmt.Sprintf("d%d%d%db%d", cats[0], cats[1], cats[2], best)
}
