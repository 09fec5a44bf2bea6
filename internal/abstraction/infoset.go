package abstraction

import (
	"fmt"

	"github.com/tossbot/holdemtoss/internal/deck"
)

// Street numbering shared with the game package. The gap at 1 preserves the
// historical numbering where each street advanced the board by a card count.
const (
	StreetPreflop = 0
	StreetFlop    = 2
	StreetDiscard = 3
	StreetTurn    = 4
	StreetRiver   = 5
)

// PositionTag names a seat injectively per street. Heads-up, player 0 posts
// the small blind on the button and acts last postflop; player 1 posts the
// big blind and is out of position after the flop.
func PositionTag(street, player int) string {
	if player == 0 {
		if street == StreetPreflop {
			return "sb"
		}
		return "btn"
	}
	if street == StreetPreflop {
		return "bb"
	}
	return "oop"
}

// Key builds the canonical infoset key s{street}_{pos}_{bucket}_{history}
// from a player's own view of the hand. The hole slice holds the player's
// current cards (three before the discard, two after); the board includes
// every publicly revealed card, discards included.
func Key(street, player int, hole, board []deck.Card, history string) string {
	var bucket string
	switch {
	case street == StreetPreflop:
		bucket = PreflopBucket(hole)
	case street == StreetDiscard && len(hole) == 3:
		bucket = DiscardBucket(hole, board)
	default:
		bucket = PostflopBucket(hole, board)
	}
	return fmt.Sprintf("s%d_%s_%s_%s", street, PositionTag(street, player), bucket, history)
}
