// Package evaluator scores poker hands. Scores are totally ordered integers:
// a higher score is a stronger hand, equal scores tie.
package evaluator

import (
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tossbot/holdemtoss/internal/deck"
)

// Score is a totally ordered hand strength. The millions digit is the
// category, the remainder encodes kicker ordering within the category.
type Score int

// Hand categories, ascending strength.
const (
	CategoryHighCard = iota
	CategoryPair
	CategoryTwoPair
	CategoryTrips
	CategoryStraight
	CategoryFlush
	CategoryFullHouse
	CategoryQuads
	CategoryStraightFlush
)

const categoryBase = 1_000_000

var categoryNames = [...]string{
	"High Card",
	"One Pair",
	"Two Pair",
	"Three of a Kind",
	"Straight",
	"Flush",
	"Full House",
	"Four of a Kind",
	"Straight Flush",
}

// Category extracts the 0..8 category from a score.
func (s Score) Category() int {
	cat := int(s) / categoryBase
	if cat > CategoryStraightFlush {
		cat = CategoryStraightFlush
	}
	return cat
}

// String names the score's category.
func (s Score) String() string {
	return categoryNames[s.Category()]
}

var memo, _ = lru.New[string, Score](1 << 16)

// Eval returns the score of the best 5-card hand drawable from the given
// cards. It accepts 5 to 8 cards; fewer than 5 is a programming error and
// panics. Results for six or more cards are memoized by canonical card set;
// five-card inputs are scored directly.
func Eval(cards []deck.Card) Score {
	if len(cards) < 5 {
		panic(fmt.Sprintf("evaluator: need at least 5 cards, got %d", len(cards)))
	}
	if len(cards) == 5 {
		return eval5(cards)
	}

	key := memoKey(cards)
	if s, ok := memo.Get(key); ok {
		return s
	}

	best := Score(-1)
	pick := make([]deck.Card, 5)
	combinations(len(cards), func(idx [5]int) {
		for i, j := range idx {
			pick[i] = cards[j]
		}
		if s := eval5(pick); s > best {
			best = s
		}
	})
	memo.Add(key, best)
	return best
}

// CategoryOf returns the hand category for any card count. With 5 or more
// cards it evaluates the best 5-card hand; with fewer it falls back to rank
// multiplicity alone (straights and flushes need 5 cards).
func CategoryOf(cards []deck.Card) int {
	if len(cards) >= 5 {
		return Eval(cards).Category()
	}
	var counts [13]int
	for _, c := range cards {
		counts[c.Rank()]++
	}
	pairs, trips, quads := 0, 0, 0
	for _, n := range counts {
		switch n {
		case 4:
			quads++
		case 3:
			trips++
		case 2:
			pairs++
		}
	}
	switch {
	case quads > 0:
		return CategoryQuads
	case trips > 0:
		return CategoryTrips
	case pairs >= 2:
		return CategoryTwoPair
	case pairs == 1:
		return CategoryPair
	default:
		return CategoryHighCard
	}
}

// eval5 scores exactly five cards.
func eval5(hand []deck.Card) Score {
	ranks := make([]int, 5)
	for i, c := range hand {
		ranks[i] = int(c.Rank())
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ranks)))

	isFlush := true
	for _, c := range hand[1:] {
		if c.Suit() != hand[0].Suit() {
			isFlush = false
			break
		}
	}

	isStraight, straightHigh := straightHigh5(ranks)

	if isStraight && isFlush {
		return Score(CategoryStraightFlush*categoryBase + straightHigh)
	}

	var counts [13]int
	for _, r := range ranks {
		counts[r]++
	}
	// Distinct ranks ordered by count then rank, both descending.
	type group struct{ rank, count int }
	groups := make([]group, 0, 5)
	for r := 12; r >= 0; r-- {
		if counts[r] > 0 {
			groups = append(groups, group{rank: r, count: counts[r]})
		}
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].count > groups[j].count
	})

	switch {
	case groups[0].count == 4:
		return Score(CategoryQuads*categoryBase + groups[0].rank*13 + groups[1].rank)
	case groups[0].count == 3 && groups[1].count == 2:
		return Score(CategoryFullHouse*categoryBase + groups[0].rank*13 + groups[1].rank)
	case isFlush:
		return Score(CategoryFlush*categoryBase + kickerValue(ranks))
	case isStraight:
		return Score(CategoryStraight*categoryBase + straightHigh)
	case groups[0].count == 3:
		return Score(CategoryTrips*categoryBase + groups[0].rank*169 + groups[1].rank*13 + groups[2].rank)
	case groups[0].count == 2 && groups[1].count == 2:
		return Score(CategoryTwoPair*categoryBase + groups[0].rank*169 + groups[1].rank*13 + groups[2].rank)
	case groups[0].count == 2:
		return Score(CategoryPair*categoryBase + groups[0].rank*2197 + groups[1].rank*169 + groups[2].rank*13 + groups[3].rank)
	default:
		return Score(CategoryHighCard*categoryBase + kickerValue(ranks))
	}
}

// straightHigh5 reports whether five descending ranks form a straight and
// the rank of its high card. The wheel (A-5-4-3-2) is a 5-high straight.
func straightHigh5(ranks []int) (bool, int) {
	distinct := true
	for i := 1; i < 5; i++ {
		if ranks[i] == ranks[i-1] {
			distinct = false
			break
		}
	}
	if !distinct {
		return false, 0
	}
	if ranks[0]-ranks[4] == 4 {
		return true, ranks[0]
	}
	if ranks[0] == 12 && ranks[1] == 3 && ranks[2] == 2 && ranks[3] == 1 && ranks[4] == 0 {
		return true, 3
	}
	return false, 0
}

// kickerValue packs five descending ranks into a base-13 integer.
func kickerValue(ranks []int) int {
	return ranks[0]*28561 + ranks[1]*2197 + ranks[2]*169 + ranks[3]*13 + ranks[4]
}

// combinations invokes fn with every 5-element index subset of [0, n).
func combinations(n int, fn func([5]int)) {
	var idx [5]int
	for a := 0; a < n-4; a++ {
		for b := a + 1; b < n-3; b++ {
			for c := b + 1; c < n-2; c++ {
				for d := c + 1; d < n-1; d++ {
					for e := d + 1; e < n; e++ {
						idx[0], idx[1], idx[2], idx[3], idx[4] = a, b, c, d, e
						fn(idx)
					}
				}
			}
		}
	}
}

func memoKey(cards []deck.Card) string {
	sorted := append([]deck.Card(nil), cards...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	buf := make([]byte, len(sorted))
	for i, c := range sorted {
		buf[i] = byte(c)
	}
	return string(buf)
}
