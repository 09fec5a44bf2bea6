package abstraction

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tossbot/holdemtoss/internal/deck"
)

func TestPreflopBucket(t *testing.T) {
	tests := []struct {
		hole string
		want string
	}{
		{"AsAhAd", "trips_high"},
		{"8s8h8d", "trips_mid"},
		{"4s4h4d", "trips_low"},
		{"AsAhKd", "pair_high_high"},
		{"AsKhKd", "pair_high_high"},
		{"8s8h3d", "pair_mid_low"},
		{"As8h3d", "high_high_rainbow"},
		{"AsKsQs", "high_high_mono"},
		{"AsKs3d", "high_high_two_suit"},
		{"9s7h3d", "high_mid_rainbow"},
		{"6s5h3d", "high_low_rainbow"},
	}
	for _, tt := range tests {
		hole := deck.MustParseCards(tt.hole)
		deck.SortDesc(hole)
		assert.Equal(t, tt.want, PreflopBucket(hole), "hole %s", tt.hole)
	}
}

func TestPreflopBucketDeterministic(t *testing.T) {
	hole := deck.MustParseCards("AsKs3d")
	deck.SortDesc(hole)
	first := PreflopBucket(hole)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, PreflopBucket(hole))
	}
}

func TestBoardTexturePrecedence(t *testing.T) {
	tests := []struct {
		board string
		want  string
	}{
		{"7s7h7d", "trips"},
		{"7s7hKd", "paired"},
		{"7s7hKs", "paired"},         // pair outranks suit features
		{"As9s4s", "flush_draw"},     // 3+ suited overrides two_tone
		{"AsKs4d", "two_tone"},
		{"9s8h6d", "connected"},      // three ranks inside a 5-rank span
		{"As9h4d", "rainbow"},
		{"Ks7d", "rainbow"},
		{"KsQs", "two_tone"},
		{"", "dry"},
	}
	for _, tt := range tests {
		board := deck.MustParseCards(tt.board)
		assert.Equal(t, tt.want, BoardTexture(board), "board %q", tt.board)
	}
}

func TestPostflopBucket(t *testing.T) {
	hole := deck.MustParseCards("AsAh9c")
	board := deck.MustParseCards("AdKs4d")
	// Trips of aces on a two-tone board.
	assert.Equal(t, "cat3_two_tone", PostflopBucket(hole, board))
}

func TestDiscardBucketPrefersEquityPreservingToss(t *testing.T) {
	// Holding a pair of aces with a dangling seven: tossing the seven
	// keeps the pair, tossing an ace does not.
	hole := deck.MustParseCards("AsAh7c")
	board := deck.MustParseCards("Kd4s")
	got := DiscardBucket(hole, board)
	assert.Equal(t, "d001b2", got)
}

func TestDiscardBucketDeterministic(t *testing.T) {
	hole := deck.MustParseCards("QsJh4c")
	board := deck.MustParseCards("7sKd")
	first := DiscardBucket(hole, board)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, DiscardBucket(hole, board))
	}
}
