package game

import (
	"strings"
	"testing"

	"github.com/tossbot/holdemtoss/internal/deck"
	"github.com/tossbot/holdemtoss/internal/randutil"
)

// The infoset key must depend only on the player's own cards, the public
// board, and the betting history -- never on the opponent's hidden cards or
// the undealt deck.
func TestInfosetKeyHidesOpponentCards(t *testing.T) {
	build := func(oppHole string, deckSeed int64) *State {
		s := &State{Street: Flop, ToAct: 1, winner: -1}
		s.Hole[0] = deck.MustParseCards("KhTc7d")
		s.Hole[1] = deck.MustParseCards(oppHole)
		s.Board = deck.MustParseCards("7sKd")
		s.History[Flop] = "b"
		s.deck = deck.NewShuffled(randutil.New(deckSeed))
		return s
	}

	a := build("QsJh4c", 1)
	b := build("As2h9d", 2)
	if a.InfosetKey(0) != b.InfosetKey(0) {
		t.Fatalf("player 0 key leaked hidden state: %q vs %q", a.InfosetKey(0), b.InfosetKey(0))
	}
}

func TestInfosetKeyDeterministic(t *testing.T) {
	s := NewState(randutil.New(8))
	first := s.InfosetKey(0)
	for i := 0; i < 5; i++ {
		if got := s.InfosetKey(0); got != first {
			t.Fatalf("key changed on repeat: %q vs %q", got, first)
		}
	}
}

func TestInfosetKeyShape(t *testing.T) {
	s := NewState(randutil.New(8))
	key := s.InfosetKey(0)
	if !strings.HasPrefix(key, "s0_sb_") {
		t.Fatalf("preflop key for the small blind should start s0_sb_, got %q", key)
	}
	key1 := s.InfosetKey(1)
	if !strings.HasPrefix(key1, "s0_bb_") {
		t.Fatalf("preflop key for the big blind should start s0_bb_, got %q", key1)
	}
	if key == key1 {
		t.Fatal("positional tags must keep seats distinct")
	}
}

func TestInfosetKeyIncludesHistory(t *testing.T) {
	s := NewState(randutil.New(8))
	before := s.InfosetKey(1)
	if err := s.Apply(BetPot); err != nil {
		t.Fatalf("bet: %v", err)
	}
	after := s.InfosetKey(1)
	if before == after {
		t.Fatal("betting history should change the key")
	}
	if !strings.HasSuffix(after, "_b") {
		t.Fatalf("key should end with the history tokens, got %q", after)
	}
}
