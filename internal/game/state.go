package game

import (
	"errors"
	"fmt"
	rand "math/rand/v2"

	"github.com/tossbot/holdemtoss/internal/abstraction"
	"github.com/tossbot/holdemtoss/internal/deck"
	"github.com/tossbot/holdemtoss/internal/evaluator"
)

// Canonical game parameters.
const (
	StartingStack = 400
	SmallBlind    = 1
	BigBlind      = 2
	HoleCards     = 3
	FlopCards     = 2
	MaxRaises     = 4
)

var (
	// ErrIllegalAction indicates the caller supplied an action outside
	// LegalActions. This is a programmer error.
	ErrIllegalAction = errors.New("game: illegal action")

	// ErrDeckExhausted indicates a deal was requested with no cards left.
	// The deck cannot run out in a well-formed hand, so this is fatal.
	ErrDeckExhausted = errors.New("game: deck exhausted")
)

type terminalKind uint8

const (
	notTerminal terminalKind = iota
	terminalFold
	terminalShowdown
)

// State is the full mutable state of one Hold'em Toss hand. Player 0 posts
// the small blind on the button; player 1 posts the big blind and acts first
// on every postflop street. Holes are kept sorted rank-descending so discard
// indices are canonical.
type State struct {
	Hole      [2][]deck.Card
	Board     []deck.Card
	Street    Street
	Pot       int
	Stack     [2]int
	Contrib   [2]int
	Pip       [2]int
	ToAct     int
	History   [6]string
	Discarded [2]deck.Card
	HasTossed [2]bool

	deck     *deck.Deck
	raises   int
	acts     int
	terminal terminalKind
	folder   int
	winner   int // 0, 1, or -1 for a chop; valid once terminal
}

// NewState deals a fresh hand from a deck shuffled with the provided RNG and
// posts the blinds. The small blind acts first preflop.
func NewState(rng *rand.Rand) *State {
	s := &State{
		Street: Preflop,
		winner: -1,
	}
	s.deck = deck.NewShuffled(rng)
	for p := 0; p < 2; p++ {
		s.Hole[p] = make([]deck.Card, 0, HoleCards)
		for i := 0; i < HoleCards; i++ {
			s.Hole[p] = append(s.Hole[p], s.deal())
		}
		deck.SortDesc(s.Hole[p])
	}

	s.Stack = [2]int{StartingStack - SmallBlind, StartingStack - BigBlind}
	s.Pip = [2]int{SmallBlind, BigBlind}
	s.Contrib = s.Pip
	s.Pot = SmallBlind + BigBlind
	s.ToAct = 0
	return s
}

// IsTerminal reports whether the hand is over.
func (s *State) IsTerminal() bool {
	return s.terminal != notTerminal
}

// TerminalReason describes why the hand ended: "fold:<player>" or
// "showdown". Live hands return the empty string.
func (s *State) TerminalReason() string {
	switch s.terminal {
	case terminalFold:
		return fmt.Sprintf("fold:%d", s.folder)
	case terminalShowdown:
		return "showdown"
	default:
		return ""
	}
}

// LegalActions returns the subset of the abstract alphabet valid for the
// player to act. Terminal states return nil.
func (s *State) LegalActions() []Action {
	if s.terminal != notTerminal {
		return nil
	}
	if s.Street == DiscardR {
		return []Action{Discard0, Discard1, Discard2}
	}

	p := s.ToAct
	opp := 1 - p
	toCall := s.Pip[opp] - s.Pip[p]

	actions := make([]Action, 0, 6)
	if toCall > 0 {
		actions = append(actions, Fold, CheckCall)
		if s.raises < MaxRaises && s.Stack[p] > toCall && s.Stack[opp] > 0 {
			actions = s.appendBetActions(actions, p, toCall)
		}
	} else {
		actions = append(actions, CheckCall)
		if s.raises < MaxRaises && s.Stack[p] > 0 && s.Stack[opp] > 0 {
			actions = s.appendBetActions(actions, p, 0)
		}
	}
	return actions
}

// appendBetActions adds the sized bets that fit the actor's remaining stack.
// A size whose clamped amount collides with a smaller symbol is dropped, and
// a size that would commit the whole stack is represented by ALL_IN alone.
func (s *State) appendBetActions(actions []Action, p, toCall int) []Action {
	remaining := s.Stack[p] - toCall
	seen := make([]int, 0, 3)
	for _, a := range []Action{Bet33, Bet66, BetPot} {
		amt := s.betAmount(a, p, toCall)
		if amt >= remaining {
			continue
		}
		dup := false
		for _, prev := range seen {
			if prev == amt {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		seen = append(seen, amt)
		actions = append(actions, a)
	}
	return append(actions, AllIn)
}

// betAmount resolves the chip amount of a bet symbol for the actor, beyond
// the call. Sizes are fractions of the post-call pot, rounded up, floored at
// the big blind, and capped by the remaining stack.
func (s *State) betAmount(a Action, p, toCall int) int {
	remaining := s.Stack[p] - toCall
	if a == AllIn {
		return remaining
	}
	postCall := s.Pot + toCall
	var amt int
	switch a {
	case Bet33:
		amt = ceilDiv(postCall, 3)
	case Bet66:
		amt = ceilDiv(2*postCall, 3)
	case BetPot:
		amt = postCall
	}
	if amt < BigBlind {
		amt = BigBlind
	}
	if amt > remaining {
		amt = remaining
	}
	return amt
}

// Apply mutates the state with one abstract action. Supplying an action not
// in LegalActions returns ErrIllegalAction.
func (s *State) Apply(a Action) error {
	legal := false
	for _, la := range s.LegalActions() {
		if la == a {
			legal = true
			break
		}
	}
	if !legal {
		return fmt.Errorf("%w: %s at %s", ErrIllegalAction, a, s.Street)
	}

	if a.IsDiscard() {
		s.applyDiscard(a)
		return nil
	}

	p := s.ToAct
	opp := 1 - p
	toCall := s.Pip[opp] - s.Pip[p]

	switch {
	case a == Fold:
		s.terminal = terminalFold
		s.folder = p
		s.winner = opp
		s.History[s.Street] += "f"

	case a == CheckCall:
		pay := toCall
		if pay > s.Stack[p] {
			pay = s.Stack[p]
		}
		s.moveChips(p, pay)
		s.History[s.Street] += "c"
		s.acts++
		if s.Pip[p] < s.Pip[opp] {
			// Short all-in call: the uncalled excess goes back.
			excess := s.Pip[opp] - s.Pip[p]
			s.Pip[opp] -= excess
			s.Contrib[opp] -= excess
			s.Stack[opp] += excess
			s.Pot -= excess
		}
		if s.Pip[0] == s.Pip[1] && s.acts >= 2 {
			s.advanceStreet()
		} else {
			s.ToAct = opp
		}

	default: // sized bet or all-in
		raise := s.betAmount(a, p, toCall)
		s.moveChips(p, toCall+raise)
		if s.raises == 0 {
			s.History[s.Street] += "b"
		} else {
			s.History[s.Street] += "r"
		}
		s.raises++
		s.acts++
		s.ToAct = opp
	}
	return nil
}

func (s *State) applyDiscard(a Action) {
	p := s.ToAct
	idx := a.DiscardIndex()
	card := s.Hole[p][idx]
	s.Hole[p] = append(s.Hole[p][:idx], s.Hole[p][idx+1:]...)
	s.Discarded[p] = card
	s.HasTossed[p] = true
	s.Board = append(s.Board, card)

	if s.HasTossed[0] && s.HasTossed[1] {
		s.advanceStreet()
	} else {
		s.ToAct = 1
	}
}

func (s *State) moveChips(p, amount int) {
	s.Stack[p] -= amount
	s.Pip[p] += amount
	s.Contrib[p] += amount
	s.Pot += amount
}

// advanceStreet resets the betting round and moves the hand forward. The big
// blind leads every postflop betting round; the button tosses first in the
// discard round. Betting rounds with an all-in player run out automatically,
// but discards are always taken.
func (s *State) advanceStreet() {
	s.Pip = [2]int{0, 0}
	s.acts = 0
	s.raises = 0

	switch s.Street {
	case Preflop:
		for i := 0; i < FlopCards; i++ {
			s.Board = append(s.Board, s.deal())
		}
		s.Street = Flop
		s.ToAct = 1
	case Flop:
		s.Street = DiscardR
		s.ToAct = 0
	case DiscardR:
		s.Board = append(s.Board, s.deal())
		s.Street = Turn
		s.ToAct = 1
	case Turn:
		s.Board = append(s.Board, s.deal())
		s.Street = River
		s.ToAct = 1
	case River:
		s.showdown()
		return
	}

	if s.Street != DiscardR && (s.Stack[0] == 0 || s.Stack[1] == 0) {
		s.advanceStreet()
	}
}

func (s *State) deal() deck.Card {
	card, ok := s.deck.Deal()
	if !ok {
		panic(ErrDeckExhausted)
	}
	return card
}

// showdown compares each player's best five from their kept hole cards plus
// the full board (both public discards included).
func (s *State) showdown() {
	s.Street = Showdown
	s.terminal = terminalShowdown

	var scores [2]evaluator.Score
	for p := 0; p < 2; p++ {
		pool := make([]deck.Card, 0, len(s.Hole[p])+len(s.Board))
		pool = append(pool, s.Hole[p]...)
		pool = append(pool, s.Board...)
		scores[p] = evaluator.Eval(pool)
	}
	switch {
	case scores[0] > scores[1]:
		s.winner = 0
	case scores[1] > scores[0]:
		s.winner = 1
	default:
		s.winner = -1
	}
}

// Utility returns the terminal payoff for a player in chips relative to
// stake. The winner collects what the loser contributed; a chop returns
// every contribution, netting zero. Non-terminal states return zero.
func (s *State) Utility(player int) int {
	if s.terminal == notTerminal || s.winner == -1 {
		return 0
	}
	if player == s.winner {
		return s.Pot - s.Contrib[player]
	}
	return -s.Contrib[player]
}

// InfosetKey builds the information-set key for a player's view of the
// current state. Only the player's own cards, the public board, and the
// current street's betting history enter.
func (s *State) InfosetKey(player int) string {
	if s.Street >= Showdown {
		return ""
	}
	return abstraction.Key(int(s.Street), player, s.Hole[player], s.Board, s.History[s.Street])
}

// Clone returns a deep copy, independent of the original.
func (s *State) Clone() *State {
	c := *s
	for p := 0; p < 2; p++ {
		c.Hole[p] = append([]deck.Card(nil), s.Hole[p]...)
	}
	c.Board = append([]deck.Card(nil), s.Board...)
	c.deck = s.deck.Clone()
	return &c
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
