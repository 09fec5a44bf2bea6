package runtime

import (
	"github.com/tossbot/holdemtoss/internal/game"
)

// Permitted describes the actions the tournament engine offers this turn,
// along with the chip quantities needed to size a raise. RaiseMin and
// RaiseMax bound the additional chips beyond the call.
type Permitted struct {
	Fold    bool
	Check   bool
	Call    bool
	Raise   bool
	Discard bool

	RaiseMin int
	RaiseMax int
	Pot      int
	ToCall   int
	Stack    int
}

// EngineKind is the concrete action family spoken by the engine.
type EngineKind uint8

const (
	EngineFold EngineKind = iota
	EngineCheck
	EngineCall
	EngineRaise
	EngineDiscard
)

// EngineAction is a concrete, immediately playable action. Amount is the
// raise size for EngineRaise and the sorted-hole index for EngineDiscard.
type EngineAction struct {
	Kind   EngineKind
	Amount int
}

// AbstractActions returns the abstract symbols that have an engine
// counterpart this turn. Raise symbols are kept whenever raising is offered
// at all, since clamping into [RaiseMin, RaiseMax] makes each representable.
func AbstractActions(perm Permitted) []game.Action {
	if perm.Discard {
		return []game.Action{game.Discard0, game.Discard1, game.Discard2}
	}
	actions := make([]game.Action, 0, 6)
	if perm.Fold {
		actions = append(actions, game.Fold)
	}
	if perm.Check || perm.Call {
		actions = append(actions, game.CheckCall)
	}
	if perm.Raise && perm.RaiseMax >= perm.RaiseMin {
		actions = append(actions, game.Bet33, game.Bet66, game.BetPot, game.AllIn)
	}
	return actions
}

// Concrete maps a sampled abstract action to an engine action, computing the
// raise size on demand from the current pot and clamping it into the
// engine's bounds.
func Concrete(a game.Action, perm Permitted) EngineAction {
	switch {
	case a.IsDiscard():
		return EngineAction{Kind: EngineDiscard, Amount: a.DiscardIndex()}
	case a == game.Fold:
		return EngineAction{Kind: EngineFold}
	case a == game.CheckCall:
		if perm.Check {
			return EngineAction{Kind: EngineCheck}
		}
		return EngineAction{Kind: EngineCall}
	default:
		return EngineAction{Kind: EngineRaise, Amount: raiseAmount(a, perm)}
	}
}

func raiseAmount(a game.Action, perm Permitted) int {
	postCall := perm.Pot + perm.ToCall
	var amt int
	switch a {
	case game.Bet33:
		amt = ceilDiv(postCall, 3)
	case game.Bet66:
		amt = ceilDiv(2*postCall, 3)
	case game.BetPot:
		amt = postCall
	case game.AllIn:
		amt = perm.Stack - perm.ToCall
	}
	if amt < perm.RaiseMin {
		amt = perm.RaiseMin
	}
	if amt > perm.RaiseMax {
		amt = perm.RaiseMax
	}
	return amt
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
