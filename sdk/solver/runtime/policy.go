// Package runtime serves action decisions from a trained blueprint during
// live play. It holds a read-only snapshot loaded at startup and never
// mutates it.
package runtime

import (
	"errors"
	rand "math/rand/v2"

	"github.com/tossbot/holdemtoss/internal/abstraction"
	"github.com/tossbot/holdemtoss/internal/deck"
	"github.com/tossbot/holdemtoss/internal/game"
	"github.com/tossbot/holdemtoss/internal/randutil"
	"github.com/tossbot/holdemtoss/sdk/solver"
)

// ErrUnseenInfoset reports that training never reached the queried infoset.
// The decision returned alongside it is a legal uniform sample, so callers
// may use it directly or escalate to their own heuristic.
var ErrUnseenInfoset = errors.New("runtime: unseen infoset")

// View is the observable state the engine adapter hands the policy: the
// player's own cards, everything public, and nothing else.
type View struct {
	Street  int
	Player  int
	Hole    []deck.Card
	Board   []deck.Card
	History string
}

// Policy samples abstract actions from a blueprint's averaged strategy.
type Policy struct {
	bp  *solver.Blueprint
	rng *rand.Rand
}

// NewPolicy wraps a loaded blueprint. The seed fixes the sampling stream.
func NewPolicy(bp *solver.Blueprint, seed int64) *Policy {
	return &Policy{bp: bp, rng: randutil.New(seed)}
}

// Load reads a blueprint from disk and wraps it.
func Load(path string, seed int64) (*Policy, error) {
	bp, err := solver.LoadBlueprint(path)
	if err != nil {
		return nil, err
	}
	return NewPolicy(bp, seed), nil
}

// Blueprint returns the underlying blueprint (read-only).
func (p *Policy) Blueprint() *solver.Blueprint {
	return p.bp
}

// Decide builds the infoset key for the view, intersects the abstract
// alphabet with the engine's permitted actions, renormalises the averaged
// strategy over that subset, samples, and maps the choice to a concrete
// engine action. The returned action is always legal; ErrUnseenInfoset
// accompanies it when the infoset has no training data.
func (p *Policy) Decide(view View, perm Permitted) (EngineAction, error) {
	actions := AbstractActions(perm)
	if len(actions) == 0 {
		return EngineAction{}, errors.New("runtime: no permitted actions")
	}

	key := abstraction.Key(view.Street, view.Player, view.Hole, view.Board, view.History)

	weights, seen := p.weights(key, actions)
	idx := sampleIndex(weights, p.rng)
	act := Concrete(actions[idx], perm)
	if !seen {
		return act, ErrUnseenInfoset
	}
	return act, nil
}

// weights returns the averaged distribution over the given abstract actions,
// renormalised to the subset. Unseen infosets and all-zero subsets fall back
// to uniform.
func (p *Policy) weights(key string, actions []game.Action) ([]float64, bool) {
	out := make([]float64, len(actions))
	vec, ok := p.bp.Strategy(key)
	if !ok {
		uniform(out)
		return out, false
	}
	total := 0.0
	for i, a := range actions {
		out[i] = vec[a]
		total += vec[a]
	}
	if total <= 0 {
		uniform(out)
		return out, true
	}
	for i := range out {
		out[i] /= total
	}
	return out, true
}

func uniform(out []float64) {
	v := 1.0 / float64(len(out))
	for i := range out {
		out[i] = v
	}
}

func sampleIndex(dist []float64, rng *rand.Rand) int {
	r := rng.Float64()
	acc := 0.0
	for i, v := range dist {
		acc += v
		if r <= acc {
			return i
		}
	}
	return len(dist) - 1
}
