package solver

import (
	"github.com/tossbot/holdemtoss/internal/game"
)

// Entry accumulates regrets and strategy weight for one infoset. Vectors are
// fixed at the 9-symbol alphabet width; slots for actions that are never
// legal at the infoset stay zero and are masked out at read time.
type Entry struct {
	RegretSum   [game.NumActions]float64
	StrategySum [game.NumActions]float64
}

// Strategy computes the current regret-matching distribution over the given
// legal actions: positive regrets normalised, or uniform when none are
// positive. Every entry is non-negative and the vector sums to one.
func (e *Entry) Strategy(actions []game.Action) []float64 {
	strat := make([]float64, len(actions))
	total := 0.0
	for i, a := range actions {
		if r := e.RegretSum[a]; r > 0 {
			strat[i] = r
			total += r
		}
	}
	if total <= 0 {
		v := 1.0 / float64(len(actions))
		for i := range strat {
			strat[i] = v
		}
		return strat
	}
	for i := range strat {
		strat[i] /= total
	}
	return strat
}

// AverageStrategy normalises the accumulated strategy weight over the given
// actions. An infoset with no accumulated weight falls back to uniform; this
// averaged policy, not the latest regret-matching one, converges to Nash.
func (e *Entry) AverageStrategy(actions []game.Action) []float64 {
	strat := make([]float64, len(actions))
	total := 0.0
	for _, a := range actions {
		total += e.StrategySum[a]
	}
	if total <= 0 {
		v := 1.0 / float64(len(actions))
		for i := range strat {
			strat[i] = v
		}
		return strat
	}
	for i, a := range actions {
		strat[i] = e.StrategySum[a] / total
	}
	return strat
}

// Table maps infoset keys to their accumulated entries. The reference
// trainer is single-threaded, so no locking happens here; parallel training
// shards one table per worker and merges.
type Table struct {
	entries map[string]*Entry
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[string]*Entry)}
}

// Get returns the entry for a key, creating it if missing.
func (t *Table) Get(key string) *Entry {
	e, ok := t.entries[key]
	if !ok {
		e = &Entry{}
		t.entries[key] = e
	}
	return e
}

// Lookup returns the entry for a key without creating one.
func (t *Table) Lookup(key string) (*Entry, bool) {
	e, ok := t.entries[key]
	return e, ok
}

// Size returns the number of infosets tracked.
func (t *Table) Size() int {
	return len(t.entries)
}

// Entries exposes the underlying map for serialisation snapshots.
func (t *Table) Entries() map[string]*Entry {
	return t.entries
}

// Merge folds another table into this one by elementwise addition. Regret
// and strategy sums are additive monoids, so sharded training runs combine
// with a plain reduction.
func (t *Table) Merge(other *Table) {
	for key, src := range other.entries {
		dst := t.Get(key)
		for i := 0; i < game.NumActions; i++ {
			dst.RegretSum[i] += src.RegretSum[i]
			dst.StrategySum[i] += src.StrategySum[i]
		}
	}
}
