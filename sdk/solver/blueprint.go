package solver

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tossbot/holdemtoss/internal/fileutil"
	"github.com/tossbot/holdemtoss/internal/game"
)

const blueprintVersion = 1

// Blueprint is the play-time artifact: the accumulated strategy weight per
// infoset plus the iteration count that produced it. Regret sums are not
// needed for play and are deliberately left out to keep the file small.
type Blueprint struct {
	Version     int                  `json:"version"`
	GeneratedAt time.Time            `json:"generated_at"`
	Iterations  int64                `json:"iterations"`
	Strategies  map[string][]float64 `json:"strategies"`
}

// Blueprint materialises the strategy weight accumulated so far. The raw
// sums are stored; readers normalise them into the averaged strategy.
func (t *Trainer) Blueprint() *Blueprint {
	bp := &Blueprint{
		Version:     blueprintVersion,
		GeneratedAt: time.Now().UTC(),
		Iterations:  t.iteration,
		Strategies:  make(map[string][]float64, t.table.Size()),
	}
	for key, e := range t.table.Entries() {
		bp.Strategies[key] = append([]float64(nil), e.StrategySum[:]...)
	}
	return bp
}

// BlueprintFromTable builds a blueprint from a standalone table, e.g. the
// merged result of sharded training.
func BlueprintFromTable(table *Table, iterations int64) *Blueprint {
	bp := &Blueprint{
		Version:     blueprintVersion,
		GeneratedAt: time.Now().UTC(),
		Iterations:  iterations,
		Strategies:  make(map[string][]float64, table.Size()),
	}
	for key, e := range table.Entries() {
		bp.Strategies[key] = append([]float64(nil), e.StrategySum[:]...)
	}
	return bp
}

// Save writes the blueprint atomically.
func (b *Blueprint) Save(path string) error {
	if b == nil {
		return errors.New("nil blueprint")
	}
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode blueprint: %w", err)
	}
	return fileutil.WriteFileAtomic(path, data, 0o644)
}

// LoadBlueprint reads a blueprint and checks its schema.
func LoadBlueprint(path string) (*Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var bp Blueprint
	if err := json.Unmarshal(data, &bp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptCheckpoint, err)
	}
	if bp.Version != blueprintVersion {
		return nil, fmt.Errorf("%w: unsupported blueprint version %d", ErrCorruptCheckpoint, bp.Version)
	}
	for key, v := range bp.Strategies {
		if len(v) != game.NumActions {
			return nil, fmt.Errorf("%w: strategy %q has wrong vector width", ErrCorruptCheckpoint, key)
		}
	}
	return &bp, nil
}

// Strategy returns the raw accumulated strategy weight for an infoset.
func (b *Blueprint) Strategy(key string) ([]float64, bool) {
	if b == nil {
		return nil, false
	}
	v, ok := b.Strategies[key]
	return v, ok
}
