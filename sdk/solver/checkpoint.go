package solver

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tossbot/holdemtoss/internal/fileutil"
	"github.com/tossbot/holdemtoss/internal/game"
)

const checkpointVersion = 1

// ErrCorruptCheckpoint indicates a persisted snapshot failed its schema
// check. The caller decides whether to restart empty or abort.
var ErrCorruptCheckpoint = errors.New("solver: corrupt checkpoint")

type checkpointSnapshot struct {
	Version    int                       `json:"version"`
	Seed       int64                     `json:"seed"`
	Iteration  int64                     `json:"iteration"`
	UtilitySum float64                   `json:"utility_sum"`
	Config     Config                    `json:"config"`
	Entries    map[string]entrySnapshot  `json:"entries"`
}

type entrySnapshot struct {
	RegretSum   []float64 `json:"regret_sum"`
	StrategySum []float64 `json:"strategy_sum"`
}

// SaveCheckpoint writes the trainer's full state to path atomically
// (write-to-temp then rename), so a crash mid-write never leaves a partial
// snapshot behind.
func (t *Trainer) SaveCheckpoint(path string) error {
	snap := checkpointSnapshot{
		Version:    checkpointVersion,
		Seed:       t.cfg.Seed,
		Iteration:  t.iteration,
		UtilitySum: t.utilitySum,
		Config:     t.cfg,
		Entries:    make(map[string]entrySnapshot, t.table.Size()),
	}
	for key, e := range t.table.Entries() {
		snap.Entries[key] = entrySnapshot{
			RegretSum:   append([]float64(nil), e.RegretSum[:]...),
			StrategySum: append([]float64(nil), e.StrategySum[:]...),
		}
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	return fileutil.WriteFileAtomic(path, data, 0o644)
}

// LoadTrainer restores a trainer from a checkpoint. Continuing the run
// produces exactly the updates a single uninterrupted run would have, since
// every iteration draws from its own seed-derived stream.
func LoadTrainer(path string, opts ...Option) (*Trainer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var snap checkpointSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptCheckpoint, err)
	}
	if snap.Version != checkpointVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptCheckpoint, snap.Version)
	}
	if snap.Iteration < 0 {
		return nil, fmt.Errorf("%w: negative iteration", ErrCorruptCheckpoint)
	}

	trainer, err := NewTrainer(snap.Config, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptCheckpoint, err)
	}
	trainer.iteration = snap.Iteration
	trainer.utilitySum = snap.UtilitySum

	for key, es := range snap.Entries {
		if len(es.RegretSum) != game.NumActions || len(es.StrategySum) != game.NumActions {
			return nil, fmt.Errorf("%w: entry %q has wrong vector width", ErrCorruptCheckpoint, key)
		}
		entry := trainer.table.Get(key)
		copy(entry.RegretSum[:], es.RegretSum)
		copy(entry.StrategySum[:], es.StrategySum)
	}
	return trainer, nil
}
