package solver

import (
	"context"
	"fmt"
	rand "math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/tossbot/holdemtoss/internal/game"
	"github.com/tossbot/holdemtoss/internal/randutil"
)

// Progress carries metadata emitted during a training run.
type Progress struct {
	Iteration   int64
	Infosets    int
	MeanUtility float64
}

// Trainer runs external-sampling MCCFR over the abstract Hold'em Toss game.
// It owns the process-wide regret and strategy tables; between checkpoint
// boundaries nothing else mutates them.
type Trainer struct {
	cfg        Config
	table      *Table
	iteration  int64
	utilitySum float64
	clock      quartz.Clock
	logger     *log.Logger
}

// Option configures a Trainer.
type Option func(*Trainer)

// WithClock substitutes the wall clock, letting tests drive time-based
// checkpointing with a mock.
func WithClock(clock quartz.Clock) Option {
	return func(t *Trainer) { t.clock = clock }
}

// WithLogger substitutes the trainer's logger.
func WithLogger(logger *log.Logger) Option {
	return func(t *Trainer) { t.logger = logger }
}

// NewTrainer constructs a trainer with empty tables.
func NewTrainer(cfg Config, opts ...Option) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := &Trainer{
		cfg:    cfg,
		table:  NewTable(),
		clock:  quartz.NewReal(),
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Iteration returns the number of completed iterations.
func (t *Trainer) Iteration() int64 {
	return t.iteration
}

// Table exposes the trainer's tables, primarily for tests and merging.
func (t *Trainer) Table() *Table {
	return t.table
}

// Config returns the trainer's configuration.
func (t *Trainer) Config() Config {
	return t.cfg
}

// MeanUtility is the rolling mean of the root utility returned to the
// traverser. Self-play of a zero-sum game oscillates around zero, so this is
// a convergence health signal rather than a correctness quantity.
func (t *Trainer) MeanUtility() float64 {
	if t.iteration == 0 {
		return 0
	}
	return t.utilitySum / float64(t.iteration)
}

// SetIterations raises the target iteration count, e.g. when extending a
// resumed run.
func (t *Trainer) SetIterations(n int) error {
	if int64(n) < t.iteration {
		return fmt.Errorf("total iterations %d less than completed %d", n, t.iteration)
	}
	t.cfg.Iterations = n
	return nil
}

// Run executes iterations until the configured total is reached or the
// context is cancelled. Cancellation is honoured at iteration boundaries and
// flushes a final checkpoint, so the iteration counter only ever counts
// fully applied traversals.
func (t *Trainer) Run(ctx context.Context, progress func(Progress)) error {
	batch := t.cfg.ProgressEvery
	if batch == 0 {
		batch = t.cfg.Iterations / 100
		if batch == 0 {
			batch = 1
		}
	}

	lastCheckpoint := t.clock.Now()
	for t.iteration < int64(t.cfg.Iterations) {
		select {
		case <-ctx.Done():
			t.flushCheckpoint()
			return ctx.Err()
		default:
		}

		if err := t.iterate(); err != nil {
			return err
		}

		if t.cfg.CheckpointPath != "" {
			due := t.cfg.CheckpointEvery > 0 && t.iteration%int64(t.cfg.CheckpointEvery) == 0
			if !due && t.cfg.CheckpointInterval > 0 {
				due = t.clock.Now().Sub(lastCheckpoint) >= t.cfg.CheckpointInterval
			}
			if due {
				// A failed write is retried at the next boundary
				// rather than killing the run.
				if err := t.SaveCheckpoint(t.cfg.CheckpointPath); err != nil {
					t.logger.Warn("checkpoint write failed", "path", t.cfg.CheckpointPath, "err", err)
				} else {
					lastCheckpoint = t.clock.Now()
				}
			}
		}

		if progress != nil && t.iteration%int64(batch) == 0 {
			progress(Progress{Iteration: t.iteration, Infosets: t.table.Size(), MeanUtility: t.MeanUtility()})
		}
	}

	t.flushCheckpoint()
	if progress != nil {
		progress(Progress{Iteration: t.iteration, Infosets: t.table.Size(), MeanUtility: t.MeanUtility()})
	}
	return nil
}

// iterate runs a single MCCFR traversal. The traverser alternates with
// iteration parity and each iteration draws from its own seed-derived RNG
// stream, so a resumed run replays exactly the deals of an unbroken one.
func (t *Trainer) iterate() error {
	i := t.iteration
	rng := randutil.New(randutil.Derive(t.cfg.Seed, i))
	traverser := int(i % 2)

	state := game.NewState(rng)
	util, err := t.cfr(state, traverser, rng)
	if err != nil {
		return err
	}
	t.utilitySum += util
	t.iteration++
	return nil
}

// cfr is the external-sampling recursion. Chance is sampled once per
// iteration by the shuffled deck; opponent nodes sample one action from the
// current regret-matching strategy; traverser nodes enumerate every legal
// action and accumulate regret and strategy weight.
func (t *Trainer) cfr(s *game.State, traverser int, rng *rand.Rand) (float64, error) {
	if s.IsTerminal() {
		return float64(s.Utility(traverser)), nil
	}

	p := s.ToAct
	actions := s.LegalActions()
	entry := t.table.Get(s.InfosetKey(p))
	strategy := entry.Strategy(actions)

	if p != traverser {
		idx := sampleIndex(strategy, rng)
		next := s.Clone()
		if err := next.Apply(actions[idx]); err != nil {
			return 0, err
		}
		return t.cfr(next, traverser, rng)
	}

	utils := make([]float64, len(actions))
	nodeUtil := 0.0
	for i, a := range actions {
		next := s.Clone()
		if err := next.Apply(a); err != nil {
			return 0, err
		}
		u, err := t.cfr(next, traverser, rng)
		if err != nil {
			return 0, err
		}
		utils[i] = u
		nodeUtil += strategy[i] * u
	}

	for i, a := range actions {
		entry.RegretSum[a] += utils[i] - nodeUtil
		entry.StrategySum[a] += strategy[i]
	}
	return nodeUtil, nil
}

func (t *Trainer) flushCheckpoint() {
	if t.cfg.CheckpointPath == "" {
		return
	}
	if err := t.SaveCheckpoint(t.cfg.CheckpointPath); err != nil {
		t.logger.Warn("final checkpoint write failed", "path", t.cfg.CheckpointPath, "err", err)
	}
}

// sampleIndex draws an index from a probability vector.
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

// TrainSharded splits a run across cfg.Workers goroutines, each with a
// private table and a worker-derived seed stream, and merges the results by
// additive reduction. The merged tables are not byte-identical to a
// single-threaded run of the same total, but both tables are additive
// monoids so the combination is well-defined.
func TrainSharded(ctx context.Context, cfg Config, opts ...Option) (*Table, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	workers := cfg.Workers
	if workers <= 1 {
		trainer, err := NewTrainer(cfg, opts...)
		if err != nil {
			return nil, err
		}
		if err := trainer.Run(ctx, nil); err != nil {
			return nil, err
		}
		return trainer.Table(), nil
	}

	per := cfg.Iterations / workers
	extra := cfg.Iterations % workers

	g, ctx := errgroup.WithContext(ctx)
	tables := make([]*Table, workers)
	for w := 0; w < workers; w++ {
		sub := cfg
		sub.Workers = 1
		sub.CheckpointPath = ""
		sub.Iterations = per
		if w < extra {
			sub.Iterations++
		}
		sub.Seed = randutil.Derive(cfg.Seed, int64(w+1))
		if sub.Iterations == 0 {
			continue
		}
		g.Go(func() error {
			trainer, err := NewTrainer(sub, opts...)
			if err != nil {
				return err
			}
			if err := trainer.Run(ctx, nil); err != nil {
				return err
			}
			tables[w] = trainer.Table()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := NewTable()
	for _, tbl := range tables {
		if tbl != nil {
			merged.Merge(tbl)
		}
	}
	return merged, nil
}
