package solver

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func testConfig(iterations int) Config {
	return Config{Iterations: iterations, Seed: 1, Workers: 1}
}

func runTrainer(t *testing.T, cfg Config) *Trainer {
	t.Helper()
	trainer, err := NewTrainer(cfg)
	if err != nil {
		t.Fatalf("new trainer: %v", err)
	}
	if err := trainer.Run(context.Background(), nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	return trainer
}

func tablesEqual(t *testing.T, a, b *Table) {
	t.Helper()
	if a.Size() != b.Size() {
		t.Fatalf("table sizes differ: %d vs %d", a.Size(), b.Size())
	}
	for key, ea := range a.Entries() {
		eb, ok := b.Lookup(key)
		if !ok {
			t.Fatalf("key %q missing from second table", key)
		}
		if *ea != *eb {
			t.Fatalf("entries differ at %q:\n%v\n%v", key, *ea, *eb)
		}
	}
}

func TestTrainerDeterministicBySeed(t *testing.T) {
	a := runTrainer(t, testConfig(200))
	b := runTrainer(t, testConfig(200))
	tablesEqual(t, a.Table(), b.Table())
	if a.MeanUtility() != b.MeanUtility() {
		t.Fatalf("mean utility differs: %v vs %v", a.MeanUtility(), b.MeanUtility())
	}
}

func TestTrainerPopulatesTables(t *testing.T) {
	trainer := runTrainer(t, testConfig(100))
	if trainer.Table().Size() == 0 {
		t.Fatal("expected infosets after training")
	}
	if trainer.Iteration() != 100 {
		t.Fatalf("iteration = %d, want 100", trainer.Iteration())
	}
}

func TestCheckpointRoundTripBitwise(t *testing.T) {
	trainer := runTrainer(t, testConfig(150))

	path := filepath.Join(t.TempDir(), "trainer.ckpt")
	if err := trainer.SaveCheckpoint(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	restored, err := LoadTrainer(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if restored.Iteration() != trainer.Iteration() {
		t.Fatalf("iteration = %d, want %d", restored.Iteration(), trainer.Iteration())
	}
	tablesEqual(t, trainer.Table(), restored.Table())
}

// A run interrupted by a checkpoint and resumed must replay exactly the
// updates of an uninterrupted run: every iteration draws from its own
// seed-derived stream.
func TestResumeMatchesUnbrokenRun(t *testing.T) {
	full := runTrainer(t, testConfig(120))

	half := runTrainer(t, testConfig(60))
	path := filepath.Join(t.TempDir(), "half.ckpt")
	if err := half.SaveCheckpoint(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	resumed, err := LoadTrainer(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := resumed.SetIterations(120); err != nil {
		t.Fatalf("set iterations: %v", err)
	}
	if err := resumed.Run(context.Background(), nil); err != nil {
		t.Fatalf("resume run: %v", err)
	}

	tablesEqual(t, full.Table(), resumed.Table())
}

func TestLoadTrainerRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.ckpt")
	writeFile(t, path, []byte("{not json"))
	if _, err := LoadTrainer(path); err == nil {
		t.Fatal("expected corrupt checkpoint error")
	}
}

func TestCancellationFlushesCheckpoint(t *testing.T) {
	cfg := testConfig(1_000_000)
	cfg.CheckpointPath = filepath.Join(t.TempDir(), "cancel.ckpt")
	trainer, err := NewTrainer(cfg)
	if err != nil {
		t.Fatalf("new trainer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- trainer.Run(ctx, nil) }()
	cancel()
	if err := <-done; err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	restored, err := LoadTrainer(cfg.CheckpointPath)
	if err != nil {
		t.Fatalf("flushed checkpoint unreadable: %v", err)
	}
	if restored.Iteration() != trainer.Iteration() {
		t.Fatalf("checkpoint iteration %d != trainer %d", restored.Iteration(), trainer.Iteration())
	}
}

func TestShardedTrainingMergesAllWorkers(t *testing.T) {
	cfg := testConfig(80)
	cfg.Workers = 4
	table, err := TrainSharded(context.Background(), cfg)
	if err != nil {
		t.Fatalf("sharded: %v", err)
	}
	if table.Size() == 0 {
		t.Fatal("expected merged infosets")
	}
}

func TestSelfPlayOscillatesAroundZero(t *testing.T) {
	if testing.Short() {
		t.Skip("convergence check skipped in short mode")
	}
	trainer := runTrainer(t, testConfig(10_000))
	if mean := math.Abs(trainer.MeanUtility()); mean > 3.0 {
		t.Fatalf("self-play mean utility %v drifted from zero", mean)
	}
}

func TestBlueprintAverageIsDistribution(t *testing.T) {
	trainer := runTrainer(t, testConfig(200))
	for key, e := range trainer.Table().Entries() {
		total := 0.0
		for _, v := range e.StrategySum {
			if v < 0 {
				t.Fatalf("negative strategy weight at %q", key)
			}
			total += v
		}
		if total <= 0 {
			continue
		}
		sum := 0.0
		for _, v := range e.StrategySum {
			sum += v / total
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Fatalf("averaged strategy at %q sums to %v", key, sum)
		}
	}
}
