package solver

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config controls an MCCFR training run.
type Config struct {
	// Iterations is the total iteration count the run targets. Resumed
	// runs continue from the checkpointed iteration toward this total.
	Iterations int

	// Seed fixes the RNG stream. Two runs with equal seeds, equal starting
	// tables, and equal iteration counts produce byte-equal tables.
	Seed int64

	// Workers > 1 shards training across goroutines with per-worker tables
	// merged additively at the end. 0 or 1 trains single-threaded.
	Workers int

	// CheckpointPath enables periodic snapshots when non-empty.
	CheckpointPath string

	// CheckpointEvery writes a snapshot every N completed iterations.
	CheckpointEvery int

	// CheckpointInterval writes a snapshot when this much wall time has
	// passed since the last one. Zero disables time-based checkpoints.
	CheckpointInterval time.Duration

	// ProgressEvery invokes the progress callback every N iterations.
	// Zero picks one percent of the total.
	ProgressEvery int
}

// Validate ensures the training parameters are safe to use.
func (c Config) Validate() error {
	if c.Iterations <= 0 {
		return errors.New("iterations must be > 0")
	}
	if c.Workers < 0 {
		return errors.New("workers cannot be negative")
	}
	if c.CheckpointEvery < 0 {
		return errors.New("checkpoint interval cannot be negative")
	}
	if c.CheckpointInterval < 0 {
		return errors.New("checkpoint duration cannot be negative")
	}
	if c.ProgressEvery < 0 {
		return errors.New("progress interval cannot be negative")
	}
	return nil
}

// DefaultConfig returns a configuration for local experimentation.
func DefaultConfig() Config {
	return Config{
		Iterations:         100_000,
		Seed:               1,
		Workers:            1,
		CheckpointEvery:    10_000,
		CheckpointInterval: 5 * time.Minute,
	}
}

// fileConfig is the HCL shape of an optional training config file.
type fileConfig struct {
	Iterations int             `hcl:"iterations,optional"`
	Seed       int64           `hcl:"seed,optional"`
	Workers    int             `hcl:"workers,optional"`
	Checkpoint *fileCheckpoint `hcl:"checkpoint,block"`
}

type fileCheckpoint struct {
	Path            string `hcl:"path"`
	Every           int    `hcl:"every,optional"`
	IntervalMinutes int    `hcl:"interval_minutes,optional"`
}

// LoadConfigFile overlays an HCL config file onto the defaults. A missing
// file is not an error; the defaults are returned unchanged.
func LoadConfigFile(filename string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return cfg, nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return cfg, fmt.Errorf("parse config %s: %s", filename, diags.Error())
	}

	var fc fileConfig
	if diags := gohcl.DecodeBody(file.Body, nil, &fc); diags.HasErrors() {
		return cfg, fmt.Errorf("decode config %s: %s", filename, diags.Error())
	}

	if fc.Iterations > 0 {
		cfg.Iterations = fc.Iterations
	}
	if fc.Seed != 0 {
		cfg.Seed = fc.Seed
	}
	if fc.Workers > 0 {
		cfg.Workers = fc.Workers
	}
	if fc.Checkpoint != nil {
		cfg.CheckpointPath = fc.Checkpoint.Path
		cfg.CheckpointEvery = fc.Checkpoint.Every
		cfg.CheckpointInterval = time.Duration(fc.Checkpoint.IntervalMinutes) * time.Minute
	}
	return cfg, cfg.Validate()
}
