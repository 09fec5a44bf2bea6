package main

import (
	"context"
	"fmt"
	"os/signal"
	"sort"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/schollz/progressbar/v3"

	"github.com/tossbot/holdemtoss/internal/game"
	"github.com/tossbot/holdemtoss/internal/randutil"
	"github.com/tossbot/holdemtoss/sdk/solver"
)

var cli struct {
	Debug bool `help:"enable debug logging"`

	Train  TrainCmd  `cmd:"" help:"run MCCFR self-play training and emit a blueprint"`
	Resume ResumeCmd `cmd:"" help:"continue training from a checkpoint"`
	Eval   EvalCmd   `cmd:"" help:"self-play a blueprint and report the mean utility"`
	Policy PolicyCmd `cmd:"" help:"inspect a blueprint"`
}

type TrainCmd struct {
	Out             string `help:"path to write the blueprint" required:""`
	Iterations      int    `help:"number of MCCFR iterations" default:"100000"`
	Seed            int64  `help:"random seed" default:"1"`
	Workers         int    `help:"parallel training shards merged additively" default:"1"`
	CheckpointPath  string `help:"path to write periodic checkpoints"`
	CheckpointEvery int    `help:"checkpoint interval in iterations (0 disables)" default:"10000"`
	Config          string `help:"optional HCL config file; flags override it"`
	NoProgress      bool   `help:"disable the progress bar"`
}

type ResumeCmd struct {
	From       string `help:"checkpoint file to resume from" required:""`
	Out        string `help:"path to write the blueprint" required:""`
	Iterations int    `help:"new total iteration count (0 keeps the checkpointed total)" default:"0"`
	NoProgress bool   `help:"disable the progress bar"`
}

type EvalCmd struct {
	Blueprint string `help:"path to the blueprint" required:""`
	Hands     int    `help:"number of hands to simulate" default:"10000"`
	Seed      int64  `help:"random seed" default:"1"`
}

type PolicyCmd struct {
	Blueprint string `help:"path to the blueprint" required:""`
	Top       int    `help:"show the N most visited infosets" default:"10"`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("tossbot"),
		kong.Description("Hold'em Toss MCCFR solver tooling"),
		kong.UsageOnError(),
	)

	if cli.Debug {
		log.SetLevel(log.DebugLevel)
	}

	if err := ctx.Run(); err != nil {
		log.Fatal("command failed", "err", err)
	}
}

// signalContext cancels on SIGINT/SIGTERM so training flushes a final
// checkpoint before exiting.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func (cmd *TrainCmd) Run() error {
	cfg := solver.DefaultConfig()
	if cmd.Config != "" {
		loaded, err := solver.LoadConfigFile(cmd.Config)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	cfg.Iterations = cmd.Iterations
	cfg.Seed = cmd.Seed
	cfg.Workers = cmd.Workers
	cfg.CheckpointPath = cmd.CheckpointPath
	cfg.CheckpointEvery = cmd.CheckpointEvery

	ctx, cancel := signalContext()
	defer cancel()

	if cfg.Workers > 1 {
		log.Info("training sharded", "iterations", cfg.Iterations, "workers", cfg.Workers, "seed", cfg.Seed)
		table, err := solver.TrainSharded(ctx, cfg)
		if err != nil {
			return err
		}
		bp := solver.BlueprintFromTable(table, int64(cfg.Iterations))
		if err := bp.Save(cmd.Out); err != nil {
			return err
		}
		log.Info("blueprint written", "path", cmd.Out, "infosets", table.Size())
		return nil
	}

	trainer, err := solver.NewTrainer(cfg)
	if err != nil {
		return err
	}
	return runTrainer(ctx, trainer, cmd.Out, !cmd.NoProgress)
}

func (cmd *ResumeCmd) Run() error {
	trainer, err := solver.LoadTrainer(cmd.From)
	if err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}
	if cmd.Iterations > 0 {
		if err := trainer.SetIterations(cmd.Iterations); err != nil {
			return err
		}
	}
	log.Info("resuming", "from", cmd.From, "iteration", trainer.Iteration(), "total", trainer.Config().Iterations)

	ctx, cancel := signalContext()
	defer cancel()
	return runTrainer(ctx, trainer, cmd.Out, !cmd.NoProgress)
}

func runTrainer(ctx context.Context, trainer *solver.Trainer, out string, showBar bool) error {
	cfg := trainer.Config()
	log.Info("training", "iterations", cfg.Iterations, "seed", cfg.Seed, "checkpoint", cfg.CheckpointPath)

	var bar *progressbar.ProgressBar
	if showBar {
		bar = progressbar.Default(int64(cfg.Iterations), "training")
		bar.Set64(trainer.Iteration())
	}

	err := trainer.Run(ctx, func(p solver.Progress) {
		if bar != nil {
			bar.Set64(p.Iteration)
		}
		log.Debug("progress", "iteration", p.Iteration, "infosets", p.Infosets, "mean_utility", p.MeanUtility)
	})
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	log.Info("training complete",
		"iterations", trainer.Iteration(),
		"infosets", trainer.Table().Size(),
		"mean_utility", trainer.MeanUtility())

	bp := trainer.Blueprint()
	if err := bp.Save(out); err != nil {
		return err
	}
	log.Info("blueprint written", "path", out)
	return nil
}

func (cmd *EvalCmd) Run() error {
	bp, err := solver.LoadBlueprint(cmd.Blueprint)
	if err != nil {
		return err
	}

	rng := randutil.New(cmd.Seed)
	total := 0
	for h := 0; h < cmd.Hands; h++ {
		state := game.NewState(rng)
		for !state.IsTerminal() {
			actions := state.LegalActions()
			weights := averageWeights(bp, state.InfosetKey(state.ToAct), actions)
			idx := sampleIndex(weights, rng)
			if err := state.Apply(actions[idx]); err != nil {
				return err
			}
		}
		total += state.Utility(0)
	}

	mean := float64(total) / float64(cmd.Hands)
	log.Info("evaluation complete", "hands", cmd.Hands, "mean_utility_p0", mean)
	fmt.Printf("mean utility (player 0): %+.4f chips/hand over %d hands\n", mean, cmd.Hands)
	return nil
}

func (cmd *PolicyCmd) Run() error {
	bp, err := solver.LoadBlueprint(cmd.Blueprint)
	if err != nil {
		return err
	}

	fmt.Printf("blueprint: %d infosets, %d iterations, generated %s\n",
		len(bp.Strategies), bp.Iterations, bp.GeneratedAt.Format("2006-01-02 15:04:05"))

	type visited struct {
		key    string
		weight float64
	}
	ranked := make([]visited, 0, len(bp.Strategies))
	for key, vec := range bp.Strategies {
		total := 0.0
		for _, v := range vec {
			total += v
		}
		ranked = append(ranked, visited{key: key, weight: total})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].weight > ranked[j].weight })

	for i := 0; i < cmd.Top && i < len(ranked); i++ {
		vec := bp.Strategies[ranked[i].key]
		fmt.Printf("%-48s weight=%.1f", ranked[i].key, ranked[i].weight)
		for a := 0; a < game.NumActions; a++ {
			if vec[a] > 0 {
				fmt.Printf(" %s=%.3f", game.Action(a), vec[a]/ranked[i].weight)
			}
		}
		fmt.Println()
	}
	return nil
}

// averageWeights normalises a blueprint's accumulated strategy over the
// legal actions, uniform when the infoset is unseen or unweighted.
func averageWeights(bp *solver.Blueprint, key string, actions []game.Action) []float64 {
	out := make([]float64, len(actions))
	vec, ok := bp.Strategy(key)
	total := 0.0
	if ok {
		for i, a := range actions {
			out[i] = vec[a]
			total += vec[a]
		}
	}
	if total <= 0 {
		v := 1.0 / float64(len(out))
		for i := range out {
			out[i] = v
		}
		return out
	}
	for i := range out {
		out[i] /= total
	}
	return out
}

func sampleIndex(dist []float64, rng interface{ Float64() float64 }) int {
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
