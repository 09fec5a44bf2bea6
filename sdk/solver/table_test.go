package solver

import (
	"math"
	"testing"

	"github.com/tossbot/holdemtoss/internal/game"
)

func TestStrategyIsDistribution(t *testing.T) {
	e := &Entry{}
	e.RegretSum[game.Fold] = 3
	e.RegretSum[game.CheckCall] = -5 // negative regret is clipped
	e.RegretSum[game.BetPot] = 1

	actions := []game.Action{game.Fold, game.CheckCall, game.BetPot}
	strat := e.Strategy(actions)

	sum := 0.0
	for _, v := range strat {
		if v < 0 {
			t.Fatalf("negative probability %v", v)
		}
		sum += v
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("strategy sums to %v", sum)
	}
	if math.Abs(strat[0]-0.75) > 1e-9 || strat[1] != 0 || math.Abs(strat[2]-0.25) > 1e-9 {
		t.Fatalf("regret matching wrong: %v", strat)
	}
}

func TestStrategyUniformWithoutPositiveRegret(t *testing.T) {
	e := &Entry{}
	e.RegretSum[game.Fold] = -2
	actions := []game.Action{game.Fold, game.CheckCall}
	strat := e.Strategy(actions)
	if strat[0] != 0.5 || strat[1] != 0.5 {
		t.Fatalf("expected uniform fallback, got %v", strat)
	}
}

func TestAverageStrategyIsDistribution(t *testing.T) {
	e := &Entry{}
	e.StrategySum[game.Fold] = 2
	e.StrategySum[game.CheckCall] = 6

	actions := []game.Action{game.Fold, game.CheckCall}
	avg := e.AverageStrategy(actions)
	if math.Abs(avg[0]-0.25) > 1e-9 || math.Abs(avg[1]-0.75) > 1e-9 {
		t.Fatalf("average strategy wrong: %v", avg)
	}

	sum := 0.0
	for _, v := range avg {
		if v < 0 {
			t.Fatalf("negative probability %v", v)
		}
		sum += v
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("average strategy sums to %v", sum)
	}
}

func TestAverageStrategyUniformWhenUnweighted(t *testing.T) {
	e := &Entry{}
	actions := []game.Action{game.Fold, game.CheckCall, game.AllIn}
	avg := e.AverageStrategy(actions)
	for _, v := range avg {
		if math.Abs(v-1.0/3) > 1e-9 {
			t.Fatalf("expected uniform, got %v", avg)
		}
	}
}

func TestMergeIsElementwiseAddition(t *testing.T) {
	a := NewTable()
	b := NewTable()

	ea := a.Get("s0_sb_pair_high_high_")
	ea.RegretSum[game.Fold] = 1
	ea.StrategySum[game.CheckCall] = 2

	eb := b.Get("s0_sb_pair_high_high_")
	eb.RegretSum[game.Fold] = 3
	eb.StrategySum[game.CheckCall] = 4
	other := b.Get("s2_oop_cat1_dry_")
	other.RegretSum[game.BetPot] = 7

	a.Merge(b)

	merged, _ := a.Lookup("s0_sb_pair_high_high_")
	if merged.RegretSum[game.Fold] != 4 {
		t.Fatalf("regret merge = %v, want 4", merged.RegretSum[game.Fold])
	}
	if merged.StrategySum[game.CheckCall] != 6 {
		t.Fatalf("strategy merge = %v, want 6", merged.StrategySum[game.CheckCall])
	}
	added, ok := a.Lookup("s2_oop_cat1_dry_")
	if !ok || added.RegretSum[game.BetPot] != 7 {
		t.Fatal("keys unique to the merged-in table must carry over")
	}
	if a.Size() != 2 {
		t.Fatalf("merged table has %d infosets, want 2", a.Size())
	}
}
