package scoring

import (
	"math"
	"testing"
	"time"

	"StableBench/internal/domain/models"
)

var ssiAt = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func stressInputs(devs []float64, liqScores []float64) ([]models.PegScore, []models.LiquidityScore) {
	pegs := make([]models.PegScore, len(devs))
	for i, d := range devs {
		pegs[i] = models.PegScore{PegDevBps: d}
	}
	liqs := make([]models.LiquidityScore, len(liqScores))
	for i, s := range liqScores {
		liqs[i] = models.LiquidityScore{Score: s}
	}
	return pegs, liqs
}

func TestStressCalmMarketLowLevel(t *testing.T) {
	s := NewStressIndexer(StressConfig{})
	pegs, liqs := stressInputs(
		[]float64{-2, -1, 0, 1, 2, 3},
		[]float64{0.9, 0.88, 0.92, 0.9, 0.87, 0.91},
	)
	got := s.Compute(ssiAt, pegs, liqs)
	if got.Stale {
		t.Fatalf("fresh computation must not be stale")
	}
	if got.Level != models.StressLow {
		t.Fatalf("near-uniform deviations and liquidity should be low stress, got %v (value %v)", got.Level, got.Value)
	}
	if got.Value < 0 || got.Value > 1 {
		t.Fatalf("value out of bounds: %v", got.Value)
	}
}

func TestStressFatTailsRaiseValue(t *testing.T) {
	s := NewStressIndexer(StressConfig{})
	calmPegs, liqs := stressInputs(
		[]float64{-3, -2, -1, 0, 1, 2, 3},
		[]float64{0.9, 0.9, 0.9, 0.9, 0.9, 0.9, 0.9},
	)
	calm := s.Compute(ssiAt, calmPegs, liqs)

	fatPegs, _ := stressInputs(
		[]float64{0, 0, 0, 0, 0, 0, 120},
		nil,
	)
	fat := s.Compute(ssiAt.Add(time.Minute), fatPegs, liqs)
	if fat.Value <= calm.Value {
		t.Fatalf("fat-tailed deviations must raise stress: calm %v fat %v", calm.Value, fat.Value)
	}
	if fat.Kurtosis <= calm.Kurtosis {
		t.Fatalf("kurtosis term must increase: calm %v fat %v", calm.Kurtosis, fat.Kurtosis)
	}
}

func TestStressConcentratedLiquidityRaisesValue(t *testing.T) {
	s := NewStressIndexer(StressConfig{})
	devs := []float64{-2, -1, 0, 1, 2}
	pegs, balanced := stressInputs(devs, []float64{0.8, 0.8, 0.8, 0.8, 0.8})
	a := s.Compute(ssiAt, pegs, balanced)

	_, skewed := stressInputs(devs, []float64{0.95, 0.01, 0.01, 0.01, 0.01})
	b := s.Compute(ssiAt.Add(time.Minute), pegs, skewed)
	if b.Concentration <= a.Concentration {
		t.Fatalf("piled-up liquidity must increase concentration: %v vs %v", a.Concentration, b.Concentration)
	}
	if b.Value <= a.Value {
		t.Fatalf("concentration must push the index up: %v vs %v", a.Value, b.Value)
	}
}

func TestStressOrderIndependent(t *testing.T) {
	s1 := NewStressIndexer(StressConfig{})
	s2 := NewStressIndexer(StressConfig{})
	devs := []float64{5, -40, 12, 0, -3}
	liq := []float64{0.9, 0.2, 0.7, 0.85, 0.6}
	p1, l1 := stressInputs(devs, liq)
	p2, l2 := stressInputs(
		[]float64{-3, 0, 12, -40, 5},
		[]float64{0.6, 0.85, 0.7, 0.2, 0.9},
	)
	a := s1.Compute(ssiAt, p1, l1)
	b := s2.Compute(ssiAt, p2, l2)
	if math.Abs(a.Value-b.Value) > 1e-12 {
		t.Fatalf("value must not depend on constituent order: %v vs %v", a.Value, b.Value)
	}
}

func TestStressCarryForwardBelowMinimum(t *testing.T) {
	s := NewStressIndexer(StressConfig{})
	pegs, liqs := stressInputs(
		[]float64{0, 0, 0, 0, 0, 90},
		[]float64{0.9, 0.9, 0.9, 0.9, 0.9, 0.1},
	)
	first := s.Compute(ssiAt, pegs, liqs)

	later := ssiAt.Add(5 * time.Minute)
	thinPegs, thinLiqs := stressInputs([]float64{1, 2}, []float64{0.9, 0.8})
	carried := s.Compute(later, thinPegs, thinLiqs)
	if !carried.Stale {
		t.Fatalf("thin cross-section must carry the previous value as stale")
	}
	if carried.Value != first.Value {
		t.Fatalf("carried value must match previous: %v vs %v", carried.Value, first.Value)
	}
	if !carried.Timestamp.Equal(later) {
		t.Fatalf("carried index must take the new timestamp, got %v", carried.Timestamp)
	}
	if carried.Level != s.level(carried.Value) {
		t.Fatalf("carried level %v inconsistent with value %v", carried.Level, carried.Value)
	}
}

func TestStressFirstTickBelowMinimumHasLevel(t *testing.T) {
	s := NewStressIndexer(StressConfig{})
	thinPegs, thinLiqs := stressInputs([]float64{1, 2}, []float64{0.9, 0.8})
	got := s.Compute(ssiAt, thinPegs, thinLiqs)
	if !got.Stale {
		t.Fatalf("thin first tick must be stale")
	}
	if got.Level != models.StressLow {
		t.Fatalf("first carried tick must report a bucketed level, got %q", got.Level)
	}
}

func TestStressLevelThresholds(t *testing.T) {
	s := NewStressIndexer(StressConfig{})
	if got := s.level(0.61); got != models.StressHigh {
		t.Fatalf("0.61 should be high, got %v", got)
	}
	if got := s.level(0.6); got != models.StressMedium {
		t.Fatalf("0.60 should be medium, got %v", got)
	}
	if got := s.level(0.4); got != models.StressMedium {
		t.Fatalf("0.40 should be medium, got %v", got)
	}
	if got := s.level(0.39); got != models.StressLow {
		t.Fatalf("0.39 should be low, got %v", got)
	}
}
