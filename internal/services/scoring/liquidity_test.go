package scoring

import (
	"math"
	"testing"
	"time"

	"StableBench/internal/domain/models"
)

func liqObs(class string, venues int, d10, d20, spread float64) *models.AssetObservation {
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	quotes := make([]models.VenueQuote, venues)
	for i := range quotes {
		quotes[i] = models.VenueQuote{Venue: string(rune('a' + i)), Price: 1, Volume: 100, ObservedAt: at}
	}
	return &models.AssetObservation{
		Symbol:     "USDC",
		Timestamp:  at,
		Quotes:     quotes,
		Depth:      models.DepthProfile{Bps10: d10, Bps20: d20},
		SpreadBps:  spread,
		AssetClass: class,
	}
}

func TestLiquidityFullDepthTightSpread(t *testing.T) {
	s := NewLiquidityScorer(LiquidityConfig{
		Capacity:       map[string]float64{"major": 1_000_000},
		VenuesExpected: 3,
	})
	got := s.Score(liqObs("major", 3, 1_000_000, 2_000_000, 0))
	if got.Score != 1 {
		t.Fatalf("expected full score, got %v", got.Score)
	}
	if got.Depth10 != 1 || got.Depth20 != 1 {
		t.Fatalf("expected saturated depth ratios, got %v / %v", got.Depth10, got.Depth20)
	}
}

func TestLiquidityZeroVenues(t *testing.T) {
	s := NewLiquidityScorer(LiquidityConfig{})
	got := s.Score(liqObs("major", 0, 0, 0, 0))
	if got.Score != 0 {
		t.Fatalf("expected score 0 with no venues, got %v", got.Score)
	}
	if got.SpreadPenalty != 1 {
		t.Fatalf("expected full spread penalty, got %v", got.SpreadPenalty)
	}
}

func TestLiquiditySpreadPenaltyCeiling(t *testing.T) {
	s := NewLiquidityScorer(LiquidityConfig{
		Capacity:       map[string]float64{"major": 1_000_000},
		VenuesExpected: 3,
	})
	wide := s.Score(liqObs("major", 3, 1_000_000, 2_000_000, 100))
	// depth saturated, spread term zeroed: 0.4 + 0.4 + 0
	if math.Abs(wide.Score-0.8) > 1e-9 {
		t.Fatalf("expected 0.8 with spread at ceiling, got %v", wide.Score)
	}
	if wide.SpreadPenalty != 1 {
		t.Fatalf("expected clamped penalty 1, got %v", wide.SpreadPenalty)
	}
}

func TestLiquidityCoverageAdjustsCapacity(t *testing.T) {
	s := NewLiquidityScorer(LiquidityConfig{
		Capacity:       map[string]float64{"major": 3_000_000},
		VenuesExpected: 3,
	})
	// one venue of three reporting: reference shrinks to a third
	got := s.Score(liqObs("major", 1, 1_000_000, 2_000_000, 0))
	if math.Abs(got.Depth10-1) > 1e-9 {
		t.Fatalf("expected coverage-adjusted full depth, got %v", got.Depth10)
	}
}

func TestLiquidityUnknownClassUsesDefaultCapacity(t *testing.T) {
	s := NewLiquidityScorer(LiquidityConfig{
		DefaultCapacity: 2_000_000,
		VenuesExpected:  3,
	})
	got := s.Score(liqObs("unlisted", 3, 1_000_000, 2_000_000, 0))
	if math.Abs(got.Depth10-0.5) > 1e-9 {
		t.Fatalf("expected half depth against default capacity, got %v", got.Depth10)
	}
}

func TestLiquidityScoreBounds(t *testing.T) {
	s := NewLiquidityScorer(LiquidityConfig{})
	got := s.Score(liqObs("major", 4, 1e12, 1e12, 0))
	if got.Score < 0 || got.Score > 1 {
		t.Fatalf("score out of bounds: %v", got.Score)
	}
}
