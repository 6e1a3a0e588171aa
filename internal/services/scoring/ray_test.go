package scoring

import (
	"math"
	"testing"
	"time"

	"StableBench/internal/domain/models"
)

var rayAt = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func ps(v float64) models.PegScore       { return models.PegScore{Score: v} }
func ls(v float64) models.LiquidityScore { return models.LiquidityScore{Score: v} }

func TestAdjustDiscountsYield(t *testing.T) {
	a := NewYieldAdjuster(YieldConfig{Alpha: 1.0, Beta: 0.7})
	got := a.Adjust("USDT", rayAt, 8.0, ps(0.9), ls(0.8))
	want := 8.0 * 0.9 * math.Pow(0.8, 0.7)
	if math.Abs(got.RayAPY-want) > 1e-9 {
		t.Fatalf("expected %v, got %v", want, got.RayAPY)
	}
	if got.RayAPY >= got.RawAPY {
		t.Fatalf("adjustment must discount: ray %v raw %v", got.RayAPY, got.RawAPY)
	}
}

func TestAdjustPerfectScoresPassThrough(t *testing.T) {
	a := NewYieldAdjuster(YieldConfig{})
	got := a.Adjust("USDC", rayAt, 5.0, ps(1), ls(1))
	if got.RayAPY != 5.0 {
		t.Fatalf("perfect scores must not discount, got %v", got.RayAPY)
	}
	if got.Tier != models.TierLow {
		t.Fatalf("expected low tier, got %v", got.Tier)
	}
}

func TestAdjustZeroPegZeroesYield(t *testing.T) {
	a := NewYieldAdjuster(YieldConfig{})
	got := a.Adjust("USDX", rayAt, 30.0, ps(0), ls(1))
	if got.RayAPY != 0 {
		t.Fatalf("zero peg score must zero the yield, got %v", got.RayAPY)
	}
	if got.Tier != models.TierHigh {
		t.Fatalf("expected high tier, got %v", got.Tier)
	}
}

func TestAdjustMonotoneInScores(t *testing.T) {
	a := NewYieldAdjuster(YieldConfig{})
	lower := a.Adjust("DAI", rayAt, 6.0, ps(0.7), ls(0.9))
	higher := a.Adjust("DAI", rayAt, 6.0, ps(0.8), ls(0.9))
	if lower.RayAPY >= higher.RayAPY {
		t.Fatalf("higher peg score must yield higher RAY: %v vs %v", lower.RayAPY, higher.RayAPY)
	}
}

func TestTierFromWeakerScore(t *testing.T) {
	a := NewYieldAdjuster(YieldConfig{})
	cases := []struct {
		peg, liq float64
		want     models.RiskTier
	}{
		{0.95, 0.9, models.TierLow},
		{0.95, 0.7, models.TierMedium},
		{0.61, 0.99, models.TierMedium},
		{0.5, 0.99, models.TierHigh},
		{0.8, 0.8, models.TierMedium}, // boundary: 0.8 is not above the low threshold
	}
	for _, c := range cases {
		got := a.Adjust("X", rayAt, 4.0, ps(c.peg), ls(c.liq))
		if got.Tier != c.want {
			t.Fatalf("peg=%v liq=%v: expected %v, got %v", c.peg, c.liq, c.want, got.Tier)
		}
	}
}
