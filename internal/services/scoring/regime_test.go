package scoring

import (
	"math"
	"testing"
	"time"

	"StableBench/internal/domain/models"
)

var regimeAt = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func calmStress() models.StressIndex {
	return models.StressIndex{Level: models.StressLow}
}

// warm fills the trailing window with a flat series so that subsequent
// ticks classify against a full history.
func warm(c *RegimeClassifier, n int, syi float64) {
	for i := 0; i < n; i++ {
		c.Classify(regimeAt.Add(time.Duration(i)*time.Minute), syi, calmStress(), nil)
	}
}

func TestRegimeNeutralUntilHistoryFills(t *testing.T) {
	c := NewRegimeClassifier(RegimeConfig{HistoryWindow: 30})
	for i := 0; i < 29; i++ {
		got := c.Classify(regimeAt.Add(time.Duration(i)*time.Minute), 5.0+float64(i)*0.1, calmStress(), nil)
		if got.State != models.RegimeNeutral {
			t.Fatalf("tick %d: expected neutral with short history, got %v", i, got.State)
		}
	}
}

func TestRegimeOnWithRisingYield(t *testing.T) {
	c := NewRegimeClassifier(RegimeConfig{HistoryWindow: 30, SlopePeriods: 7})
	warm(c, 30, 5.0)
	got := c.Classify(regimeAt.Add(time.Hour), 6.0, calmStress(), nil)
	if got.ZScore <= 0 {
		t.Fatalf("above-history yield must have positive z-score, got %v", got.ZScore)
	}
	if got.Slope7 < 0 {
		t.Fatalf("rising series must have non-negative slope, got %v", got.Slope7)
	}
	if got.State != models.RegimeOn {
		t.Fatalf("expected ON, got %v", got.State)
	}
}

func TestRegimeOffWithFallingYield(t *testing.T) {
	c := NewRegimeClassifier(RegimeConfig{HistoryWindow: 30, SlopePeriods: 7})
	warm(c, 30, 5.0)
	var got models.RegimeSnapshot
	for i := 1; i <= 8; i++ {
		got = c.Classify(regimeAt.Add(time.Duration(i)*time.Hour), 5.0-float64(i)*0.3, calmStress(), nil)
	}
	if got.ZScore >= 0 {
		t.Fatalf("below-history yield must have negative z-score, got %v", got.ZScore)
	}
	if got.Slope7 >= 0 {
		t.Fatalf("falling series must have negative slope, got %v", got.Slope7)
	}
	if got.State != models.RegimeOff {
		t.Fatalf("expected OFF, got %v", got.State)
	}
}

func TestRegimeHighStressOverridesEverything(t *testing.T) {
	c := NewRegimeClassifier(RegimeConfig{HistoryWindow: 30})
	warm(c, 30, 5.0)
	stress := models.StressIndex{Level: models.StressHigh, Value: 0.8}
	got := c.Classify(regimeAt.Add(time.Hour), 7.0, stress, nil)
	if got.State != models.RegimeOffOverride {
		t.Fatalf("high stress must force the override state, got %v", got.State)
	}
	if got.ZScore <= 0 {
		t.Fatalf("override must still report the underlying z-score, got %v", got.ZScore)
	}
}

func TestRegimeMixedSignalStaysNeutral(t *testing.T) {
	c := NewRegimeClassifier(RegimeConfig{HistoryWindow: 30, SlopePeriods: 7})
	// trend the history upward, then dip below the recent peak while
	// staying above the long-run mean: z positive, momentum negative.
	for i := 0; i < 30; i++ {
		c.Classify(regimeAt.Add(time.Duration(i)*time.Minute), 4.0+float64(i)*0.1, calmStress(), nil)
	}
	got := c.Classify(regimeAt.Add(time.Hour), 6.0, calmStress(), nil)
	if got.ZScore <= 0 || got.Slope7 >= 0 {
		t.Fatalf("scenario did not produce a mixed signal: z=%v slope=%v", got.ZScore, got.Slope7)
	}
	if got.State != models.RegimeNeutral {
		t.Fatalf("mixed signal must stay neutral, got %v", got.State)
	}
}

func TestRegimeBreadth(t *testing.T) {
	c := NewRegimeClassifier(RegimeConfig{RiskFreeRate: 4.0, HistoryWindow: 30})
	yields := []models.RiskAdjustedYield{
		{Symbol: "USDT", RayAPY: 6.0},
		{Symbol: "USDC", RayAPY: 4.5},
		{Symbol: "DAI", RayAPY: 3.0},
		{Symbol: "FDUSD", RayAPY: 2.0},
	}
	got := c.Classify(regimeAt, 5.0, calmStress(), yields)
	if math.Abs(got.BreadthPct-50) > 1e-9 {
		t.Fatalf("2 of 4 above the reference rate should be 50%%, got %v", got.BreadthPct)
	}
	if got.SYIExcess != 1.0 {
		t.Fatalf("excess should subtract the reference rate, got %v", got.SYIExcess)
	}
}
