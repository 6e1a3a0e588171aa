package stats

import (
	"math"
	"testing"
	"time"

	"StableBench/internal/domain/models"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestClamp(t *testing.T) {
	if got := Clamp(1.5, 0, 1); got != 1 {
		t.Fatalf("expected 1, got %v", got)
	}
	if got := Clamp(-0.2, 0, 1); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
	if got := Clamp(0.4, 0, 1); got != 0.4 {
		t.Fatalf("expected 0.4, got %v", got)
	}
}

func TestVWAPWeighted(t *testing.T) {
	quotes := []models.VenueQuote{
		{Price: 1.00, Volume: 100},
		{Price: 1.01, Volume: 300},
	}
	want := (1.00*100 + 1.01*300) / 400
	if got := VWAP(quotes); !almostEqual(got, want, 1e-12) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestVWAPZeroVolumeFallsBackToMean(t *testing.T) {
	quotes := []models.VenueQuote{
		{Price: 0.99, Volume: 0},
		{Price: 1.01, Volume: 0},
	}
	if got := VWAP(quotes); !almostEqual(got, 1.00, 1e-12) {
		t.Fatalf("expected mean 1.00, got %v", got)
	}
}

func TestVWAPEmpty(t *testing.T) {
	if got := VWAP(nil); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}

func TestStdDevSample(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	// sample variance 4.571..., sd 2.138...
	if got := StdDev(xs); !almostEqual(got, 2.13809, 1e-4) {
		t.Fatalf("unexpected sd %v", got)
	}
	if got := StdDev([]float64{3}); got != 0 {
		t.Fatalf("expected 0 for single point, got %v", got)
	}
}

func TestZScoreDegenerateSeries(t *testing.T) {
	series := []float64{5, 5, 5, 5}
	if got := ZScore(9, series); got != 0 {
		t.Fatalf("expected 0 on constant series, got %v", got)
	}
}

func TestZScore(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5}
	got := ZScore(5, series)
	want := (5.0 - 3.0) / StdDev(series)
	if !almostEqual(got, want, 1e-12) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestSlope(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	if got := Slope(series, 7); !almostEqual(got, 1, 1e-12) {
		t.Fatalf("expected slope 1, got %v", got)
	}
	if got := Slope(series, 8); got != 0 {
		t.Fatalf("expected 0 for short series, got %v", got)
	}
}

func TestExcessKurtosisNormalish(t *testing.T) {
	// uniform-ish spread has negative excess kurtosis
	xs := []float64{-3, -2, -1, 0, 1, 2, 3}
	if got := ExcessKurtosis(xs); got >= 0 {
		t.Fatalf("expected negative excess kurtosis, got %v", got)
	}
}

func TestExcessKurtosisFatTails(t *testing.T) {
	xs := []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 50}
	if got := ExcessKurtosis(xs); got <= 0 {
		t.Fatalf("expected positive excess kurtosis, got %v", got)
	}
}

func TestExcessKurtosisShortSeries(t *testing.T) {
	if got := ExcessKurtosis([]float64{1, 2, 3}); got != 0 {
		t.Fatalf("expected 0 below 4 points, got %v", got)
	}
}

func TestNormalizeKurtosis(t *testing.T) {
	if got := NormalizeKurtosis(3, 3); !almostEqual(got, 0.5, 1e-12) {
		t.Fatalf("expected 0.5 at scale point, got %v", got)
	}
	if got := NormalizeKurtosis(-1, 3); got != 0 {
		t.Fatalf("expected 0 for thin tails, got %v", got)
	}
	if got := NormalizeKurtosis(1e9, 3); got >= 1 {
		t.Fatalf("expected value below 1, got %v", got)
	}
}

func TestConcentrationUniform(t *testing.T) {
	w := []float64{1, 1, 1, 1}
	if got := Concentration(w); !almostEqual(got, 0, 1e-12) {
		t.Fatalf("expected 0 for uniform spread, got %v", got)
	}
}

func TestConcentrationSingleBucket(t *testing.T) {
	w := []float64{0, 5, 0}
	if got := Concentration(w); got != 1 {
		t.Fatalf("expected 1 for single bucket, got %v", got)
	}
}

func TestConcentrationSkewedBetweenBounds(t *testing.T) {
	w := []float64{0.9, 0.05, 0.05}
	got := Concentration(w)
	if got <= 0 || got >= 1 {
		t.Fatalf("expected concentration in (0,1), got %v", got)
	}
}

func TestWindowRolls(t *testing.T) {
	w := NewWindow(3)
	for _, v := range []float64{1, 2, 3, 4} {
		w.Push(v)
	}
	got := w.Values()
	want := []float64{2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("at %d expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestWindowTail(t *testing.T) {
	w := NewWindow(5)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		w.Push(v)
	}
	got := w.Tail(2)
	if len(got) != 2 || got[0] != 4 || got[1] != 5 {
		t.Fatalf("unexpected tail %v", got)
	}
	if got := w.Tail(10); len(got) != 5 {
		t.Fatalf("expected full window, got %d values", len(got))
	}
}

func TestTimedWindowDropsAgedValues(t *testing.T) {
	w := NewTimedWindow(5 * time.Minute)
	base := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	w.Push(base, 10)
	w.Push(base.Add(3*time.Minute), 20)
	w.Push(base.Add(6*time.Minute), 30)

	got := w.Values()
	if len(got) != 2 {
		t.Fatalf("expected 2 fresh values, got %v", got)
	}
	if got[0] != 20 || got[1] != 30 {
		t.Fatalf("unexpected values %v", got)
	}
}
