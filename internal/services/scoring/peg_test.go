package scoring

import (
	"errors"
	"math"
	"testing"
	"time"

	"StableBench/internal/domain/models"
)

var pegBase = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func pegObs(symbol string, price float64, venues int, at time.Time) *models.AssetObservation {
	quotes := make([]models.VenueQuote, 0, venues)
	for i := 0; i < venues; i++ {
		quotes = append(quotes, models.VenueQuote{
			Venue:      string(rune('a' + i)),
			Price:      price,
			Volume:     1000,
			ObservedAt: at,
		})
	}
	return &models.AssetObservation{Symbol: symbol, Timestamp: at, Quotes: quotes}
}

func TestPegScorePerfectPeg(t *testing.T) {
	s := NewPegScorer(PegConfig{})
	got, err := s.Score(pegObs("USDC", 1.0000, 3, pegBase), pegBase)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.PegDevBps != 0 {
		t.Fatalf("expected 0 bps deviation, got %v", got.PegDevBps)
	}
	if got.Score != 1.0 {
		t.Fatalf("expected score 1.0, got %v", got.Score)
	}
	if got.IsDepeg {
		t.Fatalf("expected no depeg flag")
	}
	if !got.Confident {
		t.Fatalf("expected confident with 3 venues")
	}
}

func TestPegScoreAtDepegThreshold(t *testing.T) {
	s := NewPegScorer(PegConfig{})
	got, err := s.Score(pegObs("USDX", 0.9950, 3, pegBase), pegBase)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got.PegDevBps - -50) > 1e-9 {
		t.Fatalf("expected -50 bps, got %v", got.PegDevBps)
	}
	if !got.IsDepeg {
		t.Fatalf("deviation at exactly the threshold must flag a depeg")
	}
	if got.Score != 0 {
		t.Fatalf("expected score 0 at 50 bps deviation, got %v", got.Score)
	}
}

func TestPegScoreVolatilityDiscount(t *testing.T) {
	s := NewPegScorer(PegConfig{})
	// oscillating deviations inside the window build up volatility
	prices := []float64{1.0010, 0.9990, 1.0010, 0.9990}
	var last models.PegScore
	for i, p := range prices {
		at := pegBase.Add(time.Duration(i) * 30 * time.Second)
		got, err := s.Score(pegObs("USDT", p, 3, at), at)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		last = got
	}
	if last.Vol5mBps == 0 {
		t.Fatalf("expected non-zero rolling volatility")
	}
	steady, err := s.Score(pegObs("DAI", 1.0010, 3, pegBase), pegBase)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if last.Score >= steady.Score {
		t.Fatalf("volatile symbol must score below steady one: %v vs %v", last.Score, steady.Score)
	}
}

func TestPegScoreStaleQuotesExcluded(t *testing.T) {
	s := NewPegScorer(PegConfig{})
	obs := pegObs("USDP", 1.0, 2, pegBase.Add(-10*time.Minute))
	obs.Quotes = append(obs.Quotes, models.VenueQuote{Venue: "fresh", Price: 0.998, Volume: 500, ObservedAt: pegBase})

	got, err := s.Score(obs, pegBase)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.VenueCount != 1 {
		t.Fatalf("expected 1 fresh venue, got %d", got.VenueCount)
	}
	if got.Confident {
		t.Fatalf("expected reduced confidence below 3 venues")
	}
	if math.Abs(got.PegDevBps - -20) > 1e-9 {
		t.Fatalf("stale quotes must not move the VWAP: got %v bps", got.PegDevBps)
	}
}

func TestPegScoreAllQuotesStale(t *testing.T) {
	s := NewPegScorer(PegConfig{})
	obs := pegObs("GUSD", 1.0, 3, pegBase.Add(-time.Hour))
	if _, err := s.Score(obs, pegBase); !errors.Is(err, ErrNoFreshQuotes) {
		t.Fatalf("expected ErrNoFreshQuotes, got %v", err)
	}
}

func TestPegScoreInvalidPriceExcluded(t *testing.T) {
	s := NewPegScorer(PegConfig{})
	obs := pegObs("LUSD", 1.0, 2, pegBase)
	obs.Quotes = append(obs.Quotes, models.VenueQuote{Venue: "bad", Price: -1, Volume: 100, ObservedAt: pegBase})

	got, err := s.Score(obs, pegBase)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.VenueCount != 2 {
		t.Fatalf("expected invalid quote dropped, venueCount=%d", got.VenueCount)
	}
}

func TestPegScoreBounded(t *testing.T) {
	s := NewPegScorer(PegConfig{})
	got, err := s.Score(pegObs("FRAX", 0.90, 3, pegBase), pegBase)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Score != 0 {
		t.Fatalf("deep depeg must clamp to 0, got %v", got.Score)
	}
	if !got.IsDepeg {
		t.Fatalf("expected depeg flag at -1000 bps")
	}
}
