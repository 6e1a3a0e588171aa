package scoring

import (
	"fmt"
	"sync"
	"time"

	"StableBench/internal/domain/models"
	domsvc "StableBench/internal/domain/service"
	"StableBench/internal/services/stats"
)

// ErrNoFreshQuotes means every venue quote aged out; the symbol is
// excluded from the tick and retried on the next one.
var ErrNoFreshQuotes = fmt.Errorf("peg: no fresh venue quotes")

// PegConfig holds the peg scorer calibration. Normalization scales are
// configuration, not literals, so they can be recalibrated without code
// changes.
type PegConfig struct {
	DepegThresholdBps  float64       // |peg_dev_bps| at or beyond this flips is_depeg
	DevScaleBps        float64       // deviation term denominator (default 50)
	VolScaleBps        float64       // volatility term denominator (default 100)
	VolWindow          time.Duration // rolling deviation window (default 5m)
	QuoteFreshness     time.Duration // venue quotes older than this are dropped
	MinConfidentVenues int           // fewer fresh venues flags reduced confidence
}

// PegScorer computes VWAP deviation from the 1.00 peg and a bounded
// stability score, keeping a rolling deviation window per symbol.
type PegScorer struct {
	cfg PegConfig

	mu      sync.Mutex
	windows map[string]*stats.TimedWindow
}

// NewPegScorer creates a peg scorer, filling zero config fields with the
// calibration defaults.
func NewPegScorer(cfg PegConfig) *PegScorer {
	if cfg.DepegThresholdBps <= 0 {
		cfg.DepegThresholdBps = 50
	}
	if cfg.DevScaleBps <= 0 {
		cfg.DevScaleBps = 50
	}
	if cfg.VolScaleBps <= 0 {
		cfg.VolScaleBps = 100
	}
	if cfg.VolWindow <= 0 {
		cfg.VolWindow = 5 * time.Minute
	}
	if cfg.QuoteFreshness <= 0 {
		cfg.QuoteFreshness = 2 * time.Minute
	}
	if cfg.MinConfidentVenues <= 0 {
		cfg.MinConfidentVenues = 3
	}
	return &PegScorer{cfg: cfg, windows: make(map[string]*stats.TimedWindow)}
}

// Score converts one observation into a PegScore. Stale or invalid venue
// quotes are rejected silently; fewer than MinConfidentVenues only flags
// reduced confidence, it never withholds the score.
func (s *PegScorer) Score(obs *models.AssetObservation, asOf time.Time) (models.PegScore, error) {
	fresh := make([]models.VenueQuote, 0, len(obs.Quotes))
	for _, q := range obs.Quotes {
		if q.Price <= 0 {
			continue
		}
		if asOf.Sub(q.ObservedAt) > s.cfg.QuoteFreshness {
			continue
		}
		fresh = append(fresh, q)
	}
	if len(fresh) == 0 {
		return models.PegScore{}, ErrNoFreshQuotes
	}

	vwap := stats.VWAP(fresh)
	devBps := 10000 * (vwap - 1.0)

	w := s.window(obs.Symbol)
	w.Push(asOf, devBps)
	volBps := stats.StdDev(w.Values())

	score := stats.Clamp(1-abs(devBps)/s.cfg.DevScaleBps-volBps/s.cfg.VolScaleBps, 0, 1)

	return models.PegScore{
		Symbol:     obs.Symbol,
		Timestamp:  asOf,
		PegDevBps:  devBps,
		Vol5mBps:   volBps,
		Score:      score,
		VenueCount: len(fresh),
		Confident:  len(fresh) >= s.cfg.MinConfidentVenues,
		// >= so a deviation sitting exactly on the threshold already
		// trips downstream boolean gates.
		IsDepeg: abs(devBps) >= s.cfg.DepegThresholdBps,
	}, nil
}

func (s *PegScorer) window(symbol string) *stats.TimedWindow {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[symbol]
	if !ok {
		w = stats.NewTimedWindow(s.cfg.VolWindow)
		s.windows[symbol] = w
	}
	return w
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

var _ domsvc.PegScorer = (*PegScorer)(nil)
