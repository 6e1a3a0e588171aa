package scoring

import (
	"sync"
	"time"

	"StableBench/internal/domain/models"
	domsvc "StableBench/internal/domain/service"
	"StableBench/internal/services/stats"
)

// minStressConstituents is the cross-section size below which kurtosis
// is statistically meaningless and the previous value is carried forward.
const minStressConstituents = 3

// StressConfig holds the stress index calibration.
type StressConfig struct {
	Alpha     float64 // kurtosis weight; (1-alpha) goes to concentration
	KurtScale float64 // normalization half-point for excess kurtosis
	HighLevel float64 // value above this is level high (default 0.6)
	LowLevel  float64 // value below this is level low (default 0.4)
}

// StressIndexer computes the stress index from the distributional shape
// of peg deviations and the concentration of liquidity. Fat-tailed
// deviations (many assets drifting together) and liquidity piling into
// few assets both push the value up.
type StressIndexer struct {
	cfg StressConfig

	mu   sync.Mutex
	prev models.StressIndex
}

// NewStressIndexer creates a stress indexer with the suggested alpha 0.5
// where unset.
func NewStressIndexer(cfg StressConfig) *StressIndexer {
	if cfg.Alpha <= 0 || cfg.Alpha > 1 {
		cfg.Alpha = 0.5
	}
	if cfg.KurtScale <= 0 {
		cfg.KurtScale = 3
	}
	if cfg.HighLevel <= 0 {
		cfg.HighLevel = 0.6
	}
	if cfg.LowLevel <= 0 {
		cfg.LowLevel = 0.4
	}
	return &StressIndexer{cfg: cfg}
}

// Compute returns the stress index for one tick's cross-section. Both
// aggregate terms are order-independent. With fewer than 3 active
// constituents the previous value is carried forward with a stale flag
// instead of producing a fresh but misleading number.
func (s *StressIndexer) Compute(asOf time.Time, pegs []models.PegScore, liqs []models.LiquidityScore) models.StressIndex {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(pegs) < minStressConstituents {
		carried := s.prev
		carried.Timestamp = asOf
		carried.Stale = true
		// bucket the carried value so the level is never empty,
		// including on a first tick with no prior computation
		carried.Level = s.level(carried.Value)
		return carried
	}

	devs := make([]float64, len(pegs))
	for i, p := range pegs {
		devs[i] = p.PegDevBps
	}
	kurt := stats.NormalizeKurtosis(stats.ExcessKurtosis(devs), s.cfg.KurtScale)

	scores := make([]float64, len(liqs))
	for i, l := range liqs {
		scores[i] = l.Score
	}
	conc := stats.Concentration(scores)

	value := stats.Clamp(s.cfg.Alpha*kurt+(1-s.cfg.Alpha)*conc, 0, 1)

	out := models.StressIndex{
		Timestamp:     asOf,
		Value:         value,
		Kurtosis:      kurt,
		Concentration: conc,
		Level:         s.level(value),
	}
	s.prev = out
	return out
}

func (s *StressIndexer) level(v float64) models.StressLevel {
	switch {
	case v > s.cfg.HighLevel:
		return models.StressHigh
	case v >= s.cfg.LowLevel:
		return models.StressMedium
	default:
		return models.StressLow
	}
}

var _ domsvc.StressIndexer = (*StressIndexer)(nil)
