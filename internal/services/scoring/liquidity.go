package scoring

import (
	"StableBench/internal/domain/models"
	domsvc "StableBench/internal/domain/service"
	"StableBench/internal/services/stats"
)

// LiquidityConfig holds the liquidity scorer calibration. Capacity
// references are per asset class so smaller but healthy assets are not
// systematically penalized.
type LiquidityConfig struct {
	// Capacity is the reference depth (quote units) at 10 bps that maps
	// to a full score for an asset class; the 20 bps band uses twice the
	// reference. Missing classes fall back to DefaultCapacity.
	Capacity         map[string]float64
	DefaultCapacity  float64
	SpreadCeilingBps float64 // spread at/beyond this earns the full penalty
	VenuesExpected   int     // venue count treated as full coverage
	WeightDepth10    float64
	WeightDepth20    float64
	WeightSpread     float64
}

// LiquidityScorer normalizes order-book depth against coverage-adjusted
// capacity references and combines it with a linear spread penalty.
type LiquidityScorer struct {
	cfg LiquidityConfig
}

// NewLiquidityScorer creates a liquidity scorer with default weights
// 0.4/0.4/0.2 where unset.
func NewLiquidityScorer(cfg LiquidityConfig) *LiquidityScorer {
	if cfg.DefaultCapacity <= 0 {
		cfg.DefaultCapacity = 5_000_000
	}
	if cfg.SpreadCeilingBps <= 0 {
		cfg.SpreadCeilingBps = 20
	}
	if cfg.VenuesExpected <= 0 {
		cfg.VenuesExpected = 3
	}
	if cfg.WeightDepth10 <= 0 && cfg.WeightDepth20 <= 0 && cfg.WeightSpread <= 0 {
		cfg.WeightDepth10, cfg.WeightDepth20, cfg.WeightSpread = 0.4, 0.4, 0.2
	}
	return &LiquidityScorer{cfg: cfg}
}

// Score converts one observation into a LiquidityScore. Zero reporting
// venues yields score 0: liquidity absence is itself information, never
// an error.
func (s *LiquidityScorer) Score(obs *models.AssetObservation) models.LiquidityScore {
	venues := len(obs.Quotes)
	out := models.LiquidityScore{
		Symbol:    obs.Symbol,
		Timestamp: obs.Timestamp,
		Venues:    venues,
	}
	if venues == 0 {
		out.SpreadPenalty = 1
		return out
	}

	capacity := s.cfg.DefaultCapacity
	if c, ok := s.cfg.Capacity[obs.AssetClass]; ok && c > 0 {
		capacity = c
	}
	// Fewer venues reporting shrinks the capacity reference instead of
	// the score, so partial coverage does not read as missing depth.
	coverage := float64(venues) / float64(s.cfg.VenuesExpected)
	if coverage > 1 {
		coverage = 1
	}
	cap10 := capacity * coverage
	cap20 := 2 * capacity * coverage

	out.Depth10 = stats.Clamp(obs.Depth.Bps10/cap10, 0, 1)
	out.Depth20 = stats.Clamp(obs.Depth.Bps20/cap20, 0, 1)
	out.SpreadPenalty = stats.Clamp(obs.SpreadBps/s.cfg.SpreadCeilingBps, 0, 1)

	out.Score = stats.Clamp(
		s.cfg.WeightDepth10*out.Depth10+
			s.cfg.WeightDepth20*out.Depth20+
			s.cfg.WeightSpread*(1-out.SpreadPenalty),
		0, 1)
	return out
}

var _ domsvc.LiquidityScorer = (*LiquidityScorer)(nil)
