package scoring

import (
	"math"
	"time"

	"StableBench/internal/domain/models"
	domsvc "StableBench/internal/domain/service"
)

// YieldConfig holds the global risk-adjustment exponents. Alpha and beta
// apply to every asset; they are never per-asset.
type YieldConfig struct {
	Alpha float64 // peg score exponent (default 1.0)
	Beta  float64 // liquidity score exponent (default 0.7)

	TierLowMin    float64 // min(peg, liq) above this is tier low (default 0.8)
	TierMediumMin float64 // above this is tier medium (default 0.6)
}

// YieldAdjuster is the pure RAY calculator:
// ray_apy = raw_apy * peg_score^alpha * liq_score^beta.
// With scores in [0,1] and non-negative exponents the adjustment only
// ever discounts yield.
type YieldAdjuster struct {
	cfg YieldConfig
}

// NewYieldAdjuster creates the calculator with default exponents where unset.
func NewYieldAdjuster(cfg YieldConfig) *YieldAdjuster {
	if cfg.Alpha <= 0 {
		cfg.Alpha = 1.0
	}
	if cfg.Beta <= 0 {
		cfg.Beta = 0.7
	}
	if cfg.TierLowMin <= 0 {
		cfg.TierLowMin = 0.8
	}
	if cfg.TierMediumMin <= 0 {
		cfg.TierMediumMin = 0.6
	}
	return &YieldAdjuster{cfg: cfg}
}

// Adjust discounts rawAPY by the two risk scores and derives the tier
// from the weaker of them.
func (a *YieldAdjuster) Adjust(symbol string, asOf time.Time, rawAPY float64, peg models.PegScore, liq models.LiquidityScore) models.RiskAdjustedYield {
	ray := rawAPY * math.Pow(peg.Score, a.cfg.Alpha) * math.Pow(liq.Score, a.cfg.Beta)
	return models.RiskAdjustedYield{
		Symbol:    symbol,
		Timestamp: asOf,
		RawAPY:    rawAPY,
		RayAPY:    ray,
		PegScore:  peg.Score,
		LiqScore:  liq.Score,
		Tier:      a.tier(peg.Score, liq.Score),
	}
}

func (a *YieldAdjuster) tier(peg, liq float64) models.RiskTier {
	weakest := peg
	if liq < weakest {
		weakest = liq
	}
	switch {
	case weakest > a.cfg.TierLowMin:
		return models.TierLow
	case weakest >= a.cfg.TierMediumMin:
		return models.TierMedium
	default:
		return models.TierHigh
	}
}

var _ domsvc.YieldAdjuster = (*YieldAdjuster)(nil)
