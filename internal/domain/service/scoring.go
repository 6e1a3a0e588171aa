package service

import (
	"time"

	"StableBench/internal/domain/models"
)

// PegScorer converts price observations into a deviation-from-peg metric
// and a bounded stability score. Implementations keep per-symbol rolling
// deviation windows, so a single scorer instance must own each symbol.
type PegScorer interface {
	Score(obs *models.AssetObservation, asOf time.Time) (models.PegScore, error)
}

// LiquidityScorer converts depth/spread observations into a bounded
// liquidity score. Zero reporting venues yields score 0, not an error:
// liquidity absence is itself information.
type LiquidityScorer interface {
	Score(obs *models.AssetObservation) models.LiquidityScore
}

// YieldAdjuster discounts raw APY by peg and liquidity risk. Pure, no
// internal state.
type YieldAdjuster interface {
	Adjust(symbol string, asOf time.Time, rawAPY float64, peg models.PegScore, liq models.LiquidityScore) models.RiskAdjustedYield
}

// StressIndexer computes the market-wide stress index from the
// cross-sectional score set of one tick.
type StressIndexer interface {
	Compute(asOf time.Time, pegs []models.PegScore, liqs []models.LiquidityScore) models.StressIndex
}

// RegimeClassifier maps the tick's composite value and stress level to
// a discrete market regime. Keeps the trailing excess-yield window.
type RegimeClassifier interface {
	Classify(asOf time.Time, syi float64, stress models.StressIndex, yields []models.RiskAdjustedYield) models.RegimeSnapshot
}
