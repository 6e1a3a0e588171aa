package models

import "time"

// PegScore measures how tightly an asset tracks its 1.00 peg.
type PegScore struct {
	Symbol     string    `json:"symbol"`
	Timestamp  time.Time `json:"timestamp"`
	PegDevBps  float64   `json:"peg_dev_bps"` // signed VWAP deviation from 1.00
	Vol5mBps   float64   `json:"vol_5m_bps"`  // rolling short-horizon deviation volatility
	Score      float64   `json:"peg_score"`   // in [0,1]
	VenueCount int       `json:"venue_count"` // fresh venues contributing to VWAP
	Confident  bool      `json:"confident"`   // venue_count >= min_confident_venues
	IsDepeg    bool      `json:"is_depeg"`
}

// LiquidityScore measures order-book resilience.
type LiquidityScore struct {
	Symbol        string    `json:"symbol"`
	Timestamp     time.Time `json:"timestamp"`
	Depth10       float64   `json:"depth_10bps"` // normalized to [0,1]
	Depth20       float64   `json:"depth_20bps"` // normalized to [0,1]
	SpreadPenalty float64   `json:"spread_penalty"`
	Score         float64   `json:"liq_score"` // in [0,1]
	Venues        int       `json:"venues"`
}

// RiskTier buckets an asset by its weakest score.
type RiskTier string

const (
	TierLow    RiskTier = "low"
	TierMedium RiskTier = "medium"
	TierHigh   RiskTier = "high"
)

// RiskAdjustedYield is raw APY discounted by peg and liquidity risk.
// ray_apy = raw_apy * peg_score^alpha * liq_score^beta, so ray <= raw.
type RiskAdjustedYield struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	RawAPY    float64   `json:"raw_apy"`
	RayAPY    float64   `json:"ray_apy"`
	PegScore  float64   `json:"peg_score"`
	LiqScore  float64   `json:"liq_score"`
	Tier      RiskTier  `json:"tier"`
}

// AssetScores bundles the per-symbol derived records of one tick.
type AssetScores struct {
	Symbol    string            `json:"symbol"`
	Peg       PegScore          `json:"peg"`
	Liquidity LiquidityScore    `json:"liquidity"`
	Yield     RiskAdjustedYield `json:"yield"`
	MarketCap float64           `json:"market_cap"`
}
