package models

import "time"

// ConstituentWeight is one asset's share of the index at a tick.
type ConstituentWeight struct {
	Symbol    string  `json:"symbol"`
	Weight    float64 `json:"weight"` // market_cap_i / sum(market_cap), sums to 1
	RayAPY    float64 `json:"ray_apy"`
	MarketCap float64 `json:"market_cap"`
}

// IndexSnapshot is the market-cap-weighted composite of constituent RAY
// at one tick. Snapshots are immutable and retained as an append-only
// series for rolling statistics.
type IndexSnapshot struct {
	Tick         uint64              `json:"tick"`
	Timestamp    time.Time           `json:"timestamp"`
	Value        float64             `json:"value"` // composite RAY, percent
	Constituents int                 `json:"constituents"`
	Weights      []ConstituentWeight `json:"weights"`
	Confidence   float64             `json:"confidence"` // coverage of the universe, [0,1]
}

// IndexStats holds rolling statistics over the trailing snapshot window.
type IndexStats struct {
	Window     int     `json:"window"`
	Mean       float64 `json:"mean"`
	Volatility float64 `json:"volatility"` // stddev of snapshot values
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
}

// StressLevel buckets the stress index value.
type StressLevel string

const (
	StressLow    StressLevel = "low"    // < 0.4
	StressMedium StressLevel = "medium" // 0.4 - 0.6
	StressHigh   StressLevel = "high"   // > 0.6
)

// StressIndex is the market-wide stress score built from the
// cross-sectional shape of peg deviations and the concentration of
// liquidity across constituents.
type StressIndex struct {
	Timestamp     time.Time   `json:"timestamp"`
	Value         float64     `json:"value"`         // in [0,1]
	Kurtosis      float64     `json:"kurtosis"`      // normalized kurtosis term
	Concentration float64     `json:"concentration"` // 1 - H/log(N) entropy term
	Level         StressLevel `json:"level"`
	Stale         bool        `json:"stale"` // carried forward, not freshly computed
}

// BenchmarkTick is the full immutable output of one computation tick.
// Handed to consumers by reference; never mutated after publication.
type BenchmarkTick struct {
	Tick      uint64                 `json:"tick"`
	Timestamp time.Time              `json:"timestamp"`
	Index     IndexSnapshot          `json:"index"`
	Stress    StressIndex            `json:"stress"`
	Regime    RegimeSnapshot         `json:"regime"`
	Assets    map[string]AssetScores `json:"assets"`
}
