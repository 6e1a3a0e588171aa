package models

import "time"

// VenueQuote is a single venue's price sample contributing to VWAP.
type VenueQuote struct {
	Venue      string    `json:"venue"`
	Price      float64   `json:"price"`
	Volume     float64   `json:"volume"`
	ObservedAt time.Time `json:"observed_at"`
}

// DepthProfile holds aggregate order-book depth at fixed bps distances
// from mid, summed across reporting venues (quote-currency units).
type DepthProfile struct {
	Bps10 float64 `json:"bps10"`
	Bps20 float64 `json:"bps20"`
	Bps50 float64 `json:"bps50"`
}

// AssetObservation is the canonical per-asset ingest record for one tick.
// Immutable once accepted; superseded by the next observation for the
// same symbol.
type AssetObservation struct {
	Symbol     string       `json:"symbol"`
	Timestamp  time.Time    `json:"timestamp"`
	Quotes     []VenueQuote `json:"quotes"`
	RawAPY     float64      `json:"raw_apy"` // percent, annualized
	Depth      DepthProfile `json:"depth"`
	SpreadBps  float64      `json:"spread_bps"` // average quoted spread
	MarketCap  float64      `json:"market_cap"` // USD
	AssetClass string       `json:"asset_class"`
}

// RejectedObservation is the audit record for an observation discarded
// at ingest. Rejected observations never reach scoring.
type RejectedObservation struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	Reason    string    `json:"reason"`
	Detail    string    `json:"detail"`
}
