package models

import "time"

// RegimeState is the discrete market classification.
type RegimeState string

const (
	RegimeOn          RegimeState = "ON"
	RegimeOff         RegimeState = "OFF"
	RegimeOffOverride RegimeState = "OFF_OVERRIDE" // forced risk-off under peg stress
	RegimeNeutral     RegimeState = "NEU"
)

// RegimeSnapshot is the classifier output for one tick, with the
// derived fields that fed the transition.
type RegimeSnapshot struct {
	Timestamp  time.Time   `json:"timestamp"`
	State      RegimeState `json:"state"`
	SYIExcess  float64     `json:"syi_excess"`  // SYI minus risk-free reference
	ZScore     float64     `json:"z_score"`     // standardized excess over trailing window
	Slope7     float64     `json:"slope7"`      // 7-tick momentum of excess
	BreadthPct float64     `json:"breadth_pct"` // % constituents with positive excess
}
