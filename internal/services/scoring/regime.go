package scoring

import (
	"time"

	"StableBench/internal/domain/models"
	domsvc "StableBench/internal/domain/service"
	"StableBench/internal/services/stats"
)

// RegimeConfig holds the regime classifier calibration.
type RegimeConfig struct {
	RiskFreeRate  float64 // reference rate subtracted from SYI (percent)
	HistoryWindow int     // trailing excess window for the z-score (min 30)
	SlopePeriods  int     // momentum lookback in ticks (default 7)
}

// RegimeClassifier is the risk regime state machine. Classification is
// stateless given the tick's derived metrics; the only retained state is
// the trailing excess-yield window. Transition priority:
//
//  1. stress level high forces OFF_OVERRIDE, pre-empting yield signals
//     that may lag a fast-moving peg event;
//  2. insufficient history yields NEU;
//  3. otherwise z-score and momentum classify ON / OFF / NEU.
//
// The ordering is load-bearing and must not change: capital preservation
// takes precedence over carry.
type RegimeClassifier struct {
	cfg    RegimeConfig
	window *stats.Window
}

// NewRegimeClassifier creates the classifier with a minimum 30-tick
// history window.
func NewRegimeClassifier(cfg RegimeConfig) *RegimeClassifier {
	if cfg.HistoryWindow < 30 {
		cfg.HistoryWindow = 30
	}
	if cfg.SlopePeriods <= 0 {
		cfg.SlopePeriods = 7
	}
	return &RegimeClassifier{
		cfg:    cfg,
		window: stats.NewWindow(cfg.HistoryWindow),
	}
}

// Classify evaluates the tick and returns the regime snapshot. The
// excess value is appended to the trailing window before standardizing,
// so the z-score compares the tick against its own history inclusively.
func (c *RegimeClassifier) Classify(asOf time.Time, syi float64, stress models.StressIndex, yields []models.RiskAdjustedYield) models.RegimeSnapshot {
	excess := syi - c.cfg.RiskFreeRate
	c.window.Push(excess)
	series := c.window.Values()

	snap := models.RegimeSnapshot{
		Timestamp:  asOf,
		SYIExcess:  excess,
		ZScore:     stats.ZScore(excess, series),
		Slope7:     stats.Slope(series, c.cfg.SlopePeriods),
		BreadthPct: c.breadth(yields),
	}

	switch {
	case stress.Level == models.StressHigh:
		snap.State = models.RegimeOffOverride
	case len(series) < c.cfg.HistoryWindow:
		snap.State = models.RegimeNeutral
	case snap.ZScore >= 0 && snap.Slope7 >= 0:
		snap.State = models.RegimeOn
	case snap.ZScore < 0 && snap.Slope7 < 0:
		snap.State = models.RegimeOff
	default:
		// mixed signal: never forced into ON or OFF
		snap.State = models.RegimeNeutral
	}
	return snap
}

func (c *RegimeClassifier) breadth(yields []models.RiskAdjustedYield) float64 {
	if len(yields) == 0 {
		return 0
	}
	positive := 0
	for _, y := range yields {
		if y.RayAPY > c.cfg.RiskFreeRate {
			positive++
		}
	}
	return 100 * float64(positive) / float64(len(yields))
}

var _ domsvc.RegimeClassifier = (*RegimeClassifier)(nil)
