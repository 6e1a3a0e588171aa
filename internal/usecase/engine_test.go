package usecase

import (
	"context"
	"math"
	"testing"
	"time"

	"StableBench/internal/domain/models"
	"StableBench/internal/services/scoring"
	applogger "StableBench/pkg/logger"
)

var engineAt = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type stubMetrics struct {
	skips   []string
	rejects []string
	ticks   int
}

func (m *stubMetrics) RecordTick(constituents int, seconds float64) { m.ticks++ }
func (m *stubMetrics) RecordSkippedTick(reason string)              { m.skips = append(m.skips, reason) }
func (m *stubMetrics) RecordIndexValue(v float64)                   {}
func (m *stubMetrics) RecordStress(v float64)                       {}
func (m *stubMetrics) RecordRegime(state string)                    {}
func (m *stubMetrics) RecordReject(reason string)                   { m.rejects = append(m.rejects, reason) }
func (m *stubMetrics) RecordError(kind string)                      {}
func (m *stubMetrics) RecordLatency(op string, seconds float64)     {}

func newTestEngine(t *testing.T, universe []string, m *stubMetrics) *BenchmarkEngine {
	t.Helper()
	log, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewBenchmarkEngine(
		EngineConfig{
			TickInterval:      time.Second,
			ObservationMaxAge: time.Minute,
			StatsWindow:       16,
			Universe:          universe,
		},
		scoring.NewPegScorer(scoring.PegConfig{}),
		scoring.NewLiquidityScorer(scoring.LiquidityConfig{
			Capacity: map[string]float64{"major": 1_000_000},
		}),
		scoring.NewYieldAdjuster(scoring.YieldConfig{}),
		scoring.NewStressIndexer(scoring.StressConfig{}),
		scoring.NewRegimeClassifier(scoring.RegimeConfig{}),
		nil, nil, nil,
		m,
		log,
	)
}

// healthyObs builds an observation that scores 1.0 on both peg and
// liquidity, so RAY passes raw APY through unchanged.
func healthyObs(symbol string, rawAPY, marketCap float64, at time.Time) *models.AssetObservation {
	quotes := make([]models.VenueQuote, 3)
	for i := range quotes {
		quotes[i] = models.VenueQuote{Venue: "v", Price: 1.0, Volume: 100, ObservedAt: at}
	}
	return &models.AssetObservation{
		Symbol:     symbol,
		Timestamp:  at,
		Quotes:     quotes,
		RawAPY:     rawAPY,
		Depth:      models.DepthProfile{Bps10: 1_000_000, Bps20: 2_000_000, Bps50: 5_000_000},
		SpreadBps:  0,
		MarketCap:  marketCap,
		AssetClass: "major",
	}
}

func TestComputeTickWeightedIndex(t *testing.T) {
	m := &stubMetrics{}
	e := newTestEngine(t, []string{"USDT", "USDC", "DAI"}, m)
	ctx := context.Background()

	e.Process(ctx, healthyObs("USDT", 6.0, 50e9, engineAt))
	e.Process(ctx, healthyObs("USDC", 8.0, 30e9, engineAt))
	e.Process(ctx, healthyObs("DAI", 10.0, 20e9, engineAt))

	tick, err := e.ComputeTick(ctx, engineAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tick == nil {
		t.Fatalf("expected a published tick")
	}
	if tick.Index.Constituents != 3 {
		t.Fatalf("expected 3 constituents, got %d", tick.Index.Constituents)
	}
	// cap weighting: 0.5*6 + 0.3*8 + 0.2*10
	if math.Abs(tick.Index.Value-7.4) > 1e-9 {
		t.Fatalf("expected index value 7.4, got %v", tick.Index.Value)
	}
	var sum float64
	for _, w := range tick.Index.Weights {
		sum += w.Weight
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Fatalf("weights must sum to 1, got %v", sum)
	}
	if tick.Index.Confidence != 1.0 {
		t.Fatalf("full coverage should have confidence 1, got %v", tick.Index.Confidence)
	}
	if got := e.Latest(); got != tick {
		t.Fatalf("latest must point at the published tick")
	}
}

func TestComputeTickEqualWeightFallback(t *testing.T) {
	m := &stubMetrics{}
	e := newTestEngine(t, []string{"USDT", "USDC", "DAI"}, m)
	ctx := context.Background()

	e.Process(ctx, healthyObs("USDT", 6.0, 0, engineAt))
	e.Process(ctx, healthyObs("USDC", 8.0, 0, engineAt))
	e.Process(ctx, healthyObs("DAI", 10.0, 0, engineAt))

	tick, err := e.ComputeTick(ctx, engineAt)
	if err != nil || tick == nil {
		t.Fatalf("expected tick, got %v err %v", tick, err)
	}
	if math.Abs(tick.Index.Value-8.0) > 1e-9 {
		t.Fatalf("missing caps should equal-weight to 8.0, got %v", tick.Index.Value)
	}
	for _, w := range tick.Index.Weights {
		if math.Abs(w.Weight-1.0/3.0) > 1e-9 {
			t.Fatalf("expected equal weight, got %v for %s", w.Weight, w.Symbol)
		}
	}
}

func TestComputeTickNoObservations(t *testing.T) {
	m := &stubMetrics{}
	e := newTestEngine(t, []string{"USDT", "USDC"}, m)

	tick, err := e.ComputeTick(context.Background(), engineAt)
	if err != nil {
		t.Fatalf("empty tick must not error: %v", err)
	}
	if tick != nil {
		t.Fatalf("no observations must publish nothing, got %+v", tick)
	}
	if len(m.skips) != 1 || m.skips[0] != "no_observations" {
		t.Fatalf("expected one skipped tick, got %v", m.skips)
	}
}

func TestComputeTickExcludesStaleObservation(t *testing.T) {
	m := &stubMetrics{}
	e := newTestEngine(t, []string{"USDT", "USDC", "DAI"}, m)
	ctx := context.Background()

	e.Process(ctx, healthyObs("USDT", 6.0, 50e9, engineAt))
	e.Process(ctx, healthyObs("USDC", 8.0, 30e9, engineAt))
	e.Process(ctx, healthyObs("DAI", 10.0, 20e9, engineAt.Add(-5*time.Minute)))

	tick, err := e.ComputeTick(ctx, engineAt)
	if err != nil || tick == nil {
		t.Fatalf("expected tick, got %v err %v", tick, err)
	}
	if tick.Index.Constituents != 2 {
		t.Fatalf("stale observation must be excluded, got %d constituents", tick.Index.Constituents)
	}
	if math.Abs(tick.Index.Confidence-2.0/3.0) > 1e-9 {
		t.Fatalf("confidence should reflect missing constituent, got %v", tick.Index.Confidence)
	}
	if _, ok := tick.Assets["DAI"]; ok {
		t.Fatalf("stale symbol must not appear in the tick")
	}
}

func TestComputeTickAllQuotesStale(t *testing.T) {
	m := &stubMetrics{}
	e := newTestEngine(t, []string{"USDT"}, m)
	ctx := context.Background()

	obs := healthyObs("USDT", 6.0, 50e9, engineAt)
	for i := range obs.Quotes {
		obs.Quotes[i].ObservedAt = engineAt.Add(-time.Hour)
	}
	e.Process(ctx, obs)

	tick, err := e.ComputeTick(ctx, engineAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tick != nil {
		t.Fatalf("unscorable cross-section must publish nothing")
	}
	if len(m.rejects) == 0 {
		t.Fatalf("expected a reject to be recorded")
	}
	if len(m.skips) != 1 || m.skips[0] != "no_usable_constituents" {
		t.Fatalf("expected skip reason no_usable_constituents, got %v", m.skips)
	}
}

func TestTickCounterMonotonic(t *testing.T) {
	m := &stubMetrics{}
	e := newTestEngine(t, []string{"USDT", "USDC", "DAI"}, m)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		at := engineAt.Add(time.Duration(i) * 30 * time.Second)
		e.Process(ctx, healthyObs("USDT", 6.0, 50e9, at))
		e.Process(ctx, healthyObs("USDC", 8.0, 30e9, at))
		e.Process(ctx, healthyObs("DAI", 10.0, 20e9, at))
		tick, err := e.ComputeTick(ctx, at)
		if err != nil || tick == nil {
			t.Fatalf("tick %d: got %v err %v", i, tick, err)
		}
		if tick.Tick != uint64(i+1) {
			t.Fatalf("expected tick number %d, got %d", i+1, tick.Tick)
		}
	}
	if e.Latest().Tick != 3 {
		t.Fatalf("latest must be the newest tick, got %d", e.Latest().Tick)
	}
}

func TestEngineStats(t *testing.T) {
	m := &stubMetrics{}
	e := newTestEngine(t, []string{"USDT", "USDC", "DAI"}, m)
	ctx := context.Background()

	if got := e.Stats(10); got.Window != 0 {
		t.Fatalf("no history should report empty stats, got %+v", got)
	}

	e.Process(ctx, healthyObs("USDT", 6.0, 0, engineAt))
	e.Process(ctx, healthyObs("USDC", 8.0, 0, engineAt))
	e.Process(ctx, healthyObs("DAI", 10.0, 0, engineAt))
	if _, err := e.ComputeTick(ctx, engineAt); err != nil {
		t.Fatalf("tick: %v", err)
	}

	got := e.Stats(10)
	if got.Window != 1 {
		t.Fatalf("expected one sample, got %d", got.Window)
	}
	if math.Abs(got.Mean-8.0) > 1e-9 || got.Min != got.Max {
		t.Fatalf("single-sample stats wrong: %+v", got)
	}
}

func TestSetUniverseReplacesMembership(t *testing.T) {
	m := &stubMetrics{}
	e := newTestEngine(t, []string{"USDT", "USDC"}, m)
	ctx := context.Background()

	e.Process(ctx, healthyObs("USDT", 6.0, 50e9, engineAt))
	e.Process(ctx, healthyObs("USDC", 8.0, 30e9, engineAt))
	e.SetUniverse([]string{"USDT"})

	if got := e.Universe(); len(got) != 1 || got[0] != "USDT" {
		t.Fatalf("expected universe [USDT], got %v", got)
	}

	tick, err := e.ComputeTick(ctx, engineAt)
	if err != nil || tick == nil {
		t.Fatalf("expected tick, got %v err %v", tick, err)
	}
	if tick.Index.Constituents != 1 {
		t.Fatalf("out-of-universe symbol must be ignored, got %d", tick.Index.Constituents)
	}

	observed := e.ObservedSymbols()
	if len(observed) != 2 || observed["USDC"] != 30e9 {
		t.Fatalf("observations survive reconstitution, got %v", observed)
	}
}
