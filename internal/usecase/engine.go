package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"StableBench/internal/domain/models"
	domrepo "StableBench/internal/domain/repository"
	domsvc "StableBench/internal/domain/service"
	"StableBench/internal/services/stats"
	applogger "StableBench/pkg/logger"
)

// EngineConfig holds the benchmark tick loop configuration.
type EngineConfig struct {
	TickInterval      time.Duration // scheduled recomputation cadence
	TickDeadline      time.Duration // per-tick computation budget
	ObservationMaxAge time.Duration // observations older than this are excluded from the tick
	StatsWindow       int           // trailing snapshot window for rolling statistics
	Universe          []string      // initial constituent membership
}

// BenchmarkEngine runs the computation pipeline: per-symbol scoring is
// data-parallel within a tick, aggregation (SYI, SSI, regime) is a
// serialized synchronization point. Each published tick is an immutable
// consistent cut; a tick with zero usable constituents publishes nothing.
type BenchmarkEngine struct {
	cfg EngineConfig

	pegs   domsvc.PegScorer
	liqs   domsvc.LiquidityScorer
	yields domsvc.YieldAdjuster
	stress domsvc.StressIndexer
	regime domsvc.RegimeClassifier

	store   domrepo.SnapshotStore
	pub     domrepo.Publisher
	latestS domrepo.LatestStore
	metrics domrepo.Metrics
	log     *applogger.Logger

	obsMu        sync.RWMutex
	observations map[string]*models.AssetObservation

	uniMu    sync.RWMutex
	universe map[string]struct{}

	// aggMu serializes the aggregation stage so pipelined ticks append
	// to the rolling window under single-writer discipline.
	aggMu     sync.Mutex
	syiWindow *stats.Window

	tick   atomic.Uint64
	latest atomic.Pointer[models.BenchmarkTick]
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewBenchmarkEngine creates the engine. Store, publisher and latest
// store may be nil in tests; scoring services are required.
func NewBenchmarkEngine(
	cfg EngineConfig,
	pegs domsvc.PegScorer,
	liqs domsvc.LiquidityScorer,
	yields domsvc.YieldAdjuster,
	stress domsvc.StressIndexer,
	regime domsvc.RegimeClassifier,
	store domrepo.SnapshotStore,
	pub domrepo.Publisher,
	latest domrepo.LatestStore,
	metrics domrepo.Metrics,
	log *applogger.Logger,
) *BenchmarkEngine {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 30 * time.Second
	}
	if cfg.TickDeadline <= 0 || cfg.TickDeadline > cfg.TickInterval {
		cfg.TickDeadline = cfg.TickInterval
	}
	if cfg.ObservationMaxAge <= 0 {
		cfg.ObservationMaxAge = 2 * cfg.TickInterval
	}
	if cfg.StatsWindow < 2 {
		cfg.StatsWindow = 120
	}
	e := &BenchmarkEngine{
		cfg:          cfg,
		pegs:         pegs,
		liqs:         liqs,
		yields:       yields,
		stress:       stress,
		regime:       regime,
		store:        store,
		pub:          pub,
		latestS:      latest,
		metrics:      metrics,
		log:          log,
		observations: make(map[string]*models.AssetObservation),
		universe:     make(map[string]struct{}),
		syiWindow:    stats.NewWindow(cfg.StatsWindow),
		stopCh:       make(chan struct{}),
	}
	e.SetUniverse(cfg.Universe)
	return e
}

// Process accepts a validated observation and makes it the symbol's
// latest record. Implements the ingest pipeline's downstream interface.
func (e *BenchmarkEngine) Process(_ context.Context, obs *models.AssetObservation) error {
	e.obsMu.Lock()
	e.observations[obs.Symbol] = obs
	e.obsMu.Unlock()
	return nil
}

// SetUniverse replaces constituent membership. Called by the
// reconstitution job on a slower cadence than tick computation.
func (e *BenchmarkEngine) SetUniverse(symbols []string) {
	next := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		if s != "" {
			next[s] = struct{}{}
		}
	}
	e.uniMu.Lock()
	e.universe = next
	e.uniMu.Unlock()
}

// Universe returns the current constituent membership.
func (e *BenchmarkEngine) Universe() []string {
	e.uniMu.RLock()
	defer e.uniMu.RUnlock()
	out := make([]string, 0, len(e.universe))
	for s := range e.universe {
		out = append(out, s)
	}
	return out
}

// ObservedSymbols returns symbols with a current observation, with their
// market caps. Used by reconstitution.
func (e *BenchmarkEngine) ObservedSymbols() map[string]float64 {
	e.obsMu.RLock()
	defer e.obsMu.RUnlock()
	out := make(map[string]float64, len(e.observations))
	for s, obs := range e.observations {
		out[s] = obs.MarketCap
	}
	return out
}

// Latest returns the most recently published tick, nil before the first.
func (e *BenchmarkEngine) Latest() *models.BenchmarkTick {
	return e.latest.Load()
}

// Stats computes rolling statistics over up to `window` trailing
// snapshot values.
func (e *BenchmarkEngine) Stats(window int) models.IndexStats {
	vals := e.syiWindow.Tail(window)
	out := models.IndexStats{Window: len(vals)}
	if len(vals) == 0 {
		return out
	}
	out.Mean = stats.Mean(vals)
	out.Volatility = stats.StdDev(vals)
	out.Min, out.Max = vals[0], vals[0]
	for _, v := range vals {
		if v < out.Min {
			out.Min = v
		}
		if v > out.Max {
			out.Max = v
		}
	}
	return out
}

// Start launches the periodic tick loop. Ticks may pipeline: a slow
// aggregation never blocks the next tick's scoring.
func (e *BenchmarkEngine) Start(ctx context.Context) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ticker := time.NewTicker(e.cfg.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-e.stopCh:
				return
			case now := <-ticker.C:
				e.wg.Add(1)
				go func(asOf time.Time) {
					defer e.wg.Done()
					if _, err := e.ComputeTick(ctx, asOf); err != nil {
						e.metrics.RecordError("tick")
						e.log.Error("tick failed", applogger.Error(err))
					}
				}(now)
			}
		}
	}()
}

// Stop halts the tick loop and waits for in-flight ticks.
func (e *BenchmarkEngine) Stop() {
	close(e.stopCh)
	e.wg.Wait()
}

type symbolResult struct {
	scores models.AssetScores
	err    error
}

// ComputeTick runs one full benchmark computation for the given instant.
// Constituents that miss the deadline or have no usable data are
// excluded from this tick and retried on the next scheduled one. Returns
// (nil, nil) when no snapshot is published.
func (e *BenchmarkEngine) ComputeTick(ctx context.Context, asOf time.Time) (*models.BenchmarkTick, error) {
	started := time.Now()
	ctx, cancel := context.WithTimeout(ctx, e.cfg.TickDeadline)
	defer cancel()

	cut := e.consistentCut(asOf)
	if len(cut) == 0 {
		e.metrics.RecordSkippedTick("no_observations")
		return nil, nil
	}

	// Data-parallel scoring: peg, liquidity and RAY for different
	// symbols have no dependency on one another.
	resCh := make(chan symbolResult, len(cut))
	for _, obs := range cut {
		go func(obs *models.AssetObservation) {
			resCh <- e.scoreSymbol(obs, asOf)
		}(obs)
	}

	assets := make(map[string]models.AssetScores, len(cut))
	for i := 0; i < len(cut); i++ {
		select {
		case r := <-resCh:
			if r.err != nil {
				e.metrics.RecordReject("stale_quotes")
				continue
			}
			assets[r.scores.Symbol] = r.scores
		case <-ctx.Done():
			// deadline: whatever arrived so far forms the tick
			i = len(cut)
		}
	}

	if len(assets) == 0 {
		e.metrics.RecordSkippedTick("no_usable_constituents")
		return nil, nil
	}

	tick := e.aggregate(asOf, assets)

	e.metrics.RecordTick(tick.Index.Constituents, time.Since(started).Seconds())
	e.metrics.RecordIndexValue(tick.Index.Value)
	e.metrics.RecordStress(tick.Stress.Value)
	e.metrics.RecordRegime(string(tick.Regime.State))

	e.publish(tick)
	e.log.Debug("tick computed",
		applogger.Uint64("tick", tick.Tick),
		applogger.Float64("syi", tick.Index.Value),
		applogger.Float64("ssi", tick.Stress.Value),
		applogger.Int("constituents", tick.Index.Constituents))
	return tick, nil
}

// consistentCut copies the latest in-universe observations that are
// still fresh, so the whole tick computes from one stable input set.
func (e *BenchmarkEngine) consistentCut(asOf time.Time) []*models.AssetObservation {
	e.uniMu.RLock()
	universe := e.universe
	e.uniMu.RUnlock()

	e.obsMu.RLock()
	defer e.obsMu.RUnlock()
	out := make([]*models.AssetObservation, 0, len(universe))
	for sym := range universe {
		obs, ok := e.observations[sym]
		if !ok {
			continue
		}
		if asOf.Sub(obs.Timestamp) > e.cfg.ObservationMaxAge {
			e.metrics.RecordReject("stale_observation")
			continue
		}
		out = append(out, obs)
	}
	return out
}

func (e *BenchmarkEngine) scoreSymbol(obs *models.AssetObservation, asOf time.Time) symbolResult {
	peg, err := e.pegs.Score(obs, asOf)
	if err != nil {
		return symbolResult{err: err}
	}
	liq := e.liqs.Score(obs)
	ray := e.yields.Adjust(obs.Symbol, asOf, obs.RawAPY, peg, liq)
	return symbolResult{scores: models.AssetScores{
		Symbol:    obs.Symbol,
		Peg:       peg,
		Liquidity: liq,
		Yield:     ray,
		MarketCap: obs.MarketCap,
	}}
}

// aggregate is the serialized synchronization point: index weighting,
// stress and regime all derive from the same asset set, and window
// appends stay single-writer even when ticks pipeline.
func (e *BenchmarkEngine) aggregate(asOf time.Time, assets map[string]models.AssetScores) *models.BenchmarkTick {
	e.aggMu.Lock()
	defer e.aggMu.Unlock()

	pegs := make([]models.PegScore, 0, len(assets))
	liqs := make([]models.LiquidityScore, 0, len(assets))
	rays := make([]models.RiskAdjustedYield, 0, len(assets))
	var totalCap float64
	for _, a := range assets {
		pegs = append(pegs, a.Peg)
		liqs = append(liqs, a.Liquidity)
		rays = append(rays, a.Yield)
		totalCap += a.MarketCap
	}

	weights := make([]models.ConstituentWeight, 0, len(assets))
	var syi float64
	for _, a := range assets {
		// missing caps across the board degrade to equal weighting
		w := 1.0 / float64(len(assets))
		if totalCap > 0 {
			w = a.MarketCap / totalCap
		}
		syi += w * a.Yield.RayAPY
		weights = append(weights, models.ConstituentWeight{
			Symbol:    a.Symbol,
			Weight:    w,
			RayAPY:    a.Yield.RayAPY,
			MarketCap: a.MarketCap,
		})
	}

	e.uniMu.RLock()
	universeSize := len(e.universe)
	e.uniMu.RUnlock()
	confidence := 1.0
	if universeSize > 0 {
		confidence = float64(len(assets)) / float64(universeSize)
	}

	e.syiWindow.Push(syi)
	stressIdx := e.stress.Compute(asOf, pegs, liqs)
	regime := e.regime.Classify(asOf, syi, stressIdx, rays)

	n := e.tick.Add(1)
	tick := &models.BenchmarkTick{
		Tick:      n,
		Timestamp: asOf,
		Index: models.IndexSnapshot{
			Tick:         n,
			Timestamp:    asOf,
			Value:        syi,
			Constituents: len(assets),
			Weights:      weights,
			Confidence:   confidence,
		},
		Stress: stressIdx,
		Regime: regime,
		Assets: assets,
	}
	e.latest.Store(tick)
	return tick
}

// publish persists and fans out the tick. Failures are local: the tick
// is already visible in-process, downstream sinks log and move on.
func (e *BenchmarkEngine) publish(tick *models.BenchmarkTick) {
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.TickDeadline)
	defer cancel()

	if e.store != nil {
		if err := e.store.StoreTick(ctx, tick); err != nil {
			e.metrics.RecordError("store_tick")
			e.log.Error("store tick", applogger.Error(err), applogger.Uint64("tick", tick.Tick))
		}
	}
	if e.pub != nil {
		if err := e.pub.PublishTick(ctx, tick); err != nil {
			e.metrics.RecordError("publish_tick")
			e.log.Error("publish tick", applogger.Error(err), applogger.Uint64("tick", tick.Tick))
		}
	}
	if e.latestS != nil {
		if err := e.latestS.SetLatest(ctx, tick); err != nil {
			e.metrics.RecordError("latest_tick")
			e.log.Warn("cache latest tick", applogger.Error(err))
		}
	}
}
