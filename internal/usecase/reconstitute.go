package usecase

import (
	"context"
	"sort"
	"time"

	applogger "StableBench/pkg/logger"
	"StableBench/pkg/queue"
)

const reconstituteMsgType = "universe.reconstitute"

// ReconstituteConfig controls constituent membership rebuilds.
type ReconstituteConfig struct {
	Interval      time.Duration // cadence between membership rebuilds
	MarketCapMin  float64       // entry floor for market capitalization
	MaxSize       int           // membership cap, 0 for unlimited
	StaticSymbols []string      // symbols always retained regardless of cap
}

// ReconstituteJob rebuilds the index universe from the engine's observed
// symbol set. Membership changes apply between ticks, never inside one.
type ReconstituteJob struct {
	cfg    ReconstituteConfig
	engine *BenchmarkEngine
	log    *applogger.Logger
}

func NewReconstituteJob(cfg ReconstituteConfig, engine *BenchmarkEngine, log *applogger.Logger) *ReconstituteJob {
	if cfg.MarketCapMin <= 0 {
		cfg.MarketCapMin = 50_000_000
	}
	return &ReconstituteJob{cfg: cfg, engine: engine, log: log}
}

func (j *ReconstituteJob) Name() string { return "reconstitute-universe" }
func (j *ReconstituteJob) Type() string { return reconstituteMsgType }

type reconstitutePayload struct {
	RequestedAt time.Time `json:"requested_at"`
}

func (j *ReconstituteJob) Handle(_ context.Context, payload interface{}) error {
	if p, err := queue.ParsePayload[reconstitutePayload](payload); err == nil {
		j.log.Debug("reconstitution requested",
			applogger.String("requested_at", p.RequestedAt.Format(time.RFC3339)))
	}

	observed := j.engine.ObservedSymbols()
	keep := make(map[string]struct{}, len(observed))
	for _, s := range j.cfg.StaticSymbols {
		keep[s] = struct{}{}
	}

	type candidate struct {
		symbol string
		mcap   float64
	}
	cands := make([]candidate, 0, len(observed))
	for sym, mcap := range observed {
		if _, pinned := keep[sym]; pinned {
			continue
		}
		if mcap < j.cfg.MarketCapMin {
			continue
		}
		cands = append(cands, candidate{symbol: sym, mcap: mcap})
	}
	sort.Slice(cands, func(a, b int) bool {
		if cands[a].mcap != cands[b].mcap {
			return cands[a].mcap > cands[b].mcap
		}
		return cands[a].symbol < cands[b].symbol
	})
	for _, c := range cands {
		if j.cfg.MaxSize > 0 && len(keep) >= j.cfg.MaxSize {
			break
		}
		keep[c.symbol] = struct{}{}
	}

	symbols := make([]string, 0, len(keep))
	for s := range keep {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	j.engine.SetUniverse(symbols)
	j.log.Info("universe reconstituted",
		applogger.Int("constituents", len(symbols)),
		applogger.Int("candidates", len(observed)))
	return nil
}

var _ queue.Job = (*ReconstituteJob)(nil)

// ReconstituteScheduler enqueues reconstitution work on a fixed cadence.
// The queue serializes execution even when multiple instances schedule.
type ReconstituteScheduler struct {
	interval time.Duration
	q        *queue.RedisQueue
	log      *applogger.Logger
	stopCh   chan struct{}
}

func NewReconstituteScheduler(interval time.Duration, q *queue.RedisQueue, log *applogger.Logger) *ReconstituteScheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &ReconstituteScheduler{interval: interval, q: q, log: log, stopCh: make(chan struct{})}
}

func (s *ReconstituteScheduler) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				err := s.q.Enqueue(ctx, reconstituteMsgType, reconstitutePayload{RequestedAt: time.Now()})
				if err != nil {
					s.log.Error("enqueue reconstitution", applogger.Error(err))
				}
			}
		}
	}()
}

func (s *ReconstituteScheduler) Stop() { close(s.stopCh) }
