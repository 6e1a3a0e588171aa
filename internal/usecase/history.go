package usecase

import (
	"context"
	"fmt"
	"time"

	"StableBench/internal/domain/models"
	domrepo "StableBench/internal/domain/repository"
)

// ErrHistoryUnavailable means no snapshot store is configured; only the
// in-memory latest tick and rolling stats are served.
var ErrHistoryUnavailable = fmt.Errorf("history: snapshot store not configured")

// HistoryUseCase serves historical benchmark data from the snapshot
// store, with a latest-tick fast path through the distributed cache.
type HistoryUseCase struct {
	store   domrepo.SnapshotStore
	latest  domrepo.LatestStore
	engine  *BenchmarkEngine
	timeout time.Duration
}

func NewHistoryUseCase(store domrepo.SnapshotStore, latest domrepo.LatestStore, engine *BenchmarkEngine) *HistoryUseCase {
	return &HistoryUseCase{store: store, latest: latest, engine: engine, timeout: 10 * time.Second}
}

type HistoryParams struct {
	From  time.Time
	To    time.Time
	Limit int
}

// Latest returns the most recent published tick. The in-process value is
// authoritative when this instance computes ticks; the cache serves
// read-only replicas.
func (uc *HistoryUseCase) Latest(ctx context.Context) (*models.BenchmarkTick, error) {
	if t := uc.engine.Latest(); t != nil {
		return t, nil
	}
	if uc.latest == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	return uc.latest.GetLatest(ctx)
}

func (uc *HistoryUseCase) Snapshots(ctx context.Context, p HistoryParams) ([]models.IndexSnapshot, error) {
	if p.Limit <= 0 {
		p.Limit = 1000
	}
	if p.To.IsZero() {
		p.To = time.Now()
	}
	if p.From.IsZero() {
		p.From = p.To.AddDate(0, 0, -7)
	}
	if !p.From.Before(p.To) {
		return nil, fmt.Errorf("from must precede to")
	}
	if uc.store == nil {
		return nil, ErrHistoryUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	return uc.store.QuerySnapshots(ctx, p.From, p.To, p.Limit)
}

func (uc *HistoryUseCase) Stress(ctx context.Context, p HistoryParams) ([]models.StressIndex, error) {
	if p.Limit <= 0 {
		p.Limit = 1000
	}
	if p.To.IsZero() {
		p.To = time.Now()
	}
	if p.From.IsZero() {
		p.From = p.To.AddDate(0, 0, -7)
	}
	if uc.store == nil {
		return nil, ErrHistoryUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	return uc.store.QueryStress(ctx, p.From, p.To, p.Limit)
}

func (uc *HistoryUseCase) Regimes(ctx context.Context, limit int) ([]models.RegimeSnapshot, error) {
	if limit <= 0 {
		limit = 100
	}
	if uc.store == nil {
		return nil, ErrHistoryUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	return uc.store.QueryRegimes(ctx, limit)
}

// Stats reports rolling statistics over the trailing snapshot window.
func (uc *HistoryUseCase) Stats(window int) models.IndexStats {
	return uc.engine.Stats(window)
}
