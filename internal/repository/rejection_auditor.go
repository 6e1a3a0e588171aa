package repository

import (
	"context"
	"time"

	"StableBench/internal/domain/models"
	domrepo "StableBench/internal/domain/repository"
	applogger "StableBench/pkg/logger"
)

// StoreRejectionAuditor writes rejected observations to the snapshot
// store off the ingest hot path. Audit writes are best effort; a full
// buffer drops the record rather than stalling ingest.
type StoreRejectionAuditor struct {
	store domrepo.SnapshotStore
	log   *applogger.Logger
	ch    chan models.RejectedObservation
}

func NewStoreRejectionAuditor(store domrepo.SnapshotStore, log *applogger.Logger) *StoreRejectionAuditor {
	a := &StoreRejectionAuditor{
		store: store,
		log:   log,
		ch:    make(chan models.RejectedObservation, 256),
	}
	go a.drain()
	return a
}

func (a *StoreRejectionAuditor) RecordRejection(_ context.Context, r models.RejectedObservation) {
	select {
	case a.ch <- r:
	default:
		a.log.Warn("rejection audit buffer full",
			applogger.String("symbol", r.Symbol),
			applogger.String("reason", r.Reason))
	}
}

func (a *StoreRejectionAuditor) drain() {
	for r := range a.ch {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.store.StoreRejection(ctx, r); err != nil {
			a.log.Error("store rejection", applogger.Error(err))
		}
		cancel()
	}
}

func (a *StoreRejectionAuditor) Close() { close(a.ch) }

var _ domrepo.RejectionAuditor = (*StoreRejectionAuditor)(nil)
