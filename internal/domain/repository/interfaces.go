package repository

import (
	"context"
	"time"

	"StableBench/internal/domain/models"
)

// ObservationSource streams AssetObservation records from a feed.
// Implementations: live WebSocket feed, synthetic/replay generator.
// Selection is a configuration decision, never a runtime fallback.
type ObservationSource interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.AssetObservation, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// SnapshotStore persists the append-only benchmark history.
type SnapshotStore interface {
	Init(ctx context.Context) error
	StoreTick(ctx context.Context, t *models.BenchmarkTick) error
	StoreRejection(ctx context.Context, r models.RejectedObservation) error
	QuerySnapshots(ctx context.Context, from, to time.Time, limit int) ([]models.IndexSnapshot, error)
	QueryRegimes(ctx context.Context, limit int) ([]models.RegimeSnapshot, error)
	QueryStress(ctx context.Context, from, to time.Time, limit int) ([]models.StressIndex, error)
	Health(ctx context.Context) error
	Close() error
}

// Publisher fans out published ticks to downstream consumers.
type Publisher interface {
	PublishTick(ctx context.Context, t *models.BenchmarkTick) error
	Close() error
}

// LatestStore distributes the most recent tick to out-of-process readers.
type LatestStore interface {
	SetLatest(ctx context.Context, t *models.BenchmarkTick) error
	GetLatest(ctx context.Context) (*models.BenchmarkTick, error)
}

// RejectionAuditor records discarded observations with their reason.
type RejectionAuditor interface {
	RecordRejection(ctx context.Context, r models.RejectedObservation)
}

// Metrics abstracts operational counters so use cases stay
// instrumentation-agnostic.
type Metrics interface {
	RecordTick(constituents int, seconds float64)
	RecordSkippedTick(reason string)
	RecordIndexValue(v float64)
	RecordStress(v float64)
	RecordRegime(state string)
	RecordReject(reason string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
