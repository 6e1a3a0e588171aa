package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"StableBench/internal/domain/models"
	domrepo "StableBench/internal/domain/repository"
	pkgch "StableBench/pkg/clickhouse"
	applogger "StableBench/pkg/logger"
)

// schemaStatements creates the append-only benchmark history tables.
// MergeTree ordered by time so range scans over history stay cheap.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS sb_index_snapshots (
        ts           DateTime64(3),
        tick         UInt64,
        value        Float64,
        constituents UInt16,
        confidence   Float64
    ) ENGINE = MergeTree() ORDER BY (ts, tick)`,
	`CREATE TABLE IF NOT EXISTS sb_asset_scores (
        ts          DateTime64(3),
        tick        UInt64,
        symbol      LowCardinality(String),
        peg_dev_bps Float64,
        vol_5m_bps  Float64,
        peg_score   Float64,
        is_depeg    UInt8,
        liq_score   Float64,
        raw_apy     Float64,
        ray_apy     Float64,
        tier        LowCardinality(String),
        weight      Float64,
        market_cap  Float64
    ) ENGINE = MergeTree() ORDER BY (symbol, ts)`,
	`CREATE TABLE IF NOT EXISTS sb_stress (
        ts            DateTime64(3),
        value         Float64,
        kurtosis      Float64,
        concentration Float64,
        level         LowCardinality(String),
        stale         UInt8
    ) ENGINE = MergeTree() ORDER BY ts`,
	`CREATE TABLE IF NOT EXISTS sb_regime (
        ts          DateTime64(3),
        state       LowCardinality(String),
        syi_excess  Float64,
        z_score     Float64,
        slope7      Float64,
        breadth_pct Float64
    ) ENGINE = MergeTree() ORDER BY ts`,
	`CREATE TABLE IF NOT EXISTS sb_rejects (
        ts     DateTime64(3),
        symbol LowCardinality(String),
        reason LowCardinality(String),
        detail String
    ) ENGINE = MergeTree() ORDER BY ts TTL toDateTime(ts) + INTERVAL 30 DAY`,
}

// CHSnapshotStore persists benchmark history in ClickHouse.
type CHSnapshotStore struct {
	client *pkgch.Client
	db     *sql.DB
	l      *applogger.Logger
}

func NewCHSnapshotStore(ch *pkgch.Client) *CHSnapshotStore {
	return &CHSnapshotStore{client: ch, db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHSnapshotStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHSnapshotStore) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, schemaStatements)
}

// StoreTick writes the snapshot row plus one score row per constituent.
// Asset rows insert as a single multi-row VALUES statement.
func (s *CHSnapshotStore) StoreTick(ctx context.Context, t *models.BenchmarkTick) error {
	start := time.Now()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sb_index_snapshots (ts, tick, value, constituents, confidence) VALUES (?, ?, ?, ?, ?)`,
		t.Timestamp, t.Tick, t.Index.Value, uint16(t.Index.Constituents), t.Index.Confidence)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	if len(t.Index.Weights) > 0 {
		values := make([]string, 0, len(t.Index.Weights))
		args := make([]interface{}, 0, len(t.Index.Weights)*13)
		for _, w := range t.Index.Weights {
			a, ok := t.Assets[w.Symbol]
			if !ok {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				t.Timestamp, t.Tick, w.Symbol,
				a.Peg.PegDevBps, a.Peg.Vol5mBps, a.Peg.Score, boolToUInt8(a.Peg.IsDepeg),
				a.Liquidity.Score,
				a.Yield.RawAPY, a.Yield.RayAPY, string(a.Yield.Tier),
				w.Weight, a.MarketCap)
		}
		if len(values) > 0 {
			q := fmt.Sprintf(
				`INSERT INTO sb_asset_scores (ts, tick, symbol, peg_dev_bps, vol_5m_bps, peg_score, is_depeg, liq_score, raw_apy, ray_apy, tier, weight, market_cap) VALUES %s`,
				strings.Join(values, ","))
			if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
				return fmt.Errorf("insert asset scores: %w", err)
			}
		}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sb_stress (ts, value, kurtosis, concentration, level, stale) VALUES (?, ?, ?, ?, ?, ?)`,
		t.Stress.Timestamp, t.Stress.Value, t.Stress.Kurtosis, t.Stress.Concentration,
		string(t.Stress.Level), boolToUInt8(t.Stress.Stale))
	if err != nil {
		return fmt.Errorf("insert stress: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sb_regime (ts, state, syi_excess, z_score, slope7, breadth_pct) VALUES (?, ?, ?, ?, ?, ?)`,
		t.Regime.Timestamp, string(t.Regime.State), t.Regime.SYIExcess,
		t.Regime.ZScore, t.Regime.Slope7, t.Regime.BreadthPct)
	if err != nil {
		return fmt.Errorf("insert regime: %w", err)
	}

	if s.l != nil {
		s.l.Debug("clickhouse store_tick ok",
			applogger.Uint64("tick", t.Tick),
			applogger.Int("assets", len(t.Assets)),
			applogger.Duration("duration_ms", time.Since(start)))
	}
	return nil
}

func (s *CHSnapshotStore) StoreRejection(ctx context.Context, r models.RejectedObservation) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sb_rejects (ts, symbol, reason, detail) VALUES (?, ?, ?, ?)`,
		r.Timestamp, r.Symbol, r.Reason, r.Detail)
	if err != nil {
		return fmt.Errorf("insert rejection: %w", err)
	}
	return nil
}

func (s *CHSnapshotStore) QuerySnapshots(ctx context.Context, from, to time.Time, limit int) ([]models.IndexSnapshot, error) {
	const q = `
        SELECT ts, tick, value, constituents, confidence
        FROM sb_index_snapshots
        WHERE ts >= ? AND ts <= ?
        ORDER BY ts DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, from, to, limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse query_snapshots error", applogger.Error(err))
		}
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]models.IndexSnapshot, 0, 256)
	for rows.Next() {
		var snap models.IndexSnapshot
		var constituents uint16
		if err := rows.Scan(&snap.Timestamp, &snap.Tick, &snap.Value, &constituents, &snap.Confidence); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.Constituents = int(constituents)
		out = append(out, snap)
	}
	return out, rows.Err()
}

func (s *CHSnapshotStore) QueryRegimes(ctx context.Context, limit int) ([]models.RegimeSnapshot, error) {
	const q = `
        SELECT ts, state, syi_excess, z_score, slope7, breadth_pct
        FROM sb_regime
        ORDER BY ts DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query regimes: %w", err)
	}
	defer rows.Close()

	out := make([]models.RegimeSnapshot, 0, limit)
	for rows.Next() {
		var r models.RegimeSnapshot
		var state string
		if err := rows.Scan(&r.Timestamp, &state, &r.SYIExcess, &r.ZScore, &r.Slope7, &r.BreadthPct); err != nil {
			return nil, fmt.Errorf("scan regime: %w", err)
		}
		r.State = models.RegimeState(state)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *CHSnapshotStore) QueryStress(ctx context.Context, from, to time.Time, limit int) ([]models.StressIndex, error) {
	const q = `
        SELECT ts, value, kurtosis, concentration, level, stale
        FROM sb_stress
        WHERE ts >= ? AND ts <= ?
        ORDER BY ts DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("query stress: %w", err)
	}
	defer rows.Close()

	out := make([]models.StressIndex, 0, 256)
	for rows.Next() {
		var si models.StressIndex
		var level string
		var stale uint8
		if err := rows.Scan(&si.Timestamp, &si.Value, &si.Kurtosis, &si.Concentration, &level, &stale); err != nil {
			return nil, fmt.Errorf("scan stress: %w", err)
		}
		si.Level = models.StressLevel(level)
		si.Stale = stale != 0
		out = append(out, si)
	}
	return out, rows.Err()
}

func (s *CHSnapshotStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHSnapshotStore) Close() error {
	return nil // client lifecycle managed by pkg
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

var _ domrepo.SnapshotStore = (*CHSnapshotStore)(nil)
