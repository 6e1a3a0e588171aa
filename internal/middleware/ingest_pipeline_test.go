package middleware

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"StableBench/internal/domain/models"
)

var pipeAt = time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC)

type captureProc struct {
	got []*models.AssetObservation
	err error
}

func (p *captureProc) Process(_ context.Context, obs *models.AssetObservation) error {
	if p.err != nil {
		return p.err
	}
	p.got = append(p.got, obs)
	return nil
}

type captureMetrics struct {
	rejects []string
	errs    []string
}

func (m *captureMetrics) RecordTick(int, float64)           {}
func (m *captureMetrics) RecordSkippedTick(string)          {}
func (m *captureMetrics) RecordIndexValue(float64)          {}
func (m *captureMetrics) RecordStress(float64)              {}
func (m *captureMetrics) RecordRegime(string)               {}
func (m *captureMetrics) RecordReject(reason string)        { m.rejects = append(m.rejects, reason) }
func (m *captureMetrics) RecordError(kind string)           { m.errs = append(m.errs, kind) }
func (m *captureMetrics) RecordLatency(string, float64)     {}

type captureAuditor struct {
	got []models.RejectedObservation
}

func (a *captureAuditor) RecordRejection(_ context.Context, r models.RejectedObservation) {
	a.got = append(a.got, r)
}

func validObs(symbol string, at time.Time) *models.AssetObservation {
	return &models.AssetObservation{
		Symbol:    symbol,
		Timestamp: at,
		Quotes: []models.VenueQuote{
			{Venue: "alpha", Price: 1.0001, Volume: 250, ObservedAt: at},
		},
		RawAPY:    5.2,
		Depth:     models.DepthProfile{Bps10: 1e6, Bps20: 2e6, Bps50: 4e6},
		SpreadBps: 1.5,
		MarketCap: 8e9,
	}
}

func TestValidateObservationReasons(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*models.AssetObservation)
		want   string
	}{
		{"empty symbol", func(o *models.AssetObservation) { o.Symbol = "" }, "empty_symbol"},
		{"zero timestamp", func(o *models.AssetObservation) { o.Timestamp = time.Time{} }, "invalid_timestamp"},
		{"nan price", func(o *models.AssetObservation) { o.Quotes[0].Price = math.NaN() }, "nan_price"},
		{"zero price", func(o *models.AssetObservation) { o.Quotes[0].Price = 0 }, "negative_price"},
		{"negative volume", func(o *models.AssetObservation) { o.Quotes[0].Volume = -1 }, "negative_volume"},
		{"negative apy", func(o *models.AssetObservation) { o.RawAPY = -0.5 }, "invalid_apy"},
		{"nan apy", func(o *models.AssetObservation) { o.RawAPY = math.NaN() }, "invalid_apy"},
		{"negative market cap", func(o *models.AssetObservation) { o.MarketCap = -1 }, "invalid_market_cap"},
		{"negative depth", func(o *models.AssetObservation) { o.Depth.Bps20 = -5 }, "negative_depth"},
		{"negative spread", func(o *models.AssetObservation) { o.SpreadBps = -1 }, "invalid_spread"},
	}
	for _, c := range cases {
		obs := validObs("USDT", pipeAt)
		c.mutate(obs)
		reason, _ := ValidateObservation(obs)
		if reason != c.want {
			t.Fatalf("%s: expected reason %q, got %q", c.name, c.want, reason)
		}
	}

	if reason, _ := ValidateObservation(nil); reason != "nil_observation" {
		t.Fatalf("nil observation: got %q", reason)
	}
	if reason, _ := ValidateObservation(validObs("USDT", pipeAt)); reason != "" {
		t.Fatalf("valid observation rejected: %q", reason)
	}
}

func TestPipelineForwardsValidObservation(t *testing.T) {
	proc := &captureProc{}
	m := &captureMetrics{}
	p := NewIngestPipeline(proc, m)

	if err := p.Process(context.Background(), validObs("USDC", pipeAt)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(proc.got) != 1 || proc.got[0].Symbol != "USDC" {
		t.Fatalf("observation did not reach downstream: %+v", proc.got)
	}
	if len(m.rejects) != 0 {
		t.Fatalf("valid observation must not reject: %v", m.rejects)
	}
}

func TestPipelineRejectsAndAudits(t *testing.T) {
	proc := &captureProc{}
	m := &captureMetrics{}
	aud := &captureAuditor{}
	p := NewIngestPipeline(proc, m, WithAuditor(aud))

	obs := validObs("USDT", pipeAt)
	obs.RawAPY = -3
	if err := p.Process(context.Background(), obs); err == nil {
		t.Fatalf("invalid observation must error")
	}
	if len(proc.got) != 0 {
		t.Fatalf("rejected observation must never reach downstream")
	}
	if len(m.rejects) != 1 || m.rejects[0] != "invalid_apy" {
		t.Fatalf("expected invalid_apy reject, got %v", m.rejects)
	}
	if len(aud.got) != 1 || aud.got[0].Symbol != "USDT" || aud.got[0].Reason != "invalid_apy" {
		t.Fatalf("audit record wrong: %+v", aud.got)
	}
}

func TestPipelineThrottlesPerSymbol(t *testing.T) {
	proc := &captureProc{}
	m := &captureMetrics{}
	p := NewIngestPipeline(proc, m, WithMaxRPS(1))
	ctx := context.Background()

	if err := p.Process(ctx, validObs("USDT", pipeAt)); err != nil {
		t.Fatalf("first observation: %v", err)
	}
	// immediate second observation for the same symbol is throttled, a
	// different symbol is not
	if err := p.Process(ctx, validObs("USDT", pipeAt)); err != nil {
		t.Fatalf("throttled observation must drop silently: %v", err)
	}
	if err := p.Process(ctx, validObs("DAI", pipeAt)); err != nil {
		t.Fatalf("other symbol: %v", err)
	}
	if len(proc.got) != 2 {
		t.Fatalf("expected 2 forwarded observations, got %d", len(proc.got))
	}
	throttled := 0
	for _, e := range m.errs {
		if e == "pipeline_throttle" {
			throttled++
		}
	}
	if throttled != 1 {
		t.Fatalf("expected 1 throttle, got %d (%v)", throttled, m.errs)
	}
}

func TestPipelineBuffersOnDownstreamFailure(t *testing.T) {
	proc := &captureProc{err: errors.New("downstream down")}
	m := &captureMetrics{}
	p := NewIngestPipeline(proc, m, WithBufferSize(4))

	if err := p.Process(context.Background(), validObs("USDT", pipeAt)); err == nil {
		t.Fatalf("downstream failure must surface")
	}
	if len(p.bufCh) != 1 {
		t.Fatalf("failed observation must be buffered, buffer len %d", len(p.bufCh))
	}
}
