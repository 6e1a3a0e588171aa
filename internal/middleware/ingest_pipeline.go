package middleware

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"StableBench/internal/domain/models"
	domrepo "StableBench/internal/domain/repository"
)

// Proc is the minimal downstream interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, obs *models.AssetObservation) error
}

// IngestPipeline sits between an observation source and the engine.
// It validates (invalid numeric input is discarded here with an audited
// rejection and never reaches scoring), throttles per symbol, and
// buffers when downstream is unavailable.
type IngestPipeline struct {
	proc    Proc
	metrics domrepo.Metrics
	auditor domrepo.RejectionAuditor

	maxRPS   int
	bufSize  int
	bufCh    chan *models.AssetObservation
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSeen map[string]time.Time // per-symbol last accepted time
}

type PipelineOption func(*IngestPipeline)

// WithMaxRPS sets the max accepted observations per second per symbol.
func WithMaxRPS(n int) PipelineOption {
	return func(p *IngestPipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *IngestPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithAuditor sets the rejection audit sink.
func WithAuditor(a domrepo.RejectionAuditor) PipelineOption {
	return func(p *IngestPipeline) { p.auditor = a }
}

// NewIngestPipeline creates a new pipeline.
func NewIngestPipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *IngestPipeline {
	p := &IngestPipeline{
		proc:     proc,
		metrics:  metrics,
		maxRPS:   20,
		bufSize:  1000,
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.AssetObservation, p.bufSize)
	return p
}

// Start launches background flushing of buffered observations.
func (p *IngestPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case obs := <-p.bufCh:
				if obs == nil {
					continue
				}
				if err := p.proc.Process(ctx, obs); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					select {
					case p.bufCh <- obs:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *IngestPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, throttles, and forwards the observation downstream,
// buffering on errors.
func (p *IngestPipeline) Process(ctx context.Context, obs *models.AssetObservation) error {
	start := time.Now()
	if reason, detail := ValidateObservation(obs); reason != "" {
		p.metrics.RecordReject(reason)
		if p.auditor != nil {
			rej := models.RejectedObservation{Reason: reason, Detail: detail, Timestamp: start}
			if obs != nil {
				rej.Symbol = obs.Symbol
			}
			p.auditor.RecordRejection(ctx, rej)
		}
		return fmt.Errorf("ingest: %s (%s)", reason, detail)
	}
	if !p.allow(obs.Symbol, start) {
		// throttled; record and drop silently
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, obs); err != nil {
		p.metrics.RecordError("pipeline_process")
		select {
		case p.bufCh <- obs:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

// ValidateObservation checks an observation for numeric validity.
// Returns an empty reason when the record is acceptable.
func ValidateObservation(obs *models.AssetObservation) (reason, detail string) {
	if obs == nil {
		return "nil_observation", ""
	}
	if obs.Symbol == "" {
		return "empty_symbol", ""
	}
	if obs.Timestamp.IsZero() {
		return "invalid_timestamp", "zero timestamp"
	}
	for _, q := range obs.Quotes {
		if math.IsNaN(q.Price) || math.IsInf(q.Price, 0) {
			return "nan_price", fmt.Sprintf("venue %s", q.Venue)
		}
		if q.Price <= 0 {
			return "negative_price", fmt.Sprintf("venue %s price %v", q.Venue, q.Price)
		}
		if q.Volume < 0 || math.IsNaN(q.Volume) {
			return "negative_volume", fmt.Sprintf("venue %s", q.Venue)
		}
	}
	if math.IsNaN(obs.RawAPY) || obs.RawAPY < 0 {
		return "invalid_apy", fmt.Sprintf("apy %v", obs.RawAPY)
	}
	if obs.MarketCap < 0 || math.IsNaN(obs.MarketCap) {
		return "invalid_market_cap", fmt.Sprintf("mcap %v", obs.MarketCap)
	}
	if obs.Depth.Bps10 < 0 || obs.Depth.Bps20 < 0 || obs.Depth.Bps50 < 0 {
		return "negative_depth", ""
	}
	if obs.SpreadBps < 0 || math.IsNaN(obs.SpreadBps) {
		return "invalid_spread", fmt.Sprintf("spread %v", obs.SpreadBps)
	}
	return "", ""
}

func (p *IngestPipeline) allow(symbol string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[symbol]
	if last.IsZero() || now.Sub(last) >= time.Second/time.Duration(p.maxRPS) {
		p.lastSeen[symbol] = now
		return true
	}
	return false
}
