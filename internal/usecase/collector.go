package usecase

import (
	"context"
	"sync"
	"time"

	"StableBench/internal/domain/models"
	drepo "StableBench/internal/domain/repository"
	mid "StableBench/internal/middleware"
)

// reconnectPace bounds how fast the collector retries a failing source.
const reconnectPace = time.Second

// ObservationCollector bridges an observation source into the ingest
// pipeline feeding the benchmark engine.
type ObservationCollector struct {
	source  drepo.ObservationSource
	engine  *BenchmarkEngine
	metrics drepo.Metrics
	pipe    *mid.IngestPipeline

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewObservationCollector creates a new ObservationCollector instance.
func NewObservationCollector(source drepo.ObservationSource, engine *BenchmarkEngine, metrics drepo.Metrics, pipe *mid.IngestPipeline) *ObservationCollector {
	return &ObservationCollector{
		source:  source,
		engine:  engine,
		metrics: metrics,
		pipe:    pipe,
		stopCh:  make(chan struct{}),
	}
}

// IsConnected returns true if the observation source is connected.
func (c *ObservationCollector) IsConnected() bool {
	return c.source.IsConnected()
}

func (c *ObservationCollector) Start(ctx context.Context) error {
	if err := c.source.Connect(ctx); err != nil {
		return err
	}
	if err := c.source.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	obsCh, errCh := c.source.Read(ctx)
	go c.consume(ctx, obsCh, errCh)
	return nil
}

// consume forwards observations until the stream ends. A feed error is
// local: the source closes its channels, the collector reconnects and
// opens a fresh stream rather than halting ingest.
func (c *ObservationCollector) consume(ctx context.Context, obsCh <-chan *models.AssetObservation, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				break
			}
			if err != nil {
				c.metrics.RecordError("feed")
			}
		case obs, ok := <-obsCh:
			if !ok {
				obsCh = nil
				break
			}
			if obs == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, obs)
			} else {
				_ = c.engine.Process(ctx, obs)
			}
		}
		if obsCh != nil || errCh != nil {
			continue
		}
		// both channels closed: the stream ended
		obsCh, errCh = c.resume(ctx)
		if obsCh == nil {
			return
		}
	}
}

// resume reconnects the source and opens a new stream, pacing retries.
// Returns nil channels when the collector is shutting down.
func (c *ObservationCollector) resume(ctx context.Context) (<-chan *models.AssetObservation, <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return nil, nil
		case <-c.stopCh:
			return nil, nil
		default:
		}
		if err := c.source.Reconnect(ctx); err != nil {
			c.metrics.RecordError("feed_reconnect")
			select {
			case <-ctx.Done():
				return nil, nil
			case <-c.stopCh:
				return nil, nil
			case <-time.After(reconnectPace):
			}
			continue
		}
		return c.source.Read(ctx)
	}
}

func (c *ObservationCollector) Stop() error {
	c.stopOnce.Do(func() { close(c.stopCh) })
	return c.source.Close()
}

// Shutdown stops the pipeline and closes the feed.
func (c *ObservationCollector) Shutdown(ctx context.Context) error {
	c.stopOnce.Do(func() { close(c.stopCh) })
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.source.Close()
}
