package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"StableBench/internal/domain/models"
)

// failOnceSource tears its first stream down with an error, then serves
// observations on the stream opened after a reconnect.
type failOnceSource struct {
	mu         sync.Mutex
	reads      int
	reconnects int
	connected  bool
	obs        []*models.AssetObservation
}

func (s *failOnceSource) Connect(context.Context) error {
	s.mu.Lock()
	s.connected = true
	s.mu.Unlock()
	return nil
}

func (s *failOnceSource) Subscribe(context.Context) error { return nil }

func (s *failOnceSource) Reconnect(context.Context) error {
	s.mu.Lock()
	s.reconnects++
	s.connected = true
	s.mu.Unlock()
	return nil
}

func (s *failOnceSource) Close() error {
	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
	return nil
}

func (s *failOnceSource) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *failOnceSource) Reconnects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconnects
}

func (s *failOnceSource) Read(ctx context.Context) (<-chan *models.AssetObservation, <-chan error) {
	s.mu.Lock()
	n := s.reads
	s.reads++
	s.mu.Unlock()

	obsCh := make(chan *models.AssetObservation, 16)
	errCh := make(chan error, 1)
	go func() {
		defer close(obsCh)
		defer close(errCh)
		if n == 0 {
			errCh <- fmt.Errorf("stream torn down")
			return
		}
		for _, o := range s.obs {
			obsCh <- o
		}
		<-ctx.Done()
	}()
	return obsCh, errCh
}

func TestCollectorResumesAfterStreamFailure(t *testing.T) {
	m := &stubMetrics{}
	eng := newTestEngine(t, []string{"USDT"}, m)
	src := &failOnceSource{
		obs: []*models.AssetObservation{healthyObs("USDT", 8.0, 1e9, time.Now())},
	}
	c := NewObservationCollector(src, eng, m, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() { _ = c.Shutdown(context.Background()) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := eng.ObservedSymbols()["USDT"]; ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("ingest did not resume after stream failure (reconnects=%d)", src.Reconnects())
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := src.Reconnects(); got != 1 {
		t.Fatalf("reconnects = %d, want 1", got)
	}
}

func TestCollectorStopsInsteadOfReconnecting(t *testing.T) {
	m := &stubMetrics{}
	eng := newTestEngine(t, []string{"USDT"}, m)
	src := &failOnceSource{}
	c := NewObservationCollector(src, eng, m, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := c.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	// give the consume goroutine time to observe the stop signal
	time.Sleep(50 * time.Millisecond)
	if got := src.Reconnects(); got > 1 {
		t.Fatalf("reconnects after shutdown = %d", got)
	}
	if src.IsConnected() {
		t.Fatalf("source still connected after shutdown")
	}
}
