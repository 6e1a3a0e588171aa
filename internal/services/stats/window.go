package stats

import (
	"sync"
	"time"
)

// Window is a fixed-capacity rolling series. Appends are expected from a
// single aggregation authority; a mutex guards against pipelined ticks
// interleaving partial updates. Reads return stable copies.
type Window struct {
	mu   sync.RWMutex
	cap  int
	vals []float64
}

// NewWindow creates a rolling window holding up to capacity values.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{cap: capacity, vals: make([]float64, 0, capacity)}
}

// Push appends v, evicting the oldest value once full.
func (w *Window) Push(v float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.vals) == w.cap {
		copy(w.vals, w.vals[1:])
		w.vals[len(w.vals)-1] = v
		return
	}
	w.vals = append(w.vals, v)
}

// Len returns the number of stored values.
func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.vals)
}

// Values returns a copy of the stored series, oldest first.
func (w *Window) Values() []float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]float64, len(w.vals))
	copy(out, w.vals)
	return out
}

// Tail returns a copy of the most recent n values, oldest first.
func (w *Window) Tail(n int) []float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if n <= 0 || len(w.vals) == 0 {
		return nil
	}
	if n > len(w.vals) {
		n = len(w.vals)
	}
	out := make([]float64, n)
	copy(out, w.vals[len(w.vals)-n:])
	return out
}

type timedSample struct {
	at time.Time
	v  float64
}

// TimedWindow is a rolling series bounded by age instead of count, used
// for the short-horizon peg deviation volatility.
type TimedWindow struct {
	mu      sync.Mutex
	span    time.Duration
	samples []timedSample
}

// NewTimedWindow creates a window retaining samples no older than span.
func NewTimedWindow(span time.Duration) *TimedWindow {
	if span <= 0 {
		span = 5 * time.Minute
	}
	return &TimedWindow{span: span}
}

// Push appends a sample and evicts everything older than the span
// relative to the given time.
func (w *TimedWindow) Push(at time.Time, v float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.samples = append(w.samples, timedSample{at: at, v: v})
	cutoff := at.Add(-w.span)
	i := 0
	for i < len(w.samples) && w.samples[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		w.samples = w.samples[i:]
	}
}

// Values returns the retained sample values, oldest first.
func (w *TimedWindow) Values() []float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]float64, len(w.samples))
	for i, s := range w.samples {
		out[i] = s.v
	}
	return out
}
