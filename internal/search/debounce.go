// Package search debounces free-text task searches.
//
// Every keystroke calls Schedule, which stops the pending timer and bumps a
// monotonic sequence number. When the timer fires the query runs with a
// context that the next Schedule cancels, and its result is delivered only
// if no newer Schedule happened while it was in flight.
package search

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultDelay is used when a non-positive delay is configured
const DefaultDelay = 300 * time.Millisecond

// Sequence hands out monotonically increasing request numbers and reports
// whether a number is still the newest. The zero value is ready to use and
// must not be copied after first use.
type Sequence struct {
	n atomic.Uint64
}

// Next invalidates every earlier number and returns a new one
func (s *Sequence) Next() uint64 {
	return s.n.Add(1)
}

// Current returns the newest number handed out
func (s *Sequence) Current() uint64 {
	return s.n.Load()
}

// IsCurrent reports whether seq is the newest number
func (s *Sequence) IsCurrent(seq uint64) bool {
	return s.n.Load() == seq
}

// Func runs one search
type Func[T any] func(ctx context.Context, query string) (T, error)

// Result is the outcome of one search
type Result[T any] struct {
	Seq   uint64
	Query string
	Value T
	Err   error
}

// Debouncer delays a search until input pauses for the configured delay
type Debouncer[T any] struct {
	delay   time.Duration
	run     Func[T]
	deliver func(Result[T])
	seq     Sequence

	mu     sync.Mutex
	timer  *time.Timer
	cancel context.CancelFunc
	closed bool
}

// New creates a debouncer. deliver is called from the timer goroutine with
// each result that was still current when its search finished.
func New[T any](delay time.Duration, run Func[T], deliver func(Result[T])) *Debouncer[T] {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer[T]{delay: delay, run: run, deliver: deliver}
}

// Delay returns the configured quiet period
func (d *Debouncer[T]) Delay() time.Duration {
	return d.delay
}

// Schedule replaces any pending or in-flight search with query and returns
// its sequence number.
func (d *Debouncer[T]) Schedule(query string) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	seq := d.seq.Next()
	if d.closed {
		return seq
	}
	d.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.timer = time.AfterFunc(d.delay, func() { d.fire(ctx, seq, query) })
	return seq
}

// Close stops the pending search and drops any result still in flight
func (d *Debouncer[T]) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.seq.Next()
	d.stopLocked()
}

func (d *Debouncer[T]) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func (d *Debouncer[T]) fire(ctx context.Context, seq uint64, query string) {
	if !d.seq.IsCurrent(seq) {
		return
	}
	value, err := d.run(ctx, query)
	if !d.seq.IsCurrent(seq) {
		return
	}
	d.deliver(Result[T]{Seq: seq, Query: query, Value: value, Err: err})
}
