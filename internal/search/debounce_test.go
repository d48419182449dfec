package search

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSequence(t *testing.T) {
	var s Sequence
	first := s.Next()
	if !s.IsCurrent(first) {
		t.Fatal("first number should be current")
	}
	second := s.Next()
	if s.IsCurrent(first) || !s.IsCurrent(second) || s.Current() != second {
		t.Errorf("first=%d second=%d current=%d", first, second, s.Current())
	}
}

func TestBurstRunsOnlyLastQuery(t *testing.T) {
	var runs atomic.Int32
	results := make(chan Result[string], 4)

	d := New(20*time.Millisecond, func(ctx context.Context, q string) (string, error) {
		runs.Add(1)
		return "hits for " + q, nil
	}, func(r Result[string]) { results <- r })
	defer d.Close()

	for _, q := range []string{"l", "lo", "log", "logo"} {
		d.Schedule(q)
	}

	select {
	case r := <-results:
		if r.Query != "logo" || r.Value != "hits for logo" {
			t.Errorf("result = %+v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no result delivered")
	}

	time.Sleep(60 * time.Millisecond)
	if n := runs.Load(); n != 1 {
		t.Errorf("search ran %d times, want 1", n)
	}
}

func TestStaleResultIsDropped(t *testing.T) {
	release := make(chan struct{})
	started := make(chan string, 2)
	results := make(chan Result[string], 2)

	d := New(5*time.Millisecond, func(ctx context.Context, q string) (string, error) {
		started <- q
		if q == "slow" {
			<-release
		}
		return q, ctx.Err()
	}, func(r Result[string]) { results <- r })
	defer d.Close()

	d.Schedule("slow")
	if q := <-started; q != "slow" {
		t.Fatalf("started %q", q)
	}

	latest := d.Schedule("fast")
	r := <-results
	if r.Query != "fast" || r.Seq != latest {
		t.Errorf("result = %+v, want fast/%d", r, latest)
	}

	close(release)
	select {
	case r := <-results:
		t.Errorf("stale result delivered: %+v", r)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestScheduleCancelsInFlightContext(t *testing.T) {
	cancelled := make(chan struct{})
	var once sync.Once

	d := New(5*time.Millisecond, func(ctx context.Context, q string) (int, error) {
		if q == "first" {
			<-ctx.Done()
			once.Do(func() { close(cancelled) })
		}
		return 0, nil
	}, func(Result[int]) {})
	defer d.Close()

	d.Schedule("first")
	time.Sleep(30 * time.Millisecond)
	d.Schedule("second")

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight search context was not cancelled")
	}
}

func TestCloseDropsPending(t *testing.T) {
	var runs atomic.Int32
	d := New(10*time.Millisecond, func(ctx context.Context, q string) (int, error) {
		runs.Add(1)
		return 0, nil
	}, func(Result[int]) {})

	d.Schedule("x")
	d.Close()
	d.Schedule("y")
	time.Sleep(40 * time.Millisecond)
	if n := runs.Load(); n != 0 {
		t.Errorf("search ran %d times after Close", n)
	}
}

func TestDefaultDelay(t *testing.T) {
	d := New(0, func(context.Context, string) (int, error) { return 0, nil }, func(Result[int]) {})
	if d.Delay() != DefaultDelay {
		t.Errorf("Delay = %v", d.Delay())
	}
}
