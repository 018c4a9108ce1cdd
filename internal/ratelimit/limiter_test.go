package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestLimiter_AllowsWithinLimit(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	l := New(NewMemoryStore(), WithClock(clock.Now))

	for i := 0; i < DefaultMaxRequests; i++ {
		res := l.Check(context.Background(), "test-ip-1")
		if !res.Allowed {
			t.Fatalf("request %d: expected allowed", i+1)
		}
		if want := DefaultMaxRequests - i - 1; res.Remaining != want {
			t.Errorf("request %d: remaining = %d, want %d", i+1, res.Remaining, want)
		}
		if res.Limit != DefaultMaxRequests {
			t.Errorf("limit = %d, want %d", res.Limit, DefaultMaxRequests)
		}
	}
}

func TestLimiter_BlocksSixthRequest(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	l := New(NewMemoryStore(), WithClock(clock.Now))

	for i := 0; i < 5; i++ {
		l.Check(context.Background(), "test-ip-2")
	}

	res := l.Check(context.Background(), "test-ip-2")
	if res.Allowed {
		t.Fatal("6th request should be rejected")
	}
	if res.Remaining != 0 {
		t.Errorf("remaining = %d, want 0", res.Remaining)
	}
}

func TestLimiter_RejectedRequestsKeepCounting(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	store := NewMemoryStore()
	l := New(store, WithClock(clock.Now))

	for i := 0; i < 8; i++ {
		l.Check(context.Background(), "spammer")
	}

	entry, ok, err := store.Get(context.Background(), "spammer")
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v", ok, err)
	}
	if entry.Count != 8 {
		t.Errorf("count = %d, want 8", entry.Count)
	}
}

func TestLimiter_ResetsAfterWindow(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	l := New(NewMemoryStore(), WithClock(clock.Now))

	for i := 0; i < 5; i++ {
		l.Check(context.Background(), "test-ip-3")
	}
	if l.Check(context.Background(), "test-ip-3").Allowed {
		t.Fatal("expected rejection before window expiry")
	}

	clock.Advance(DefaultWindow + time.Second)

	res := l.Check(context.Background(), "test-ip-3")
	if !res.Allowed {
		t.Fatal("expected request allowed after window expiry")
	}
	if res.Remaining != 4 {
		t.Errorf("remaining = %d, want 4", res.Remaining)
	}
}

func TestLimiter_WindowStillActiveAtExactResetTime(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	l := New(NewMemoryStore(), WithClock(clock.Now))

	for i := 0; i < 5; i++ {
		l.Check(context.Background(), "edge")
	}
	clock.Advance(DefaultWindow)

	if l.Check(context.Background(), "edge").Allowed {
		t.Error("window ending exactly now is still active; request should be rejected")
	}
}

func TestLimiter_TracksIdentifiersSeparately(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	l := New(NewMemoryStore(), WithClock(clock.Now))

	for i := 0; i < 5; i++ {
		l.Check(context.Background(), "test-ip-4")
	}

	res := l.Check(context.Background(), "test-ip-5")
	if !res.Allowed || res.Remaining != 4 {
		t.Errorf("second identifier: allowed=%v remaining=%d, want true/4", res.Allowed, res.Remaining)
	}
}

func TestLimiter_ResetTime(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	l := New(NewMemoryStore(), WithClock(clock.Now))
	before := clock.Now()

	res := l.Check(context.Background(), "test-ip-6")

	if !res.ResetTime.After(before) {
		t.Errorf("reset time %v should be after %v", res.ResetTime, before)
	}
	if res.ResetTime.After(before.Add(DefaultWindow)) {
		t.Errorf("reset time %v should be <= %v", res.ResetTime, before.Add(DefaultWindow))
	}

	clock.Advance(time.Minute)
	second := l.Check(context.Background(), "test-ip-6")
	if !second.ResetTime.Equal(res.ResetTime) {
		t.Errorf("reset time moved within the window: %v -> %v", res.ResetTime, second.ResetTime)
	}
}

func TestLimiter_BoundaryBurstIsPreserved(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	l := New(NewMemoryStore(), WithClock(clock.Now))

	// Open the window, wait until just before it closes, spend the quota.
	allowed := 0
	if l.Check(context.Background(), "burst").Allowed {
		allowed++
	}
	clock.Advance(DefaultWindow - time.Second)
	for i := 0; i < 4; i++ {
		if l.Check(context.Background(), "burst").Allowed {
			allowed++
		}
	}
	// Two seconds later a new window is open.
	clock.Advance(2 * time.Second)
	for i := 0; i < 5; i++ {
		if l.Check(context.Background(), "burst").Allowed {
			allowed++
		}
	}

	if allowed != 2*DefaultMaxRequests {
		t.Errorf("allowed across the seam = %d, want %d", allowed, 2*DefaultMaxRequests)
	}
}

func TestLimiter_CustomLimitAndWindow(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	l := New(NewMemoryStore(), WithClock(clock.Now), WithMaxRequests(2), WithWindow(time.Minute))

	if l.Limit() != 2 || l.Window() != time.Minute {
		t.Fatalf("Limit/Window = %d/%v", l.Limit(), l.Window())
	}
	l.Check(context.Background(), "k")
	l.Check(context.Background(), "k")
	if l.Check(context.Background(), "k").Allowed {
		t.Error("third request should be rejected with limit 2")
	}
}

func TestLimiter_ConcurrentChecksDoNotLoseUpdates(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	l := New(NewMemoryStore(), WithClock(clock.Now))

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Check(context.Background(), "shared").Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := allowed.Load(); got != DefaultMaxRequests {
		t.Errorf("allowed = %d, want exactly %d", got, DefaultMaxRequests)
	}
}

type failingStore struct{}

func (failingStore) Increment(context.Context, string, time.Duration, time.Time) (Entry, error) {
	return Entry{}, errors.New("store down")
}
func (failingStore) Get(context.Context, string) (Entry, bool, error) { return Entry{}, false, nil }
func (failingStore) Set(context.Context, string, Entry) error          { return nil }
func (failingStore) Delete(context.Context, string) error              { return nil }
func (failingStore) Sweep(context.Context, time.Time) (int, error)     { return 0, nil }

func TestLimiter_FailsOpenOnStoreError(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	l := New(failingStore{}, WithClock(clock.Now))

	res := l.Check(context.Background(), "any")
	if !res.Allowed {
		t.Error("expected fail-open")
	}
	if res.Remaining != DefaultMaxRequests-1 {
		t.Errorf("remaining = %d, want %d", res.Remaining, DefaultMaxRequests-1)
	}
}

func TestResult_RetryAfterSeconds(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		reset time.Time
		want  int
	}{
		{now.Add(15 * time.Minute), 900},
		{now.Add(1500 * time.Millisecond), 2},
		{now, 0},
		{now.Add(-time.Second), 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.want), func(t *testing.T) {
			got := Result{ResetTime: tt.reset}.RetryAfterSeconds(now)
			if got != tt.want {
				t.Errorf("RetryAfterSeconds() = %d, want %d", got, tt.want)
			}
		})
	}
}
