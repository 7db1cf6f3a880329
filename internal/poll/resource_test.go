package poll

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type payload struct {
	Balance float64
	Equity  float64
	Profit  float64
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestFirstFetchTransitions(t *testing.T) {
	r := New("challenge_stats", func(ctx context.Context) (payload, error) {
		return payload{Balance: 100000, Equity: 100000, Profit: 0}, nil
	}, Schedule{Interval: time.Hour, Immediate: true})

	if got := r.Snapshot().Status; got != StatusIdle {
		t.Fatalf("initial status = %v, want idle", got)
	}

	ch, unsub := r.Subscribe()
	defer unsub()

	r.Start(context.Background())
	defer r.Stop()

	// Observe loading then ready through the subscription.
	var statuses []Status
	for st := range ch {
		statuses = append(statuses, st.Status)
		if st.Status == StatusReady {
			if st.Value != (payload{Balance: 100000, Equity: 100000, Profit: 0}) {
				t.Errorf("value = %+v, want fetched payload", st.Value)
			}
			break
		}
	}
	if len(statuses) < 2 || statuses[0] != StatusLoading {
		t.Errorf("status sequence = %v, want loading then ready", statuses)
	}
	if !r.Snapshot().HasValue {
		t.Error("HasValue = false after successful fetch")
	}
}

func TestStopDiscardsScheduledTick(t *testing.T) {
	var fetches atomic.Int64
	r := New("watchlist", func(ctx context.Context) ([]string, error) {
		fetches.Add(1)
		return []string{"EURUSD"}, nil
	}, Schedule{Interval: time.Hour, Immediate: true})

	r.Start(context.Background())
	waitFor(t, func() bool { return r.Snapshot().Status == StatusReady }, "first fetch never completed")

	r.mu.Lock()
	gen := r.gen
	r.mu.Unlock()

	r.Stop()
	before := r.Snapshot()
	n := fetches.Load()

	// Flush the tick that was pending when Stop ran: same generation, so it
	// must neither fetch nor mutate state.
	r.pollOnce(context.Background(), gen)

	if fetches.Load() != n {
		t.Errorf("fetch issued after Stop: %d -> %d", n, fetches.Load())
	}
	after := r.Snapshot()
	if after.Status != before.Status || after.LastFetchedAt != before.LastFetchedAt {
		t.Errorf("state mutated after Stop: %+v -> %+v", before, after)
	}
}

func TestStopDiscardsInFlightResponse(t *testing.T) {
	release := make(chan struct{})
	var fetchStarted sync.WaitGroup
	fetchStarted.Add(1)

	r := New("global", func(ctx context.Context) (int, error) {
		fetchStarted.Done()
		<-release
		return 42, nil
	}, Schedule{Interval: time.Hour, Immediate: true})

	r.Start(context.Background())
	fetchStarted.Wait()
	r.Stop()
	close(release)

	// Give the late response a chance to (wrongly) land.
	time.Sleep(50 * time.Millisecond)
	st := r.Snapshot()
	if st.HasValue {
		t.Errorf("late response mutated state: %+v", st)
	}
	if st.Status == StatusReady {
		t.Errorf("status = ready after Stop, want no mutation")
	}
}

func TestSeedModeSkipsFetch(t *testing.T) {
	var fetches atomic.Int64
	seed := payload{Balance: 50000}
	r := New("challenge_stats", func(ctx context.Context) (payload, error) {
		fetches.Add(1)
		return payload{}, nil
	}, Schedule{Interval: 10 * time.Millisecond, Immediate: true}, WithSeed(seed))

	r.Start(context.Background())
	defer r.Stop()

	time.Sleep(60 * time.Millisecond)
	if fetches.Load() != 0 {
		t.Errorf("seeded resource issued %d fetches, want 0", fetches.Load())
	}
	st := r.Snapshot()
	if st.Status != StatusReady || st.Value != seed {
		t.Errorf("state = %+v, want ready with seed", st)
	}

	// Owner pushes an update; resource reflects it.
	r.SetValue(payload{Balance: 51000})
	if got := r.Snapshot().Value.Balance; got != 51000 {
		t.Errorf("Balance after SetValue = %f, want 51000", got)
	}
	if fetches.Load() != 0 {
		t.Errorf("SetValue triggered %d fetches, want 0", fetches.Load())
	}
}

func TestFailedRefreshKeepsValue(t *testing.T) {
	var calls atomic.Int64
	r := New("trends", func(ctx context.Context) (string, error) {
		if calls.Add(1) == 1 {
			return "first", nil
		}
		return "", errors.New("backend down")
	}, Schedule{Interval: time.Hour, Immediate: true})

	r.Start(context.Background())
	defer r.Stop()
	waitFor(t, func() bool { return r.Snapshot().Status == StatusReady }, "first fetch never completed")

	r.RefreshNow()
	waitFor(t, func() bool { return r.Snapshot().Status == StatusError }, "refresh failure never observed")

	st := r.Snapshot()
	if st.Value != "first" {
		t.Errorf("value = %q after failed refresh, want stale %q", st.Value, "first")
	}
	if !st.HasValue {
		t.Error("HasValue flipped to false on failed refresh")
	}
	if st.LastErr == nil {
		t.Error("LastErr = nil after failed refresh")
	}
}

func TestFirstLoadFailureLeavesNoValue(t *testing.T) {
	r := New("global", func(ctx context.Context) (*payload, error) {
		return nil, errors.New("network unreachable")
	}, Schedule{Interval: time.Hour, Immediate: true})

	r.Start(context.Background())
	defer r.Stop()
	waitFor(t, func() bool { return r.Snapshot().Status == StatusError }, "failure never observed")

	st := r.Snapshot()
	if st.HasValue {
		t.Error("HasValue = true after first-load failure, want false (empty state)")
	}
	if st.Value != nil {
		t.Errorf("value = %v, want nil", st.Value)
	}
}

func TestRefreshNowCoalesces(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var fetches atomic.Int64

	r := New("signal", func(ctx context.Context) (int, error) {
		if fetches.Add(1) == 1 {
			close(started)
			<-release
		}
		return 1, nil
	}, Schedule{Interval: time.Hour, Immediate: true})

	r.Start(context.Background())
	defer r.Stop()
	<-started

	// Hammer RefreshNow while the first fetch is pending: all calls must
	// collapse into no additional requests.
	for i := 0; i < 20; i++ {
		r.RefreshNow()
	}
	close(release)

	waitFor(t, func() bool { return r.Snapshot().Status == StatusReady }, "fetch never completed")
	time.Sleep(50 * time.Millisecond)

	if n := fetches.Load(); n != 1 {
		t.Errorf("fetches = %d, want 1 (coalesced)", n)
	}
}

func TestIntervalRefreshRepeats(t *testing.T) {
	var fetches atomic.Int64
	r := New("heatmap", func(ctx context.Context) (int, error) {
		return int(fetches.Add(1)), nil
	}, Schedule{Interval: 15 * time.Millisecond, Immediate: true})

	r.Start(context.Background())
	defer r.Stop()

	waitFor(t, func() bool { return fetches.Load() >= 3 }, "interval refresh never repeated")
}

func TestRestartDoesNotAccumulateTimers(t *testing.T) {
	var fetches atomic.Int64
	r := New("watchlist", func(ctx context.Context) (int, error) {
		return int(fetches.Add(1)), nil
	}, Schedule{Interval: 20 * time.Millisecond, Immediate: true})

	ctx := context.Background()
	r.Start(ctx)
	r.Start(ctx) // duplicate Start is a no-op
	waitFor(t, func() bool { return fetches.Load() >= 1 }, "first fetch never happened")
	r.Stop()

	r.Start(ctx)
	defer r.Stop()

	base := fetches.Load()
	time.Sleep(105 * time.Millisecond)
	got := fetches.Load() - base

	// One timer: ~5 ticks in 105ms at 20ms. Two leaked timers would double it.
	if got > 8 {
		t.Errorf("observed %d fetches in 105ms at 20ms interval, timers accumulated", got)
	}
}

func TestOneShotSchedule(t *testing.T) {
	var fetches atomic.Int64
	r := New("chat_history", func(ctx context.Context) (int, error) {
		return int(fetches.Add(1)), nil
	}, Schedule{Interval: 0, Immediate: true})

	r.Start(context.Background())
	defer r.Stop()

	waitFor(t, func() bool { return r.Snapshot().Status == StatusReady }, "one-shot fetch never completed")
	time.Sleep(50 * time.Millisecond)
	if n := fetches.Load(); n != 1 {
		t.Errorf("one-shot resource fetched %d times, want 1", n)
	}

	// Manual refresh still works on a one-shot resource.
	r.RefreshNow()
	waitFor(t, func() bool { return fetches.Load() == 2 }, "manual refresh never ran")
}
