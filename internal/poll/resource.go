// Package poll provides the generic lifecycle for one polled unit of remote
// data: an initial fetch, a fixed-interval refresh, coalesced manual
// refreshes, cancellation, and last-known-good caching. Every dashboard
// widget is a thin adapter over one Resource, so the fetch/refresh/cleanup
// behaviour is implemented exactly once.
package poll

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Status is the lifecycle state of a Resource.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// FetchFunc performs one fetch for the resource and returns the decoded
// payload. It must honour ctx cancellation.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Schedule controls when a Resource fetches. Interval 0 means fetch once and
// keep the value until stopped (manual refreshes still work). Immediate
// controls whether the first fetch happens on Start or after one interval.
type Schedule struct {
	Interval  time.Duration
	Immediate bool
}

// State is a point-in-time snapshot of a Resource. Value holds the last
// successfully fetched payload; it survives later failures so consumers can
// keep serving stale data instead of a blank view. HasValue distinguishes a
// zero payload from "never fetched".
type State[T any] struct {
	Value         T
	HasValue      bool
	Status        Status
	LastErr       error
	LastFetchedAt time.Time
}

// Resource owns the fetch/refresh/cancel lifecycle for one unit of remote
// data. All methods are safe for concurrent use.
type Resource[T any] struct {
	name  string
	fetch FetchFunc[T]
	sched Schedule
	log   *slog.Logger

	mu       sync.Mutex
	state    State[T]
	gen      int // bumped on Start/Stop; a fetch result from an old generation is discarded
	inFlight bool
	started  bool
	seeded   bool
	cancel   context.CancelFunc
	kick     chan struct{}

	subsMu    sync.Mutex
	nextSubID int
	subs      map[int]chan State[T]
}

// Option configures a Resource at construction.
type Option[T any] func(*Resource[T])

// WithSeed puts the resource in seed mode: Start serves the given value as
// Ready and never fetches or schedules a timer. The owner of the seed is
// expected to push updates via SetValue.
func WithSeed[T any](v T) Option[T] {
	return func(r *Resource[T]) {
		r.seeded = true
		r.state.Value = v
		r.state.HasValue = true
	}
}

// WithLogger sets the logger used for swallowed fetch failures.
func WithLogger[T any](log *slog.Logger) Option[T] {
	return func(r *Resource[T]) { r.log = log }
}

// New creates a Resource named name that fetches via fetch on the given
// schedule. The resource does nothing until Start is called.
func New[T any](name string, fetch FetchFunc[T], sched Schedule, opts ...Option[T]) *Resource[T] {
	r := &Resource[T]{
		name:  name,
		fetch: fetch,
		sched: sched,
		log:   slog.Default(),
		kick:  make(chan struct{}, 1),
		subs:  make(map[int]chan State[T]),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the resource name.
func (r *Resource[T]) Name() string { return r.name }

// Start begins the resource lifecycle. In seed mode it publishes the seed as
// Ready and returns without fetching. Otherwise it launches the poll loop:
// an immediate fetch when scheduled, then one fetch per interval until Stop.
// Calling Start on an already-started resource is a no-op, so a restart can
// never accumulate timers.
func (r *Resource[T]) Start(ctx context.Context) {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.gen++
	gen := r.gen

	if r.seeded {
		r.state.Status = StatusReady
		snap := r.state
		r.mu.Unlock()
		r.publish(snap)
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.mu.Unlock()

	go r.run(ctx, gen)
}

// Stop cancels the pending timer and invalidates any in-flight fetch: a
// response that arrives after Stop is discarded without mutating state.
func (r *Resource[T]) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.started = false
	r.gen++
	r.inFlight = false
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// RefreshNow triggers an out-of-band fetch without disturbing the timer
// phase. While a fetch is already in flight the call is a no-op, so any
// number of concurrent triggers collapse into at most one request.
func (r *Resource[T]) RefreshNow() {
	r.mu.Lock()
	if !r.started || r.seeded || r.inFlight {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	select {
	case r.kick <- struct{}{}:
	default:
	}
}

// SetValue replaces the resource value from outside the fetch cycle. It is
// how a seed owner pushes subsequent updates.
func (r *Resource[T]) SetValue(v T) {
	r.mu.Lock()
	r.state.Value = v
	r.state.HasValue = true
	r.state.Status = StatusReady
	r.state.LastErr = nil
	snap := r.state
	r.mu.Unlock()
	r.publish(snap)
}

// Snapshot returns the current state.
func (r *Resource[T]) Snapshot() State[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Subscribe registers a listener for state snapshots. Sends are non-blocking;
// a slow subscriber misses intermediate snapshots rather than stalling the
// poll loop. The returned cancel func unregisters the subscription and closes
// the channel.
func (r *Resource[T]) Subscribe() (<-chan State[T], func()) {
	ch := make(chan State[T], 8)
	r.subsMu.Lock()
	id := r.nextSubID
	r.nextSubID++
	r.subs[id] = ch
	r.subsMu.Unlock()

	cancel := func() {
		r.subsMu.Lock()
		if c, ok := r.subs[id]; ok {
			delete(r.subs, id)
			close(c)
		}
		r.subsMu.Unlock()
	}
	return ch, cancel
}

func (r *Resource[T]) publish(snap State[T]) {
	r.subsMu.Lock()
	for _, ch := range r.subs {
		select {
		case ch <- snap:
		default:
			// Slow subscriber, drop snapshot.
		}
	}
	r.subsMu.Unlock()
}

// run is the poll loop. Fetches for one resource are strictly sequential:
// the loop goroutine is the only place pollOnce runs.
func (r *Resource[T]) run(ctx context.Context, gen int) {
	if r.sched.Immediate {
		r.pollOnce(ctx, gen)
	}

	if r.sched.Interval <= 0 {
		if !r.sched.Immediate {
			r.pollOnce(ctx, gen)
		}
		// One-shot resource: no timer, but manual refreshes still land here.
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.kick:
				r.pollOnce(ctx, gen)
			}
		}
	}

	timer := time.NewTimer(r.sched.Interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			r.pollOnce(ctx, gen)
			timer.Reset(r.sched.Interval)
		case <-r.kick:
			r.pollOnce(ctx, gen)
		}
	}
}

// pollOnce performs one fetch cycle for the given generation. A generation
// mismatch on entry or on completion means the resource was stopped; the
// cycle then leaves state untouched.
func (r *Resource[T]) pollOnce(ctx context.Context, gen int) {
	r.mu.Lock()
	if r.gen != gen || r.inFlight {
		r.mu.Unlock()
		return
	}
	r.inFlight = true
	r.state.Status = StatusLoading
	snap := r.state
	r.mu.Unlock()
	r.publish(snap)

	v, err := r.fetch(ctx)

	r.mu.Lock()
	if r.gen != gen {
		// Stopped while in flight: discard the result.
		r.mu.Unlock()
		return
	}
	r.inFlight = false
	if err != nil {
		// Failures are swallowed: status flips to Error but the previous
		// value stays, so consumers keep serving stale data.
		r.state.Status = StatusError
		r.state.LastErr = err
		snap = r.state
		r.mu.Unlock()
		r.log.Warn("fetch failed", "resource", r.name, "error", err)
		r.publish(snap)
		return
	}
	r.state.Value = v
	r.state.HasValue = true
	r.state.Status = StatusReady
	r.state.LastErr = nil
	r.state.LastFetchedAt = time.Now()
	snap = r.state
	r.mu.Unlock()
	r.publish(snap)
}
