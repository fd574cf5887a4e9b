// Package query implements a watched remote query: a fetch function whose latest
// result is cached, observable and refreshed on demand.
//
// A Query never runs two fetches at once. Refetch requests that arrive while a fetch
// is outstanding are coalesced into a single re-run once it completes. After Dispose,
// responses still in flight are discarded and subscribers are never called again.
package query

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Status is the lifecycle state of a query.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is a snapshot of a query. Data keeps the last successful payload even when
// a later fetch failed; Err holds the error of the most recent fetch, if any.
// Loading is only true until the first fetch completes.
type Result[T any] struct {
	Data      T
	HasData   bool
	Loading   bool
	Err       error
	Status    Status
	UpdatedAt time.Time
}

// Fetcher loads the query payload.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Option configures a Query.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for fetch diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Query is a single watched query.
type Query[T any] struct {
	name   string
	fetch  Fetcher[T]
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	result   Result[T]
	inflight bool
	rerun    bool
	disposed bool
	subs     map[int]func(Result[T])
	nextSub  int
	fetches  int
}

// New creates an idle query. Nothing is fetched until Refetch is called.
func New[T any](name string, fetch Fetcher[T], opts ...Option) *Query[T] {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Query[T]{
		name:   name,
		fetch:  fetch,
		logger: o.logger,
		ctx:    ctx,
		cancel: cancel,
		subs:   make(map[int]func(Result[T])),
	}
}

// Result returns the current snapshot.
func (q *Query[T]) Result() Result[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.result
}

// Fetches returns how many fetches have been started.
func (q *Query[T]) Fetches() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.fetches
}

// Subscribe registers fn to be called with every new snapshot. The returned func
// removes the subscription.
func (q *Query[T]) Subscribe(fn func(Result[T])) func() {
	q.mu.Lock()
	defer q.mu.Unlock()
	id := q.nextSub
	q.nextSub++
	q.subs[id] = fn
	return func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		delete(q.subs, id)
	}
}

// Refetch schedules a fetch. It never blocks on the network.
func (q *Query[T]) Refetch() {
	q.mu.Lock()
	if q.disposed {
		q.mu.Unlock()
		return
	}
	if q.inflight {
		q.rerun = true
		q.mu.Unlock()
		return
	}
	q.inflight = true
	q.fetches++

	var notify []func(Result[T])
	if !q.result.HasData && q.result.Status == StatusIdle {
		q.result.Loading = true
		q.result.Status = StatusLoading
		notify = q.subscribers()
	}
	snapshot := q.result
	q.wg.Add(1)
	q.mu.Unlock()

	for _, fn := range notify {
		fn(snapshot)
	}
	go q.run()
}

func (q *Query[T]) run() {
	defer q.wg.Done()
	for {
		start := time.Now()
		data, err := q.fetch(q.ctx)

		q.mu.Lock()
		if q.disposed {
			q.inflight = false
			q.mu.Unlock()
			q.logger.Debug("query: discarding response after dispose", "query", q.name)
			return
		}

		if err != nil {
			q.result.Err = err
			q.result.Status = StatusError
		} else {
			q.result.Data = data
			q.result.HasData = true
			q.result.Err = nil
			q.result.Status = StatusSuccess
		}
		q.result.Loading = false
		q.result.UpdatedAt = time.Now()

		again := q.rerun
		q.rerun = false
		if again {
			q.fetches++
		} else {
			q.inflight = false
		}
		snapshot := q.result
		subs := q.subscribers()
		q.mu.Unlock()

		if err != nil {
			q.logger.Warn("query: fetch failed", "query", q.name, "error", err, "duration", time.Since(start))
		} else {
			q.logger.Debug("query: fetched", "query", q.name, "duration", time.Since(start))
		}

		for _, fn := range subs {
			fn(snapshot)
		}
		if !again {
			return
		}
	}
}

// subscribers copies the subscriber list. Caller must hold q.mu.
func (q *Query[T]) subscribers() []func(Result[T]) {
	subs := make([]func(Result[T]), 0, len(q.subs))
	for _, fn := range q.subs {
		subs = append(subs, fn)
	}
	return subs
}

// Dispose cancels any outstanding fetch and drops all subscribers. Responses that
// arrive afterwards are discarded. Dispose does not wait; use Wait for that.
func (q *Query[T]) Dispose() {
	q.mu.Lock()
	if q.disposed {
		q.mu.Unlock()
		return
	}
	q.disposed = true
	q.rerun = false
	q.subs = make(map[int]func(Result[T]))
	q.mu.Unlock()
	q.cancel()
}

// Disposed reports whether Dispose was called.
func (q *Query[T]) Disposed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.disposed
}

// Wait blocks until no fetch goroutine is running.
func (q *Query[T]) Wait() {
	q.wg.Wait()
}
