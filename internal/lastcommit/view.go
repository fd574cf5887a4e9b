// Package lastcommit keeps the most recent commit of a resource, and the build it
// triggered, in sync with the remote API and with the application context.
//
// The view refetches whenever the pending-changes error flag changes: once when it
// is created, once for every distinct value passed to Update, and once on Close.
// Whether the view is "generating" follows the commit-running flag of the
// application context and nothing else.
package lastcommit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rohitmondal03/amplication/internal/appctx"
	"github.com/rohitmondal03/amplication/internal/buildsummary"
	"github.com/rohitmondal03/amplication/internal/models"
	"github.com/rohitmondal03/amplication/internal/observe"
	"github.com/rohitmondal03/amplication/internal/query"
	"github.com/rohitmondal03/amplication/internal/remote"
)

// ErrMissingResourceID is returned by New when Props.ResourceID is empty.
var ErrMissingResourceID = errors.New("resource id is required")

const defaultTeardownTimeout = 5 * time.Second

// Props are the construction-time inputs of a view.
type Props struct {
	ResourceID string
}

// Option configures a View.
type Option func(*View)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(v *View) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithClock overrides the time source used for step durations.
func WithClock(now func() time.Time) Option {
	return func(v *View) {
		if now != nil {
			v.now = now
		}
	}
}

// WithTeardownRefetch enables or disables the refetch issued by Close. It is
// enabled by default; its response is always discarded.
func WithTeardownRefetch(enabled bool) Option {
	return func(v *View) { v.teardownRefetch = enabled }
}

// WithTeardownTimeout bounds the refetch issued by Close.
func WithTeardownTimeout(d time.Duration) Option {
	return func(v *View) {
		if d > 0 {
			v.teardownTimeout = d
		}
	}
}

// View is the last-commit view of one resource.
type View struct {
	resourceID      string
	client          remote.Client
	logger          *slog.Logger
	now             func() time.Time
	teardownRefetch bool
	teardownTimeout time.Duration

	query       *query.Query[[]*models.Commit]
	pendingErr  *observe.Observer[bool]
	unsubscribe func()
	wg          sync.WaitGroup

	mu       sync.Mutex
	app      appctx.State
	localErr error
	closing  bool
	closed   bool
	subs     map[int]func()
	nextSub  int
}

// New creates the view and issues the initial fetch.
func New(client remote.Client, props Props, app appctx.State, opts ...Option) (*View, error) {
	resourceID := strings.TrimSpace(props.ResourceID)
	if resourceID == "" {
		return nil, ErrMissingResourceID
	}

	v := &View{
		resourceID:      resourceID,
		client:          client,
		logger:          slog.Default(),
		now:             time.Now,
		teardownRefetch: true,
		teardownTimeout: defaultTeardownTimeout,
		app:             app,
		subs:            make(map[int]func()),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.logger = v.logger.With("resource", resourceID)

	v.query = query.New("lastCommit", func(ctx context.Context) ([]*models.Commit, error) {
		return client.LastCommit(ctx, resourceID)
	}, query.WithLogger(v.logger))
	v.unsubscribe = v.query.Subscribe(func(query.Result[[]*models.Commit]) { v.notify() })
	v.pendingErr = observe.New(app.PendingChangesIsError, v.onPendingChangesError)

	return v, nil
}

// onPendingChangesError runs for the initial flag, every toggle, and on Close.
func (v *View) onPendingChangesError(isError bool) {
	v.mu.Lock()
	closing := v.closing
	v.mu.Unlock()

	if !closing {
		v.logger.Debug("refetching last commit", "pendingChangesIsError", isError)
		v.query.Refetch()
		return
	}
	if !v.teardownRefetch {
		return
	}

	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), v.teardownTimeout)
		defer cancel()
		if _, err := v.client.LastCommit(ctx, v.resourceID); err != nil {
			v.logger.Debug("teardown refetch failed", "error", err)
		}
	}()
}

// ResourceID returns the resource the view is bound to.
func (v *View) ResourceID() string {
	return v.resourceID
}

// Update passes a new application context to the view.
func (v *View) Update(app appctx.State) {
	v.mu.Lock()
	if v.closed || v.closing {
		v.mu.Unlock()
		return
	}
	changed := v.app.CommitRunning != app.CommitRunning ||
		v.app.PendingChangesIsError != app.PendingChangesIsError
	v.app = app
	v.mu.Unlock()

	v.pendingErr.Set(app.PendingChangesIsError)
	if changed {
		v.notify()
	}
}

// Result returns the raw query snapshot.
func (v *View) Result() query.Result[[]*models.Commit] {
	return v.query.Result()
}

// LastCommit returns the most recent commit, or nil while loading or when the
// resource has no commits.
func (v *View) LastCommit() *models.Commit {
	r := v.query.Result()
	if r.Loading || len(r.Data) == 0 {
		return nil
	}
	return r.Data[0]
}

// Build returns the most recent build of the last commit, or nil.
func (v *View) Build() *models.Build {
	return v.LastCommit().LatestBuild()
}

// Generating reports whether a commit is running in the application context.
func (v *View) Generating() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.app.CommitRunning
}

// ErrorMessage returns the error to display. A remote query error takes precedence
// over an error reported by a child.
func (v *View) ErrorMessage() string {
	if msg := remote.FormatError(v.query.Result().Err); msg != "" {
		return msg
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return remote.FormatError(v.localErr)
}

// LocalError returns the last error reported by a child.
func (v *View) LocalError() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.localErr
}

// ReportError records an error raised by a child section. It stays until the view
// is recreated.
func (v *View) ReportError(err error) {
	if err == nil {
		return
	}
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.localErr = err
	v.mu.Unlock()

	v.logger.Warn("child reported error", "error", err)
	v.notify()
}

// DownloadArchive downloads the archive of the current build into w. A failure is
// returned and also recorded as the view's local error.
func (v *View) DownloadArchive(ctx context.Context, w io.Writer) (int64, error) {
	n, err := buildsummary.Download(ctx, v.client, v.Build(), w)
	if err != nil {
		v.ReportError(err)
		return n, err
	}
	return n, nil
}

// Subscribe registers fn to be called after any state change.
func (v *View) Subscribe(fn func()) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.nextSub
	v.nextSub++
	v.subs[id] = fn
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.subs, id)
	}
}

func (v *View) notify() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	subs := make([]func(), 0, len(v.subs))
	for _, fn := range v.subs {
		subs = append(subs, fn)
	}
	v.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

// Close tears the view down. The teardown refetch is issued, the query is disposed
// and no subscriber is called afterwards.
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closing = true
	v.mu.Unlock()

	v.pendingErr.Close()
	v.unsubscribe()
	v.query.Dispose()

	v.mu.Lock()
	v.closed = true
	v.subs = make(map[int]func())
	v.mu.Unlock()
}

// Wait blocks until every goroutine started by the view has returned.
func (v *View) Wait() {
	v.query.Wait()
	v.wg.Wait()
}
