// Package commitfeed keeps the commit list of the selected project fresh.
//
// A Feed runs one polling goroutine. Every successful fetch replaces the held list
// and immediately schedules the next fetch, so commits and builds created elsewhere
// show up without a manual refresh. A failed fetch keeps the held list and waits for
// an external trigger (a project change or Refetch). The fetch is skipped only when
// no project is selected and no commits are held.
package commitfeed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rohitmondal03/amplication/internal/models"
	"github.com/rohitmondal03/amplication/internal/query"
	"github.com/rohitmondal03/amplication/internal/remote"
	"github.com/rohitmondal03/amplication/internal/store"
)

// Snapshot is the observable state of a feed.
type Snapshot struct {
	ProjectID string
	Commits   []*models.Commit
	Err       error
	Loading   bool
	Status    query.Status
	Fetches   int
	UpdatedAt time.Time
}

// Option configures a Feed.
type Option func(*Feed)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Feed) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithCache persists every received list and seeds an empty feed on project selection.
func WithCache(c store.Cache) Option {
	return func(f *Feed) { f.cache = c }
}

// WithMinInterval sets a floor between two successful fetches. Zero, the default,
// refetches as soon as a response arrives.
func WithMinInterval(d time.Duration) Option {
	return func(f *Feed) {
		if d > 0 {
			f.minInterval = d
		}
	}
}

// Feed is the commit feed of the selected project.
type Feed struct {
	client      remote.Client
	cache       store.Cache
	logger      *slog.Logger
	minInterval time.Duration

	trigger chan struct{}

	mu            sync.Mutex
	projectID     string
	loadedProject string
	commits       []*models.Commit
	err           error
	loading       bool
	status        query.Status
	fetches       int
	updatedAt     time.Time
	subs          map[int]func(Snapshot)
	nextSub       int
	started       bool
	closed        bool
	cancel        context.CancelFunc
	done          chan struct{}
}

// New creates a stopped feed with no project selected.
func New(client remote.Client, opts ...Option) *Feed {
	f := &Feed{
		client:  client,
		logger:  slog.Default(),
		trigger: make(chan struct{}, 1),
		subs:    make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Start launches the polling loop. It is a no-op if the feed was already started
// or closed. The loop stops when ctx is cancelled or Close is called.
func (f *Feed) Start(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.started || f.closed {
		return
	}
	f.started = true
	ctx, f.cancel = context.WithCancel(ctx)
	f.done = make(chan struct{})
	go f.run(ctx)
}

// SetProject selects the project whose commits are fetched. A nil project clears
// the selection; held commits are kept and polling continues with them.
func (f *Feed) SetProject(project *models.Project) {
	projectID := ""
	if project != nil {
		projectID = project.ID
	}

	f.mu.Lock()
	if f.closed || projectID == f.projectID {
		f.mu.Unlock()
		return
	}
	f.projectID = projectID
	seed := len(f.commits) == 0 && projectID != "" && f.cache != nil
	f.mu.Unlock()

	if seed {
		f.seedFromCache(projectID)
	}
	f.Refetch()
}

func (f *Feed) seedFromCache(projectID string) {
	commits, err := f.cache.LoadCommits(projectID)
	if err != nil {
		f.logger.Warn("commit cache: load failed", "project", projectID, "error", err)
		return
	}
	if len(commits) == 0 {
		return
	}

	f.mu.Lock()
	if f.projectID != projectID || len(f.commits) != 0 {
		f.mu.Unlock()
		return
	}
	f.commits = commits
	snap := f.snapshotLocked()
	subs := f.subscribersLocked()
	f.mu.Unlock()

	f.logger.Debug("commit cache: seeded feed", "project", projectID, "commits", len(commits))
	for _, fn := range subs {
		fn(snap)
	}
}

// Refetch asks the loop to fetch again. Requests coalesce while a fetch runs.
func (f *Feed) Refetch() {
	select {
	case f.trigger <- struct{}{}:
	default:
	}
}

// Snapshot returns the current state.
func (f *Feed) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

// Commits returns the held commit list, freshest first.
func (f *Feed) Commits() []*models.Commit {
	return f.Snapshot().Commits
}

// Subscribe registers fn for every state change.
func (f *Feed) Subscribe(fn func(Snapshot)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

// Close stops the loop and waits for it to exit. No subscriber is called after
// Close returns, so Close must not be called from a subscriber.
func (f *Feed) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	cancel, done := f.cancel, f.done
	f.subs = make(map[int]func(Snapshot))
	f.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (f *Feed) run(ctx context.Context) {
	defer close(f.done)
	for {
		projectID, skip := f.next()
		if skip {
			if !f.waitTrigger(ctx) {
				return
			}
			continue
		}

		// the fetch about to start answers any pending trigger
		select {
		case <-f.trigger:
		default:
		}

		f.begin(projectID)
		commits, err := f.client.Commits(ctx, projectID)
		if ctx.Err() != nil {
			return
		}

		if !f.finish(projectID, commits, err) {
			// project changed while fetching; the response is stale
			continue
		}
		if err != nil {
			f.logger.Warn("commit feed: fetch failed", "project", projectID, "error", err)
			if !f.waitTrigger(ctx) {
				return
			}
			continue
		}
		if !f.pause(ctx) {
			return
		}
	}
}

// next returns the project to fetch and whether the fetch is skipped.
func (f *Feed) next() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.projectID, f.projectID == "" && len(f.commits) == 0
}

func (f *Feed) begin(projectID string) {
	f.mu.Lock()
	f.fetches++
	var subs []func(Snapshot)
	if f.loadedProject != projectID || f.status == query.StatusIdle {
		f.loading = true
		f.status = query.StatusLoading
		subs = f.subscribersLocked()
	}
	snap := f.snapshotLocked()
	f.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// finish applies a response. It returns false when the response belongs to a
// project that is no longer selected.
func (f *Feed) finish(projectID string, commits []*models.Commit, err error) bool {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return false
	}
	if f.projectID != projectID {
		f.mu.Unlock()
		return false
	}

	f.loading = false
	f.updatedAt = time.Now()
	if err != nil {
		f.err = err
		f.status = query.StatusError
	} else {
		f.commits = commits
		f.loadedProject = projectID
		f.err = nil
		f.status = query.StatusSuccess
	}
	snap := f.snapshotLocked()
	subs := f.subscribersLocked()
	f.mu.Unlock()

	if err == nil && f.cache != nil && projectID != "" {
		if cerr := f.cache.SaveCommits(projectID, commits); cerr != nil {
			f.logger.Warn("commit cache: save failed", "project", projectID, "error", cerr)
		}
	}

	for _, fn := range subs {
		fn(snap)
	}
	return true
}

// waitTrigger blocks until Refetch/SetProject or cancellation.
func (f *Feed) waitTrigger(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-f.trigger:
		return true
	}
}

// pause runs between two successful fetches. Pending triggers are absorbed since
// the next fetch starts anyway.
func (f *Feed) pause(ctx context.Context) bool {
	if f.minInterval <= 0 {
		select {
		case <-ctx.Done():
			return false
		case <-f.trigger:
		default:
		}
		return true
	}

	t := time.NewTimer(f.minInterval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-f.trigger:
	case <-t.C:
	}
	return true
}

// snapshotLocked copies the state. Caller must hold f.mu.
func (f *Feed) snapshotLocked() Snapshot {
	return Snapshot{
		ProjectID: f.projectID,
		Commits:   f.commits,
		Err:       f.err,
		Loading:   f.loading,
		Status:    f.status,
		Fetches:   f.fetches,
		UpdatedAt: f.updatedAt,
	}
}

// subscribersLocked copies the subscriber list. Caller must hold f.mu.
func (f *Feed) subscribersLocked() []func(Snapshot) {
	subs := make([]func(Snapshot), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	return subs
}
