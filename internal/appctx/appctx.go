// Package appctx holds the application-wide signals that views react to:
// whether a commit is running, whether the pending-changes flow errored, and which
// project is selected. State is passed explicitly to views on every update.
package appctx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rohitmondal03/amplication/internal/models"
	"github.com/rohitmondal03/amplication/internal/remote"
)

// ErrNoProject is returned by operations that need a selected project.
var ErrNoProject = errors.New("no project selected")

// State is an immutable snapshot of the application context.
type State struct {
	CommitRunning         bool
	PendingChangesIsError bool
	CurrentProject        *models.Project
}

// ProjectID returns the selected project id or "".
func (s State) ProjectID() string {
	if s.CurrentProject == nil {
		return ""
	}
	return s.CurrentProject.ID
}

// Provider owns the application context and notifies subscribers on every change.
type Provider struct {
	logger *slog.Logger

	mu           sync.Mutex
	state        State
	pending      []*models.PendingChange
	commitFailed bool
	subs         map[int]func(State)
	nextSub      int

	// dirty marks a change not yet delivered; delivering is set while one
	// caller drains deliveries for everyone.
	dirty      bool
	delivering bool
}

// NewProvider creates a provider with the given initial state.
func NewProvider(initial State, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		logger: logger,
		state:  initial,
		subs:   make(map[int]func(State)),
	}
}

// State returns the current snapshot.
func (p *Provider) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// PendingChanges returns the list loaded by the last successful RefreshPendingChanges.
func (p *Provider) PendingChanges() []*models.PendingChange {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}

// Subscribe registers fn for state changes and returns an unsubscribe func.
func (p *Provider) Subscribe(fn func(State)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
}

// update applies fn to the state and notifies subscribers if anything changed.
// Deliveries are serialized and always carry the latest state, so the last value a
// subscriber sees matches State() even when setters race. A setter that finds a
// delivery in progress leaves it to that caller.
func (p *Provider) update(fn func(*State)) {
	p.mu.Lock()
	before := p.state
	fn(&p.state)
	after := p.state
	if before.CommitRunning != after.CommitRunning ||
		before.PendingChangesIsError != after.PendingChangesIsError ||
		before.ProjectID() != after.ProjectID() {
		p.dirty = true
	}
	if !p.dirty || p.delivering {
		p.mu.Unlock()
		return
	}
	p.delivering = true
	p.mu.Unlock()

	for {
		p.mu.Lock()
		if !p.dirty {
			p.delivering = false
			p.mu.Unlock()
			return
		}
		p.dirty = false
		latest := p.state
		subs := make([]func(State), 0, len(p.subs))
		for _, s := range p.subs {
			subs = append(subs, s)
		}
		p.mu.Unlock()

		for _, s := range subs {
			s(latest)
		}
	}
}

// SetProject selects the current project. A nil project clears the selection.
func (p *Provider) SetProject(project *models.Project) {
	p.update(func(s *State) { s.CurrentProject = project })
}

// SetCommitRunning sets the commit-running flag.
func (p *Provider) SetCommitRunning(running bool) {
	p.update(func(s *State) { s.CommitRunning = running })
}

// SetPendingChangesError sets the pending-changes error flag.
func (p *Provider) SetPendingChangesError(isError bool) {
	p.update(func(s *State) { s.PendingChangesIsError = isError })
}

// Commit commits the pending changes of the current project. CommitRunning is true
// for the duration of the call; PendingChangesIsError reflects the outcome.
func (p *Provider) Commit(ctx context.Context, client remote.Client, message string) (*models.Commit, error) {
	projectID := p.State().ProjectID()
	if projectID == "" {
		return nil, ErrNoProject
	}

	p.SetCommitRunning(true)
	defer p.SetCommitRunning(false)

	commit, err := client.CreateCommit(ctx, projectID, message)
	if err != nil {
		p.mu.Lock()
		p.commitFailed = true
		p.mu.Unlock()
		p.SetPendingChangesError(true)
		p.logger.Warn("commit failed", "project", projectID, "error", err)
		return nil, fmt.Errorf("commit project %s: %w", projectID, err)
	}

	p.mu.Lock()
	p.commitFailed = false
	p.pending = nil
	p.mu.Unlock()
	p.SetPendingChangesError(false)
	p.logger.Info("committed", "project", projectID, "commit", commit.ID)
	return commit, nil
}

// RefreshPendingChanges reloads the pending changes of the current project.
// A cancelled ctx leaves the error flag alone, and a successful reload does not
// clear an error raised by a failed commit; only the next successful Commit does.
func (p *Provider) RefreshPendingChanges(ctx context.Context, client remote.Client) ([]*models.PendingChange, error) {
	projectID := p.State().ProjectID()
	if projectID == "" {
		return nil, ErrNoProject
	}

	changes, err := client.PendingChanges(ctx, projectID)
	if err != nil {
		if ctx.Err() == nil {
			p.SetPendingChangesError(true)
		}
		return nil, fmt.Errorf("refresh pending changes: %w", err)
	}

	p.mu.Lock()
	p.pending = changes
	commitFailed := p.commitFailed
	p.mu.Unlock()
	p.SetPendingChangesError(commitFailed)
	return changes, nil
}
