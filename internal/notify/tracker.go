package notify

import (
	"sync"
	"time"

	"github.com/rohitmondal03/amplication/internal/models"
)

// Transition is a build status change observed by a Tracker.
type Transition struct {
	ResourceID     string
	CommitID       string
	BuildID        string
	Status         models.BuildStatus
	PreviousStatus models.BuildStatus // empty for a build first seen after the baseline
	At             time.Time
}

// Tracker remembers the last status of every build it has seen.
//
// The first call to Observe that carries at least one build records a baseline and
// reports nothing, so starting a watcher does not replay the whole history.
type Tracker struct {
	mu       sync.Mutex
	statuses map[string]models.BuildStatus
	primed   bool
	now      func() time.Time
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		statuses: make(map[string]models.BuildStatus),
		now:      time.Now,
	}
}

// Observe records builds and returns the transitions since the previous call.
// Nil builds and builds without an id are ignored.
func (t *Tracker) Observe(builds ...*models.Build) []Transition {
	t.mu.Lock()
	defer t.mu.Unlock()

	primed := t.primed

	var out []Transition
	for _, b := range builds {
		if b == nil || b.ID == "" {
			continue
		}
		prev, seen := t.statuses[b.ID]
		t.statuses[b.ID] = b.Status
		t.primed = true
		if !primed || (seen && prev == b.Status) {
			continue
		}
		out = append(out, Transition{
			ResourceID:     b.ResourceID,
			CommitID:       b.CommitID,
			BuildID:        b.ID,
			Status:         b.Status,
			PreviousStatus: prev,
			At:             t.now().UTC(),
		})
	}
	return out
}

// ObserveCommits observes every build attached to commits.
func (t *Tracker) ObserveCommits(commits []*models.Commit) []Transition {
	var builds []*models.Build
	for _, c := range commits {
		if c == nil {
			continue
		}
		for _, b := range c.Builds {
			if b != nil && b.CommitID == "" {
				cp := *b
				cp.CommitID = c.ID
				b = &cp
			}
			builds = append(builds, b)
		}
	}
	return t.Observe(builds...)
}
