// Package store provides the local cache of commit lists so a restarted client can
// show the last known commits before the first fetch completes.
package store

import (
	"fmt"
	"time"

	"github.com/rohitmondal03/amplication/internal/models"
)

// Backend names accepted by Open.
const (
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"
	BackendNone   = "none"
)

// Cache persists the commit list of a project.
type Cache interface {
	// SaveCommits replaces the cached list of a project.
	SaveCommits(projectID string, commits []*models.Commit) error
	// LoadCommits returns the cached list, or nil when nothing is cached.
	LoadCommits(projectID string) ([]*models.Commit, error)
	// SavedAt returns when the list of a project was last saved (zero if never).
	SavedAt(projectID string) (time.Time, error)
	Close() error
}

// entry is the stored form of a cached commit list.
type entry struct {
	SavedAt time.Time        `json:"saved_at"`
	Commits []*models.Commit `json:"commits"`
}

// Open opens the cache backend at path. BackendNone (or "") returns a nil Cache,
// which callers treat as caching disabled.
func Open(backend, path string) (Cache, error) {
	switch backend {
	case BackendBolt:
		c, err := NewBoltCache(path)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendSQLite:
		c, err := NewSQLiteCache(path)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}
