package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rohitmondal03/amplication/internal/models"
	bolt "go.etcd.io/bbolt"
)

var bucketCommits = []byte("project_commits")

// BoltCache is a Cache backed by a single bbolt file.
type BoltCache struct {
	db *bolt.DB
}

var _ Cache = (*BoltCache)(nil)

// NewBoltCache opens or creates a bbolt cache at the given path.
func NewBoltCache(dbPath string) (*BoltCache, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCommits)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket %s: %w", bucketCommits, err)
	}

	return &BoltCache{db: db}, nil
}

// Close closes the database.
func (c *BoltCache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// SaveCommits replaces the cached list of a project.
func (c *BoltCache) SaveCommits(projectID string, commits []*models.Commit) error {
	data, err := json.Marshal(&entry{SavedAt: time.Now().UTC(), Commits: commits})
	if err != nil {
		return fmt.Errorf("marshal commits: %w", err)
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCommits).Put([]byte(projectID), data)
	})
}

func (c *BoltCache) load(projectID string) (*entry, error) {
	var e *entry
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketCommits).Get([]byte(projectID))
		if v == nil {
			return nil
		}
		e = &entry{}
		return json.Unmarshal(v, e)
	})
	if err != nil {
		return nil, fmt.Errorf("load commits of %s: %w", projectID, err)
	}
	return e, nil
}

// LoadCommits returns the cached list of a project.
func (c *BoltCache) LoadCommits(projectID string) ([]*models.Commit, error) {
	e, err := c.load(projectID)
	if err != nil || e == nil {
		return nil, err
	}
	return e.Commits, nil
}

// SavedAt returns when the list of a project was last saved.
func (c *BoltCache) SavedAt(projectID string) (time.Time, error) {
	e, err := c.load(projectID)
	if err != nil || e == nil {
		return time.Time{}, err
	}
	return e.SavedAt, nil
}
