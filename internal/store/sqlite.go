package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rohitmondal03/amplication/internal/models"
	_ "modernc.org/sqlite"
)

const currentSchemaVersion = 1

// SQLiteCache is a Cache backed by SQLite.
type SQLiteCache struct {
	db *sql.DB
}

var _ Cache = (*SQLiteCache)(nil)

// NewSQLiteCache opens or creates a SQLite cache at the given path.
func NewSQLiteCache(dbPath string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	c := &SQLiteCache{db: db}
	if err := c.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// initialize creates the schema
func (c *SQLiteCache) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS project_commits (
		project_id TEXT PRIMARY KEY,
		commits JSON NOT NULL,
		saved_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cache_schema_version (
		version INTEGER PRIMARY KEY
	);
	`
	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	_, err := c.db.Exec("INSERT OR REPLACE INTO cache_schema_version (version) VALUES (?)", currentSchemaVersion)
	if err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}
	return nil
}

// Close closes the database connection
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

// SaveCommits replaces the cached list of a project.
func (c *SQLiteCache) SaveCommits(projectID string, commits []*models.Commit) error {
	data, err := json.Marshal(commits)
	if err != nil {
		return fmt.Errorf("marshal commits: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = c.db.Exec(`
		INSERT INTO project_commits (project_id, commits, saved_at) VALUES (?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET commits = excluded.commits, saved_at = excluded.saved_at`,
		projectID, string(data), now,
	)
	if err != nil {
		return fmt.Errorf("save commits of %s: %w", projectID, err)
	}
	return nil
}

// LoadCommits returns the cached list of a project.
func (c *SQLiteCache) LoadCommits(projectID string) ([]*models.Commit, error) {
	var data string
	err := c.db.QueryRow("SELECT commits FROM project_commits WHERE project_id = ?", projectID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load commits of %s: %w", projectID, err)
	}

	var commits []*models.Commit
	if err := json.Unmarshal([]byte(data), &commits); err != nil {
		return nil, fmt.Errorf("decode commits of %s: %w", projectID, err)
	}
	return commits, nil
}

// SavedAt returns when the list of a project was last saved.
func (c *SQLiteCache) SavedAt(projectID string) (time.Time, error) {
	var savedAt string
	err := c.db.QueryRow("SELECT saved_at FROM project_commits WHERE project_id = ?", projectID).Scan(&savedAt)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return parseTimestamp(savedAt), nil
}

// parseTimestamp parses a timestamp string from SQLite in various formats
func parseTimestamp(s string) time.Time {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05-07:00",
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
