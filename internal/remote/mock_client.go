package remote

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/rohitmondal03/amplication/internal/models"
)

// MockClient is an in-memory Client for tests. All fields may be changed between
// calls; access is synchronized so pollers can run against it.
type MockClient struct {
	mu sync.Mutex

	// LastCommits is returned by LastCommit, keyed by resource id.
	LastCommits map[string][]*models.Commit
	// ProjectCommits is returned by Commits, keyed by project id.
	ProjectCommits map[string][]*models.Commit
	// Pending is returned by PendingChanges, keyed by project id.
	Pending map[string][]*models.PendingChange
	// Archives holds archive contents keyed by build id.
	Archives map[string]string

	// Err can be set to make every method return an error.
	Err error
	// CommitErr overrides Err for CreateCommit only.
	CommitErr error

	// Block, when non-nil, is received from before a query returns.
	Block chan struct{}

	calls map[string]int
}

var _ Client = (*MockClient)(nil)

// NewMockClient creates an empty MockClient.
func NewMockClient() *MockClient {
	return &MockClient{
		LastCommits:    make(map[string][]*models.Commit),
		ProjectCommits: make(map[string][]*models.Commit),
		Pending:        make(map[string][]*models.PendingChange),
		Archives:       make(map[string]string),
		calls:          make(map[string]int),
	}
}

// SetLastCommits replaces the last-commit answer of a resource.
func (m *MockClient) SetLastCommits(resourceID string, commits []*models.Commit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastCommits[resourceID] = commits
}

// SetProjectCommits replaces the commit list of a project.
func (m *MockClient) SetProjectCommits(projectID string, commits []*models.Commit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProjectCommits[projectID] = commits
}

// SetErr sets the error returned by every method.
func (m *MockClient) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}

// Calls returns how many times the named method was called.
func (m *MockClient) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *MockClient) enter(ctx context.Context, method string) error {
	m.mu.Lock()
	m.calls[method]++
	block := m.Block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Err
}

// LastCommit returns the configured commits of the resource.
func (m *MockClient) LastCommit(ctx context.Context, resourceID string) ([]*models.Commit, error) {
	if err := m.enter(ctx, "LastCommit"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.LastCommits[resourceID], nil
}

// Commits returns the configured commits of the project.
func (m *MockClient) Commits(ctx context.Context, projectID string) ([]*models.Commit, error) {
	if err := m.enter(ctx, "Commits"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ProjectCommits[projectID], nil
}

// PendingChanges returns the configured pending changes of the project.
func (m *MockClient) PendingChanges(ctx context.Context, projectID string) ([]*models.PendingChange, error) {
	if err := m.enter(ctx, "PendingChanges"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Pending[projectID], nil
}

// CreateCommit records a commit and clears the project's pending changes.
func (m *MockClient) CreateCommit(ctx context.Context, projectID, message string) (*models.Commit, error) {
	if err := m.enter(ctx, "CreateCommit"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CommitErr != nil {
		return nil, m.CommitErr
	}
	delete(m.Pending, projectID)
	return &models.Commit{ID: "mock-commit", Message: message}, nil
}

// DownloadArchive writes the configured archive contents.
func (m *MockClient) DownloadArchive(ctx context.Context, buildID string, w io.Writer) (int64, error) {
	if err := m.enter(ctx, "DownloadArchive"); err != nil {
		return 0, err
	}
	m.mu.Lock()
	data, ok := m.Archives[buildID]
	m.mu.Unlock()
	if !ok {
		return 0, &RemoteError{Code: "Not Found", Message: "archive not found", Status: 404}
	}
	return io.Copy(w, strings.NewReader(data))
}
