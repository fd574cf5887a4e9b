package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rohitmondal03/amplication/internal/models"
)

// Client defines the contract for talking to the version-control API.
type Client interface {
	LastCommit(ctx context.Context, resourceID string) ([]*models.Commit, error)
	Commits(ctx context.Context, projectID string) ([]*models.Commit, error)
	PendingChanges(ctx context.Context, projectID string) ([]*models.PendingChange, error)
	CreateCommit(ctx context.Context, projectID, message string) (*models.Commit, error)
	DownloadArchive(ctx context.Context, buildID string, w io.Writer) (int64, error)
}

// GraphQLClient implements Client over HTTP.
type GraphQLClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Verify that *GraphQLClient implements Client at compile time
var _ Client = (*GraphQLClient)(nil)

// NewGraphQLClient creates an HTTP-based GraphQL client. A zero timeout leaves
// request deadlines to the caller's context.
func NewGraphQLClient(baseURL, token string, timeout time.Duration) *GraphQLClient {
	return &GraphQLClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *GraphQLClient) do(ctx context.Context, method, url string, body io.Reader, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}

	return resp, nil
}

// query runs a GraphQL operation and decodes the data member into out.
func (c *GraphQLClient) query(ctx context.Context, operation, query string, variables map[string]any, out any) error {
	data, err := json.Marshal(&GraphQLRequest{
		Query:         query,
		OperationName: operation,
		Variables:     variables,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	headers := map[string]string{"Content-Type": "application/json"}
	resp, err := c.do(ctx, http.MethodPost, c.baseURL+"/graphql", bytes.NewReader(data), headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	var gqlResp GraphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&gqlResp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(gqlResp.Errors) > 0 {
		return &GraphQLErrors{Errors: gqlResp.Errors, Status: resp.StatusCode}
	}

	if out != nil && len(gqlResp.Data) > 0 {
		if err := json.Unmarshal(gqlResp.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}

	return nil
}

// LastCommit returns at most one commit: the most recent one of the resource.
func (c *GraphQLClient) LastCommit(ctx context.Context, resourceID string) ([]*models.Commit, error) {
	var data commitsData
	vars := map[string]any{"resourceId": resourceID}
	if err := c.query(ctx, "lastCommit", LastCommitQuery, vars, &data); err != nil {
		return nil, fmt.Errorf("last commit %s: %w", resourceID, err)
	}
	return data.Commits, nil
}

// Commits returns the commits of a project, freshest first.
func (c *GraphQLClient) Commits(ctx context.Context, projectID string) ([]*models.Commit, error) {
	var data commitsData
	vars := map[string]any{
		"projectId": projectID,
		"orderBy":   CommitOrderBy{CreatedAt: SortOrderDesc},
	}
	if err := c.query(ctx, "commits", CommitsQuery, vars, &data); err != nil {
		return nil, fmt.Errorf("list commits: %w", err)
	}
	return data.Commits, nil
}

// PendingChanges returns the uncommitted changes of a project.
func (c *GraphQLClient) PendingChanges(ctx context.Context, projectID string) ([]*models.PendingChange, error) {
	var data pendingChangesData
	vars := map[string]any{"projectId": projectID}
	if err := c.query(ctx, "pendingChanges", PendingChangesQuery, vars, &data); err != nil {
		return nil, fmt.Errorf("pending changes: %w", err)
	}
	return data.PendingChanges, nil
}

// CreateCommit commits the pending changes of a project.
func (c *GraphQLClient) CreateCommit(ctx context.Context, projectID, message string) (*models.Commit, error) {
	var data commitMutationData
	vars := map[string]any{"projectId": projectID, "message": message}
	if err := c.query(ctx, "commit", CommitMutation, vars, &data); err != nil {
		return nil, fmt.Errorf("create commit: %w", err)
	}
	if data.Commit == nil {
		return nil, fmt.Errorf("create commit: empty response")
	}
	return data.Commit, nil
}

// DownloadArchive streams the generated code archive of a build into w.
func (c *GraphQLClient) DownloadArchive(ctx context.Context, buildID string, w io.Writer) (int64, error) {
	url := fmt.Sprintf("%s/generated-apps/%s.zip", c.baseURL, buildID)

	resp, err := c.do(ctx, http.MethodGet, url, nil, nil)
	if err != nil {
		return 0, fmt.Errorf("download archive %s: %w", buildID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return 0, decodeError(resp)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("download archive %s: %w", buildID, err)
	}
	return n, nil
}

// decodeError turns a failed response into GraphQLErrors when the body carries a
// GraphQL errors array, and into a RemoteError otherwise.
func decodeError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &RemoteError{Code: "unknown", Message: fmt.Sprintf("HTTP %d", resp.StatusCode), Status: resp.StatusCode}
	}

	var gqlResp GraphQLResponse
	if json.Unmarshal(body, &gqlResp) == nil && len(gqlResp.Errors) > 0 {
		return &GraphQLErrors{Errors: gqlResp.Errors, Status: resp.StatusCode}
	}

	var errResp ErrorResponse
	if json.Unmarshal(body, &errResp) != nil || errResp.Message == "" {
		return &RemoteError{
			Code:    "unknown",
			Message: fmt.Sprintf("HTTP %d", resp.StatusCode),
			Status:  resp.StatusCode,
		}
	}

	code := errResp.Error
	if code == "" {
		code = http.StatusText(resp.StatusCode)
	}
	return &RemoteError{
		Code:    code,
		Message: errResp.Message,
		Status:  resp.StatusCode,
	}
}
