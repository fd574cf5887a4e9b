package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// graphQLServer answers every POST /graphql with the given status and body and
// records the last decoded request.
func graphQLServer(t *testing.T, status int, body string, got *GraphQLRequest, gotHeader *http.Header) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/graphql" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if got != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		if gotHeader != nil {
			*gotHeader = r.Header.Clone()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestGraphQLClient_LastCommit(t *testing.T) {
	body := `{"data":{"commits":[{"id":"c1","message":"","createdAt":"2024-03-01T10:00:00Z",
		"user":{"id":"u1","account":{"firstName":"Ada","lastName":"Lovelace"}},
		"changes":[{"originId":"e1","action":"Update","originType":"Entity","versionNumber":3,
			"origin":{"__typename":"Entity","id":"e1","displayName":"Customer","updatedAt":"2024-03-01T09:00:00Z"}}],
		"builds":[{"id":"b1","resourceId":"r1","status":"Running","version":"0.1.0",
			"action":{"id":"a1","steps":[{"id":"s1","name":"GENERATE_APPLICATION","status":"Running",
				"logs":[{"id":"l1","message":"start","level":"Info","meta":{"k":"v"}}]}]}}]}]}}`

	var req GraphQLRequest
	var header http.Header
	ts := graphQLServer(t, http.StatusOK, body, &req, &header)

	c := NewGraphQLClient(ts.URL+"/", "secret", 5*time.Second)
	commits, err := c.LastCommit(context.Background(), "r1")
	require.NoError(t, err)

	assert.Equal(t, "lastCommit", req.OperationName)
	assert.Equal(t, "r1", req.Variables["resourceId"])
	assert.Contains(t, req.Query, "take: 1")
	assert.Equal(t, "Bearer secret", header.Get("Authorization"))
	assert.NotEmpty(t, header.Get("X-Request-ID"))

	require.Len(t, commits, 1)
	c1 := commits[0]
	assert.Equal(t, "c1", c1.ID)
	assert.Equal(t, "", c1.Message)
	assert.Equal(t, "Ada Lovelace", c1.User.Account.FullName())
	require.Len(t, c1.Changes, 1)
	assert.Equal(t, "Customer", c1.Changes[0].Origin.DisplayName)
	require.Len(t, c1.Builds, 1)
	assert.Equal(t, "Running", string(c1.Builds[0].Status))
	require.Len(t, c1.Builds[0].Steps(), 1)
	assert.JSONEq(t, `{"k":"v"}`, string(c1.Builds[0].Steps()[0].Logs[0].Meta))
}

func TestGraphQLClient_LastCommit_Empty(t *testing.T) {
	ts := graphQLServer(t, http.StatusOK, `{"data":{"commits":[]}}`, nil, nil)

	commits, err := NewGraphQLClient(ts.URL, "", 0).LastCommit(context.Background(), "r1")
	require.NoError(t, err)
	assert.Empty(t, commits)
}

func TestGraphQLClient_Commits_SendsOrderBy(t *testing.T) {
	var req GraphQLRequest
	ts := graphQLServer(t, http.StatusOK, `{"data":{"commits":[{"id":"c2"},{"id":"c1"}]}}`, &req, nil)

	commits, err := NewGraphQLClient(ts.URL, "", 0).Commits(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "c2", commits[0].ID)

	assert.Equal(t, "p1", req.Variables["projectId"])
	assert.Equal(t, map[string]any{"createdAt": "Desc"}, req.Variables["orderBy"])
}

func TestGraphQLClient_GraphQLErrors(t *testing.T) {
	ts := graphQLServer(t, http.StatusOK, `{"errors":[{"message":"Unauthorized","extensions":{"code":"UNAUTHENTICATED"}}]}`, nil, nil)

	_, err := NewGraphQLClient(ts.URL, "", 0).Commits(context.Background(), "p1")
	require.Error(t, err)

	var ge *GraphQLErrors
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, "UNAUTHENTICATED", ge.Errors[0].Code())
	assert.Equal(t, "Unauthorized", FormatError(err))
}

func TestGraphQLClient_HTTPErrorWithGraphQLBody(t *testing.T) {
	ts := graphQLServer(t, http.StatusBadRequest, `{"errors":[{"message":"Variable \"$resourceId\" is required"}]}`, nil, nil)

	_, err := NewGraphQLClient(ts.URL, "", 0).LastCommit(context.Background(), "")
	var ge *GraphQLErrors
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, http.StatusBadRequest, ge.Status)
}

func TestGraphQLClient_HTTPErrorPlain(t *testing.T) {
	ts := graphQLServer(t, http.StatusBadGateway, `not json`, nil, nil)

	_, err := NewGraphQLClient(ts.URL, "", 0).LastCommit(context.Background(), "r1")
	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusBadGateway, re.Status)
	assert.Equal(t, "unknown", re.Code)
	assert.True(t, isTransient(err))
}

func TestGraphQLClient_CreateCommit(t *testing.T) {
	var req GraphQLRequest
	ts := graphQLServer(t, http.StatusOK, `{"data":{"commit":{"id":"c9","message":"ship it"}}}`, &req, nil)

	commit, err := NewGraphQLClient(ts.URL, "", 0).CreateCommit(context.Background(), "p1", "ship it")
	require.NoError(t, err)
	assert.Equal(t, "c9", commit.ID)
	assert.Equal(t, "commit", req.OperationName)
	assert.Equal(t, "ship it", req.Variables["message"])
}

func TestGraphQLClient_CreateCommit_EmptyResponse(t *testing.T) {
	ts := graphQLServer(t, http.StatusOK, `{"data":{"commit":null}}`, nil, nil)

	_, err := NewGraphQLClient(ts.URL, "", 0).CreateCommit(context.Background(), "p1", "msg")
	assert.ErrorContains(t, err, "empty response")
}

func TestGraphQLClient_PendingChanges(t *testing.T) {
	ts := graphQLServer(t, http.StatusOK, `{"data":{"pendingChanges":[{"originId":"e1","action":"Create","originType":"Entity","versionNumber":0}]}}`, nil, nil)

	changes, err := NewGraphQLClient(ts.URL, "", 0).PendingChanges(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "e1", changes[0].OriginID)
}

func TestGraphQLClient_DownloadArchive(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/generated-apps/b1.zip":
			w.Write([]byte("PK-archive"))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"statusCode":404,"error":"Not Found","message":"no archive"}`))
		}
	}))
	defer ts.Close()

	c := NewGraphQLClient(ts.URL, "", 0)

	var buf bytes.Buffer
	n, err := c.DownloadArchive(context.Background(), "b1", &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
	assert.Equal(t, "PK-archive", buf.String())

	_, err = c.DownloadArchive(context.Background(), "missing", &buf)
	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "Not Found", re.Code)
	assert.Equal(t, "no archive", re.Message)
}

func TestGraphQLClient_ContextCancelled(t *testing.T) {
	ts := graphQLServer(t, http.StatusOK, `{"data":{"commits":[]}}`, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGraphQLClient(ts.URL, "", 0).LastCommit(ctx, "r1")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
