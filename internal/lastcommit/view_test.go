package lastcommit

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rohitmondal03/amplication/internal/appctx"
	"github.com/rohitmondal03/amplication/internal/buildsummary"
	"github.com/rohitmondal03/amplication/internal/models"
	"github.com/rohitmondal03/amplication/internal/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

// newTestView creates a view and waits for its initial fetch to land.
func newTestView(t *testing.T, client remote.Client, app appctx.State, opts ...Option) *View {
	t.Helper()
	v, err := New(client, Props{ResourceID: "r1"}, app, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		v.Close()
		v.Wait()
	})
	v.Wait()
	return v
}

func commit(id, message string, builds ...*models.Build) *models.Commit {
	return &models.Commit{
		ID:        id,
		Message:   message,
		CreatedAt: t0,
		User:      &models.User{ID: "u1", Account: &models.Account{FirstName: "Ada", LastName: "Lovelace"}},
		Builds:    builds,
	}
}

func TestNew_RequiresResourceID(t *testing.T) {
	_, err := New(remote.NewMockClient(), Props{ResourceID: "  "}, appctx.State{})
	assert.ErrorIs(t, err, ErrMissingResourceID)
}

func TestView_EmptyWhileLoading(t *testing.T) {
	mock := remote.NewMockClient()
	mock.SetLastCommits("r1", []*models.Commit{commit("c1", "msg")})
	mock.Block = make(chan struct{})

	v, err := New(mock, Props{ResourceID: "r1"}, appctx.State{})
	require.NoError(t, err)
	defer func() {
		v.Close()
		v.Wait()
	}()

	assert.True(t, v.Result().Loading)
	assert.Nil(t, v.LastCommit())
	assert.Nil(t, v.Build())
	vm := v.Render()
	assert.True(t, vm.Empty)
	assert.Empty(t, vm.ErrorText)

	close(mock.Block)
}

func TestView_EmptyCommitList(t *testing.T) {
	mock := remote.NewMockClient()
	mock.SetLastCommits("r1", []*models.Commit{})

	v := newTestView(t, mock, appctx.State{})

	assert.Nil(t, v.LastCommit())
	assert.Equal(t, ViewModel{Empty: true}, v.Render())
	assert.Empty(t, v.ErrorMessage())
}

func TestView_EmptyWhenRemoteFailsWithoutData(t *testing.T) {
	mock := remote.NewMockClient()
	mock.SetErr(errors.New("connection refused"))

	v := newTestView(t, mock, appctx.State{})

	assert.True(t, v.Render().Empty)
	assert.Equal(t, "connection refused", v.ErrorMessage())
}

func TestView_LastCommitIsFirstElement(t *testing.T) {
	mock := remote.NewMockClient()
	mock.SetLastCommits("r1", []*models.Commit{commit("c3", ""), commit("c2", ""), commit("c1", "")})

	v := newTestView(t, mock, appctx.State{})

	require.NotNil(t, v.LastCommit())
	assert.Equal(t, "c3", v.LastCommit().ID)
}

func TestView_BuildIsFirstElement(t *testing.T) {
	mock := remote.NewMockClient()
	mock.SetLastCommits("r1", []*models.Commit{
		commit("c1", "", &models.Build{ID: "b2"}, &models.Build{ID: "b1"}),
	})

	v := newTestView(t, mock, appctx.State{})

	require.NotNil(t, v.Build())
	assert.Equal(t, "b2", v.Build().ID)
}

func TestView_NoBuildKeepsCommitAndPendingChanges(t *testing.T) {
	mock := remote.NewMockClient()
	mock.SetLastCommits("r1", []*models.Commit{commit("c1", "add entity")})

	v := newTestView(t, mock, appctx.State{})

	assert.Nil(t, v.Build())
	vm := v.Render()
	assert.False(t, vm.Empty)
	assert.Equal(t, "c1", vm.CommitID.ID)
	assert.Nil(t, vm.BuildHeader)
	assert.Nil(t, vm.BuildSummary)
	assert.Equal(t, "r1", vm.PendingChanges.ResourceID)
	assert.Empty(t, vm.ErrorText)
}

func TestView_RefetchOnPendingChangesErrorToggle(t *testing.T) {
	mock := remote.NewMockClient()
	mock.SetLastCommits("r1", []*models.Commit{commit("c1", "")})

	v, err := New(mock, Props{ResourceID: "r1"}, appctx.State{})
	require.NoError(t, err)
	v.Wait()
	assert.Equal(t, 1, mock.Calls("LastCommit"), "mount")

	v.Update(appctx.State{PendingChangesIsError: true})
	v.Wait()
	assert.Equal(t, 2, mock.Calls("LastCommit"), "false -> true")

	v.Update(appctx.State{PendingChangesIsError: true, CommitRunning: true})
	v.Wait()
	assert.Equal(t, 2, mock.Calls("LastCommit"), "unchanged flag")

	v.Update(appctx.State{PendingChangesIsError: false})
	v.Wait()
	assert.Equal(t, 3, mock.Calls("LastCommit"), "true -> false")

	v.Close()
	v.Wait()
	assert.Equal(t, 4, mock.Calls("LastCommit"), "teardown")

	v.Update(appctx.State{PendingChangesIsError: true})
	v.Wait()
	assert.Equal(t, 4, mock.Calls("LastCommit"), "after close")
}

func TestView_TeardownRefetchDisabled(t *testing.T) {
	mock := remote.NewMockClient()

	v, err := New(mock, Props{ResourceID: "r1"}, appctx.State{}, WithTeardownRefetch(false))
	require.NoError(t, err)
	v.Wait()
	v.Close()
	v.Wait()

	assert.Equal(t, 1, mock.Calls("LastCommit"))
}

func TestView_UpdateDuringCloseIsIgnored(t *testing.T) {
	mock := remote.NewMockClient()
	mock.SetLastCommits("r1", []*models.Commit{commit("c1", "")})

	v := newTestView(t, mock, appctx.State{}, WithTeardownRefetch(false))
	require.Equal(t, 1, mock.Calls("LastCommit"))

	notified := 0
	v.Subscribe(func() { notified++ })

	v.mu.Lock()
	v.closing = true
	v.mu.Unlock()

	v.Update(appctx.State{PendingChangesIsError: true, CommitRunning: true})
	v.Wait()

	assert.Equal(t, 1, mock.Calls("LastCommit"))
	assert.Equal(t, 0, notified)
}

func TestView_LateResponseAfterCloseIsDiscarded(t *testing.T) {
	mock := remote.NewMockClient()
	mock.SetLastCommits("r1", []*models.Commit{commit("c1", "")})
	mock.Block = make(chan struct{})

	v, err := New(mock, Props{ResourceID: "r1"}, appctx.State{}, WithTeardownRefetch(false))
	require.NoError(t, err)

	notified := 0
	v.Subscribe(func() { notified++ })

	v.Close()
	close(mock.Block)
	v.Wait()

	assert.Nil(t, v.LastCommit())
	assert.Equal(t, 0, notified)
}

func TestView_RemoteErrorTakesPrecedence(t *testing.T) {
	mock := remote.NewMockClient()
	mock.SetLastCommits("r1", []*models.Commit{commit("c1", "")})

	v := newTestView(t, mock, appctx.State{})

	v.ReportError(errors.New("download failed"))
	assert.Equal(t, "download failed", v.ErrorMessage())

	mock.SetErr(&remote.GraphQLErrors{Status: 200, Errors: []remote.GraphQLError{{Message: "Resource not found"}}})
	v.Update(appctx.State{PendingChangesIsError: true})
	v.Wait()

	assert.Equal(t, "Resource not found", v.ErrorMessage())
	vm := v.Render()
	assert.False(t, vm.Empty, "last data is kept after a failed refetch")
	assert.Equal(t, "Resource not found", vm.ErrorText)

	mock.SetErr(nil)
	v.Update(appctx.State{})
	v.Wait()
	assert.Equal(t, "download failed", v.ErrorMessage(), "local error persists until the view is recreated")
}

func TestView_ScenarioGeneratingEmptyMessage(t *testing.T) {
	mock := remote.NewMockClient()
	mock.SetLastCommits("r1", []*models.Commit{
		commit("c1", "", &models.Build{ID: "b1", Status: models.BuildStatusRunning}),
	})

	v := newTestView(t, mock, appctx.State{CommitRunning: true})

	vm := v.Render()
	require.False(t, vm.Empty)
	assert.True(t, vm.Generating)
	assert.Equal(t, []string{"last-commit", "last-commit__generating"}, vm.ClassNames)

	assert.Equal(t, "c1", vm.CommitID.ID)
	assert.False(t, vm.CommitID.HasTooltip)
	assert.True(t, vm.CommitID.Skeleton)
	assert.Equal(t, "/r1/commits/c1", vm.CommitID.Link)

	require.NotNil(t, vm.BuildHeader)
	assert.Equal(t, "b1", vm.BuildHeader.Build.ID)
	assert.True(t, vm.BuildHeader.Skeleton)
	require.NotNil(t, vm.BuildSummary)
	assert.True(t, vm.BuildSummary.Generating)

	assert.True(t, vm.UserAndTime.Loading)
	assert.Empty(t, vm.ErrorText)
}

func TestView_TooltipWhenMessagePresent(t *testing.T) {
	mock := remote.NewMockClient()
	mock.SetLastCommits("r1", []*models.Commit{commit("c1", "add customer entity")})

	v := newTestView(t, mock, appctx.State{})

	vm := v.Render()
	assert.True(t, vm.CommitID.HasTooltip)
	assert.Equal(t, "add customer entity", vm.CommitID.Tooltip)
	assert.False(t, vm.CommitID.Skeleton)
	assert.Equal(t, []string{"last-commit"}, vm.ClassNames)
	assert.Equal(t, "Ada Lovelace", vm.UserAndTime.Account.FullName())
	assert.Equal(t, t0, vm.UserAndTime.Time)
}

func TestView_GeneratingFollowsCommitRunningOnly(t *testing.T) {
	mock := remote.NewMockClient()
	mock.SetLastCommits("r1", []*models.Commit{
		commit("c1", "", &models.Build{ID: "b1", Status: models.BuildStatusRunning}),
	})

	v := newTestView(t, mock, appctx.State{})
	assert.False(t, v.Generating(), "a running build does not imply generating")

	notified := 0
	v.Subscribe(func() { notified++ })

	v.Update(appctx.State{CommitRunning: true})
	assert.True(t, v.Generating())
	assert.Equal(t, 1, notified)
	assert.Equal(t, 1, mock.Calls("LastCommit"), "commitRunning alone does not refetch")
}

func TestView_BuildHeaderIsError(t *testing.T) {
	mock := remote.NewMockClient()
	mock.SetLastCommits("r1", []*models.Commit{commit("c1", "", &models.Build{ID: "b1"})})

	v := newTestView(t, mock, appctx.State{PendingChangesIsError: true})

	vm := v.Render()
	require.NotNil(t, vm.BuildHeader)
	assert.True(t, vm.BuildHeader.IsError)
}

func TestView_DownloadArchive(t *testing.T) {
	mock := remote.NewMockClient()
	mock.SetLastCommits("r1", []*models.Commit{
		commit("c1", "", &models.Build{ID: "b1", Status: models.BuildStatusCompleted}),
	})
	mock.Archives["b1"] = "zip"

	v := newTestView(t, mock, appctx.State{})

	var buf bytes.Buffer
	_, err := v.DownloadArchive(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, "zip", buf.String())
	assert.Nil(t, v.LocalError())
}

func TestView_DownloadArchiveFailureBecomesLocalError(t *testing.T) {
	mock := remote.NewMockClient()
	mock.SetLastCommits("r1", []*models.Commit{
		commit("c1", "", &models.Build{ID: "b1", Status: models.BuildStatusRunning}),
	})

	v := newTestView(t, mock, appctx.State{})

	var buf bytes.Buffer
	_, err := v.DownloadArchive(context.Background(), &buf)
	require.ErrorIs(t, err, buildsummary.ErrArchiveUnavailable)
	assert.ErrorIs(t, v.LocalError(), buildsummary.ErrArchiveUnavailable)
	assert.Equal(t, v.Render().ErrorText, remote.FormatError(err))
}

func TestCommitLink(t *testing.T) {
	assert.Equal(t, "/res-1/commits/c-9", CommitLink("res-1", "c-9"))
}
