package buildsummary

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rohitmondal03/amplication/internal/models"
	"github.com/rohitmondal03/amplication/internal/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func runningBuild() *models.Build {
	done := t0.Add(30 * time.Second)
	return &models.Build{
		ID:      "b1",
		Version: "0.1.3",
		Status:  models.BuildStatusRunning,
		Action: &models.Action{ID: "a1", Steps: []*models.Step{
			{
				Name: StepGenerateCode, Status: models.StepStatusSuccess,
				CreatedAt: t0, CompletedAt: &done,
			},
			{
				Name: StepPushToGitHub, Status: models.StepStatusRunning,
				CreatedAt: done,
				Logs: []*models.Log{
					{Level: models.LogLevelInfo, Message: "pushing", CreatedAt: done},
					{Level: models.LogLevelError, Message: "first failure", CreatedAt: done.Add(time.Second)},
					{Level: models.LogLevelError, Message: "rate limited", CreatedAt: done.Add(2 * time.Second)},
				},
			},
		}},
	}
}

func TestSummarize_NilBuild(t *testing.T) {
	s := Summarize(nil, true, t0)
	assert.True(t, s.Generating)
	assert.Empty(t, s.Steps)
	assert.False(t, s.CanDownload)
}

func TestSummarize_Steps(t *testing.T) {
	s := Summarize(runningBuild(), false, t0.Add(time.Minute))

	assert.Equal(t, "b1", s.BuildID)
	assert.Equal(t, "0.1.3", s.Version)
	assert.Equal(t, models.BuildStatusRunning, s.Status)
	require.Len(t, s.Steps, 2)

	assert.Equal(t, "Generate code", s.Steps[0].Label)
	assert.Equal(t, 30*time.Second, s.Steps[0].Duration)
	assert.Equal(t, "Push to GitHub", s.Steps[1].Label)
	assert.Equal(t, 30*time.Second, s.Steps[1].Duration)
	assert.Equal(t, 2, s.Steps[1].Errors)

	require.NotNil(t, s.Current)
	assert.Equal(t, StepPushToGitHub, s.Current.Name)
	assert.Equal(t, "rate limited", s.LastError)
	assert.True(t, s.CanDownload)
}

func TestSummarize_NoAction(t *testing.T) {
	s := Summarize(&models.Build{ID: "b1", Status: models.BuildStatusCompleted}, false, t0)
	assert.Empty(t, s.Steps)
	assert.Nil(t, s.Current)
	assert.True(t, s.CanDownload)
}

func TestStepLabel_Unknown(t *testing.T) {
	assert.Equal(t, "CUSTOM_STEP", StepLabel("CUSTOM_STEP"))
}

func TestDownloadable(t *testing.T) {
	assert.False(t, Downloadable(nil))
	assert.False(t, Downloadable(&models.Build{Status: models.BuildStatusRunning}))
	assert.False(t, Downloadable(&models.Build{
		Status: models.BuildStatusCompleted,
		Action: &models.Action{Steps: []*models.Step{{Name: StepGenerateCode, Status: models.StepStatusFailed}}},
	}))
}

func TestDownload(t *testing.T) {
	mock := remote.NewMockClient()
	mock.Archives["b1"] = "zip-bytes"

	var buf bytes.Buffer
	n, err := Download(context.Background(), mock, runningBuild(), &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)
	assert.Equal(t, "zip-bytes", buf.String())
}

func TestDownload_Errors(t *testing.T) {
	mock := remote.NewMockClient()
	var buf bytes.Buffer

	_, err := Download(context.Background(), mock, nil, &buf)
	assert.ErrorIs(t, err, ErrNoBuild)

	_, err = Download(context.Background(), mock, &models.Build{ID: "b2", Status: models.BuildStatusFailed}, &buf)
	assert.ErrorIs(t, err, ErrArchiveUnavailable)
	assert.Equal(t, 0, mock.Calls("DownloadArchive"))

	_, err = Download(context.Background(), mock, runningBuild(), &buf)
	var re *remote.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 404, re.Status)
}
