// Package buildsummary derives the per-step progress of a build and downloads its
// generated archive.
package buildsummary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rohitmondal03/amplication/internal/models"
	"github.com/rohitmondal03/amplication/internal/remote"
)

// Well-known step names emitted by the build pipeline.
const (
	StepGenerateCode = "GENERATE_APPLICATION"
	StepBuildDocker  = "BUILD_DOCKER"
	StepPushToGitHub = "PUSH_TO_GITHUB"
)

var stepLabels = map[string]string{
	StepGenerateCode: "Generate code",
	StepBuildDocker:  "Build container",
	StepPushToGitHub: "Push to GitHub",
}

var (
	ErrNoBuild            = errors.New("no build")
	ErrArchiveUnavailable = errors.New("archive is not available for this build")
)

// StepRow is one line of the summary.
type StepRow struct {
	Name     string
	Label    string
	Status   models.StepStatus
	Duration time.Duration
	Message  string
	Errors   int
}

// Summary is the rendered state of a build.
type Summary struct {
	BuildID     string
	Version     string
	Status      models.BuildStatus
	Generating  bool
	Steps       []StepRow
	Current     *StepRow
	CanDownload bool
	LastError   string
}

// Summarize builds the summary of build. now is used for the duration of steps
// that have not completed yet.
func Summarize(build *models.Build, generating bool, now time.Time) Summary {
	if build == nil {
		return Summary{Generating: generating}
	}

	s := Summary{
		BuildID:     build.ID,
		Version:     build.Version,
		Status:      build.Status,
		Generating:  generating,
		CanDownload: Downloadable(build),
	}

	var lastErrAt time.Time
	for _, step := range build.Steps() {
		row := StepRow{
			Name:     step.Name,
			Label:    StepLabel(step.Name),
			Status:   step.Status,
			Duration: step.Duration(now),
			Message:  step.Message,
		}
		for _, l := range step.Logs {
			if l.Level != models.LogLevelError {
				continue
			}
			row.Errors++
			if !l.CreatedAt.Before(lastErrAt) {
				lastErrAt = l.CreatedAt
				s.LastError = l.Message
			}
		}
		s.Steps = append(s.Steps, row)
	}

	for i := range s.Steps {
		if s.Steps[i].Status == models.StepStatusRunning {
			s.Current = &s.Steps[i]
			break
		}
	}

	return s
}

// StepLabel returns the display label of a step name.
func StepLabel(name string) string {
	if label, ok := stepLabels[name]; ok {
		return label
	}
	return name
}

// Downloadable reports whether the generated archive of build can be fetched: the
// code generation step must have succeeded, or the whole build completed.
func Downloadable(build *models.Build) bool {
	if build == nil {
		return false
	}
	for _, step := range build.Steps() {
		if step.Name == StepGenerateCode {
			return step.Status == models.StepStatusSuccess
		}
	}
	return build.Status == models.BuildStatusCompleted
}

// Download streams the archive of build into w.
func Download(ctx context.Context, client remote.Client, build *models.Build, w io.Writer) (int64, error) {
	if build == nil {
		return 0, ErrNoBuild
	}
	if !Downloadable(build) {
		return 0, fmt.Errorf("build %s: %w", build.ID, ErrArchiveUnavailable)
	}
	n, err := client.DownloadArchive(ctx, build.ID, w)
	if err != nil {
		return n, fmt.Errorf("build %s: %w", build.ID, err)
	}
	return n, nil
}
