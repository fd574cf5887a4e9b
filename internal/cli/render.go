package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/rohitmondal03/amplication/internal/buildsummary"
	"github.com/rohitmondal03/amplication/internal/lastcommit"
	"github.com/rohitmondal03/amplication/internal/models"
)

const (
	timeLayout  = "Mon Jan 2 15:04:05 2006"
	placeholder = "░░░░░░░░"
)

var (
	yellow  = color.New(color.FgYellow)
	cyan    = color.New(color.FgCyan)
	green   = color.New(color.FgGreen)
	red     = color.New(color.FgRed)
	magenta = color.New(color.FgMagenta)
	faint   = color.New(color.Faint)
)

func buildStatusColor(s models.BuildStatus) *color.Color {
	switch s {
	case models.BuildStatusCompleted:
		return green
	case models.BuildStatusFailed, models.BuildStatusInvalid:
		return red
	default:
		return yellow
	}
}

func stepIcon(s models.StepStatus) string {
	switch s {
	case models.StepStatusSuccess:
		return green.Sprint("✓")
	case models.StepStatusFailed:
		return red.Sprint("✗")
	case models.StepStatusRunning:
		return yellow.Sprint("●")
	default:
		return faint.Sprint("·")
	}
}

func accountName(a *models.Account) string {
	if name := a.FullName(); name != "" {
		return name
	}
	return "unknown"
}

// printLastCommit writes the text rendition of a last-commit view model.
func printLastCommit(w io.Writer, vm lastcommit.ViewModel) {
	if vm.Empty {
		return
	}

	section := vm.CommitID
	fmt.Fprintf(w, "%s ", section.Label)
	if section.Skeleton {
		faint.Fprintln(w, placeholder)
	} else {
		yellow.Fprint(w, section.ShortID)
		faint.Fprintf(w, "  %s\n", section.Link)
	}
	if section.HasTooltip {
		fmt.Fprintf(w, "    %s\n", section.Tooltip)
	}

	ut := vm.UserAndTime
	if ut.Loading {
		faint.Fprintf(w, "Author: %s\n", placeholder)
	} else {
		fmt.Fprintf(w, "Author: %s\n", accountName(ut.Account))
		fmt.Fprintf(w, "Date:   %s\n", ut.Time.Local().Format(timeLayout))
	}

	if vm.Generating {
		cyan.Fprintln(w, "Generating new build...")
	}

	if vm.BuildHeader != nil {
		fmt.Fprintln(w)
		printBuildHeader(w, *vm.BuildHeader)
	}
	if vm.BuildSummary != nil && !vm.Generating {
		printBuildSummary(w, *vm.BuildSummary)
	}

	if vm.ErrorText != "" {
		fmt.Fprintln(w)
		red.Fprintf(w, "error: %s\n", vm.ErrorText)
	}

	fmt.Fprintln(w)
	faint.Fprintf(w, "Pending changes: amp pending (resource %s)\n", vm.PendingChanges.ResourceID)
}

func printBuildHeader(w io.Writer, h lastcommit.BuildHeaderSection) {
	if h.Skeleton {
		faint.Fprintf(w, "Build %s\n", placeholder)
		return
	}
	b := h.Build
	fmt.Fprintf(w, "Build %s", shortID(b.ID))
	if b.Version != "" {
		fmt.Fprintf(w, "  v%s", b.Version)
	}
	fmt.Fprint(w, "  ")
	buildStatusColor(b.Status).Fprintln(w, b.Status)
	if h.IsError {
		magenta.Fprintln(w, "Pending changes could not be committed")
	}
}

func printBuildSummary(w io.Writer, s buildsummary.Summary) {
	for _, row := range s.Steps {
		fmt.Fprintf(w, "  %s %-16s %s", stepIcon(row.Status), row.Label, formatDuration(row.Duration))
		if row.Errors > 0 {
			red.Fprintf(w, "  %d error(s)", row.Errors)
		}
		fmt.Fprintln(w)
	}
	if s.LastError != "" {
		red.Fprintf(w, "  %s\n", s.LastError)
	}
	if s.CanDownload {
		green.Fprintln(w, "  Code archive available (amp download)")
	}
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	return d.Round(time.Second).String()
}

// printCommitList writes one line per commit, freshest first.
func printCommitList(w io.Writer, commits []*models.Commit, limit int) {
	if len(commits) == 0 {
		fmt.Fprintln(w, "No commits yet")
		return
	}
	for i, c := range commits {
		if limit > 0 && i >= limit {
			break
		}
		yellow.Fprintf(w, "%s ", c.ShortID())
		if b := c.LatestBuild(); b != nil {
			buildStatusColor(b.Status).Fprintf(w, "[%s] ", b.Status)
		}
		fmt.Fprint(w, c.Message)
		var account *models.Account
		if c.User != nil {
			account = c.User.Account
		}
		faint.Fprintf(w, "  (%s, %s)\n", accountName(account), c.CreatedAt.Local().Format(timeLayout))
	}
}

// cachedListWarning describes a fallback to the cached commit list. The save time
// is left out when it could not be read.
func cachedListWarning(cause string, savedAt time.Time, savedErr error) string {
	if savedErr != nil || savedAt.IsZero() {
		return fmt.Sprintf("warning: %s; showing cached list", cause)
	}
	return fmt.Sprintf("warning: %s; showing cached list from %s", cause, savedAt.Local().Format(timeLayout))
}

// printPendingChanges writes one line per pending change.
func printPendingChanges(w io.Writer, changes []*models.PendingChange) {
	if len(changes) == 0 {
		fmt.Fprintln(w, "No pending changes")
		return
	}
	for _, ch := range changes {
		name := ch.OriginID
		if ch.Origin != nil && ch.Origin.DisplayName != "" {
			name = ch.Origin.DisplayName
		}
		var act *color.Color
		switch ch.Action {
		case models.ChangeActionCreate:
			act = green
		case models.ChangeActionDelete:
			act = red
		default:
			act = yellow
		}
		act.Fprintf(w, "%-7s ", ch.Action)
		fmt.Fprintf(w, "%s %s", ch.OriginType, name)
		faint.Fprintf(w, "  v%d\n", ch.VersionNumber)
	}
}
