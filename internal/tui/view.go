package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/rohitmondal03/amplication/internal/buildsummary"
	"github.com/rohitmondal03/amplication/internal/models"
)

func statusStyleFor(s models.BuildStatus) string {
	switch s {
	case models.BuildStatusCompleted:
		return okStyle.Render(string(s))
	case models.BuildStatusFailed, models.BuildStatusInvalid:
		return errorStyle.Render(string(s))
	default:
		return warnStyle.Render(string(s))
	}
}

func stepIcon(s models.StepStatus) string {
	switch s {
	case models.StepStatusSuccess:
		return okStyle.Render("✓")
	case models.StepStatusFailed:
		return errorStyle.Render("✗")
	case models.StepStatusRunning:
		return warnStyle.Render("●")
	default:
		return dimStyle.Render("·")
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("amp watch"))
	b.WriteString("\n")

	b.WriteString(m.lastCommitView())
	b.WriteString("\n")
	b.WriteString(m.feedView())
	b.WriteString("\n")

	if m.status != "" {
		if m.statusErr {
			b.WriteString(errorStyle.Padding(0, 1).Render(m.status))
		} else {
			b.WriteString(statusStyle.Render(m.status))
		}
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("r refresh • c commit • d download • q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) lastCommitView() string {
	vm := m.vm
	if vm.Empty {
		return cardStyle.Render(dimStyle.Render("No commits yet"))
	}

	var lines []string
	if vm.CommitID.Skeleton {
		lines = append(lines, sectionStyle.Render(vm.CommitID.Label)+" "+skeleton)
	} else {
		lines = append(lines, fmt.Sprintf("%s %s  %s", sectionStyle.Render(vm.CommitID.Label),
			idStyle.Render(vm.CommitID.ShortID), dimStyle.Render(vm.CommitID.Link)))
	}
	if vm.CommitID.HasTooltip {
		lines = append(lines, "  "+vm.CommitID.Tooltip)
	}

	if vm.UserAndTime.Loading {
		lines = append(lines, skeleton)
	} else {
		name := vm.UserAndTime.Account.FullName()
		if name == "" {
			name = "unknown"
		}
		lines = append(lines, dimStyle.Render(fmt.Sprintf("%s, %s", name, vm.UserAndTime.Time.Local().Format(time.DateTime))))
	}

	if vm.Generating {
		lines = append(lines, m.spinner.View()+" Generating new build...")
	}

	if h := vm.BuildHeader; h != nil {
		if h.Skeleton {
			lines = append(lines, "Build "+skeleton)
		} else {
			line := fmt.Sprintf("Build %s", idStyle.Render(shortID(h.Build.ID)))
			if h.Build.Version != "" {
				line += " v" + h.Build.Version
			}
			lines = append(lines, line+"  "+statusStyleFor(h.Build.Status))
		}
		if h.IsError {
			lines = append(lines, errorStyle.Render("Pending changes could not be committed"))
		}
	}
	if s := vm.BuildSummary; s != nil && !vm.Generating {
		lines = append(lines, summaryLines(*s)...)
	}

	if vm.ErrorText != "" {
		lines = append(lines, errorStyle.Render("error: "+vm.ErrorText))
	}

	return cardStyle.Render(strings.Join(lines, "\n"))
}

func summaryLines(s buildsummary.Summary) []string {
	var lines []string
	for _, row := range s.Steps {
		line := fmt.Sprintf("  %s %s", stepIcon(row.Status), row.Label)
		if row.Duration > 0 {
			line += dimStyle.Render(" " + row.Duration.Round(time.Second).String())
		}
		if row.Errors > 0 {
			line += errorStyle.Render(fmt.Sprintf(" %d error(s)", row.Errors))
		}
		lines = append(lines, line)
	}
	if s.LastError != "" {
		lines = append(lines, errorStyle.Render("  "+s.LastError))
	}
	if s.CanDownload {
		lines = append(lines, okStyle.Render("  Code archive available, press d"))
	}
	return lines
}

func (m Model) feedView() string {
	snap := m.feed
	header := sectionStyle.Render(fmt.Sprintf("Commits (%d)", len(snap.Commits)))
	if snap.Loading {
		header += " " + m.spinner.View()
	}

	lines := []string{header}
	if snap.Err != nil {
		lines = append(lines, errorStyle.Render("feed paused: "+snap.Err.Error()+" (press r)"))
	}
	for i, c := range snap.Commits {
		if i >= m.opts.FeedLimit {
			lines = append(lines, dimStyle.Render(fmt.Sprintf("  … %d more", len(snap.Commits)-i)))
			break
		}
		line := "  " + idStyle.Render(c.ShortID())
		if build := c.LatestBuild(); build != nil {
			line += " " + statusStyleFor(build.Status)
		}
		line += " " + c.Message
		lines = append(lines, line)
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}
