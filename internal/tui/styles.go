package tui

import "github.com/charmbracelet/lipgloss"

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#64748B"}
	highlight = lipgloss.AdaptiveColor{Light: "#5B21B6", Dark: "#A78BFA"}
	special   = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#10B981"}
	warning   = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#F59E0B"}
	danger    = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F43F5E"}

	titleStyle = lipgloss.NewStyle().
			Foreground(highlight).
			Bold(true).
			Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(subtle).
			Padding(0, 1)

	idStyle      = lipgloss.NewStyle().Foreground(warning).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(subtle)
	okStyle      = lipgloss.NewStyle().Foreground(special)
	warnStyle    = lipgloss.NewStyle().Foreground(warning)
	errorStyle   = lipgloss.NewStyle().Foreground(danger)
	skeleton     = dimStyle.Render("░░░░░░░░")
	helpStyle    = dimStyle.Padding(0, 1)
	statusStyle  = lipgloss.NewStyle().Foreground(highlight).Padding(0, 1)
	sectionStyle = lipgloss.NewStyle().Bold(true)
)
