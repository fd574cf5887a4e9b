// Package tui is the interactive terminal view of a resource's last commit and
// the project's commit feed.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rohitmondal03/amplication/internal/appctx"
	"github.com/rohitmondal03/amplication/internal/commitfeed"
	"github.com/rohitmondal03/amplication/internal/lastcommit"
	"github.com/rohitmondal03/amplication/internal/models"
	"github.com/rohitmondal03/amplication/internal/remote"
)

const actionTimeout = 2 * time.Minute

// Options are the components the UI drives.
type Options struct {
	View     *lastcommit.View
	Feed     *commitfeed.Feed
	Provider *appctx.Provider
	Client   remote.Client

	// CommitMessage enables the commit key when non-empty.
	CommitMessage string
	// DownloadDir receives archives; defaults to the working directory.
	DownloadDir string
	// FeedLimit caps the number of commits listed, default 10.
	FeedLimit int
}

type refreshMsg struct{}

type commitDoneMsg struct {
	commit *models.Commit
	err    error
}

type downloadDoneMsg struct {
	path string
	n    int64
	err  error
}

type pendingDoneMsg struct {
	count int
	err   error
}

// Model is the bubbletea model of the watch screen.
type Model struct {
	ctx     context.Context
	opts    Options
	spinner spinner.Model

	vm    lastcommit.ViewModel
	feed  commitfeed.Snapshot
	width int

	committing  bool
	downloading bool
	status      string
	statusErr   bool
	quitting    bool
}

// New creates the model. ctx bounds the actions started from the UI.
func New(ctx context.Context, opts Options) Model {
	if opts.FeedLimit <= 0 {
		opts.FeedLimit = 10
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(highlight)

	m := Model{ctx: ctx, opts: opts, spinner: s}
	m.refresh()
	return m
}

func (m *Model) refresh() {
	if m.opts.View != nil {
		m.vm = m.opts.View.Render()
	}
	if m.opts.Feed != nil {
		m.feed = m.opts.Feed.Snapshot()
	}
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.status = msg
	m.statusErr = isErr
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case refreshMsg:
		m.refresh()

	case commitDoneMsg:
		m.committing = false
		if msg.err != nil {
			m.setStatus("commit failed: "+remote.FormatError(msg.err), true)
		} else {
			m.setStatus(fmt.Sprintf("committed %s", msg.commit.ShortID()), false)
		}
		m.refresh()

	case downloadDoneMsg:
		m.downloading = false
		if msg.err != nil {
			m.setStatus("download failed: "+remote.FormatError(msg.err), true)
		} else {
			m.setStatus(fmt.Sprintf("saved %s (%d bytes)", msg.path, msg.n), false)
		}
		m.refresh()

	case pendingDoneMsg:
		if msg.err != nil {
			m.setStatus("pending changes: "+remote.FormatError(msg.err), true)
		} else {
			m.setStatus(fmt.Sprintf("%d pending change(s)", msg.count), false)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case "r":
		if m.opts.Feed != nil {
			m.opts.Feed.Refetch()
		}
		m.setStatus("refreshing...", false)
		return m, m.pendingCmd()

	case "c":
		if m.opts.CommitMessage == "" {
			m.setStatus("start with --message to commit from here", true)
			return m, nil
		}
		if m.committing {
			return m, nil
		}
		m.committing = true
		m.setStatus("committing...", false)
		return m, m.commitCmd()

	case "d":
		if m.downloading {
			return m, nil
		}
		if m.opts.View == nil || m.opts.View.Build() == nil {
			m.setStatus("no build to download", true)
			return m, nil
		}
		m.downloading = true
		m.setStatus("downloading...", false)
		return m, m.downloadCmd()
	}
	return m, nil
}

func (m Model) commitCmd() tea.Cmd {
	provider, client, message := m.opts.Provider, m.opts.Client, m.opts.CommitMessage
	ctx := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()
		commit, err := provider.Commit(ctx, client, message)
		return commitDoneMsg{commit: commit, err: err}
	}
}

func (m Model) pendingCmd() tea.Cmd {
	provider, client := m.opts.Provider, m.opts.Client
	if provider == nil || provider.State().ProjectID() == "" {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()
		changes, err := provider.RefreshPendingChanges(ctx, client)
		return pendingDoneMsg{count: len(changes), err: err}
	}
}

func (m Model) downloadCmd() tea.Cmd {
	view := m.opts.View
	dir := m.opts.DownloadDir
	ctx := m.ctx
	return func() tea.Msg {
		build := view.Build()
		if build == nil {
			return downloadDoneMsg{err: fmt.Errorf("no build")}
		}
		path := filepath.Join(dir, shortID(build.ID)+".zip")
		f, err := os.Create(path)
		if err != nil {
			return downloadDoneMsg{err: err}
		}

		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()
		n, err := view.DownloadArchive(ctx, f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
			return downloadDoneMsg{err: err}
		}
		return downloadDoneMsg{path: path, n: n}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
