package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rohitmondal03/amplication/internal/lastcommit"
	"github.com/rohitmondal03/amplication/internal/tui"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <resource-id>",
	Short: "Follow the last commit of a resource and the project's commits",
	Long: `Keep the last commit of a resource, its build and the commit list of the
project up to date until interrupted.

Keys: r refresh, c commit pending changes (needs --message), d download the
generated code, q quit. With --plain, changes are printed as text instead.

Build status transitions are posted to the webhook_urls of the configuration.`,
	Args: cobra.ExactArgs(1),
	Run:  runWatch,
}

var (
	watchPlain       bool
	watchMessage     string
	watchDownloadDir string
)

func init() {
	watchCmd.Flags().BoolVar(&watchPlain, "plain", false, "Print changes as text instead of the interactive view")
	watchCmd.Flags().StringVarP(&watchMessage, "message", "m", "", "Commit message used by the commit key")
	watchCmd.Flags().StringVar(&watchDownloadDir, "download-dir", ".", "Directory for downloaded archives")
}

func runWatch(cmd *cobra.Command, args []string) {
	c := initContextWithCache()
	defer c.Close()

	ctx, cancel := signalContext()
	defer cancel()

	s, err := newSession(c, args[0])
	if err != nil {
		exitError("%v", err)
	}
	defer s.close()

	ui := func(ctx context.Context) error {
		return tui.Run(ctx, tui.Options{
			View:          s.view,
			Feed:          s.feed,
			Provider:      s.provider,
			Client:        c.Client,
			CommitMessage: watchMessage,
			DownloadDir:   watchDownloadDir,
		})
	}
	if watchPlain {
		ui = func(ctx context.Context) error {
			return watchPlainText(ctx, s.view, os.Stdout)
		}
	}

	if err := s.run(ctx, c, ui); err != nil {
		exitError("%v", err)
	}
}

// watchPlainText prints the view every time its visible state changes.
func watchPlainText(ctx context.Context, view *lastcommit.View, w io.Writer) error {
	changed := make(chan struct{}, 1)
	poke := func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}
	unsubscribe := view.Subscribe(poke)
	defer unsubscribe()
	poke()

	last := ""
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changed:
		}

		vm := view.Render()
		sig := signature(vm)
		if sig == last {
			continue
		}
		last = sig
		if vm.Empty {
			fmt.Fprintln(w, "No commits yet")
		} else {
			printLastCommit(w, vm)
		}
		fmt.Fprintln(w, strings.Repeat("─", 40))
	}
}

// signature identifies what a user sees in vm, ignoring durations.
func signature(vm lastcommit.ViewModel) string {
	if vm.Empty {
		return "empty"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%t|%s", vm.CommitID.ID, vm.Generating, vm.ErrorText)
	if h := vm.BuildHeader; h != nil {
		fmt.Fprintf(&b, "|%s:%s:%t", h.Build.ID, h.Build.Status, h.IsError)
	}
	if s := vm.BuildSummary; s != nil {
		for _, row := range s.Steps {
			fmt.Fprintf(&b, "|%s=%s", row.Name, row.Status)
		}
	}
	return b.String()
}
