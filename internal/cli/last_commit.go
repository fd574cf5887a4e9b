package cli

import (
	"fmt"
	"os"

	"github.com/rohitmondal03/amplication/internal/lastcommit"
	"github.com/spf13/cobra"
)

var lastCommitCmd = &cobra.Command{
	Use:   "last-commit <resource-id>",
	Short: "Show the last commit of a resource and its build",
	Long: `Fetch the most recent commit of a resource and print it together with the
build it triggered: commit id, author, time, build status and per-step progress.`,
	Args: cobra.ExactArgs(1),
	Run:  runLastCommit,
}

func runLastCommit(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	ctx, cancel := signalContext()
	defer cancel()

	provider := c.newProvider()
	view, err := lastcommit.New(c.Client, lastcommit.Props{ResourceID: args[0]}, provider.State(),
		lastcommit.WithLogger(c.Logger),
		lastcommit.WithTeardownRefetch(false),
	)
	if err != nil {
		exitError("%v", err)
	}
	defer view.Close()

	if err := waitForView(ctx, view); err != nil {
		exitError("%v", err)
	}

	vm := view.Render()
	if vm.Empty {
		// an empty view shows nothing, not even the error
		if msg := view.ErrorMessage(); msg != "" {
			exitError("%s", msg)
		}
		fmt.Println("No commits yet")
		return
	}
	printLastCommit(os.Stdout, vm)
}
