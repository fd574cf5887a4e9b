package cli

import (
	"os"

	"github.com/rohitmondal03/amplication/internal/remote"
	"github.com/spf13/cobra"
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List the pending changes of the project",
	Args:  cobra.NoArgs,
	Run:   runPending,
}

func runPending(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()
	c.requireProject()

	ctx, cancel := signalContext()
	defer cancel()

	changes, err := c.newProvider().RefreshPendingChanges(ctx, c.Client)
	if err != nil {
		exitError("%s", remote.FormatError(err))
	}
	printPendingChanges(os.Stdout, changes)
}
