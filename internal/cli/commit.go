package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/rohitmondal03/amplication/internal/remote"
	"github.com/spf13/cobra"
)

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Commit the pending changes of the project",
	Long: `Create a new commit from the pending changes of the selected project. The
server starts a build for every resource touched by the commit; follow it with
'amp last-commit <resource-id>' or 'amp watch <resource-id>'.`,
	Args: cobra.NoArgs,
	Run:  runCommit,
}

var commitMessage string

func init() {
	commitCmd.Flags().StringVarP(&commitMessage, "message", "m", "", "Commit message (required)")
	commitCmd.MarkFlagRequired("message")
}

func runCommit(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()
	c.requireProject()

	ctx, cancel := signalContext()
	defer cancel()

	provider := c.newProvider()
	commit, err := provider.Commit(ctx, c.Client, commitMessage)
	if err != nil {
		exitError("%s", remote.FormatError(err))
	}

	color.New(color.FgGreen).Printf("[%s] ", shortID(commit.ID))
	fmt.Println(commit.Message)
	if n := len(commit.Builds); n > 0 {
		fmt.Printf("%d build(s) started\n", n)
	}
}
