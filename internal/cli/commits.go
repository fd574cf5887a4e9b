package cli

import (
	"os"

	"github.com/rohitmondal03/amplication/internal/remote"
	"github.com/spf13/cobra"
)

var commitsCmd = &cobra.Command{
	Use:   "commits",
	Short: "List the commits of the project",
	Long: `List the commits of the selected project, freshest first, with the status of
the latest build of each commit.

When the server cannot be reached the last cached list is shown instead.`,
	Args: cobra.NoArgs,
	Run:  runCommits,
}

var commitsLimit int

func init() {
	commitsCmd.Flags().IntVarP(&commitsLimit, "n", "n", 0, "Limit the number of commits to show")
}

func runCommits(cmd *cobra.Command, args []string) {
	c := initContextWithCache()
	defer c.Close()
	c.requireProject()

	ctx, cancel := signalContext()
	defer cancel()

	projectID := c.Config.ProjectID
	commits, err := c.Client.Commits(ctx, projectID)
	if err != nil {
		if c.Cache == nil {
			exitError("%s", remote.FormatError(err))
		}
		cached, cerr := c.Cache.LoadCommits(projectID)
		if cerr != nil || cached == nil {
			exitError("%s", remote.FormatError(err))
		}
		savedAt, serr := c.Cache.SavedAt(projectID)
		if serr != nil {
			c.Logger.Warn("commit cache: read save time failed", "project", projectID, "error", serr)
		}
		yellow.Fprintln(os.Stderr, cachedListWarning(remote.FormatError(err), savedAt, serr))
		commits = cached
	} else if c.Cache != nil {
		if err := c.Cache.SaveCommits(projectID, commits); err != nil {
			c.Logger.Warn("commit cache: save failed", "project", projectID, "error", err)
		}
	}

	printCommitList(os.Stdout, commits, commitsLimit)
}
