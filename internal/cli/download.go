package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/rohitmondal03/amplication/internal/lastcommit"
	"github.com/rohitmondal03/amplication/internal/remote"
	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download <resource-id>",
	Short: "Download the generated code of the last build",
	Long: `Download the code archive generated by the build of the last commit of a
resource. The archive is available once code generation succeeded.`,
	Args: cobra.ExactArgs(1),
	Run:  runDownload,
}

var downloadOutput string

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "Output file (default <build-id>.zip)")
}

func runDownload(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	ctx, cancel := signalContext()
	defer cancel()

	view, err := lastcommit.New(c.Client, lastcommit.Props{ResourceID: args[0]}, c.newProvider().State(),
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
	if msg := view.ErrorMessage(); msg != "" {
		exitError("%s", msg)
	}
	build := view.Build()
	if build == nil {
		exitError("resource %s has no build", args[0])
	}

	path := downloadOutput
	if path == "" {
		path = shortID(build.ID) + ".zip"
	}
	f, err := os.Create(path)
	if err != nil {
		exitError("failed to create %s: %v", path, err)
	}

	n, err := view.DownloadArchive(ctx, f)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		exitError("download failed: %s", remote.FormatError(err))
	}

	color.New(color.FgGreen).Printf("Saved %s ", path)
	fmt.Printf("(%d bytes, build %s)\n", n, shortID(build.ID))
}
