package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/rohitmondal03/amplication/internal/config"
	"github.com/rohitmondal03/amplication/internal/remote"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new amp workspace",
	Long: `Initialize a new amp workspace in the current directory.
This creates a .amp directory holding the configuration and the commit cache.

The server URL and project come from --server and --project. When a project is
given, the server is queried once to check the settings.`,
	Run: runInit,
}

var initSkipCheck bool

func init() {
	initCmd.Flags().BoolVar(&initSkipCheck, "skip-check", false, "Do not contact the server")
}

func runInit(cmd *cobra.Command, args []string) {
	if _, err := config.FindRoot(); err == nil {
		exitError("amp workspace already exists")
	}

	serverURL := flagServer
	if serverURL == "" {
		serverURL = config.DefaultServerURL
	}

	fmt.Printf("Initializing amp workspace...\n")
	fmt.Printf("Server: %s\n", serverURL)

	if flagProject != "" && !initSkipCheck {
		fmt.Printf("Checking project %s...\n", flagProject)
		client := remote.NewGraphQLClient(serverURL, flagToken, config.DefaultRequestTimeout)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		commits, err := client.Commits(ctx, flagProject)
		cancel()
		if err != nil {
			exitError("failed to reach server: %s", remote.FormatError(err))
		}
		fmt.Printf("Project has %d commit(s)\n", len(commits))
	}

	cfg, err := config.Initialize(serverURL, flagProject)
	if err != nil {
		exitError("failed to initialize config: %v", err)
	}
	if flagToken != "" {
		cfg.Token = flagToken
		if err := cfg.Save(); err != nil {
			exitError("failed to save token: %v", err)
		}
	}

	color.New(color.FgGreen).Printf("Initialized empty amp workspace in %s\n", cfg.Path())
	if flagProject == "" {
		fmt.Println("Set project_id in .amp/config or pass --project to follow a project.")
	}
}
