// Package cli implements the command-line interface for amp.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/rohitmondal03/amplication/internal/config"
	"github.com/rohitmondal03/amplication/internal/remote"
	"github.com/rohitmondal03/amplication/internal/store"
	"github.com/spf13/cobra"
)

// Persistent flags; empty values leave the configuration untouched.
var (
	flagServer    string
	flagToken     string
	flagProject   string
	flagLogLevel  string
	flagLogFormat string
)

// cmdContext holds common resources for CLI commands
type cmdContext struct {
	Config *config.Config
	Client remote.Client
	Cache  store.Cache
	Logger *slog.Logger
}

// Close releases resources held by cmdContext
func (c *cmdContext) Close() {
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			c.Logger.Warn("close cache", "error", err)
		}
	}
}

// initContext loads the configuration and builds the logger and remote client.
func initContext() *cmdContext {
	cfg, err := loadConfig()
	if err != nil {
		exitError("%v", err)
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	slog.SetDefault(logger)

	inner := remote.NewGraphQLClient(cfg.ServerURL, cfg.Token, time.Duration(cfg.RequestTimeout)).WithLogger(logger)
	client := remote.NewRetryClient(inner, &remote.RetryConfig{
		MaxRetries:     cfg.Retry.MaxRetries,
		InitialBackoff: time.Duration(cfg.Retry.InitialBackoff),
		MaxBackoff:     time.Duration(cfg.Retry.MaxBackoff),
		JitterFraction: 0.2,
	})

	return &cmdContext{Config: cfg, Client: client, Logger: logger}
}

// initContextWithCache is initContext plus the configured commit cache.
func initContextWithCache() *cmdContext {
	c := initContext()

	cache, err := store.Open(c.Config.CacheBackend, c.Config.CachePath())
	if err != nil {
		// the cache is an optimisation; commands still work without it
		c.Logger.Warn("commit cache unavailable", "backend", c.Config.CacheBackend, "error", err)
		return c
	}
	c.Cache = cache
	return c
}

// loadConfig reads .amp/config when present and falls back to defaults plus
// environment otherwise, then applies command-line flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		if _, rootErr := config.FindRoot(); rootErr == nil {
			return nil, err
		}
		cfg = config.Default()
		cfg.ApplyEnv()
	}

	if flagServer != "" {
		cfg.ServerURL = flagServer
	}
	if flagToken != "" {
		cfg.Token = flagToken
	}
	if flagProject != "" {
		cfg.ProjectID = flagProject
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if flagLogFormat != "" {
		cfg.LogFormat = flagLogFormat
	}
	return cfg, cfg.Validate()
}

var rootCmd = &cobra.Command{
	Use:   "amp",
	Short: "Track commits and builds of an Amplication project",
	Long: `amp shows the last commit of a resource together with the build it triggered,
keeps the commit list of a project up to date, and commits pending changes.

Settings are read from .amp/config (see 'amp init') and can be overridden with
AMP_SERVER_URL, AMP_TOKEN and AMP_PROJECT_ID or the global flags.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagServer, "server", "", "Server URL (overrides server_url)")
	pf.StringVar(&flagToken, "token", "", "API token (overrides token)")
	pf.StringVarP(&flagProject, "project", "p", "", "Project ID (overrides project_id)")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&flagLogFormat, "log-format", "", "Log format (text, json)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(lastCommitCmd)
	rootCmd.AddCommand(commitsCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(pendingCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(watchCmd)
}

// exitError prints an error and exits
func exitError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

// shortID returns first 8 characters of an ID
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
