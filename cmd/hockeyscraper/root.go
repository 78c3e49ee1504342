package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"hockeyscraper/pkg/auth"
	"hockeyscraper/pkg/config"
	"hockeyscraper/pkg/logger"
	"hockeyscraper/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	logLevel      string
	notifications bool
	quiet         bool
	verbose       bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hockeyscraper",
	Short: "Crawl the active player directory into a CSV file",
	Long: `hockeyscraper walks the paginated active-player search of a hockey
statistics site, opens every player profile and appends one CSV row per player.

Features:
  - Resumable crawl with a page checkpoint
  - Periodic browser restarts to keep long crawls healthy
  - go-rod or chromedp browser engines
  - Optional SQLite mirror of every row
  - Optional upload of the finished CSV to a GitHub repository`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			logLevel = "error"
		} else if verbose && logLevel == "" {
			logLevel = "debug"
		}

		if !quiet && cmd.Name() == "scrape" {
			ui.PrintLogo()
		}
	},
}

// Execute runs the root command with a context cancelled on SIGINT or SIGTERM
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.hockeyscraper.yaml or ~/.config/hockeyscraper/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&notifications, "notifications", false, "send a desktop notification when a crawl ends")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print every player and debug logs")

	rootCmd.SetVersionTemplate(`hockeyscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig loads configuration with flag overrides and initialises the global logger
func loadConfig(flags map[string]interface{}) (*config.Config, logger.Logger, error) {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, nil, fmt.Errorf("failed to initialise logger: %w", err)
	}
	return cfg, logger.GetLogger(), nil
}

// resolveToken fills cfg.Publish.Token from the credential store when the
// environment did not provide one. It returns a description of the source.
func resolveToken(cfg *config.Config, log logger.Logger) string {
	if cfg.Publish.Token != "" {
		return "environment"
	}

	manager, err := auth.NewManager()
	if err != nil {
		log.WithError(err).Debug("Credential store unavailable")
		return ""
	}

	token := manager.Token(auth.DefaultName)
	if token == "" {
		return ""
	}
	cfg.Publish.Token = token
	return "credential store"
}
