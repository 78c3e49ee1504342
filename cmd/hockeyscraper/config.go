package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"hockeyscraper/pkg/config"
	"hockeyscraper/pkg/logger"
	"hockeyscraper/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage hockeyscraper configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (HOCKEYSCRAPER_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.hockeyscraper.yaml'
unless a different path is specified with the --config flag.`,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging all sources.

The publish token is never printed.`,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Validate the effective configuration.

This command checks:
  - YAML syntax
  - Browser engine and output mode values
  - Timeouts, delays and page limits
  - Publish target when publishing is enabled`,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# hockeyscraper configuration file
#
# Environment variables prefixed with HOCKEYSCRAPER_ override these values,
# for example HOCKEYSCRAPER_ENGINE or HOCKEYSCRAPER_OUTPUT_FILE.

site:
  base_url: "https://www.eliteprospects.com"
  listing_path: "/search/player"
  listing_query:
    status: "active"
  page_param: "page"

browser:
  # rod or chromedp
  engine: "rod"
  headless: true
  # Leave empty to use the engine's own browser lookup
  bin_path: ""
  user_data_dir: ""
  user_agent: ""
  # Needed when running as root inside containers
  no_sandbox: false

timeouts:
  listing_navigation: 60s
  listing_wait: 10s
  detail_navigation: 15s
  detail_wait: 5s

crawl:
  # Pages per browser session, 0 disables restarts
  restart_interval: 25
  # Stop after this many pages, 0 means no limit
  max_pages: 0
  row_delay: 200ms
  page_delay: 1s

output:
  file: "eliteprospects_active_players.csv"
  # fresh truncates the file on start, append keeps existing rows
  mode: "append"
  # Optional SQLite mirror of every row
  sqlite_path: ""

checkpoint:
  file: "checkpoint.txt"

extract:
  listing_table: "table.table"
  listing_rows: "table tbody tr"
  profile_heading: "h1"
  profile_subtitle: "h2.Profile_subTitlePlayer__drUwD"
  facts_items: "ul.PlayerFacts_factsList__Xw_ID > li"
  fact_label: ".PlayerFacts_factLabel__EqzO5"

publish:
  enabled: false
  # Also publish after interrupted runs
  always: false
  api_url: "https://api.github.com"
  owner: ""
  repo: ""
  branch: "main"
  path: "eliteprospects_active_players.csv"
  message: "Update player data"
  timeout: 30s
  # Attempts per upload request, 1 disables retrying
  retries: 1
  retry_delay: 2s

logging:
  # debug, info, warn, error
  level: "info"
  # Optional JSON log file
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".hockeyscraper.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Edit the configuration file")
	fmt.Println("2. Run 'hockeyscraper config validate' to check it")
	fmt.Println("3. Start crawling with 'hockeyscraper scrape'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(nil)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	fmt.Println(ui.Magenta("Current Configuration"))
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (HOCKEYSCRAPER_*)")
	fmt.Println("3. .env files")
	if configFile != "" {
		fmt.Printf("4. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("4. Configuration file: (searched in default locations)")
	}
	fmt.Println("5. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	var warnings []string
	if cfg.Publish.Enabled && cfg.Publish.Token == "" && resolveToken(cfg, logger.NewNopLogger()) == "" {
		warnings = append(warnings, "publishing is enabled but no token is configured")
	}
	if cfg.Output.Mode == config.OutputModeFresh {
		warnings = append(warnings, "output mode 'fresh' truncates the CSV on every run")
	}
	if cfg.Crawl.RestartInterval == 0 {
		warnings = append(warnings, "browser restarts are disabled")
	}

	for _, w := range warnings {
		ui.PrintWarning("Warning", w)
	}
	ui.PrintSuccess("Configuration is valid")

	maxPagesText := "unlimited"
	if cfg.Crawl.MaxPages > 0 {
		maxPagesText = strconv.Itoa(cfg.Crawl.MaxPages)
	}
	ui.RenderSettings(os.Stdout, "Summary", [][2]string{
		{"browser.engine", cfg.Browser.Engine},
		{"output.file", cfg.Output.File},
		{"output.mode", cfg.Output.Mode},
		{"checkpoint.file", cfg.Checkpoint.File},
		{"crawl.restart_interval", strconv.Itoa(cfg.Crawl.RestartInterval)},
		{"crawl.max_pages", maxPagesText},
		{"publish.enabled", strconv.FormatBool(cfg.Publish.Enabled)},
		{"logging.level", cfg.Logging.Level},
	})
	return nil
}
