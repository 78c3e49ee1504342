package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Output modes for the record writer
const (
	OutputModeFresh  = "fresh"
	OutputModeAppend = "append"
)

// Browser engines
const (
	EngineRod      = "rod"
	EngineChromedp = "chromedp"
)

// Config holds all configuration options for the player scraper
type Config struct {
	// Remote site layout
	Site SiteConfig `yaml:"site" json:"site"`

	// Browser engine settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Navigation and element wait timeouts
	Timeouts TimeoutConfig `yaml:"timeouts" json:"timeouts"`

	// Crawl loop settings
	Crawl CrawlConfig `yaml:"crawl" json:"crawl"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Checkpoint settings
	Checkpoint CheckpointConfig `yaml:"checkpoint" json:"checkpoint"`

	// Markup selectors used by the extractor
	Extract ExtractConfig `yaml:"extract" json:"extract"`

	// Upload of the finished output file
	Publish PublishConfig `yaml:"publish" json:"publish"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SiteConfig describes where the listing lives
type SiteConfig struct {
	BaseURL      string            `yaml:"base_url" json:"base_url"`
	ListingPath  string            `yaml:"listing_path" json:"listing_path"`
	ListingQuery map[string]string `yaml:"listing_query" json:"listing_query"`
	PageParam    string            `yaml:"page_param" json:"page_param"`
}

// BrowserConfig holds browser engine settings
type BrowserConfig struct {
	Engine      string `yaml:"engine" json:"engine"`
	Headless    bool   `yaml:"headless" json:"headless"`
	BinPath     string `yaml:"bin_path" json:"bin_path"`
	UserDataDir string `yaml:"user_data_dir" json:"user_data_dir"`
	UserAgent   string `yaml:"user_agent" json:"user_agent"`
	NoSandbox   bool   `yaml:"no_sandbox" json:"no_sandbox"`
}

// TimeoutConfig holds the bounded waits used during navigation
type TimeoutConfig struct {
	ListingNavigation time.Duration `yaml:"listing_navigation" json:"listing_navigation"`
	ListingWait       time.Duration `yaml:"listing_wait" json:"listing_wait"`
	DetailNavigation  time.Duration `yaml:"detail_navigation" json:"detail_navigation"`
	DetailWait        time.Duration `yaml:"detail_wait" json:"detail_wait"`
}

// CrawlConfig holds the pagination loop settings
type CrawlConfig struct {
	// RestartInterval is the number of pages per browser session (0 disables restarts)
	RestartInterval int `yaml:"restart_interval" json:"restart_interval"`
	// MaxPages stops the run after this many pages (0 means no limit)
	MaxPages  int           `yaml:"max_pages" json:"max_pages"`
	RowDelay  time.Duration `yaml:"row_delay" json:"row_delay"`
	PageDelay time.Duration `yaml:"page_delay" json:"page_delay"`
}

// OutputConfig holds output file configuration
type OutputConfig struct {
	File       string `yaml:"file" json:"file"`
	Mode       string `yaml:"mode" json:"mode"`
	SQLitePath string `yaml:"sqlite_path" json:"sqlite_path"`
}

// CheckpointConfig holds checkpoint file configuration
type CheckpointConfig struct {
	File string `yaml:"file" json:"file"`
}

// ExtractConfig holds the CSS selectors for listing and profile markup
type ExtractConfig struct {
	ListingTable    string `yaml:"listing_table" json:"listing_table"`
	ListingRows     string `yaml:"listing_rows" json:"listing_rows"`
	ProfileHeading  string `yaml:"profile_heading" json:"profile_heading"`
	ProfileSubtitle string `yaml:"profile_subtitle" json:"profile_subtitle"`
	FactsItems      string `yaml:"facts_items" json:"facts_items"`
	FactLabel       string `yaml:"fact_label" json:"fact_label"`
}

// PublishConfig holds the upload target configuration
type PublishConfig struct {
	Enabled bool          `yaml:"enabled" json:"enabled"`
	Always  bool          `yaml:"always" json:"always"`
	APIURL  string        `yaml:"api_url" json:"api_url"`
	Owner   string        `yaml:"owner" json:"owner"`
	Repo    string        `yaml:"repo" json:"repo"`
	Branch  string        `yaml:"branch" json:"branch"`
	Path    string        `yaml:"path" json:"path"`
	Message string        `yaml:"message" json:"message"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// Retries is the number of attempts per upload request (1 disables retrying)
	Retries    int           `yaml:"retries" json:"retries"`
	RetryDelay time.Duration `yaml:"retry_delay" json:"retry_delay"`
	// Token is normally resolved from the environment or credential store
	Token string `yaml:"-" json:"-"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			BaseURL:      "https://www.eliteprospects.com",
			ListingPath:  "/search/player",
			ListingQuery: map[string]string{"status": "active"},
			PageParam:    "page",
		},
		Browser: BrowserConfig{
			Engine:   EngineRod,
			Headless: true,
		},
		Timeouts: TimeoutConfig{
			ListingNavigation: 60 * time.Second,
			ListingWait:       10 * time.Second,
			DetailNavigation:  15 * time.Second,
			DetailWait:        5 * time.Second,
		},
		Crawl: CrawlConfig{
			RestartInterval: 25,
			MaxPages:        0,
			RowDelay:        200 * time.Millisecond,
			PageDelay:       time.Second,
		},
		Output: OutputConfig{
			File: "eliteprospects_active_players.csv",
			Mode: OutputModeAppend,
		},
		Checkpoint: CheckpointConfig{
			File: "checkpoint.txt",
		},
		Extract: ExtractConfig{
			ListingTable:    "table.table",
			ListingRows:     "table tbody tr",
			ProfileHeading:  "h1",
			ProfileSubtitle: "h2.Profile_subTitlePlayer__drUwD",
			FactsItems:      "ul.PlayerFacts_factsList__Xw_ID > li",
			FactLabel:       ".PlayerFacts_factLabel__EqzO5",
		},
		Publish: PublishConfig{
			Enabled:    false,
			APIURL:     "https://api.github.com",
			Branch:     "main",
			Path:       "eliteprospects_active_players.csv",
			Message:    "Update player data",
			Timeout:    30 * time.Second,
			Retries:    1,
			RetryDelay: 2 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("HOCKEYSCRAPER_BASE_URL"); v != "" {
		c.Site.BaseURL = v
	}
	if v := os.Getenv("HOCKEYSCRAPER_ENGINE"); v != "" {
		c.Browser.Engine = strings.ToLower(v)
	}
	if v := os.Getenv("HOCKEYSCRAPER_HEADLESS"); v != "" {
		c.Browser.Headless = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("HOCKEYSCRAPER_BROWSER_BIN"); v != "" {
		c.Browser.BinPath = v
	}

	if v := os.Getenv("HOCKEYSCRAPER_RESTART_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HOCKEYSCRAPER_RESTART_INTERVAL: %w", err)
		}
		c.Crawl.RestartInterval = n
	}

	if v := os.Getenv("HOCKEYSCRAPER_OUTPUT_FILE"); v != "" {
		c.Output.File = v
	}
	if v := os.Getenv("HOCKEYSCRAPER_OUTPUT_MODE"); v != "" {
		c.Output.Mode = strings.ToLower(v)
	}
	if v := os.Getenv("HOCKEYSCRAPER_SQLITE_PATH"); v != "" {
		c.Output.SQLitePath = v
	}
	if v := os.Getenv("HOCKEYSCRAPER_CHECKPOINT_FILE"); v != "" {
		c.Checkpoint.File = v
	}

	if v := os.Getenv("HOCKEYSCRAPER_PUBLISH"); v != "" {
		c.Publish.Enabled = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("HOCKEYSCRAPER_PUBLISH_REPO"); v != "" {
		// owner/repo shorthand
		if owner, repo, ok := strings.Cut(v, "/"); ok {
			c.Publish.Owner = owner
			c.Publish.Repo = repo
		}
	}
	if v := os.Getenv("HOCKEYSCRAPER_PUBLISH_BRANCH"); v != "" {
		c.Publish.Branch = v
	}

	// Token: tool-specific variable wins over the generic one
	if v := os.Getenv("HOCKEYSCRAPER_GITHUB_TOKEN"); v != "" {
		c.Publish.Token = v
	} else if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		c.Publish.Token = v
	}

	if v := os.Getenv("HOCKEYSCRAPER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".hockeyscraper.yaml",
		".hockeyscraper.yml",
		"hockeyscraper.yaml",
		filepath.Join(home, ".config", "hockeyscraper", "config.yaml"),
		filepath.Join(home, ".config", "hockeyscraper", "config.yml"),
		filepath.Join(home, ".hockeyscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Site.BaseURL == "" {
		errs = append(errs, errors.New("site base URL is required"))
	}
	if c.Site.PageParam == "" {
		errs = append(errs, errors.New("page query parameter is required"))
	}

	switch c.Browser.Engine {
	case EngineRod, EngineChromedp:
	default:
		errs = append(errs, fmt.Errorf("unknown browser engine %q (want %s or %s)", c.Browser.Engine, EngineRod, EngineChromedp))
	}

	if c.Timeouts.ListingNavigation <= 0 || c.Timeouts.ListingWait <= 0 {
		errs = append(errs, errors.New("listing timeouts must be positive"))
	}
	if c.Timeouts.DetailNavigation <= 0 || c.Timeouts.DetailWait <= 0 {
		errs = append(errs, errors.New("detail timeouts must be positive"))
	}

	if c.Crawl.RestartInterval < 0 {
		errs = append(errs, errors.New("restart interval cannot be negative"))
	}
	if c.Crawl.MaxPages < 0 {
		errs = append(errs, errors.New("max pages cannot be negative"))
	}
	if c.Crawl.RowDelay < 0 || c.Crawl.PageDelay < 0 {
		errs = append(errs, errors.New("crawl delays cannot be negative"))
	}

	if c.Output.File == "" {
		errs = append(errs, errors.New("output file is required"))
	}
	switch c.Output.Mode {
	case OutputModeFresh, OutputModeAppend:
	default:
		errs = append(errs, fmt.Errorf("invalid output mode %q (want %s or %s)", c.Output.Mode, OutputModeFresh, OutputModeAppend))
	}

	if c.Checkpoint.File == "" {
		errs = append(errs, errors.New("checkpoint file is required"))
	}

	if c.Extract.ListingRows == "" || c.Extract.FactsItems == "" || c.Extract.FactLabel == "" {
		errs = append(errs, errors.New("extract selectors cannot be empty"))
	}

	if c.Publish.Enabled {
		if c.Publish.Owner == "" || c.Publish.Repo == "" {
			errs = append(errs, errors.New("publish owner and repo are required when publishing is enabled"))
		}
		if c.Publish.Path == "" {
			errs = append(errs, errors.New("publish path is required when publishing is enabled"))
		}
		if c.Publish.Retries < 0 || c.Publish.RetryDelay < 0 {
			errs = append(errs, errors.New("publish retries and retry delay cannot be negative"))
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if engine, ok := flags["engine"].(string); ok && engine != "" {
		c.Browser.Engine = strings.ToLower(engine)
	}
	if headless, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = headless
	}
	if output, ok := flags["output"].(string); ok && output != "" {
		c.Output.File = output
	}
	if mode, ok := flags["mode"].(string); ok && mode != "" {
		c.Output.Mode = strings.ToLower(mode)
	}
	if sqlitePath, ok := flags["sqlite"].(string); ok && sqlitePath != "" {
		c.Output.SQLitePath = sqlitePath
	}
	if checkpoint, ok := flags["checkpoint"].(string); ok && checkpoint != "" {
		c.Checkpoint.File = checkpoint
	}
	if interval, ok := flags["restart-interval"].(int); ok && interval >= 0 {
		c.Crawl.RestartInterval = interval
	}
	if maxPages, ok := flags["max-pages"].(int); ok && maxPages >= 0 {
		c.Crawl.MaxPages = maxPages
	}
	if publish, ok := flags["publish"].(bool); ok {
		c.Publish.Enabled = publish
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".hockeyscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
