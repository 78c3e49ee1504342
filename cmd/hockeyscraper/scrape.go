package main

import (
	"github.com/spf13/cobra"

	"hockeyscraper/pkg/errors"
	"hockeyscraper/pkg/publish"
	"hockeyscraper/pkg/scraper"
	"hockeyscraper/pkg/ui"
)

var (
	// Scrape command flags
	engine          string
	headless        bool
	outputFile      string
	outputMode      string
	sqlitePath      string
	checkpointFile  string
	restartInterval int
	maxPages        int
	publishOutput   bool
	forceRestart    bool
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Crawl the player directory into the output CSV",
	Long: `Crawl the active player directory from the stored checkpoint.

Each listing page is loaded in a headless browser, every player profile on it
is opened and one row per player is appended to the output CSV. The checkpoint
file records the next page so an interrupted crawl resumes where it stopped.

When publishing is enabled the finished CSV is uploaded to the configured
GitHub repository. The token comes from HOCKEYSCRAPER_GITHUB_TOKEN,
GITHUB_TOKEN or 'hockeyscraper auth login'.`,
	Example: `  # Resume from the checkpoint with default settings
  hockeyscraper scrape

  # Start over with a fresh CSV
  hockeyscraper scrape --force-restart --mode fresh

  # Use chromedp, restart the browser every 10 pages and stop after 50
  hockeyscraper scrape --engine chromedp --restart-interval 10 --max-pages 50

  # Mirror rows into SQLite and publish when done
  hockeyscraper scrape --sqlite players.db --publish`,
	Args: cobra.NoArgs,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVar(&engine, "engine", "", "browser engine (rod or chromedp)")
	scrapeCmd.Flags().BoolVar(&headless, "headless", true, "run the browser without a window")
	scrapeCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output CSV file")
	scrapeCmd.Flags().StringVar(&outputMode, "mode", "", "output mode (fresh or append)")
	scrapeCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "also write every row to this SQLite database")
	scrapeCmd.Flags().StringVar(&checkpointFile, "checkpoint", "", "checkpoint file")
	scrapeCmd.Flags().IntVar(&restartInterval, "restart-interval", 0, "pages per browser session (0 disables restarts)")
	scrapeCmd.Flags().IntVar(&maxPages, "max-pages", 0, "stop after this many pages (0 means no limit)")
	scrapeCmd.Flags().BoolVar(&publishOutput, "publish", false, "upload the CSV after a finished crawl")
	scrapeCmd.Flags().BoolVar(&forceRestart, "force-restart", false, "ignore the checkpoint and start from the first page")
}

func scrapeFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	if engine != "" {
		flags["engine"] = engine
	}
	if cmd.Flags().Changed("headless") {
		flags["headless"] = headless
	}
	if outputFile != "" {
		flags["output"] = outputFile
	}
	if outputMode != "" {
		flags["mode"] = outputMode
	}
	if sqlitePath != "" {
		flags["sqlite"] = sqlitePath
	}
	if checkpointFile != "" {
		flags["checkpoint"] = checkpointFile
	}
	if cmd.Flags().Changed("restart-interval") {
		flags["restart-interval"] = restartInterval
	}
	if cmd.Flags().Changed("max-pages") {
		flags["max-pages"] = maxPages
	}
	if cmd.Flags().Changed("publish") {
		flags["publish"] = publishOutput
	}
	return flags
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(scrapeFlags(cmd))
	if err != nil {
		return err
	}
	log.WithField("version", version).Info("hockeyscraper starting")

	opts := []scraper.Option{scraper.WithLogger(log)}

	if !quiet {
		ui.PrintInfo("Output", cfg.Output.File+" ("+cfg.Output.Mode+")")
		ui.PrintInfo("Engine", cfg.Browser.Engine)
		opts = append(opts, scraper.WithProgress(ui.NewProgressDisplay(verbose)))
	}

	if cfg.Publish.Enabled {
		if source := resolveToken(cfg, log); source != "" {
			log.WithField("source", source).Info("Publish token found")
		} else {
			log.Warn("Publishing enabled but no token configured, upload will be skipped")
		}
		opts = append(opts, scraper.WithPublisher(publish.NewClient(cfg.Publish, log)))
	}

	s, err := scraper.New(cfg, opts...)
	if err != nil {
		return err
	}

	notifier := ui.NewNotifier()
	res, err := s.Run(cmd.Context(), scraper.RunOptions{ForceRestart: forceRestart})
	if err != nil {
		log.WithError(err).WithField("fatal", errors.IsFatal(err)).Error("Crawl failed")
		if notifications {
			notifier.NotifyError(err)
		}
		return err
	}

	if notifications {
		notifier.NotifyRun(res)
	}
	return nil
}
