package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hockeyscraper/pkg/publish"
	"hockeyscraper/pkg/ui"
)

var publishFile string

// publishCmd represents the publish command
var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Upload the output CSV to the configured GitHub repository",
	Long: `Upload the output CSV without crawling.

The file is written to publish.path on publish.branch of publish.owner/publish.repo
through the GitHub contents API, replacing the previous revision if one exists.`,
	Example: `  # Upload the configured output file
  hockeyscraper publish

  # Upload a specific file
  hockeyscraper publish --file players.csv`,
	Args: cobra.NoArgs,
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)
	publishCmd.Flags().StringVarP(&publishFile, "file", "f", "", "file to upload (default is the configured output file)")
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(nil)
	if err != nil {
		return err
	}

	if resolveToken(cfg, log) == "" {
		return fmt.Errorf("no publish token: set HOCKEYSCRAPER_GITHUB_TOKEN or run 'hockeyscraper auth login'")
	}

	path := publishFile
	if path == "" {
		path = cfg.Output.File
	}

	client := publish.NewClient(cfg.Publish, log)
	if err := client.Publish(cmd.Context(), path); err != nil {
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("Uploaded %s to %s/%s:%s", path, cfg.Publish.Owner, cfg.Publish.Repo, cfg.Publish.Path))
	return nil
}
