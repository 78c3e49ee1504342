package main

import (
	"os"

	"github.com/spf13/cobra"

	"hockeyscraper/pkg/auth"
	"hockeyscraper/pkg/checkpoint"
	"hockeyscraper/pkg/storage"
	"hockeyscraper/pkg/ui"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the checkpoint and output file state",
	Long: `Show where the next crawl will resume, how many player rows the output
CSV holds and whether a publish token is available.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(nil)
	if err != nil {
		return err
	}

	store := checkpoint.NewStore(cfg.Checkpoint.File, log)
	st := ui.Status{
		CheckpointPath: store.Path(),
		CheckpointSet:  store.Exists(),
		NextPage:       store.Read(),
		OutputPath:     cfg.Output.File,
	}

	rows, err := storage.CountRows(cfg.Output.File)
	if err != nil {
		log.WithError(err).Warn("Could not count output rows")
	}
	st.OutputRows = rows
	if info, err := os.Stat(cfg.Output.File); err == nil {
		st.OutputModified = info.ModTime()
	}

	if cfg.Output.SQLitePath != "" {
		if _, err := os.Stat(cfg.Output.SQLitePath); err == nil {
			st.SQLitePath = cfg.Output.SQLitePath
			if db, err := storage.OpenSQLite(cmd.Context(), cfg.Output.SQLitePath); err == nil {
				st.SQLiteRows, _ = db.Count(cmd.Context())
				db.Close()
			}
		}
	}

	if source := resolveToken(cfg, log); source != "" {
		st.TokenSource = source + " (" + auth.MaskToken(cfg.Publish.Token) + ")"
	} else {
		st.TokenSource = "none"
	}

	ui.RenderStatus(os.Stdout, st)
	return nil
}
