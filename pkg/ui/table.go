package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Status is what `hockeyscraper status` reports
type Status struct {
	CheckpointPath string
	CheckpointSet  bool
	NextPage       int
	OutputPath     string
	OutputRows     int
	OutputModified time.Time
	SQLitePath     string
	SQLiteRows     int
	TokenSource    string
}

// RenderStatus writes the status as a rounded table
func RenderStatus(w io.Writer, st Status) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Item", "Value"})

	checkpoint := fmt.Sprintf("page %d", st.NextPage)
	if !st.CheckpointSet {
		checkpoint += " (no checkpoint, starting fresh)"
	}
	t.AppendRow(table.Row{"Checkpoint file", st.CheckpointPath})
	t.AppendRow(table.Row{"Next page", checkpoint})
	t.AppendSeparator()

	t.AppendRow(table.Row{"Output file", st.OutputPath})
	t.AppendRow(table.Row{"Player rows", st.OutputRows})
	if !st.OutputModified.IsZero() {
		t.AppendRow(table.Row{"Last written", st.OutputModified.Format(time.ANSIC)})
	}

	if st.SQLitePath != "" {
		t.AppendSeparator()
		t.AppendRow(table.Row{"SQLite mirror", st.SQLitePath})
		t.AppendRow(table.Row{"Mirrored rows", st.SQLiteRows})
	}

	if st.TokenSource != "" {
		t.AppendSeparator()
		t.AppendRow(table.Row{"Publish token", st.TokenSource})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}

// RenderSettings writes flattened key/value settings as a table
func RenderSettings(w io.Writer, title string, rows [][2]string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Setting", "Value"})
	for _, r := range rows {
		t.AppendRow(table.Row{r[0], r[1]})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
