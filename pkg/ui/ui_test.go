package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hockeyscraper/pkg/models"
	"hockeyscraper/pkg/scraper"
)

type recordingSender struct {
	titles   []string
	messages []string
}

func (r *recordingSender) Send(title, message string) error {
	r.titles = append(r.titles, title)
	r.messages = append(r.messages, message)
	return errors.New("no desktop")
}

func TestProgressDisplay(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressDisplayTo(&buf, false)

	p.PageStarted(3)
	p.RecordSaved(models.PlayerRecord{Name: "Connor McDavid"})
	p.RowFailed("Leon Draisaitl", errors.New("disk full"))
	p.Restarting(4)
	p.Finished(scraper.RunResult{Pages: 1, Saved: 1, Failed: 1, Restarts: 1, NextPage: 4, Reason: scraper.StopExhausted})

	out := buf.String()
	assert.Equal(t, 1, p.Saved())
	assert.Contains(t, out, "page 3")
	assert.Contains(t, out, "Connor McDavid")
	assert.Contains(t, out, "1 errors")
	assert.Contains(t, out, "resuming at page 4")
	assert.Contains(t, out, "Saved 1 players from 1 pages (exhausted)")
	assert.Contains(t, out, "1 browser restarts")
	assert.Contains(t, out, "1 rows failed")
}

func TestProgressDisplayDebug(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressDisplayTo(&buf, true)

	p.PageStarted(1)
	p.RecordSaved(models.PlayerRecord{Name: "Cale Makar", Position: "D", Team: "Colorado Avalanche"})

	assert.Contains(t, buf.String(), "Scanning page 1")
	assert.Contains(t, buf.String(), "Cale Makar • D • Colorado Avalanche")
}

func TestNotifier(t *testing.T) {
	var buf bytes.Buffer
	sender := &recordingSender{}
	n := NewNotifierWith(sender, &buf)

	n.NotifyRun(scraper.RunResult{Saved: 50, NextPage: 3, Reason: scraper.StopExhausted})
	n.NotifyRun(scraper.RunResult{Saved: 10, NextPage: 2, Reason: scraper.StopCancelled})
	n.NotifyError(errors.New("browser launch failed"))

	require.Len(t, sender.titles, 3)
	assert.Equal(t, "Crawl complete", sender.titles[0])
	assert.Equal(t, "50 players saved, next page 3", sender.messages[0])
	assert.Equal(t, "Crawl stopped (cancelled)", sender.titles[1])
	assert.Equal(t, "Crawl failed", sender.titles[2])
	assert.Contains(t, buf.String(), "browser launch failed")
}

func TestRenderStatus(t *testing.T) {
	var buf bytes.Buffer
	RenderStatus(&buf, Status{
		CheckpointPath: "last_page.txt",
		CheckpointSet:  true,
		NextPage:       42,
		OutputPath:     "players.csv",
		OutputRows:     1234,
		SQLitePath:     "players.db",
		SQLiteRows:     1200,
		TokenSource:    "stored (ghp_...cdef)",
	})

	out := buf.String()
	assert.Contains(t, out, "page 42")
	assert.NotContains(t, out, "starting fresh")
	assert.Contains(t, out, "1234")
	assert.Contains(t, out, "players.db")
	assert.Contains(t, out, "ghp_...cdef")
}

func TestRenderStatusFresh(t *testing.T) {
	var buf bytes.Buffer
	RenderStatus(&buf, Status{CheckpointPath: "last_page.txt", NextPage: 1, OutputPath: "players.csv"})

	assert.Contains(t, buf.String(), "starting fresh")
	assert.NotContains(t, buf.String(), "SQLite mirror")
}

func TestRenderSettings(t *testing.T) {
	var buf bytes.Buffer
	RenderSettings(&buf, "Configuration", [][2]string{{"browser.engine", "rod"}})

	assert.Contains(t, buf.String(), "browser.engine")
	assert.Contains(t, buf.String(), "rod")
}
