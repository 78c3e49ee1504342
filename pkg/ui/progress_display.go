package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"hockeyscraper/pkg/models"
	"hockeyscraper/pkg/scraper"
)

// ProgressDisplay renders crawl progress on a single terminal line.
// In debug mode every saved player is printed on its own line instead.
type ProgressDisplay struct {
	mu        sync.Mutex
	out       io.Writer
	page      int
	saved     int
	failed    int
	restarts  int
	lastName  string
	startTime time.Time
	isDebug   bool
}

// NewProgressDisplay creates a display writing to stdout
func NewProgressDisplay(debug bool) *ProgressDisplay {
	return NewProgressDisplayTo(os.Stdout, debug)
}

// NewProgressDisplayTo creates a display writing to out
func NewProgressDisplayTo(out io.Writer, debug bool) *ProgressDisplay {
	return &ProgressDisplay{
		out:       out,
		startTime: time.Now(),
		isDebug:   debug,
	}
}

var _ scraper.ProgressReporter = (*ProgressDisplay)(nil)

// PageStarted marks the start of a listing page
func (p *ProgressDisplay) PageStarted(page int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.page = page
	if p.isDebug {
		fmt.Fprintf(p.out, "%s Scanning page %d...\n", Magenta("→"), page)
		return
	}
	p.printProgress()
}

// RecordSaved counts a written player row
func (p *ProgressDisplay) RecordSaved(rec models.PlayerRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.saved++
	p.lastName = rec.Name
	if p.isDebug {
		fmt.Fprintf(p.out, "%s %s • %s\n", Green("✓"), rec.Name, Dim(joinNonEmpty(rec.Position, rec.Team)))
		return
	}
	p.printProgress()
}

// RowFailed counts a row that could not be written
func (p *ProgressDisplay) RowFailed(name string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.failed++
	if p.isDebug {
		fmt.Fprintf(p.out, "%s Failed: %s - %v\n", Red("✗"), name, err)
		return
	}
	p.printProgress()
}

// Restarting notes a browser restart before nextPage
func (p *ProgressDisplay) Restarting(nextPage int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.restarts++
	fmt.Fprintf(p.out, "\n%s Restarting browser, resuming at page %d\n", Yellow("⟳"), nextPage)
}

// Finished prints the run summary
func (p *ProgressDisplay) Finished(res scraper.RunResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := time.Since(p.startTime)

	mark := Green("✓")
	if !res.Completed() {
		mark = Yellow("■")
	}
	fmt.Fprintf(p.out, "\n\n%s Saved %d players from %d pages (%s)\n", mark, res.Saved, res.Pages, res.Reason)
	fmt.Fprintf(p.out, "  %s %s • %.1f players/min • next page %d\n",
		Dim("•"),
		formatDuration(elapsed),
		rate(res.Saved, elapsed),
		res.NextPage,
	)
	if res.Restarts > 0 {
		fmt.Fprintf(p.out, "  %s %d browser restarts\n", Dim("•"), res.Restarts)
	}
	if res.Failed > 0 {
		fmt.Fprintf(p.out, "  %s %s\n", Dim("•"), Red(fmt.Sprintf("%d rows failed", res.Failed)))
	}
}

// Saved returns the number of rows seen as saved
func (p *ProgressDisplay) Saved() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saved
}

func (p *ProgressDisplay) printProgress() {
	elapsed := time.Since(p.startTime)

	line := fmt.Sprintf("%s page %d • %d saved • %.1f/min • %s",
		Cyan("[CRAWLING]"),
		p.page,
		p.saved,
		rate(p.saved, elapsed),
		formatDuration(elapsed),
	)
	if p.lastName != "" {
		line += " • " + p.lastName
	}
	if p.failed > 0 {
		line += " • " + Red(fmt.Sprintf("%d errors", p.failed))
	}

	fmt.Fprintf(p.out, "\r%s\r%s", strings.Repeat(" ", 120), line)
}

func rate(n int, elapsed time.Duration) float64 {
	minutes := elapsed.Minutes()
	if minutes == 0 {
		return 0
	}
	return float64(n) / minutes
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " • ")
}
