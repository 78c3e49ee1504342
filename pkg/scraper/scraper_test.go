package scraper

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hockeyscraper/pkg/browser"
	"hockeyscraper/pkg/config"
	"hockeyscraper/pkg/errors"
	"hockeyscraper/pkg/logger"
	"hockeyscraper/pkg/models"
)

const testBaseURL = "https://ep.test"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Site.BaseURL = testBaseURL
	cfg.Output.File = filepath.Join(dir, "players.csv")
	cfg.Checkpoint.File = filepath.Join(dir, "checkpoint.txt")
	cfg.Crawl.RowDelay = 0
	cfg.Crawl.PageDelay = 0
	return cfg
}

type player struct {
	slug     string
	name     string
	position string
	born     string
}

func listingHTML(players ...player) string {
	var b strings.Builder
	b.WriteString(`<html><body><table class="table"><tbody>`)
	for _, p := range players {
		fmt.Fprintf(&b, `<tr><td><a href="/player/%s">%s</a></td><td>%s</td><td>Team</td><td>League</td><td>%s</td></tr>`,
			p.slug, p.name, p.position, p.born)
	}
	b.WriteString(`</tbody></table></body></html>`)
	return b.String()
}

func profileHTML(name, jersey, team, nation string) string {
	return fmt.Sprintf(`<html><body><h1>%s</h1>
<h2 class="Profile_subTitlePlayer__drUwD">#%s <a href="/team/1">%s</a></h2>
<ul class="PlayerFacts_factsList__Xw_ID">
  <li><span class="PlayerFacts_factLabel__EqzO5">Nation</span><div><a href="/nation/x">%s</a></div></li>
  <li><span class="PlayerFacts_factLabel__EqzO5">Age</span>25</li>
  <li><span class="PlayerFacts_factLabel__EqzO5">Height</span>180 cm</li>
</ul></body></html>`, name, jersey, team, nation)
}

func listingURL(t *testing.T, cfg *config.Config, page int) string {
	t.Helper()
	u, err := ListingURL(cfg.Site, page)
	require.NoError(t, err)
	return u
}

func profileURL(slug string) string {
	return testBaseURL + "/player/" + slug
}

// addPages registers one listing page per entry, each row with a full profile
func addPages(t *testing.T, engine *browser.FakeEngine, cfg *config.Config, pages ...[]player) {
	t.Helper()
	for i, players := range pages {
		engine.Pages[listingURL(t, cfg, i+1)] = listingHTML(players...)
		for _, p := range players {
			engine.Pages[profileURL(p.slug)] = profileHTML(p.name, "9", "Team "+p.slug, "Finland")
		}
	}
}

func readOutput(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

type fakePublisher struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (f *fakePublisher) Publish(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, path)
	return f.err
}

func (f *fakePublisher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.paths)
}

func newTestScraper(t *testing.T, cfg *config.Config, engine browser.Engine, opts ...Option) *Scraper {
	t.Helper()
	opts = append([]Option{WithEngine(engine), WithLogger(logger.NewNopLogger())}, opts...)
	s, err := New(cfg, opts...)
	require.NoError(t, err)
	return s
}

func TestListingURL(t *testing.T) {
	cfg := testConfig(t)
	assert.Equal(t, "https://ep.test/search/player?page=3&status=active", listingURL(t, cfg, 3))

	cfg.Site.BaseURL = "https://ep.test/"
	cfg.Site.PageParam = "p"
	cfg.Site.ListingQuery = nil
	assert.Equal(t, "https://ep.test/search/player?p=1", listingURL(t, cfg, 1))
}

func TestEndToEndTwoPages(t *testing.T) {
	cfg := testConfig(t)
	engine := browser.NewFakeEngine()
	addPages(t, engine, cfg,
		[]player{{"1/a", "Aleksander Barkov", "C", "1995"}, {"2/b", "Mikko Rantanen", "RW", "1996"}},
		[]player{},
	)

	s := newTestScraper(t, cfg, engine)
	res, err := s.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, StopExhausted, res.Reason)
	assert.True(t, res.Completed())
	assert.Equal(t, 1, res.Pages)
	assert.Equal(t, 2, res.Saved)
	assert.Zero(t, res.Failed)
	assert.Equal(t, 2, s.Checkpoint().Read())

	records := readOutput(t, cfg.Output.File)
	require.Len(t, records, 3)
	assert.Equal(t, models.CSVHeader, records[0])
	assert.Equal(t, []string{
		"Aleksander Barkov", "C", "Finland", "25", "", "9", "180 cm", "", "Team 1/a", profileURL("1/a"),
	}, records[1])
	assert.Equal(t, "Mikko Rantanen", records[2][0])

	assert.Equal(t, 1, engine.Launches())
	assert.Equal(t, 1, engine.Closes())
}

func TestResumesFromCheckpoint(t *testing.T) {
	cfg := testConfig(t)
	engine := browser.NewFakeEngine()
	engine.Pages[listingURL(t, cfg, 3)] = listingHTML(player{"3/c", "Third Page", "D", "2000"})
	engine.Pages[profileURL("3/c")] = profileHTML("Third Page", "4", "Team", "Latvia")

	s := newTestScraper(t, cfg, engine)
	require.NoError(t, s.Checkpoint().Write(3))

	res, err := s.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, 3, res.StartPage)
	assert.Equal(t, 4, res.NextPage)
	assert.Equal(t, 1, res.Saved)
	assert.Equal(t, listingURL(t, cfg, 3), engine.Visits()[0])
	// Page 4 is not served, which ends the walk like a load timeout
	assert.Equal(t, 4, s.Checkpoint().Read())
}

func TestForceRestartIgnoresCheckpoint(t *testing.T) {
	cfg := testConfig(t)
	engine := browser.NewFakeEngine()
	addPages(t, engine, cfg, []player{})

	s := newTestScraper(t, cfg, engine)
	require.NoError(t, s.Checkpoint().Write(40))

	res, err := s.Run(context.Background(), RunOptions{ForceRestart: true})
	require.NoError(t, err)
	assert.Equal(t, 1, res.StartPage)
	assert.Equal(t, listingURL(t, cfg, 1), engine.Visits()[0])
}

func TestProfileFailureStillWritesRow(t *testing.T) {
	cfg := testConfig(t)
	engine := browser.NewFakeEngine()
	engine.Pages[listingURL(t, cfg, 1)] = listingHTML(player{"7/x", "Unreachable Profile", "LW", "2003"})
	engine.Pages[listingURL(t, cfg, 2)] = listingHTML()

	tl := logger.NewTestLogger()
	s := newTestScraper(t, cfg, engine, WithLogger(tl))
	res, err := s.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Saved)

	records := readOutput(t, cfg.Output.File)
	require.Len(t, records, 2)
	row := records[1]
	assert.Equal(t, "Unreachable Profile", row[0])
	assert.Equal(t, "LW", row[1])
	assert.Equal(t, profileURL("7/x"), row[9])
	for _, i := range []int{2, 3, 4, 5, 6, 7, 8} {
		assert.Empty(t, row[i], "column %s", models.CSVHeader[i])
	}

	var fetchWarning *logger.LogMessage
	for _, msg := range tl.GetMessagesByLevel("WARN") {
		if msg.Message == "Failed to extract player profile" {
			fetchWarning = &msg
			break
		}
	}
	require.NotNil(t, fetchWarning)
	assert.True(t, errors.IsType(fetchWarning.Error, errors.ErrorTypeDetailFetch))
	assert.Equal(t, "Unreachable Profile", fetchWarning.Fields["name"])
}

func TestMalformedRowsAreSkipped(t *testing.T) {
	cfg := testConfig(t)
	engine := browser.NewFakeEngine()
	engine.Pages[listingURL(t, cfg, 1)] = `<table class="table"><tbody>
		<tr><td colspan="5">Forwards</td></tr>
		<tr><td>No link</td><td>C</td><td></td><td></td><td>1999</td></tr>
	</tbody></table>`
	engine.Pages[listingURL(t, cfg, 2)] = listingHTML(player{"5/e", "Good Row", "G", "1998"})
	engine.Pages[profileURL("5/e")] = profileHTML("Good Row", "30", "Team", "Sweden")
	engine.Pages[listingURL(t, cfg, 3)] = listingHTML()

	s := newTestScraper(t, cfg, engine)
	res, err := s.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	// A page of only unusable rows does not end the listing
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, 1, res.Saved)
	assert.Equal(t, 3, s.Checkpoint().Read())
}

func TestRestartInterval(t *testing.T) {
	cfg := testConfig(t)
	cfg.Crawl.RestartInterval = 2
	engine := browser.NewFakeEngine()
	addPages(t, engine, cfg,
		[]player{{"1", "P1", "C", "1990"}},
		[]player{{"2", "P2", "C", "1990"}},
		[]player{{"3", "P3", "C", "1990"}},
		[]player{{"4", "P4", "C", "1990"}},
		[]player{{"5", "P5", "C", "1990"}},
		[]player{},
	)

	progress := &recordingProgress{}
	s := newTestScraper(t, cfg, engine, WithProgress(progress))
	res, err := s.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, 5, res.Saved)
	assert.Equal(t, 5, res.Pages)
	assert.Equal(t, 2, res.Restarts)
	assert.Equal(t, 3, engine.Launches())
	assert.Equal(t, 3, engine.Closes())
	assert.Equal(t, []int{3, 5}, progress.restarts)
	assert.Equal(t, 6, s.Checkpoint().Read())
	assert.Len(t, readOutput(t, cfg.Output.File), 6)
	assert.True(t, progress.finished)
}

func TestRestartDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Crawl.RestartInterval = 0
	engine := browser.NewFakeEngine()
	addPages(t, engine, cfg,
		[]player{{"1", "P1", "C", "1990"}},
		[]player{{"2", "P2", "C", "1990"}},
		[]player{},
	)

	s := newTestScraper(t, cfg, engine)
	res, err := s.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.Zero(t, res.Restarts)
	assert.Equal(t, 1, engine.Launches())
}

func TestMaxPages(t *testing.T) {
	cfg := testConfig(t)
	cfg.Crawl.MaxPages = 2
	cfg.Crawl.RestartInterval = 1
	engine := browser.NewFakeEngine()
	addPages(t, engine, cfg,
		[]player{{"1", "P1", "C", "1990"}},
		[]player{{"2", "P2", "C", "1990"}},
		[]player{{"3", "P3", "C", "1990"}},
	)

	s := newTestScraper(t, cfg, engine)
	res, err := s.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, StopMaxPages, res.Reason)
	assert.True(t, res.Completed())
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, 2, engine.Launches())
	assert.Equal(t, 3, s.Checkpoint().Read())
}

func TestLaunchFailureIsFatal(t *testing.T) {
	cfg := testConfig(t)
	engine := browser.NewFakeEngine()
	engine.LaunchErr = fmt.Errorf("chromium not found")

	s := newTestScraper(t, cfg, engine)
	_, err := s.Run(context.Background(), RunOptions{})
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
	assert.False(t, s.Checkpoint().Exists())
}

func TestOutputOpenFailureIsFatal(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.File = t.TempDir() // a directory cannot be opened for writing

	s := newTestScraper(t, cfg, browser.NewFakeEngine())
	_, err := s.Run(context.Background(), RunOptions{})
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

func TestCancelledRunKeepsCheckpoint(t *testing.T) {
	cfg := testConfig(t)
	cfg.Publish.Enabled = true
	engine := browser.NewFakeEngine()
	addPages(t, engine, cfg, []player{{"1", "P1", "C", "1990"}}, []player{})

	pub := &fakePublisher{}
	s := newTestScraper(t, cfg, engine, WithPublisher(pub))
	require.NoError(t, s.Checkpoint().Write(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := s.Run(ctx, RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, StopCancelled, res.Reason)
	assert.False(t, res.Completed())
	assert.Zero(t, res.Saved)
	assert.Equal(t, 1, s.Checkpoint().Read())
	assert.Zero(t, pub.calls(), "unfinished crawls are not published by default")
}

func TestPublishAfterCompletion(t *testing.T) {
	cfg := testConfig(t)
	cfg.Publish.Enabled = true
	engine := browser.NewFakeEngine()
	addPages(t, engine, cfg, []player{})

	pub := &fakePublisher{err: fmt.Errorf("422 unprocessable")}
	s := newTestScraper(t, cfg, engine, WithPublisher(pub))
	_, err := s.Run(context.Background(), RunOptions{})

	// Upload errors do not fail the run
	require.NoError(t, err)
	require.Equal(t, 1, pub.calls())
	assert.Equal(t, cfg.Output.File, pub.paths[0])
}

func TestPublishAlwaysOnInterruptedRun(t *testing.T) {
	cfg := testConfig(t)
	cfg.Publish.Enabled = true
	cfg.Publish.Always = true

	pub := &fakePublisher{}
	s := newTestScraper(t, cfg, browser.NewFakeEngine(), WithPublisher(pub))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Run(ctx, RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, pub.calls())
}

func TestPublishDisabled(t *testing.T) {
	cfg := testConfig(t)
	engine := browser.NewFakeEngine()
	addPages(t, engine, cfg, []player{})

	pub := &fakePublisher{}
	s := newTestScraper(t, cfg, engine, WithPublisher(pub))
	_, err := s.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.Zero(t, pub.calls())
}

func TestSQLiteMirror(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.SQLitePath = filepath.Join(t.TempDir(), "players.db")
	engine := browser.NewFakeEngine()
	addPages(t, engine, cfg, []player{{"1", "P1", "C", "1990"}, {"2", "P2", "D", "1991"}}, []player{})

	s := newTestScraper(t, cfg, engine)
	res, err := s.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Saved)

	info, err := os.Stat(cfg.Output.SQLitePath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

type recordingProgress struct {
	pages    []int
	saved    []string
	restarts []int
	finished bool
}

func (r *recordingProgress) PageStarted(page int)                { r.pages = append(r.pages, page) }
func (r *recordingProgress) RecordSaved(rec models.PlayerRecord) { r.saved = append(r.saved, rec.Name) }
func (r *recordingProgress) RowFailed(name string, err error)    {}
func (r *recordingProgress) Restarting(next int)                 { r.restarts = append(r.restarts, next) }
func (r *recordingProgress) Finished(res RunResult)              { r.finished = true }
