package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"hockeyscraper/pkg/browser"
	"hockeyscraper/pkg/checkpoint"
	"hockeyscraper/pkg/config"
	"hockeyscraper/pkg/errors"
	"hockeyscraper/pkg/extract"
	"hockeyscraper/pkg/logger"
	"hockeyscraper/pkg/ratelimit"
	"hockeyscraper/pkg/storage"
)

// StopReason says why a walk ended
type StopReason int

const (
	// StopExhausted means an empty or unloadable listing page was reached
	StopExhausted StopReason = iota
	// StopRestart means the session page budget was used up
	StopRestart
	// StopMaxPages means the run page cap was reached
	StopMaxPages
	// StopCancelled means the context was cancelled
	StopCancelled
)

func (r StopReason) String() string {
	switch r {
	case StopExhausted:
		return "exhausted"
	case StopRestart:
		return "restart"
	case StopMaxPages:
		return "max_pages"
	case StopCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// WalkResult summarises one session's walk
type WalkResult struct {
	// NextPage is the first listing page not yet completed
	NextPage int
	Pages    int
	Saved    int
	Failed   int
	Reason   StopReason
}

// Walker pages through the listing and writes one record per player
type Walker struct {
	site            config.SiteConfig
	listingTable    string
	navTimeout      time.Duration
	waitTimeout     time.Duration
	restartInterval int

	parser   extract.ListingParser
	detail   *DetailFetcher
	sink     storage.RecordSink
	store    *checkpoint.Store
	pacer    *ratelimit.Pacer
	progress ProgressReporter
	logger   logger.Logger
}

// ListingURL builds the search-results URL for a page
func ListingURL(site config.SiteConfig, page int) (string, error) {
	u, err := url.Parse(strings.TrimRight(site.BaseURL, "/") + site.ListingPath)
	if err != nil {
		return "", fmt.Errorf("invalid listing URL: %w", err)
	}

	q := u.Query()
	for k, v := range site.ListingQuery {
		q.Set(k, v)
	}
	param := site.PageParam
	if param == "" {
		param = "page"
	}
	q.Set(param, strconv.Itoa(page))
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// Walk processes listing pages from start using one browser session.
// maxPages limits this walk (0 means unlimited).
func (w *Walker) Walk(ctx context.Context, sess browser.Session, start, maxPages int) (WalkResult, error) {
	res := WalkResult{NextPage: start}

	listingTab, err := sess.NewPage(ctx)
	if err != nil {
		return res, errors.New(errors.ErrorTypeStartup, "open listing tab", "", err)
	}
	defer listingTab.Close()

	profileTab, err := sess.NewPage(ctx)
	if err != nil {
		return res, errors.New(errors.ErrorTypeStartup, "open profile tab", "", err)
	}
	defer profileTab.Close()

	for page := start; ; page++ {
		if ctx.Err() != nil {
			res.Reason = StopCancelled
			return res, nil
		}

		w.progress.PageStarted(page)
		saved, failed, done, err := w.processPage(ctx, listingTab, profileTab, page)
		res.Saved += saved
		res.Failed += failed
		if err != nil {
			return res, err
		}
		if done {
			res.Reason = StopExhausted
			return res, nil
		}
		if ctx.Err() != nil {
			// The page was interrupted mid-way and will be redone
			res.Reason = StopCancelled
			return res, nil
		}

		res.Pages++
		res.NextPage = page + 1
		if err := w.store.Write(res.NextPage); err != nil {
			w.logger.WithError(err).Error("Failed to save checkpoint")
		}
		logger.LogPageProgress(w.logger, page, saved+failed, saved, failed)

		if err := w.pacer.AfterPage(ctx); err != nil {
			res.Reason = StopCancelled
			return res, nil
		}

		if maxPages > 0 && res.Pages >= maxPages {
			res.Reason = StopMaxPages
			return res, nil
		}
		if w.restartInterval > 0 && res.Pages%w.restartInterval == 0 {
			res.Reason = StopRestart
			return res, nil
		}
	}
}

// processPage handles one listing page. done reports that the listing is exhausted.
func (w *Walker) processPage(ctx context.Context, listingTab, profileTab browser.Page, page int) (saved, failed int, done bool, err error) {
	pageURL, err := ListingURL(w.site, page)
	if err != nil {
		return 0, 0, false, errors.New(errors.ErrorTypeStartup, "build listing URL", "", err)
	}

	log := w.logger.WithField("page", page)
	log.DebugWithFields("Loading listing page", map[string]interface{}{"url": pageURL})

	html, err := listingTab.Load(ctx, pageURL, w.listingTable, w.navTimeout, w.waitTimeout)
	if err != nil {
		if ctx.Err() != nil {
			return 0, 0, false, nil
		}
		log.WithError(errors.New(errors.ErrorTypePageLoad, "load listing", pageURL, err)).
			Info("No more results or listing failed to load, ending walk")
		return 0, 0, true, nil
	}

	doc, err := extract.Document(html)
	if err != nil {
		log.WithError(errors.New(errors.ErrorTypePageLoad, "parse listing", pageURL, err)).
			Warn("Listing page could not be parsed, ending walk")
		return 0, 0, true, nil
	}

	rows, rowErrs := w.parser.ParseListing(doc)
	for _, rowErr := range rowErrs {
		log.WithError(rowErr).Warn("Skipping listing row")
	}
	if len(rows) == 0 && len(rowErrs) == 0 {
		log.Info("No players on this page, ending walk")
		return 0, 0, true, nil
	}

	for _, row := range rows {
		if ctx.Err() != nil {
			return saved, failed, false, nil
		}

		rec, fetchErr := w.detail.Fetch(ctx, profileTab, row)
		if fetchErr != nil {
			if ctx.Err() != nil {
				return saved, failed, false, nil
			}
			log.WithError(fetchErr).WithField("name", row.Name).Warn("Failed to extract player profile")
		}

		if writeErr := w.sink.Write(ctx, rec); writeErr != nil {
			failed++
			w.progress.RowFailed(row.Name, writeErr)
			log.WithError(writeErr).WithField("name", row.Name).Error("Failed to save player record")
		} else {
			saved++
			w.progress.RecordSaved(rec)
			logger.LogRecordSaved(log, page, rec.Name, rec.ProfileURL)
		}

		if err := w.pacer.AfterRow(ctx); err != nil {
			return saved, failed, false, nil
		}
	}

	return saved, failed, false, nil
}
