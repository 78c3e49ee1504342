package scraper

import (
	"context"
	"time"

	"hockeyscraper/pkg/browser"
	"hockeyscraper/pkg/errors"
	"hockeyscraper/pkg/extract"
	"hockeyscraper/pkg/logger"
	"hockeyscraper/pkg/models"
)

// DetailFetcher loads a player profile and merges it with the listing row
type DetailFetcher struct {
	extractor   extract.FieldExtractor
	waitFor     string
	navTimeout  time.Duration
	waitTimeout time.Duration
	logger      logger.Logger
}

// NewDetailFetcher creates a profile fetcher that waits for waitFor before extracting
func NewDetailFetcher(extractor extract.FieldExtractor, waitFor string, navTimeout, waitTimeout time.Duration, log logger.Logger) *DetailFetcher {
	return &DetailFetcher{
		extractor:   extractor,
		waitFor:     waitFor,
		navTimeout:  navTimeout,
		waitTimeout: waitTimeout,
		logger:      log,
	}
}

// Fetch always returns a usable record. When the profile cannot be loaded
// the record carries only the name, listed position and profile URL, and a
// detail_fetch error is returned alongside it.
func (d *DetailFetcher) Fetch(ctx context.Context, page browser.Page, row models.ListingRow) (models.PlayerRecord, error) {
	html, err := page.Load(ctx, row.ProfileURL, d.waitFor, d.navTimeout, d.waitTimeout)
	if err != nil {
		return models.Merge(row, models.PartialRecord{}),
			errors.New(errors.ErrorTypeDetailFetch, "load profile", row.ProfileURL, err)
	}

	doc, err := extract.Document(html)
	if err != nil {
		return models.Merge(row, models.PartialRecord{}),
			errors.New(errors.ErrorTypeDetailFetch, "parse profile", row.ProfileURL, err)
	}

	detail := d.extractor.ExtractFields(doc)
	if len(detail.Missing) > 0 {
		d.logger.DebugWithFields("Profile fields missing", map[string]interface{}{
			"name":    row.Name,
			"url":     row.ProfileURL,
			"missing": detail.Missing,
			"type":    string(errors.ErrorTypeFieldMissing),
		})
	}

	return models.Merge(row, detail), nil
}
