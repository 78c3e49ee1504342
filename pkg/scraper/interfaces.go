package scraper

import (
	"context"

	"hockeyscraper/pkg/models"
)

// ProgressReporter receives crawl events for terminal display
type ProgressReporter interface {
	PageStarted(page int)
	RecordSaved(rec models.PlayerRecord)
	RowFailed(name string, err error)
	Restarting(nextPage int)
	Finished(res RunResult)
}

// Publisher uploads the finished output file
type Publisher interface {
	Publish(ctx context.Context, path string) error
}

type nopProgress struct{}

func (nopProgress) PageStarted(int)                 {}
func (nopProgress) RecordSaved(models.PlayerRecord) {}
func (nopProgress) RowFailed(string, error)         {}
func (nopProgress) Restarting(int)                  {}
func (nopProgress) Finished(RunResult)              {}
