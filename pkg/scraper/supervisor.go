package scraper

import (
	"context"

	"hockeyscraper/pkg/browser"
	"hockeyscraper/pkg/checkpoint"
	"hockeyscraper/pkg/errors"
	"hockeyscraper/pkg/logger"
)

// RunResult summarises a whole crawl across browser restarts
type RunResult struct {
	StartPage int
	NextPage  int
	Pages     int
	Saved     int
	Failed    int
	Restarts  int
	Reason    StopReason
}

// Completed reports whether the crawl ended on its own rather than being interrupted
func (r RunResult) Completed() bool {
	return r.Reason == StopExhausted || r.Reason == StopMaxPages
}

// Supervisor runs the walker in fresh browser sessions until the listing is done
type Supervisor struct {
	engine   browser.Engine
	walker   *Walker
	store    *checkpoint.Store
	maxPages int
	progress ProgressReporter
	logger   logger.Logger
}

// Run resumes from the stored checkpoint. A browser launch failure is the
// only error returned; everything else is logged by the walker.
func (s *Supervisor) Run(ctx context.Context) (RunResult, error) {
	page := s.store.Read()
	res := RunResult{StartPage: page, NextPage: page}

	s.logger.InfoWithFields("Starting crawl", map[string]interface{}{
		"start_page": page,
		"engine":     s.engine.Name(),
	})

	for {
		remaining := 0
		if s.maxPages > 0 {
			remaining = s.maxPages - res.Pages
		}

		walk, err := s.runSession(ctx, page, remaining)
		res.Pages += walk.Pages
		res.Saved += walk.Saved
		res.Failed += walk.Failed
		res.NextPage = walk.NextPage
		res.Reason = walk.Reason
		if err != nil {
			return res, err
		}

		if walk.Reason != StopRestart {
			return res, nil
		}

		if err := s.store.Write(walk.NextPage); err != nil {
			s.logger.WithError(err).Error("Failed to save checkpoint before restart")
		}
		res.Restarts++
		s.progress.Restarting(walk.NextPage)
		s.logger.InfoWithFields("Restarting browser to clear memory", map[string]interface{}{
			"next_page": walk.NextPage,
			"restarts":  res.Restarts,
		})
		page = walk.NextPage
	}
}

func (s *Supervisor) runSession(ctx context.Context, page, maxPages int) (WalkResult, error) {
	sess, err := s.engine.Launch(ctx)
	if err != nil {
		return WalkResult{NextPage: page, Reason: StopCancelled},
			errors.New(errors.ErrorTypeStartup, "launch browser", "", err)
	}
	logger.LogComponentStart(s.logger, "browser_session", map[string]interface{}{"start_page": page})

	walk, walkErr := s.walker.Walk(ctx, sess, page, maxPages)

	if err := sess.Close(); err != nil {
		s.logger.WithError(err).Warn("Failed to close browser session")
	}
	logger.LogComponentStop(s.logger, "browser_session", walk.Reason.String())

	return walk, walkErr
}
