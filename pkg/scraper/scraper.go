package scraper

import (
	"context"
	"fmt"

	"hockeyscraper/pkg/browser"
	"hockeyscraper/pkg/checkpoint"
	"hockeyscraper/pkg/config"
	"hockeyscraper/pkg/errors"
	"hockeyscraper/pkg/extract"
	"hockeyscraper/pkg/logger"
	"hockeyscraper/pkg/ratelimit"
	"hockeyscraper/pkg/storage"
)

// Scraper wires the crawl pipeline together from configuration
type Scraper struct {
	config    *config.Config
	engine    browser.Engine
	strategy  extract.Strategy
	store     *checkpoint.Store
	pacer     *ratelimit.Pacer
	sink      storage.RecordSink
	progress  ProgressReporter
	publisher Publisher
	logger    logger.Logger
}

// Option customises a Scraper
type Option func(*Scraper)

// WithEngine replaces the browser engine chosen by configuration
func WithEngine(e browser.Engine) Option {
	return func(s *Scraper) { s.engine = e }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(s *Scraper) { s.logger = l }
}

// WithProgress sets the progress reporter
func WithProgress(p ProgressReporter) Option {
	return func(s *Scraper) { s.progress = p }
}

// WithPublisher sets the uploader used after a run
func WithPublisher(p Publisher) Option {
	return func(s *Scraper) { s.publisher = p }
}

// WithSink replaces the configured output sinks. Run closes it when done.
func WithSink(sink storage.RecordSink) Option {
	return func(s *Scraper) { s.sink = sink }
}

// WithPacer replaces the configured politeness delays
func WithPacer(p *ratelimit.Pacer) Option {
	return func(s *Scraper) { s.pacer = p }
}

// WithStrategy replaces the markup extraction strategy
func WithStrategy(st extract.Strategy) Option {
	return func(s *Scraper) { s.strategy = st }
}

// New creates a Scraper from cfg
func New(cfg *config.Config, opts ...Option) (*Scraper, error) {
	s := &Scraper{
		config:   cfg,
		progress: nopProgress{},
		logger:   logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithField("component", "scraper")

	if s.strategy == nil {
		strategy, err := extract.NewEliteProspects(cfg.Site.BaseURL, cfg.Extract)
		if err != nil {
			return nil, err
		}
		s.strategy = strategy
	}
	if s.engine == nil {
		engine, err := browser.New(cfg.Browser, s.logger)
		if err != nil {
			return nil, err
		}
		s.engine = engine
	}
	if s.pacer == nil {
		s.pacer = ratelimit.NewPacer(cfg.Crawl.RowDelay, cfg.Crawl.PageDelay)
	}
	s.store = checkpoint.NewStore(cfg.Checkpoint.File, s.logger)

	return s, nil
}

// Checkpoint returns the checkpoint store used by the scraper
func (s *Scraper) Checkpoint() *checkpoint.Store {
	return s.store
}

// RunOptions controls a single crawl
type RunOptions struct {
	// ForceRestart discards the stored checkpoint and starts from the first page
	ForceRestart bool
}

// Run crawls from the checkpoint until the listing is exhausted, the page
// cap is reached or ctx is cancelled, then publishes the output if configured
func (s *Scraper) Run(ctx context.Context, opts RunOptions) (RunResult, error) {
	if opts.ForceRestart {
		if err := s.store.Delete(); err != nil {
			return RunResult{}, errors.New(errors.ErrorTypeStartup, "reset checkpoint", s.store.Path(), err)
		}
	}

	sink, err := s.openSink(ctx)
	if err != nil {
		return RunResult{}, err
	}

	res, runErr := s.supervisor(sink).Run(ctx)

	if err := sink.Close(); err != nil {
		s.logger.WithError(err).Error("Failed to close output")
	}
	s.progress.Finished(res)
	s.logger.InfoWithFields("Crawl finished", map[string]interface{}{
		"reason":    res.Reason.String(),
		"pages":     res.Pages,
		"saved":     res.Saved,
		"failed":    res.Failed,
		"restarts":  res.Restarts,
		"next_page": res.NextPage,
	})
	if runErr != nil {
		return res, runErr
	}

	s.publish(ctx, res)
	return res, nil
}

func (s *Scraper) supervisor(sink storage.RecordSink) *Supervisor {
	cfg := s.config
	detail := NewDetailFetcher(s.strategy, cfg.Extract.ProfileHeading,
		cfg.Timeouts.DetailNavigation, cfg.Timeouts.DetailWait, s.logger.WithField("component", "detail"))

	walker := &Walker{
		site:            cfg.Site,
		listingTable:    cfg.Extract.ListingTable,
		navTimeout:      cfg.Timeouts.ListingNavigation,
		waitTimeout:     cfg.Timeouts.ListingWait,
		restartInterval: cfg.Crawl.RestartInterval,
		parser:          s.strategy,
		detail:          detail,
		sink:            sink,
		store:           s.store,
		pacer:           s.pacer,
		progress:        s.progress,
		logger:          s.logger.WithField("component", "walker"),
	}

	return &Supervisor{
		engine:   s.engine,
		walker:   walker,
		store:    s.store,
		maxPages: cfg.Crawl.MaxPages,
		progress: s.progress,
		logger:   s.logger.WithField("component", "supervisor"),
	}
}

// openSink opens the CSV output and the optional SQLite mirror
func (s *Scraper) openSink(ctx context.Context) (storage.RecordSink, error) {
	if s.sink != nil {
		return s.sink, nil
	}

	csvSink, err := storage.OpenCSV(s.config.Output.File, s.config.Output.Mode)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeStartup, "open output", s.config.Output.File, err)
	}
	sinks := []storage.RecordSink{csvSink}

	if s.config.Output.SQLitePath != "" {
		sqliteSink, err := storage.OpenSQLite(ctx, s.config.Output.SQLitePath)
		if err != nil {
			csvSink.Close()
			return nil, errors.New(errors.ErrorTypeStartup, "open sqlite mirror", s.config.Output.SQLitePath, err)
		}
		sinks = append(sinks, sqliteSink)
	}

	s.logger.InfoWithFields("Output opened", map[string]interface{}{
		"file":   s.config.Output.File,
		"mode":   s.config.Output.Mode,
		"sqlite": s.config.Output.SQLitePath,
	})
	return storage.NewMultiSink(sinks...), nil
}

// publish uploads the output after a natural finish, or always when configured.
// Failures never change the run outcome.
func (s *Scraper) publish(ctx context.Context, res RunResult) {
	if s.publisher == nil || !s.config.Publish.Enabled {
		return
	}
	if !res.Completed() && !s.config.Publish.Always {
		s.logger.InfoWithFields("Skipping upload for unfinished crawl", map[string]interface{}{
			"reason": res.Reason.String(),
		})
		return
	}

	// An interrupted run still gets its upload when publish.always is set
	if err := s.publisher.Publish(context.WithoutCancel(ctx), s.config.Output.File); err != nil {
		s.logger.WithError(fmt.Errorf("publish output: %w", err)).Warn("Upload failed")
	}
}
