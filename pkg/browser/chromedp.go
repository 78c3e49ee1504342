package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"hockeyscraper/pkg/config"
	"hockeyscraper/pkg/logger"
)

// ChromedpEngine drives Chromium through chromedp
type ChromedpEngine struct {
	cfg    config.BrowserConfig
	logger logger.Logger
}

// NewChromedp creates a chromedp engine
func NewChromedp(cfg config.BrowserConfig, log logger.Logger) *ChromedpEngine {
	return &ChromedpEngine{cfg: cfg, logger: log}
}

func (e *ChromedpEngine) Name() string { return config.EngineChromedp }

func (e *ChromedpEngine) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", e.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if e.cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if e.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(e.cfg.UserAgent))
	}
	if e.cfg.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(e.cfg.UserDataDir))
	}
	if e.cfg.BinPath != "" {
		opts = append(opts, chromedp.ExecPath(e.cfg.BinPath))
	}
	return opts
}

// Launch starts a browser process. Cancelling ctx tears the session down.
func (e *ChromedpEngine) Launch(ctx context.Context) (Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), e.allocatorOptions()...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// An empty Run starts the browser
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	stop := context.AfterFunc(ctx, browserCancel)

	e.logger.DebugWithFields("Browser launched", map[string]interface{}{
		"headless": e.cfg.Headless,
	})

	cancel := func() {
		stop()
		browserCancel()
		allocCancel()
	}
	return &chromedpSession{ctx: browserCtx, cancel: cancel}, nil
}

type chromedpSession struct {
	ctx    context.Context
	cancel func()
}

func (s *chromedpSession) NewPage(ctx context.Context) (Page, error) {
	tabCtx, cancel := chromedp.NewContext(s.ctx)
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}
	return &chromedpPage{ctx: tabCtx, cancel: cancel}, nil
}

func (s *chromedpSession) Close() error {
	s.cancel()
	return nil
}

type chromedpPage struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// run executes actions on the tab, bounded by d and by the caller's ctx.
// Cancelling a derived context aborts the actions without closing the tab.
func (p *chromedpPage) run(ctx context.Context, d time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := withTimeout(p.ctx, d)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (p *chromedpPage) Load(ctx context.Context, url, waitFor string, navTimeout, waitTimeout time.Duration) (string, error) {
	if err := p.run(ctx, navTimeout, chromedp.Navigate(url)); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}

	if waitFor != "" {
		if err := p.run(ctx, waitTimeout, chromedp.WaitReady(waitFor, chromedp.ByQuery)); err != nil {
			return "", fmt.Errorf("wait for %q: %w", waitFor, err)
		}
	}

	var html string
	if err := p.run(ctx, waitTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return html, nil
}

func (p *chromedpPage) Close() error {
	p.cancel()
	return nil
}
