package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"hockeyscraper/pkg/config"
	"hockeyscraper/pkg/logger"
)

// RodEngine drives Chromium through go-rod
type RodEngine struct {
	cfg    config.BrowserConfig
	logger logger.Logger
}

// NewRod creates a go-rod engine
func NewRod(cfg config.BrowserConfig, log logger.Logger) *RodEngine {
	return &RodEngine{cfg: cfg, logger: log}
}

func (e *RodEngine) Name() string { return config.EngineRod }

// Launch starts a browser process and connects to it
func (e *RodEngine) Launch(ctx context.Context) (Session, error) {
	l := launcher.New().
		Context(ctx).
		Headless(e.cfg.Headless)
	if e.cfg.BinPath != "" {
		l = l.Bin(e.cfg.BinPath)
	}
	if e.cfg.UserDataDir != "" {
		l = l.UserDataDir(e.cfg.UserDataDir)
	}
	if e.cfg.NoSandbox {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(u).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	e.logger.DebugWithFields("Browser launched", map[string]interface{}{
		"control_url": u,
		"headless":    e.cfg.Headless,
	})

	return &rodSession{
		browser:     b,
		launcher:    l,
		userAgent:   e.cfg.UserAgent,
		keepDataDir: e.cfg.UserDataDir != "",
	}, nil
}

type rodSession struct {
	browser     *rod.Browser
	launcher    *launcher.Launcher
	userAgent   string
	keepDataDir bool
}

func (s *rodSession) NewPage(ctx context.Context) (Page, error) {
	p, err := s.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}
	if s.userAgent != "" {
		if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: s.userAgent}); err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to set user agent: %w", err)
		}
	}
	return &rodPage{page: p}, nil
}

func (s *rodSession) Close() error {
	err := s.browser.Close()
	if s.keepDataDir {
		s.launcher.Kill()
	} else {
		// Waits for the process to exit and removes the temporary profile
		s.launcher.Cleanup()
	}
	if err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}

type rodPage struct {
	page *rod.Page
}

func (p *rodPage) Load(ctx context.Context, url, waitFor string, navTimeout, waitTimeout time.Duration) (string, error) {
	navCtx, cancel := withTimeout(ctx, navTimeout)
	defer cancel()

	nav := p.page.Context(navCtx)
	if err := nav.Navigate(url); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}
	if err := nav.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load: %w", err)
	}

	if waitFor != "" {
		waitCtx, cancelWait := withTimeout(ctx, waitTimeout)
		defer cancelWait()
		if _, err := p.page.Context(waitCtx).Element(waitFor); err != nil {
			return "", fmt.Errorf("wait for %q: %w", waitFor, err)
		}
	}

	html, err := p.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return html, nil
}

func (p *rodPage) Close() error {
	return p.page.Close()
}
