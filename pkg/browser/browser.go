package browser

import (
	"context"
	"fmt"
	"time"

	"hockeyscraper/pkg/config"
	"hockeyscraper/pkg/logger"
)

// Engine starts browser sessions
type Engine interface {
	// Launch starts a fresh browser process
	Launch(ctx context.Context) (Session, error)
	// Name identifies the engine in logs
	Name() string
}

// Session is one running browser process
type Session interface {
	// NewPage opens a tab
	NewPage(ctx context.Context) (Page, error)
	// Close tears down every tab and the browser process
	Close() error
}

// Page is a single browser tab used synchronously
type Page interface {
	// Load navigates to url within navTimeout, then waits up to waitTimeout
	// for waitFor to match and returns the rendered document HTML
	Load(ctx context.Context, url, waitFor string, navTimeout, waitTimeout time.Duration) (string, error)
	Close() error
}

// New returns the engine named in cfg
func New(cfg config.BrowserConfig, log logger.Logger) (Engine, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	log = log.WithField("engine", cfg.Engine)

	switch cfg.Engine {
	case config.EngineRod, "":
		return NewRod(cfg, log), nil
	case config.EngineChromedp:
		return NewChromedp(cfg, log), nil
	default:
		return nil, fmt.Errorf("unknown browser engine: %s", cfg.Engine)
	}
}

// withTimeout derives a timeout context, treating a non-positive d as no limit
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
