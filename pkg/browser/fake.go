package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// FakeEngine serves canned HTML by URL. It is meant for tests of code that
// drives an Engine without starting a real browser.
type FakeEngine struct {
	// Pages maps a URL to the HTML returned for it
	Pages map[string]string
	// LaunchErr, when set, is returned by Launch
	LaunchErr error

	mu       sync.Mutex
	launches int
	closes   int
	visits   []string
}

// NewFakeEngine creates a fake engine with no pages
func NewFakeEngine() *FakeEngine {
	return &FakeEngine{Pages: make(map[string]string)}
}

func (f *FakeEngine) Name() string { return "fake" }

// Launch records a new session
func (f *FakeEngine) Launch(ctx context.Context) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.LaunchErr != nil {
		return nil, f.LaunchErr
	}
	f.launches++
	return &fakeSession{engine: f}, nil
}

// Launches returns how many sessions were started
func (f *FakeEngine) Launches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.launches
}

// Closes returns how many sessions were closed
func (f *FakeEngine) Closes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

// Visits returns every URL loaded, in order
func (f *FakeEngine) Visits() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.visits))
	copy(out, f.visits)
	return out
}

type fakeSession struct {
	engine *FakeEngine
	closed bool
}

func (s *fakeSession) NewPage(ctx context.Context) (Page, error) {
	if s.closed {
		return nil, fmt.Errorf("session closed")
	}
	return &fakePage{engine: s.engine}, nil
}

func (s *fakeSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.engine.mu.Lock()
	s.engine.closes++
	s.engine.mu.Unlock()
	return nil
}

type fakePage struct {
	engine *FakeEngine
}

// Load fails like a navigation timeout for unknown URLs, and like an
// element wait timeout when waitFor does not match the canned HTML
func (p *fakePage) Load(ctx context.Context, url, waitFor string, navTimeout, waitTimeout time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p.engine.mu.Lock()
	p.engine.visits = append(p.engine.visits, url)
	html, ok := p.engine.Pages[url]
	p.engine.mu.Unlock()

	if !ok {
		return "", fmt.Errorf("navigate: %w", context.DeadlineExceeded)
	}

	if waitFor != "" {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return "", err
		}
		if doc.Find(waitFor).Length() == 0 {
			return "", fmt.Errorf("wait for %q: %w", waitFor, context.DeadlineExceeded)
		}
	}
	return html, nil
}

func (p *fakePage) Close() error { return nil }
