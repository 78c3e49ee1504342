package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter paces crawl steps
type Limiter interface {
	// Wait blocks until the next step may run or ctx is done
	Wait(ctx context.Context) error
	// Reset clears the limiter state
	Reset()
}

// Sleep waits for d or until ctx is done, whichever comes first
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// FixedDelay pauses for the same duration on every Wait
type FixedDelay struct {
	delay time.Duration

	mu    sync.Mutex
	waits int
}

// NewFixedDelay creates a limiter that always pauses for delay
func NewFixedDelay(delay time.Duration) *FixedDelay {
	return &FixedDelay{delay: delay}
}

// Wait pauses for the configured delay
func (f *FixedDelay) Wait(ctx context.Context) error {
	f.mu.Lock()
	f.waits++
	f.mu.Unlock()
	return Sleep(ctx, f.delay)
}

// Reset zeroes the wait counter
func (f *FixedDelay) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.waits = 0
}

// Waits returns how many times Wait was called since the last Reset
func (f *FixedDelay) Waits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.waits
}

// Pacer holds the politeness delays applied between rows and pages
type Pacer struct {
	Row  Limiter
	Page Limiter
}

// NewPacer creates a pacer with fixed row and page delays
func NewPacer(rowDelay, pageDelay time.Duration) *Pacer {
	return &Pacer{
		Row:  NewFixedDelay(rowDelay),
		Page: NewFixedDelay(pageDelay),
	}
}

// AfterRow pauses after a player row has been handled
func (p *Pacer) AfterRow(ctx context.Context) error {
	return p.Row.Wait(ctx)
}

// AfterPage pauses after a listing page has been handled
func (p *Pacer) AfterPage(ctx context.Context) error {
	return p.Page.Wait(ctx)
}
