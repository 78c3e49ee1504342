// Package browser hides the browser automation library behind a small
// Engine / Session / Page abstraction.
//
// Two engines drive a real Chromium:
//   - rod (default): go-rod with its launcher
//   - chromedp: chromedp with an exec allocator
//
// A Session is one browser process; the crawler replaces it periodically to
// keep memory bounded. Pages are used one call at a time and every Load is
// bounded by a navigation timeout and an element wait timeout.
//
// FakeEngine serves canned HTML for tests.
package browser
