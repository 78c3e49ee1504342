// Package checkpoint stores the crawl cursor between runs.
//
// The cursor is the next listing page to fetch, kept as a single base-10
// integer in a plain text file. It is rewritten after every completed page and
// before each periodic browser restart, so an interrupted crawl resumes at the
// first page it had not finished.
//
// Writes go through a temporary file that is synced and renamed over the
// original, so a crash never leaves a half-written cursor behind.
package checkpoint
