// Package ui holds the terminal output of the CLI: colours, the crawl
// progress line, status tables and end-of-run notifications.
package ui
