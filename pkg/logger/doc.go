// Package logger provides the structured logging interface used across the crawler.
//
// It wraps zerolog with a small API:
// - Log levels (Debug, Info, Warn, Error, Fatal)
// - Structured fields via WithField / WithFields / WithError
// - Colored console output, plus JSON lines when a log file is configured
// - A global logger for command entry points
//
// Basic Usage:
//
//	err := logger.Initialize(&config.LoggingConfig{Level: "info"})
//	log := logger.GetLogger().WithField("component", "walker")
//	log.InfoWithFields("Listing page processed", map[string]interface{}{
//	    "page": 3,
//	    "rows": 100,
//	})
//
// Components receive a Logger explicitly; tests pass NewNopLogger or NewTestLogger.
package logger
