// Package scraper runs the player crawl.
//
// Pipeline:
//
//	Supervisor -> Walker -> DetailFetcher -> storage.RecordSink
//
// The Supervisor reads the checkpoint, launches a browser session and hands
// it to the Walker. The Walker loads listing pages one after another. For
// every row it fetches the player profile, merges both sources and writes the
// record. After each completed page the checkpoint moves to the next page.
//
// Every restart_interval pages the session is torn down and a fresh one is
// launched, which keeps browser memory bounded on long crawls. The crawl ends
// when a listing page is empty or fails to load, when max_pages is reached, or
// when the context is cancelled.
//
// Failures are contained: an unloadable profile still yields a row with the
// listing values, and a missing field only leaves that column empty. Only a
// failure to open the output or launch the browser aborts the run.
//
// Usage:
//
//	s, err := scraper.New(cfg, scraper.WithPublisher(pub))
//	if err != nil {
//	    return err
//	}
//	res, err := s.Run(ctx, scraper.RunOptions{})
package scraper
