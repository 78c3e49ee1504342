// Package ratelimit paces the crawl so the remote site sees a polite request rate.
//
// FixedDelay:
//   - Pauses for the same duration on every Wait
//   - Used for the short pause after each player row and each listing page
//
// All waits honour context cancellation, so an interrupted crawl stops
// without sitting out the remaining delay.
//
// Usage:
//
//	pacer := ratelimit.NewPacer(200*time.Millisecond, time.Second)
//	if err := pacer.AfterRow(ctx); err != nil {
//	    return err // ctx cancelled
//	}
package ratelimit
