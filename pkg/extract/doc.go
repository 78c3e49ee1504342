// Package extract holds the markup knowledge of the crawled site.
//
// A Strategy parses listing pages into rows and profile pages into a partial
// record. The selectors come from configuration, so markup drift is usually a
// config change; a different site is a new Strategy.
//
// Extraction is best effort: each profile field is read on its own and a
// missing element only leaves that field empty.
package extract
