// Package storage persists scraped player records.
//
// Every sink implements RecordSink and makes a record durable before Write
// returns, so an interruption loses at most the row in flight.
//
// Sinks:
//   - CSVWriter: the primary output table, flushed and synced per row
//   - SQLiteSink: an optional mirror into a players table
//   - MultiSink: fans records out to several sinks
//
// Output modes:
//   - fresh: truncate the file and write the header
//   - append: keep existing rows; the header is only written to an empty file
//
// Usage:
//
//	csvSink, err := storage.OpenCSV("players.csv", config.OutputModeAppend)
//	if err != nil {
//	    return err
//	}
//	sink := storage.NewMultiSink(csvSink)
//	defer sink.Close()
//	err = sink.Write(ctx, record)
package storage
