// Package database provides SQLite-based run history for shopcrawl.
//
// This package implements the CrawlDB, which stores:
//   - One row per crawl run with its timing and overall status
//   - Per-domain results (status, counters, error message)
//   - Every product URL discovered in a run
//
// The database lives in the XDG data directory by default and is written
// at the end of each run and after every finished domain, so an
// interrupted run still leaves its completed domains in the history.
// SQLite is provided by modernc.org/sqlite, which needs no CGO.
package database
