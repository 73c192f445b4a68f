// Package model defines the core data structures used throughout shopcrawl.
//
// This package contains the following main types:
//   - Category: The classification of a discovered link (product, crawlable, irrelevant)
//   - URLSet: A hash-backed set of absolute URLs (visited pages, product pages)
//   - DomainResult: The outcome of crawling a single domain
//   - Run: A complete crawl run across all configured domains
//   - CrawlResult: The persisted domain -> product URLs mapping
//
// Models live in their own package so that crawler, orchestrator, report and
// database can share them without import cycles. Everything here is
// serializable to JSON for report output and database storage.
package model
