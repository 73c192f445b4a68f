// Package report renders crawl runs and persists their results.
//
// This package contains writers for different output formats:
//   - JSONWriter: the domain -> product URLs mapping, or the full run
//   - MarkdownWriter: a shareable run summary with per-domain tables
//   - TextWriter: a compact summary for the terminal
//
// FileSink writes the JSON result atomically so that an interrupted run
// never leaves a truncated output file behind.
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output.
package report
