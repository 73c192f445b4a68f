package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so that callers can use
// errors.Is() while still showing a readable message.
var (
	// ErrNoDomains is returned when neither the command line nor the
	// configuration file yields a domain to crawl.
	ErrNoDomains = errors.New("no domains to crawl")

	// ErrInvalidDomain is returned for entries that are not bare host names,
	// such as values containing a path or whitespace.
	ErrInvalidDomain = errors.New("invalid domain: expected a host name such as example.com")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidMaxPages is returned when the page limit is negative.
	// Use 0 for no limit.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// A value of 0 uses the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrNoOutputFile is returned when the JSON output path is empty.
	ErrNoOutputFile = errors.New("no output file specified")
)
