package crawler

import "errors"

var (
	// ErrUnexpectedStatus is returned by HTTPFetcher when the server answers
	// with a status code outside the 2xx range.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrInvalidBaseURL is returned by Spider.Crawl when the root URL of a
	// domain cannot be parsed as an absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("invalid base URL")

	// ErrInvalidProxyAddress is returned when the SOCKS5 proxy address is not
	// in "host:port" format.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
)
