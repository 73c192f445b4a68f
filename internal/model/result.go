package model

import (
	"sort"
	"time"
)

// DomainResult is the outcome of crawling a single domain.
type DomainResult struct {
	// Domain is the bare domain name as configured, e.g. "example.com".
	Domain string `json:"domain"`

	// BaseURL is the root URL the crawl started from.
	BaseURL string `json:"base_url"`

	// Products holds the discovered product URLs in lexical order.
	Products []string `json:"products"`

	// Status is the terminal state of the crawl.
	Status DomainStatus `json:"status"`

	// PagesFetched counts successful page fetches.
	PagesFetched int `json:"pages_fetched"`

	// FetchFailures counts fetches that returned an error.
	FetchFailures int `json:"fetch_failures"`

	// Error holds the failure message when Status is StatusFailed.
	Error string `json:"error,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration returns how long the domain crawl took.
func (r *DomainResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// CrawlResult maps each crawled domain to its product URLs.
// It is the persisted shape of a run.
type CrawlResult map[string][]string

// Domains returns the result keys in lexical order.
func (c CrawlResult) Domains() []string {
	out := make([]string, 0, len(c))
	for d := range c {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// TotalProducts returns the number of product URLs across all domains.
func (c CrawlResult) TotalProducts() int {
	n := 0
	for _, urls := range c {
		n += len(urls)
	}
	return n
}

// Run is a complete crawl run across the configured domains.
type Run struct {
	// ID uniquely identifies the run in the history database.
	ID string `json:"id"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Cancelled is true when the run was interrupted before every
	// configured domain finished.
	Cancelled bool `json:"cancelled"`

	// Domains holds one entry per domain that was started, in the
	// order the domains were configured.
	Domains []*DomainResult `json:"domains"`
}

// Result derives the persisted domain -> product URLs mapping.
// Domains that were never started have no entry.
func (r *Run) Result() CrawlResult {
	out := make(CrawlResult, len(r.Domains))
	for _, d := range r.Domains {
		products := d.Products
		if products == nil {
			products = []string{}
		}
		out[d.Domain] = products
	}
	return out
}

// TotalProducts returns the number of product URLs found in the run.
func (r *Run) TotalProducts() int {
	n := 0
	for _, d := range r.Domains {
		n += len(d.Products)
	}
	return n
}

// TotalPages returns the number of pages fetched in the run.
func (r *Run) TotalPages() int {
	n := 0
	for _, d := range r.Domains {
		n += d.PagesFetched
	}
	return n
}

// Status summarizes the run as a single label.
func (r *Run) Status() string {
	if r.Cancelled {
		return string(StatusCancelled)
	}
	for _, d := range r.Domains {
		if d.Status == StatusFailed {
			return "completed_with_errors"
		}
	}
	return "completed"
}
