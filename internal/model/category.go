package model

// Category is the classification assigned to a discovered link.
type Category int

const (
	// CategoryIrrelevant covers off-site links, already visited pages and
	// anything that cannot be parsed as an http(s) URL. Such links are dropped.
	CategoryIrrelevant Category = iota

	// CategoryCrawlable marks a same-site page that has not been visited yet.
	// Crawlable links become candidates for the frontier.
	CategoryCrawlable

	// CategoryProduct marks a product page. Product links are terminal results
	// and are never fetched.
	CategoryProduct
)

// String returns a human-readable representation of the category.
func (c Category) String() string {
	switch c {
	case CategoryIrrelevant:
		return "irrelevant"
	case CategoryCrawlable:
		return "crawlable"
	case CategoryProduct:
		return "product"
	default:
		return "unknown"
	}
}

// DomainStatus is the terminal state of a single domain crawl.
type DomainStatus string

const (
	// StatusExhausted means the frontier ran empty.
	StatusExhausted DomainStatus = "exhausted"

	// StatusCancelled means the cancellation token was observed before the
	// frontier ran empty. Products found so far are still valid.
	StatusCancelled DomainStatus = "cancelled"

	// StatusPageLimit means the configured page limit was reached.
	StatusPageLimit DomainStatus = "page_limit"

	// StatusFailed means the crawl could not run or aborted unexpectedly.
	// The orchestrator records it instead of failing the whole run.
	StatusFailed DomainStatus = "failed"
)

// IsPartial reports whether the status describes a crawl that stopped
// before its frontier was exhausted.
func (s DomainStatus) IsPartial() bool {
	return s != StatusExhausted
}
