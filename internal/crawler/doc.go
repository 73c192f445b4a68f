// Package crawler discovers product pages on a single e-commerce domain.
//
// # Architecture
//
// The package is built around the Spider type, which runs a breadth-first
// traversal of one domain starting at its root URL. Each iteration takes the
// oldest URL from the frontier, fetches it, extracts its links and classifies
// every link:
//
//   - Product links are recorded as results and never fetched
//   - Crawlable links (same site, not yet seen) are appended to the frontier
//   - Irrelevant links are dropped
//
// The crawl ends when the frontier is empty, when the shared Token is
// stopped, or when the optional page limit is reached.
//
// # Components
//
//   - Spider: coordinates the traversal of one domain
//   - Fetcher / HTTPFetcher: retrieves page bodies over HTTP(S)
//   - LinkExtractor / Parser: extracts absolute hyperlinks from HTML
//   - Classifier: decides the Category of each link
//   - Token: process-wide cancellation flag observed between pages
//
// # Usage
//
//	fetcher, err := crawler.NewHTTPFetcher(crawler.WithTimeout(10 * time.Second))
//	spider := crawler.NewSpider(crawler.WithFetcher(fetcher))
//	result, err := spider.Crawl(ctx, "example.com", "https://example.com", token)
//
// # Cancellation
//
// The Token is checked once per frontier iteration. A fetch that is already
// in flight is allowed to finish or time out; the crawl then stops before
// the next page and reports the products found so far.
package crawler
