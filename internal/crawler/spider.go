package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/shopcrawl/internal/model"
)

// Recorder receives per-page crawl events, typically to update metrics.
// Implementations must be safe for concurrent use because several domains
// may be crawled at once.
type Recorder interface {
	PageFetched(domain string, elapsed time.Duration)
	FetchFailed(domain string)
	ProductFound(domain string)
}

type noopRecorder struct{}

func (noopRecorder) PageFetched(string, time.Duration) {}
func (noopRecorder) FetchFailed(string)                {}
func (noopRecorder) ProductFound(string)               {}

// Spider crawls one domain breadth-first and collects its product URLs.
//
// A Spider holds no per-crawl state, so one instance can crawl several
// domains concurrently as long as its Fetcher and Recorder are concurrency
// safe (HTTPFetcher and the metrics recorder are).
type Spider struct {
	fetcher    Fetcher
	extractor  LinkExtractor
	classifier *Classifier
	recorder   Recorder
	logger     *slog.Logger

	// maxPages limits fetch attempts per domain. 0 means unlimited.
	maxPages int
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithFetcher sets the page fetcher.
func WithFetcher(f Fetcher) SpiderOption {
	return func(s *Spider) {
		if f != nil {
			s.fetcher = f
		}
	}
}

// WithExtractor sets the link extractor.
func WithExtractor(e LinkExtractor) SpiderOption {
	return func(s *Spider) {
		if e != nil {
			s.extractor = e
		}
	}
}

// WithClassifier sets the link classifier.
func WithClassifier(c *Classifier) SpiderOption {
	return func(s *Spider) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithRecorder sets the crawl event recorder.
func WithRecorder(r Recorder) SpiderOption {
	return func(s *Spider) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxPages caps the number of fetch attempts per domain.
func WithMaxPages(maxPages int) SpiderOption {
	return func(s *Spider) {
		s.maxPages = maxPages
	}
}

// NewSpider creates a Spider. Without options it fetches with a default
// HTTPFetcher, parses links with goquery and uses the default product markers.
func NewSpider(opts ...SpiderOption) *Spider {
	s := &Spider{
		extractor:  NewParser(),
		classifier: NewClassifier(),
		recorder:   noopRecorder{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fetcher == nil {
		// Without a proxy NewHTTPFetcher cannot fail.
		f, _ := NewHTTPFetcher() //nolint:errcheck
		s.fetcher = f
	}
	return s
}

// Crawl traverses the site rooted at baseURL and returns the product URLs it
// found. The token is checked once per frontier iteration; when it is
// stopped the crawl ends with StatusCancelled and keeps its products.
//
// Fetch failures are logged and skipped. The only error returned is
// ErrInvalidBaseURL.
func (s *Spider) Crawl(ctx context.Context, domain, baseURL string, token *Token) (*model.DomainResult, error) {
	if err := validateBaseURL(baseURL); err != nil {
		return nil, err
	}
	if token == nil {
		token = NewToken()
	}
	if c, ok := s.fetcher.(idleCloser); ok {
		defer c.CloseIdleConnections()
	}

	logger := s.logger.With(slog.String("domain", domain))
	result := &model.DomainResult{
		Domain:    domain,
		BaseURL:   baseURL,
		Status:    model.StatusExhausted,
		StartedAt: time.Now(),
	}

	visited := model.NewURLSet()
	products := model.NewURLSet()
	queue := newFrontier()
	queue.push(baseURL)

	logger.Info("crawling domain", slog.String("base_url", baseURL))

	for queue.len() > 0 {
		if token.Stopped() || ctx.Err() != nil {
			result.Status = model.StatusCancelled
			break
		}
		if s.maxPages > 0 && visited.Len() >= s.maxPages {
			result.Status = model.StatusPageLimit
			break
		}

		pageURL, ok := queue.pop()
		if !ok {
			break
		}
		if !visited.Add(pageURL) {
			continue
		}
		queue.markSeen(pageURL)

		start := time.Now()
		body, err := s.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			result.FetchFailures++
			s.recorder.FetchFailed(domain)
			logger.Warn("failed to fetch page",
				slog.String("url", pageURL),
				slog.String("error", err.Error()))
			continue
		}
		result.PagesFetched++
		s.recorder.PageFetched(domain, time.Since(start))

		links, err := s.extractor.Extract(strings.NewReader(body), pageURL)
		if err != nil {
			logger.Debug("failed to extract links",
				slog.String("url", pageURL),
				slog.String("error", err.Error()))
			continue
		}

		for _, link := range links {
			switch s.classifier.Classify(link, baseURL, visited.Has) {
			case model.CategoryProduct:
				if products.Add(link) {
					s.recorder.ProductFound(domain)
					logger.Debug("found product", slog.String("url", link))
				}
			case model.CategoryCrawlable:
				queue.push(link)
			case model.CategoryIrrelevant:
			}
		}
	}

	result.Products = products.Sorted()
	result.FinishedAt = time.Now()

	logger.Info("domain crawl finished",
		slog.String("status", string(result.Status)),
		slog.Int("products", len(result.Products)),
		slog.Int("pages", result.PagesFetched),
		slog.Int("failures", result.FetchFailures),
		slog.Duration("duration", result.Duration()))

	return result, nil
}

func validateBaseURL(baseURL string) error {
	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}
	return nil
}
