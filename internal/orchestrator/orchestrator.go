package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nao1215/shopcrawl/internal/crawler"
	"github.com/nao1215/shopcrawl/internal/model"
)

// DomainCrawler crawls a single domain. crawler.Spider implements it.
type DomainCrawler interface {
	Crawl(ctx context.Context, domain, baseURL string, token *crawler.Token) (*model.DomainResult, error)
}

// DomainCallback is invoked after each domain finishes, with the position
// of the domain in the input list. Calls are serialized.
type DomainCallback func(result *model.DomainResult, index int)

// Orchestrator drives the crawler across all configured domains.
type Orchestrator struct {
	crawler DomainCrawler

	// scheme is prefixed to each domain to build its root URL.
	scheme string

	// concurrency is the number of domains crawled at once. 1 is sequential.
	concurrency int

	onDomain DomainCallback
	cbMu     sync.Mutex

	logger *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets a custom logger. A nil logger keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithScheme overrides the URL scheme used to build root URLs.
// The default is "https".
func WithScheme(scheme string) Option {
	return func(o *Orchestrator) {
		if scheme != "" {
			o.scheme = scheme
		}
	}
}

// WithConcurrency sets how many domains are crawled at once.
// Values below 2 keep the sequential behavior.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithDomainCallback registers a function called after every finished domain.
func WithDomainCallback(cb DomainCallback) Option {
	return func(o *Orchestrator) {
		o.onDomain = cb
	}
}

// New creates an Orchestrator that uses c for every domain.
func New(c DomainCrawler, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		crawler:     c,
		scheme:      "https",
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// BaseURL returns the root URL crawled for domain.
func (o *Orchestrator) BaseURL(domain string) string {
	return o.scheme + "://" + domain
}

// Run crawls the domains and returns the aggregated run. It never fails:
// per-domain problems are recorded in the corresponding DomainResult.
//
// The token is checked after each domain (and, in concurrent mode, before
// each domain starts). A nil token is treated as never stopped.
func (o *Orchestrator) Run(ctx context.Context, domains []string, token *crawler.Token) *model.Run {
	if token == nil {
		token = crawler.NewToken()
	}
	domains = uniqueDomains(domains, o.logger)

	run := &model.Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Domains:   make([]*model.DomainResult, 0, len(domains)),
	}

	o.logger.Info("starting crawl run",
		"run_id", run.ID,
		"domains", len(domains),
		"concurrency", o.concurrency,
	)

	if o.concurrency > 1 && len(domains) > 1 {
		run.Domains = o.runConcurrent(ctx, domains, token)
	} else {
		run.Domains = o.runSequential(ctx, domains, token)
	}

	run.FinishedAt = time.Now()
	run.Cancelled = token.Stopped()

	o.logger.Info("crawl run finished",
		"run_id", run.ID,
		"domains_crawled", len(run.Domains),
		"products", run.TotalProducts(),
		"cancelled", run.Cancelled,
		"elapsed", run.FinishedAt.Sub(run.StartedAt),
	)

	return run
}

func (o *Orchestrator) runSequential(ctx context.Context, domains []string, token *crawler.Token) []*model.DomainResult {
	results := make([]*model.DomainResult, 0, len(domains))
	for i, domain := range domains {
		if token.Stopped() {
			o.logger.Info("crawl stopped, skipping remaining domains",
				"remaining", len(domains)-i,
			)
			break
		}

		result := o.crawlDomain(ctx, domain, token)
		results = append(results, result)
		o.notify(result, i)
	}
	return results
}

// crawlDomain runs one domain crawl and converts any error or panic into a
// failed result.
func (o *Orchestrator) crawlDomain(ctx context.Context, domain string, token *crawler.Token) (result *model.DomainResult) {
	baseURL := o.BaseURL(domain)
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("domain crawl panicked",
				"domain", domain,
				"panic", fmt.Sprint(r),
			)
			result = failedResult(domain, baseURL, started, fmt.Errorf("panic: %v", r))
		}
	}()

	res, err := o.crawler.Crawl(ctx, domain, baseURL, token)
	if err != nil {
		o.logger.Error("domain crawl failed",
			"domain", domain,
			"error", err,
		)
		return failedResult(domain, baseURL, started, err)
	}
	if res == nil {
		return failedResult(domain, baseURL, started, fmt.Errorf("crawler returned no result"))
	}
	return res
}

func (o *Orchestrator) notify(result *model.DomainResult, index int) {
	if o.onDomain == nil {
		return
	}
	o.cbMu.Lock()
	defer o.cbMu.Unlock()
	o.onDomain(result, index)
}

func failedResult(domain, baseURL string, started time.Time, err error) *model.DomainResult {
	return &model.DomainResult{
		Domain:     domain,
		BaseURL:    baseURL,
		Products:   []string{},
		Status:     model.StatusFailed,
		Error:      err.Error(),
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
}

// uniqueDomains trims blanks and drops repeated domains, keeping the first
// occurrence so that each domain maps to exactly one result.
func uniqueDomains(domains []string, logger *slog.Logger) []string {
	seen := make(map[string]struct{}, len(domains))
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		if _, ok := seen[d]; ok {
			logger.Warn("skipping duplicate domain", "domain", d)
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}
