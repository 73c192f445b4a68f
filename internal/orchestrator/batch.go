package orchestrator

import (
	"context"

	"github.com/nao1215/shopcrawl/internal/crawler"
	"github.com/nao1215/shopcrawl/internal/model"
	"golang.org/x/sync/errgroup"
)

// runConcurrent crawls up to o.concurrency domains at a time.
//
// Each worker checks the token before starting its domain, so a stop
// prevents new domains from starting while running ones wind down on their
// own. Slots for domains that never started are dropped; the remaining
// results keep the input order.
func (o *Orchestrator) runConcurrent(ctx context.Context, domains []string, token *crawler.Token) []*model.DomainResult {
	slots := make([]*model.DomainResult, len(domains))

	var g errgroup.Group
	g.SetLimit(o.concurrency)

	for i, domain := range domains {
		g.Go(func() error {
			if token.Stopped() {
				return nil
			}

			o.logger.Info("crawling domain",
				"domain", domain,
				"index", i+1,
				"total", len(domains),
			)

			result := o.crawlDomain(ctx, domain, token)
			slots[i] = result
			o.notify(result, i)
			return nil
		})
	}

	// Workers never return errors; failures live in the results.
	_ = g.Wait() //nolint:errcheck

	results := make([]*model.DomainResult, 0, len(domains))
	for _, r := range slots {
		if r != nil {
			results = append(results, r)
		}
	}
	return results
}
