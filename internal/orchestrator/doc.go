// Package orchestrator runs the domain crawler over a list of domains and
// aggregates the per-domain results into a single run.
//
// Domains are crawled one after another in the order given. After each
// domain the shared cancellation token is consulted; once it is stopped no
// further domain is started, and domains that never started have no entry
// in the result. A failure or panic inside one domain crawl is recorded as
// a failed result for that domain and never aborts the run.
//
// WithConcurrency enables an opt-in mode that crawls several domains at
// once using errgroup with a concurrency limit. Results are still reported
// in the order the domains were listed.
package orchestrator
