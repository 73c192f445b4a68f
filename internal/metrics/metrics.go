// Package metrics exposes crawl progress as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nao1215/shopcrawl/internal/model"
)

const namespace = "shopcrawl"

// Metrics holds all Prometheus metrics for a crawl process.
// It implements crawler.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	PagesFetched     *prometheus.CounterVec
	FetchFailures    *prometheus.CounterVec
	ProductsFound    *prometheus.CounterVec
	FetchDuration    *prometheus.HistogramVec
	DomainsCompleted *prometheus.CounterVec
}

// New creates the metrics on a dedicated registry, so that several
// instances (one per test, for example) never collide.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		PagesFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_fetched_total",
			Help:      "Pages fetched successfully.",
		}, []string{"domain"}),
		FetchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Page fetches that returned an error.",
		}, []string{"domain"}),
		ProductsFound: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "products_found_total",
			Help:      "Distinct product URLs discovered.",
		}, []string{"domain"}),
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of successful page fetches.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"domain"}),
		DomainsCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "domains_completed_total",
			Help:      "Domain crawls finished, by terminal status.",
		}, []string{"status"}),
	}
}

// PageFetched implements crawler.Recorder.
func (m *Metrics) PageFetched(domain string, elapsed time.Duration) {
	m.PagesFetched.WithLabelValues(domain).Inc()
	m.FetchDuration.WithLabelValues(domain).Observe(elapsed.Seconds())
}

// FetchFailed implements crawler.Recorder.
func (m *Metrics) FetchFailed(domain string) {
	m.FetchFailures.WithLabelValues(domain).Inc()
}

// ProductFound implements crawler.Recorder.
func (m *Metrics) ProductFound(domain string) {
	m.ProductsFound.WithLabelValues(domain).Inc()
}

// DomainFinished records the terminal status of a domain crawl.
func (m *Metrics) DomainFinished(result *model.DomainResult) {
	m.DomainsCompleted.WithLabelValues(string(result.Status)).Inc()
}

// Registry returns the registry holding all metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler serving the metrics in the Prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
// The listener is bound before Serve returns, so bind errors are reported
// synchronously.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) (net.Addr, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("serving metrics", "addr", ln.Addr().String())
	return ln.Addr(), nil
}
