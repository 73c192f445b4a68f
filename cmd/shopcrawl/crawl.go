package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nao1215/shopcrawl/internal/config"
	"github.com/nao1215/shopcrawl/internal/crawler"
	"github.com/nao1215/shopcrawl/internal/database"
	"github.com/nao1215/shopcrawl/internal/log"
	"github.com/nao1215/shopcrawl/internal/metrics"
	"github.com/nao1215/shopcrawl/internal/model"
	"github.com/nao1215/shopcrawl/internal/orchestrator"
	"github.com/nao1215/shopcrawl/internal/report"
	"github.com/spf13/cobra"
)

// stopMessage is printed when the first interrupt arrives.
const stopMessage = "\nStopping the crawler..."

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [domain...]",
		Short: "Crawl shops and collect product page URLs",
		Long: `Crawl visits each domain starting at https://<domain>, follows links that
stay on the site and records links whose path looks like a product page.

Domains are taken from the arguments, then from the "domains" list in the
configuration file, then from the built-in list (amazon.in, flipkart.com,
overlaysnow.com).

The first Ctrl+C stops the crawl after the page currently being fetched.
Products found so far are written to the output file.

Examples:
  # Crawl the default shops
  shopcrawl crawl

  # Crawl two shops, at most 200 pages each
  shopcrawl crawl -p 200 shop.example another.example

  # Crawl four shops at a time and write a Markdown summary
  shopcrawl crawl -b 4 -m summary.md

  # Route requests through a local SOCKS5 proxy
  shopcrawl crawl --proxy 127.0.0.1:1080 shop.example

Configuration file (.shopcrawl) example:
  domains:
    - shop.example
  sites:
    shop.example:
      cookie: "region=in"
      maxPages: 500`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Crawl behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each page request")
	cmd.Flags().IntP("concurrency", "b", config.DefaultConcurrency,
		"Number of domains crawled at the same time")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum pages fetched per domain (0 = no limit)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy address for all requests (e.g., 127.0.0.1:1080)")
	cmd.Flags().Bool("insecure", false,
		"Skip TLS certificate verification")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .shopcrawl in current, config or home directory)")

	// Output flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputFile,
		"JSON file receiving the domain to product URLs mapping")
	cmd.Flags().StringP("markdown", "m", "",
		"Also write a Markdown summary of the run to this path")
	cmd.Flags().Bool("no-db", false,
		"Do not store the run in the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the run history database")

	// Observability flags
	cmd.Flags().String("metrics-addr", "",
		"Serve Prometheus metrics on this address while crawling (e.g., :9090)")
	cmd.Flags().Bool("log-json", false,
		"Write logs as JSON lines")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.New(cmd.ErrOrStderr(), cfg.Verbose, cfg.LogJSON)
	slog.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	token := crawler.NewToken()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})
	defer func() {
		signal.Stop(sigCh)
		close(done)
	}()
	go watchSignals(sigCh, done, token, cmd.ErrOrStderr(), logger)

	return runCrawl(ctx, cfg, token, cmd.OutOrStdout(), logger)
}

// watchSignals stops the token on the first signal. Later signals are
// absorbed so a second Ctrl+C does not kill the process before the result
// is saved.
func watchSignals(sigCh <-chan os.Signal, done <-chan struct{}, token *crawler.Token, w io.Writer, logger *slog.Logger) {
	for {
		select {
		case sig := <-sigCh:
			if token.Stop() {
				fmt.Fprintln(w, stopMessage)
				logger.Info("received shutdown signal, finishing current page", "signal", sig.String())
			}
		case <-done:
			return
		}
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags and the
// configuration file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
		return nil, err
	}
	if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.Insecure, err = flags.GetBool("insecure"); err != nil {
		return nil, err
	}
	if cfg.OutputFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.MarkdownFile, err = flags.GetString("markdown"); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	noDB, err := flags.GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB
	if cfg.MetricsAddr, err = flags.GetString("metrics-addr"); err != nil {
		return nil, err
	}
	if cfg.LogJSON, err = flags.GetBool("log-json"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	// An explicitly requested config file must exist; the default locations
	// are optional.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ProductMarkers = cfg.SiteConfigs.ProductMarkers
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{Sites: make(map[string]config.SiteConfig)}
	}

	cfg.ResolveDomains(args)
	return cfg, nil
}

// runCrawl crawls cfg.Domains and persists the result. The output file is
// written whether the run completed or was stopped.
func runCrawl(ctx context.Context, cfg *config.Config, token *crawler.Token, out io.Writer, logger *slog.Logger) error {
	if cfg.ProxyAddress != "" {
		if _, err := crawler.NewHTTPFetcher(crawler.WithProxy(cfg.ProxyAddress)); err != nil {
			return fmt.Errorf("invalid proxy %q: %w", cfg.ProxyAddress, err)
		}
	}

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		serveCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if _, err := m.Serve(serveCtx, cfg.MetricsAddr, logger); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
	}

	var db *database.CrawlDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Debug("database opened", "path", db.Path())
	}

	total := len(cfg.Domains)
	orch := orchestrator.New(
		newSiteCrawler(cfg, m, logger),
		orchestrator.WithLogger(logger),
		orchestrator.WithConcurrency(cfg.Concurrency),
		orchestrator.WithDomainCallback(func(result *model.DomainResult, index int) {
			m.DomainFinished(result)
			fmt.Fprintf(out, "[%d/%d] %s: %d products, %d pages (%s)\n",
				index+1, total, result.Domain, len(result.Products),
				result.PagesFetched, result.Status)
		}),
	)

	fmt.Fprintf(out, "Crawling %d domain(s)...\n", total)
	run := orch.Run(ctx, cfg.Domains, token)

	sink := report.NewFileSink(cfg.OutputFile)
	if err := sink.Save(run.Result()); err != nil {
		return fmt.Errorf("failed to write %s: %w", sink.Path(), err)
	}

	var errs []error
	if cfg.MarkdownFile != "" {
		if err := writeMarkdown(cfg.MarkdownFile, run); err != nil {
			errs = append(errs, err)
		}
	}

	if db != nil {
		// The crawl context may already be cancelled; the run is still saved.
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if err := db.SaveRun(saveCtx, run); err != nil {
			errs = append(errs, fmt.Errorf("failed to save run: %w", err))
		} else {
			logger.Info("run saved to database", "run_id", run.ID)
		}
	}

	fmt.Fprintln(out)
	if _, err := report.NewTextWriter(out).Write(run); err != nil {
		errs = append(errs, err)
	}
	fmt.Fprintf(out, "\nResults written to %s\n", sink.Path())

	return errors.Join(errs...)
}

// writeMarkdown renders run as Markdown and writes it atomically to path.
func writeMarkdown(path string, run *model.Run) error {
	var buf bytes.Buffer
	if _, err := report.NewMarkdownWriter(&buf).Write(run); err != nil {
		return fmt.Errorf("failed to render markdown summary: %w", err)
	}
	if err := report.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// siteCrawler crawls each domain with its own fetcher, built from the
// global settings and that site's overrides. Every domain therefore gets a
// fresh connection pool and cookie jar.
type siteCrawler struct {
	cfg      *config.Config
	recorder crawler.Recorder
	logger   *slog.Logger
}

func newSiteCrawler(cfg *config.Config, recorder crawler.Recorder, logger *slog.Logger) *siteCrawler {
	return &siteCrawler{cfg: cfg, recorder: recorder, logger: logger}
}

// Crawl implements orchestrator.DomainCrawler.
func (s *siteCrawler) Crawl(ctx context.Context, domain, baseURL string, token *crawler.Token) (*model.DomainResult, error) {
	site := s.cfg.SiteFor(domain)

	fetcher, err := crawler.NewHTTPFetcher(
		crawler.WithTimeout(s.cfg.Timeout),
		crawler.WithUserAgent(s.cfg.UserAgent),
		crawler.WithMaxBodySize(s.cfg.MaxBodySize),
		crawler.WithProxy(s.cfg.ProxyAddress),
		crawler.WithInsecureSkipVerify(s.cfg.Insecure),
		crawler.WithCookie(site.Cookie),
		crawler.WithHeaders(site.Headers),
	)
	if err != nil {
		return nil, err
	}

	spider := crawler.NewSpider(
		crawler.WithFetcher(fetcher),
		crawler.WithClassifier(crawler.NewClassifier(site.ProductMarkers...)),
		crawler.WithRecorder(s.recorder),
		crawler.WithLogger(s.logger),
		crawler.WithMaxPages(site.MaxPages),
	)
	return spider.Crawl(ctx, domain, baseURL, token)
}
