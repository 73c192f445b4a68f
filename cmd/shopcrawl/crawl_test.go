package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/shopcrawl/internal/config"
	"github.com/nao1215/shopcrawl/internal/crawler"
	"github.com/nao1215/shopcrawl/internal/database"
	"github.com/nao1215/shopcrawl/internal/model"
	"github.com/nao1215/shopcrawl/internal/report"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newShopServer serves a tiny shop:
//
//	/        -> /about, /product/1, /collections/summer, off-site product, off-site page
//	/about   -> /, /p/2, /missing
//	/missing -> 404
func newShopServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body>
			<a href="/about">About</a>
			<a href="/product/1">Shoe</a>
			<a href="/collections/summer">Summer</a>
			<a href="https://other.example/product/9">Partner shoe</a>
			<a href="https://other.example/blog">Partner blog</a>
		</body></html>`)
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<a href="/">Home</a><a href="p/2">Hat</a><a href="/missing">Gone</a>`)
	})

	srv := httptest.NewTLSServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, domains ...string) *config.Config {
	t.Helper()

	dir := t.TempDir()
	cfg := config.NewConfig()
	cfg.Domains = domains
	cfg.Insecure = true
	cfg.Timeout = 5 * time.Second
	cfg.OutputFile = filepath.Join(dir, "output.json")
	cfg.DBDir = filepath.Join(dir, "db")
	cfg.SiteConfigs = &config.File{}
	return cfg
}

func TestNewCrawlCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCrawlCmd()

	if cmd.Name() != "crawl" {
		t.Errorf("expected name 'crawl', got %q", cmd.Name())
	}

	flags := []struct {
		name      string
		shorthand string
		def       string
	}{
		{"timeout", "t", "10s"},
		{"concurrency", "b", "1"},
		{"max-pages", "p", "0"},
		{"output", "o", "output.json"},
		{"markdown", "m", ""},
		{"config", "c", ""},
		{"insecure", "", "false"},
		{"proxy", "", ""},
		{"no-db", "", "false"},
		{"metrics-addr", "", ""},
		{"log-json", "", "false"},
	}
	for _, f := range flags {
		t.Run(f.name, func(t *testing.T) {
			t.Parallel()
			flag := cmd.Flags().Lookup(f.name)
			if flag == nil {
				t.Fatalf("expected %s flag", f.name)
			}
			if flag.Shorthand != f.shorthand {
				t.Errorf("expected shorthand %q, got %q", f.shorthand, flag.Shorthand)
			}
			if flag.DefValue != f.def {
				t.Errorf("expected default %q, got %q", f.def, flag.DefValue)
			}
		})
	}
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("flags and arguments", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".shopcrawl")
		if err := os.WriteFile(configPath, []byte("domains: [file.example]\n"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags([]string{
			"-t", "3s", "-b", "4", "-p", "50", "-o", "out.json", "-m", "sum.md",
			"--insecure", "--no-db", "--log-json", "-c", configPath,
		}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		cfg, err := buildConfig(cmd, []string{"https://Shop.Example/"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Timeout != 3*time.Second {
			t.Errorf("expected timeout 3s, got %v", cfg.Timeout)
		}
		if cfg.Concurrency != 4 || cfg.MaxPages != 50 {
			t.Errorf("unexpected concurrency/max pages %d/%d", cfg.Concurrency, cfg.MaxPages)
		}
		if cfg.OutputFile != "out.json" || cfg.MarkdownFile != "sum.md" {
			t.Errorf("unexpected outputs %q %q", cfg.OutputFile, cfg.MarkdownFile)
		}
		if !cfg.Insecure || cfg.SaveToDB || !cfg.LogJSON {
			t.Errorf("unexpected booleans insecure=%v saveToDB=%v logJSON=%v", cfg.Insecure, cfg.SaveToDB, cfg.LogJSON)
		}
		if len(cfg.Domains) != 1 || cfg.Domains[0] != "shop.example" {
			t.Errorf("expected [shop.example], got %v", cfg.Domains)
		}
	})

	t.Run("config file domains without arguments", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".shopcrawl")
		content := "domains:\n  - file.example\nproductMarkers:\n  - /dp/\n"
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags([]string{"-c", configPath}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cfg.Domains) != 1 || cfg.Domains[0] != "file.example" {
			t.Errorf("expected [file.example], got %v", cfg.Domains)
		}
		if len(cfg.ProductMarkers) != 1 || cfg.ProductMarkers[0] != "/dp/" {
			t.Errorf("expected markers from file, got %v", cfg.ProductMarkers)
		}
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags([]string{"-c", "/nonexistent/.shopcrawl"}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		_, err := buildConfig(cmd, nil)
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})
}

func TestRunCrawlCmdInvalidConfig(t *testing.T) {
	t.Parallel()

	cmd := NewCrawlCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--concurrency", "0", "--no-db", "shop.example"})

	err := cmd.Execute()
	if !errors.Is(err, config.ErrInvalidConcurrency) {
		t.Errorf("expected ErrInvalidConcurrency, got %v", err)
	}
}

func TestWatchSignals(t *testing.T) {
	t.Parallel()

	token := crawler.NewToken()
	sigCh := make(chan os.Signal, 1)
	done := make(chan struct{})
	finished := make(chan struct{})

	var buf bytes.Buffer
	go func() {
		watchSignals(sigCh, done, token, &buf, quietLogger())
		close(finished)
	}()

	sigCh <- os.Interrupt
	select {
	case <-token.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("expected token to be stopped")
	}

	// A second interrupt is absorbed.
	sigCh <- os.Interrupt
	close(done)
	<-finished

	if got := strings.Count(buf.String(), "Stopping the crawler..."); got != 1 {
		t.Errorf("expected stop message once, got %d in %q", got, buf.String())
	}
}

func TestRunCrawl(t *testing.T) {
	t.Parallel()

	t.Run("collects products and persists every output", func(t *testing.T) {
		t.Parallel()

		srv := newShopServer(t)
		domain := strings.TrimPrefix(srv.URL, "https://")
		cfg := testConfig(t, domain)
		cfg.MarkdownFile = filepath.Join(filepath.Dir(cfg.OutputFile), "summary.md")
		cfg.MetricsAddr = "127.0.0.1:0"

		var out bytes.Buffer
		if err := runCrawl(context.Background(), cfg, crawler.NewToken(), &out, quietLogger()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		result, err := report.NewFileSink(cfg.OutputFile).Load()
		if err != nil {
			t.Fatalf("failed to load output: %v", err)
		}
		want := []string{
			srv.URL + "/collections/summer",
			srv.URL + "/p/2",
			srv.URL + "/product/1",
			"https://other.example/product/9",
		}
		got := result[domain]
		if len(got) != len(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("product %d: expected %s, got %s", i, want[i], got[i])
			}
		}

		md, err := os.ReadFile(cfg.MarkdownFile)
		if err != nil {
			t.Fatalf("failed to read markdown: %v", err)
		}
		if !strings.Contains(string(md), domain) {
			t.Errorf("expected markdown to mention %s", domain)
		}

		db, err := database.Open(cfg.DBDir, database.Options{})
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()
		run, err := db.LatestRun(context.Background())
		if err != nil {
			t.Fatalf("failed to load run: %v", err)
		}
		if run.TotalProducts() != len(want) {
			t.Errorf("expected %d stored products, got %d", len(want), run.TotalProducts())
		}
		if run.Domains[0].FetchFailures != 1 {
			t.Errorf("expected 1 fetch failure (/missing), got %d", run.Domains[0].FetchFailures)
		}

		if !strings.Contains(out.String(), "[1/1] "+domain) {
			t.Errorf("expected progress line, got %q", out.String())
		}
		if !strings.Contains(out.String(), "Results written to "+cfg.OutputFile) {
			t.Errorf("expected results line, got %q", out.String())
		}
	})

	t.Run("stopped token still writes output", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(t, "unreachable.invalid")
		cfg.SaveToDB = false
		token := crawler.NewToken()
		token.Stop()

		if err := runCrawl(context.Background(), cfg, token, io.Discard, quietLogger()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		result, err := report.NewFileSink(cfg.OutputFile).Load()
		if err != nil {
			t.Fatalf("failed to load output: %v", err)
		}
		if len(result) != 0 {
			t.Errorf("expected empty result, got %v", result)
		}
	})

	t.Run("invalid proxy fails before crawling", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(t, "shop.example")
		cfg.SaveToDB = false
		cfg.ProxyAddress = "not-a-proxy"

		err := runCrawl(context.Background(), cfg, crawler.NewToken(), io.Discard, quietLogger())
		if !errors.Is(err, crawler.ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
		if _, err := os.Stat(cfg.OutputFile); !os.IsNotExist(err) {
			t.Error("expected no output file")
		}
	})

	t.Run("unreachable domain is recorded with no products", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		domain := strings.TrimPrefix(srv.URL, "http://")
		srv.Close()

		cfg := testConfig(t, domain)
		cfg.SaveToDB = false
		cfg.Timeout = time.Second

		if err := runCrawl(context.Background(), cfg, crawler.NewToken(), io.Discard, quietLogger()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		result, err := report.NewFileSink(cfg.OutputFile).Load()
		if err != nil {
			t.Fatalf("failed to load output: %v", err)
		}
		products, ok := result[domain]
		if !ok {
			t.Fatalf("expected an entry for %s, got %v", domain, result)
		}
		if len(products) != 0 {
			t.Errorf("expected no products, got %v", products)
		}
	})
}

func TestCrawlCommandEndToEnd(t *testing.T) {
	t.Parallel()

	srv := newShopServer(t)
	domain := strings.TrimPrefix(srv.URL, "https://")
	dir := t.TempDir()
	output := filepath.Join(dir, "output.json")
	dbDir := filepath.Join(dir, "db")

	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs([]string{"crawl", "--insecure", "-o", output, "--db-dir", dbDir, domain})

	if err := root.Execute(); err != nil {
		t.Fatalf("crawl failed: %v\nstderr: %s", err, stderr.String())
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if !strings.Contains(string(data), "\n  \""+domain+"\": [\n    \"") {
		t.Errorf("expected 2-space indented JSON, got:\n%s", data)
	}

	var history bytes.Buffer
	root = NewRootCmd()
	root.SetOut(&history)
	root.SetArgs([]string{"history", "--db-dir", dbDir})
	if err := root.Execute(); err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(history.String(), "Crawl history (1 runs)") {
		t.Errorf("expected one run in history, got %q", history.String())
	}
}

func TestSiteCrawler(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var cookies, agents []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		cookies = append(cookies, r.Header.Get("Cookie"))
		agents = append(agents, r.Header.Get("User-Agent"))
		mu.Unlock()
		fmt.Fprint(w, `<a href="/dp/B0001">Thing</a><a href="/product/1">Not a product here</a>`)
	}))
	defer srv.Close()
	domain := strings.TrimPrefix(srv.URL, "http://")

	cfg := config.NewConfig()
	cfg.UserAgent = "shopcrawl-test"
	cfg.SiteConfigs = &config.File{Sites: map[string]config.SiteConfig{
		domain: {Cookie: "region=in", ProductMarkers: []string{"/dp/"}},
	}}

	sc := newSiteCrawler(cfg, nil, quietLogger())
	result, err := sc.Crawl(context.Background(), domain, srv.URL, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Products) != 1 || result.Products[0] != srv.URL+"/dp/B0001" {
		t.Errorf("expected only the /dp/ product, got %v", result.Products)
	}
	if result.Status != model.StatusExhausted {
		t.Errorf("expected exhausted, got %s", result.Status)
	}

	mu.Lock()
	defer mu.Unlock()
	// Root plus the /product/1 page, which is crawlable under the site markers.
	if len(cookies) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(cookies))
	}
	for i := range cookies {
		if cookies[i] != "region=in" {
			t.Errorf("expected site cookie, got %q", cookies[i])
		}
		if agents[i] != "shopcrawl-test" {
			t.Errorf("expected configured user agent, got %q", agents[i])
		}
	}
}
