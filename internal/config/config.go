package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/shopcrawl/internal/crawler"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "shopcrawl"

	// DefaultTimeout bounds each page request.
	DefaultTimeout = crawler.DefaultTimeout

	// DefaultConcurrency crawls one domain at a time.
	DefaultConcurrency = 1

	// DefaultMaxPages of 0 crawls each domain until its frontier is empty.
	DefaultMaxPages = 0

	// DefaultOutputFile is where the domain -> product URLs mapping is written.
	DefaultOutputFile = "output.json"

	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = crawler.DefaultUserAgent

	// DefaultMaxBodySize limits the response body read per page (10MB).
	DefaultMaxBodySize = crawler.DefaultMaxBodySize
)

// DefaultDomains is crawled when no domains are given on the command line
// or in the configuration file.
var DefaultDomains = []string{"amazon.in", "flipkart.com", "overlaysnow.com"}

// Config holds all configuration options for a crawl.
// It is populated from CLI flags and the configuration file and passed
// through the application rather than kept in global state.
type Config struct {
	// Domains is the ordered list of bare domain names to crawl.
	Domains []string

	// Timeout is the per-request timeout, including reading the body.
	Timeout time.Duration

	// Concurrency is the number of domains crawled at once.
	Concurrency int

	// MaxPages limits fetch attempts per domain. 0 means unlimited.
	MaxPages int

	// OutputFile is the JSON result path. It is overwritten on every run.
	OutputFile string

	// MarkdownFile, when set, receives a Markdown summary of the run.
	MarkdownFile string

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Set to 0 to use the default.
	MaxBodySize int64

	// ProxyAddress routes all requests through a SOCKS5 proxy ("host:port").
	ProxyAddress string

	// Insecure disables TLS certificate verification.
	Insecure bool

	// ProductMarkers overrides the URL path fragments that identify product
	// pages. Empty means the built-in markers.
	ProductMarkers []string

	// DBDir is the directory of the SQLite run history.
	// Defaults to the XDG data directory (~/.local/share/shopcrawl on Linux).
	DBDir string

	// SaveToDB stores each run in the history database.
	SaveToDB bool

	// MetricsAddr, when set, serves Prometheus metrics on this address
	// while the crawl runs.
	MetricsAddr string

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON switches log output to JSON lines.
	LogJSON bool

	// ConfigFilePath is the explicit configuration file path, if any.
	ConfigFilePath string

	// SiteConfigs holds the loaded configuration file, or nil.
	SiteConfigs *File
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:     DefaultTimeout,
		Concurrency: DefaultConcurrency,
		MaxPages:    DefaultMaxPages,
		OutputFile:  DefaultOutputFile,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		DBDir:       XDGDataDir(),
		SaveToDB:    true,
	}
}

// XDGDataDir returns the XDG data directory for shopcrawl.
// On Linux: ~/.local/share/shopcrawl
// On macOS: ~/Library/Application Support/shopcrawl
// On Windows: %LOCALAPPDATA%\shopcrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for shopcrawl.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ResolveDomains decides which domains to crawl. Explicit arguments win,
// then the configuration file, then DefaultDomains. Entries are normalized
// with NormalizeDomain.
func (c *Config) ResolveDomains(args []string) {
	source := args
	if len(source) == 0 && c.SiteConfigs != nil && len(c.SiteConfigs.Domains) > 0 {
		source = c.SiteConfigs.Domains
	}
	if len(source) == 0 {
		source = DefaultDomains
	}

	c.Domains = make([]string, 0, len(source))
	for _, d := range source {
		if d = NormalizeDomain(d); d != "" {
			c.Domains = append(c.Domains, d)
		}
	}
}

// NormalizeDomain lowercases a domain and strips an http(s) scheme and
// trailing slashes, so "https://Shop.example/" becomes "shop.example".
func NormalizeDomain(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	return strings.TrimRight(d, "/")
}

// Validate checks if the configuration is valid.
// It returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Domains) == 0 {
		return ErrNoDomains
	}
	for _, d := range c.Domains {
		if d == "" || strings.ContainsAny(d, "/ \t?#@") {
			return fmt.Errorf("%w: %q", ErrInvalidDomain, d)
		}
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if strings.TrimSpace(c.OutputFile) == "" {
		return ErrNoOutputFile
	}

	return nil
}

// SiteFor returns the effective per-site settings for domain, with the
// global page limit and product markers as fallbacks.
func (c *Config) SiteFor(domain string) SiteConfig {
	var site SiteConfig
	if c.SiteConfigs != nil {
		site = c.SiteConfigs.GetSiteConfig(domain)
	}
	if site.MaxPages == 0 {
		site.MaxPages = c.MaxPages
	}
	if len(site.ProductMarkers) == 0 {
		site.ProductMarkers = c.ProductMarkers
	}
	return site
}
