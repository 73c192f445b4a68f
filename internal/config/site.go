package config

// SiteConfig holds site-specific configuration for a single domain.
type SiteConfig struct {
	// Cookie is an HTTP cookie to send when crawling this site, for example
	// to pick a region or accept a consent banner.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// MaxPages overrides the global page limit for this site.
	// If zero, the global limit is used.
	MaxPages int `yaml:"maxPages,omitempty"`

	// ProductMarkers overrides the product path markers for this site.
	ProductMarkers []string `yaml:"productMarkers,omitempty"`
}

// File represents the structure of the .shopcrawl configuration file.
type File struct {
	// Domains is crawled when no domains are given on the command line.
	Domains []string `yaml:"domains,omitempty"`

	// ProductMarkers replaces the built-in product path markers.
	ProductMarkers []string `yaml:"productMarkers,omitempty"`

	// Sites maps domains to their site-specific configurations.
	// Keys are bare domains (e.g., "example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains configuration applied to all sites unless
	// overridden in the site-specific configuration.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a specific domain.
// It merges the site-specific configuration over the defaults without
// modifying either.
func (cf *File) GetSiteConfig(domain string) SiteConfig {
	result := cf.Defaults
	if len(cf.Defaults.Headers) > 0 {
		result.Headers = make(map[string]string, len(cf.Defaults.Headers))
		for k, v := range cf.Defaults.Headers {
			result.Headers[k] = v
		}
	}

	siteConfig, ok := cf.Sites[domain]
	if !ok {
		return result
	}

	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if siteConfig.MaxPages != 0 {
		result.MaxPages = siteConfig.MaxPages
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range siteConfig.Headers {
			result.Headers[k] = v
		}
	}
	if len(siteConfig.ProductMarkers) > 0 {
		result.ProductMarkers = siteConfig.ProductMarkers
	}

	return result
}
