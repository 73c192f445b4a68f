package crawler

import (
	"net/url"
	"strings"

	"github.com/nao1215/shopcrawl/internal/model"
)

// DefaultProductMarkers are the path fragments that identify a product page
// when no markers are configured.
var DefaultProductMarkers = []string{"/product/", "/item/", "/p/", "/collections"}

// Classifier assigns a Category to discovered links.
// Classification is pure: the same inputs always yield the same category.
type Classifier struct {
	markers []string
}

// NewClassifier creates a Classifier using the given product path markers.
// With no markers, DefaultProductMarkers are used.
func NewClassifier(markers ...string) *Classifier {
	cleaned := make([]string, 0, len(markers))
	for _, m := range markers {
		if m = strings.TrimSpace(m); m != "" {
			cleaned = append(cleaned, m)
		}
	}
	if len(cleaned) == 0 {
		cleaned = append(cleaned, DefaultProductMarkers...)
	}
	return &Classifier{markers: cleaned}
}

// Markers returns a copy of the configured product markers.
func (c *Classifier) Markers() []string {
	out := make([]string, len(c.markers))
	copy(out, c.markers)
	return out
}

// Classify decides what to do with link, which was found while crawling the
// site rooted at baseURL. visited reports whether a URL has already been
// fetched; nil means nothing has been visited yet.
//
// Product wins over everything else, including links that leave the site.
// Crawlable requires a same-site link that has not been visited.
// Malformed links and non-http(s) schemes are Irrelevant.
func (c *Classifier) Classify(link, baseURL string, visited func(string) bool) model.Category {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return model.CategoryIrrelevant
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return model.CategoryIrrelevant
	}

	if c.hasMarker(u.Path) {
		return model.CategoryProduct
	}

	if !IsSameSite(link, baseURL) {
		return model.CategoryIrrelevant
	}
	if visited != nil && visited(link) {
		return model.CategoryIrrelevant
	}
	return model.CategoryCrawlable
}

// IsProduct reports whether link points at a product page.
func (c *Classifier) IsProduct(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return c.hasMarker(u.Path)
}

func (c *Classifier) hasMarker(path string) bool {
	for _, m := range c.markers {
		if strings.Contains(path, m) {
			return true
		}
	}
	return false
}

// IsSameSite reports whether link lives under baseURL.
//
// The check is a string prefix match on the absolute URL. The character
// following the prefix must end a host or path segment, so
// "https://shop.com" does not match "https://shop.com.evil.net".
func IsSameSite(link, baseURL string) bool {
	if baseURL == "" || !strings.HasPrefix(link, baseURL) {
		return false
	}
	if len(link) == len(baseURL) || strings.HasSuffix(baseURL, "/") {
		return true
	}
	switch link[len(baseURL)] {
	case '/', '?', '#':
		return true
	default:
		return false
	}
}
