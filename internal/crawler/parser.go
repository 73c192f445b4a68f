package crawler

import (
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// LinkExtractor turns a page body into absolute hyperlinks.
type LinkExtractor interface {
	Extract(r io.Reader, pageURL string) ([]string, error)
}

// Parser extracts anchor links from HTML using goquery.
//
// Relative links are resolved against the page they were found on, or
// against the document's <base href> when one is present. Fragments are
// stripped and duplicates removed while keeping document order.
type Parser struct{}

// NewParser creates a link parser.
func NewParser() *Parser {
	return &Parser{}
}

// Extract returns the absolute links found in r.
// A malformed document is not an error; it simply yields fewer links.
// An error is returned only when pageURL itself cannot be parsed or the
// reader fails.
func (p *Parser) Extract(r io.Reader, pageURL string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if u, err := url.Parse(strings.TrimSpace(href)); err == nil {
			base = base.ResolveReference(u)
		}
	}

	seen := make(map[string]struct{})
	links := make([]string, 0)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		resolved := resolveURL(base, href)
		if resolved == "" {
			return
		}
		if _, ok := seen[resolved]; ok {
			return
		}
		seen[resolved] = struct{}{}
		links = append(links, resolved)
	})

	return links, nil
}

// resolveURL resolves href against base and drops the fragment.
// It returns "" for links that never lead to a page.
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	lower := strings.ToLower(href)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return ""
		}
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(u)
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved.String()
}
