package browser

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractLinks mirrors the webfetch processor's CSS-selector link
// extraction (grounded on the same parser.CSSParser lineage) so that
// rendered-DOM crawls and static-HTML crawls enqueue links identically.
func extractLinks(doc *goquery.Document, base *url.URL, selector string) []string {
	if selector == "" {
		selector = "a[href]"
	}

	seen := make(map[string]struct{})
	var links []string

	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		href, exists := sel.Attr("href")
		if !exists {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" ||
			strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "javascript:") ||
			strings.HasPrefix(href, "mailto:") ||
			strings.HasPrefix(href, "tel:") ||
			strings.HasPrefix(href, "data:") {
			return
		}

		parsed, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(parsed)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		resolved.Fragment = ""

		abs := resolved.String()
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	})

	return links
}
