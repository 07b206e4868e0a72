package webfetch

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// extractLinks finds every resolvable http(s) link under linkSelector
// (default "a[href]"), resolved against base and de-duplicated in
// document order.
func extractLinks(doc *goquery.Document, base *url.URL, linkSelector string) []string {
	if linkSelector == "" {
		linkSelector = "a[href]"
	}

	seen := make(map[string]struct{})
	var links []string

	doc.Find(linkSelector).Each(func(_ int, sel *goquery.Selection) {
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

// extractText returns the trimmed text content of every element matched
// by selector, in document order. An empty selector is a no-op.
func extractText(doc *goquery.Document, selector string) []string {
	if selector == "" {
		return nil
	}
	var values []string
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			values = append(values, text)
		}
	})
	return values
}

// extractXPathLinks is the alternate, htmlquery-driven link extraction
// path alongside extractLinks's goquery path, tolerating markup goquery's
// stricter tokenizer would choke on. node must already be parsed by
// golang.org/x/net/html (see parseForXPath).
func extractXPathLinks(node *html.Node, base *url.URL, expr string) []string {
	if expr == "" {
		expr = "//a/@href"
	}
	nodes, err := htmlquery.QueryAll(node, expr)
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	var links []string
	for _, n := range nodes {
		val := strings.TrimSpace(htmlquery.InnerText(n))
		if val == "" {
			continue
		}
		parsed, err := url.Parse(val)
		if err != nil {
			continue
		}
		resolved := base.ResolveReference(parsed)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			continue
		}
		abs := resolved.String()
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	}
	return links
}

// parseForXPath reparses the body bytes with golang.org/x/net/html, the
// tokenizer htmlquery builds on; kept as its own pass since goquery's
// *goquery.Document and this *html.Node tree are not interchangeable.
func parseForXPath(body []byte, logger *slog.Logger) *html.Node {
	node, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		if logger != nil {
			logger.Warn("xpath reparse failed", "error", err)
		}
		return nil
	}
	return node
}
