package browser

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func TestExtractLinksResolvesAndFilters(t *testing.T) {
	base, _ := url.Parse("https://example.com/dir/page")
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<html><body>
			<a href="/about">About</a>
			<a href="https://other.example/contact">Contact</a>
			<a href="#section">Skip</a>
			<a href="javascript:void(0)">Skip</a>
			<a href="/about">Dup</a>
		</body></html>
	`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	links := extractLinks(doc, base, "")
	if len(links) != 2 {
		t.Fatalf("expected 2 deduplicated links, got %d: %v", len(links), links)
	}
	if links[0] != "https://example.com/about" {
		t.Errorf("links[0] = %q, want https://example.com/about", links[0])
	}
	if links[1] != "https://other.example/contact" {
		t.Errorf("links[1] = %q, want https://other.example/contact", links[1])
	}
}
