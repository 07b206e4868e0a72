// Package webfetch is a reference InputProcessor that fetches HTTP(S)
// pages, decoding gzip/deflate/brotli transparently, and extracts links
// and text via CSS selectors and XPath.
package webfetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/polycrawl/internal/model"
)

// Config configures one Processor instance. Each distinct Config still
// shares the same processor identity (the concrete Go type), since
// identity keys guard/throttle state — instances with different Source
// IDs still share one guard key and one throttle schedule.
type Config struct {
	SourceID           string
	UserAgent          string
	Timeout            time.Duration
	MaxBodyBytes       int64
	InsecureSkipVerify bool

	// LinkSelector is the CSS selector used to discover crawlable links;
	// defaults to "a[href]".
	LinkSelector string
	// TextSelector, if non-empty, extracts a "text" field from every
	// match, stored but never re-fed.
	TextSelector string
	// XPathLinkExpr, if non-empty, runs a second, alternate link
	// extraction pass via htmlquery/XPath alongside the CSS pass.
	XPathLinkExpr string
}

func (c Config) withDefaults() Config {
	if c.SourceID == "" {
		c.SourceID = "webfetch"
	}
	if c.UserAgent == "" {
		c.UserAgent = "polycrawl/" + Version
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = 10 << 20 // 10 MiB
	}
	if c.LinkSelector == "" {
		c.LinkSelector = "a[href]"
	}
	return c
}

// Version is stamped into the default User-Agent; overridable at build
// time via ldflags.
var Version = "dev"

// Processor fetches a page, parses it, and emits discovered links
// (crawlable) plus extracted text/title (uncrawlable).
type Processor struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// New returns a ready-to-register Processor.
func New(cfg Config, logger *slog.Logger) *Processor {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		cfg:    cfg,
		client: newClient(cfg.Timeout, cfg.InsecureSkipVerify),
		logger: logger.With("component", "webfetch_processor"),
	}
}

// Source implements processor.InputProcessor.
func (p *Processor) Source() model.Source {
	return model.Source{Name: "webfetch", ID: p.cfg.SourceID}
}

// CanProcess implements processor.InputProcessor: true for any absolute
// http(s) URL.
func (p *Processor) CanProcess(ctx context.Context, input model.CrawlingInput, view model.ContextView) bool {
	u, err := url.Parse(input.RawInput)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Process implements processor.InputProcessor.
func (p *Processor) Process(ctx context.Context, input model.CrawlingInput, view model.ContextView) (model.Output, error) {
	base, err := url.Parse(input.RawInput)
	if err != nil {
		return model.Output{}, fmt.Errorf("webfetch: invalid url %q: %w", input.RawInput, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, input.RawInput, nil)
	if err != nil {
		return model.Output{}, fmt.Errorf("webfetch: building request: %w", err)
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := p.client.Do(req)
	if err != nil {
		return model.Output{}, fmt.Errorf("webfetch: fetching %q: %w", input.RawInput, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return model.Output{}, fmt.Errorf("webfetch: %q returned HTTP %d", input.RawInput, resp.StatusCode)
	}

	var reader io.Reader = resp.Body
	if p.cfg.MaxBodyBytes > 0 {
		reader = io.LimitReader(reader, p.cfg.MaxBodyBytes)
	}
	reader, err = decompressReader(resp, reader)
	if err != nil {
		return model.Output{}, fmt.Errorf("webfetch: decompressing %q: %w", input.RawInput, err)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return model.Output{}, fmt.Errorf("webfetch: reading body of %q: %w", input.RawInput, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return model.Output{}, fmt.Errorf("webfetch: parsing %q: %w", input.RawInput, err)
	}

	var record model.Record
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		record = append(record, model.Field{Key: "title", Value: model.Uncrawlable(title)})
	}
	for _, link := range extractLinks(doc, base, p.cfg.LinkSelector) {
		record = append(record, model.Field{Key: "link", Value: model.Crawlable(link)})
	}
	for _, text := range extractText(doc, p.cfg.TextSelector) {
		record = append(record, model.Field{Key: "text", Value: model.Uncrawlable(text)})
	}
	if p.cfg.XPathLinkExpr != "" {
		if node := parseForXPath(body, p.logger); node != nil {
			for _, link := range extractXPathLinks(node, base, p.cfg.XPathLinkExpr) {
				record = append(record, model.Field{Key: "link", Value: model.Crawlable(link)})
			}
		}
	}

	return model.Output{
		Source:    p.Source(),
		StartedBy: input.Source,
		Input:     input.RawInput,
		Data:      []model.Record{record},
		Timestamp: time.Now().UnixMilli(),
	}, nil
}
