// Package browser is a reference InputProcessor that fetches JS-rendered
// pages through a headless Chromium instance: page pooling, launch
// flags, and optional stealth patching before content extraction.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/polycrawl/internal/model"
)

// Config configures one Processor instance.
type Config struct {
	SourceID string
	// Stealth enables go-rod/stealth page patches (webdriver flag removal,
	// plugin/permission spoofing) for sites that fingerprint automation.
	Stealth bool
	// UserAgent overrides the browser's default UA string when non-empty.
	UserAgent string
	// NavigateTimeout bounds navigation + stability wait per page.
	NavigateTimeout time.Duration
	// WaitStable is how long the page must be free of layout/network
	// churn before content is read; 0 uses the 300ms default and a
	// negative value disables the wait.
	WaitStable time.Duration
	// WaitSelector, if set, is awaited (visible) after navigation,
	// useful for SPA content that mounts after the initial paint.
	WaitSelector string
	// MaxPages bounds the page pool; 0 defaults to 4.
	MaxPages int
	// WindowSize is passed to the launcher as "W,H"; empty uses Chromium's
	// default.
	WindowSize string
	// UserDataDir persists a browser profile across runs when set.
	UserDataDir string
	// LinkSelector is the CSS selector used to discover crawlable links;
	// defaults to "a[href]".
	LinkSelector string
}

func (c Config) withDefaults() Config {
	if c.SourceID == "" {
		c.SourceID = "browser"
	}
	if c.NavigateTimeout == 0 {
		c.NavigateTimeout = 30 * time.Second
	}
	if c.WaitStable == 0 {
		c.WaitStable = 300 * time.Millisecond
	}
	if c.MaxPages == 0 {
		c.MaxPages = 4
	}
	if c.LinkSelector == "" {
		c.LinkSelector = "a[href]"
	}
	return c
}

// Processor drives a headless browser to render a page before extracting
// links and text, for sites whose content only exists after JavaScript
// execution (the cases webfetch's plain HTTP GET cannot see).
type Processor struct {
	cfg     Config
	browser *rod.Browser
	logger  *slog.Logger

	mu   sync.Mutex
	pool chan *rod.Page
}

// New launches a headless Chromium instance and returns a ready-to-register
// Processor. Call Close when the processor is no longer needed.
func New(cfg Config, logger *slog.Logger) (*Processor, error) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	b, err := launch(cfg)
	if err != nil {
		return nil, err
	}

	p := &Processor{
		cfg:     cfg,
		browser: b,
		logger:  logger.With("component", "browser_processor"),
		pool:    make(chan *rod.Page, cfg.MaxPages),
	}
	return p, nil
}

// Close shuts down the pooled pages and the underlying browser.
func (p *Processor) Close() error {
	close(p.pool)
	for page := range p.pool {
		_ = page.Close()
	}
	if p.browser != nil {
		return p.browser.Close()
	}
	return nil
}

// Source implements processor.InputProcessor.
func (p *Processor) Source() model.Source {
	return model.Source{Name: "browser", ID: p.cfg.SourceID}
}

// CanProcess implements processor.InputProcessor: true for any absolute
// http(s) URL, same eligibility rule as the plain-HTTP fetch processor.
func (p *Processor) CanProcess(ctx context.Context, input model.CrawlingInput, view model.ContextView) bool {
	u, err := url.Parse(input.RawInput)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Process implements processor.InputProcessor: it navigates a pooled page
// to the input URL, waits for the page to settle, then extracts the
// rendered title and links.
func (p *Processor) Process(ctx context.Context, input model.CrawlingInput, view model.ContextView) (model.Output, error) {
	base, err := url.Parse(input.RawInput)
	if err != nil {
		return model.Output{}, fmt.Errorf("browser: invalid url %q: %w", input.RawInput, err)
	}

	page, err := p.getPage()
	if err != nil {
		return model.Output{}, fmt.Errorf("browser: acquiring page: %w", err)
	}
	defer p.putPage(page)

	if p.cfg.Stealth {
		stealthed, err := stealth.Page(p.browser)
		if err != nil {
			return model.Output{}, fmt.Errorf("browser: stealth page: %w", err)
		}
		page = stealthed
		defer func() { _ = page.Close() }()
	}

	if p.cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: p.cfg.UserAgent}); err != nil {
			p.logger.Warn("failed to set user agent", "error", err)
		}
	}

	timeout := p.cfg.NavigateTimeout
	if err := page.Timeout(timeout).Navigate(input.RawInput); err != nil {
		return model.Output{}, fmt.Errorf("browser: navigating to %q: %w", input.RawInput, err)
	}

	if p.cfg.WaitStable > 0 {
		if err := page.Timeout(timeout).WaitStable(p.cfg.WaitStable); err != nil {
			p.logger.Warn("page stability timeout, continuing", "url", input.RawInput, "error", err)
		}
	}

	if p.cfg.WaitSelector != "" {
		el, err := page.Timeout(10 * time.Second).Element(p.cfg.WaitSelector)
		if err != nil {
			p.logger.Warn("wait selector not found", "selector", p.cfg.WaitSelector, "error", err)
		} else if err := el.WaitVisible(); err != nil {
			p.logger.Warn("wait selector timeout", "selector", p.cfg.WaitSelector, "error", err)
		}
	}

	htmlContent, err := page.HTML()
	if err != nil {
		return model.Output{}, fmt.Errorf("browser: reading rendered html of %q: %w", input.RawInput, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return model.Output{}, fmt.Errorf("browser: parsing rendered html of %q: %w", input.RawInput, err)
	}

	var record model.Record
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		record = append(record, model.Field{Key: "title", Value: model.Uncrawlable(title)})
	}
	for _, link := range extractLinks(doc, base, p.cfg.LinkSelector) {
		record = append(record, model.Field{Key: "link", Value: model.Crawlable(link)})
	}

	return model.Output{
		Source:    p.Source(),
		StartedBy: input.Source,
		Input:     input.RawInput,
		Data:      []model.Record{record},
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// getPage retrieves a page from the pool or creates a blank one.
func (p *Processor) getPage() (*rod.Page, error) {
	select {
	case page := <-p.pool:
		return page, nil
	default:
		return p.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
}

// putPage returns a page to the pool, navigating it to a blank page first
// to release the memory held by the last render.
func (p *Processor) putPage(page *rod.Page) {
	_ = page.Navigate("about:blank")

	select {
	case p.pool <- page:
	default:
		_ = page.Close()
	}
}
