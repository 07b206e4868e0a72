// Package media is a reference InputProcessor that downloads binary
// media (images, video, audio, documents) referenced by a crawl to
// local disk.
package media

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/IshaanNene/polycrawl/internal/model"
)

// defaultExtensions lists the file extensions this processor claims by
// default; adjust via Config.Extensions to widen or narrow eligibility.
var defaultExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg", ".bmp",
	".mp4", ".webm", ".mov", ".avi",
	".mp3", ".wav", ".ogg", ".flac",
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".zip",
}

// Config configures one Processor instance.
type Config struct {
	SourceID string
	// OutputDir is the root directory downloads are organized under, one
	// subdirectory per Type.
	OutputDir string
	// Extensions overrides the default set of file extensions CanProcess
	// accepts; matching is case-insensitive and suffix-based.
	Extensions []string
	// MaxBytes caps a single download; 0 means unlimited.
	MaxBytes int64
	// Timeout bounds a single download's HTTP round trip.
	Timeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.SourceID == "" {
		c.SourceID = "media"
	}
	if c.OutputDir == "" {
		c.OutputDir = "./media"
	}
	if len(c.Extensions) == 0 {
		c.Extensions = defaultExtensions
	}
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
	return c
}

// Processor downloads eligible URLs to disk and emits their local path,
// hash, and classification as an uncrawlable terminal record: downloaded
// binaries are never themselves re-enqueued for crawling.
type Processor struct {
	cfg Config
	dl  *downloader

	mu   sync.Mutex
	seen map[string]struct{}
}

// New returns a ready-to-register Processor.
func New(cfg Config, logger *slog.Logger) *Processor {
	cfg = cfg.withDefaults()
	return &Processor{
		cfg:  cfg,
		dl:   newDownloader(cfg.OutputDir, cfg.Timeout, cfg.MaxBytes),
		seen: make(map[string]struct{}),
	}
}

// Source implements processor.InputProcessor.
func (p *Processor) Source() model.Source {
	return model.Source{Name: "media", ID: p.cfg.SourceID}
}

// CanProcess implements processor.InputProcessor: true for any absolute
// http(s) URL whose path ends in one of the configured extensions.
func (p *Processor) CanProcess(ctx context.Context, input model.CrawlingInput, view model.ContextView) bool {
	u, err := url.Parse(input.RawInput)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}
	lower := strings.ToLower(u.Path)
	for _, ext := range p.cfg.Extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Process implements processor.InputProcessor. Re-downloading a URL this
// processor instance has already fetched is rejected rather than
// re-fetched, independent of the session-level guard, since a single
// Processor may be shared across sessions with different guards.
func (p *Processor) Process(ctx context.Context, input model.CrawlingInput, view model.ContextView) (model.Output, error) {
	p.mu.Lock()
	if _, dup := p.seen[input.RawInput]; dup {
		p.mu.Unlock()
		return model.Output{}, errAlreadyDownloaded(input.RawInput)
	}
	p.seen[input.RawInput] = struct{}{}
	p.mu.Unlock()

	result, err := p.dl.download(ctx, input.RawInput)
	if err != nil {
		return model.Output{}, err
	}

	record := model.Record{
		{Key: "url", Value: model.Uncrawlable(input.RawInput)},
		{Key: "local_path", Value: model.Uncrawlable(result.LocalPath)},
		{Key: "filename", Value: model.Uncrawlable(result.Filename)},
		{Key: "content_type", Value: model.Uncrawlable(result.ContentType)},
		{Key: "media_type", Value: model.Uncrawlable(string(result.MediaType))},
		{Key: "size", Value: model.Uncrawlable(humanSize(result.Size))},
		{Key: "hash", Value: model.Uncrawlable(result.Hash)},
	}

	return model.Output{
		Source:    p.Source(),
		StartedBy: input.Source,
		Input:     input.RawInput,
		Data:      []model.Record{record},
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

type downloadError struct{ url string }

func (e downloadError) Error() string { return "media: already downloaded: " + e.url }

func errAlreadyDownloaded(url string) error { return downloadError{url: url} }
