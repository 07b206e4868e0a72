package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// downloadResult describes one completed download, grounded on the
// teacher's media.DownloadResult.
type downloadResult struct {
	LocalPath   string
	Filename    string
	Size        int64
	ContentType string
	MediaType   Type
	Hash        string
}

// downloader fetches a remote file to disk, organized into a
// per-media-type subdirectory under outputDir, computing a sha256 hash
// as it streams the body to disk.
type downloader struct {
	outputDir string
	client    *http.Client
	maxBytes  int64
}

func newDownloader(outputDir string, timeout time.Duration, maxBytes int64) *downloader {
	_ = os.MkdirAll(outputDir, 0o755)
	return &downloader{
		outputDir: outputDir,
		client:    &http.Client{Timeout: timeout},
		maxBytes:  maxBytes,
	}
}

func (d *downloader) download(ctx context.Context, rawURL string) (downloadResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return downloadResult{}, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return downloadResult{}, fmt.Errorf("media: fetching %q: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return downloadResult{}, fmt.Errorf("media: %q returned HTTP %d", rawURL, resp.StatusCode)
	}
	if d.maxBytes > 0 && resp.ContentLength > d.maxBytes {
		return downloadResult{}, fmt.Errorf("media: %q is %d bytes, exceeds max %d", rawURL, resp.ContentLength, d.maxBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType := classify(contentType)
	filename := filenameFor(rawURL, contentType)

	subDir := filepath.Join(d.outputDir, string(mediaType))
	if err := os.MkdirAll(subDir, 0o755); err != nil {
		return downloadResult{}, fmt.Errorf("media: creating %s: %w", subDir, err)
	}
	localPath := filepath.Join(subDir, filename)

	f, err := os.Create(localPath)
	if err != nil {
		return downloadResult{}, fmt.Errorf("media: creating file: %w", err)
	}
	defer f.Close()

	hasher := sha256.New()
	writer := io.MultiWriter(f, hasher)

	var reader io.Reader = resp.Body
	if d.maxBytes > 0 {
		reader = io.LimitReader(reader, d.maxBytes)
	}

	size, err := io.Copy(writer, reader)
	if err != nil {
		os.Remove(localPath)
		return downloadResult{}, fmt.Errorf("media: writing file: %w", err)
	}

	return downloadResult{
		LocalPath:   localPath,
		Filename:    filename,
		Size:        size,
		ContentType: contentType,
		MediaType:   mediaType,
		Hash:        hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}
