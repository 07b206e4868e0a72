package media

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"
)

// Type classifies the kind of media a download represents.
type Type string

const (
	Image    Type = "image"
	Video    Type = "video"
	Audio    Type = "audio"
	Document Type = "document"
	Other    Type = "other"
)

func classify(contentType string) Type {
	ct := strings.ToLower(contentType)
	switch {
	case strings.HasPrefix(ct, "image/"):
		return Image
	case strings.HasPrefix(ct, "video/"):
		return Video
	case strings.HasPrefix(ct, "audio/"):
		return Audio
	case strings.HasPrefix(ct, "application/pdf"),
		strings.HasPrefix(ct, "application/msword"),
		strings.HasPrefix(ct, "application/vnd."):
		return Document
	default:
		return Other
	}
}

// filenameFor derives a local filename from the URL path, falling back to
// a content hash when the path has no usable basename.
func filenameFor(rawURL, contentType string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "unknown"
	}

	filename := path.Base(parsed.Path)
	if filename == "" || filename == "." || filename == "/" {
		hash := sha256.Sum256([]byte(rawURL))
		exts, _ := mime.ExtensionsByType(contentType)
		if len(exts) > 0 {
			return hex.EncodeToString(hash[:8]) + exts[0]
		}
		return hex.EncodeToString(hash[:8])
	}
	return filename
}

func humanSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
