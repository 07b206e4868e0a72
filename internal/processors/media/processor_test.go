package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/IshaanNene/polycrawl/internal/model"
)

func TestCanProcessMatchesKnownExtensions(t *testing.T) {
	p := New(Config{}, nil)
	cases := []struct {
		raw  string
		want bool
	}{
		{"https://example.com/photo.jpg", true},
		{"https://example.com/video.mp4", true},
		{"https://example.com/doc.pdf", true},
		{"https://example.com/page.html", false},
		{"https://example.com/", false},
		{"not a url", false},
	}
	for _, tc := range cases {
		input, _ := model.NewCrawlingInput(model.RootSource, tc.raw)
		if got := p.CanProcess(context.Background(), input, model.NewCrawlingContext()); got != tc.want {
			t.Errorf("CanProcess(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestProcessDownloadsAndHashes(t *testing.T) {
	dir := t.TempDir()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("fake-png-bytes"))
	}))
	defer srv.Close()

	p := New(Config{OutputDir: dir}, nil)
	input, _ := model.NewCrawlingInput(model.RootSource, srv.URL+"/image.png")

	out, err := p.Process(context.Background(), input, model.NewCrawlingContext())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out.Data) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out.Data))
	}

	localPath, ok := out.Data[0].Get("local_path")
	if !ok {
		t.Fatal("expected local_path field")
	}
	if localPath.Crawlable {
		t.Error("local_path should not be crawlable")
	}
	if _, err := os.Stat(localPath.Value); err != nil {
		t.Errorf("expected file at %s: %v", localPath.Value, err)
	}

	mediaType, _ := out.Data[0].Get("media_type")
	if mediaType.Value != string(Image) {
		t.Errorf("media_type = %q, want %q", mediaType.Value, Image)
	}
}

func TestProcessRejectsDuplicateDownload(t *testing.T) {
	dir := t.TempDir()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("bytes"))
	}))
	defer srv.Close()

	p := New(Config{OutputDir: dir}, nil)
	input, _ := model.NewCrawlingInput(model.RootSource, srv.URL+"/image.png")

	if _, err := p.Process(context.Background(), input, model.NewCrawlingContext()); err != nil {
		t.Fatalf("first Process: %v", err)
	}
	if _, err := p.Process(context.Background(), input, model.NewCrawlingContext()); err == nil {
		t.Fatal("expected error on duplicate download")
	}
}

func TestProcessFailsOnHTTPError(t *testing.T) {
	dir := t.TempDir()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p := New(Config{OutputDir: dir}, nil)
	input, _ := model.NewCrawlingInput(model.RootSource, srv.URL+"/missing.jpg")
	if _, err := p.Process(context.Background(), input, model.NewCrawlingContext()); err == nil {
		t.Fatal("expected error for HTTP 404")
	}
}
