package store

import (
	"context"
	"errors"
	"os"
	"sort"
	"testing"

	"github.com/IshaanNene/polycrawl/internal/model"
)

func sampleResult(initial string) model.CrawlingResult {
	return model.CrawlingResult{
		InitialInputs: []string{initial},
		Context: []model.StoredOutput{
			{
				Source:    model.Source{Name: "web", ID: "web-1"},
				StartedBy: model.RootSource,
				Input:     initial,
				Data: []model.StoredRecord{
					{
						{Key: "title", Value: "hello"},
						{Key: "link", Value: "https://example.com/a"},
					},
				},
				Timestamp: 1000,
			},
		},
		Duration: model.Duration{StartMs: 1000, EndMs: 2000},
	}
}

func runStoreContract(t *testing.T, s CrawlingResultStore) {
	t.Helper()
	ctx := context.Background()

	id, err := s.Save(ctx, sampleResult("https://example.com"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id == "" {
		t.Fatal("Save returned empty id")
	}

	got, err := s.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Context) != 1 || got.Context[0].Source.ID != "web-1" {
		t.Fatalf("round-tripped result mismatch: %+v", got)
	}
	if v, ok := got.Context[0].Data[0].Get("title"); !ok || v != "hello" {
		t.Fatalf("round-tripped field mismatch: %v %v", v, ok)
	}

	id2, err := s.Save(ctx, sampleResult("https://example.org"))
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}

	all, err := s.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 results, got %d", len(all))
	}

	if err := s.DeleteByID(ctx, id); err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if _, err := s.GetByID(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteByID(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}

	if err := s.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	all, err = s.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll after DeleteAll: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty store after DeleteAll, got %d", len(all))
	}
	_ = id2
}

func TestMemoryStoreContract(t *testing.T) {
	runStoreContract(t, NewMemory())
}

func TestFileStoreContract(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFile(dir, nil)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	runStoreContract(t, s)
}

func TestFileStoreWireShapeMatchesReference(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFile(dir, nil)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	ctx := context.Background()
	id, err := s.Save(ctx, sampleResult("https://example.com"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := os.ReadFile(s.path(id))
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	text := string(raw)
	for _, want := range []string{
		`"initialInputs"`, `"outputs"`, `"crawlingStartTimeMs"`, `"crawlingEndTimeMs"`,
		`"source"`, `"startedBy"`, `"input"`, `"data"`, `"timestamp"`,
	} {
		if !contains(text, want) {
			t.Errorf("stored JSON missing expected key %q:\n%s", want, text)
		}
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

func TestFileStoreGetAllIgnoresNonJSONFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFile(dir, nil)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	if err := os.WriteFile(dir+"/notes.txt", []byte("hello"), 0o644); err != nil {
		t.Fatalf("writing stray file: %v", err)
	}
	ctx := context.Background()
	if _, err := s.Save(ctx, sampleResult("https://example.com")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	all, err := s.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 result ignoring stray file, got %d", len(all))
	}
}

func TestMemoryStoreIDsAreUnique(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	ids := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		id, err := s.Save(ctx, sampleResult("https://example.com"))
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for i := 1; i < len(ids); i++ {
		if ids[i] == ids[i-1] {
			t.Fatalf("duplicate id generated: %s", ids[i])
		}
	}
}
