package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/IshaanNene/polycrawl/internal/idutil"
	"github.com/IshaanNene/polycrawl/internal/model"
)

// File persists each CrawlingResult as its own JSON document, one file
// per result id under dir, so GetByID/DeleteByID can address results
// independently rather than rewriting one shared array file.
type File struct {
	dir    string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewFile creates dir if needed and returns a File store rooted there.
func NewFile(dir string, logger *slog.Logger) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file store: create dir: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &File{dir: dir, logger: logger.With("component", "file_store")}, nil
}

// wireSource mirrors the reference shape's {name,id} source encoding.
type wireSource struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type wireOutput struct {
	Source    wireSource          `json:"source"`
	StartedBy wireSource          `json:"startedBy"`
	Input     string              `json:"input"`
	Data      []map[string]string `json:"data"`
	Timestamp int64               `json:"timestamp"`
}

type wireResult struct {
	InitialInputs       []string     `json:"initialInputs"`
	Outputs             []wireOutput `json:"outputs"`
	CrawlingStartTimeMs int64        `json:"crawlingStartTimeMs"`
	CrawlingEndTimeMs   int64        `json:"crawlingEndTimeMs"`
}

func toWire(r model.CrawlingResult) wireResult {
	outputs := make([]wireOutput, len(r.Context))
	for i, o := range r.Context {
		data := make([]map[string]string, len(o.Data))
		for j, rec := range o.Data {
			m := make(map[string]string, len(rec))
			for _, f := range rec {
				m[f.Key] = f.Value
			}
			data[j] = m
		}
		outputs[i] = wireOutput{
			Source:    wireSource{Name: o.Source.Name, ID: o.Source.ID},
			StartedBy: wireSource{Name: o.StartedBy.Name, ID: o.StartedBy.ID},
			Input:     o.Input,
			Data:      data,
			Timestamp: o.Timestamp,
		}
	}
	return wireResult{
		InitialInputs:       r.InitialInputs,
		Outputs:             outputs,
		CrawlingStartTimeMs: r.Duration.StartMs,
		CrawlingEndTimeMs:   r.Duration.EndMs,
	}
}

func fromWire(w wireResult) model.CrawlingResult {
	ctxOutputs := make([]model.StoredOutput, len(w.Outputs))
	for i, o := range w.Outputs {
		data := make([]model.StoredRecord, len(o.Data))
		for j, m := range o.Data {
			rec := make(model.StoredRecord, 0, len(m))
			for k, v := range m {
				rec = append(rec, model.StoredField{Key: k, Value: v})
			}
			data[j] = rec
		}
		ctxOutputs[i] = model.StoredOutput{
			Source:    model.Source{Name: o.Source.Name, ID: o.Source.ID},
			StartedBy: model.Source{Name: o.StartedBy.Name, ID: o.StartedBy.ID},
			Input:     o.Input,
			Data:      data,
			Timestamp: o.Timestamp,
		}
	}
	return model.CrawlingResult{
		InitialInputs: w.InitialInputs,
		Context:       ctxOutputs,
		Duration: model.Duration{
			StartMs: w.CrawlingStartTimeMs,
			EndMs:   w.CrawlingEndTimeMs,
		},
	}
}

func (f *File) path(id string) string {
	return filepath.Join(f.dir, id+".json")
}

func (f *File) Save(ctx context.Context, result model.CrawlingResult) (string, error) {
	id := idutil.New()

	f.mu.Lock()
	defer f.mu.Unlock()

	fh, err := os.Create(f.path(id))
	if err != nil {
		return "", fmt.Errorf("file store: create: %w", err)
	}
	defer fh.Close()

	enc := json.NewEncoder(fh)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toWire(result)); err != nil {
		return "", fmt.Errorf("file store: encode: %w", err)
	}
	f.logger.Info("result saved", "id", id, "outputs", len(result.Context))
	return id, nil
}

func (f *File) GetByID(ctx context.Context, id string) (model.CrawlingResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return model.CrawlingResult{}, ErrNotFound
		}
		return model.CrawlingResult{}, fmt.Errorf("file store: read: %w", err)
	}
	var w wireResult
	if err := json.Unmarshal(data, &w); err != nil {
		return model.CrawlingResult{}, fmt.Errorf("file store: decode: %w", err)
	}
	return fromWire(w), nil
}

func (f *File) GetAll(ctx context.Context) ([]model.CrawlingResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("file store: list dir: %w", err)
	}
	var out []model.CrawlingResult
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(f.dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("file store: read %s: %w", e.Name(), err)
		}
		var w wireResult
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("file store: decode %s: %w", e.Name(), err)
		}
		out = append(out, fromWire(w))
	}
	return out, nil
}

func (f *File) DeleteByID(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("file store: remove: %w", err)
	}
	return nil
}

func (f *File) DeleteAll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return fmt.Errorf("file store: list dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(f.dir, e.Name())); err != nil {
			return fmt.Errorf("file store: remove %s: %w", e.Name(), err)
		}
	}
	return nil
}
