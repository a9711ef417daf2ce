// Package cache keeps one JSON history file per provider symbol.
package cache

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"PivotLevels/internal/errs"
	"PivotLevels/internal/model"
)

// Store reads and appends <Dir>/<symbol>.json documents.
type Store struct {
	Dir string
	// Dedupe keeps a single bar per timestamp when appending. When false,
	// new bars are concatenated as-is and repeated runs accumulate duplicates.
	Dedupe bool

	mu sync.Mutex
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string, dedupe bool) *Store {
	return &Store{Dir: dir, Dedupe: dedupe}
}

// Path returns the cache file for symbol.
func (s *Store) Path(symbol string) string {
	return filepath.Join(s.Dir, symbol+".json")
}

// Load reads the cached document. A missing file yields an empty document.
func (s *Store) Load(symbol string) (*model.SeriesDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(symbol)
}

func (s *Store) load(symbol string) (*model.SeriesDocument, error) {
	path := s.Path(symbol)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &model.SeriesDocument{}, nil
		}
		return nil, &errs.IOError{Op: "read", Path: path, Err: err}
	}
	var doc model.SeriesDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &errs.IOError{Op: "decode", Path: path, Err: err}
	}
	return &doc, nil
}

// Append merges fetched into the cached document and writes it back.
// Metadata fields from fetched replace the cached ones.
func (s *Store) Append(symbol string, fetched *model.SeriesDocument) (*model.SeriesDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(symbol)
	if err != nil {
		return nil, err
	}
	if doc.Extra == nil {
		doc.Extra = map[string]json.RawMessage{}
	}
	for k, v := range fetched.Extra {
		doc.Extra[k] = v
	}

	merged := make(model.Series, 0, len(doc.Series)+len(fetched.Series))
	merged = append(merged, doc.Series...)
	merged = append(merged, fetched.Series...)
	if s.Dedupe {
		merged = dedupe(merged)
	}
	doc.Series = merged

	if err := s.save(symbol, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Store) save(symbol string, doc *model.SeriesDocument) error {
	path := s.Path(symbol)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &errs.IOError{Op: "mkdir", Path: filepath.Dir(path), Err: err}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &errs.IOError{Op: "encode", Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &errs.IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// dedupe keeps the last bar seen for each timestamp, sorted ascending.
func dedupe(series model.Series) model.Series {
	byTime := make(map[int64]int, len(series))
	out := make(model.Series, 0, len(series))
	for _, b := range series {
		if i, ok := byTime[b.Time]; ok {
			out[i] = b
			continue
		}
		byTime[b.Time] = len(out)
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}
