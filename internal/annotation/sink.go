package annotation

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"PivotLevels/internal/errs"
	"PivotLevels/internal/model"
)

// Kind separates the CSV files written per display symbol.
type Kind string

const (
	KindPivots Kind = "pivots"
	KindOHLC   Kind = "ohlc"
)

// DefaultFamilies are matched against provider symbols to pick an output folder.
var DefaultFamilies = []string{"es", "nq"}

// File is one CSV to be written.
type File struct {
	Family string
	Kind   Kind
	Symbol string
	Rows   []model.AnnotationRow
}

// Sink writes annotation CSVs under <Dir>/<family>/<kind>/<symbol>.csv,
// replacing any previous content.
type Sink struct {
	Dir      string
	Archive  bool
	Families []string
	Now      func() time.Time
	Log      zerolog.Logger
}

// NewSink creates a Sink with the default families.
func NewSink(dir string, archive bool, log zerolog.Logger) *Sink {
	return &Sink{
		Dir:      dir,
		Archive:  archive,
		Families: DefaultFamilies,
		Now:      time.Now,
		Log:      log.With().Str("component", "sink").Logger(),
	}
}

// Family returns the instrument's configured family, or the first known
// family found (case-insensitively) in its provider symbol.
func (s *Sink) Family(inst model.Instrument) string {
	if inst.Family != "" {
		return inst.Family
	}
	api := strings.ToLower(inst.APISymbol)
	for _, f := range s.Families {
		if strings.Contains(api, strings.ToLower(f)) {
			return f
		}
	}
	return "other"
}

// Path returns where a file of the given kind for symbol is written.
func (s *Sink) Path(family string, kind Kind, symbol string) string {
	return filepath.Join(s.Dir, family, string(kind), symbol+".csv")
}

// ArchivePath returns where the previous content of a file is copied to.
func (s *Sink) ArchivePath(family string, kind Kind, symbol string) string {
	name := s.Now().Format("January-2") + "-" + symbol + ".csv"
	return filepath.Join(s.Dir, family, string(kind), "archive", name)
}

// WriteAll writes every file in order and stops at the first failure.
// Files written before the failure are not rolled back.
func (s *Sink) WriteAll(files []File) ([]string, error) {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		p, err := s.Write(f)
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// Write renders f and overwrites its target file.
func (s *Sink) Write(f File) (string, error) {
	path := s.Path(f.Family, f.Kind, f.Symbol)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", &errs.IOError{Op: "mkdir", Path: filepath.Dir(path), Err: err}
	}

	if s.Archive {
		if err := s.archive(path, s.ArchivePath(f.Family, f.Kind, f.Symbol)); err != nil {
			s.Log.Warn().Err(err).Str("path", path).Msg("archive previous csv failed")
		}
	}

	data, err := Render(f.Rows)
	if err != nil {
		return "", &errs.IOError{Op: "encode", Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", &errs.IOError{Op: "write", Path: path, Err: err}
	}
	return path, nil
}

// archive copies src to dst. A missing src is not an error.
func (s *Sink) archive(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return &errs.IOError{Op: "read", Path: src, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return &errs.IOError{Op: "mkdir", Path: filepath.Dir(dst), Err: err}
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return &errs.IOError{Op: "write", Path: dst, Err: err}
	}
	return nil
}

// Render encodes the header and rows as CSV.
func Render(rows []model.AnnotationRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Header); err != nil {
		return nil, err
	}
	for _, r := range rows {
		if err := w.Write(Record(r)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
