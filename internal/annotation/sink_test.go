package annotation

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PivotLevels/internal/errs"
	"PivotLevels/internal/model"
)

func newTestSink(t *testing.T, archive bool) *Sink {
	s := NewSink(t.TempDir(), archive, zerolog.Nop())
	s.Now = func() time.Time { return time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC) }
	return s
}

func TestFamily(t *testing.T) {
	s := newTestSink(t, false)
	assert.Equal(t, "es", s.Family(model.Instrument{APISymbol: "CME_MINI:ES1!"}))
	assert.Equal(t, "nq", s.Family(model.Instrument{APISymbol: "CME_MINI:NQ1!"}))
	assert.Equal(t, "other", s.Family(model.Instrument{APISymbol: "COMEX:GC1!"}))
	assert.Equal(t, "gold", s.Family(model.Instrument{APISymbol: "COMEX:GC1!", Family: "gold"}))
}

func TestWrite_Overwrites(t *testing.T) {
	s := newTestSink(t, false)
	f := File{Family: "es", Kind: KindPivots, Symbol: "ESM5.CME@RITHMIC", Rows: LevelRows("ESM5.CME@RITHMIC", model.Levels{model.CP: 1})}

	path, err := s.Write(f)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Dir, "es", "pivots", "ESM5.CME@RITHMIC.csv"), path)

	f.Rows = LevelRows("ESM5.CME@RITHMIC", model.Levels{model.CP: 2})
	_, err = s.Write(f)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), ",2.00,CP,")
	assert.NotContains(t, string(data), ",1.00,CP,")
	assert.NoDirExists(t, filepath.Join(s.Dir, "es", "pivots", "archive"))
}

func TestWrite_ArchivesPreviousFile(t *testing.T) {
	s := newTestSink(t, true)
	f := File{Family: "nq", Kind: KindOHLC, Symbol: "NQM5.CME@RITHMIC", Rows: OHLCRows("NQM5.CME@RITHMIC", model.Bar{High: 1})}

	// First write has nothing to archive.
	_, err := s.Write(f)
	require.NoError(t, err)
	archived := filepath.Join(s.Dir, "nq", "ohlc", "archive", "March-14-NQM5.CME@RITHMIC.csv")
	assert.NoFileExists(t, archived)

	first, err := os.ReadFile(s.Path("nq", KindOHLC, "NQM5.CME@RITHMIC"))
	require.NoError(t, err)

	f.Rows = OHLCRows("NQM5.CME@RITHMIC", model.Bar{High: 2})
	_, err = s.Write(f)
	require.NoError(t, err)

	got, err := os.ReadFile(archived)
	require.NoError(t, err)
	assert.Equal(t, first, got)
}

func TestWriteAll_StopsAtFirstFailure(t *testing.T) {
	s := newTestSink(t, false)
	// A regular file where a directory is needed makes MkdirAll fail.
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir, "blocked"), nil, 0644))

	paths, err := s.WriteAll([]File{
		{Family: "es", Kind: KindPivots, Symbol: "A"},
		{Family: "blocked", Kind: KindPivots, Symbol: "B"},
		{Family: "es", Kind: KindPivots, Symbol: "C"},
	})
	assert.ErrorIs(t, err, errs.ErrIO)
	assert.Len(t, paths, 1)
	assert.NoFileExists(t, s.Path("es", KindPivots, "C"))
}
