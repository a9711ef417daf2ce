package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PivotLevels/internal/errs"
	"PivotLevels/internal/model"
)

func openTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "pivots.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteRecorder_RecordRun(t *testing.T) {
	r := openTestRecorder(t)
	runID := uuid.NewString()
	at := time.Date(2025, 3, 14, 13, 0, 0, 0, time.UTC)

	ok := &SymbolRun{
		RunID:  runID,
		At:     at,
		Symbol: "CME_MINI:ES1!",
		Result: &model.PivotResult{
			Symbol:     "CME_MINI:ES1!",
			Session:    model.Bar{Time: 1741824000, Open: 100, High: 120, Low: 90, Close: 110},
			Premarket:  &model.PremarketRange{High: 130, Low: 80},
			Overridden: true,
			Variant:    "four",
			Levels:     model.Levels{model.R4: 138, model.R3: 124, model.CP: 110, model.S3: 96, model.S4: 83},
		},
	}
	failed := &SymbolRun{RunID: runID, At: at, Symbol: "CME_MINI:NQ1!", Err: errors.New("fetch: status 429")}

	require.NoError(t, r.RecordRun(ok))
	require.NoError(t, r.RecordRun(failed))

	var status string
	var errText sql.NullString
	require.NoError(t, r.db.QueryRow(`SELECT status, error FROM symbol_runs WHERE symbol = ?`, "CME_MINI:NQ1!").Scan(&status, &errText))
	assert.Equal(t, StatusFailed, status)
	assert.Equal(t, "fetch: status 429", errText.String)

	var count int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM symbol_runs WHERE run_id = ?`, runID).Scan(&count))
	assert.Equal(t, 2, count)
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM pivot_levels`).Scan(&count))
	assert.Equal(t, 1, count)

	var r4, cp float64
	var r6 sql.NullFloat64
	var overridden bool
	require.NoError(t, r.db.QueryRow(`SELECT r4, cp, r6, overridden FROM pivot_levels WHERE run_id = ?`, runID).Scan(&r4, &cp, &r6, &overridden))
	assert.Equal(t, 138.0, r4)
	assert.Equal(t, 110.0, cp)
	assert.False(t, r6.Valid)
	assert.True(t, overridden)
}

func TestSymbolRun_Status(t *testing.T) {
	assert.Equal(t, StatusOK, (&SymbolRun{Result: &model.PivotResult{}}).Status())
	assert.Equal(t, StatusFailed, (&SymbolRun{}).Status())
	assert.Equal(t, StatusFailed, (&SymbolRun{Result: &model.PivotResult{}, Err: errors.New("x")}).Status())
	assert.Equal(t, StatusSkipped, (&SymbolRun{Err: fmt.Errorf("collect: %w", errs.NoData("daily series for ES"))}).Status())
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordRun(&SymbolRun{}))
	assert.NoError(t, r.Close())
}
