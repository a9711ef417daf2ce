package recorder

import (
	"errors"
	"time"

	"PivotLevels/internal/errs"
	"PivotLevels/internal/model"
)

// Status values stored per symbol run.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// SymbolRun is the outcome of one symbol in one batch.
type SymbolRun struct {
	RunID  string
	At     time.Time
	Symbol string
	Result *model.PivotResult // nil when the symbol failed
	Err    error
}

// Status reports StatusOK, StatusSkipped for a NoData outcome, or StatusFailed.
func (r *SymbolRun) Status() string {
	if errors.Is(r.Err, errs.ErrNoData) {
		return StatusSkipped
	}
	if r.Err != nil || r.Result == nil {
		return StatusFailed
	}
	return StatusOK
}

// Recorder persists computed levels for later analysis.
type Recorder interface {
	RecordRun(run *SymbolRun) error
	Close() error
}
