package recorder

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"PivotLevels/internal/model"
)

// SQLiteRecorder stores one row per symbol run, plus the derived levels of
// successful runs.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while a batch is writing.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func levelColumns() []string {
	cols := make([]string, len(model.CanonicalOrder))
	for i, l := range model.CanonicalOrder {
		cols[i] = strings.ToLower(string(l))
	}
	return cols
}

func (r *SQLiteRecorder) migrate() error {
	var levelDefs strings.Builder
	for _, c := range levelColumns() {
		fmt.Fprintf(&levelDefs, ",\n\t\t\t%s REAL", c)
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS symbol_runs (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id    TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			symbol    TEXT NOT NULL,
			status    TEXT NOT NULL,
			error     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_symbol_runs_run ON symbol_runs(run_id)`,

		`CREATE TABLE IF NOT EXISTS pivot_levels (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id        TEXT NOT NULL,
			timestamp     INTEGER NOT NULL,
			symbol        TEXT NOT NULL,
			session_time  INTEGER,
			session_open  REAL,
			session_high  REAL,
			session_low   REAL,
			session_close REAL,
			pm_high       REAL,
			pm_low        REAL,
			overridden    INTEGER,
			variant       TEXT` + levelDefs.String() + `
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pivot_levels_symbol ON pivot_levels(symbol, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun stores the run status and, for successful runs, the levels.
// Levels the variant did not compute are stored as NULL.
func (r *SQLiteRecorder) RecordRun(run *SymbolRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := run.At.Unix()
	var errText sql.NullString
	if run.Err != nil {
		errText = sql.NullString{String: run.Err.Error(), Valid: true}
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO symbol_runs (run_id, timestamp, symbol, status, error) VALUES (?,?,?,?,?)`,
		run.RunID, ts, run.Symbol, run.Status(), errText); err != nil {
		return fmt.Errorf("insert symbol run: %w", err)
	}

	if res := run.Result; res != nil {
		var pmHigh, pmLow sql.NullFloat64
		if res.Premarket != nil {
			pmHigh = sql.NullFloat64{Float64: res.Premarket.High, Valid: true}
			pmLow = sql.NullFloat64{Float64: res.Premarket.Low, Valid: true}
		}
		args := []any{
			run.RunID, ts, run.Symbol,
			res.Session.Time, res.Session.Open, res.Session.High, res.Session.Low, res.Session.Close,
			pmHigh, pmLow, res.Overridden, res.Variant,
		}
		for _, l := range model.CanonicalOrder {
			v, ok := res.Levels.Get(l)
			args = append(args, sql.NullFloat64{Float64: v, Valid: ok})
		}

		cols := levelColumns()
		query := `INSERT INTO pivot_levels
			(run_id, timestamp, symbol, session_time, session_open, session_high, session_low, session_close,
			 pm_high, pm_low, overridden, variant, ` + strings.Join(cols, ", ") + `)
			VALUES (?` + strings.Repeat(",?", len(args)-1) + `)`
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("insert pivot levels: %w", err)
		}
	}

	return tx.Commit()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
