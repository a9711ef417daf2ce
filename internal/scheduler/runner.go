package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"PivotLevels/internal/annotation"
	"PivotLevels/internal/cache"
	"PivotLevels/internal/collector"
	"PivotLevels/internal/errs"
	"PivotLevels/internal/model"
	"PivotLevels/internal/notifier"
	"PivotLevels/internal/recorder"
)

// Outcome is what happened to one instrument in a batch.
type Outcome struct {
	Instrument model.Instrument
	Result     *model.PivotResult
	Files      []string
	Err        error
}

// Skipped reports a soft failure: the provider had too little data.
func (o Outcome) Skipped() bool { return errors.Is(o.Err, errs.ErrNoData) }

// Failed reports a hard failure.
func (o Outcome) Failed() bool { return o.Err != nil && !o.Skipped() }

// Report lists outcomes in instrument order.
type Report struct {
	RunID    string
	Task     string
	Outcomes []Outcome
}

// Err joins the hard failures, or returns nil if there were none.
func (r Report) Err() error {
	var all []error
	for _, o := range r.Outcomes {
		if o.Failed() {
			all = append(all, fmt.Errorf("%s: %w", o.Instrument.APISymbol, o.Err))
		}
	}
	return errors.Join(all...)
}

// Runner executes a task for every configured instrument. One instrument's
// failure never stops the others.
type Runner struct {
	Collector   *collector.Collector
	Fetcher     collector.Fetcher
	Sink        *annotation.Sink
	Cache       *cache.Store
	Recorder    recorder.Recorder
	Notifier    notifier.Notifier
	Instruments []model.Instrument
	Concurrency int
	Extended    bool
	Now         func() time.Time
	Log         zerolog.Logger
}

// NewRunner wires a runner with a noop recorder and notifier.
func NewRunner(col *collector.Collector, sink *annotation.Sink, store *cache.Store, instruments []model.Instrument, log zerolog.Logger) *Runner {
	return &Runner{
		Collector:   col,
		Fetcher:     col.Fetcher,
		Sink:        sink,
		Cache:       store,
		Recorder:    recorder.NewNoopRecorder(),
		Notifier:    notifier.NoopNotifier{},
		Instruments: instruments,
		Concurrency: 1,
		Extended:    true,
		Now:         time.Now,
		Log:         log.With().Str("component", "runner").Logger(),
	}
}

type task func(ctx context.Context, inst model.Instrument) Outcome

func (r *Runner) each(ctx context.Context, name string, fn task) Report {
	rep := Report{
		RunID:    uuid.NewString(),
		Task:     name,
		Outcomes: make([]Outcome, len(r.Instruments)),
	}
	log := r.Log.With().Str("task", name).Str("run_id", rep.RunID).Logger()
	log.Info().Int("instruments", len(r.Instruments)).Msg("batch started")

	limit := r.Concurrency
	if limit < 1 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, inst := range r.Instruments {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				rep.Outcomes[i] = Outcome{Instrument: inst, Err: err}
				return nil
			}
			out := fn(gctx, inst)
			out.Instrument = inst
			rep.Outcomes[i] = out

			l := log.With().Str("symbol", inst.APISymbol).Logger()
			switch {
			case out.Skipped():
				l.Warn().Err(out.Err).Msg("skipped")
			case out.Failed():
				l.Error().Err(out.Err).Msg("failed")
			default:
				l.Info().Strs("files", out.Files).Msg("done")
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, o := range rep.Outcomes {
		if o.Failed() {
			failed++
		}
	}
	log.Info().Int("failed", failed).Msg("batch finished")
	return rep
}

// RunLevels derives pivots for every instrument and writes both CSV kinds
// for each display symbol. Nothing is written for an instrument until all
// its rows are computed.
func (r *Runner) RunLevels(ctx context.Context) Report {
	rep := r.each(ctx, "levels", r.levels)

	var results []*model.PivotResult
	failures := map[string]error{}
	for _, o := range rep.Outcomes {
		run := &recorder.SymbolRun{RunID: rep.RunID, At: r.Now(), Symbol: o.Instrument.APISymbol, Result: o.Result, Err: o.Err}
		if err := r.Recorder.RecordRun(run); err != nil {
			r.Log.Error().Err(err).Str("symbol", run.Symbol).Msg("record run")
		}
		if o.Failed() {
			failures[o.Instrument.APISymbol] = o.Err
		} else if o.Err == nil && o.Result != nil {
			results = append(results, o.Result)
		}
	}

	if err := r.Notifier.Send(ctx, notifier.FormatRunSummary(r.Now(), results, failures)); err != nil {
		r.Log.Error().Err(err).Msg("send run summary")
	}
	return rep
}

func (r *Runner) levels(ctx context.Context, inst model.Instrument) Outcome {
	res, err := r.Collector.Collect(ctx, inst.APISymbol)
	if err != nil {
		return Outcome{Err: err}
	}

	family := r.Sink.Family(inst)
	files := make([]annotation.File, 0, 2*len(inst.DisplaySymbols))
	for _, display := range inst.DisplaySymbols {
		files = append(files,
			annotation.File{Family: family, Kind: annotation.KindPivots, Symbol: display, Rows: annotation.LevelRows(display, res.Levels)},
			annotation.File{Family: family, Kind: annotation.KindOHLC, Symbol: display, Rows: annotation.OHLCRows(display, res.Session)},
		)
	}

	paths, err := r.Sink.WriteAll(files)
	return Outcome{Result: res, Files: paths, Err: err}
}

// RefreshHistory fetches the full history of every instrument and appends
// it to the cache.
func (r *Runner) RefreshHistory(ctx context.Context) Report {
	return r.each(ctx, "history", func(ctx context.Context, inst model.Instrument) Outcome {
		doc, err := r.Fetcher.FetchHistory(ctx, inst.APISymbol, r.Extended)
		if err != nil {
			return Outcome{Err: fmt.Errorf("fetch history: %w", err)}
		}
		if len(doc.Series) == 0 {
			return Outcome{Err: errs.NoData("history for %s", inst.APISymbol)}
		}
		if _, err := r.Cache.Append(inst.APISymbol, doc); err != nil {
			return Outcome{Err: err}
		}
		return Outcome{Files: []string{r.Cache.Path(inst.APISymbol)}}
	})
}

// WriteCachedOHLC writes OHLC CSVs from the last bar in the cache, without
// touching the provider. The cache is refreshed after the close, so its last
// bar is the most recent completed session.
func (r *Runner) WriteCachedOHLC(ctx context.Context) Report {
	return r.each(ctx, "ohlc", func(_ context.Context, inst model.Instrument) Outcome {
		doc, err := r.Cache.Load(inst.APISymbol)
		if err != nil {
			return Outcome{Err: err}
		}
		bar, ok := doc.Series.Last()
		if !ok {
			return Outcome{Err: errs.NoData("cache for %s is empty", inst.APISymbol)}
		}

		family := r.Sink.Family(inst)
		files := make([]annotation.File, 0, len(inst.DisplaySymbols))
		for _, display := range inst.DisplaySymbols {
			files = append(files, annotation.File{Family: family, Kind: annotation.KindOHLC, Symbol: display, Rows: annotation.OHLCRows(display, bar)})
		}
		paths, err := r.Sink.WriteAll(files)
		return Outcome{Files: paths, Err: err}
	})
}
