package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"PivotLevels/internal/calculator"
	"PivotLevels/internal/errs"
	"PivotLevels/internal/model"
)

// Collector runs the per-symbol pipeline: daily series, intraday series,
// session selection, premarket extremes and pivots.
type Collector struct {
	Fetcher     Fetcher
	Clock       calculator.SessionClock
	Variant     calculator.Variant
	BarType     string
	BarInterval int
	Extended    bool
	Now         func() time.Time
	Log         zerolog.Logger
}

// NewCollector creates a Collector with the default session clock, the
// extended pivot set and one-minute intraday bars.
func NewCollector(fetcher Fetcher, log zerolog.Logger) *Collector {
	return &Collector{
		Fetcher:     fetcher,
		Clock:       calculator.DefaultSessionClock,
		Variant:     calculator.VariantExtended,
		BarType:     "minute",
		BarInterval: 1,
		Extended:    true,
		Now:         time.Now,
		Log:         log.With().Str("component", "collector").Logger(),
	}
}

// Collect fetches both series for symbol and derives its levels. A missing
// premarket is soft and only logged; every other failure aborts the symbol.
func (c *Collector) Collect(ctx context.Context, symbol string) (*model.PivotResult, error) {
	log := c.Log.With().Str("symbol", symbol).Logger()

	daily, err := c.Fetcher.FetchDailySeries(ctx, symbol, c.Extended)
	if err != nil {
		return nil, fmt.Errorf("fetch daily series: %w", err)
	}
	prev, ok := calculator.PreviousSession(daily)
	if !ok {
		return nil, errs.NoData("daily series for %s has %d bars, need 2", symbol, len(daily))
	}

	intraday, err := c.Fetcher.FetchIntradaySeries(ctx, symbol, c.BarType, c.BarInterval)
	if err != nil {
		return nil, fmt.Errorf("fetch intraday series: %w", err)
	}

	cutoff := calculator.SessionOpenCutoff(c.Now(), c.Clock)
	pm := calculator.PremarketHighLow(intraday, cutoff)
	if pm == nil {
		log.Warn().
			Int("intraday_bars", len(intraday)).
			Time("cutoff", time.Unix(cutoff, 0).UTC()).
			Msg("no premarket bars before cutoff, using session range")
	}

	session := model.RangeOf(prev)
	levels, err := calculator.DerivePivots(session, pm, c.Variant)
	if err != nil {
		return nil, fmt.Errorf("derive pivots: %w", err)
	}
	_, _, overridden := calculator.SelectRange(session, pm)

	log.Debug().
		Time("session", prev.Timestamp()).
		Bool("premarket_override", overridden).
		Int("levels", len(levels)).
		Msg("pivots derived")

	return &model.PivotResult{
		Symbol:     symbol,
		Session:    prev,
		Premarket:  pm,
		Overridden: overridden,
		Variant:    string(c.Variant),
		Levels:     levels,
	}, nil
}
