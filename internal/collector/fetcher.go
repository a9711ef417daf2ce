package collector

import (
	"context"

	"PivotLevels/internal/model"
)

// Fetcher is the market data provider the pipeline reads bars from.
type Fetcher interface {
	// FetchDailySeries returns daily bars, ascending, the last of which may be
	// the session still in progress.
	FetchDailySeries(ctx context.Context, symbol string, extended bool) (model.Series, error)
	// FetchIntradaySeries returns the current session's intraday bars.
	FetchIntradaySeries(ctx context.Context, symbol, barType string, barInterval int) (model.Series, error)
	// FetchHistory returns the full daily history with provider metadata.
	FetchHistory(ctx context.Context, symbol string, extended bool) (*model.SeriesDocument, error)
	Name() string
}
