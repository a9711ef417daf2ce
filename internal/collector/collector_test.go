package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PivotLevels/internal/calculator"
	"PivotLevels/internal/errs"
	"PivotLevels/internal/model"
)

var runDay = time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)

func fixture() *MockFetcher {
	open := time.Date(2025, 3, 14, 14, 30, 0, 0, time.UTC).Unix()
	return &MockFetcher{
		DailyData: map[string]model.Series{
			"ES": {
				{Time: open - 2*86400, High: 118, Low: 95, Close: 100},
				{Time: open - 86400, High: 120, Low: 90, Close: 110},
				{Time: open, High: 125, Low: 108, Close: 112},
			},
		},
		IntradayData: map[string]model.Series{
			"ES": {
				{Time: open - 120, High: 130, Low: 100},
				{Time: open - 60, High: 115, Low: 80},
				{Time: open, High: 999, Low: 1}, // regular session, excluded
			},
		},
		Errs: map[string]error{},
	}
}

func newTestCollector(f Fetcher) *Collector {
	c := NewCollector(f, zerolog.Nop())
	c.Now = func() time.Time { return runDay }
	return c
}

func TestCollect_PremarketOverride(t *testing.T) {
	f := fixture()
	res, err := newTestCollector(f).Collect(context.Background(), "ES")
	require.NoError(t, err)

	assert.Equal(t, float64(110), res.Session.Close)
	require.NotNil(t, res.Premarket)
	assert.Equal(t, model.PremarketRange{High: 130, Low: 80}, *res.Premarket)
	assert.True(t, res.Overridden)
	assert.Equal(t, float64(110), res.Levels[model.CP])
	assert.Equal(t, float64(138), res.Levels[model.R4])
	assert.Equal(t, []string{"daily:ES", "intraday:ES"}, f.Calls)
}

func TestCollect_NoPremarketUsesSession(t *testing.T) {
	f := fixture()
	f.IntradayData["ES"] = model.Series{}
	c := newTestCollector(f)
	c.Variant = calculator.VariantFour

	res, err := c.Collect(context.Background(), "ES")
	require.NoError(t, err)
	assert.Nil(t, res.Premarket)
	assert.False(t, res.Overridden)
	assert.Equal(t, model.Levels{model.R4: 127, model.R3: 118, model.CP: 110, model.S3: 102, model.S4: 94}, res.Levels)
}

func TestCollect_ShortDailySeriesIsNoData(t *testing.T) {
	f := fixture()
	f.DailyData["ES"] = f.DailyData["ES"][:1]
	_, err := newTestCollector(f).Collect(context.Background(), "ES")
	assert.ErrorIs(t, err, errs.ErrNoData)
	assert.Equal(t, []string{"daily:ES"}, f.Calls, "intraday must not be fetched")
}

func TestCollect_FetchFailureAborts(t *testing.T) {
	f := fixture()
	f.Errs["ES"] = &errs.FetchError{Symbol: "ES", Status: 500}
	_, err := newTestCollector(f).Collect(context.Background(), "ES")
	assert.ErrorIs(t, err, errs.ErrFetch)
}

func TestCollect_InvalidRange(t *testing.T) {
	f := fixture()
	f.DailyData["ES"][1] = model.Bar{Time: f.DailyData["ES"][1].Time, High: 100, Low: 100, Close: 100}
	f.IntradayData["ES"] = nil
	_, err := newTestCollector(f).Collect(context.Background(), "ES")
	var ire *errs.InvalidRangeError
	assert.True(t, errors.As(err, &ire))
}
