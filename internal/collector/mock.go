package collector

import (
	"context"
	"sync"
	"time"

	"PivotLevels/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price        float64
	DailyData    map[string]model.Series
	IntradayData map[string]model.Series
	Errs         map[string]error // per-symbol failure
	Now          time.Time
	Calls        []string

	mu sync.Mutex
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailySeries(_ context.Context, symbol string, _ bool) (model.Series, error) {
	m.record("daily:" + symbol)
	if err := m.Errs[symbol]; err != nil {
		return nil, err
	}
	if s, ok := m.DailyData[symbol]; ok {
		return s, nil
	}
	return generateMockBars(m.Price, m.now(), 24*time.Hour, 30), nil
}

func (m *MockFetcher) FetchIntradaySeries(_ context.Context, symbol, _ string, barInterval int) (model.Series, error) {
	m.record("intraday:" + symbol)
	if err := m.Errs[symbol]; err != nil {
		return nil, err
	}
	if s, ok := m.IntradayData[symbol]; ok {
		return s, nil
	}
	if barInterval <= 0 {
		barInterval = 1
	}
	return generateMockBars(m.Price, m.now(), time.Duration(barInterval)*time.Minute, 120), nil
}

func (m *MockFetcher) FetchHistory(ctx context.Context, symbol string, extended bool) (*model.SeriesDocument, error) {
	s, err := m.FetchDailySeries(ctx, symbol, extended)
	if err != nil {
		return nil, err
	}
	return &model.SeriesDocument{Series: s}, nil
}

func (m *MockFetcher) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, call)
}

func (m *MockFetcher) now() time.Time {
	if m.Now.IsZero() {
		return time.Now()
	}
	return m.Now
}

func generateMockBars(basePrice float64, end time.Time, step time.Duration, count int) model.Series {
	if basePrice == 0 {
		basePrice = 5000
	}
	bars := make(model.Series, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.Bar{
			Time:   end.Add(-time.Duration(count-i) * step).Unix(),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
