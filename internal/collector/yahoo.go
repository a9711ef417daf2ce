package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"PivotLevels/internal/errs"
	"PivotLevels/internal/model"
)

// YahooFetcher implements Fetcher using the Yahoo Finance chart API. It needs
// no credential and serves as a fallback source.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps provider symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooFetcher{
		BaseURL: "https://query1.finance.yahoo.com/v8/finance/chart",
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		SymbolMap: map[string]string{
			"CME_MINI:ES1!":  "ES=F",
			"CME_MINI:NQ1!":  "NQ=F",
			"CME_MINI:MES1!": "MES=F",
			"CME_MINI:MNQ1!": "MNQ=F",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func at(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return 0
	}
	return *vals[i]
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol, interval, rng string, prePost bool) (model.Series, error) {
	u := fmt.Sprintf("%s/%s?interval=%s&range=%s&includePrePost=%t",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), interval, rng, prePost)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &errs.FetchError{Symbol: symbol, URL: u, Err: err}
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, &errs.FetchError{Symbol: symbol, URL: u, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.FetchError{Symbol: symbol, URL: u, Err: fmt.Errorf("yahoo read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &errs.FetchError{Symbol: symbol, URL: u, Status: resp.StatusCode, Body: string(body)}
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, &errs.FetchError{Symbol: symbol, URL: u, Err: fmt.Errorf("yahoo decode: %w", err)}
	}
	if chart.Chart.Error != nil {
		return nil, &errs.FetchError{Symbol: symbol, URL: u, Err: fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)}
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return model.Series{}, nil
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make(model.Series, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o, h, l, c := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // null bars (holidays, halts)
		}
		bars = append(bars, model.Bar{
			Time:   ts,
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: int64(at(quote.Volume, i)),
		})
	}
	return sortSeries(bars), nil
}

func (f *YahooFetcher) FetchDailySeries(ctx context.Context, symbol string, extended bool) (model.Series, error) {
	return f.fetchChart(ctx, symbol, "1d", "1mo", extended)
}

func (f *YahooFetcher) FetchIntradaySeries(ctx context.Context, symbol, barType string, barInterval int) (model.Series, error) {
	interval := fmt.Sprintf("%dm", barInterval)
	if barType == "hour" {
		interval = fmt.Sprintf("%dh", barInterval)
	}
	return f.fetchChart(ctx, symbol, interval, "1d", true)
}

func (f *YahooFetcher) FetchHistory(ctx context.Context, symbol string, extended bool) (*model.SeriesDocument, error) {
	bars, err := f.fetchChart(ctx, symbol, "1d", "2y", extended)
	if err != nil {
		return nil, err
	}
	code, _ := json.Marshal(symbol)
	return &model.SeriesDocument{
		Series: bars,
		Extra: map[string]json.RawMessage{
			"code":     code,
			"bar_type": json.RawMessage(`"1d"`),
		},
	}, nil
}
