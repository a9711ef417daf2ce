package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"PivotLevels/internal/errs"
	"PivotLevels/internal/model"
)

const (
	DefaultInsightSentryURL  = "https://insightsentry.p.rapidapi.com/v2/symbols"
	DefaultInsightSentryHost = "insightsentry.p.rapidapi.com"
)

// InsightSentryFetcher implements Fetcher against the InsightSentry REST API
// published through RapidAPI.
type InsightSentryFetcher struct {
	BaseURL string
	Host    string
	APIKey  string
	Client  *http.Client
	Limiter *rate.Limiter // nil means unthrottled
}

// InsightSentryOptions configures NewInsightSentryFetcher.
type InsightSentryOptions struct {
	BaseURL           string
	Host              string
	APIKey            string
	Proxy             string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// NewInsightSentryFetcher creates a fetcher with optional proxy support and
// request throttling.
func NewInsightSentryFetcher(opts InsightSentryOptions) *InsightSentryFetcher {
	transport := &http.Transport{}
	if opts.Proxy != "" {
		if u, err := url.Parse(opts.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultInsightSentryURL
	}
	if opts.Host == "" {
		opts.Host = DefaultInsightSentryHost
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	f := &InsightSentryFetcher{
		BaseURL: opts.BaseURL,
		Host:    opts.Host,
		APIKey:  opts.APIKey,
		Client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
	}
	if opts.RequestsPerSecond > 0 {
		f.Limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return f
}

func (f *InsightSentryFetcher) Name() string { return "insightsentry" }

// isResponse is the JSON shape of both the series and history endpoints.
type isResponse struct {
	Code       string       `json:"code"`
	BarEnd     int64        `json:"bar_end"`
	LastUpdate int64        `json:"last_update"`
	BarType    string       `json:"bar_type"`
	Series     model.Series `json:"series"`
}

func seriesParams(barType string, barInterval int, extended bool) url.Values {
	return url.Values{
		"bar_type":     {barType},
		"bar_interval": {strconv.Itoa(barInterval)},
		"extended":     {strconv.FormatBool(extended)},
		"badj":         {"true"},
		"dadj":         {"false"},
	}
}

func (f *InsightSentryFetcher) FetchDailySeries(ctx context.Context, symbol string, extended bool) (model.Series, error) {
	var resp isResponse
	if err := f.get(ctx, symbol, "series", seriesParams("day", 1, extended), &resp); err != nil {
		return nil, err
	}
	return sortSeries(resp.Series), nil
}

func (f *InsightSentryFetcher) FetchIntradaySeries(ctx context.Context, symbol, barType string, barInterval int) (model.Series, error) {
	var resp isResponse
	// Premarket bars are only returned with extended hours enabled.
	if err := f.get(ctx, symbol, "series", seriesParams(barType, barInterval, true), &resp); err != nil {
		return nil, err
	}
	return sortSeries(resp.Series), nil
}

func (f *InsightSentryFetcher) FetchHistory(ctx context.Context, symbol string, extended bool) (*model.SeriesDocument, error) {
	var doc model.SeriesDocument
	if err := f.get(ctx, symbol, "history", seriesParams("day", 1, extended), &doc); err != nil {
		return nil, err
	}
	doc.Series = sortSeries(doc.Series)
	return &doc, nil
}

func (f *InsightSentryFetcher) get(ctx context.Context, symbol, path string, params url.Values, dest any) error {
	if f.Limiter != nil {
		if err := f.Limiter.Wait(ctx); err != nil {
			return &errs.FetchError{Symbol: symbol, Err: err}
		}
	}

	endpoint := fmt.Sprintf("%s/%s/%s?%s", f.BaseURL, url.PathEscape(symbol), path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &errs.FetchError{Symbol: symbol, URL: endpoint, Err: err}
	}
	req.Header.Set("X-RapidAPI-Key", f.APIKey)
	req.Header.Set("X-RapidAPI-Host", f.Host)

	resp, err := f.Client.Do(req)
	if err != nil {
		return &errs.FetchError{Symbol: symbol, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &errs.FetchError{Symbol: symbol, URL: endpoint, Status: resp.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &errs.FetchError{Symbol: symbol, URL: endpoint, Err: fmt.Errorf("decode %s: %w", path, err)}
	}
	return nil
}

// sortSeries puts bars in ascending time order. It runs once, at fetch time,
// before the series is handed to anything else.
func sortSeries(s model.Series) model.Series {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Time < s[j].Time })
	return s
}
