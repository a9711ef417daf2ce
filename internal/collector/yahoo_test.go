package collector

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartBody = `{"chart":{"result":[{"timestamp":[1672617600,1672531200,1672444800],
"indicators":{"quote":[{"open":[110,100,null],"high":[125,120,null],"low":[108,90,null],"close":[112,110,null],"volume":[900,1000,null]}]}}],"error":null}}`

func TestYahoo_FetchDailySeries(t *testing.T) {
	var req http.Request
	srv := newTestServer(t, http.StatusOK, chartBody, &req)
	f := NewYahooFetcher("")
	f.BaseURL = srv.URL

	s, err := f.FetchDailySeries(context.Background(), "CME_MINI:ES1!", true)
	require.NoError(t, err)
	require.Len(t, s, 2, "null bar must be skipped")
	assert.Equal(t, int64(1672531200), s[0].Time)
	assert.Equal(t, float64(120), s[0].High)
	assert.Equal(t, "/ES=F", req.URL.Path)
	assert.Equal(t, "1d", req.URL.Query().Get("interval"))
}

func TestYahoo_IntradayInterval(t *testing.T) {
	var req http.Request
	srv := newTestServer(t, http.StatusOK, chartBody, &req)
	f := NewYahooFetcher("")
	f.BaseURL = srv.URL

	_, err := f.FetchIntradaySeries(context.Background(), "CME_MINI:NQ1!", "minute", 1)
	require.NoError(t, err)
	assert.Equal(t, "1m", req.URL.Query().Get("interval"))
	assert.Equal(t, "true", req.URL.Query().Get("includePrePost"))
}
