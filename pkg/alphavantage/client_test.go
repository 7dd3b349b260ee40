package alphavantage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stockdash/stockdash/pkg/httpx"
	"github.com/stockdash/stockdash/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.Init()
}

const quoteBody = `{
	"Global Quote": {
		"01. symbol": "AAPL",
		"02. open": "189.0000",
		"03. high": "191.5000",
		"04. low": "188.2500",
		"05. price": "190.1200",
		"06. volume": "52342100",
		"07. latest trading day": "2024-01-05",
		"08. previous close": "188.8800",
		"09. change": "1.2400",
		"10. change percent": "0.6565%"
	}
}`

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := New(srv.URL, "test-key", httpx.New(2*time.Second))
	return c, srv
}

func TestGlobalQuote_Success(t *testing.T) {
	var gotQuery string
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, quoteBody)
	})
	defer srv.Close()

	q, err := c.GlobalQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	require.NotNil(t, q)

	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, 189.0, q.Open)
	assert.Equal(t, 191.5, q.High)
	assert.Equal(t, 188.25, q.Low)
	assert.Equal(t, 190.12, q.Price)
	assert.Equal(t, int64(52342100), q.Volume)
	assert.Equal(t, "2024-01-05", q.LatestTradingDay)
	assert.Equal(t, 188.88, q.PreviousClose)
	assert.Equal(t, 1.24, q.Change)
	assert.InDelta(t, 0.6565, q.ChangePercent, 1e-9)

	assert.Contains(t, gotQuery, "function=GLOBAL_QUOTE")
	assert.Contains(t, gotQuery, "symbol=AAPL")
	assert.Contains(t, gotQuery, "apikey=test-key")
}

func TestGlobalQuote_UnknownSymbolIsAbsentNotError(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Global Quote": {}}`)
	})
	defer srv.Close()

	q, err := c.GlobalQuote(context.Background(), "ZZZINVALID")
	assert.NoError(t, err)
	assert.Nil(t, q)
}

func TestGlobalQuote_ThrottleNoteIsAbsent(t *testing.T) {
	// Throttled responses come back 200 with a note instead of quote data.
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Note": "Thank you for using Alpha Vantage!"}`)
	})
	defer srv.Close()

	q, err := c.GlobalQuote(context.Background(), "AAPL")
	assert.NoError(t, err)
	assert.Nil(t, q)
}

func TestGlobalQuote_ClientErrorIsPermanent(t *testing.T) {
	calls := 0
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "forbidden", http.StatusForbidden)
	})
	defer srv.Close()

	_, err := c.GlobalQuote(context.Background(), "AAPL")
	require.Error(t, err)

	var qerr *QuoteFetchError
	require.True(t, errors.As(err, &qerr))
	assert.Equal(t, "AAPL", qerr.Symbol)
	assert.Equal(t, 1, calls, "4xx must not be retried")
}

func TestGlobalQuote_ServerErrorRetried(t *testing.T) {
	calls := 0
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 2 {
			http.Error(w, "upstream hiccup", http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, quoteBody)
	})
	defer srv.Close()

	q, err := c.GlobalQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, 2, calls)
}

func intradayBody(bars int) string {
	body := `{"Meta Data": {"2. Symbol": "AAPL"}, "Time Series (60min)": {`
	for i := 0; i < bars; i++ {
		if i > 0 {
			body += ","
		}
		// ascending timestamps with ascending prices; bars must stay <= 24
		body += fmt.Sprintf(`"2024-01-05 %02d:00:00": {"4. close": "%d.00"}`, i, 100+i)
	}
	return body + "}}"
}

func TestIntradayTrend_ChronologicalAndCapped(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, intradayBody(24))
	})
	defer srv.Close()

	closes, err := c.IntradayTrend(context.Background(), "AAPL", "60min", 30)
	require.NoError(t, err)
	require.Len(t, closes, 24)

	// oldest first
	for i := 1; i < len(closes); i++ {
		assert.Greater(t, closes[i], closes[i-1], "closes must ascend with our fixture")
	}
}

func TestIntradayTrend_CapAt30(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, intradayBody(24))
	})
	defer srv.Close()

	closes, err := c.IntradayTrend(context.Background(), "AAPL", "60min", 5)
	require.NoError(t, err)
	require.Len(t, closes, 5)
	// the newest five bars, still oldest-first
	assert.Equal(t, []float64{119, 120, 121, 122, 123}, closes)
}

func TestIntradayTrend_MissingSeriesKeyIsEmpty(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Note": "rate limited"}`)
	})
	defer srv.Close()

	closes, err := c.IntradayTrend(context.Background(), "AAPL", "60min", 30)
	assert.NoError(t, err)
	assert.Empty(t, closes)
}

func TestIntradayTrend_TransportError(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})
	defer srv.Close()

	_, err := c.IntradayTrend(context.Background(), "AAPL", "60min", 30)
	require.Error(t, err)

	var terr *TrendFetchError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "AAPL", terr.Symbol)
}
