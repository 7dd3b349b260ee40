package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stockdash/stockdash/pkg/httpx"
	"github.com/stockdash/stockdash/pkg/logger"
	"github.com/stockdash/stockdash/pkg/metrics"
	"github.com/stockdash/stockdash/pkg/models"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the Alpha Vantage query endpoint.
	DefaultBaseURL = "https://www.alphavantage.co/query"

	funcGlobalQuote = "GLOBAL_QUOTE"
	funcIntraday    = "TIME_SERIES_INTRADAY"

	// compact returns the latest 100 data points, plenty for a trendline
	outputSizeCompact = "compact"

	// DefaultTrendInterval is the intraday bar size used for trendlines.
	DefaultTrendInterval = "60min"

	// MaxTrendPoints bounds the trendline length.
	MaxTrendPoints = 30

	maxRetries = 2
)

// QuoteFetchError signals a transport-level failure fetching a quote.
// Data absence is not an error; GlobalQuote returns (nil, nil) for it.
type QuoteFetchError struct {
	Symbol string
	Err    error
}

func (e *QuoteFetchError) Error() string {
	return fmt.Sprintf("fetch quote %s: %v", e.Symbol, e.Err)
}

func (e *QuoteFetchError) Unwrap() error { return e.Err }

// TrendFetchError signals a transport-level failure fetching a trendline.
type TrendFetchError struct {
	Symbol string
	Err    error
}

func (e *TrendFetchError) Error() string {
	return fmt.Sprintf("fetch trend %s: %v", e.Symbol, e.Err)
}

func (e *TrendFetchError) Unwrap() error { return e.Err }

// Client is the Alpha Vantage API client. All price fields arrive as strings
// under verbose numbered keys and are parsed into numeric types here.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *httpx.Client
}

// New creates an Alpha Vantage client. baseURL may be empty to use the
// production endpoint; tests point it at an httptest server.
func New(baseURL, apiKey string, httpClient *httpx.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = httpx.New(10 * time.Second)
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, httpClient: httpClient}
}

type globalQuoteResponse struct {
	GlobalQuote map[string]string `json:"Global Quote"`
}

// GlobalQuote fetches the current quote for one symbol. It returns
// (nil, nil) when the provider has no data for the symbol — the provider
// signals an unknown symbol with an empty "Global Quote" object — and a
// *QuoteFetchError on transport failure. Transient failures are retried
// with exponential backoff before giving up.
func (c *Client) GlobalQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	params := url.Values{}
	params.Set("function", funcGlobalQuote)
	params.Set("symbol", symbol)
	params.Set("apikey", c.apiKey)

	body, err := c.get(ctx, "global_quote", params)
	if err != nil {
		return nil, &QuoteFetchError{Symbol: symbol, Err: err}
	}

	var parsed globalQuoteResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &QuoteFetchError{Symbol: symbol, Err: fmt.Errorf("decode response: %w", err)}
	}

	// An empty object (or a response without the symbol key, e.g. a
	// throttling note) means the provider has no data. Not an error.
	raw := parsed.GlobalQuote
	if len(raw) == 0 || raw["01. symbol"] == "" {
		metrics.ProviderDataAbsent.Inc()
		return nil, nil
	}

	quote, err := parseQuote(raw)
	if err != nil {
		return nil, &QuoteFetchError{Symbol: symbol, Err: err}
	}
	return quote, nil
}

// parseQuote converts the provider's numbered string fields into a Quote.
func parseQuote(raw map[string]string) (*models.Quote, error) {
	q := &models.Quote{
		Symbol:           raw["01. symbol"],
		LatestTradingDay: raw["07. latest trading day"],
	}

	var err error
	if q.Open, err = parseFloat(raw, "02. open"); err != nil {
		return nil, err
	}
	if q.High, err = parseFloat(raw, "03. high"); err != nil {
		return nil, err
	}
	if q.Low, err = parseFloat(raw, "04. low"); err != nil {
		return nil, err
	}
	if q.Price, err = parseFloat(raw, "05. price"); err != nil {
		return nil, err
	}
	if q.Volume, err = parseInt(raw, "06. volume"); err != nil {
		return nil, err
	}
	if q.PreviousClose, err = parseFloat(raw, "08. previous close"); err != nil {
		return nil, err
	}
	if q.Change, err = parseFloat(raw, "09. change"); err != nil {
		return nil, err
	}

	// The change percent field carries a trailing '%'.
	pct := strings.TrimSuffix(raw["10. change percent"], "%")
	if q.ChangePercent, err = strconv.ParseFloat(pct, 64); err != nil {
		return nil, fmt.Errorf("parse field %q: %w", "10. change percent", err)
	}

	return q, nil
}

type intradayBar struct {
	Close string `json:"4. close"`
}

// IntradayTrend fetches the recent intraday closing prices for a symbol at
// the given bar interval, oldest first, at most maxPoints entries. A response
// without the expected time-series key yields an empty slice, not an error;
// only transport failures return a *TrendFetchError.
func (c *Client) IntradayTrend(ctx context.Context, symbol, interval string, maxPoints int) ([]float64, error) {
	if interval == "" {
		interval = DefaultTrendInterval
	}
	if maxPoints <= 0 || maxPoints > MaxTrendPoints {
		maxPoints = MaxTrendPoints
	}

	params := url.Values{}
	params.Set("function", funcIntraday)
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("outputsize", outputSizeCompact)
	params.Set("apikey", c.apiKey)

	body, err := c.get(ctx, "intraday", params)
	if err != nil {
		return nil, &TrendFetchError{Symbol: symbol, Err: err}
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &TrendFetchError{Symbol: symbol, Err: fmt.Errorf("decode response: %w", err)}
	}

	seriesKey := fmt.Sprintf("Time Series (%s)", interval)
	rawSeries, ok := envelope[seriesKey]
	if !ok {
		logger.Log.Warn("no intraday series in response",
			zap.String("symbol", symbol), zap.String("interval", interval))
		metrics.ProviderDataAbsent.Inc()
		return []float64{}, nil
	}

	var series map[string]intradayBar
	if err := json.Unmarshal(rawSeries, &series); err != nil {
		return nil, &TrendFetchError{Symbol: symbol, Err: fmt.Errorf("decode time series: %w", err)}
	}

	// Timestamps sort lexicographically; take the newest maxPoints bars,
	// then reverse into chronological order for the sparkline.
	stamps := make([]string, 0, len(series))
	for ts := range series {
		stamps = append(stamps, ts)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(stamps)))
	if len(stamps) > maxPoints {
		stamps = stamps[:maxPoints]
	}

	closes := make([]float64, 0, len(stamps))
	for i := len(stamps) - 1; i >= 0; i-- {
		val, err := strconv.ParseFloat(series[stamps[i]].Close, 64)
		if err != nil {
			// A malformed bar is dropped rather than failing the trendline.
			logger.Log.Warn("skipping malformed close price",
				zap.String("symbol", symbol), zap.String("timestamp", stamps[i]))
			continue
		}
		closes = append(closes, val)
	}

	return closes, nil
}

// get performs one instrumented GET with bounded retry on transient failures.
// 4xx responses are permanent; network errors and 5xx responses are retried.
func (c *Client) get(ctx context.Context, call string, params url.Values) ([]byte, error) {
	start := time.Now()
	var body []byte

	op := func() error {
		req, err := http.NewRequest(http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.httpClient.Do(ctx, req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			err := fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(snippet))
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			return err
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		return nil
	}

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx))

	metrics.ProviderRequestDuration.WithLabelValues(call, statusLabel(err)).Observe(time.Since(start).Seconds())
	metrics.ProviderRequests.WithLabelValues(call, statusLabel(err)).Inc()
	return body, err
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// parseFloat parses a required float field
func parseFloat(raw map[string]string, key string) (float64, error) {
	val, err := strconv.ParseFloat(raw[key], 64)
	if err != nil {
		return 0, fmt.Errorf("parse field %q: %w", key, err)
	}
	return val, nil
}

// parseInt parses a required integer field
func parseInt(raw map[string]string, key string) (int64, error) {
	val, err := strconv.ParseInt(raw[key], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse field %q: %w", key, err)
	}
	return val, nil
}
