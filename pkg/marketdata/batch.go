package marketdata

import (
	"context"
	"time"

	"github.com/stockdash/stockdash/pkg/logger"
	"github.com/stockdash/stockdash/pkg/metrics"
	"github.com/stockdash/stockdash/pkg/models"
	"github.com/stockdash/stockdash/pkg/validation"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Outcome classifies the fate of one symbol within a batch fetch.
type Outcome string

const (
	// OutcomeFetched means the quote resolved; the symbol is in the result set.
	OutcomeFetched Outcome = "fetched"
	// OutcomeAbsent means the provider has no data for the symbol.
	OutcomeAbsent Outcome = "absent"
	// OutcomeFailed means the quote fetch failed at the transport level.
	OutcomeFailed Outcome = "failed"
)

// SymbolResult records the per-symbol fate of a batch fetch. Failures are
// kept here rather than discarded, even though the HTTP facade only exposes
// the successes.
type SymbolResult struct {
	Symbol  string  `json:"symbol"`
	Outcome Outcome `json:"outcome"`
	// Reason carries the failure cause for OutcomeFailed entries.
	Reason string `json:"reason,omitempty"`
	// TrendMissing marks fetched symbols whose trendline lookup failed;
	// their StockData carries an empty trendline.
	TrendMissing bool `json:"trendMissing,omitempty"`
}

// BatchReport summarizes one batch fetch.
type BatchReport struct {
	Results  []SymbolResult `json:"results"`
	Duration time.Duration  `json:"-"`
}

// Dropped returns the results for symbols omitted from the output.
func (r *BatchReport) Dropped() []SymbolResult {
	var dropped []SymbolResult
	for _, res := range r.Results {
		if res.Outcome != OutcomeFetched {
			dropped = append(dropped, res)
		}
	}
	return dropped
}

// FetchBatch retrieves quote plus trendline for each symbol. All symbols are
// fetched concurrently, but every outbound request first passes the rate
// limiter, so the batch never exceeds the provider's per-window ceiling.
//
// Per symbol: an absent quote drops the symbol without a trend lookup; a
// transport failure on the quote drops the symbol; a trend failure is
// tolerated and yields an empty trendline. No per-symbol failure aborts the
// batch. Results come back in input order, restricted to surviving symbols;
// the report records every symbol's fate.
func (s *Service) FetchBatch(ctx context.Context, symbols []string) ([]models.StockData, *BatchReport) {
	start := time.Now()

	normalized := normalizeSymbols(symbols)
	results := make([]*models.StockData, len(normalized))
	report := &BatchReport{Results: make([]SymbolResult, len(normalized))}

	g, ctx := errgroup.WithContext(ctx)
	for i, symbol := range normalized {
		i, symbol := i, symbol
		g.Go(func() error {
			results[i], report.Results[i] = s.fetchOne(ctx, symbol)
			return nil
		})
	}
	// Tasks report failures through the report, never through errgroup.
	g.Wait()

	out := make([]models.StockData, 0, len(normalized))
	for i, sd := range results {
		if sd == nil {
			metrics.BatchSymbolsDropped.WithLabelValues(string(report.Results[i].Outcome)).Inc()
			continue
		}
		metrics.BatchSymbolsFetched.Inc()
		out = append(out, *sd)
	}

	report.Duration = time.Since(start)
	metrics.BatchFetchDuration.Observe(report.Duration.Seconds())

	if dropped := report.Dropped(); len(dropped) > 0 {
		logger.Log.Info("batch fetch dropped symbols",
			zap.Int("requested", len(normalized)),
			zap.Int("fetched", len(out)),
			zap.Any("dropped", dropped))
	}
	return out, report
}

// fetchOne resolves quote and trendline for a single symbol.
func (s *Service) fetchOne(ctx context.Context, symbol string) (*models.StockData, SymbolResult) {
	result := SymbolResult{Symbol: symbol}

	quote, err := s.Quote(ctx, symbol)
	if err != nil {
		logger.Log.Warn("batch quote fetch failed", zap.String("symbol", symbol), zap.Error(err))
		result.Outcome = OutcomeFailed
		result.Reason = err.Error()
		return nil, result
	}
	if quote == nil {
		result.Outcome = OutcomeAbsent
		return nil, result
	}

	trend, err := s.Trend(ctx, symbol)
	if err != nil {
		// Trend failure is non-fatal: the dashboard renders the quote
		// without a sparkline.
		logger.Log.Warn("batch trend fetch failed", zap.String("symbol", symbol), zap.Error(err))
		trend = []float64{}
		result.TrendMissing = true
	}

	result.Outcome = OutcomeFetched
	return &models.StockData{Quote: *quote, Trendline: trend}, result
}

// normalizeSymbols uppercases, trims and dedupes while preserving order.
func normalizeSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		sym := validation.NormalizeSymbol(s)
		if sym == "" {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	return out
}
