package marketdata

import (
	"context"

	"github.com/stockdash/stockdash/pkg/alphavantage"
	"github.com/stockdash/stockdash/pkg/models"
	"github.com/stockdash/stockdash/pkg/ratelimit"
	"github.com/stockdash/stockdash/pkg/validation"
)

// Provider is the upstream market data API. *alphavantage.Client satisfies it;
// tests substitute fakes.
type Provider interface {
	// GlobalQuote returns (nil, nil) when the provider has no data for the symbol.
	GlobalQuote(ctx context.Context, symbol string) (*models.Quote, error)
	// IntradayTrend returns recent closes oldest-first, empty on missing data.
	IntradayTrend(ctx context.Context, symbol, interval string, maxPoints int) ([]float64, error)
}

// QuoteCache is an optional read-through cache in front of the provider.
type QuoteCache interface {
	Get(ctx context.Context, symbol string) (*models.Quote, bool)
	Set(ctx context.Context, symbol string, q *models.Quote)
}

// Config tunes trendline retrieval.
type Config struct {
	TrendInterval string
	TrendPoints   int
}

// Service wraps the provider with symbol normalization, rate limiting and
// caching, and hosts the multi-symbol batch orchestrator.
type Service struct {
	provider Provider
	limiter  ratelimit.Limiter
	cache    QuoteCache
	cfg      Config
}

// NewService builds a Service. limiter must not be nil (use
// ratelimit.Unlimited{} to disable pacing); cache may be nil.
func NewService(provider Provider, limiter ratelimit.Limiter, cache QuoteCache, cfg Config) *Service {
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	if cfg.TrendInterval == "" {
		cfg.TrendInterval = alphavantage.DefaultTrendInterval
	}
	if cfg.TrendPoints <= 0 || cfg.TrendPoints > alphavantage.MaxTrendPoints {
		cfg.TrendPoints = alphavantage.MaxTrendPoints
	}
	return &Service{provider: provider, limiter: limiter, cache: cache, cfg: cfg}
}

// Quote returns the current quote for one symbol, uppercasing it first.
// (nil, nil) means the provider has no data for the symbol.
func (s *Service) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = validation.NormalizeSymbol(symbol)

	if s.cache != nil {
		if q, ok := s.cache.Get(ctx, symbol); ok {
			return q, nil
		}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, &alphavantage.QuoteFetchError{Symbol: symbol, Err: err}
	}

	q, err := s.provider.GlobalQuote(ctx, symbol)
	if err != nil || q == nil {
		return q, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, symbol, q)
	}
	return q, nil
}

// Trend returns the recent trendline for one symbol, oldest first.
func (s *Service) Trend(ctx context.Context, symbol string) ([]float64, error) {
	symbol = validation.NormalizeSymbol(symbol)

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, &alphavantage.TrendFetchError{Symbol: symbol, Err: err}
	}
	return s.provider.IntradayTrend(ctx, symbol, s.cfg.TrendInterval, s.cfg.TrendPoints)
}
