package metrics

import (
  "net/http"

  "github.com/prometheus/client_golang/prometheus"
  "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
  // Market data provider metrics
  ProviderRequestDuration = prometheus.NewHistogramVec(
    prometheus.HistogramOpts{
      Name:    "provider_request_duration_seconds",
      Help:    "Upstream market data request duration",
      Buckets: prometheus.DefBuckets,
    },
    []string{"call", "status"},
  )
  ProviderRequests = prometheus.NewCounterVec(
    prometheus.CounterOpts{
      Name: "provider_requests_total",
      Help: "Total upstream market data requests",
    },
    []string{"call", "status"},
  )
  ProviderDataAbsent = prometheus.NewCounter(
    prometheus.CounterOpts{
      Name: "provider_data_absent_total",
      Help: "Provider responses carrying no data for the requested symbol",
    })
  RateLimitWaitDuration = prometheus.NewHistogram(
    prometheus.HistogramOpts{
      Name:    "provider_ratelimit_wait_seconds",
      Help:    "Time spent waiting on the provider rate limiter",
      Buckets: []float64{.01, .1, .5, 1, 2.5, 5, 10, 30, 60},
    })

  // Batch fetch metrics
  BatchFetchDuration = prometheus.NewHistogram(
    prometheus.HistogramOpts{
      Name:    "batch_fetch_duration_seconds",
      Help:    "Wall-clock duration of a multi-symbol batch fetch",
      Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
    })
  BatchSymbolsFetched = prometheus.NewCounter(
    prometheus.CounterOpts{
      Name: "batch_symbols_fetched_total",
      Help: "Symbols successfully resolved by batch fetches",
    })
  BatchSymbolsDropped = prometheus.NewCounterVec(
    prometheus.CounterOpts{
      Name: "batch_symbols_dropped_total",
      Help: "Symbols dropped from batch fetches",
    },
    []string{"reason"},
  )

  // Quote cache metrics
  QuoteCacheHits = prometheus.NewCounter(
    prometheus.CounterOpts{
      Name: "quote_cache_hits_total",
      Help: "Quote cache hits",
    })
  QuoteCacheMisses = prometheus.NewCounter(
    prometheus.CounterOpts{
      Name: "quote_cache_misses_total",
      Help: "Quote cache misses",
    })
  QuoteCacheErrors = prometheus.NewCounterVec(
    prometheus.CounterOpts{
      Name: "quote_cache_errors_total",
      Help: "Quote cache errors",
    },
    []string{"operation"},
  )

  // User store metrics
  StoreOperationDuration = prometheus.NewHistogramVec(
    prometheus.HistogramOpts{
      Name:    "store_operation_duration_seconds",
      Help:    "User store operation duration",
      Buckets: prometheus.DefBuckets,
    },
    []string{"operation", "status"},
  )
  StoreErrors = prometheus.NewCounterVec(
    prometheus.CounterOpts{
      Name: "store_errors_total",
      Help: "User store errors",
    },
    []string{"operation"},
  )

  // Authentication metrics
  AuthOperations = prometheus.NewCounterVec(
    prometheus.CounterOpts{
      Name: "auth_operations_total",
      Help: "Total authentication operations",
    },
    []string{"operation", "status"},
  )
  AuthMiddlewareErrors = prometheus.NewCounterVec(
    prometheus.CounterOpts{
      Name: "auth_middleware_errors_total",
      Help: "Total authentication middleware errors",
    },
    []string{"error_type"},
  )

  // API metrics
  APIRequestDuration = prometheus.NewHistogramVec(
    prometheus.HistogramOpts{
      Name:    "api_request_duration_seconds",
      Help:    "API request duration",
      Buckets: prometheus.DefBuckets,
    },
    []string{"method", "path"},
  )
  APIRequestTotal = prometheus.NewCounterVec(
    prometheus.CounterOpts{
      Name: "api_requests_total",
      Help: "Total API requests",
    },
    []string{"method", "path"},
  )
)

func init() {
  // MustRegister panics if registration fails (e.g. duplicate)
  prometheus.MustRegister(
    ProviderRequestDuration, ProviderRequests, ProviderDataAbsent, RateLimitWaitDuration,
    BatchFetchDuration, BatchSymbolsFetched, BatchSymbolsDropped,
    QuoteCacheHits, QuoteCacheMisses, QuoteCacheErrors,
    StoreOperationDuration, StoreErrors,
    AuthOperations, AuthMiddlewareErrors,
    APIRequestDuration, APIRequestTotal,
  )
}

// Handler exposes the registered collectors for the /metrics endpoint.
func Handler() http.Handler {
  return promhttp.Handler()
}
