package ratelimit

import (
    "context"
    "sync"
    "time"

    "github.com/stockdash/stockdash/pkg/metrics"
)

// Limiter gates outbound requests to the market data provider. Callers must
// Wait before initiating each request; the implementation guarantees no more
// than the configured number of requests per rolling window.
type Limiter interface {
    Wait(ctx context.Context) error
}

// TokenBucket is a token bucket limiter.
// - rate: tokens per second
// - capacity: maximum tokens the bucket can hold (burst)
type TokenBucket struct {
    rate     float64
    capacity float64

    mu     sync.Mutex
    tokens float64
    last   time.Time
}

// NewTokenBucket builds a bucket from a per-window request budget, e.g.
// NewTokenBucket(5, time.Minute, 1) for the Alpha Vantage free tier.
func NewTokenBucket(requests int, window time.Duration, burst int) *TokenBucket {
    if requests <= 0 {
        requests = 1
    }
    if window <= 0 {
        window = time.Minute
    }
    if burst <= 0 {
        burst = 1
    }
    return &TokenBucket{
        rate:     float64(requests) / window.Seconds(),
        capacity: float64(burst),
        tokens:   float64(burst), // start full to allow an initial burst
        last:     time.Now(),
    }
}

// Wait blocks until one token is available or context is canceled.
func (tb *TokenBucket) Wait(ctx context.Context) error {
    start := time.Now()
    defer func() {
        metrics.RateLimitWaitDuration.Observe(time.Since(start).Seconds())
    }()

    for {
        if err := ctx.Err(); err != nil {
            return err
        }
        tb.mu.Lock()
        now := time.Now()
        // Refill
        elapsed := now.Sub(tb.last).Seconds()
        if elapsed > 0 {
            tb.tokens += elapsed * tb.rate
            if tb.tokens > tb.capacity {
                tb.tokens = tb.capacity
            }
            tb.last = now
        }
        if tb.tokens >= 1 {
            tb.tokens -= 1
            tb.mu.Unlock()
            return nil
        }
        // Need to wait for the remaining fraction
        deficit := 1 - tb.tokens
        tb.mu.Unlock()
        waitDur := time.Duration(deficit / tb.rate * float64(time.Second))
        if waitDur <= 0 {
            waitDur = time.Millisecond
        }
        timer := time.NewTimer(waitDur)
        select {
        case <-ctx.Done():
            timer.Stop()
            return ctx.Err()
        case <-timer.C:
        }
    }
}

// Unlimited is a no-op Limiter for tests and cache-only paths.
type Unlimited struct{}

func (Unlimited) Wait(ctx context.Context) error { return ctx.Err() }
