package ratelimit

import (
    "context"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestTokenBucket_BurstThenPaced(t *testing.T) {
    // 10 requests/second, burst of 2: first two Waits are immediate, the
    // third has to wait roughly one refill interval (100ms).
    tb := NewTokenBucket(10, time.Second, 2)
    ctx := context.Background()

    start := time.Now()
    require.NoError(t, tb.Wait(ctx))
    require.NoError(t, tb.Wait(ctx))
    burstElapsed := time.Since(start)
    assert.Less(t, burstElapsed, 50*time.Millisecond, "burst Waits should not block")

    require.NoError(t, tb.Wait(ctx))
    total := time.Since(start)
    assert.GreaterOrEqual(t, total, 80*time.Millisecond, "third Wait should be paced")
}

func TestTokenBucket_RollingWindowBound(t *testing.T) {
    // 5 requests per 500ms, burst 1. Issuing 4 requests must span at least
    // 3 refill intervals (300ms) — the "no more than N per rolling window"
    // invariant scaled down for test speed.
    tb := NewTokenBucket(5, 500*time.Millisecond, 1)
    ctx := context.Background()

    start := time.Now()
    for i := 0; i < 4; i++ {
        require.NoError(t, tb.Wait(ctx))
    }
    elapsed := time.Since(start)
    assert.GreaterOrEqual(t, elapsed, 270*time.Millisecond)
}

func TestTokenBucket_ContextCancel(t *testing.T) {
    tb := NewTokenBucket(1, time.Hour, 1)
    ctx, cancel := context.WithCancel(context.Background())

    require.NoError(t, tb.Wait(ctx)) // consume the burst token

    done := make(chan error, 1)
    go func() { done <- tb.Wait(ctx) }()
    cancel()

    select {
    case err := <-done:
        assert.ErrorIs(t, err, context.Canceled)
    case <-time.After(time.Second):
        t.Fatal("Wait did not return after cancel")
    }
}

func TestUnlimited(t *testing.T) {
    var l Limiter = Unlimited{}
    assert.NoError(t, l.Wait(context.Background()))

    ctx, cancel := context.WithCancel(context.Background())
    cancel()
    assert.Error(t, l.Wait(ctx))
}
