package config

import (
    "flag"
    "fmt"
    "os"
    "strings"
    "strconv"
    "time"
)

type Config struct {
    HTTPPort    int
    MetricsPort int

    DatabaseURL string
    RedisURL    string // optional; quote cache disabled when empty

    StockAPIKey     string
    StockAPIBaseURL string
    RequestTimeout  time.Duration

    JWTSecret     string
    JWTExpiration time.Duration

    // Provider pacing. Defaults match the Alpha Vantage free tier
    // ceiling of 5 calls per minute.
    RateLimitPerMinute int
    RateLimitBurst     int

    TrendInterval string
    TrendPoints   int
    QuoteCacheTTL time.Duration
}

// Load reads environment variables and application flags (via a local FlagSet),
// strips out any -test.* flags, and validates required fields.
func Load() (*Config, error) {
    // 1. Build a fresh FlagSet so we don't collide with `go test` flags
    fs := flag.NewFlagSet("config", flag.ContinueOnError)

    // 2. Define only the flags this package cares about
    var httpPort int
    var metricsPort int
    var databaseURL string
    fs.IntVar(&httpPort, "port", 8080, "HTTP listen port")
    fs.IntVar(&metricsPort, "metrics-port", 8082, "Metrics server port")
    fs.StringVar(&databaseURL, "db", os.Getenv("DATABASE_URL"), "Postgres connection URL")

    // 3. Filter out any -test.* args before parsing
    var appArgs []string
    for _, arg := range os.Args[1:] {
        if strings.HasPrefix(arg, "-test.") {
            continue
        }
        appArgs = append(appArgs, arg)
    }
    if err := fs.Parse(appArgs); err != nil {
        return nil, err
    }

    // 4. Populate our Config struct
    cfg := &Config{
        HTTPPort:    httpPort,
        MetricsPort: metricsPort,
        DatabaseURL: databaseURL,
        RedisURL:    os.Getenv("REDIS_URL"),

        StockAPIKey:     os.Getenv("STOCK_API_KEY"),
        StockAPIBaseURL: getEnvOrDefault("STOCK_API_BASE_URL", "https://www.alphavantage.co/query"),
        RequestTimeout:  getDurationEnvOrDefault("STOCK_API_TIMEOUT", 10*time.Second),

        JWTSecret:     os.Getenv("JWT_SECRET"),
        JWTExpiration: getDurationEnvOrDefault("JWT_EXPIRATION", 24*time.Hour),

        RateLimitPerMinute: getIntEnvOrDefault("RATE_LIMIT_PER_MINUTE", 5),
        RateLimitBurst:     getIntEnvOrDefault("RATE_LIMIT_BURST", 1),

        TrendInterval: getEnvOrDefault("TREND_INTERVAL", "60min"),
        TrendPoints:   getIntEnvOrDefault("TREND_POINTS", 30),
        QuoteCacheTTL: getDurationEnvOrDefault("QUOTE_CACHE_TTL", time.Minute),
    }

    // Check for PORT env var (overrides flag/default if set)
    if portEnv := os.Getenv("PORT"); portEnv != "" {
        if portVal, err := strconv.Atoi(portEnv); err == nil {
            cfg.HTTPPort = portVal
        } else {
            return nil, fmt.Errorf("invalid PORT env var: %v", err)
        }
    }

    // 5. Validate required fields
    if cfg.StockAPIKey == "" {
        return nil, fmt.Errorf("missing required config: STOCK_API_KEY")
    }
    if cfg.JWTSecret == "" {
        return nil, fmt.Errorf("missing required config: JWT_SECRET")
    }
    if cfg.DatabaseURL == "" {
        return nil, fmt.Errorf("missing required config: DATABASE_URL or -db")
    }
    if cfg.RateLimitPerMinute < 1 {
        return nil, fmt.Errorf("RATE_LIMIT_PER_MINUTE must be at least 1")
    }
    if cfg.TrendPoints < 1 {
        cfg.TrendPoints = 30
    }

    return cfg, nil
}

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
    if value := os.Getenv(key); value != "" {
        return value
    }
    return defaultValue
}

// getIntEnvOrDefault returns environment variable as int or default
func getIntEnvOrDefault(key string, defaultValue int) int {
    if value := os.Getenv(key); value != "" {
        if parsed, err := strconv.Atoi(value); err == nil {
            return parsed
        }
    }
    return defaultValue
}

// getDurationEnvOrDefault returns environment variable as duration or default
func getDurationEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
    if value := os.Getenv(key); value != "" {
        if duration, err := time.ParseDuration(value); err == nil {
            return duration
        }
    }
    return defaultValue
}
