package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/stockdash/stockdash/pkg/alphavantage"
	"github.com/stockdash/stockdash/pkg/auth"
	"github.com/stockdash/stockdash/pkg/config"
	"github.com/stockdash/stockdash/pkg/httpx"
	"github.com/stockdash/stockdash/pkg/logger"
	"github.com/stockdash/stockdash/pkg/marketdata"
	"github.com/stockdash/stockdash/pkg/metrics"
	"github.com/stockdash/stockdash/pkg/quotecache"
	"github.com/stockdash/stockdash/pkg/ratelimit"
	"github.com/stockdash/stockdash/pkg/store"
	"go.uber.org/zap"
)

func main() {
	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.Log
	defer log.Sync()

	log.Info("starting stockdash API server")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}

	// Database
	db, err := store.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.RunMigrations(ctx); err != nil {
		cancel()
		log.Fatal("failed to run database migrations", zap.Error(err))
	}
	cancel()

	// Quote cache is optional: without Redis every quote goes upstream.
	var cache *quotecache.Cache
	if cfg.RedisURL != "" {
		cache, err = quotecache.New(cfg.RedisURL, cfg.QuoteCacheTTL)
		if err != nil {
			log.Fatal("failed to connect to Redis", zap.Error(err))
		}
		defer cache.Close()
	} else {
		log.Info("quote cache disabled, REDIS_URL not set")
	}

	// Authentication
	authService, err := auth.NewService(cfg.JWTSecret, cfg.JWTExpiration)
	if err != nil {
		log.Fatal("failed to initialize authentication service", zap.Error(err))
	}

	// Market data pipeline
	avClient := alphavantage.New(cfg.StockAPIBaseURL, cfg.StockAPIKey, httpx.New(cfg.RequestTimeout))
	limiter := ratelimit.NewTokenBucket(cfg.RateLimitPerMinute, time.Minute, cfg.RateLimitBurst)

	var quoteCache marketdata.QuoteCache
	if cache != nil {
		quoteCache = cache
	}
	market := marketdata.NewService(avClient, limiter, quoteCache, marketdata.Config{
		TrendInterval: cfg.TrendInterval,
		TrendPoints:   cfg.TrendPoints,
	})

	srv := NewServer(db, authService, market)

	// Router
	router := mux.NewRouter()
	router.Use(loggingMiddleware)
	router.Use(corsMiddleware)
	router.Use(metricsMiddleware)

	router.HandleFunc("/health", healthHandler(db, cache)).Methods("GET")
	router.HandleFunc("/ready", readyHandler(db, cache)).Methods("GET")

	userRouter := router.PathPrefix("/api/users").Subrouter()
	userRouter.HandleFunc("/register", srv.registerHandler).Methods("POST")
	userRouter.HandleFunc("/login", srv.loginHandler).Methods("POST")

	protectedUserRouter := userRouter.PathPrefix("").Subrouter()
	protectedUserRouter.Use(authService.Middleware)
	protectedUserRouter.HandleFunc("/profile", srv.profileHandler).Methods("GET")
	protectedUserRouter.HandleFunc("/watchlist", srv.watchlistHandler).Methods("PUT")

	stockRouter := router.PathPrefix("/api/stocks").Subrouter()
	stockRouter.HandleFunc("/quotes/multiple", srv.multipleQuotesHandler).Methods("GET")
	stockRouter.HandleFunc("/{symbol}", srv.quoteHandler).Methods("GET")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Metrics on its own listener so it stays reachable without auth
	// and off the public port.
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler: metricsMux,
	}
	go func() {
		log.Info("starting metrics server", zap.String("addr", metricsServer.Addr))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		log.Info("starting HTTP server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error("metrics server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}

func healthHandler(db *store.Postgres, cache *quotecache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			http.Error(w, "Database health check failed", http.StatusServiceUnavailable)
			return
		}
		if cache != nil {
			if err := cache.Ping(ctx); err != nil {
				http.Error(w, "Redis health check failed", http.StatusServiceUnavailable)
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}
}

func readyHandler(db *store.Postgres, cache *quotecache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			http.Error(w, "Database not ready", http.StatusServiceUnavailable)
			return
		}
		if cache != nil {
			if err := cache.Ping(ctx); err != nil {
				http.Error(w, "Redis not ready", http.StatusServiceUnavailable)
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}
}
