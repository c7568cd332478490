package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lists-gateway/middleware/ratelimit"
	"lists-gateway/middleware/ratelimit/domain"
	"lists-gateway/middleware/ratelimit/infra"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// .env é opcional (dev local)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf(".env error: %v", err)
	}

	cfg, err := readConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := newLogger(cfg.logEnv, cfg.logLevel, cfg.logFormat)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("gateway stopped", zap.Error(err))
	}
}

func run(cfg config, logger *zap.Logger) error {
	target, err := url.Parse(cfg.upstreamURL)
	if err != nil {
		return fmt.Errorf("invalid UPSTREAM_URL: %w", err)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Warn("proxy error", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	memory := infra.NewMemoryStore(infra.WithCleanupEvery(cfg.cleanupEvery))
	memory.StartJanitor(ctx)

	reg := prometheus.NewRegistry()
	promStats := infra.NewPrometheusStatsStore("gateway")
	promStats.MustRegister(reg)
	memStats := infra.NewMemoryStatsStore()
	stats := infra.MultiStatsStore{promStats, memStats}

	// sem Redis configurado o contador fica só em memória (caminho normal, não erro)
	var store domain.CounterStore = memory
	if cfg.redisEnabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.redisAddr,
			Password: cfg.redisPassword,
			DB:       cfg.redisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			// o FallbackStore cobre a queda; o Redis pode voltar depois
			logger.Warn("redis ping failed, counters will fall back to memory", zap.String("addr", cfg.redisAddr), zap.Error(err))
		}
		pingCancel()

		store = infra.NewFallbackStore(
			infra.NewRedisStore(rdb, infra.WithRedisPrefix(cfg.redisPrefix), infra.WithRedisTimeout(cfg.redisTimeout)),
			memory,
			infra.WithFallbackLogger(logger),
		)

		if cfg.rateStatsEnabled {
			stats = append(stats, infra.NewRedisStatsStore(
				rdb,
				infra.WithStatsPrefix(cfg.rateStatsPrefix),
				infra.WithStatsTTL(cfg.rateStatsTTL),
				infra.WithStatsBucket(cfg.rateStatsBucket),
				infra.WithStatsTrackKeys(cfg.rateStatsTrackKeys),
			))
		}
	}

	// teto de requisições em voo fica atrás do rate limit: request rejetada
	// por cota não ocupa vaga
	inflight, err := ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{
		Max:            cfg.concurrencyMax,
		RejectStatus:   http.StatusServiceUnavailable,
		AcquireTimeout: cfg.concurrencyTimeout,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("concurrency: %w", err)
	}
	api := inflight(proxy)
	if cfg.rateEnabled {
		prefix := cfg.rateKeyPrefix
		limit, err := ratelimit.Middleware(ratelimit.Options{
			Store:               store,
			Stats:               stats,
			Limit:               cfg.rateLimit,
			Window:              cfg.rateWindow,
			KeyPrefix:           &prefix,
			KeyHeader:           cfg.rateKeyHeader,
			RemoteAddrFallback:  cfg.remoteAddrFallback,
			RejectStatus:        http.StatusTooManyRequests,
			AddRateLimitHeaders: cfg.addHeaders,
			Logger:              logger,
		})
		if err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
		api = limit(api)
	}

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           newRouter(api, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), statsHandler(memStats)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("gateway listening",
		zap.String("addr", cfg.listenAddr),
		zap.String("upstream", target.String()))
	logger.Info("rate limit",
		zap.Bool("enabled", cfg.rateEnabled),
		zap.Int("limit", cfg.rateLimit),
		zap.Duration("window", cfg.rateWindow),
		zap.String("keyPrefix", cfg.rateKeyPrefix),
		zap.String("keyHeader", cfg.rateKeyHeader),
		zap.Bool("redis", cfg.redisEnabled()))
	logger.Info("rate stats",
		zap.Bool("redis", cfg.rateStatsEnabled),
		zap.String("bucket", cfg.rateStatsBucket),
		zap.Duration("ttl", cfg.rateStatsTTL),
		zap.Bool("trackKeys", cfg.rateStatsTrackKeys))
	logger.Info("concurrency",
		zap.Int("max", cfg.concurrencyMax),
		zap.Duration("acquireTimeout", cfg.concurrencyTimeout))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// newRouter monta /healthz, /metrics, /debug/ratelimit e /api/* (rate limit +
// teto de concorrência + proxy).
//
// Sem middleware.RealIP: ele reescreve RemoteAddr, e a chave do rate limit
// vem dos headers de proxy.
func newRouter(api, metrics, debugStats http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", metrics)
	r.Method(http.MethodGet, "/debug/ratelimit", debugStats)
	r.Handle("/api/*", api)
	return r
}

// statsHandler expõe os totais do processo (allowed/denied total e por rota).
// Com Redis, os totais do cluster ficam no RedisStatsStore.
func statsHandler(stats *infra.MemoryStatsStore) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Total  infra.Counters            `json:"total"`
			Routes map[string]infra.Counters `json:"routes"`
		}{
			Total:  stats.Total(),
			Routes: stats.ByRoute(),
		})
	})
}
