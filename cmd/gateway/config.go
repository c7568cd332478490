package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"lists-gateway/middleware/ratelimit/application"
	"lists-gateway/middleware/ratelimit/domain"
)

type config struct {
	listenAddr  string
	upstreamURL string

	rateEnabled        bool
	rateLimit          int
	rateWindow         time.Duration
	rateKeyPrefix      string
	rateKeyHeader      string
	remoteAddrFallback bool
	addHeaders         bool
	cleanupEvery       time.Duration

	concurrencyMax     int
	concurrencyTimeout time.Duration

	redisAddr     string
	redisPassword string
	redisDB       int
	redisPrefix   string
	redisTimeout  time.Duration

	rateStatsEnabled   bool
	rateStatsPrefix    string
	rateStatsTTL       time.Duration
	rateStatsBucket    string
	rateStatsTrackKeys bool

	logEnv    string
	logLevel  string
	logFormat string
}

func (c config) redisEnabled() bool { return strings.TrimSpace(c.redisAddr) != "" }

func readConfig() (config, error) {
	var (
		cfg config
		p   envParser
	)
	cfg.listenAddr = getenvDefault("LISTEN_ADDR", ":8080")
	cfg.upstreamURL = os.Getenv("UPSTREAM_URL")

	cfg.rateEnabled = p.getBool("RATE_ENABLED", true)
	cfg.rateLimit = p.getInt("RATE_LIMIT", application.DefaultLimit)
	cfg.rateWindow = p.getDuration("RATE_WINDOW", application.DefaultWindow)
	cfg.rateKeyPrefix = getenvDefault("RATE_KEY_PREFIX", application.DefaultKeyPrefix)
	cfg.rateKeyHeader = os.Getenv("RATE_KEY_HEADER")
	cfg.remoteAddrFallback = p.getBool("RATE_REMOTE_ADDR_FALLBACK", false)
	cfg.addHeaders = p.getBool("ADD_RATELIMIT_HEADERS", false)
	cfg.cleanupEvery = p.getDuration("RATE_CLEANUP_EVERY", 0)

	cfg.concurrencyMax = p.getInt("CONCURRENCY_MAX", 100)
	cfg.concurrencyTimeout = p.getDuration("CONCURRENCY_TIMEOUT", 0)

	cfg.redisAddr = os.Getenv("REDIS_ADDR")
	cfg.redisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.redisDB = p.getInt("REDIS_DB", 0)
	cfg.redisPrefix = getenvDefault("REDIS_PREFIX", "ratelimit")
	cfg.redisTimeout = p.getDuration("REDIS_TIMEOUT", 500*time.Millisecond)

	cfg.rateStatsEnabled = p.getBool("RATE_STATS_ENABLED", false)
	cfg.rateStatsPrefix = getenvDefault("RATE_STATS_PREFIX", "ratelimit:stats")
	cfg.rateStatsTTL = p.getDuration("RATE_STATS_TTL", 24*time.Hour)
	cfg.rateStatsBucket = getenvDefault("RATE_STATS_BUCKET", "minute")
	cfg.rateStatsTrackKeys = p.getBool("RATE_STATS_TRACK_KEYS", false)

	cfg.logEnv = getenvDefault("LOG_ENV", "development")
	cfg.logLevel = getenvDefault("LOG_LEVEL", "info")
	// vazio = encoding padrão do LOG_ENV
	cfg.logFormat = os.Getenv("LOG_FORMAT")

	if err := p.err(); err != nil {
		return config{}, err
	}
	if cfg.upstreamURL == "" {
		return config{}, errors.New("UPSTREAM_URL is required")
	}
	if cfg.rateStatsEnabled && !cfg.redisEnabled() {
		return config{}, errors.New("REDIS_ADDR is required when RATE_STATS_ENABLED=true")
	}
	if cfg.concurrencyMax < 0 {
		return config{}, fmt.Errorf("CONCURRENCY_MAX: %w", domain.ErrInvalidConcurrency)
	}
	if cfg.concurrencyTimeout < 0 {
		return config{}, fmt.Errorf("CONCURRENCY_TIMEOUT: %w", domain.ErrInvalidAcquireTimeout)
	}
	switch cfg.logFormat {
	case "", "json", "console":
	default:
		return config{}, fmt.Errorf("LOG_FORMAT must be json or console, got %q", cfg.logFormat)
	}
	// mesmas regras do Attempt, mas no boot
	if _, err := application.ResolveOptions(
		application.WithLimit(cfg.rateLimit),
		application.WithWindow(cfg.rateWindow),
	); err != nil {
		return config{}, fmt.Errorf("RATE_LIMIT/RATE_WINDOW: %w", err)
	}
	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// envParser lê variáveis tipadas e acumula os erros de parse (um por variável),
// para o boot falhar listando todas de uma vez.
type envParser struct {
	errs []error
}

func (p *envParser) fail(k, v string, err error) {
	p.errs = append(p.errs, fmt.Errorf("%s=%q: %w", k, v, err))
}

func (p *envParser) err() error { return errors.Join(p.errs...) }

func (p *envParser) getInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		p.fail(k, v, err)
		return def
	}
	return i
}

func (p *envParser) getBool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(k, v, err)
		return def
	}
	return b
}

// getDuration exige unidade ("60s", "1m"); "1000" puro é erro.
func (p *envParser) getDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(k, v, err)
		return def
	}
	return d
}
