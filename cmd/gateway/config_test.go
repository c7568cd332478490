package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lists-gateway/middleware/ratelimit/domain"
	"lists-gateway/middleware/ratelimit/infra"
)

func TestReadConfig_Defaults(t *testing.T) {
	t.Setenv("UPSTREAM_URL", "http://localhost:3000")

	cfg, err := readConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.listenAddr != ":8080" {
		t.Fatalf("expected :8080, got %q", cfg.listenAddr)
	}
	if !cfg.rateEnabled || cfg.rateLimit != 50 || cfg.rateWindow != 60*time.Second || cfg.rateKeyPrefix != "rl" {
		t.Fatalf("unexpected rate defaults: %+v", cfg)
	}
	if cfg.redisEnabled() {
		t.Fatalf("expected redis disabled without REDIS_ADDR")
	}
}

func TestReadConfig_Overrides(t *testing.T) {
	t.Setenv("UPSTREAM_URL", "http://localhost:3000")
	t.Setenv("RATE_LIMIT", "5")
	t.Setenv("RATE_WINDOW", "10s")
	t.Setenv("RATE_KEY_PREFIX", "api")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("RATE_STATS_ENABLED", "true")

	cfg, err := readConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.rateLimit != 5 || cfg.rateWindow != 10*time.Second || cfg.rateKeyPrefix != "api" {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if !cfg.redisEnabled() || !cfg.rateStatsEnabled {
		t.Fatalf("expected redis and stats enabled")
	}
}

func TestReadConfig_RequiresUpstream(t *testing.T) {
	t.Setenv("UPSTREAM_URL", "")
	if _, err := readConfig(); err == nil {
		t.Fatalf("expected error without UPSTREAM_URL")
	}
}

func TestReadConfig_StatsRequireRedis(t *testing.T) {
	t.Setenv("UPSTREAM_URL", "http://localhost:3000")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("RATE_STATS_ENABLED", "true")
	if _, err := readConfig(); err == nil {
		t.Fatalf("expected error when stats enabled without REDIS_ADDR")
	}
}

func TestReadConfig_InvalidRateFailsFast(t *testing.T) {
	t.Setenv("UPSTREAM_URL", "http://localhost:3000")
	t.Setenv("RATE_LIMIT", "0")
	if _, err := readConfig(); !errors.Is(err, domain.ErrInvalidLimit) {
		t.Fatalf("expected ErrInvalidLimit, got %v", err)
	}

	t.Setenv("RATE_LIMIT", "10")
	t.Setenv("RATE_WINDOW", "-1s")
	if _, err := readConfig(); !errors.Is(err, domain.ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}

func TestReadConfig_MalformedValuesFailFast(t *testing.T) {
	cases := map[string]string{
		"RATE_LIMIT":          "abc",
		"RATE_WINDOW":         "1000",
		"RATE_ENABLED":        "yes please",
		"CONCURRENCY_TIMEOUT": "5",
		"REDIS_DB":            "zero",
	}
	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			t.Setenv("UPSTREAM_URL", "http://localhost:3000")
			t.Setenv(k, v)

			_, err := readConfig()
			if err == nil {
				t.Fatalf("expected error for %s=%q", k, v)
			}
			if !strings.Contains(err.Error(), k) {
				t.Fatalf("expected error to name %s, got %v", k, err)
			}
		})
	}
}

func TestReadConfig_ReportsEveryMalformedValue(t *testing.T) {
	t.Setenv("UPSTREAM_URL", "http://localhost:3000")
	t.Setenv("RATE_LIMIT", "abc")
	t.Setenv("RATE_WINDOW", "1000")

	_, err := readConfig()
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, k := range []string{"RATE_LIMIT", "RATE_WINDOW"} {
		if !strings.Contains(err.Error(), k) {
			t.Fatalf("expected error to name %s, got %v", k, err)
		}
	}
}

func TestReadConfig_Concurrency(t *testing.T) {
	t.Setenv("UPSTREAM_URL", "http://localhost:3000")

	cfg, err := readConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.concurrencyMax != 100 || cfg.concurrencyTimeout != 0 {
		t.Fatalf("unexpected concurrency defaults: max=%d timeout=%s", cfg.concurrencyMax, cfg.concurrencyTimeout)
	}

	t.Setenv("CONCURRENCY_MAX", "-1")
	if _, err := readConfig(); !errors.Is(err, domain.ErrInvalidConcurrency) {
		t.Fatalf("expected ErrInvalidConcurrency, got %v", err)
	}
}

func TestReadConfig_RejectsUnknownLogFormat(t *testing.T) {
	t.Setenv("UPSTREAM_URL", "http://localhost:3000")
	t.Setenv("LOG_FORMAT", "yaml")
	if _, err := readConfig(); err == nil {
		t.Fatalf("expected error for LOG_FORMAT=yaml")
	}
}

func TestLoggerConfig_Encoding(t *testing.T) {
	cases := []struct {
		env, format, want string
	}{
		{"production", "", "json"},
		{"development", "", "console"},
		{"production", "console", "console"},
		{"development", "json", "json"},
	}
	for _, c := range cases {
		if got := loggerConfig(c.env, "info", c.format).Encoding; got != c.want {
			t.Fatalf("env=%s format=%q: expected %s, got %s", c.env, c.format, c.want, got)
		}
	}
}

func TestReadConfig_ProductionLogsAsJSONByDefault(t *testing.T) {
	t.Setenv("UPSTREAM_URL", "http://localhost:3000")
	t.Setenv("LOG_ENV", "production")

	cfg, err := readConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := loggerConfig(cfg.logEnv, cfg.logLevel, cfg.logFormat).Encoding; got != "json" {
		t.Fatalf("expected json encoding, got %s", got)
	}
}

func TestNewLogger(t *testing.T) {
	for _, env := range []string{"production", "development"} {
		l, err := newLogger(env, "debug", "json")
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", env, err)
		}
		if !l.Core().Enabled(parseLogLevel("debug")) {
			t.Fatalf("%s: expected debug enabled", env)
		}
	}
}

func TestRouter_Routes(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("api:" + r.URL.Path))
	})
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("metrics"))
	})
	debug := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("debug"))
	})
	r := newRouter(api, metrics, debug)

	cases := map[string]string{
		"/healthz":           `{"status":"ok"}`,
		"/metrics":           "metrics",
		"/debug/ratelimit":   "debug",
		"/api/places/search": "api:/api/places/search",
	}
	for path, want := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != want {
			t.Fatalf("%s: expected 200 %q, got %d %q", path, want, w.Code, w.Body.String())
		}
	}
}

func TestStatsHandler_ServesTotals(t *testing.T) {
	stats := infra.NewMemoryStatsStore()
	ctx := context.Background()
	_ = stats.Record(ctx, domain.StatsEvent{Allowed: true, Method: "GET", Path: "/api/places"})
	_ = stats.Record(ctx, domain.StatsEvent{Allowed: false, Method: "GET", Path: "/api/places"})

	w := httptest.NewRecorder()
	statsHandler(stats).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/ratelimit", nil))

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected json content type, got %q", ct)
	}
	want := `{"total":{"allowed":1,"denied":1},"routes":{"GET /api/places":{"allowed":1,"denied":1}}}`
	if got := strings.TrimSpace(w.Body.String()); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}
