package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lists-gateway/middleware/ratelimit"
	"lists-gateway/middleware/ratelimit/application"
	"lists-gateway/middleware/ratelimit/infra"

	"go.uber.org/zap"
)

// Exemplo: handlers chamando Attempt direto (sem middleware), cada rota com seu
// próprio prefixo e limite.
func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	mux := newMux(application.Service{Store: infra.NewMemoryStore()}, logger)

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("example server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

// newMux registra as rotas de busca: places com 20/min, movies com os defaults.
func newMux(svc application.Service, logger *zap.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/places/search", limited(svc, logger, []application.Option{
		application.WithKeyPrefix("places"),
		application.WithLimit(20),
		application.WithWindow(time.Minute),
	}, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"query": r.URL.Query().Get("q"), "results": []string{}})
	}))
	mux.HandleFunc("GET /api/movies/search", limited(svc, logger, []application.Option{
		application.WithKeyPrefix("movies"),
	}, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"title": r.URL.Query().Get("t"), "results": []string{}})
	}))
	return mux
}

func limited(svc application.Service, logger *zap.Logger, opts []application.Option, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dec, err := svc.Attempt(r.Context(), ratelimit.ClientAddress(r), opts...)
		if err != nil {
			logger.Error("rate limit attempt failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		ratelimit.SetHeaders(w.Header(), dec)
		if !dec.Allowed {
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
