package ratelimit

import (
	"net/http"
	"strings"
	"time"

	"lists-gateway/middleware/ratelimit/application"
	"lists-gateway/middleware/ratelimit/domain"

	"go.uber.org/zap"
)

const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

type KeyFunc func(r *http.Request) string

type Options struct {
	Store domain.CounterStore
	Stats domain.StatsStore
	// Now é repassado para application.Service (testes).
	Now func() time.Time

	Limit     int
	Window    time.Duration
	KeyPrefix *string // nil = application.DefaultKeyPrefix

	KeyFn              KeyFunc
	KeyHeader          string
	RemoteAddrFallback bool

	RejectStatus        int
	AddRateLimitHeaders bool

	Logger *zap.Logger
}

// DefaultKeyFunc usa o header keyHeader (API key, user id) quando presente e não
// vazio. Caso contrário usa ClientAddress. Com remoteAddrFallback, "unknown" vira o
// host de RemoteAddr.
func DefaultKeyFunc(keyHeader string, remoteAddrFallback bool) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
			}
		}

		addr := ClientAddress(r)
		if addr == UnknownClient && remoteAddrFallback {
			if host := remoteHost(r); host != "" {
				return host
			}
		}
		return addr
	}
}

// SetHeaders escreve limit/remaining/reset (reset em epoch ms).
func SetHeaders(h http.Header, dec domain.Decision) {
	h.Set(HeaderLimit, formatInt(dec.Limit))
	h.Set(HeaderRemaining, formatInt(dec.Remaining))
	h.Set(HeaderReset, formatInt64(dec.Reset.UnixMilli()))
}

// Middleware valida as opções na construção (falha cedo) e devolve o adapter HTTP.
func Middleware(opts Options) (func(next http.Handler) http.Handler, error) {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.RemoteAddrFallback)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	var attemptOpts []application.Option
	if opts.Limit != 0 {
		attemptOpts = append(attemptOpts, application.WithLimit(opts.Limit))
	}
	if opts.Window != 0 {
		attemptOpts = append(attemptOpts, application.WithWindow(opts.Window))
	}
	if opts.KeyPrefix != nil {
		attemptOpts = append(attemptOpts, application.WithKeyPrefix(*opts.KeyPrefix))
	}
	resolved, err := application.ResolveOptions(attemptOpts...)
	if err != nil {
		return nil, err
	}
	attemptOpts = resolved.Options()

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	svc := application.Service{
		Store: opts.Store,
		Now:   now,
	}
	logger := opts.Logger

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.KeyFn(r)
			if key == "" {
				key = UnknownClient
			}

			dec, err := svc.Attempt(r.Context(), key, attemptOpts...)
			if err != nil {
				// store sem fallback falhou: deixa passar (fail open)
				logger.Error("rate limit attempt failed", zap.String("key", key), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			if opts.Stats != nil {
				if err := opts.Stats.Record(r.Context(), domain.StatsEvent{
					Key:       domain.Key(key),
					Allowed:   dec.Allowed,
					Remaining: dec.Remaining,
					Method:    r.Method,
					Path:      r.URL.Path,
					At:        now(),
				}); err != nil {
					logger.Debug("rate limit stats record failed", zap.Error(err))
				}
			}

			if !dec.Allowed {
				SetHeaders(w.Header(), dec)
				w.Header().Set(HeaderRetryAfter, formatInt(retryAfterSeconds(dec.RetryAfter)))
				logger.Debug("rate limit exceeded",
					zap.String("key", key),
					zap.String("path", r.URL.Path),
					zap.Int("limit", dec.Limit),
					zap.Time("reset", dec.Reset))
				http.Error(w, http.StatusText(opts.RejectStatus), opts.RejectStatus)
				return
			}

			if opts.AddRateLimitHeaders {
				SetHeaders(w.Header(), dec)
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}

// retryAfterSeconds arredonda para cima; mínimo 1s.
func retryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
