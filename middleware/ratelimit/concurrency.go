package ratelimit

import (
	"net/http"
	"time"

	"lists-gateway/middleware/ratelimit/application"
	"lists-gateway/middleware/ratelimit/domain"
	"lists-gateway/middleware/ratelimit/infra"

	"go.uber.org/zap"
)

type ConcurrencyOptions struct {
	// Max = 0 desliga o teto.
	Max            int
	RejectStatus   int
	AcquireTimeout time.Duration

	Logger *zap.Logger
}

// ConcurrencyMiddleware limita as requisições em voo. Sem vaga dentro de
// AcquireTimeout responde RejectStatus (503 por padrão).
func ConcurrencyMiddleware(opts ConcurrencyOptions) (func(next http.Handler) http.Handler, error) {
	if opts.Max < 0 {
		return nil, domain.ErrInvalidConcurrency
	}
	if opts.AcquireTimeout < 0 {
		return nil, domain.ErrInvalidAcquireTimeout
	}
	if opts.Max == 0 {
		return func(next http.Handler) http.Handler { return next }, nil
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	pool := infra.NewChanPool(opts.Max)
	svc := application.ConcurrencyService{
		Pool:           pool,
		AcquireTimeout: opts.AcquireTimeout,
	}
	logger := opts.Logger

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, ok := svc.Acquire(r.Context())
			if !ok {
				logger.Warn("concurrency limit reached",
					zap.String("path", r.URL.Path),
					zap.Int("inUse", pool.InUse()),
					zap.Int("max", pool.Cap()),
					zap.Duration("acquireTimeout", opts.AcquireTimeout))
				http.Error(w, http.StatusText(opts.RejectStatus), opts.RejectStatus)
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}, nil
}
