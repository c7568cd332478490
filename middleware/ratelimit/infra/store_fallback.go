package infra

import (
	"context"
	"time"

	"lists-gateway/middleware/ratelimit/domain"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// FallbackStore usa o Primary (ex.: Redis) e, em qualquer erro dele, responde
// pelo Fallback (ex.: memória). O erro do Primary nunca chega a quem chama,
// só vira um warning no log.
//
// Os warnings são amostrados (rate.Sometimes) para não inundar o log
// durante uma queda longa do Redis.
type FallbackStore struct {
	primary  domain.CounterStore
	fallback domain.CounterStore
	logger   *zap.Logger
	warn     *rate.Sometimes
}

type FallbackOption func(*FallbackStore)

func WithFallbackLogger(l *zap.Logger) FallbackOption {
	return func(s *FallbackStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWarnInterval define o intervalo mínimo entre warnings. 0 = loga todo erro.
func WithWarnInterval(d time.Duration) FallbackOption {
	return func(s *FallbackStore) {
		if d <= 0 {
			s.warn = &rate.Sometimes{Every: 1}
			return
		}
		s.warn = &rate.Sometimes{First: 1, Interval: d}
	}
}

func NewFallbackStore(primary, fallback domain.CounterStore, opts ...FallbackOption) *FallbackStore {
	s := &FallbackStore{
		primary:  primary,
		fallback: fallback,
		logger:   zap.NewNop(),
		warn:     &rate.Sometimes{First: 1, Interval: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fallback == nil {
		s.fallback = NewMemoryStore()
	}
	return s
}

// Increment implementa domain.CounterStore.
func (s *FallbackStore) Increment(ctx context.Context, key domain.Key, w domain.Window) (domain.Counter, error) {
	if s.primary != nil {
		c, err := s.primary.Increment(ctx, key, w)
		if err == nil {
			return c, nil
		}
		s.warn.Do(func() {
			s.logger.Warn("rate limit store failed, falling back to memory",
				zap.String("key", string(key)),
				zap.Error(err))
		})
	}
	return s.fallback.Increment(ctx, key, w)
}
