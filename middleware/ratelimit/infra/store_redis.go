package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lists-gateway/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// RedisStore é o CounterStore distribuído: INCR + PEXPIREAT dentro de MULTI/EXEC.
//
// A chave carrega o início da janela (<prefix>:<key>:<startMs>), então cada
// janela tem seu próprio contador e expira sozinha no fim da janela.
type RedisStore struct {
	rdb     redis.Cmdable
	prefix  string
	timeout time.Duration
}

type RedisStoreOption func(*RedisStore)

func WithRedisPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) { s.prefix = strings.Trim(prefix, ":") }
}

// WithRedisTimeout limita cada operação. 0 = usa só o ctx de quem chama.
func WithRedisTimeout(d time.Duration) RedisStoreOption {
	return func(s *RedisStore) { s.timeout = d }
}

func NewRedisStore(rdb redis.Cmdable, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		rdb:     rdb,
		prefix:  "ratelimit",
		timeout: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) redisKey(key domain.Key, w domain.Window) string {
	if s.prefix == "" {
		return fmt.Sprintf("%s:%d", key, w.Start.UnixMilli())
	}
	return fmt.Sprintf("%s:%s:%d", s.prefix, key, w.Start.UnixMilli())
}

// Increment implementa domain.CounterStore.
func (s *RedisStore) Increment(ctx context.Context, key domain.Key, w domain.Window) (domain.Counter, error) {
	if s == nil || s.rdb == nil {
		return domain.Counter{}, fmt.Errorf("redis store: no client configured")
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	k := s.redisKey(key, w)
	resetAt := w.ResetAt()

	var incr *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.PExpireAt(ctx, k, resetAt)
		return nil
	})
	if err != nil {
		return domain.Counter{}, fmt.Errorf("redis incr %q: %w", k, err)
	}
	return domain.Counter{Count: incr.Val(), ResetAt: resetAt}, nil
}
