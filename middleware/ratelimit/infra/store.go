package infra

import (
	"context"
	"sync"
	"time"

	"lists-gateway/middleware/ratelimit/domain"
)

// MemoryStore é o CounterStore em memória do processo (janela fixa, reset preguiçoso).
//
// O mutex serializa o read-modify-write: com N tentativas concorrentes e limite L,
// exatamente min(N, L) são admitidas.
//
// Por padrão nada é removido: um registro expirado é apenas substituído no
// próximo acesso. WithCleanupEvery liga um janitor que apaga registros com
// ResetAt já vencido (não altera nenhuma decisão).
type MemoryStore struct {
	mu           sync.Mutex
	entries      map[string]domain.Counter
	cleanupEvery time.Duration
	now          func() time.Time
}

type MemoryStoreOption func(*MemoryStore)

func WithCleanupEvery(d time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) { s.cleanupEvery = d }
}

// WithClock troca o relógio usado pelo Cleanup.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) { s.now = now }
}

func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]domain.Counter),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) CleanupEvery() time.Duration { return s.cleanupEvery }

// Increment implementa domain.CounterStore. Nunca falha.
func (s *MemoryStore) Increment(_ context.Context, key domain.Key, w domain.Window) (domain.Counter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.entries[string(key)]
	if !ok || !c.ResetAt.After(w.Now) {
		c = domain.Counter{Count: 1, ResetAt: w.ResetAt()}
	} else {
		c.Count++
	}
	s.entries[string(key)] = c
	return c, nil
}

// Peek devolve o registro atual sem incrementar.
func (s *MemoryStore) Peek(key domain.Key) (domain.Counter, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.entries[string(key)]
	return c, ok
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Cleanup remove registros cuja janela já terminou e retorna quantos saíram.
func (s *MemoryStore) Cleanup() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, c := range s.entries {
		if !c.ResetAt.After(now) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// StartJanitor inicia uma goroutine que limpa registros vencidos periodicamente.
// Pare cancelando o contexto. Sem WithCleanupEvery é no-op.
func (s *MemoryStore) StartJanitor(ctx DoneContext) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}

// DoneContext é o mínimo necessário para aceitar context.Context no janitor.
type DoneContext interface {
	Done() <-chan struct{}
}
