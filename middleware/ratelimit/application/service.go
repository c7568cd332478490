package application

import (
	"context"
	"time"

	"lists-gateway/middleware/ratelimit/domain"
)

// Service concentra a regra de aplicação do rate limit de janela fixa.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
// O Store é injetado; não há estado global.
type Service struct {
	Store domain.CounterStore
	// Now permite relógio fixo em testes. Se nil, usa time.Now.
	Now func() time.Time
}

// Attempt registra uma tentativa para identifier e decide se ela é admitida.
//
// Erros só acontecem por opções inválidas, identificador vazio ou falha do Store
// (quando o Store não faz fallback por conta própria).
func (s Service) Attempt(ctx context.Context, identifier string, opts ...Option) (domain.Decision, error) {
	o, err := ResolveOptions(opts...)
	if err != nil {
		return domain.Decision{}, err
	}
	if identifier == "" {
		return domain.Decision{}, domain.ErrEmptyIdentifier
	}

	w := s.window(o.Window)
	if s.Store == nil {
		return domain.Decision{Allowed: true, Limit: o.Limit, Remaining: o.Limit, Reset: w.ResetAt()}, nil
	}

	c, err := s.Store.Increment(ctx, o.key(identifier), w)
	if err != nil {
		return domain.Decision{}, err
	}
	return decide(o.Limit, c, w.Now), nil
}

func (s Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// window calcula a janela alinhada: start = floor(now/window)*window.
func (s Service) window(length time.Duration) domain.Window {
	now := s.now()
	ms := length.Milliseconds()
	start := now.UnixMilli() / ms * ms
	return domain.Window{
		Start:  time.UnixMilli(start),
		Length: time.Duration(ms) * time.Millisecond,
		Now:    now,
	}
}

func decide(limit int, c domain.Counter, now time.Time) domain.Decision {
	dec := domain.Decision{
		Allowed:   c.Count <= int64(limit),
		Limit:     limit,
		Remaining: 0,
		Reset:     c.ResetAt,
	}
	if left := int64(limit) - c.Count; left > 0 {
		dec.Remaining = int(left)
	}
	if !dec.Allowed {
		dec.RetryAfter = c.ResetAt.Sub(now)
		if dec.RetryAfter < 0 {
			dec.RetryAfter = 0
		}
	}
	return dec
}
