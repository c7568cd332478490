package domain

// Camada de domínio do rate limit (janela fixa).
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import (
	"context"
	"errors"
	"time"
)

// Key é a chave composta de um contador: "prefixo:identificador".
type Key string

var (
	ErrInvalidLimit    = errors.New("ratelimit: limit must be > 0")
	ErrInvalidWindow   = errors.New("ratelimit: window must be >= 1ms")
	ErrEmptyIdentifier = errors.New("ratelimit: identifier must not be empty")
)

// Counter é o registro de uma chave dentro da janela corrente.
//
// Count nunca diminui dentro de uma janela. Na primeira tentativa após ResetAt
// o registro é substituído (Count volta a 1), sem merge.
type Counter struct {
	Count   int64
	ResetAt time.Time
}

// Window descreve a janela fixa de uma tentativa.
// Start está alinhado ao tempo absoluto (múltiplo de Length desde a época Unix).
type Window struct {
	Start  time.Time
	Length time.Duration
	Now    time.Time
}

func (w Window) ResetAt() time.Time { return w.Start.Add(w.Length) }

// CounterStore incrementa o contador de uma chave na janela informada.
//
// Implementações devem ser seguras para uso concorrente: o incremento precisa
// ser atômico (mutex, MULTI/EXEC, etc).
type CounterStore interface {
	Increment(ctx context.Context, key Key, w Window) (Counter, error)
}

// Decision é o resultado de uma tentativa de admissão.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// Reset é o fim da janela corrente.
	Reset time.Time
	// RetryAfter só é preenchido quando bloqueado.
	RetryAfter time.Duration
}
