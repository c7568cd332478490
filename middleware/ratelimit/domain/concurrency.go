package domain

import (
	"context"
	"errors"
)

var (
	ErrInvalidConcurrency    = errors.New("ratelimit: concurrency max must be >= 0")
	ErrInvalidAcquireTimeout = errors.New("ratelimit: acquire timeout must be >= 0")
)

// SlotPool limita quantas requisições ficam em voo ao mesmo tempo no upstream.
//
// Acquire bloqueia até ter vaga ou até o ctx encerrar. Com ok=true, release deve
// ser chamado exatamente uma vez. InUse e Cap alimentam logs e métricas.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
	InUse() int
	Cap() int
}
