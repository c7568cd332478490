package application

import (
	"fmt"
	"time"

	"lists-gateway/middleware/ratelimit/domain"
)

const (
	DefaultLimit     = 50
	DefaultWindow    = 60 * time.Second
	DefaultKeyPrefix = "rl"
)

// AttemptOptions são os parâmetros de uma tentativa já resolvidos (com defaults).
type AttemptOptions struct {
	Limit     int
	Window    time.Duration
	KeyPrefix string
}

type Option func(*AttemptOptions)

// WithLimit define o máximo de tentativas admitidas por janela.
func WithLimit(n int) Option {
	return func(o *AttemptOptions) { o.Limit = n }
}

// WithWindow define o tamanho da janela fixa. A resolução é de milissegundos.
func WithWindow(d time.Duration) Option {
	return func(o *AttemptOptions) { o.Window = d }
}

// WithKeyPrefix define o namespace da chave. Vazio = identificador puro.
func WithKeyPrefix(p string) Option {
	return func(o *AttemptOptions) { o.KeyPrefix = p }
}

// ResolveOptions aplica os defaults e valida. Útil para falhar cedo na
// construção de middlewares, antes da primeira request.
func ResolveOptions(opts ...Option) (AttemptOptions, error) {
	o := AttemptOptions{
		Limit:     DefaultLimit,
		Window:    DefaultWindow,
		KeyPrefix: DefaultKeyPrefix,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.Validate(); err != nil {
		return AttemptOptions{}, err
	}
	return o, nil
}

func (o AttemptOptions) Validate() error {
	if o.Limit <= 0 {
		return fmt.Errorf("%w: got %d", domain.ErrInvalidLimit, o.Limit)
	}
	if o.Window < time.Millisecond {
		return fmt.Errorf("%w: got %s", domain.ErrInvalidWindow, o.Window)
	}
	return nil
}

func (o AttemptOptions) key(identifier string) domain.Key {
	if o.KeyPrefix == "" {
		return domain.Key(identifier)
	}
	return domain.Key(o.KeyPrefix + ":" + identifier)
}

// Options converte de volta para a lista de Option (ex.: guardar em um middleware).
func (o AttemptOptions) Options() []Option {
	return []Option{WithLimit(o.Limit), WithWindow(o.Window), WithKeyPrefix(o.KeyPrefix)}
}
