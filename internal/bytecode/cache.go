package bytecode

import (
	"context"
	"log/slog"
)

// Cache provides read access to a byte code cache. PhpOpcache is the only
// backend today.
type Cache interface {
	IsEnabled() bool
	Memory() Memory
	Statistics() Statistics
	Scripts() ScriptCollection
	Configuration() Configuration
}

// RestartReporter is implemented by backends that track cache resets.
type RestartReporter interface {
	Restarts() Restarts
}

// Configuration holds the tuning parameters of the cache engine. It is passed
// through without interpretation.
type Configuration map[string]any

// StatusFunc supplies a raw status snapshot. A nil status with a nil error
// means the runtime has no data, e.g. because the cache is disabled.
type StatusFunc func(ctx context.Context) (*Status, error)

func unavailable(context.Context) (*Status, error) {
	return nil, nil
}

type options struct {
	statusFunc StatusFunc
	logger     *slog.Logger
}

type Option func(*options)

// WithStatusFunc sets the supplier consulted when no snapshot is passed to
// NewPhpOpcache.
func WithStatusFunc(fn StatusFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.statusFunc = fn
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
