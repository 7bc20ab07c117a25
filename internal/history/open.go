package history

import (
	"context"
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Open builds the store for backend. The returned close function is never
// nil.
func Open(ctx context.Context, backend, path string, opts ...Option) (Store, func() error, error) {
	switch backend {
	case "", BackendMemory:
		return NewMemory(opts...), func() error { return nil }, nil
	case BackendSQLite:
		if path == "" {
			return nil, nil, fmt.Errorf("history: sqlite backend requires a path")
		}
		s, err := OpenSQLite(ctx, path, opts...)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("history: unknown backend %q", backend)
	}
}
