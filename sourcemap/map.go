package sourcemap

import (
	"context"

	"github.com/hackmonkey/praline-config"
	"github.com/hackmonkey/praline-config/internal/normalize"
)

type mapSource struct {
	name string
	data map[string]any
}

// New creates a static source named name. Dotted keys address nested
// values: {"server.port": 8080} loads as {"server": {"port": 8080}}.
// A scalar never replaces a nested map built from dotted keys.
func New(name string, data map[string]any) praline.Source {
	return &mapSource{name: name, data: data}
}

// Load returns a fresh tree on every call; callers may mutate it.
func (m *mapSource) Load(ctx context.Context) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return normalize.Expand(m.data), nil
}

func (m *mapSource) Watch(ctx context.Context) (<-chan praline.ChangeEvent, error) {
	return nil, praline.ErrWatchNotSupported
}

func (m *mapSource) Name() string {
	return m.name
}
