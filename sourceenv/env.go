package sourceenv

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/hackmonkey/praline-config"
	"github.com/hackmonkey/praline-config/internal/normalize"
)

// Options configures environment variable source behavior.
type Options struct {
	// Prefix filters vars starting with prefix (stripped before normalization).
	// Empty = load all vars.
	Prefix string

	// CaseSensitive controls prefix matching (default: false).
	// Keys are always normalized to lowercase after prefix stripping.
	CaseSensitive bool

	// DotEnv lists .env files loaded into the process environment before
	// scanning. Variables already set are never overwritten; missing files are skipped.
	DotEnv []string
}

type envSource struct {
	opts Options
}

// New creates an environment variable source.
func New(opts Options) praline.Source {
	return &envSource{opts: opts}
}

// Load scans environment variables, filters by prefix and nests keys:
// APP_DATABASE__HOST with prefix APP_ becomes {"database": {"host": ...}}.
func (e *envSource) Load(ctx context.Context) (map[string]any, error) {
	if err := loadDotEnv(e.opts.DotEnv); err != nil {
		return nil, err
	}

	flat := make(map[string]any)
	for _, env := range os.Environ() {
		key, value, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}

		if e.opts.Prefix != "" {
			if !e.hasPrefix(key) {
				continue
			}
			key = key[len(e.opts.Prefix):]
		}
		if key == "" {
			continue
		}

		flat[normalize.ToLowerDotPath(key)] = value
	}

	return normalize.Expand(flat), nil
}

func (e *envSource) hasPrefix(key string) bool {
	if e.opts.CaseSensitive {
		return strings.HasPrefix(key, e.opts.Prefix)
	}
	return len(key) >= len(e.opts.Prefix) && strings.EqualFold(key[:len(e.opts.Prefix)], e.opts.Prefix)
}

func loadDotEnv(files []string) error {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load dotenv file %s: %w", file, err)
		}
	}
	return nil
}

// Watch returns ErrWatchNotSupported (env vars don't change at runtime).
func (e *envSource) Watch(ctx context.Context) (<-chan praline.ChangeEvent, error) {
	return nil, praline.ErrWatchNotSupported
}

// Name returns "env", or "env:PREFIX" when a prefix is set.
func (e *envSource) Name() string {
	if e.opts.Prefix != "" {
		return "env:" + e.opts.Prefix
	}
	return "env"
}
