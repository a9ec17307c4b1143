package sourcefile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/hackmonkey/praline-config"
	"github.com/hackmonkey/praline-config/internal/normalize"
)

// Options configures file source behavior.
type Options struct {
	// Format: "yaml", "json", "toml" or "hcl". Auto-detected from extension if empty.
	Format string

	// Required: if true, missing files cause an error. Default: false (returns empty map).
	Required bool

	// PollInterval enables Watch: the file's modification time and size are
	// checked at this interval. Zero disables watching.
	PollInterval time.Duration
}

type fileSource struct {
	path string
	opts Options
}

// New creates a file-based configuration source.
func New(path string, opts Options) praline.Source {
	return &fileSource{
		path: path,
		opts: opts,
	}
}

// Load reads and parses the file, returning its configuration tree.
func (f *fileSource) Load(ctx context.Context) (map[string]any, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			if f.opts.Required {
				return nil, fmt.Errorf("required config file not found: %s: %w", f.path, err)
			}
			return make(map[string]any), nil
		}
		return nil, fmt.Errorf("read config file %s: %w", f.path, err)
	}

	format := f.opts.Format
	if format == "" {
		format = inferFormat(f.path)
	}

	raw, err := parse(format, f.path, data)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return make(map[string]any), nil
	}
	tree, _ := normalize.StringKeys(raw).(map[string]any)
	return tree, nil
}

func parse(format, path string, data []byte) (map[string]any, error) {
	var raw map[string]any
	switch format {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse YAML file %s: %w", path, err)
		}
	case "json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse JSON file %s: %w", path, err)
		}
	case "toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse TOML file %s: %w", path, err)
		}
	case "hcl":
		tree, err := parseHCL(path, data)
		if err != nil {
			return nil, fmt.Errorf("parse HCL file %s: %w", path, err)
		}
		raw = tree
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: yaml, json, toml, hcl)", format)
	}
	return raw, nil
}

// Watch polls the file and emits a ChangeEvent when its modification time or
// size changes, including creation and removal. Returns ErrWatchNotSupported
// when PollInterval is zero. The channel closes when ctx is done.
func (f *fileSource) Watch(ctx context.Context) (<-chan praline.ChangeEvent, error) {
	if f.opts.PollInterval <= 0 {
		return nil, praline.ErrWatchNotSupported
	}

	ch := make(chan praline.ChangeEvent)
	last := f.stat()
	go func() {
		defer close(ch)
		ticker := time.NewTicker(f.opts.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				current := f.stat()
				if current == last {
					continue
				}
				last = current
				select {
				case ch <- praline.ChangeEvent{At: time.Now(), Cause: "file-changed:" + filepath.Base(f.path)}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

type fileState struct {
	exists  bool
	modTime time.Time
	size    int64
}

func (f *fileSource) stat() fileState {
	info, err := os.Stat(f.path)
	if err != nil {
		return fileState{}
	}
	return fileState{exists: true, modTime: info.ModTime(), size: info.Size()}
}

// Name returns a human-readable identifier for this source.
func (f *fileSource) Name() string {
	return "file:" + filepath.Base(f.path)
}

func inferFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	case ".toml":
		return "toml"
	case ".hcl":
		return "hcl"
	default:
		return ""
	}
}
