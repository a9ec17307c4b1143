package praline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxSnapshotSize is the maximum allowed snapshot size (100MB).
const MaxSnapshotSize = 100 * 1024 * 1024

// SnapshotVersion is the current snapshot format version.
const SnapshotVersion = "1.0"

// Snapshot errors.
var (
	ErrSnapshotTooLarge   = errors.New("praline: snapshot exceeds 100MB size limit")
	ErrNilConfig          = errors.New("praline: config is nil")
	ErrUnsupportedVersion = errors.New("praline: unsupported snapshot version")
)

var supportedVersions = map[string]bool{
	SnapshotVersion: true,
}

// ConfigSnapshot is a point-in-time capture of a loaded configuration.
type ConfigSnapshot struct {
	ID        string    `json:"id"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`

	// Config maps configuration key paths ("database.host", "users[0].name")
	// to leaf values. Secrets are redacted.
	Config map[string]any `json:"config"`

	Provenance []FieldProvenance `json:"provenance"`
}

// SnapshotOption configures snapshot creation behavior.
type SnapshotOption func(*snapshotConfig)

type snapshotConfig struct {
	excludeFields []string
}

// WithExcludeFields excludes key paths from the snapshot (case-insensitive).
// Excluding a path also excludes everything below it.
func WithExcludeFields(paths ...string) SnapshotOption {
	return func(cfg *snapshotConfig) {
		cfg.excludeFields = append(cfg.excludeFields, paths...)
	}
}

// CreateSnapshot captures the current configuration state with secrets redacted.
func CreateSnapshot[T any](cfg *T, opts ...SnapshotOption) (*ConfigSnapshot, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	snapCfg := &snapshotConfig{}
	for _, opt := range opts {
		opt(snapCfg)
	}

	v := reflect.ValueOf(cfg).Elem()
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("config must be a struct or pointer to struct")
	}

	d := &dumper{provenance: make(map[string]FieldProvenance)}
	var provFields []FieldProvenance
	if prov, ok := GetProvenance(cfg); ok {
		provFields = prov.Fields
		for _, fp := range prov.Fields {
			d.provenance[fp.FieldPath] = fp
		}
	}
	d.walk(v, "", "", false)

	flat := make(map[string]any, len(d.entries))
	for _, entry := range d.entries {
		if !isExcluded(entry.keyPath, snapCfg.excludeFields) {
			flat[entry.keyPath] = entry.value
		}
	}

	return &ConfigSnapshot{
		ID:         uuid.NewString(),
		Version:    SnapshotVersion,
		Timestamp:  time.Now().UTC(),
		Config:     flat,
		Provenance: provFields,
	}, nil
}

func isExcluded(keyPath string, exclude []string) bool {
	for _, path := range exclude {
		if strings.EqualFold(keyPath, path) {
			return true
		}
		if len(keyPath) > len(path) && strings.EqualFold(keyPath[:len(path)], path) {
			if next := keyPath[len(path)]; next == '.' || next == '[' {
				return true
			}
		}
	}
	return false
}

// ExpandPath expands template variables using the current time.
func ExpandPath(template string) string {
	return ExpandPathWithTime(template, time.Now())
}

// ExpandPathWithTime replaces every {{timestamp}} with t formatted as 20060102-150405 (UTC).
func ExpandPathWithTime(template string, t time.Time) string {
	return strings.ReplaceAll(template, "{{timestamp}}", t.UTC().Format("20060102-150405"))
}

// WriteSnapshot persists a snapshot atomically (temp file + rename).
// {{timestamp}} in pathTemplate expands to the snapshot's own Timestamp.
// Parent directories are created 0700, the file is written 0600.
func WriteSnapshot(snapshot *ConfigSnapshot, pathTemplate string) error {
	if snapshot == nil {
		return ErrNilConfig
	}
	targetPath := ExpandPathWithTime(pathTemplate, snapshot.Timestamp)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if len(data) > MaxSnapshotSize {
		return ErrSnapshotTooLarge
	}

	if dir := filepath.Dir(targetPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}

	tempPath := targetPath + ".tmp." + uuid.NewString()
	if err := os.WriteFile(tempPath, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tempPath, targetPath); err != nil {
		_ = os.Remove(tempPath)
		return err
	}
	return nil
}

// ReadSnapshot loads a snapshot written by WriteSnapshot.
func ReadSnapshot(path string) (*ConfigSnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxSnapshotSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxSnapshotSize {
		return nil, ErrSnapshotTooLarge
	}

	var snapshot ConfigSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	if !supportedVersions[snapshot.Version] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, snapshot.Version)
	}
	return &snapshot, nil
}
