package sourcefile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackmonkey/praline-config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileSource_Load_YAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
database:
  host: localhost
  port: 5432
  credentials:
    user: admin
server:
  timeout: 30
features:
  - feature1
  - feature2
`)

	data, err := New(path, Options{}).Load(context.Background())
	require.NoError(t, err)

	database, ok := data["database"].(map[string]any)
	require.True(t, ok, "database should be a nested map")
	assert.Equal(t, "localhost", database["host"])
	assert.Equal(t, 5432, database["port"])

	credentials, ok := database["credentials"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "admin", credentials["user"])

	features, ok := data["features"].([]any)
	require.True(t, ok, "features should be a sequence")
	assert.Equal(t, []any{"feature1", "feature2"}, features)
}

func TestFileSource_Load_JSON(t *testing.T) {
	path := writeFile(t, "config.json", `{"api": {"endpoint": "https://api.example.com", "retries": 3}}`)

	data, err := New(path, Options{}).Load(context.Background())
	require.NoError(t, err)

	api := data["api"].(map[string]any)
	assert.Equal(t, "https://api.example.com", api["endpoint"])
	assert.Equal(t, float64(3), api["retries"]) // JSON numbers are float64
}

func TestFileSource_Load_TOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
title = "app"

[server]
host = "0.0.0.0"
port = 8080
`)

	data, err := New(path, Options{}).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "app", data["title"])
	server := data["server"].(map[string]any)
	assert.Equal(t, "0.0.0.0", server["host"])
	assert.Equal(t, int64(8080), server["port"])
}

func TestFileSource_Load_HCL(t *testing.T) {
	path := writeFile(t, "config.hcl", `
name    = "svc"
threads = 4
ratio   = 0.5
debug   = true
tags    = ["a", "b"]
server  = {
  host = "localhost"
  port = 9000
}
`)

	data, err := New(path, Options{}).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "svc", data["name"])
	assert.Equal(t, int64(4), data["threads"])
	assert.Equal(t, 0.5, data["ratio"])
	assert.Equal(t, true, data["debug"])
	assert.Equal(t, []any{"a", "b"}, data["tags"])
	server := data["server"].(map[string]any)
	assert.Equal(t, "localhost", server["host"])
	assert.Equal(t, int64(9000), server["port"])
}

func TestFileSource_Load_HCLSyntaxError(t *testing.T) {
	path := writeFile(t, "broken.hcl", `name = `)

	_, err := New(path, Options{}).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse HCL file")
}

func TestFileSource_ExplicitFormat(t *testing.T) {
	path := writeFile(t, "settings.conf", "key: value\n")

	data, err := New(path, Options{Format: "yaml"}).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "value", data["key"])
}

func TestFileSource_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	t.Run("optional", func(t *testing.T) {
		data, err := New(missing, Options{}).Load(context.Background())
		require.NoError(t, err)
		assert.Empty(t, data)
	})

	t.Run("required", func(t *testing.T) {
		_, err := New(missing, Options{Required: true}).Load(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})
}

func TestFileSource_EmptyYAML(t *testing.T) {
	path := writeFile(t, "empty.yaml", "")

	data, err := New(path, Options{}).Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, data)
	assert.Empty(t, data)
}

func TestFileSource_UnsupportedFormat(t *testing.T) {
	path := writeFile(t, "config.ini", "a=b")

	_, err := New(path, Options{}).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file format")
}

func TestFileSource_InvalidYAML(t *testing.T) {
	path := writeFile(t, "bad.yaml", "key: [unclosed")

	_, err := New(path, Options{}).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse YAML file")
}

func TestFileSource_Name(t *testing.T) {
	assert.Equal(t, "file:config.yaml", New("/etc/app/config.yaml", Options{}).Name())
}

func TestFileSource_Watch_NotSupportedWithoutInterval(t *testing.T) {
	_, err := New("config.yaml", Options{}).Watch(context.Background())
	assert.ErrorIs(t, err, praline.ErrWatchNotSupported)
}

func TestFileSource_Watch_DetectsChange(t *testing.T) {
	path := writeFile(t, "config.yaml", "a: 1\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := New(path, Options{PollInterval: 10 * time.Millisecond}).Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("a: 12345\n"), 0o644))

	select {
	case event := <-ch:
		assert.Equal(t, "file-changed:config.yaml", event.Cause)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change event")
	}

	cancel()
	for range ch {
	}
}
