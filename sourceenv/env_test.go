package sourceenv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackmonkey/praline-config"
)

func TestEnvSource_Load(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		envVars  map[string]string
		expected map[string]any
	}{
		{
			name: "prefix stripped and lowercased",
			opts: Options{Prefix: "PRLTEST_"},
			envVars: map[string]string{
				"PRLTEST_HOST": "localhost",
				"PRLTEST_PORT": "8080",
				"OTHER_VAR":    "ignored",
			},
			expected: map[string]any{
				"host": "localhost",
				"port": "8080",
			},
		},
		{
			name: "double underscore nests",
			opts: Options{Prefix: "PRLTEST_"},
			envVars: map[string]string{
				"PRLTEST_DATABASE__HOST":     "db.example.com",
				"PRLTEST_DATABASE__PORT":     "5432",
				"PRLTEST_DB_MAX_CONNECTIONS": "100",
				"PRLTEST_API__RATE_LIMIT":    "1000",
				"PRLTEST_API__LIMITS__BURST": "5",
			},
			expected: map[string]any{
				"database": map[string]any{
					"host": "db.example.com",
					"port": "5432",
				},
				"db_max_connections": "100",
				"api": map[string]any{
					"rate_limit": "1000",
					"limits":     map[string]any{"burst": "5"},
				},
			},
		},
		{
			name: "case-insensitive prefix",
			opts: Options{Prefix: "prltest_"},
			envVars: map[string]string{
				"PRLTEST_NAME": "svc",
			},
			expected: map[string]any{"name": "svc"},
		},
		{
			name: "case-sensitive prefix",
			opts: Options{Prefix: "prltest_", CaseSensitive: true},
			envVars: map[string]string{
				"PRLTEST_NAME": "svc",
				"prltest_mode": "dev",
			},
			expected: map[string]any{"mode": "dev"},
		},
		{
			name: "prefix alone is skipped",
			opts: Options{Prefix: "PRLTEST_"},
			envVars: map[string]string{
				"PRLTEST_": "empty-key",
			},
			expected: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			got, err := New(tt.opts).Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestEnvSource_DotEnv(t *testing.T) {
	dir := t.TempDir()
	dotenv := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte("PRLDOT_FROM_FILE=file\nPRLDOT_SHADOWED=file\n"), 0o644))

	t.Setenv("PRLDOT_SHADOWED", "process")
	// t.Setenv restores the unset state on cleanup.
	t.Setenv("PRLDOT_FROM_FILE", "")
	require.NoError(t, os.Unsetenv("PRLDOT_FROM_FILE"))

	src := New(Options{Prefix: "PRLDOT_", DotEnv: []string{filepath.Join(dir, "missing.env"), dotenv}})
	got, err := src.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "file", got["from_file"])
	assert.Equal(t, "process", got["shadowed"], "existing variables win over .env")
}

func TestEnvSource_DotEnvUnreadable(t *testing.T) {
	dir := t.TempDir()

	_, err := New(Options{DotEnv: []string{dir}}).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load dotenv file")
}

func TestEnvSource_Watch(t *testing.T) {
	_, err := New(Options{}).Watch(context.Background())
	assert.ErrorIs(t, err, praline.ErrWatchNotSupported)
}

func TestEnvSource_Name(t *testing.T) {
	assert.Equal(t, "env", New(Options{}).Name())
	assert.Equal(t, "env:APP_", New(Options{Prefix: "APP_"}).Name())
}
