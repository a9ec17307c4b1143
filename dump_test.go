package praline

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpEffective_TextFormat(t *testing.T) {
	type Config struct {
		Host     string
		Port     int
		Password string `conf:"secret"`
		Enabled  bool
		Timeout  time.Duration
	}

	cfg := &Config{Host: "localhost", Port: 8080, Password: "secret123", Enabled: true, Timeout: 3 * time.Second}

	var buf bytes.Buffer
	require.NoError(t, DumpEffective(&buf, cfg))

	assert.Equal(t, strings.Join([]string{
		`host: "localhost"`,
		`port: 8080`,
		`password: ***redacted***`,
		`enabled: true`,
		`timeout: 3s`,
	}, "\n")+"\n", buf.String())
}

func TestDumpEffective_WithSources(t *testing.T) {
	type Config struct {
		Host string
		Port int
	}

	cfg := &Config{Host: "h", Port: 1}
	storeProvenance(cfg, &Provenance{Fields: []FieldProvenance{
		{FieldPath: "Host", KeyPath: "host", SourceName: "env"},
	}})
	defer ReleaseProvenance(cfg)

	var buf bytes.Buffer
	require.NoError(t, DumpEffective(&buf, cfg, WithSources()))

	assert.Equal(t, "host: \"h\" (source: env)\nport: 1\n", buf.String())
}

func TestDumpEffective_CollectionsAndRecords(t *testing.T) {
	type User struct {
		Name string
		Age  int
	}
	type Config struct {
		ServerAddress string
		Users         []User
		Roles         map[string]User
		Tags          []string
		Empty         map[string]int
		Owner         *User
		Missing       *User
		Limit         Optional[int]
	}

	cfg := &Config{
		ServerAddress: "0.0.0.0",
		Users:         []User{{Name: "Alice", Age: 20}},
		Roles:         map[string]User{"cfo": {Name: "Bob", Age: 42}},
		Tags:          []string{"a"},
		Empty:         map[string]int{},
		Owner:         &User{Name: "Carol"},
	}

	var buf bytes.Buffer
	require.NoError(t, DumpEffective(&buf, cfg))

	assert.Equal(t, strings.Join([]string{
		`server_address: "0.0.0.0"`,
		`users[0].name: "Alice"`,
		`users[0].age: 20`,
		`roles.cfo.name: "Bob"`,
		`roles.cfo.age: 42`,
		`tags[0]: "a"`,
		`empty: {}`,
		`owner.name: "Carol"`,
		`owner.age: 0`,
		`missing: <nil>`,
		`limit: <not set>`,
	}, "\n")+"\n", buf.String())
}

func TestDumpEffective_SecureValues(t *testing.T) {
	type Config struct {
		Token     SecureValue
		Plain     WrappedValue
		SecureEnv map[string]SecureEnvValue
	}

	cfg := &Config{
		Token:     NewSecureValue("t0k3n"),
		Plain:     NewWrappedValue("visible"),
		SecureEnv: map[string]SecureEnvValue{"db": {SecureValue: NewSecureValue("pw")}},
	}

	var buf bytes.Buffer
	require.NoError(t, DumpEffective(&buf, cfg))

	out := buf.String()
	assert.NotContains(t, out, "t0k3n")
	assert.NotContains(t, out, "pw\"")
	assert.Contains(t, out, "token: ***redacted***")
	assert.Contains(t, out, "secure_env.db: ***redacted***")
	assert.Contains(t, out, "plain: visible")
}

func TestDumpEffective_JSONFormat(t *testing.T) {
	type Database struct {
		Host     string
		Password string `conf:"secret"`
	}
	type Config struct {
		Name     string
		Database Database
		Ports    []int
		Started  time.Time
	}

	cfg := &Config{
		Name:     "svc",
		Database: Database{Host: "db", Password: "pw"},
		Ports:    []int{80, 443},
		Started:  time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	require.NoError(t, DumpEffective(&buf, cfg, AsJSON()))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, map[string]any{
		"name":     "svc",
		"database": map[string]any{"host": "db", "password": Redacted},
		"ports":    []any{float64(80), float64(443)},
		"started":  "2024-06-01T12:00:00Z",
	}, got)
	assert.Contains(t, buf.String(), "\n  \"database\"", "default indent is two spaces")
}

func TestDumpEffective_WithIndent(t *testing.T) {
	cfg := &struct{ A int }{A: 1}

	var buf bytes.Buffer
	require.NoError(t, DumpEffective(&buf, cfg, AsJSON(), WithIndent("")))
	assert.Equal(t, "{\"a\":1}\n", buf.String())
}

func TestDumpEffective_NilConfig(t *testing.T) {
	var cfg *struct{}
	assert.Error(t, DumpEffective(&bytes.Buffer{}, cfg))
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestDumpEffective_WriteError(t *testing.T) {
	cfg := &struct{ A int }{A: 1}

	err := DumpEffective(failingWriter{}, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
