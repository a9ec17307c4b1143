package praline

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		raw     any
		want    time.Duration
		wantErr bool
	}{
		{"1m30s", 90 * time.Second, false},
		{" 250ms ", 250 * time.Millisecond, false},
		{3, 3 * time.Second, false},
		{int64(2), 2 * time.Second, false},
		{1.5, 1500 * time.Millisecond, false},
		{time.Hour, time.Hour, false},
		{"soon", 0, true},
		{true, 0, true},
	}
	for _, tt := range tests {
		got, err := parseDuration(tt.raw)
		if tt.wantErr {
			assert.Error(t, err, "raw %v", tt.raw)
			continue
		}
		require.NoError(t, err, "raw %v", tt.raw)
		assert.Equal(t, tt.want, got, "raw %v", tt.raw)
	}
}

func TestParseTime(t *testing.T) {
	want := time.Date(2020, 3, 3, 12, 34, 56, 0, time.UTC)
	for _, raw := range []any{
		"2020-03-03T12:34:56Z",
		"2020-03-03T12:34:56",
		"2020-03-03 12:34:56",
		want,
	} {
		got, err := parseTime(raw)
		require.NoError(t, err, "raw %v", raw)
		assert.True(t, want.Equal(got), "raw %v parsed as %s", raw, got)
	}

	day, err := parseTime("2020-03-03")
	require.NoError(t, err)
	assert.Equal(t, 3, day.Day())

	_, err = parseTime("03/03/2020")
	assert.Error(t, err)
	_, err = parseTime(42)
	assert.Error(t, err)
}

func TestDefaultConstructors(t *testing.T) {
	c := DefaultConstructors()

	for _, typ := range []any{time.Duration(0), time.Time{}, uuid.UUID{}, WrappedValue{}, SecureValue{}, EnvValue{}, SecureEnvValue{}} {
		assert.True(t, c.handles(reflect.TypeOf(typ)), "%T should be handled", typ)
	}
	for _, name := range []string{"env", "secure_env", "datetime"} {
		_, ok := c.factory(name)
		assert.True(t, ok, "factory %q should be registered", name)
	}

	id, ok := LoadValue[uuid.UUID]("6794f37e-22e7-11ef-b440-971e96ae0c81")
	require.True(t, ok)
	assert.Equal(t, "6794f37e-22e7-11ef-b440-971e96ae0c81", id.String())

	_, ok = LoadValue[uuid.UUID]("not-a-uuid")
	assert.False(t, ok)
}

func TestConstructors_CloneIsIndependent(t *testing.T) {
	base := DefaultConstructors()
	clone := base.Clone()

	RegisterFactory(clone, "answer", func(any) (int, error) { return 42, nil })
	RegisterConverter(clone, func(any) (endpoint, error) { return endpoint{}, nil })

	_, ok := clone.factory("answer")
	assert.True(t, ok)
	_, ok = base.factory("answer")
	assert.False(t, ok)
	assert.False(t, base.handles(typeOf[endpoint]()))
	assert.True(t, clone.handles(typeOf[endpoint]()))
}

func TestUnregister(t *testing.T) {
	c := DefaultConstructors()
	Unregister[time.Duration](c)
	UnregisterFactory(c, "datetime")

	assert.False(t, c.handles(typeOf[time.Duration]()))
	_, ok := c.factory("datetime")
	assert.False(t, ok)
	assert.True(t, DefaultConstructors().handles(typeOf[time.Duration]()))

	_, ok = LoadValue[time.Duration]("2s", WithConstructors(c))
	assert.False(t, ok, "duration strings need the converter")
	d, ok := LoadValue[time.Duration](5, WithConstructors(c))
	require.True(t, ok)
	assert.Equal(t, 5*time.Nanosecond, d)

	type Config struct {
		Started time.Time `conf:"factory:datetime"`
	}
	cfg := LoadRecord[Config](map[string]any{"started": "2020-03-03"}, WithConstructors(c))
	require.NotNil(t, cfg)
	assert.Equal(t, time.Date(2020, 3, 3, 0, 0, 0, 0, time.UTC), cfg.Started)
}

func TestRawString(t *testing.T) {
	s, err := rawString([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, "b", s)

	s, err = rawString(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "1s", s)

	_, err = rawString(nil)
	assert.Error(t, err)
	_, err = rawString(1)
	assert.Error(t, err)
}
