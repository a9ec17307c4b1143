package praline

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackmonkey/praline-config/internal/registry"
)

// Converter builds a value of its registered type from a single raw value.
type Converter func(raw any) (any, error)

// MapConstructor builds a value of its registered type from keyword arguments.
// It backs best-effort construction of non-record types from dict-like fragments.
type MapConstructor func(kwargs map[string]any) (any, error)

// Constructors holds the construction strategies the loader consults.
// All methods are safe for concurrent use.
type Constructors struct {
	converters *registry.Registry[reflect.Type, Converter]
	mappers    *registry.Registry[reflect.Type, MapConstructor]
	factories  *registry.Registry[string, Converter]
}

// NewConstructors returns an empty registry.
func NewConstructors() *Constructors {
	return &Constructors{
		converters: registry.New[reflect.Type, Converter](),
		mappers:    registry.New[reflect.Type, MapConstructor](),
		factories:  registry.New[string, Converter](),
	}
}

// DefaultConstructors returns a registry preloaded with durations, times,
// UUIDs, wrapped and environment values, and the "env", "secure_env" and
// "datetime" named factories.
func DefaultConstructors() *Constructors {
	c := NewConstructors()

	RegisterConverter(c, parseDuration)
	RegisterConverter(c, parseTime)
	RegisterConverter(c, func(raw any) (uuid.UUID, error) {
		s, err := rawString(raw)
		if err != nil {
			return uuid.Nil, err
		}
		return uuid.Parse(s)
	})
	RegisterConverter(c, func(raw any) (WrappedValue, error) {
		s, err := rawString(raw)
		return NewWrappedValue(s), err
	})
	RegisterConverter(c, func(raw any) (SecureValue, error) {
		s, err := rawString(raw)
		return NewSecureValue(s), err
	})
	RegisterConverter(c, envValueFromName)
	RegisterConverter(c, secureEnvValueFromName)

	RegisterFactory(c, "env", envValueFromName)
	RegisterFactory(c, "secure_env", secureEnvValueFromName)
	RegisterFactory(c, "datetime", parseTime)

	return c
}

// Clone returns an independent copy, so callers can extend the defaults
// without affecting other loaders.
func (c *Constructors) Clone() *Constructors {
	return &Constructors{
		converters: c.converters.Clone(),
		mappers:    c.mappers.Clone(),
		factories:  c.factories.Clone(),
	}
}

// RegisterConverter registers fn as the direct constructor for T.
func RegisterConverter[T any](c *Constructors, fn func(raw any) (T, error)) {
	c.converters.Register(typeOf[T](), func(raw any) (any, error) {
		return fn(raw)
	})
}

// RegisterMapConstructor registers fn as the keyword constructor for T.
// A registered type is never loaded field by field as a record.
func RegisterMapConstructor[T any](c *Constructors, fn func(kwargs map[string]any) (T, error)) {
	c.mappers.Register(typeOf[T](), func(kwargs map[string]any) (any, error) {
		return fn(kwargs)
	})
}

// RegisterFactory registers a named default factory, referenced from struct
// tags as `conf:"factory:name"`.
func RegisterFactory[T any](c *Constructors, name string, fn func(raw any) (T, error)) {
	c.factories.Register(name, func(raw any) (any, error) {
		return fn(raw)
	})
}

// Unregister removes the converter and keyword constructor registered for T.
// T is then loaded by its kind again, as a record if it is a struct.
func Unregister[T any](c *Constructors) {
	t := typeOf[T]()
	c.converters.Delete(t)
	c.mappers.Delete(t)
}

// UnregisterFactory removes a named default factory. Fields that still name
// it fall back to their declared type.
func UnregisterFactory(c *Constructors, name string) {
	c.factories.Delete(name)
}

func (c *Constructors) converter(t reflect.Type) (Converter, bool) {
	return c.converters.Get(t)
}

func (c *Constructors) mapConstructor(t reflect.Type) (MapConstructor, bool) {
	return c.mappers.Get(t)
}

func (c *Constructors) factory(name string) (Converter, bool) {
	return c.factories.Get(name)
}

// handles reports whether t has a registered construction strategy.
func (c *Constructors) handles(t reflect.Type) bool {
	return c.converters.Has(t) || c.mappers.Has(t)
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func rawString(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	case nil:
		return "", fmt.Errorf("nil value")
	}
	return "", fmt.Errorf("expected string, got %T", raw)
}

// parseDuration accepts duration strings and numbers of seconds.
func parseDuration(raw any) (time.Duration, error) {
	switch v := raw.(type) {
	case time.Duration:
		return v, nil
	case string:
		return time.ParseDuration(strings.TrimSpace(v))
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	}
	return 0, fmt.Errorf("cannot convert %T to time.Duration", raw)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTime accepts time.Time values and the common textual layouts.
func parseTime(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized time format %q", s)
	}
	return time.Time{}, fmt.Errorf("cannot convert %T to time.Time", raw)
}

func envValueFromName(raw any) (EnvValue, error) {
	name, err := rawString(raw)
	if err != nil {
		return EnvValue{}, err
	}
	return EnvValueFor(name), nil
}

func secureEnvValueFromName(raw any) (SecureEnvValue, error) {
	name, err := rawString(raw)
	if err != nil {
		return SecureEnvValue{}, err
	}
	return SecureEnvValueFor(name), nil
}
