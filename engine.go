package praline

import (
	"reflect"

	"go.uber.org/zap"
)

// Option configures a single load.
type Option func(*engine)

// WithLogger sets the diagnostic sink. Warnings go to Warn, trace messages to Debug.
func WithLogger(logger *zap.Logger) Option {
	return func(e *engine) {
		if logger != nil {
			e.log = logger
		}
	}
}

// WithTrace enables per-field trace messages at Debug level.
func WithTrace(enabled bool) Option {
	return func(e *engine) {
		e.trace = enabled
	}
}

// WithConstructors replaces the constructor registry (default: DefaultConstructors()).
func WithConstructors(c *Constructors) Option {
	return func(e *engine) {
		if c != nil {
			e.constructors = c
		}
	}
}

// engine carries the per-call state of one load. It is discarded afterwards.
type engine struct {
	log          *zap.Logger
	trace        bool
	constructors *Constructors
	provenance   *[]FieldProvenance
	keyPrefix    string // configuration key path of the element being loaded
}

func newEngine(opts ...Option) *engine {
	e := &engine{log: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	if e.constructors == nil {
		e.constructors = DefaultConstructors()
	}
	return e
}

func (e *engine) tracef(msg string, fields ...zap.Field) {
	if e.trace {
		e.log.Debug(msg, fields...)
	}
}

func (e *engine) warn(msg string, fields ...zap.Field) {
	e.log.Warn(msg, fields...)
}

// LoadRecord builds a *T from raw, a Node or a dict-like map. T must be a struct.
// A nil raw yields nil. Loading never fails: fields that cannot be built are
// logged and left at their zero value, missing keys keep the record's defaults.
func LoadRecord[T any](raw any, opts ...Option) *T {
	e := newEngine(opts...)
	t := typeOf[T]()
	if t.Kind() != reflect.Struct {
		e.warn("record type must be a struct", zap.Stringer("type", t))
		return nil
	}
	v, ok := e.loadRecord(t, raw, "")
	if !ok {
		return nil
	}
	out := new(T)
	reflect.ValueOf(out).Elem().Set(v)
	return out
}

// LoadValue builds any supported type (record, map, slice, primitive) from raw.
// The boolean is false when no value could be built.
func LoadValue[T any](raw any, opts ...Option) (T, bool) {
	e := newEngine(opts...)
	var zero T
	f, ok := e.factoryForType(typeOf[T](), "")
	if !ok {
		return zero, false
	}
	v, ok := e.loadElement(f, raw, "")
	if !ok {
		return zero, false
	}
	out, _ := v.Interface().(T)
	return out, true
}
