package praline

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hackmonkey/praline-config/internal/normalize"
)

// overridesSourceName names the override layer in provenance.
const overridesSourceName = "overrides"

// Loader loads and validates configuration from multiple sources.
// Sources are processed in order (later override earlier); overrides win over every source.
// A Loader may be used from several goroutines once configured.
type Loader[T any] struct {
	sources      []Source
	overrides    map[string]any
	validators   []Validator[T]
	strict       bool
	logger       *zap.Logger
	trace        bool
	constructors *Constructors
}

// NewLoader creates a Loader with no sources, a nop logger and the default constructors.
func NewLoader[T any]() *Loader[T] {
	return &Loader[T]{
		sources:      make([]Source, 0),
		validators:   make([]Validator[T], 0),
		logger:       zap.NewNop(),
		constructors: DefaultConstructors(),
	}
}

// WithSource adds a source. Sources are processed in order (later override earlier).
func (l *Loader[T]) WithSource(src Source) *Loader[T] {
	l.sources = append(l.sources, src)
	return l
}

// WithOverrides sets values that take precedence over every source, typically
// parsed from command-line flags. Dotted keys ("server.port") address nested values.
func (l *Loader[T]) WithOverrides(overrides map[string]any) *Loader[T] {
	l.overrides = overrides
	return l
}

// WithValidator adds a custom validator (executed after tag-based validation).
func (l *Loader[T]) WithValidator(v Validator[T]) *Loader[T] {
	l.validators = append(l.validators, v)
	return l
}

// WithLogger sets the logger that receives field-level warnings.
func (l *Loader[T]) WithLogger(logger *zap.Logger) *Loader[T] {
	if logger != nil {
		l.logger = logger
	}
	return l
}

// WithTrace enables per-field trace messages at Debug level.
func (l *Loader[T]) WithTrace(enabled bool) *Loader[T] {
	l.trace = enabled
	return l
}

// WithConstructors replaces the constructor registry.
func (l *Loader[T]) WithConstructors(c *Constructors) *Loader[T] {
	if c != nil {
		l.constructors = c
	}
	return l
}

// Strict controls whether unknown keys cause errors. Default: false.
func (l *Loader[T]) Strict(strict bool) *Loader[T] {
	l.strict = strict
	return l
}

// Load merges all sources, binds them into a new *T and validates it.
// Fields that cannot be built are logged and left at their zero value;
// only source failures and validation failures are returned as errors.
func (l *Loader[T]) Load(ctx context.Context) (*T, error) {
	t := typeOf[T]()
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("config type %s is not a struct", t)
	}

	node, err := l.merge(ctx)
	if err != nil {
		return nil, err
	}

	if l.strict {
		if unknown := unknownKeys(l.constructors, t, node, ""); len(unknown) > 0 {
			return nil, &ValidationError{FieldErrors: unknown}
		}
	}

	var provenance []FieldProvenance
	e := newEngine(WithLogger(l.logger), WithTrace(l.trace), WithConstructors(l.constructors))
	e.provenance = &provenance

	cfg := new(T)
	cfgValue := reflect.ValueOf(cfg).Elem()
	if v, ok := e.loadRecord(t, node, ""); ok {
		cfgValue.Set(v)
	}

	allErrors := validateStruct(l.constructors, cfgValue)

	for i, validator := range l.validators {
		if err := validator.Validate(ctx, cfg); err != nil {
			var valErr *ValidationError
			if errors.As(err, &valErr) {
				allErrors = append(allErrors, valErr.FieldErrors...)
				continue
			}
			return nil, fmt.Errorf("validator %d failed: %w", i, err)
		}
	}

	if len(allErrors) > 0 {
		return nil, &ValidationError{FieldErrors: allErrors}
	}

	storeProvenance(cfg, &Provenance{Fields: provenance})
	return cfg, nil
}

// merge loads every source into one named layer of a ConfigSet.
func (l *Loader[T]) merge(ctx context.Context) (Node, error) {
	layers := make([]Node, 0, len(l.sources)+1)
	for _, source := range l.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := source.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load source %s: %w", source.Name(), err)
		}
		layers = append(layers, NewNamedNode(source.Name(), data))
	}
	if len(l.overrides) > 0 {
		layers = append(layers, NewNamedNode(overridesSourceName, normalize.Expand(l.overrides)))
	}
	return NewConfigSet(layers...), nil
}

// unknownKeys reports configuration keys that match no field of t.
// Mappings and sequences are not inspected: their keys are data.
func unknownKeys(c *Constructors, t reflect.Type, node Node, prefix string) []FieldError {
	fields := recordFields(t, "")
	var errs []FieldError
	for _, key := range node.Keys() {
		fd, ok := fieldForKey(fields, key)
		keyPath := normalize.ApplyPrefix(prefix, key)
		if !ok {
			errs = append(errs, FieldError{
				FieldPath: keyPath,
				Code:      ErrCodeUnknownKey,
				Message:   "unknown configuration key (strict mode)",
			})
			continue
		}

		base, _, _ := unwrapType(fd.typ)
		if base.Kind() != reflect.Struct || c.handles(base) || isTextUnmarshaler(base) || fd.tag.factory != "" {
			continue
		}
		value, err := node.Lookup(key)
		if err != nil {
			continue
		}
		if sub, ok := asNode(value); ok {
			errs = append(errs, unknownKeys(c, base, sub, keyPath)...)
		}
	}
	return errs
}

func fieldForKey(fields []fieldDescriptor, key string) (fieldDescriptor, bool) {
	for _, fd := range fields {
		for _, candidate := range fd.keys {
			if strings.EqualFold(candidate, key) {
				return fd, true
			}
		}
	}
	return fieldDescriptor{}, false
}

// Watch monitors sources for changes and reloads configuration.
// Returns: snapshots channel, errors channel, initial load error.
// Changes are debounced (100ms). Both channels close when ctx is done or no
// source can be watched.
func (l *Loader[T]) Watch(ctx context.Context) (<-chan Snapshot[T], <-chan error, error) {
	initialCfg, err := l.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("initial load failed: %w", err)
	}

	snapshotCh := make(chan Snapshot[T])
	errorCh := make(chan error)

	go l.watchLoop(ctx, initialCfg, snapshotCh, errorCh)

	return snapshotCh, errorCh, nil
}

const debounceDelay = 100 * time.Millisecond

func (l *Loader[T]) watchLoop(ctx context.Context, initialCfg *T, snapshotCh chan<- Snapshot[T], errorCh chan<- error) {
	var sendWG sync.WaitGroup
	defer func() {
		sendWG.Wait()
		close(snapshotCh)
		close(errorCh)
	}()

	snapshotCh <- Snapshot[T]{
		Config:   initialCfg,
		Version:  1,
		LoadedAt: time.Now(),
		Source:   "initial",
	}

	events := l.watchSources(ctx, errorCh)
	if events == nil {
		return
	}

	var (
		mu      sync.Mutex
		version int64 = 1
		timer   *time.Timer
	)
	reload := func(cause string) {
		defer sendWG.Done()
		newCfg, err := l.Load(ctx)
		if err != nil {
			select {
			case errorCh <- fmt.Errorf("reload failed: %w", err):
			case <-ctx.Done():
			}
			return
		}

		mu.Lock()
		version++
		snapshot := Snapshot[T]{Config: newCfg, Version: version, LoadedAt: time.Now(), Source: cause}
		mu.Unlock()

		select {
		case snapshotCh <- snapshot:
		case <-ctx.Done():
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil && timer.Stop() {
				sendWG.Done()
			}
			return
		case event, ok := <-events:
			if !ok {
				if timer != nil && timer.Stop() {
					sendWG.Done()
				}
				return
			}
			if timer != nil && timer.Stop() {
				sendWG.Done()
			}
			cause := event.Cause
			sendWG.Add(1)
			timer = time.AfterFunc(debounceDelay, func() { reload(cause) })
		}
	}
}

// watchSources fans the change channels of all watchable sources into one.
// It returns nil when no source supports watching.
func (l *Loader[T]) watchSources(ctx context.Context, errorCh chan<- error) <-chan ChangeEvent {
	var channels []<-chan ChangeEvent
	for _, source := range l.sources {
		ch, err := source.Watch(ctx)
		if err != nil {
			if errors.Is(err, ErrWatchNotSupported) {
				continue
			}
			select {
			case errorCh <- fmt.Errorf("watch source %s: %w", source.Name(), err):
			case <-ctx.Done():
				return nil
			}
			continue
		}
		channels = append(channels, ch)
	}
	if len(channels) == 0 {
		return nil
	}

	merged := make(chan ChangeEvent)
	var wg sync.WaitGroup
	for _, ch := range channels {
		wg.Add(1)
		go func(ch <-chan ChangeEvent) {
			defer wg.Done()
			for {
				var event ChangeEvent
				select {
				case e, ok := <-ch:
					if !ok {
						return
					}
					event = e
				case <-ctx.Done():
					return
				}
				select {
				case merged <- event:
				case <-ctx.Done():
					return
				}
			}
		}(ch)
	}
	go func() {
		wg.Wait()
		close(merged)
	}()
	return merged
}
