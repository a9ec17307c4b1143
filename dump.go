package praline

import (
	"encoding"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strconv"
	"time"

	"github.com/hackmonkey/praline-config/internal/normalize"
)

// Redacted replaces secret values in dumps.
const Redacted = "***redacted***"

// DumpOption configures dump behavior using the functional options pattern.
type DumpOption func(*dumpConfig)

type dumpConfig struct {
	withSources bool
	asJSON      bool
	indent      string
}

// WithSources includes source attribution for each field in the output.
func WithSources() DumpOption {
	return func(cfg *dumpConfig) {
		cfg.withSources = true
	}
}

// AsJSON outputs configuration as JSON instead of text format.
func AsJSON() DumpOption {
	return func(cfg *dumpConfig) {
		cfg.asJSON = true
	}
}

// WithIndent sets the indentation for JSON output. Default is two spaces.
func WithIndent(indent string) DumpOption {
	return func(cfg *dumpConfig) {
		cfg.indent = indent
	}
}

// DumpEffective writes the loaded configuration, one "key.path: value" line
// per leaf, or as a JSON document with AsJSON. Maps and sequences are expanded.
// Fields marked secret, and SecureValue/SecureEnvValue values, are written as
// "***redacted***".
func DumpEffective[T any](w io.Writer, cfg *T, opts ...DumpOption) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	config := dumpConfig{indent: "  "}
	for _, opt := range opts {
		opt(&config)
	}

	v := reflect.ValueOf(cfg).Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("config must be a struct or pointer to struct")
	}

	d := &dumper{provenance: make(map[string]FieldProvenance)}
	if prov, ok := GetProvenance(cfg); ok {
		for _, fp := range prov.Fields {
			d.provenance[fp.FieldPath] = fp
		}
	}
	tree := d.walk(v, "", "", false)

	if config.asJSON {
		return writeJSON(w, tree, config.indent)
	}

	for _, entry := range d.entries {
		line := entry.keyPath + ": " + entry.display
		if config.withSources && entry.source != "" {
			line += " (source: " + entry.source + ")"
		}
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return fmt.Errorf("write error: %w", err)
		}
	}
	return nil
}

func writeJSON(w io.Writer, tree any, indent string) error {
	var (
		data []byte
		err  error
	)
	if indent != "" {
		data, err = json.MarshalIndent(tree, "", indent)
	} else {
		data, err = json.Marshal(tree)
	}
	if err != nil {
		return fmt.Errorf("json marshal error: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write error: %w", err)
	}
	return nil
}

type dumpEntry struct {
	keyPath string
	display string
	value   any
	source  string
}

// dumper converts a loaded value into a JSON-ready tree and collects the
// text lines for its leaves along the way.
type dumper struct {
	provenance map[string]FieldProvenance
	entries    []dumpEntry
}

func (d *dumper) walk(v reflect.Value, fieldPath, keyPath string, secret bool) any {
	prov, hasProv := d.provenance[fieldPath]
	if hasProv {
		secret = secret || prov.Secret
		if prov.KeyPath != "" {
			keyPath = prov.KeyPath
		}
	}

	if isOptionalType(v.Type()) {
		if !v.Field(1).Bool() {
			d.leaf(keyPath, "<not set>", nil, prov.SourceName)
			return nil
		}
		v = v.Field(0)
	}
	if secret || isSecretValue(v) {
		d.leaf(keyPath, Redacted, Redacted, prov.SourceName)
		return Redacted
	}
	if (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) && !v.IsNil() {
		v = v.Elem()
	}

	switch {
	case !v.IsValid() || ((v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) && v.IsNil()):
		d.leaf(keyPath, "<nil>", nil, prov.SourceName)
		return nil
	case v.Kind() == reflect.Struct && !isScalarStruct(v.Type()):
		return d.walkRecord(v, fieldPath, keyPath)
	case v.Kind() == reflect.Map && v.Type().Key().Kind() == reflect.String:
		return d.walkMap(v, fieldPath, keyPath)
	case (v.Kind() == reflect.Slice || v.Kind() == reflect.Array) && !isScalarStruct(v.Type()) && v.Type().Elem().Kind() != reflect.Uint8:
		return d.walkSequence(v, fieldPath, keyPath)
	}

	out := scalarOf(v)
	display := fmt.Sprint(out)
	if v.Kind() == reflect.String {
		display = strconv.Quote(v.String())
	}
	d.leaf(keyPath, display, out, prov.SourceName)
	return out
}

func (d *dumper) walkRecord(v reflect.Value, fieldPath, keyPath string) map[string]any {
	out := make(map[string]any)
	for _, fd := range recordFields(v.Type(), fieldPath) {
		fv, ok := fieldByIndexRead(v, fd.index)
		if !ok {
			continue
		}
		key := fd.keys[len(fd.keys)-1]
		out[key] = d.walk(fv, fd.path, normalize.ApplyPrefix(keyPath, key), fd.tag.secret)
	}
	return out
}

func (d *dumper) walkMap(v reflect.Value, fieldPath, keyPath string) map[string]any {
	out := make(map[string]any, v.Len())
	if v.Len() == 0 {
		d.leaf(keyPath, "{}", out, "")
		return out
	}
	keys := make([]string, 0, v.Len())
	for _, k := range v.MapKeys() {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	for _, k := range keys {
		item := v.MapIndex(reflect.ValueOf(k).Convert(v.Type().Key()))
		out[k] = d.walk(item, fieldPath+"."+k, normalize.ApplyPrefix(keyPath, k), false)
	}
	return out
}

func (d *dumper) walkSequence(v reflect.Value, fieldPath, keyPath string) []any {
	out := make([]any, v.Len())
	if v.Len() == 0 {
		d.leaf(keyPath, "[]", out, "")
		return out
	}
	for i := range out {
		suffix := "[" + strconv.Itoa(i) + "]"
		out[i] = d.walk(v.Index(i), fieldPath+suffix, keyPath+suffix, false)
	}
	return out
}

func (d *dumper) leaf(keyPath, display string, value any, source string) {
	d.entries = append(d.entries, dumpEntry{keyPath: keyPath, display: display, value: value, source: source})
}

// fieldByIndexRead walks an index path without allocating; a nil embedded
// pointer reports false.
func fieldByIndexRead(v reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, true
}

var (
	stringerType      = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

// isScalarStruct reports whether a struct or array type prints as one value
// (time.Time, uuid.UUID, WrappedValue and friends).
func isScalarStruct(t reflect.Type) bool {
	return t.Implements(stringerType) || t.Implements(textMarshalerType)
}

func isSecretValue(v reflect.Value) bool {
	if !v.IsValid() {
		return false
	}
	t := v.Type()
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return secretTypes[t]
}

// scalarOf returns a JSON-friendly representation of a leaf value.
func scalarOf(v reflect.Value) any {
	if !v.CanInterface() {
		return nil
	}
	switch x := v.Interface().(type) {
	case time.Duration:
		return x.String()
	case time.Time:
		return x.Format(time.RFC3339)
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	case encoding.TextMarshaler:
		if text, err := x.MarshalText(); err == nil {
			return string(text)
		}
	}
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		return v.Float()
	}
	return fmt.Sprintf("%v", v.Interface())
}
