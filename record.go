package praline

import (
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/hackmonkey/praline-config/internal/normalize"
)

// loadRecord builds a struct of type t from a configuration node.
// Every field is resolved on its own: a missing key keeps the record's
// default, a present but unloadable value stores the zero value, and no
// field failure prevents the record from being built.
func (e *engine) loadRecord(t reflect.Type, raw any, path string) (reflect.Value, bool) {
	if raw == nil {
		e.tracef("config is nil", zap.String("field", path))
		return reflect.Value{}, false
	}
	if rv := reflect.ValueOf(raw); rv.Type() == t {
		return rv, true
	}
	node, ok := asNode(raw)
	if !ok {
		e.warn("could not load record: value is not a mapping",
			zap.String("field", path), zap.Stringer("type", t), zap.String("got", fmt.Sprintf("%T", raw)))
		return reflect.Value{}, false
	}

	properties := make(map[int]reflect.Value)
	fields := recordFields(t, path)
	for i, fd := range fields {
		value, key, err := lookupField(node, fd)
		if err != nil {
			if !errors.Is(err, ErrKeyNotFound) {
				e.warn("lookup failed", zap.String("field", fd.path), zap.Error(err))
			}
			e.tracef("field does not have a value", zap.String("field", fd.path))
			continue
		}

		f, ok := e.resolveFactory(fd)
		if !ok {
			continue
		}
		parentKey := e.keyPrefix
		e.keyPrefix = normalize.ApplyPrefix(parentKey, key)
		v, ok := e.loadElement(f, value, fd.path)
		e.recordProvenance(node, fd, key, f)
		e.keyPrefix = parentKey
		if !ok {
			v = f.zero()
		}
		properties[i] = v
	}

	e.tracef("instantiating record", zap.Stringer("type", t), zap.Int("properties", len(properties)))
	out := newRecord(e.constructors, t)
	for i, v := range properties {
		target, ok := fieldByIndex(out, fields[i].index)
		if !ok {
			continue
		}
		target.Set(v)
	}
	return out, true
}

// lookupField tries each configuration key of fd in order.
func lookupField(node Node, fd fieldDescriptor) (any, string, error) {
	for _, key := range fd.keys {
		value, err := node.Lookup(key)
		if errors.Is(err, ErrKeyNotFound) {
			continue
		}
		return value, key, err
	}
	return nil, "", ErrKeyNotFound
}

// newRecord allocates a record with its declared defaults applied.
func newRecord(c *Constructors, t reflect.Type) reflect.Value {
	out := reflect.New(t).Elem()
	applyDefaults(c, out)
	if d, ok := out.Addr().Interface().(Defaulter); ok {
		d.SetDefaults()
	}
	return out
}

// applyDefaults sets `default:` tag values, recursing into nested struct fields.
// Invalid defaults are ignored; tag validation reports the resulting zero value.
func applyDefaults(c *Constructors, v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		fv := v.Field(i)
		tag := parseTag(sf.Tag.Get("conf"))
		if tag.skip {
			continue
		}

		if tag.hasDefault {
			if !fv.CanSet() {
				continue
			}
			base, pointer, optional := unwrapType(sf.Type)
			f := &factory{typ: base, pointer: pointer, optional: optional}
			if dv, err := convertValue(c, tag.defValue, base); err == nil {
				fv.Set(f.wrap(dv))
			}
			continue
		}

		if sf.Type.Kind() != reflect.Struct || isOptionalType(sf.Type) || c.handles(sf.Type) || isTextUnmarshaler(sf.Type) {
			continue
		}
		switch {
		case fv.CanSet():
			applyDefaults(c, fv)
			callDefaulter(fv)
		case sf.Anonymous:
			// The exported fields of an unexported embedded struct are
			// loaded, but its methods cannot be reached through fv.
			tmp := reflect.New(sf.Type).Elem()
			applyDefaults(c, tmp)
			callDefaulter(tmp)
			copyExported(fv, tmp)
		}
	}
}

func callDefaulter(v reflect.Value) {
	if d, ok := v.Addr().Interface().(Defaulter); ok {
		d.SetDefaults()
	}
}

// copyExported copies every settable field of src into dst, descending into
// embedded structs that are not settable themselves.
func copyExported(dst, src reflect.Value) {
	t := dst.Type()
	for i := 0; i < t.NumField(); i++ {
		df := dst.Field(i)
		switch {
		case df.CanSet():
			df.Set(src.Field(i))
		case t.Field(i).Anonymous && t.Field(i).Type.Kind() == reflect.Struct:
			copyExported(df, src.Field(i))
		}
	}
}

// fieldByIndex walks an index path, allocating nil embedded pointers.
func fieldByIndex(v reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, v.CanSet()
}

// recordProvenance notes where a leaf field's value came from.
func (e *engine) recordProvenance(node Node, fd fieldDescriptor, key string, f *factory) {
	if e.provenance == nil || f.kind == kindRecord {
		return
	}
	source := ""
	if o, ok := node.(originer); ok {
		source = o.Origin(key)
	}
	*e.provenance = append(*e.provenance, FieldProvenance{
		FieldPath:  fd.path,
		KeyPath:    e.keyPrefix,
		SourceName: source,
		Secret:     fd.tag.secret || isSecretFactory(f),
	})
}

var secretTypes = map[reflect.Type]bool{
	typeOf[SecureValue]():    true,
	typeOf[SecureEnvValue](): true,
}

func isSecretFactory(f *factory) bool {
	for ; f != nil; f = f.elem {
		if secretTypes[f.typ] {
			return true
		}
	}
	return false
}
