package praline

import (
	"encoding"
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/hackmonkey/praline-config/internal/normalize"
)

type factoryKind int

const (
	kindPrimitive factoryKind = iota
	kindRecord
	kindMapping
	kindSequence
)

func (k factoryKind) String() string {
	switch k {
	case kindRecord:
		return "record"
	case kindMapping:
		return "mapping"
	case kindSequence:
		return "sequence"
	default:
		return "primitive"
	}
}

// factory is the resolved construction strategy for one element.
// typ is the type the loaders build; pointer and optional describe how the
// result is wrapped before it is stored.
type factory struct {
	kind      factoryKind
	typ       reflect.Type
	elem      *factory  // mapping value or sequence element
	construct Converter // named default factory, primitive only
	pointer   bool
	optional  reflect.Type
}

// outType is the type of values produced by wrap.
func (f *factory) outType() reflect.Type {
	if f.optional != nil {
		return f.optional
	}
	if f.pointer {
		return reflect.PointerTo(f.typ)
	}
	return f.typ
}

// wrap turns a built value of f.typ into a value of f.outType().
func (f *factory) wrap(v reflect.Value) reflect.Value {
	if f.pointer {
		p := reflect.New(f.typ)
		p.Elem().Set(v)
		v = p
	}
	if f.optional != nil {
		o := reflect.New(f.optional).Elem()
		o.Field(0).Set(v)
		o.Field(1).SetBool(true)
		v = o
	}
	return v
}

// zero is the explicit "no value" stored for present-but-unloadable elements.
func (f *factory) zero() reflect.Value {
	return reflect.Zero(f.outType())
}

// fieldDescriptor describes one loadable field of a record type.
type fieldDescriptor struct {
	name  string   // Go field name
	path  string   // Dotted Go path used in diagnostics and provenance
	keys  []string // Configuration keys tried in order
	typ   reflect.Type
	index []int
	tag   tagConfig
}

// recordFields enumerates the loadable fields of struct type t in declaration
// order. Embedded structs without an explicit name are flattened.
func recordFields(t reflect.Type, parentPath string) []fieldDescriptor {
	var fields []fieldDescriptor
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := parseTag(sf.Tag.Get("conf"))
		if tag.skip {
			continue
		}

		if sf.Anonymous && sf.Type.Kind() == reflect.Struct && tag.name == "" && !isOptionalType(sf.Type) {
			for _, inner := range recordFields(sf.Type, parentPath) {
				inner.index = append([]int{i}, inner.index...)
				fields = append(fields, inner)
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}

		fields = append(fields, fieldDescriptor{
			name:  sf.Name,
			path:  normalize.ApplyPrefix(parentPath, sf.Name),
			keys:  normalize.FieldKeys(sf.Name, tag.name),
			typ:   sf.Type,
			index: []int{i},
			tag:   tag,
		})
	}
	return fields
}

// resolveFactory picks the construction strategy for a field: the named
// default factory when it is registered, otherwise the declared type.
func (e *engine) resolveFactory(fd fieldDescriptor) (*factory, bool) {
	if name := fd.tag.factory; name != "" {
		if fn, ok := e.constructors.factory(name); ok {
			base, pointer, optional := unwrapType(fd.typ)
			return &factory{kind: kindPrimitive, typ: base, construct: fn, pointer: pointer, optional: optional}, true
		}
		e.warn("default factory is not registered, using the declared type",
			zap.String("field", fd.path), zap.String("factory", name))
	}
	return e.factoryForType(fd.typ, fd.path)
}

// factoryForType classifies a declared type.
func (e *engine) factoryForType(t reflect.Type, path string) (*factory, bool) {
	if t == nil {
		e.warn("could not determine a factory: field has no type", zap.String("field", path))
		return nil, false
	}
	base, pointer, optional := unwrapType(t)
	f := &factory{kind: kindPrimitive, typ: base, pointer: pointer, optional: optional}

	if e.constructors.handles(base) || isTextUnmarshaler(base) {
		return f, true
	}

	switch base.Kind() {
	case reflect.Struct:
		f.kind = kindRecord
	case reflect.Map:
		if base.Key().Kind() != reflect.String {
			return f, true
		}
		elem, ok := e.factoryForType(base.Elem(), path+"[]")
		if !ok {
			return nil, false
		}
		f.kind, f.elem = kindMapping, elem
	case reflect.Slice, reflect.Array:
		if base.Elem().Kind() == reflect.Uint8 && base.Kind() == reflect.Slice {
			return f, true
		}
		elem, ok := e.factoryForType(base.Elem(), path+"[]")
		if !ok {
			return nil, false
		}
		f.kind, f.elem = kindSequence, elem
	case reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Invalid:
		e.warn("could not determine a factory: unsupported field type",
			zap.String("field", path), zap.Stringer("type", t))
		return nil, false
	}
	return f, true
}

// unwrapType strips Optional[X] and one level of pointer.
func unwrapType(t reflect.Type) (base reflect.Type, pointer bool, optional reflect.Type) {
	if isOptionalType(t) {
		optional = t
		t = t.Field(0).Type
	}
	if t.Kind() == reflect.Pointer {
		pointer = true
		t = t.Elem()
	}
	return t, pointer, optional
}

var optionalPkgPath = reflect.TypeOf(Optional[int]{}).PkgPath()

func isOptionalType(t reflect.Type) bool {
	return t.Kind() == reflect.Struct &&
		t.PkgPath() == optionalPkgPath &&
		strings.HasPrefix(t.Name(), "Optional[") &&
		t.NumField() == 2
}

var textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()

func isTextUnmarshaler(t reflect.Type) bool {
	return t.Kind() != reflect.Interface && reflect.PointerTo(t).Implements(textUnmarshalerType)
}
