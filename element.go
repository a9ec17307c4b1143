package praline

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/hackmonkey/praline-config/internal/normalize"
)

// loadElement builds one value (field, map value or sequence item) with f.
// The boolean is false when no value could be built; the failure has
// already been logged and never propagates further.
func (e *engine) loadElement(f *factory, raw any, path string) (reflect.Value, bool) {
	var (
		v  reflect.Value
		ok bool
	)
	switch f.kind {
	case kindRecord:
		e.tracef("loading record", zap.String("field", path), zap.Stringer("type", f.typ))
		v, ok = e.loadRecord(f.typ, raw, path)
	case kindMapping:
		e.tracef("loading mapping", zap.String("field", path), zap.Stringer("type", f.typ))
		v, ok = e.loadMapping(f, raw, path)
	case kindSequence:
		e.tracef("loading sequence", zap.String("field", path), zap.Stringer("type", f.typ))
		v, ok = e.loadSequence(f, raw, path)
	default:
		v, ok = e.loadPrimitive(f, raw, path)
	}
	if !ok {
		return reflect.Value{}, false
	}
	return f.wrap(v), true
}

// loadPrimitive tries keyword construction for dict-like values first, then
// direct single-argument construction.
func (e *engine) loadPrimitive(f *factory, raw any, path string) (reflect.Value, bool) {
	e.tracef("loading primitive or callable", zap.String("field", path), zap.Stringer("type", f.typ))
	if isNodeLike(raw) {
		if v, ok := e.loadBestEffort(f, raw, path); ok {
			return v, true
		}
	}

	v, err := e.construct(f, raw)
	if err != nil {
		e.warn("could not load value", zap.String("field", path), zap.Stringer("type", f.typ), zap.Error(err))
		return reflect.Value{}, false
	}
	return v, true
}

// construct is the direct, single-argument construction of f.typ from raw.
func (e *engine) construct(f *factory, raw any) (v reflect.Value, err error) {
	if f.construct == nil {
		return convertValue(e.constructors, raw, f.typ)
	}
	out, err := safeCall(func() (any, error) { return f.construct(raw) })
	if err != nil {
		return reflect.Value{}, err
	}
	return convertValue(e.constructors, out, f.typ)
}

// loadBestEffort builds a non-record value from a dict-like fragment with the
// MapConstructor registered for f.typ. It never fails loudly: a missing
// constructor or a construction error both mean "no value".
func (e *engine) loadBestEffort(f *factory, raw any, path string) (reflect.Value, bool) {
	node, ok := asNode(raw)
	if !ok {
		return reflect.Value{}, false
	}
	fn, ok := e.constructors.mapConstructor(f.typ)
	if !ok {
		e.tracef("no keyword constructor registered", zap.String("field", path), zap.Stringer("type", f.typ))
		return reflect.Value{}, false
	}

	out, err := safeCall(func() (any, error) { return fn(node.AsMap()) })
	if err == nil {
		var v reflect.Value
		if v, err = convertValue(e.constructors, out, f.typ); err == nil {
			return v, true
		}
	}
	e.warn("keyword construction failed", zap.String("field", path), zap.Stringer("type", f.typ), zap.Error(err))
	return reflect.Value{}, false
}

// loadMapping builds a map with every input key, loading each value with the
// element factory. Unloadable values become the zero value under their key.
func (e *engine) loadMapping(f *factory, raw any, path string) (reflect.Value, bool) {
	out := reflect.MakeMap(f.typ)
	if raw == nil {
		return out, true
	}
	node, ok := asNode(raw)
	if !ok {
		e.warn("could not load mapping: value is not a mapping",
			zap.String("field", path), zap.String("got", fmt.Sprintf("%T", raw)))
		return reflect.Value{}, false
	}

	for _, key := range node.Keys() {
		item, err := node.Lookup(key)
		if err != nil {
			continue
		}
		parentKey := e.keyPrefix
		e.keyPrefix = normalize.ApplyPrefix(parentKey, key)
		v, ok := e.loadElement(f.elem, item, path+"."+key)
		e.keyPrefix = parentKey
		if !ok {
			v = f.elem.zero()
		}
		out.SetMapIndex(reflect.ValueOf(key).Convert(f.typ.Key()), v)
	}
	return out, true
}

// loadSequence builds a slice (or array) the same length as the input.
// Unloadable items become the zero value in place.
func (e *engine) loadSequence(f *factory, raw any, path string) (reflect.Value, bool) {
	items, ok := asItems(raw)
	if !ok {
		e.warn("could not load sequence: value is not a sequence",
			zap.String("field", path), zap.String("got", fmt.Sprintf("%T", raw)))
		return reflect.Value{}, false
	}

	var out reflect.Value
	if f.typ.Kind() == reflect.Array {
		if len(items) != f.typ.Len() {
			e.warn("could not load array: length mismatch",
				zap.String("field", path), zap.Int("want", f.typ.Len()), zap.Int("got", len(items)))
			return reflect.Value{}, false
		}
		out = reflect.New(f.typ).Elem()
	} else {
		out = reflect.MakeSlice(f.typ, len(items), len(items))
	}

	for i, item := range items {
		parentKey := e.keyPrefix
		e.keyPrefix = fmt.Sprintf("%s[%d]", parentKey, i)
		v, ok := e.loadElement(f.elem, item, fmt.Sprintf("%s[%d]", path, i))
		e.keyPrefix = parentKey
		if !ok {
			v = f.elem.zero()
		}
		out.Index(i).Set(v)
	}
	return out, true
}

// safeCall runs a user-supplied constructor, turning a panic into an error.
func safeCall(fn func() (any, error)) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("constructor panicked: %v", r)
		}
	}()
	return fn()
}
