package praline

import (
	"encoding"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// convertValue is direct single-argument construction: it turns raw into a
// value of type t or reports why it cannot.
func convertValue(c *Constructors, raw any, t reflect.Type) (reflect.Value, error) {
	if raw == nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, fmt.Errorf("cannot convert nil to %s", t)
	}
	if n, ok := raw.(Node); ok && !isNilNode(n) {
		raw = n.AsMap()
	}

	rv := reflect.ValueOf(raw)
	if rv.Type().AssignableTo(t) {
		out := reflect.New(t).Elem()
		out.Set(rv)
		return out, nil
	}

	if fn, ok := c.converter(t); ok {
		out, err := safeCall(func() (any, error) { return fn(raw) })
		if err != nil {
			return reflect.Value{}, err
		}
		ov := reflect.ValueOf(out)
		if !ov.IsValid() || !ov.Type().AssignableTo(t) {
			return reflect.Value{}, fmt.Errorf("converter for %s returned %T", t, out)
		}
		return ov, nil
	}

	if isTextUnmarshaler(t) {
		if text, ok := textOf(raw); ok {
			ptr := reflect.New(t)
			if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText(text); err != nil {
				return reflect.Value{}, err
			}
			return ptr.Elem(), nil
		}
	}

	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		s, err := scalarString(raw)
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetString(s)
	case reflect.Bool:
		b, err := toBool(raw)
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := toInt64(raw)
		if err != nil {
			return reflect.Value{}, err
		}
		if out.OverflowInt(i) {
			return reflect.Value{}, fmt.Errorf("value %d overflows %s", i, t)
		}
		out.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u, err := toUint64(raw)
		if err != nil {
			return reflect.Value{}, err
		}
		if out.OverflowUint(u) {
			return reflect.Value{}, fmt.Errorf("value %d overflows %s", u, t)
		}
		out.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := toFloat64(raw)
		if err != nil {
			return reflect.Value{}, err
		}
		if out.OverflowFloat(f) {
			return reflect.Value{}, fmt.Errorf("value %g overflows %s", f, t)
		}
		out.SetFloat(f)
	case reflect.Slice:
		if t.Elem().Kind() != reflect.Uint8 {
			return reflect.Value{}, fmt.Errorf("cannot convert %T to %s", raw, t)
		}
		s, ok := raw.(string)
		if !ok {
			return reflect.Value{}, fmt.Errorf("cannot convert %T to %s", raw, t)
		}
		out.SetBytes([]byte(s))
	default:
		if rv.Type().ConvertibleTo(t) && rv.Kind() == t.Kind() {
			return rv.Convert(t), nil
		}
		return reflect.Value{}, fmt.Errorf("cannot convert %T to %s", raw, t)
	}
	return out, nil
}

func textOf(raw any) ([]byte, bool) {
	switch v := raw.(type) {
	case string:
		return []byte(v), true
	case []byte:
		return v, true
	}
	return nil, false
}

// scalarString formats scalars; maps and slices are rejected.
func scalarString(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	}
	switch reflect.ValueOf(raw).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return "", fmt.Errorf("cannot convert %T to string", raw)
	}
	return fmt.Sprint(raw), nil
}

func toBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(v))
	}
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0, nil
	}
	return false, fmt.Errorf("cannot convert %T to bool", raw)
}

func toInt64(raw any) (int64, error) {
	if s, ok := raw.(string); ok {
		return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	}
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", rv.Uint())
		}
		return int64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("value %g is not an integer", f)
		}
		// float64(math.MaxInt64) rounds up to 2^63, which does not fit.
		if f >= math.MaxInt64 || f < math.MinInt64 {
			return 0, fmt.Errorf("value %g overflows int64", f)
		}
		return int64(f), nil
	}
	return 0, fmt.Errorf("cannot convert %T to integer", raw)
}

func toUint64(raw any) (uint64, error) {
	if s, ok := raw.(string); ok {
		return strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	}
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("value %g is not an integer", f)
		}
		if f < 0 || f >= math.MaxUint64 {
			return 0, fmt.Errorf("value %g is out of range for uint64", f)
		}
		return uint64(f), nil
	}
	i, err := toInt64(raw)
	if err != nil {
		return 0, err
	}
	if i < 0 {
		return 0, fmt.Errorf("value %d is negative", i)
	}
	return uint64(i), nil
}

func toFloat64(raw any) (float64, error) {
	if s, ok := raw.(string); ok {
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	}
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	}
	return 0, fmt.Errorf("cannot convert %T to float", raw)
}
