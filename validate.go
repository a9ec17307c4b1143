package praline

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// validateStruct walks a loaded record and checks the required, min, max and
// oneof directives of every field. Nested records are validated recursively;
// unset Optional fields are skipped.
func validateStruct(c *Constructors, cfg reflect.Value) []FieldError {
	return validateRecord(c, cfg, "")
}

func validateRecord(c *Constructors, v reflect.Value, parentPath string) []FieldError {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	var errs []FieldError
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := parseTag(sf.Tag.Get("conf"))
		if tag.skip {
			continue
		}
		fv := v.Field(i)

		if sf.Anonymous && sf.Type.Kind() == reflect.Struct && tag.name == "" && !isOptionalType(sf.Type) {
			errs = append(errs, validateRecord(c, fv, parentPath)...)
			continue
		}
		if !sf.IsExported() {
			continue
		}

		path := sf.Name
		if parentPath != "" {
			path = parentPath + "." + sf.Name
		}

		if isOptionalType(sf.Type) {
			if fv.Field(1).Bool() {
				errs = append(errs, validateValue(c, fv.Field(0), path, tag)...)
			}
			continue
		}
		errs = append(errs, validateValue(c, fv, path, tag)...)
	}
	return errs
}

// validateValue checks one field and descends into nested records.
func validateValue(c *Constructors, v reflect.Value, path string, tag tagConfig) []FieldError {
	if tag.required && isEmptyValue(v) {
		return []FieldError{{
			FieldPath: path,
			Code:      ErrCodeRequired,
			Message:   "field is required but not provided",
		}}
	}

	base := v
	if base.Kind() == reflect.Pointer && !base.IsNil() {
		base = base.Elem()
	}
	if base.Kind() == reflect.Struct && isNestedRecord(c, base.Type()) {
		return validateRecord(c, base, path)
	}

	if isEmptyValue(v) {
		return nil
	}

	var errs []FieldError
	if fe, ok := checkBound(base, path, tag.min, ErrCodeMin); ok {
		errs = append(errs, fe)
	}
	if fe, ok := checkBound(base, path, tag.max, ErrCodeMax); ok {
		errs = append(errs, fe)
	}
	if len(tag.oneof) > 0 {
		if s, ok := formatScalar(base); ok && !slices.Contains(tag.oneof, s) {
			errs = append(errs, FieldError{
				FieldPath: path,
				Code:      ErrCodeOneOf,
				Message:   fmt.Sprintf("value %q must be one of: %s", s, strings.Join(tag.oneof, ", ")),
			})
		}
	}
	return errs
}

// isNestedRecord reports whether a struct type is loaded field by field
// rather than as a single value.
func isNestedRecord(c *Constructors, t reflect.Type) bool {
	return !isOptionalType(t) && !c.handles(t) && !isTextUnmarshaler(t)
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	default:
		return v.IsZero()
	}
}

// checkBound compares numbers by value and strings, slices and maps by length.
func checkBound(v reflect.Value, path, bound, code string) (FieldError, bool) {
	if bound == "" {
		return FieldError{}, false
	}
	below := code == ErrCodeMin
	violates := func(cmp int) bool {
		if below {
			return cmp < 0
		}
		return cmp > 0
	}
	word := "exceeds maximum"
	if below {
		word = "is below minimum"
	}

	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		limit, err := strconv.ParseInt(bound, 10, 64)
		if err == nil && violates(compare(v.Int(), limit)) {
			return FieldError{path, code, fmt.Sprintf("value %d %s %d", v.Int(), word, limit)}, true
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		limit, err := strconv.ParseUint(bound, 10, 64)
		if err == nil && violates(compare(v.Uint(), limit)) {
			return FieldError{path, code, fmt.Sprintf("value %d %s %d", v.Uint(), word, limit)}, true
		}
	case reflect.Float32, reflect.Float64:
		limit, err := strconv.ParseFloat(bound, 64)
		if err == nil && violates(compare(v.Float(), limit)) {
			return FieldError{path, code, fmt.Sprintf("value %g %s %g", v.Float(), word, limit)}, true
		}
	case reflect.String, reflect.Slice, reflect.Map:
		limit, err := strconv.Atoi(bound)
		if err == nil && violates(compare(v.Len(), limit)) {
			return FieldError{path, code, fmt.Sprintf("length %d %s %d", v.Len(), word, limit)}, true
		}
	}
	return FieldError{}, false
}

func compare[N int | int64 | uint64 | float64](a, b N) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func formatScalar(v reflect.Value) (string, bool) {
	switch v.Kind() {
	case reflect.String:
		return v.String(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), true
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), true
	}
	return "", false
}
