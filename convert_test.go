package praline

import (
	"reflect"
	"testing"
	"time"
)

func TestConvertValue(t *testing.T) {
	type port int

	tests := []struct {
		name    string
		raw     any
		target  reflect.Type
		want    any
		wantErr bool
	}{
		{"string to int", "42", reflect.TypeOf(0), 42, false},
		{"padded string to int", " 42 ", reflect.TypeOf(0), 42, false},
		{"integral float to int", 3.0, reflect.TypeOf(0), 3, false},
		{"fractional float to int", 3.5, reflect.TypeOf(0), nil, true},
		{"int8 overflow", 128, reflect.TypeOf(int8(0)), nil, true},
		{"float at 2^63 overflows int64", float64(1 << 63), reflect.TypeOf(int64(0)), nil, true},
		{"float at min int64", float64(-1 << 63), reflect.TypeOf(int64(0)), int64(-1 << 63), false},
		{"float at 2^63 to uint64", float64(1 << 63), reflect.TypeOf(uint64(0)), uint64(1 << 63), false},
		{"float at 2^64 overflows uint64", float64(1 << 64), reflect.TypeOf(uint64(0)), nil, true},
		{"negative to uint", -1, reflect.TypeOf(uint(0)), nil, true},
		{"uint16 overflow", "70000", reflect.TypeOf(uint16(0)), nil, true},
		{"int to float", 2, reflect.TypeOf(0.0), 2.0, false},
		{"string to float32", "1.5", reflect.TypeOf(float32(0)), float32(1.5), false},
		{"string to bool", "true", reflect.TypeOf(false), true, false},
		{"int to bool", 0, reflect.TypeOf(false), false, false},
		{"garbage to bool", "maybe", reflect.TypeOf(false), nil, true},
		{"int to string", 7, reflect.TypeOf(""), "7", false},
		{"stringer to string", time.Second, reflect.TypeOf(""), "1s", false},
		{"map to string", map[string]any{}, reflect.TypeOf(""), nil, true},
		{"named int", "8080", reflect.TypeOf(port(0)), port(8080), false},
		{"nil to pointer", nil, reflect.TypeOf((*int)(nil)), (*int)(nil), false},
		{"nil to int", nil, reflect.TypeOf(0), nil, true},
		{"duration via converter", "1m", reflect.TypeOf(time.Duration(0)), time.Minute, false},
		{"slice to int", []any{1}, reflect.TypeOf(0), nil, true},
	}

	c := DefaultConstructors()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := convertValue(c, tt.raw, tt.target)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Type() != tt.target {
				t.Errorf("got type %s, want %s", got.Type(), tt.target)
			}
			if !reflect.DeepEqual(got.Interface(), tt.want) {
				t.Errorf("got %#v, want %#v", got.Interface(), tt.want)
			}
		})
	}
}

func TestConvertValue_ConverterReturnsWrongType(t *testing.T) {
	c := NewConstructors()
	c.converters.Register(reflect.TypeOf(0), func(any) (any, error) {
		return "not an int", nil
	})

	if _, err := convertValue(c, "1", reflect.TypeOf(0)); err == nil {
		t.Fatal("expected an error for a mistyped converter result")
	}
}
