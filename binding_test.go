package praline

import (
	"reflect"
	"testing"
)

func TestParseTag(t *testing.T) {
	tests := []struct {
		tag  string
		want tagConfig
	}{
		{"", tagConfig{}},
		{"-", tagConfig{skip: true}},
		{"name:server_address", tagConfig{name: "server_address"}},
		{"required,secret", tagConfig{required: true, secret: true}},
		{"required:false", tagConfig{}},
		{"default:8080,min:1024,max:65535", tagConfig{defValue: "8080", hasDefault: true, min: "1024", max: "65535"}},
		{"default:", tagConfig{hasDefault: true}},
		{"default:a:b", tagConfig{defValue: "a:b", hasDefault: true}},
		{"oneof:prod,staging,dev", tagConfig{oneof: []string{"prod", "staging", "dev"}}},
		{"oneof:a, b,required", tagConfig{oneof: []string{"a", "b"}, required: true}},
		{"factory:datetime, secret", tagConfig{factory: "datetime", secret: true}},
		{"unknown:x,name:n", tagConfig{name: "n"}},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			if got := parseTag(tt.tag); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseTag(%q) = %+v, want %+v", tt.tag, got, tt.want)
			}
		})
	}
}
