package praline

import (
	"strings"
)

// tagConfig holds parsed directives from a struct field's `conf` tag.
type tagConfig struct {
	skip       bool     // Field is ignored ("-")
	name       string   // Explicit config key (name:key)
	factory    string   // Named default factory (factory:name)
	defValue   string   // Default value (default:value)
	hasDefault bool     // Whether a default directive was present
	min        string   // Minimum constraint (min:N)
	max        string   // Maximum constraint (max:M)
	oneof      []string // Allowed values (oneof:a,b,c)
	required   bool
	secret     bool
}

var directiveNames = []string{"name", "factory", "default", "min", "max", "oneof", "required", "secret"}

// parseTag parses a `conf` struct tag.
// Tag format: "directive1:value1,directive2:value2,..."
// Boolean directives may omit ":true". oneof consumes following comma-separated
// pieces until the next known directive.
func parseTag(tag string) tagConfig {
	cfg := tagConfig{}
	if strings.TrimSpace(tag) == "-" {
		cfg.skip = true
		return cfg
	}

	inOneof := false
	for _, piece := range strings.Split(tag, ",") {
		name, value, known := splitDirective(piece)
		if !known {
			if inOneof {
				cfg.oneof = append(cfg.oneof, strings.TrimSpace(piece))
			}
			continue
		}
		inOneof = false

		switch name {
		case "name":
			cfg.name = value
		case "factory":
			cfg.factory = strings.TrimSpace(value)
		case "default":
			cfg.defValue = strings.TrimLeft(value, " ")
			cfg.hasDefault = true
		case "min":
			cfg.min = strings.TrimSpace(value)
		case "max":
			cfg.max = strings.TrimSpace(value)
		case "oneof":
			inOneof = true
			if v := strings.TrimSpace(value); v != "" {
				cfg.oneof = append(cfg.oneof, v)
			}
		case "required":
			cfg.required = parseBoolDirective(value)
		case "secret":
			cfg.secret = parseBoolDirective(value)
		}
	}

	return cfg
}

// splitDirective separates "name:value" and reports whether name is a known directive.
func splitDirective(piece string) (string, string, bool) {
	piece = strings.TrimLeft(piece, " ")
	name, value, _ := strings.Cut(piece, ":")
	name = strings.TrimSpace(name)
	for _, d := range directiveNames {
		if name == d {
			return name, value, true
		}
	}
	return "", "", false
}

// parseBoolDirective treats an empty value and anything but "false" as true.
func parseBoolDirective(value string) bool {
	return strings.TrimSpace(value) != "false"
}
