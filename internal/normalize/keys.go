package normalize

import (
	"maps"
	"strings"
	"unicode"
)

// ToLowerDotPath normalizes an environment-style key to a lowercase dot-separated path.
// Double underscores (__) are treated as level separators and converted to dots.
// Single underscores within a level are preserved.
// Examples:
//   - "FOO__BAR" → "foo.bar"
//   - "DB_MAX_CONNECTIONS" → "db_max_connections"
//   - "API__RATE_LIMIT" → "api.rate_limit"
func ToLowerDotPath(key string) string {
	normalized := strings.ReplaceAll(key, "__", ".")
	return strings.ToLower(normalized)
}

// DeriveFieldPath lowercases the first letter of a struct field name.
// Examples:
//   - "Host" → "host"
//   - "ServerAddress" → "serverAddress"
func DeriveFieldPath(fieldName string) string {
	if fieldName == "" {
		return ""
	}

	runes := []rune(fieldName)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

// SnakeCase converts a Go identifier to snake_case, keeping acronyms together.
// Examples:
//   - "ServerAddress" → "server_address"
//   - "APIKey" → "api_key"
//   - "UUIDField" → "uuid_field"
func SnakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FieldKeys returns the configuration keys tried, in order, for a struct field.
// An explicit name always wins and is the only candidate.
func FieldKeys(fieldName, explicit string) []string {
	if explicit != "" {
		return []string{explicit}
	}
	camel := DeriveFieldPath(fieldName)
	snake := SnakeCase(fieldName)
	if camel == snake {
		return []string{camel}
	}
	return []string{camel, snake}
}

// ApplyPrefix combines a prefix with a key to create a nested configuration path.
// Examples:
//   - ApplyPrefix("database", "host") → "database.host"
//   - ApplyPrefix("", "host") → "host"
func ApplyPrefix(prefix, key string) string {
	if prefix == "" {
		return key
	}
	if key == "" {
		return prefix
	}
	return prefix + "." + key
}

// Expand turns dot-separated keys into nested maps.
// {"db.host": "x", "db.port": 1} → {"db": {"host": "x", "port": 1}}.
// When a key is both a leaf and a parent the nested map wins; a nested map
// value and dotted keys under the same parent are merged, dotted keys first.
func Expand(flat map[string]any) map[string]any {
	result := make(map[string]any, len(flat))
	for key, value := range flat {
		parts := strings.Split(key, ".")
		node := result
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[part] = child
			}
			node = child
		}
		leaf := parts[len(parts)-1]
		if existing, isMap := node[leaf].(map[string]any); isMap {
			if nested, ok := value.(map[string]any); ok {
				for k, v := range nested {
					if _, taken := existing[k]; !taken {
						existing[k] = v
					}
				}
			}
			continue
		}
		if nested, ok := value.(map[string]any); ok {
			value = maps.Clone(nested)
		}
		node[leaf] = value
	}
	return result
}

// StringKeys converts the map[any]any trees some decoders produce into
// map[string]any, recursing into nested maps and slices. Non-string keys are dropped.
func StringKeys(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			out[key] = StringKeys(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			keyStr, ok := key.(string)
			if !ok {
				continue
			}
			out[keyStr] = StringKeys(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = StringKeys(val)
		}
		return out
	default:
		return value
	}
}
