package praline

import (
	"reflect"
	"sort"
	"strings"

	"github.com/hackmonkey/praline-config/internal/normalize"
)

// Node is a read-only configuration tree queried by key.
// Implementations must not be mutated by the loader and should be safe for
// concurrent reads if records are loaded concurrently.
type Node interface {
	// Lookup returns the raw value stored under key, or ErrKeyNotFound.
	// Nested mappings are returned as Nodes.
	Lookup(key string) (any, error)

	// AsMap returns the subtree as plain nested maps.
	AsMap() map[string]any

	// Keys returns the top-level keys in a stable order.
	Keys() []string
}

// Sequence is implemented by configuration values that represent an ordered list.
type Sequence interface {
	Items() []any
}

// MapNode is a Node backed by a map[string]any tree.
type MapNode struct {
	name string
	data map[string]any
}

// NewNode creates a Node from a plain map. A nil map yields an empty node.
func NewNode(data map[string]any) *MapNode {
	return NewNamedNode("", data)
}

// NewNamedNode creates a Node whose values report name as their origin.
func NewNamedNode(name string, data map[string]any) *MapNode {
	if data == nil {
		data = make(map[string]any)
	}
	tree, _ := normalize.StringKeys(data).(map[string]any)
	return &MapNode{name: name, data: tree}
}

// Lookup matches key exactly first, then case-insensitively.
func (n *MapNode) Lookup(key string) (any, error) {
	value, ok := n.data[key]
	if !ok {
		for k, v := range n.data {
			if strings.EqualFold(k, key) {
				value, ok = v, true
				break
			}
		}
	}
	if !ok {
		return nil, ErrKeyNotFound
	}
	if sub, isMap := value.(map[string]any); isMap {
		return &MapNode{name: n.name, data: sub}, nil
	}
	return value, nil
}

// AsMap returns the underlying tree. Callers must not modify it.
func (n *MapNode) AsMap() map[string]any {
	return n.data
}

// Keys returns the sorted top-level keys.
func (n *MapNode) Keys() []string {
	keys := make([]string, 0, len(n.data))
	for k := range n.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Origin reports the name the node was created with, if key is present.
func (n *MapNode) Origin(key string) string {
	if _, err := n.Lookup(key); err != nil {
		return ""
	}
	return n.name
}

// originer is implemented by nodes that know which source supplied a key.
type originer interface {
	Origin(key string) string
}

// asNode adapts dict-like raw values to a Node.
func asNode(raw any) (Node, bool) {
	switch v := raw.(type) {
	case Node:
		if v == nil || isNilNode(v) {
			return nil, false
		}
		return v, true
	case map[string]any:
		return NewNode(v), true
	case map[any]any:
		return NewNode(normalize.StringKeys(v).(map[string]any)), true
	}
	// Typed maps such as map[string]string.
	rv := reflect.ValueOf(raw)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		data := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			data[iter.Key().String()] = iter.Value().Interface()
		}
		return NewNode(data), true
	}
	return nil, false
}

func isNilNode(n Node) bool {
	rv := reflect.ValueOf(n)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}

// isNodeLike reports whether raw is a dict-like configuration fragment.
func isNodeLike(raw any) bool {
	_, ok := asNode(raw)
	return ok
}

// asItems returns the items of a sequence-like raw value.
// Strings are split on commas so environment variables can carry lists.
func asItems(raw any) ([]any, bool) {
	switch v := raw.(type) {
	case nil:
		return nil, true
	case []any:
		return v, true
	case Sequence:
		return v.Items(), true
	case string:
		if strings.TrimSpace(v) == "" {
			return []any{}, true
		}
		parts := strings.Split(v, ",")
		items := make([]any, len(parts))
		for i, p := range parts {
			items[i] = strings.TrimSpace(p)
		}
		return items, true
	}

	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}
