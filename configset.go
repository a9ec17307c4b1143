package praline

import (
	"errors"
	"sort"
	"strings"
)

// ConfigSet layers several Nodes into one. Later layers override earlier ones;
// mappings found under the same key in several layers are merged.
type ConfigSet struct {
	layers []Node
}

// NewConfigSet creates a ConfigSet. Nil layers are ignored.
func NewConfigSet(layers ...Node) *ConfigSet {
	cs := &ConfigSet{layers: make([]Node, 0, len(layers))}
	for _, l := range layers {
		if l == nil || isNilNode(l) {
			continue
		}
		cs.layers = append(cs.layers, l)
	}
	return cs
}

// Lookup returns the value from the highest-priority layer holding key.
// If that value is a mapping, lower layers holding mappings under the same
// key are merged beneath it.
func (cs *ConfigSet) Lookup(key string) (any, error) {
	var subs []Node
	for i := len(cs.layers) - 1; i >= 0; i-- {
		value, err := cs.layers[i].Lookup(key)
		if errors.Is(err, ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		sub, ok := asNode(value)
		if !ok {
			if len(subs) == 0 {
				return value, nil
			}
			// A scalar below a mapping is shadowed.
			break
		}
		subs = append(subs, sub)
	}
	switch len(subs) {
	case 0:
		return nil, ErrKeyNotFound
	case 1:
		return subs[0], nil
	}
	// subs is ordered highest priority first; layers want lowest first.
	ordered := make([]Node, len(subs))
	for i, s := range subs {
		ordered[len(subs)-1-i] = s
	}
	return NewConfigSet(ordered...), nil
}

// AsMap deep-merges every layer into a fresh map.
func (cs *ConfigSet) AsMap() map[string]any {
	result := make(map[string]any)
	for _, l := range cs.layers {
		mergeInto(result, l.AsMap())
	}
	return result
}

// Keys returns the sorted union of all layer keys. Keys that differ only in
// case are reported once, spelled as in the highest-priority layer.
func (cs *ConfigSet) Keys() []string {
	var keys []string
	for i := len(cs.layers) - 1; i >= 0; i-- {
	next:
		for _, k := range cs.layers[i].Keys() {
			for _, seen := range keys {
				if strings.EqualFold(seen, k) {
					continue next
				}
			}
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Origin reports which layer supplied key.
func (cs *ConfigSet) Origin(key string) string {
	for i := len(cs.layers) - 1; i >= 0; i-- {
		if _, err := cs.layers[i].Lookup(key); err != nil {
			continue
		}
		if o, ok := cs.layers[i].(originer); ok {
			return o.Origin(key)
		}
		return ""
	}
	return ""
}

// Len returns the number of layers.
func (cs *ConfigSet) Len() int {
	return len(cs.layers)
}

func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]any)
		dstMap, dstIsMap := dst[k].(map[string]any)
		if srcIsMap && dstIsMap {
			merged := make(map[string]any, len(dstMap))
			mergeInto(merged, dstMap)
			mergeInto(merged, srcMap)
			dst[k] = merged
			continue
		}
		if srcIsMap {
			copied := make(map[string]any, len(srcMap))
			mergeInto(copied, srcMap)
			dst[k] = copied
			continue
		}
		dst[k] = v
	}
}

// MergeConfigs flattens heterogeneous configuration inputs into one Node.
// Accepted items: Node, map[string]any, map[any]any, and slices of those
// (recursively). Later items override earlier ones, which is the reverse of
// first-wins merging found in some other configuration libraries. Nil or
// empty input yields an empty node.
func MergeConfigs(items ...any) Node {
	var layers []Node
	var collect func(item any)
	collect = func(item any) {
		switch v := item.(type) {
		case nil:
		case []any:
			for _, inner := range v {
				collect(inner)
			}
		case []Node:
			for _, inner := range v {
				collect(inner)
			}
		case []map[string]any:
			for _, inner := range v {
				collect(inner)
			}
		default:
			if n, ok := asNode(v); ok {
				layers = append(layers, n)
			}
		}
	}
	for _, item := range items {
		collect(item)
	}

	switch len(layers) {
	case 0:
		return NewNode(nil)
	case 1:
		return layers[0]
	}
	return NewConfigSet(layers...)
}
