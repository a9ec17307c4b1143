package praline

import (
	"sort"
	"sync"
)

// Provenance records which source supplied each loaded field.
type Provenance struct {
	Fields []FieldProvenance
}

// FieldProvenance describes where a field's value came from.
type FieldProvenance struct {
	FieldPath  string // Go path (e.g., "Database.Host", "Users[0].Name")
	KeyPath    string // Configuration key path (e.g., "database.host")
	SourceName string // Layer name (e.g., "file:config.yaml", "env", "overrides")
	Secret     bool   // Value must be redacted in dumps
}

// Field returns the entry recorded for a Go field path.
func (p *Provenance) Field(fieldPath string) (FieldProvenance, bool) {
	if p == nil {
		return FieldProvenance{}, false
	}
	for _, fp := range p.Fields {
		if fp.FieldPath == fieldPath {
			return fp, true
		}
	}
	return FieldProvenance{}, false
}

// Sources lists the distinct source names that contributed values, sorted.
func (p *Provenance) Sources() []string {
	if p == nil {
		return nil
	}
	seen := make(map[string]struct{})
	for _, fp := range p.Fields {
		if fp.SourceName != "" {
			seen[fp.SourceName] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

var provenanceStore sync.Map

// GetProvenance returns provenance metadata for a configuration returned by Loader.Load.
// Safe for concurrent use.
func GetProvenance[T any](cfg *T) (*Provenance, bool) {
	if cfg == nil {
		return nil, false
	}
	value, ok := provenanceStore.Load(cfg)
	if !ok {
		return nil, false
	}
	prov, ok := value.(*Provenance)
	return prov, ok
}

// ReleaseProvenance drops the metadata kept for cfg. Call it when a loaded
// configuration is discarded, e.g. after a Watch reload replaces it.
func ReleaseProvenance[T any](cfg *T) {
	if cfg != nil {
		provenanceStore.Delete(cfg)
	}
}

func storeProvenance[T any](cfg *T, prov *Provenance) {
	if cfg != nil && prov != nil {
		provenanceStore.Store(cfg, prov)
	}
}
