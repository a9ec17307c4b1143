package praline

import (
	"sync"
	"testing"
)

func TestProvenance_StoreGetRelease(t *testing.T) {
	type Config struct {
		Host string
	}

	cfg := &Config{Host: "localhost"}
	if _, ok := GetProvenance(cfg); ok {
		t.Fatal("expected no provenance before store")
	}

	storeProvenance(cfg, &Provenance{Fields: []FieldProvenance{
		{FieldPath: "Host", KeyPath: "host", SourceName: "env"},
	}})

	prov, ok := GetProvenance(cfg)
	if !ok || len(prov.Fields) != 1 || prov.Fields[0].SourceName != "env" {
		t.Fatalf("unexpected provenance: %+v", prov)
	}

	ReleaseProvenance(cfg)
	if _, ok := GetProvenance(cfg); ok {
		t.Error("expected provenance to be released")
	}
}

func TestProvenance_NilConfig(t *testing.T) {
	var cfg *struct{}
	if _, ok := GetProvenance(cfg); ok {
		t.Error("nil config has no provenance")
	}
	storeProvenance(cfg, &Provenance{})
	ReleaseProvenance(cfg)
}

func TestProvenance_FieldAndSources(t *testing.T) {
	prov := &Provenance{Fields: []FieldProvenance{
		{FieldPath: "Host", SourceName: "file:app.yaml"},
		{FieldPath: "Port", SourceName: "env"},
		{FieldPath: "Name", SourceName: "env"},
		{FieldPath: "Token", SourceName: "", Secret: true},
	}}

	fp, ok := prov.Field("Port")
	if !ok || fp.SourceName != "env" {
		t.Errorf("Field(Port) = %+v, %v", fp, ok)
	}
	if _, ok := prov.Field("Missing"); ok {
		t.Error("Field(Missing) should not be found")
	}

	sources := prov.Sources()
	if len(sources) != 2 || sources[0] != "env" || sources[1] != "file:app.yaml" {
		t.Errorf("Sources() = %v", sources)
	}

	var empty *Provenance
	if _, ok := empty.Field("Host"); ok || empty.Sources() != nil {
		t.Error("nil provenance should be empty")
	}
}

func TestProvenance_Concurrent(t *testing.T) {
	type Config struct{ N int }

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			cfg := &Config{N: n}
			storeProvenance(cfg, &Provenance{})
			if _, ok := GetProvenance(cfg); !ok {
				t.Errorf("config %d lost its provenance", n)
			}
			ReleaseProvenance(cfg)
		}(i)
	}
	wg.Wait()
}
