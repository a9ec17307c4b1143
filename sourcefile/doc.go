// Package sourcefile loads configuration from YAML, JSON, TOML or HCL files.
//
// Format is auto-detected from extension (.yaml, .yml, .json, .toml, .hcl).
// HCL files contribute their top-level attributes.
//
// Example:
//
//	source := sourcefile.New("config.yaml", sourcefile.Options{Required: true})
//	loader := praline.NewLoader[Config]().WithSource(source)
package sourcefile
