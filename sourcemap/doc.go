// Package sourcemap provides a static, in-memory configuration source,
// typically fed from command-line flags or test fixtures.
//
// Example:
//
//	source := sourcemap.New("flags", map[string]any{"server.port": 9090})
//	loader := praline.NewLoader[Config]().WithSource(source)
package sourcemap
