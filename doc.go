// Package praline binds loosely typed configuration trees to Go structs.
//
// A configuration is described by an ordinary struct. Nested structs, slices,
// arrays, maps, pointers and Optional fields are built recursively from the
// merged data of every source:
//
//	type Config struct {
//	    Port    int       `conf:"default:8080,min:1024"`
//	    Host    string    `conf:"required"`
//	    Started time.Time `conf:"factory:datetime"`
//	    Token   praline.SecureValue
//	}
//
//	loader := praline.NewLoader[Config]().
//	    WithSource(sourcefile.New("config.yaml", sourcefile.Options{})).
//	    WithSource(sourceenv.New(sourceenv.Options{Prefix: "APP_"}))
//
//	cfg, err := loader.Load(context.Background())
//
// Loading is forgiving at the field level: a missing key keeps the field's
// default and a value that cannot be converted leaves the zero value and logs a
// warning. Only source failures and validation failures are returned as errors.
// LoadRecord and LoadValue expose the same engine without sources or validation.
//
// Keys are matched case-insensitively against the lowerCamel and snake_case
// forms of the field name, unless a name directive is given.
//
// Tag directives (conf:"..."):
//
//	name:key       explicit configuration key
//	factory:name   build the value with a registered named factory
//	default:val    value used when the key is absent
//	required       the value must be non-empty
//	min:N, max:N   bounds on numbers or on string, slice and map length
//	oneof:a,b,c    allowed values
//	secret         redact in DumpEffective and snapshots
//	-              ignore the field
//
// Sources live in subpackages: sourcefile (YAML, JSON, TOML, HCL), sourceenv
// (environment and .env files), sourcecsv (CSV tables) and sourcemap (static
// maps). Later sources override earlier ones.
package praline
