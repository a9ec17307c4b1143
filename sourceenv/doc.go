// Package sourceenv loads configuration from environment variables.
//
// Key normalization: FOO__BAR → foo.bar (nested), FOO_BAR → foo_bar.
// Optional .env files are read with godotenv before the scan.
//
// Example:
//
//	source := sourceenv.New(sourceenv.Options{Prefix: "APP_", DotEnv: []string{".env"}})
//	loader := praline.NewLoader[Config]().WithSource(source)
package sourceenv
