package praline

import (
	"fmt"
	"os"
)

// DefaultMask is what a SecureValue prints instead of its contents.
const DefaultMask = "***"

// WrappedValue holds a string whose printed form may differ from its value.
type WrappedValue struct {
	value string
}

// NewWrappedValue wraps value.
func NewWrappedValue(value string) WrappedValue {
	return WrappedValue{value: value}
}

// Value returns the wrapped string.
func (w WrappedValue) Value() string {
	return w.value
}

func (w WrappedValue) String() string {
	return w.value
}

// SecureValue shields its value from accidental exposure through fmt, logs and dumps.
// Only Value reveals the contents.
type SecureValue struct {
	WrappedValue
	// Mask replaces DefaultMask when non-empty.
	Mask string
}

// NewSecureValue wraps value securely.
func NewSecureValue(value string) SecureValue {
	return SecureValue{WrappedValue: NewWrappedValue(value)}
}

func (s SecureValue) String() string {
	if s.Mask != "" {
		return s.Mask
	}
	return DefaultMask
}

// GoString keeps %#v from printing the wrapped value.
func (s SecureValue) GoString() string {
	return s.String()
}

// Format masks every verb, so %v, %+v and %q all print the mask.
func (s SecureValue) Format(f fmt.State, verb rune) {
	if verb == 'q' {
		fmt.Fprintf(f, "%q", s.String())
		return
	}
	fmt.Fprint(f, s.String())
}

// EnvValue is a WrappedValue read from an environment variable.
type EnvValue struct {
	WrappedValue
	// Var is the variable the value was read from.
	Var string
	// Found reports whether the variable was set.
	Found bool
}

// EnvValueFor reads the environment variable name.
func EnvValueFor(name string) EnvValue {
	value, found := os.LookupEnv(name)
	return EnvValue{WrappedValue: NewWrappedValue(value), Var: name, Found: found}
}

// SecureEnvValue is an EnvValue that masks itself like SecureValue.
// Use it for secrets passed to a program through the environment.
type SecureEnvValue struct {
	SecureValue
	Var   string
	Found bool
}

// SecureEnvValueFor reads the environment variable name.
func SecureEnvValueFor(name string) SecureEnvValue {
	value, found := os.LookupEnv(name)
	return SecureEnvValue{SecureValue: NewSecureValue(value), Var: name, Found: found}
}

// EnvConfig maps friendly names to environment variables. Embed it in an
// application config to bind sections such as:
//
//	env:
//	  my_username: USERNAME
//	secure_env:
//	  my_password: SECRET_PASSWORD
type EnvConfig struct {
	Env       map[string]EnvValue       `conf:"name:env"`
	SecureEnv map[string]SecureEnvValue `conf:"name:secure_env"`
}
