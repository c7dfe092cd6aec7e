package config

import "errors"

var (
	// ErrInvalidConfig indicates a configuration that fails validation.
	ErrInvalidConfig = errors.New("config: invalid configuration")

	// ErrMissingEnv indicates a ${VAR} reference to an unset variable.
	ErrMissingEnv = errors.New("config: missing required environment variables")

	// ErrSecretRef indicates a secret reference that could not be resolved.
	ErrSecretRef = errors.New("config: unresolvable secret reference")
)
