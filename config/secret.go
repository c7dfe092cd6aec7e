package config

import (
	"fmt"
	"os"
	"strings"
)

const secretRefPrefix = "secretref:"

// ParseSecretRef splits a value of the form secretref:<provider>:<ref>.
func ParseSecretRef(value string) (provider, ref string, ok bool) {
	if !strings.HasPrefix(value, secretRefPrefix) {
		return "", "", false
	}
	parts := strings.SplitN(strings.TrimPrefix(value, secretRefPrefix), ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// ResolveSecret returns value unchanged unless it is a secret reference.
// Supported providers are "env" (an environment variable) and "file" (the
// trimmed contents of a file). An empty resolved value is an error.
func ResolveSecret(value string) (string, error) {
	return resolveSecret(value, os.LookupEnv)
}

func resolveSecret(value string, lookup func(string) (string, bool)) (string, error) {
	provider, ref, ok := ParseSecretRef(value)
	if !ok {
		if strings.HasPrefix(value, secretRefPrefix) {
			return "", fmt.Errorf("%w: malformed reference", ErrSecretRef)
		}
		return value, nil
	}

	var resolved string
	switch provider {
	case "env":
		v, ok := lookup(ref)
		if !ok {
			return "", fmt.Errorf("%w: env %s is not set", ErrSecretRef, ref)
		}
		resolved = v
	case "file":
		data, err := os.ReadFile(ref) // #nosec G304 -- operator-supplied path
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrSecretRef, err)
		}
		resolved = strings.TrimSpace(string(data))
	default:
		return "", fmt.Errorf("%w: provider %q is not supported", ErrSecretRef, provider)
	}

	if resolved == "" {
		return "", fmt.Errorf("%w: provider %q returned empty value", ErrSecretRef, provider)
	}
	return resolved, nil
}
