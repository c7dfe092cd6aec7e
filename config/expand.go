package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnvStrict expands environment variables in s.
//
// Semantics:
//   - `${VAR}` is replaced by the value of VAR; an unset VAR is an error.
//   - `${VAR:-default}` falls back to default when VAR is unset.
//   - `$$` emits a literal `$`.
//   - A bare `$VAR` is left as is.
func ExpandEnvStrict(s string) (string, error) {
	return expandEnv(s, os.LookupEnv)
}

func expandEnv(s string, lookup func(string) (string, bool)) (string, error) {
	const dollarSentinel = "\x00OPSWATCH_DOLLAR\x00"
	s = strings.ReplaceAll(s, "$$", dollarSentinel)

	missing := make(map[string]struct{})
	out := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		sub := envVarPattern.FindStringSubmatch(match)
		if v, ok := lookup(sub[1]); ok {
			return v
		}
		if strings.Contains(match, ":-") {
			return sub[2]
		}
		missing[sub[1]] = struct{}{}
		return match
	})

	if len(missing) > 0 {
		keys := make([]string, 0, len(missing))
		for k := range missing {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(keys, ", "))
	}

	return strings.ReplaceAll(out, dollarSentinel, "$"), nil
}
