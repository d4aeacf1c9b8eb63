// Package envfile loads .env-style variable files and interpolates
// ${NAME} tokens into server spec trees.
//
// Variable precedence follows the hierarchy: every level's .env file is
// merged shallowly root→leaf (so the closest level wins on a collision),
// and the process environment is the final fallback.
package envfile

import (
	"os"
	"regexp"

	"github.com/joho/godotenv"
)

// tokenRe matches ${NAME} interpolation tokens.
var tokenRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Merge reads each .env file in order and folds them into a single map,
// later files overwriting earlier ones. Missing files contribute nothing;
// a malformed file is skipped the same way (one broken level never blocks
// the rest of the chain).
func Merge(paths []string) map[string]string {
	merged := make(map[string]string)
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		vars, err := godotenv.Read(path)
		if err != nil {
			continue
		}
		for k, v := range vars {
			merged[k] = v
		}
	}
	return merged
}

// Lookup returns a resolver that consults vars first and falls back to the
// process environment.
func Lookup(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		if v, ok := vars[name]; ok {
			return v, true
		}
		return os.LookupEnv(name)
	}
}

// Interpolate walks a JSON-shaped value (strings, arrays, nested objects)
// and replaces ${NAME} tokens using resolve. By default an unresolved token
// is left as literal text. In strict mode it is replaced with an empty
// string instead, and the token name is returned in the warnings slice.
func Interpolate(v any, resolve func(string) (string, bool), strict bool) (any, []string) {
	var warnings []string

	var walk func(v any) any
	walk = func(v any) any {
		switch val := v.(type) {
		case string:
			return tokenRe.ReplaceAllStringFunc(val, func(token string) string {
				name := tokenRe.FindStringSubmatch(token)[1]
				if resolved, ok := resolve(name); ok {
					return resolved
				}
				if strict {
					warnings = append(warnings, name)
					return ""
				}
				return token
			})
		case []any:
			out := make([]any, len(val))
			for i, item := range val {
				out[i] = walk(item)
			}
			return out
		case map[string]any:
			out := make(map[string]any, len(val))
			for k, item := range val {
				out[k] = walk(item)
			}
			return out
		default:
			return v
		}
	}

	return walk(v), warnings
}
