package hierarchy

import (
	"fmt"
	"path/filepath"

	"github.com/avhern/weave/internal/jsonio"
)

// Resolver discovers configuration fragments for a starting directory.
type Resolver struct{}

// NewResolver creates a hierarchy resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Discover walks from startDir up to the filesystem root collecting every
// level that carries a fragment file, plus the user-global level (added
// even when it is outside the ancestor chain, deduplicated by resolved
// fragment path). The result is ordered root-first, leaf-last, because
// override precedence is "deepest wins". An empty result is not an error —
// callers decide whether an empty hierarchy is fatal.
//
// The starting directory need not itself be a config root; levels without
// a fragment file simply contribute nothing.
func (r *Resolver) Discover(startDir string) ([]FragmentResult, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("resolving start directory: %w", err)
	}

	// Collect leaf→root, then reverse.
	var dirs []string
	current := abs
	for {
		if jsonio.Exists(FragmentPath(current)) {
			dirs = append(dirs, current)
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}
	for i, j := 0, len(dirs)-1; i < j; i, j = i+1, j-1 {
		dirs[i], dirs[j] = dirs[j], dirs[i]
	}

	// The user-global level is the least specific: it sorts before the
	// ancestor chain unless the chain already contains it.
	if home, err := userHomeDir(); err == nil {
		globalPath := FragmentPath(home)
		if jsonio.Exists(globalPath) {
			seen := false
			for _, d := range dirs {
				if FragmentPath(d) == globalPath {
					seen = true
					break
				}
			}
			if !seen {
				dirs = append([]string{home}, dirs...)
			}
		}
	}

	results := make([]FragmentResult, 0, len(dirs))
	for _, dir := range dirs {
		results = append(results, loadFragment(dir))
	}
	return results, nil
}

// EnvPaths returns the .env file paths for the discovered levels in
// root-first order, so that a shallow merge leaves the closest level's
// values on top.
func EnvPaths(results []FragmentResult) []string {
	paths := make([]string, 0, len(results))
	for _, res := range results {
		paths = append(paths, EnvPath(res.Dir))
	}
	return paths
}
