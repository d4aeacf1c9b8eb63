// Package hierarchy implements layered configuration resolution.
//
// Each directory from the filesystem root down to a project may contribute
// a fragment (.claude/mcps.json); fragments are discovered root-first and
// folded leaf-last so the deepest level wins. Fragments are read fresh on
// every resolution — there is no caching across calls.
package hierarchy

import (
	"os"
	"path/filepath"

	"github.com/avhern/weave/internal/jsonio"
	"github.com/avhern/weave/internal/registry"
)

const (
	// ConfigDir is the per-directory configuration subdirectory.
	ConfigDir = ".claude"
	// FragmentFile is the fragment filename inside ConfigDir.
	FragmentFile = "mcps.json"
	// EnvFile is the per-level variable file inside ConfigDir.
	EnvFile = ".env"
	// OutputFile is the merged output written at the project root.
	OutputFile = ".mcp.json"
)

// Fragment is one directory level's partial configuration contribution.
type Fragment struct {
	Include  []string                       `json:"include,omitempty"`
	Servers  map[string]registry.ServerSpec `json:"mcpServers,omitempty"`
	Template string                         `json:"template,omitempty"`
}

// FragmentResult pairs a discovered fragment location with either its
// parsed contents or the parse error. The merge fold treats Err as "no
// contribution" — one corrupt level never blocks the rest of the hierarchy.
type FragmentResult struct {
	Dir      string
	Path     string
	Fragment *Fragment
	Err      error
}

// FragmentPath returns the fragment file path for a directory level.
func FragmentPath(dir string) string {
	return filepath.Join(dir, ConfigDir, FragmentFile)
}

// EnvPath returns the .env file path for a directory level.
func EnvPath(dir string) string {
	return filepath.Join(dir, ConfigDir, EnvFile)
}

// loadFragment reads one fragment file. The file is known to exist at
// discovery time; a parse failure lands in Err.
func loadFragment(dir string) FragmentResult {
	path := FragmentPath(dir)
	var frag Fragment
	if err := jsonio.ReadFile(path, &frag); err != nil {
		return FragmentResult{Dir: dir, Path: path, Err: err}
	}
	return FragmentResult{Dir: dir, Path: path, Fragment: &frag}
}

// userHomeDir is a package-level var to allow test injection.
var userHomeDir = os.UserHomeDir
