// Package install resolves the weave install root and the persisted state
// layout beneath it.
//
// The install root defaults to ~/.weave and can be overridden with the
// WEAVE_HOME environment variable (tests point it at a temp dir).
package install

import (
	"os"
	"path/filepath"
)

// EnvHome is the environment variable that overrides the install root.
const EnvHome = "WEAVE_HOME"

// Root returns the install root directory.
func Root() string {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".weave"
	}
	return filepath.Join(home, ".weave")
}

// RegistryPath is the named-server registry file.
func RegistryPath(root string) string {
	return filepath.Join(root, "registry.json")
}

// ActivityPath is the session activity log.
func ActivityPath(root string) string {
	return filepath.Join(root, "activity.json")
}

// ArchivePath is the sqlite archive of pruned sessions.
func ArchivePath(root string) string {
	return filepath.Join(root, "activity.db")
}

// WorkstreamsPath is the workstream store file.
func WorkstreamsPath(root string) string {
	return filepath.Join(root, "workstreams.json")
}

// SmartSyncPath is the smart-sync preferences file.
func SmartSyncPath(root string) string {
	return filepath.Join(root, "smart-sync.json")
}

// TemplatesDir is the root of the template bundles tree.
func TemplatesDir(root string) string {
	return filepath.Join(root, "templates")
}
