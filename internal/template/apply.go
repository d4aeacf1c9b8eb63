package template

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/avhern/weave/internal/hierarchy"
	"github.com/avhern/weave/internal/jsonio"
)

// copied subdirectories: each template's rules/ and commands/ markdown
// files land in the project's .claude equivalents.
var assetDirs = []string{"rules", "commands"}

// ApplyResult reports what an application run did.
type ApplyResult struct {
	Copied   int `json:"copied"`
	Skipped  int `json:"skipped"`
	Included int `json:"included"` // mcpDefaults added to the project fragment
}

// Apply copies each chain node's rules/*.md and commands/*.md into the
// target project. Files that existed before the run are never overwritten
// unless force is set — application is idempotent and safe to re-run. A
// file copied earlier in the same run can be overwritten by a later node:
// the chain is base-first precisely so dependents can override their
// includes.
//
// The chain's mcpDefaults are folded into the project fragment's include
// list (stable de-dup), creating the fragment if the project has none.
func Apply(chain []Node, projectDir string, force bool) (*ApplyResult, error) {
	result := &ApplyResult{}
	copiedThisRun := make(map[string]bool)

	for _, node := range chain {
		for _, sub := range assetDirs {
			pattern := filepath.Join(node.Dir, sub, "*.md")
			files, err := filepath.Glob(pattern)
			if err != nil {
				continue
			}
			destDir := filepath.Join(projectDir, hierarchy.ConfigDir, sub)
			for _, src := range files {
				dest := filepath.Join(destDir, filepath.Base(src))
				if jsonio.Exists(dest) && !copiedThisRun[dest] && !force {
					result.Skipped++
					continue
				}
				if err := copyFile(src, dest); err != nil {
					return nil, fmt.Errorf("copying %s: %w", src, err)
				}
				copiedThisRun[dest] = true
				result.Copied++
			}
		}
	}

	added, err := applyDefaults(chain, projectDir)
	if err != nil {
		return nil, err
	}
	result.Included = added

	return result, nil
}

// applyDefaults merges the chain's mcpDefaults into the project fragment's
// include list, preserving existing order and skipping names already
// present. Returns how many names were newly added.
func applyDefaults(chain []Node, projectDir string) (int, error) {
	var defaults []string
	for _, node := range chain {
		defaults = append(defaults, node.Manifest.MCPDefaults...)
	}
	if len(defaults) == 0 {
		return 0, nil
	}

	fragPath := hierarchy.FragmentPath(projectDir)
	var frag hierarchy.Fragment
	if err := jsonio.ReadFile(fragPath, &frag); err != nil && !os.IsNotExist(err) {
		return 0, fmt.Errorf("reading project fragment: %w", err)
	}

	seen := make(map[string]bool, len(frag.Include))
	for _, name := range frag.Include {
		seen[name] = true
	}
	added := 0
	for _, name := range defaults {
		if seen[name] {
			continue
		}
		seen[name] = true
		frag.Include = append(frag.Include, name)
		added++
	}
	if added == 0 {
		return 0, nil
	}

	if err := jsonio.WriteFile(fragPath, &frag); err != nil {
		return 0, fmt.Errorf("writing project fragment: %w", err)
	}
	return added, nil
}

func copyFile(src, dest string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0o644)
}
