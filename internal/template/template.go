// Package template resolves named template bundles and applies them to
// projects.
//
// Templates live under <install>/templates/{frameworks,languages,composites}
// and form a directed graph via their manifest include lists. The graph may
// contain cycles and diamonds; resolution visits each template at most once
// and always terminates.
package template

import (
	"fmt"
	"path/filepath"

	"github.com/avhern/weave/internal/jsonio"
)

// ManifestFile is the manifest filename inside a template directory.
const ManifestFile = "template.json"

// Categories are the template groupings searched in order when locating
// a name.
var Categories = []string{"frameworks", "languages", "composites"}

// Manifest is the template.json contents.
type Manifest struct {
	Description string   `json:"description,omitempty"`
	Includes    []string `json:"includes,omitempty"`
	MCPDefaults []string `json:"mcpDefaults,omitempty"`
}

// Node is a located template: its directory plus parsed manifest.
type Node struct {
	Name     string
	Category string
	Dir      string
	Manifest Manifest
}

// ManifestPath returns the manifest file path, which keys the visited set
// during resolution.
func (n Node) ManifestPath() string {
	return filepath.Join(n.Dir, ManifestFile)
}

// Resolver locates templates under a templates root directory.
type Resolver struct {
	root string
}

// NewResolver creates a template resolver over the given templates root.
func NewResolver(root string) *Resolver {
	return &Resolver{root: root}
}

// Locate finds a template by name, searching each category in order.
func (r *Resolver) Locate(name string) (Node, error) {
	for _, category := range Categories {
		dir := filepath.Join(r.root, category, name)
		manifestPath := filepath.Join(dir, ManifestFile)
		if !jsonio.Exists(manifestPath) {
			continue
		}
		var manifest Manifest
		if err := jsonio.ReadFile(manifestPath, &manifest); err != nil {
			// A malformed manifest is treated as absent; keep searching
			// other categories for a usable template of the same name.
			continue
		}
		return Node{Name: name, Category: category, Dir: dir, Manifest: manifest}, nil
	}
	return Node{}, fmt.Errorf("template %q not found", name)
}

// List returns all available templates grouped by category.
func (r *Resolver) List() map[string][]Node {
	out := make(map[string][]Node)
	for _, category := range Categories {
		entries, err := filepath.Glob(filepath.Join(r.root, category, "*", ManifestFile))
		if err != nil {
			continue
		}
		for _, manifestPath := range entries {
			dir := filepath.Dir(manifestPath)
			var manifest Manifest
			if err := jsonio.ReadFile(manifestPath, &manifest); err != nil {
				continue
			}
			out[category] = append(out[category], Node{
				Name:     filepath.Base(dir),
				Category: category,
				Dir:      dir,
				Manifest: manifest,
			})
		}
	}
	return out
}
