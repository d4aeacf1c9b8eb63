// Package registry manages the named MCP server registry.
//
// The registry maps server names to their specs. Hierarchy fragments pull
// servers in by name via their include lists; the apply operation resolves
// those names here.
package registry

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/avhern/weave/internal/jsonio"
)

// ServerSpec is one MCP server definition. The shape is free-form JSON
// (command/args/env for stdio servers, url for remote ones) — weave only
// requires a valid JSON object and interpolates string values inside it.
type ServerSpec map[string]any

// Registry holds the named server specs.
type Registry struct {
	Servers map[string]ServerSpec `json:"mcpServers"`
}

// Store defines registry persistence. Abstracted for testability.
type Store interface {
	Load() (*Registry, error)
	Save(*Registry) error
}

// FileStore implements Store against a registry.json file.
type FileStore struct {
	path string
}

// NewFileStore creates a registry store backed by the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the registry. A missing file yields an empty registry, not an
// error — a fresh install simply has no named servers yet.
func (fs *FileStore) Load() (*Registry, error) {
	var reg Registry
	if err := jsonio.ReadFile(fs.path, &reg); err != nil {
		if os.IsNotExist(err) {
			return &Registry{Servers: map[string]ServerSpec{}}, nil
		}
		return nil, fmt.Errorf("loading registry: %w", err)
	}
	if reg.Servers == nil {
		reg.Servers = map[string]ServerSpec{}
	}
	return &reg, nil
}

// Save writes the registry back to disk.
func (fs *FileStore) Save(reg *Registry) error {
	return jsonio.WriteFile(fs.path, reg)
}

// Lookup returns the spec for a name, if present.
func (r *Registry) Lookup(name string) (ServerSpec, bool) {
	spec, ok := r.Servers[name]
	return spec, ok
}

// Names returns all registered server names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Servers))
	for name := range r.Servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Add registers a server spec under name. The name is required.
func (r *Registry) Add(name string, spec ServerSpec) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("server name is required")
	}
	if r.Servers == nil {
		r.Servers = map[string]ServerSpec{}
	}
	r.Servers[name] = spec
	return nil
}

// Remove deletes a named server. Returns an error if it doesn't exist.
func (r *Registry) Remove(name string) error {
	if _, ok := r.Servers[name]; !ok {
		return fmt.Errorf("server %q not found in registry", name)
	}
	delete(r.Servers, name)
	return nil
}
