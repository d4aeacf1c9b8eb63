package hierarchy

import (
	"fmt"
	"path/filepath"

	"github.com/avhern/weave/internal/envfile"
	"github.com/avhern/weave/internal/jsonio"
	"github.com/avhern/weave/internal/registry"
)

// Output is the final merged+interpolated configuration written to a
// project's .mcp.json.
type Output struct {
	Servers map[string]registry.ServerSpec `json:"mcpServers"`
}

// BuildResult reports how the effective configuration was assembled.
type BuildResult struct {
	Output *Output
	// MissingIncludes lists include names that were not found in the
	// registry. They are skipped, not fatal.
	MissingIncludes []string
	// UnresolvedVars lists ${NAME} tokens that had no value. Only
	// populated in strict mode, where the token is replaced with "".
	UnresolvedVars []string
}

// Build assembles the effective configuration: registry servers pulled in
// by the merged include list (in order), overlaid with inline servers
// (inline wins on a name collision), then interpolated against the
// hierarchy's .env chain and the process environment.
func Build(merged *Merged, reg *registry.Registry, envPaths []string, strict bool) *BuildResult {
	result := &BuildResult{
		Output: &Output{Servers: map[string]registry.ServerSpec{}},
	}

	for _, name := range merged.Include {
		spec, ok := reg.Lookup(name)
		if !ok {
			result.MissingIncludes = append(result.MissingIncludes, name)
			continue
		}
		result.Output.Servers[name] = spec
	}
	for name, spec := range merged.Servers {
		result.Output.Servers[name] = spec
	}

	resolve := envfile.Lookup(envfile.Merge(envPaths))
	for name, spec := range result.Output.Servers {
		interpolated, warnings := envfile.Interpolate(map[string]any(spec), resolve, strict)
		result.Output.Servers[name] = registry.ServerSpec(interpolated.(map[string]any))
		result.UnresolvedVars = append(result.UnresolvedVars, warnings...)
	}

	return result
}

// Apply resolves the hierarchy above projectDir and writes the effective
// configuration to <projectDir>/.mcp.json. Unlike Discover, an empty
// hierarchy is fatal here: there is nothing to generate output from.
func Apply(r *Resolver, reg *registry.Registry, projectDir string, strict bool) (*BuildResult, error) {
	results, err := r.Discover(projectDir)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no configuration found in the hierarchy above %s", projectDir)
	}

	merged := Merge(results)
	built := Build(merged, reg, EnvPaths(results), strict)

	outPath := filepath.Join(projectDir, OutputFile)
	if err := jsonio.WriteFile(outPath, built.Output); err != nil {
		return nil, fmt.Errorf("writing %s: %w", outPath, err)
	}
	return built, nil
}
