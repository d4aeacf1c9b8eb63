package tools

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/avhern/weave/internal/hierarchy"
	"github.com/avhern/weave/internal/registry"
)

// ConfigApplyTool handles the weave_config_apply MCP tool.
// It resolves the hierarchy and writes the project's .mcp.json.
type ConfigApplyTool struct {
	resolver *hierarchy.Resolver
	registry registry.Store
}

// NewConfigApplyTool creates a ConfigApplyTool with its dependencies.
func NewConfigApplyTool(resolver *hierarchy.Resolver, reg registry.Store) *ConfigApplyTool {
	return &ConfigApplyTool{resolver: resolver, registry: reg}
}

// Definition returns the MCP tool definition for registration.
func (t *ConfigApplyTool) Definition() mcp.Tool {
	return mcp.NewTool("weave_config_apply",
		mcp.WithDescription(
			"Resolve the configuration hierarchy for a project and write the "+
				"effective configuration to its .mcp.json. Registry servers are "+
				"pulled in via include lists, inline servers override them, and "+
				"${VAR} tokens are interpolated from the hierarchy's .env chain "+
				"and the process environment. Fails if no hierarchy level "+
				"defines any configuration.",
		),
		mcp.WithString("project_dir",
			mcp.Description("Project directory to apply to. Defaults to the current working directory."),
		),
		mcp.WithBoolean("strict_env",
			mcp.Description("Resolve unknown ${VAR} tokens to empty strings and report them, instead of leaving the token literal."),
		),
	)
}

// Handle processes the weave_config_apply tool call.
func (t *ConfigApplyTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, err := projectDir(req)
	if err != nil {
		return nil, err
	}
	strict := req.GetBool("strict_env", false)

	reg, err := t.registry.Load()
	if err != nil {
		return nil, err
	}

	built, err := hierarchy.Apply(t.resolver, reg, dir, strict)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	names := make([]string, 0, len(built.Output.Servers))
	for name := range built.Output.Servers {
		names = append(names, name)
	}
	sort.Strings(names)

	response := fmt.Sprintf(
		"# Configuration Applied\n\n"+
			"**Wrote:** `%s`\n"+
			"**Servers (%d):** %s\n"+
			"%s%s",
		filepath.Join(dir, hierarchy.OutputFile),
		len(names), orDash(strings.Join(names, ", ")),
		warningSection("Missing registry entries", built.MissingIncludes),
		warningSection("Unresolved variables", built.UnresolvedVars),
	)
	return mcp.NewToolResultText(response), nil
}
