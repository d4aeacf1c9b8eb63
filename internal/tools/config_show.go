package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/avhern/weave/internal/hierarchy"
	"github.com/avhern/weave/internal/registry"
)

// ConfigShowTool handles the weave_config_show MCP tool.
// It resolves the hierarchy for a project and previews the effective
// configuration without writing anything.
type ConfigShowTool struct {
	resolver *hierarchy.Resolver
	registry registry.Store
}

// NewConfigShowTool creates a ConfigShowTool with its dependencies.
func NewConfigShowTool(resolver *hierarchy.Resolver, reg registry.Store) *ConfigShowTool {
	return &ConfigShowTool{resolver: resolver, registry: reg}
}

// Definition returns the MCP tool definition for registration.
func (t *ConfigShowTool) Definition() mcp.Tool {
	return mcp.NewTool("weave_config_show",
		mcp.WithDescription(
			"Preview the effective MCP configuration for a project without "+
				"writing it. Shows every hierarchy level that contributes, the "+
				"merged include list, the resolved servers, and any warnings "+
				"(missing registry entries, unresolved ${VAR} tokens, malformed "+
				"fragments).",
		),
		mcp.WithString("project_dir",
			mcp.Description("Project directory to resolve. Defaults to the current working directory."),
		),
		mcp.WithBoolean("strict_env",
			mcp.Description("Resolve unknown ${VAR} tokens to empty strings and report them, instead of leaving the token literal."),
		),
	)
}

// Handle processes the weave_config_show tool call.
func (t *ConfigShowTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, err := projectDir(req)
	if err != nil {
		return nil, err
	}
	strict := req.GetBool("strict_env", false)

	results, err := t.resolver.Discover(dir)
	if err != nil {
		return nil, fmt.Errorf("discovering hierarchy: %w", err)
	}
	if len(results) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf(
			"No configuration found in the hierarchy above %s.\n"+
				"Create a `.claude/mcps.json` fragment in the project or any ancestor directory.", dir)), nil
	}

	reg, err := t.registry.Load()
	if err != nil {
		return nil, err
	}

	merged := hierarchy.Merge(results)
	built := hierarchy.Build(merged, reg, hierarchy.EnvPaths(results), strict)

	var levels strings.Builder
	var malformed []string
	for _, res := range results {
		marker := "ok"
		if res.Err != nil {
			marker = "malformed (skipped)"
			malformed = append(malformed, fmt.Sprintf("%s: %v", res.Path, res.Err))
		}
		fmt.Fprintf(&levels, "- `%s` — %s\n", res.Path, marker)
	}

	output, err := json.MarshalIndent(built.Output, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling effective config: %w", err)
	}

	response := fmt.Sprintf(
		"# Effective Configuration\n\n"+
			"**Project:** %s\n"+
			"**Levels (root first):**\n%s\n"+
			"**Includes:** %s\n"+
			"**Template:** %s\n\n"+
			"```json\n%s\n```\n"+
			"%s%s%s",
		dir,
		levels.String(),
		orDash(strings.Join(merged.Include, ", ")),
		orDash(merged.Template),
		output,
		warningSection("Malformed fragments", malformed),
		warningSection("Missing registry entries", built.MissingIncludes),
		warningSection("Unresolved variables", built.UnresolvedVars),
	)
	return mcp.NewToolResultText(response), nil
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
