package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/avhern/weave/internal/discovery"
	"github.com/avhern/weave/internal/hierarchy"
	"github.com/avhern/weave/internal/registry"
)

// DiscoverTool handles the weave_discover_tools MCP tool.
// It resolves a project's effective configuration and probes each server
// for the tools it exposes.
type DiscoverTool struct {
	resolver   *hierarchy.Resolver
	registry   registry.Store
	discoverer *discovery.Discoverer
}

// NewDiscoverTool creates a DiscoverTool with its dependencies.
func NewDiscoverTool(resolver *hierarchy.Resolver, reg registry.Store, d *discovery.Discoverer) *DiscoverTool {
	return &DiscoverTool{resolver: resolver, registry: reg, discoverer: d}
}

// Definition returns the MCP tool definition for registration.
func (t *DiscoverTool) Definition() mcp.Tool {
	return mcp.NewTool("weave_discover_tools",
		mcp.WithDescription(
			"List the tools exposed by every MCP server in a project's "+
				"effective configuration. Each stdio server is spawned, asked "+
				"for its tool list, and shut down. Results are cached, so "+
				"repeated calls are cheap. Servers that fail to start are "+
				"reported, not fatal.",
		),
		mcp.WithString("project_dir",
			mcp.Description("Project directory to resolve. Defaults to the current working directory."),
		),
	)
}

// Handle processes the weave_discover_tools tool call.
func (t *DiscoverTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, err := projectDir(req)
	if err != nil {
		return nil, err
	}

	results, err := t.resolver.Discover(dir)
	if err != nil {
		return nil, fmt.Errorf("discovering hierarchy: %w", err)
	}
	if len(results) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("no configuration found in the hierarchy above %s", dir)), nil
	}

	reg, err := t.registry.Load()
	if err != nil {
		return nil, err
	}
	merged := hierarchy.Merge(results)
	built := hierarchy.Build(merged, reg, hierarchy.EnvPaths(results), false)
	if len(built.Output.Servers) == 0 {
		return mcp.NewToolResultText("The effective configuration defines no servers."), nil
	}

	probed := t.discoverer.Discover(ctx, built.Output.Servers)

	var b strings.Builder
	b.WriteString("# Available Tools\n")
	for _, server := range probed {
		fmt.Fprintf(&b, "\n## %s\n\n", server.Server)
		if server.Err != "" {
			fmt.Fprintf(&b, "Probe failed: %s\n", server.Err)
			continue
		}
		if len(server.Tools) == 0 {
			b.WriteString("No tools advertised.\n")
			continue
		}
		for _, tool := range server.Tools {
			line := fmt.Sprintf("- **%s**", tool.Name)
			if tool.Description != "" {
				line += ": " + firstLine(tool.Description)
			}
			b.WriteString(line + "\n")
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
