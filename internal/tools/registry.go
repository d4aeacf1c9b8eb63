package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/avhern/weave/internal/registry"
)

// RegistryTool handles the weave_registry MCP tool.
// It manages the named server registry that hierarchy include lists
// resolve against.
type RegistryTool struct {
	store registry.Store
}

// NewRegistryTool creates a RegistryTool with the given store.
func NewRegistryTool(store registry.Store) *RegistryTool {
	return &RegistryTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *RegistryTool) Definition() mcp.Tool {
	return mcp.NewTool("weave_registry",
		mcp.WithDescription(
			"Manage the named MCP server registry. Fragments reference "+
				"registry entries by name via their include lists. Actions: "+
				"`list`, `add` (name + spec JSON), `remove` (name).",
		),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Enum("list", "add", "remove"),
			mcp.Description("What to do."),
		),
		mcp.WithString("name",
			mcp.Description("Server name. Required for add and remove."),
		),
		mcp.WithString("spec",
			mcp.Description("Server spec as a JSON object, e.g. {\"command\": \"npx\", \"args\": [\"-y\", \"@modelcontextprotocol/server-github\"]}. Required for add."),
		),
	)
}

// Handle processes the weave_registry tool call.
func (t *RegistryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action, err := req.RequireString("action")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	reg, err := t.store.Load()
	if err != nil {
		return nil, err
	}

	switch action {
	case "list":
		names := reg.Names()
		if len(names) == 0 {
			return mcp.NewToolResultText("The registry is empty. Add servers with `action=add`."), nil
		}
		var b strings.Builder
		b.WriteString("# Registered Servers\n\n")
		for _, name := range names {
			spec, _ := reg.Lookup(name)
			command, _ := spec["command"].(string)
			if command == "" {
				if url, ok := spec["url"].(string); ok {
					command = url
				}
			}
			fmt.Fprintf(&b, "- **%s**: `%s`\n", name, orDash(command))
		}
		return mcp.NewToolResultText(b.String()), nil

	case "add":
		name := req.GetString("name", "")
		rawSpec := req.GetString("spec", "")
		if name == "" || rawSpec == "" {
			return mcp.NewToolResultError("`name` and `spec` are required for add"), nil
		}
		var spec registry.ServerSpec
		if err := json.Unmarshal([]byte(rawSpec), &spec); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("`spec` is not a valid JSON object: %v", err)), nil
		}
		if err := reg.Add(name, spec); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := t.store.Save(reg); err != nil {
			return nil, fmt.Errorf("saving registry: %w", err)
		}
		return mcp.NewToolResultText(fmt.Sprintf("Registered server **%s**.", name)), nil

	case "remove":
		name := req.GetString("name", "")
		if name == "" {
			return mcp.NewToolResultError("`name` is required for remove"), nil
		}
		if err := reg.Remove(name); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := t.store.Save(reg); err != nil {
			return nil, fmt.Errorf("saving registry: %w", err)
		}
		return mcp.NewToolResultText(fmt.Sprintf("Removed server **%s** from the registry.", name)), nil

	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown action %q", action)), nil
	}
}
