package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/avhern/weave/internal/template"
)

// TemplateListTool handles the weave_template_list MCP tool.
type TemplateListTool struct {
	resolver *template.Resolver
}

// NewTemplateListTool creates a TemplateListTool with the given resolver.
func NewTemplateListTool(resolver *template.Resolver) *TemplateListTool {
	return &TemplateListTool{resolver: resolver}
}

// Definition returns the MCP tool definition for registration.
func (t *TemplateListTool) Definition() mcp.Tool {
	return mcp.NewTool("weave_template_list",
		mcp.WithDescription(
			"List the installed template bundles grouped by category "+
				"(frameworks, languages, composites), with their descriptions "+
				"and include chains.",
		),
	)
}

// Handle processes the weave_template_list tool call.
func (t *TemplateListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	byCategory := t.resolver.List()

	total := 0
	var b strings.Builder
	b.WriteString("# Installed Templates\n")
	for _, category := range template.Categories {
		nodes := byCategory[category]
		if len(nodes) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n", category)
		for _, node := range nodes {
			total++
			line := fmt.Sprintf("- **%s**", node.Name)
			if node.Manifest.Description != "" {
				line += ": " + node.Manifest.Description
			}
			if len(node.Manifest.Includes) > 0 {
				line += fmt.Sprintf(" (includes: %s)", strings.Join(node.Manifest.Includes, ", "))
			}
			b.WriteString(line + "\n")
		}
	}

	if total == 0 {
		return mcp.NewToolResultText("No templates installed. Add template bundles under the install's `templates/` directory."), nil
	}
	return mcp.NewToolResultText(b.String()), nil
}
