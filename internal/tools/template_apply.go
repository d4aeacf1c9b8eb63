package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/avhern/weave/internal/template"
)

// TemplateApplyTool handles the weave_template_apply MCP tool.
// It resolves a template's include chain and applies it to a project.
type TemplateApplyTool struct {
	resolver *template.Resolver
}

// NewTemplateApplyTool creates a TemplateApplyTool with the given resolver.
func NewTemplateApplyTool(resolver *template.Resolver) *TemplateApplyTool {
	return &TemplateApplyTool{resolver: resolver}
}

// Definition returns the MCP tool definition for registration.
func (t *TemplateApplyTool) Definition() mcp.Tool {
	return mcp.NewTool("weave_template_apply",
		mcp.WithDescription(
			"Apply a named template bundle to a project. The template's "+
				"include chain is resolved base-first (each include precedes its "+
				"dependents, cycles are safe), its rules and commands are copied "+
				"into the project's .claude directory, and its mcpDefaults are "+
				"merged into the project fragment's include list. Re-applying is "+
				"idempotent: existing files are never overwritten unless `force` "+
				"is set.",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Template name, e.g. `react` or `python`. Searched across frameworks, languages, and composites."),
		),
		mcp.WithString("project_dir",
			mcp.Description("Project directory to apply to. Defaults to the current working directory."),
		),
		mcp.WithBoolean("force",
			mcp.Description("Overwrite files that already exist in the project."),
		),
	)
}

// Handle processes the weave_template_apply tool call.
func (t *TemplateApplyTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dir, err := projectDir(req)
	if err != nil {
		return nil, err
	}
	force := req.GetBool("force", false)

	chain, err := t.resolver.Resolve(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := template.Apply(chain, dir, force)
	if err != nil {
		return nil, fmt.Errorf("applying template %q: %w", name, err)
	}

	chainNames := make([]string, 0, len(chain))
	for _, node := range chain {
		chainNames = append(chainNames, node.Name)
	}

	response := fmt.Sprintf(
		"# Template Applied\n\n"+
			"**Template:** %s\n"+
			"**Chain (base first):** %s\n"+
			"**Project:** %s\n\n"+
			"- Files copied: %d\n"+
			"- Files skipped (already present): %d\n"+
			"- MCP defaults added to fragment: %d\n",
		name, strings.Join(chainNames, " → "), dir,
		result.Copied, result.Skipped, result.Included,
	)
	return mcp.NewToolResultText(response), nil
}
