package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/avhern/weave/internal/workstream"
)

// WorkstreamTool handles the weave_workstream MCP tool.
// One tool covers the whole workstream lifecycle via an action parameter,
// so hosts see a single entry point for grouping projects.
type WorkstreamTool struct {
	store workstream.Store
}

// NewWorkstreamTool creates a WorkstreamTool with the given store.
func NewWorkstreamTool(store workstream.Store) *WorkstreamTool {
	return &WorkstreamTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *WorkstreamTool) Definition() mcp.Tool {
	return mcp.NewTool("weave_workstream",
		mcp.WithDescription(
			"Manage workstreams: named groups of related projects with "+
				"optional shared rules. Actions: `list`, `create` (name, "+
				"optional projects/rules), `update` (id, new name and/or "+
				"rules), `delete` (id), `add_project`/`remove_project` (id, "+
				"project), `switch` (id, makes it the active workstream), "+
				"`clear` (deactivates without deleting).",
		),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Enum("list", "create", "update", "delete", "add_project", "remove_project", "switch", "clear"),
			mcp.Description("What to do."),
		),
		mcp.WithString("id",
			mcp.Description("Workstream id (the slug shown by `list`). Required for every action except list and create."),
		),
		mcp.WithString("name",
			mcp.Description("Workstream name. Required for create; optional new name for update."),
		),
		mcp.WithString("projects",
			mcp.Description("Project paths for create, comma- or newline-separated."),
		),
		mcp.WithString("project",
			mcp.Description("Project path for add_project/remove_project."),
		),
		mcp.WithString("rules",
			mcp.Description("Free-form rules text shared by the workstream's projects. On update, an empty string clears the rules."),
		),
	)
}

// Handle processes the weave_workstream tool call.
func (t *WorkstreamTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action, err := req.RequireString("action")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	switch action {
	case "list":
		return t.list()
	case "create":
		name := req.GetString("name", "")
		projects := splitList(req.GetString("projects", ""))
		ws, err := t.store.Create(name, projects, req.GetString("rules", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"Created workstream **%s** (`%s`) with %d project(s).", ws.Name, ws.ID, len(ws.Projects))), nil
	case "update":
		id := req.GetString("id", "")
		if id == "" {
			return mcp.NewToolResultError("`id` is required for update"), nil
		}
		var name, rules *string
		if v := req.GetString("name", ""); v != "" {
			name = &v
		}
		// A present-but-empty rules argument clears the rules text, so
		// absence has to be detected on the raw argument map.
		if _, ok := req.GetArguments()["rules"]; ok {
			v := req.GetString("rules", "")
			rules = &v
		}
		ws, err := t.store.Update(id, name, rules)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Updated workstream **%s** (`%s`).", ws.Name, ws.ID)), nil
	case "delete":
		id := req.GetString("id", "")
		if id == "" {
			return mcp.NewToolResultError("`id` is required for delete"), nil
		}
		if err := t.store.Delete(id); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Deleted workstream `%s`.", id)), nil
	case "add_project", "remove_project":
		id := req.GetString("id", "")
		project := req.GetString("project", "")
		if id == "" || project == "" {
			return mcp.NewToolResultError("`id` and `project` are required"), nil
		}
		var ws *workstream.Workstream
		if action == "add_project" {
			ws, err = t.store.AddProject(id, project)
		} else {
			ws, err = t.store.RemoveProject(id, project)
		}
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"Workstream **%s** now has %d project(s).", ws.Name, len(ws.Projects))), nil
	case "switch":
		id := req.GetString("id", "")
		if id == "" {
			return mcp.NewToolResultError("`id` is required for switch"), nil
		}
		ws, err := t.store.SetActive(id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"Switched to workstream **%s**.\n\nRules:\n%s", ws.Name, orDash(ws.Rules))), nil
	case "clear":
		if err := t.store.ClearActive(); err != nil {
			return nil, err
		}
		return mcp.NewToolResultText("No workstream is active now."), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown action %q", action)), nil
	}
}

func (t *WorkstreamTool) list() (*mcp.CallToolResult, error) {
	f, err := t.store.Load()
	if err != nil {
		return nil, err
	}
	if len(f.Workstreams) == 0 {
		return mcp.NewToolResultText(
			"No workstreams yet. Create one with `action=create`, or run " +
				"`weave_activity_suggest` to see what your activity suggests."), nil
	}

	var b strings.Builder
	b.WriteString("# Workstreams\n\n")
	for _, ws := range f.Workstreams {
		marker := "  "
		if ws.ID == f.ActiveID {
			marker = "▶ "
		}
		fmt.Fprintf(&b, "%s**%s** (`%s`) — %d project(s)\n", marker, ws.Name, ws.ID, len(ws.Projects))
		for _, p := range ws.Projects {
			fmt.Fprintf(&b, "    - `%s`\n", p)
		}
	}
	if f.ActiveID == "" {
		b.WriteString("\nNo workstream is active.")
	}
	return mcp.NewToolResultText(b.String()), nil
}
