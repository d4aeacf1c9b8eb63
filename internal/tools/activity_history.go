package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/avhern/weave/internal/activity"
)

// ActivityHistoryTool handles the weave_activity_history MCP tool.
// It queries the sqlite archive of sessions pruned from the live log.
// The archive is optional: the tool degrades to a notice when it failed
// to initialize.
type ActivityHistoryTool struct {
	archive *activity.Archive
}

// NewActivityHistoryTool creates an ActivityHistoryTool. A nil archive is
// allowed and handled at call time.
func NewActivityHistoryTool(archive *activity.Archive) *ActivityHistoryTool {
	return &ActivityHistoryTool{archive: archive}
}

// Definition returns the MCP tool definition for registration.
func (t *ActivityHistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("weave_activity_history",
		mcp.WithDescription(
			"Query long-horizon activity history. The live log keeps only "+
				"the most recent sessions; older ones are archived and can be "+
				"searched here. Omit `project` to list the projects present in "+
				"the archive.",
		),
		mcp.WithString("project",
			mcp.Description("Project path to show archived sessions for."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum sessions to return. Defaults to 20."),
		),
	)
}

// Handle processes the weave_activity_history tool call.
func (t *ActivityHistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.archive == nil {
		return mcp.NewToolResultError("The activity archive is unavailable (it failed to open at startup). Recent activity is still tracked in the live log."), nil
	}

	project := req.GetString("project", "")
	if project == "" {
		projects, err := t.archive.Projects()
		if err != nil {
			return nil, fmt.Errorf("listing archived projects: %w", err)
		}
		if len(projects) == 0 {
			return mcp.NewToolResultText("The archive is empty. Sessions land here once the live log's retention cap prunes them."), nil
		}
		var b strings.Builder
		b.WriteString("# Archived Projects\n\n")
		for _, p := range projects {
			fmt.Fprintf(&b, "- `%s`\n", p)
		}
		b.WriteString("\nPass `project` to see a project's archived sessions.")
		return mcp.NewToolResultText(b.String()), nil
	}

	limit := req.GetInt("limit", 0)
	sessions, err := t.archive.ProjectHistory(project, limit)
	if err != nil {
		return nil, fmt.Errorf("querying archive for %s: %w", project, err)
	}
	if len(sessions) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No archived sessions for `%s`.", project)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Archived Sessions for %s\n\n", project)
	b.WriteString("| Started | Files | Projects |\n")
	b.WriteString("|---------|-------|----------|\n")
	for _, s := range sessions {
		fmt.Fprintf(&b, "| %s | %d | %s |\n",
			s.StartedAt, s.FileCount, strings.Join(s.Projects, ", "))
	}
	return mcp.NewToolResultText(b.String()), nil
}
