package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/avhern/weave/internal/activity"
	"github.com/avhern/weave/internal/workstream"
)

// ActivitySuggestTool handles the weave_activity_suggest MCP tool.
// It proposes workstreams from project sets that keep appearing together
// in recorded sessions.
type ActivitySuggestTool struct {
	activity    activity.Store
	workstreams workstream.Store
}

// NewActivitySuggestTool creates an ActivitySuggestTool with its dependencies.
func NewActivitySuggestTool(a activity.Store, ws workstream.Store) *ActivitySuggestTool {
	return &ActivitySuggestTool{activity: a, workstreams: ws}
}

// Definition returns the MCP tool definition for registration.
func (t *ActivitySuggestTool) Definition() mcp.Tool {
	return mcp.NewTool("weave_activity_suggest",
		mcp.WithDescription(
			"Suggest new workstreams from recorded activity. Project sets "+
				"touched together in enough sessions are proposed, unless an "+
				"existing workstream already covers the whole set. Create an "+
				"accepted suggestion with `weave_workstream action=create`.",
		),
	)
}

// Handle processes the weave_activity_suggest tool call.
func (t *ActivitySuggestTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f, err := t.workstreams.Load()
	if err != nil {
		return nil, err
	}
	existing := make([][]string, 0, len(f.Workstreams))
	for _, ws := range f.Workstreams {
		existing = append(existing, ws.Projects)
	}

	suggestions, err := t.activity.SuggestWorkstreams(existing)
	if err != nil {
		return nil, fmt.Errorf("suggesting workstreams: %w", err)
	}
	if len(suggestions) == 0 {
		return mcp.NewToolResultText(
			"No workstream suggestions yet. Suggestions appear once the same " +
				"set of projects has been touched together in enough sessions."), nil
	}

	var b strings.Builder
	b.WriteString("# Workstream Suggestions\n\n")
	for i, s := range suggestions {
		fmt.Fprintf(&b, "%d. **%s** — seen together in %d sessions\n",
			i+1, strings.Join(s.Projects, " + "), s.Sessions)
	}
	return mcp.NewToolResultText(b.String()), nil
}
