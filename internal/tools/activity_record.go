package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/avhern/weave/internal/activity"
)

// ActivityRecordTool handles the weave_activity_record MCP tool.
// It logs file touches into the activity store, which feeds both the
// workstream suggestions and smart-sync detection.
type ActivityRecordTool struct {
	store activity.Store
}

// NewActivityRecordTool creates an ActivityRecordTool with the given store.
func NewActivityRecordTool(store activity.Store) *ActivityRecordTool {
	return &ActivityRecordTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *ActivityRecordTool) Definition() mcp.Tool {
	return mcp.NewTool("weave_activity_record",
		mcp.WithDescription(
			"Record file activity. Each file is attributed to its project by "+
				"walking up to the nearest directory marker (.git or .claude). "+
				"Pass the returned `session_id` on subsequent calls to keep "+
				"appending to the same session; omit it to start a new one.",
		),
		mcp.WithString("files",
			mcp.Required(),
			mcp.Description("File paths that were touched, comma- or newline-separated."),
		),
		mcp.WithString("action",
			mcp.Description("What happened to the files: edit (default), create, delete, or read."),
		),
		mcp.WithString("session_id",
			mcp.Description("Session to append to. Omit to start a new session."),
		),
	)
}

// Handle processes the weave_activity_record tool call.
func (t *ActivityRecordTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("files")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	files := splitList(raw)
	if len(files) == 0 {
		return mcp.NewToolResultError("`files` must contain at least one path"), nil
	}
	action := req.GetString("action", "")
	sessionID := req.GetString("session_id", "")

	result, err := t.store.Record(files, action, sessionID)
	if err != nil {
		return nil, fmt.Errorf("recording activity: %w", err)
	}

	response := fmt.Sprintf(
		"Logged %d file(s).\n\n"+
			"**Session:** `%s`\n"+
			"**Projects in session:** %s\n\n"+
			"Pass `session_id=%s` on later calls to keep this session going.",
		result.FilesLogged, result.SessionID,
		orDash(strings.Join(result.Projects, ", ")),
		result.SessionID,
	)
	return mcp.NewToolResultText(response), nil
}
