package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/avhern/weave/internal/smartsync"
)

// SyncActionTool handles the weave_sync_action MCP tool.
// It applies the user's response to a smart-sync suggestion or nudge.
type SyncActionTool struct {
	detector *smartsync.Detector
}

// NewSyncActionTool creates a SyncActionTool with the given detector.
func NewSyncActionTool(detector *smartsync.Detector) *SyncActionTool {
	return &SyncActionTool{detector: detector}
}

// Definition returns the MCP tool definition for registration.
func (t *SyncActionTool) Definition() mcp.Tool {
	return mcp.NewTool("weave_sync_action",
		mcp.WithDescription(
			"Apply the user's response to a smart-sync suggestion or nudge. "+
				"`switch` activates a workstream, `add` appends a project to "+
				"one, `always`/`never` save a per-project preference (always "+
				"also switches), `dismiss` suppresses a specific nudge key for "+
				"good.",
		),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Enum(smartsync.ActionSwitch, smartsync.ActionAdd, smartsync.ActionAlways, smartsync.ActionNever, smartsync.ActionDismiss),
			mcp.Description("The user's decision."),
		),
		mcp.WithString("workstream_id",
			mcp.Description("Target workstream. Required for switch, add, always, and never."),
		),
		mcp.WithString("project",
			mcp.Description("Project path. Required for add, always, and never."),
		),
		mcp.WithString("nudge_key",
			mcp.Description("Nudge key to suppress. Required for dismiss."),
		),
	)
}

// Handle processes the weave_sync_action tool call.
func (t *SyncActionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action, err := req.RequireString("action")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := t.detector.HandleAction(smartsync.Action{
		Type:         action,
		WorkstreamID: req.GetString("workstream_id", ""),
		Project:      req.GetString("project", ""),
		NudgeKey:     req.GetString("nudge_key", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	msg := fmt.Sprintf("Applied `%s`.", result.Applied)
	if result.Switched {
		msg += " The workstream is now active."
	}
	return mcp.NewToolResultText(msg), nil
}
