package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/avhern/weave/internal/smartsync"
	"github.com/avhern/weave/internal/workstream"
)

// SyncDetectTool handles the weave_sync_detect MCP tool.
// It scores the current projects against the workstreams, optionally
// auto-switches, and reports any nudge the caller should surface.
type SyncDetectTool struct {
	detector    *smartsync.Detector
	workstreams workstream.Store
}

// NewSyncDetectTool creates a SyncDetectTool with its dependencies.
func NewSyncDetectTool(detector *smartsync.Detector, ws workstream.Store) *SyncDetectTool {
	return &SyncDetectTool{detector: detector, workstreams: ws}
}

// Definition returns the MCP tool definition for registration.
func (t *SyncDetectTool) Definition() mcp.Tool {
	return mcp.NewTool("weave_sync_detect",
		mcp.WithDescription(
			"Match the projects currently being worked on against the "+
				"workstreams. A confident match above the auto-switch threshold "+
				"activates that workstream immediately; a moderate match "+
				"returns a nudge to show the user. Saved always/never choices "+
				"take precedence over scoring. Respond to nudges with "+
				"`weave_sync_action`.",
		),
		mcp.WithString("projects",
			mcp.Required(),
			mcp.Description("Project paths currently in play, comma- or newline-separated."),
		),
	)
}

// Handle processes the weave_sync_detect tool call.
func (t *SyncDetectTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("projects")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	projects := splitList(raw)

	detection, err := t.detector.Detect(projects)
	if err != nil {
		return nil, fmt.Errorf("detecting workstream: %w", err)
	}

	var b strings.Builder
	switch {
	case detection.Suggestion == nil:
		fmt.Fprintf(&b, "No workstream match (%s).\n", detection.Reason)
	case detection.AutoSwitch:
		ws := detection.Suggestion.Workstream
		if _, err := t.detector.HandleAction(smartsync.Action{
			Type:         smartsync.ActionSwitch,
			WorkstreamID: ws.ID,
		}); err != nil {
			return nil, fmt.Errorf("auto-switching to %s: %w", ws.ID, err)
		}
		fmt.Fprintf(&b, "Auto-switched to **%s** (%d%% match, %s).\n",
			ws.Name, detection.Confidence, detection.Reason)
		if ws.Rules != "" {
			fmt.Fprintf(&b, "\nWorkstream rules:\n%s\n", ws.Rules)
		}
	default:
		fmt.Fprintf(&b, "Best match: **%s** (%d%% confidence, %s). Not confident enough to switch automatically.\n",
			detection.Suggestion.Workstream.Name, detection.Confidence, detection.Reason)
	}

	for _, alt := range detection.Alternatives {
		fmt.Fprintf(&b, "- alternative: %s (%d%%)\n", alt.Workstream.Name, alt.Confidence)
	}

	nudge, err := t.detector.CheckNudge(detection, projects)
	if err != nil {
		return nil, fmt.Errorf("checking nudges: %w", err)
	}
	if nudge != nil {
		fmt.Fprintf(&b, "\n## Nudge\n\n%s\n\n"+
			"Ask the user, then call `weave_sync_action` with their answer "+
			"(actions: switch, add, always, never, or dismiss with `nudge_key=%s`).\n",
			nudge.Message, nudge.Key)
	}

	return mcp.NewToolResultText(b.String()), nil
}
