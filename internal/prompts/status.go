// Package prompts implements the MCP prompt handlers.
package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the weave-status MCP prompt.
// It instructs the AI to gather and present the current weave state.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("weave-status",
		mcp.WithPromptDescription(
			"Show the current weave state: the effective MCP configuration "+
				"for this project, the active workstream, and any pending "+
				"suggestions.",
		),
	)
}

// Handle processes the weave-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Weave Status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please give me a weave status overview:\n\n" +
						"1. Run `weave_config_show` for this project and summarize which hierarchy levels contribute and which servers end up in the effective configuration\n" +
						"2. Run `weave_workstream action=list` and tell me which workstream is active\n" +
						"3. Run `weave_activity_suggest` and mention any suggested workstreams\n" +
						"4. Point out anything that needs attention: missing registry entries, unresolved variables, or malformed fragments",
				),
			},
		},
	}, nil
}
