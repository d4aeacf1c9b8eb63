package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// SetupPrompt handles the weave-setup MCP prompt.
// It walks the AI through configuring a fresh project.
type SetupPrompt struct{}

// NewSetupPrompt creates a SetupPrompt.
func NewSetupPrompt() *SetupPrompt {
	return &SetupPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *SetupPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("weave-setup",
		mcp.WithPromptDescription(
			"Set up weave configuration for this project: pick a template, "+
				"wire registry servers, and generate the project's .mcp.json.",
		),
	)
}

// Handle processes the weave-setup prompt request.
func (p *SetupPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Weave Project Setup",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Help me set up weave for this project:\n\n" +
						"1. Run `weave_template_list` and ask me which template fits this project (look at the codebase to suggest one)\n" +
						"2. Apply my choice with `weave_template_apply`\n" +
						"3. Run `weave_registry action=list` and ask whether I want any additional servers in this project's include list\n" +
						"4. Finish with `weave_config_apply` and summarize the resulting .mcp.json\n\n" +
						"If any ${VAR} tokens stay unresolved, tell me which .env file to put them in.",
				),
			},
		},
	}, nil
}
