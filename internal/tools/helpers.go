// Package tools implements the MCP tool handlers.
//
// Each file holds one tool: a struct that receives its dependencies at
// construction and exposes Definition/Handle for registration. Tools
// depend on the store interfaces, not on concrete file stores.
package tools

import (
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// projectDir resolves the project directory argument, defaulting to the
// process working directory so tools work when the host launches weave
// inside the project.
func projectDir(req mcp.CallToolRequest) (string, error) {
	if dir := req.GetString("project_dir", ""); dir != "" {
		return dir, nil
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	return dir, nil
}

// splitList splits a comma- or newline-separated argument into trimmed,
// non-empty entries.
func splitList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if t := strings.TrimSpace(f); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// warningSection renders a markdown warnings block, or nothing when the
// list is empty.
func warningSection(title string, warnings []string) string {
	if len(warnings) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "\n## %s\n\n", title)
	for _, w := range warnings {
		fmt.Fprintf(&b, "- %s\n", w)
	}
	return b.String()
}
