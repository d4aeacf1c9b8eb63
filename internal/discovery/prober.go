package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/avhern/weave/internal/registry"
)

// stdioProber spawns the server over stdio, performs the MCP handshake
// and lists its tools. The whole exchange is bounded by one timeout.
type stdioProber struct {
	timeout time.Duration
}

func (p *stdioProber) Probe(ctx context.Context, name string, spec registry.ServerSpec) ([]ToolInfo, error) {
	command, _ := spec["command"].(string)
	if command == "" {
		return nil, fmt.Errorf("server %q has no command: only stdio servers can be probed", name)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	c, err := client.NewStdioMCPClient(command, specEnv(spec), specArgs(spec)...)
	if err != nil {
		return nil, fmt.Errorf("starting server %q: %w", name, err)
	}
	defer c.Close()

	var initReq mcp.InitializeRequest
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "weave", Version: "0.1.0"}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		return nil, fmt.Errorf("initializing server %q: %w", name, err)
	}

	list, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("listing tools of server %q: %w", name, err)
	}

	tools := make([]ToolInfo, 0, len(list.Tools))
	for _, t := range list.Tools {
		tools = append(tools, ToolInfo{Name: t.Name, Description: t.Description})
	}
	return tools, nil
}
