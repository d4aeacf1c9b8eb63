// Package resources implements the MCP resource handlers.
//
// Resources expose read-only weave state under weave:// URIs so hosts
// can pull context without a tool round trip.
package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/avhern/weave/internal/hierarchy"
	"github.com/avhern/weave/internal/registry"
	"github.com/avhern/weave/internal/workstream"
)

// Handler manages weave resource endpoints.
type Handler struct {
	resolver    *hierarchy.Resolver
	registry    registry.Store
	workstreams workstream.Store
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(resolver *hierarchy.Resolver, reg registry.Store, ws workstream.Store) *Handler {
	return &Handler{resolver: resolver, registry: reg, workstreams: ws}
}

// ConfigResource returns the MCP resource definition for the effective
// configuration of the current working directory.
func (h *Handler) ConfigResource() mcp.Resource {
	return mcp.NewResource(
		"weave://config/effective",
		"Effective MCP Configuration",
		mcp.WithResourceDescription("The merged, interpolated MCP configuration for the current project"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleConfig returns the effective configuration as JSON.
func (h *Handler) HandleConfig(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}

	results, err := h.resolver.Discover(dir)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	reg, err := h.registry.Load()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	merged := hierarchy.Merge(results)
	built := hierarchy.Build(merged, reg, hierarchy.EnvPaths(results), false)
	return jsonResource(req.Params.URI, built.Output)
}

// WorkstreamResource returns the MCP resource definition for the active
// workstream.
func (h *Handler) WorkstreamResource() mcp.Resource {
	return mcp.NewResource(
		"weave://workstream/active",
		"Active Workstream",
		mcp.WithResourceDescription("The currently active workstream, its projects, and its rules"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleWorkstream returns the active workstream as JSON, or a notice
// when none is active.
func (h *Handler) HandleWorkstream(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	active, err := h.workstreams.Active()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	if active == nil {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "text/plain",
				Text:     "No workstream is active.",
			},
		}, nil
	}
	return jsonResource(req.Params.URI, active)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource carrying an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
