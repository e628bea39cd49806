package console

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// Resource URIs.
const (
	ProjectsURI = "dexnet://projects"
	MembersURI  = "dexnet://members"
)

// ResourceHandler serves the registries as read-only JSON resources.
type ResourceHandler struct {
	registry RegistryReader
}

// NewResourceHandler creates a ResourceHandler.
func NewResourceHandler(registry RegistryReader) *ResourceHandler {
	return &ResourceHandler{registry: registry}
}

// ProjectsResource returns the MCP resource definition for the projects.
func (h *ResourceHandler) ProjectsResource() mcp.Resource {
	return mcp.NewResource(
		ProjectsURI,
		"Dexnet Projects",
		mcp.WithResourceDescription("Registered projects ordered by id, with their task list, repository and assignees"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleProjects returns the projects as JSON.
func (h *ResourceHandler) HandleProjects(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(req.Params.URI, h.registry.Projects())
}

// MembersResource returns the MCP resource definition for the team members.
func (h *ResourceHandler) MembersResource() mcp.Resource {
	return mcp.NewResource(
		MembersURI,
		"Dexnet Team Members",
		mcp.WithResourceDescription("Team members keyed by server id"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleMembers returns the team members as JSON.
func (h *ResourceHandler) HandleMembers(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(req.Params.URI, h.registry.AllMembers())
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
