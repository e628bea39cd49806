// Package console exposes the bot to an operator over MCP.
//
// Each tool follows the same pattern:
// - A struct with its dependencies injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() validates the request and returns a text result
//
// Business failures (unknown server, bad command line) come back as tool
// errors so the client can show them; only unexpected failures are returned
// as Go errors.
package console

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Gerardo115pp/Dexnet/internal/access"
	"github.com/Gerardo115pp/Dexnet/internal/dispatch"
	"github.com/Gerardo115pp/Dexnet/internal/domain"
	"github.com/Gerardo115pp/Dexnet/internal/journal"
)

// Executor runs command lines with operator rights.
type Executor interface {
	Execute(ctx context.Context, msg dispatch.Message, line string) (string, error)
}

// ServerLister reports the authorization state of every server.
type ServerLister interface {
	Snapshot() []access.ServerSummary
}

// History reads the command journal.
type History interface {
	Recent(ctx context.Context, serverID string, limit int) ([]journal.Entry, error)
}

// RegistryReader exposes the project and member registries.
type RegistryReader interface {
	Projects() []domain.Project
	AllMembers() map[string][]domain.TeamMember
}

// Deps holds the console's collaborators. History is nil when the journal
// is disabled.
type Deps struct {
	Executor Executor
	Servers  ServerLister
	History  History
	Registry RegistryReader
}

// NewServer creates the MCP server with every console tool and resource
// registered.
func NewServer(deps Deps, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"dexnet",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	// --- Tools ---

	commandTool := NewCommandTool(deps.Executor, deps.Servers)
	s.AddTool(commandTool.Definition(), commandTool.Handle)

	serversTool := NewServersTool(deps.Servers)
	s.AddTool(serversTool.Definition(), serversTool.Handle)

	historyTool := NewHistoryTool(deps.History)
	s.AddTool(historyTool.Definition(), historyTool.Handle)

	// --- Resources ---

	resources := NewResourceHandler(deps.Registry)
	s.AddResource(resources.ProjectsResource(), resources.HandleProjects)
	s.AddResource(resources.MembersResource(), resources.HandleMembers)

	return s
}

const instructions = "Operator console for the Dexnet chat bot. " +
	"Use dexnet_servers to find a server id, then dexnet_command to run any bot command " +
	"against that server without the chat's channel and admin checks. " +
	"dexnet_history shows what was run recently."

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}
