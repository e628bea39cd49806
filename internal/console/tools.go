package console

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Gerardo115pp/Dexnet/internal/access"
	"github.com/Gerardo115pp/Dexnet/internal/dispatch"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// ─── CommandTool ────────────────────────────────────────────────────────────

// CommandTool handles the dexnet_command MCP tool.
type CommandTool struct {
	exec    Executor
	servers ServerLister
}

// NewCommandTool creates a CommandTool.
func NewCommandTool(exec Executor, servers ServerLister) *CommandTool {
	return &CommandTool{exec: exec, servers: servers}
}

// Definition returns the MCP tool definition for dexnet_command.
func (t *CommandTool) Definition() mcp.Tool {
	return mcp.NewTool("dexnet_command",
		mcp.WithDescription(
			"Run one bot command against a server, as an operator. The line is what would follow "+
				"the bot prefix in chat, e.g. 'list-projects' or 'create-task 123 \"Name\" \"Desc\" -p 2'. "+
				"Channel enablement and admin checks are skipped.",
		),
		mcp.WithString("server_id",
			mcp.Required(),
			mcp.Description("Server to run the command against (from dexnet_servers)"),
		),
		mcp.WithString("line",
			mcp.Required(),
			mcp.Description("Command line without the bot prefix"),
		),
		mcp.WithString("channel_id",
			mcp.Description("Channel the command is attributed to (optional)"),
		),
		mcp.WithString("mention",
			mcp.Description("Chat username standing in for the first @mention, for create-member"),
		),
	)
}

// Handle processes the dexnet_command tool call.
func (t *CommandTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	serverID := strings.TrimSpace(req.GetString("server_id", ""))
	line := strings.TrimSpace(req.GetString("line", ""))
	if serverID == "" {
		return mcp.NewToolResultError("'server_id' is required"), nil
	}
	if line == "" {
		return mcp.NewToolResultError("'line' is required"), nil
	}

	summary, ok := findServer(t.servers.Snapshot(), serverID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("server %s is not known", serverID)), nil
	}

	msg := dispatch.Message{
		ServerID:   summary.ID,
		ServerName: summary.Name,
		ChannelID:  req.GetString("channel_id", ""),
	}
	for _, ch := range summary.Channels {
		if ch.ID == msg.ChannelID {
			msg.ChannelName = ch.Name
		}
	}
	if mention := req.GetString("mention", ""); mention != "" {
		msg.Mentions = []dispatch.User{{Name: mention}}
	}

	out, err := t.exec.Execute(ctx, msg, line)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if out == "" {
		out = "(no output)"
	}
	return mcp.NewToolResultText(out), nil
}

func findServer(all []access.ServerSummary, id string) (access.ServerSummary, bool) {
	for _, s := range all {
		if s.ID == id {
			return s, true
		}
	}
	return access.ServerSummary{}, false
}

// ─── ServersTool ────────────────────────────────────────────────────────────

// ServersTool handles the dexnet_servers MCP tool.
type ServersTool struct {
	servers ServerLister
}

// NewServersTool creates a ServersTool.
func NewServersTool(servers ServerLister) *ServersTool {
	return &ServersTool{servers: servers}
}

// Definition returns the MCP tool definition for dexnet_servers.
func (t *ServersTool) Definition() mcp.Tool {
	return mcp.NewTool("dexnet_servers",
		mcp.WithDescription("List known servers with their channels, enablement state, admins and saved task lists."),
	)
}

// Handle processes the dexnet_servers tool call.
func (t *ServersTool) Handle(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(t.servers.Snapshot(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling servers: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// ─── HistoryTool ────────────────────────────────────────────────────────────

// HistoryTool handles the dexnet_history MCP tool.
type HistoryTool struct {
	history History
}

// NewHistoryTool creates a HistoryTool. A nil history reports the journal
// as disabled.
func NewHistoryTool(history History) *HistoryTool {
	return &HistoryTool{history: history}
}

// Definition returns the MCP tool definition for dexnet_history.
func (t *HistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("dexnet_history",
		mcp.WithDescription("Show the latest journal entries, newest first, optionally for one server."),
		mcp.WithString("server_id",
			mcp.Description("Only entries of this server (default: all servers)"),
		),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Number of entries (default: %d, max: %d)", defaultHistoryLimit, maxHistoryLimit)),
		),
	)
}

// Handle processes the dexnet_history tool call.
func (t *HistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.history == nil {
		return mcp.NewToolResultError("the command journal is disabled"), nil
	}
	limit := intArg(req, "limit", defaultHistoryLimit)
	if limit < 1 || limit > maxHistoryLimit {
		return mcp.NewToolResultError(fmt.Sprintf("'limit' must be between 1 and %d", maxHistoryLimit)), nil
	}

	entries, err := t.history.Recent(ctx, req.GetString("server_id", ""), limit)
	if err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("No commands recorded yet."), nil
	}

	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s [%s] server=%s channel=%s author=%s command=%s",
			e.At, e.Outcome, e.ServerID, e.ChannelID, e.AuthorName, orDash(e.Command))
		if e.Detail != "" {
			fmt.Fprintf(&b, " detail=%q", e.Detail)
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
