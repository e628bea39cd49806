// Package server wires every component and creates the application.
//
// This is the composition root: it creates concrete implementations and
// injects them into the dispatcher, the command handlers and the operator
// console. No business logic lives here, only wiring.
package server

import (
	"context"
	"fmt"
	"log/slog"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Gerardo115pp/Dexnet/internal/access"
	"github.com/Gerardo115pp/Dexnet/internal/config"
	"github.com/Gerardo115pp/Dexnet/internal/console"
	"github.com/Gerardo115pp/Dexnet/internal/dispatch"
	"github.com/Gerardo115pp/Dexnet/internal/handlers"
	"github.com/Gerardo115pp/Dexnet/internal/journal"
	"github.com/Gerardo115pp/Dexnet/internal/registry"
	"github.com/Gerardo115pp/Dexnet/internal/sourcehost"
	"github.com/Gerardo115pp/Dexnet/internal/store"
	"github.com/Gerardo115pp/Dexnet/internal/tracker"
)

// Version is set at build time via ldflags.
var Version = "dev"

// App is the wired application.
type App struct {
	Log        *slog.Logger
	Registry   *registry.Registry
	Servers    *access.Servers
	Dispatcher *dispatch.Dispatcher
	// journal is nil when disabled or when it failed to open.
	journal *journal.Store
}

// New loads the persistent state and wires the dispatcher. responder may be
// nil for entrypoints that never answer in chat.
//
// The returned cleanup function closes the journal and must be called on
// shutdown (typically via defer). It is always non-nil.
func New(cfg *config.Config, log *slog.Logger, responder dispatch.Responder) (*App, func(), error) {
	// --- Persistent state ---

	fs := store.NewFileStore(cfg.DataPath)

	reg, err := registry.Load(fs)
	if err != nil {
		return nil, noop, fmt.Errorf("loading registry: %w", err)
	}
	servers, err := access.Load(fs)
	if err != nil {
		return nil, noop, fmt.Errorf("loading server config: %w", err)
	}

	app := &App{Log: log, Registry: reg, Servers: servers}

	// --- Journal ---
	//
	// The journal is optional: if it fails to open the bot keeps running
	// without history.

	cleanup := noop
	if cfg.JournalEnabled {
		j, err := journal.Open(cfg.JournalPath)
		if err != nil {
			log.Warn("command journal disabled", "path", cfg.JournalPath, "error", err)
		} else {
			app.journal = j
			cleanup = func() {
				if err := j.Close(); err != nil {
					log.Warn("closing command journal", "error", err)
				}
			}
		}
	}

	// --- Dispatcher ---

	if responder == nil {
		responder = logResponder{log: log}
	}
	opts := dispatch.Options{
		BotName:         cfg.BotName,
		Sigil:           cfg.Sigil,
		Passphrase:      cfg.Passphrase,
		AdminPassphrase: cfg.AdminPassphrase,
		Logger:          log,
	}
	if app.journal != nil {
		opts.Recorder = app.journal
	}
	d := dispatch.New(servers, responder, opts)

	// --- Handlers ---

	httpClient := cfg.HTTPClient()
	deps := &handlers.Deps{
		Registry: reg,
		Servers:  servers,
		Tracker:  tracker.New(cfg.ClickUpAPIURL, cfg.ClickUpToken, httpClient),
		Source:   sourcehost.New(cfg.GitHubAPIURL, cfg.GitHubUser, cfg.GitHubToken, httpClient),
		Prefix:   d.Prefix(),
		Specs:    d.Grammar().Specs,
	}
	if app.journal != nil {
		deps.Journal = app.journal
	}
	if err := handlers.Register(d, deps); err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("registering commands: %w", err)
	}
	app.Dispatcher = d

	log.Info("state loaded",
		"data_path", cfg.DataPath,
		"projects", len(reg.Projects()),
		"servers", len(servers.Snapshot()),
		"journal", app.journal != nil,
	)
	return app, cleanup, nil
}

// Console creates the operator console's MCP server.
func (a *App) Console() *mcpserver.MCPServer {
	deps := console.Deps{
		Executor: a.Dispatcher,
		Servers:  a.Servers,
		Registry: a.Registry,
	}
	if a.journal != nil {
		deps.History = a.journal
	}
	return console.NewServer(deps, Version)
}

// noop is the cleanup function used when there is nothing to close.
func noop() {}

// logResponder writes outbound chat traffic to the log. It stands in for the
// gateway when the process is not connected to chat.
type logResponder struct {
	log *slog.Logger
}

func (r logResponder) Send(_ context.Context, channelID, text string) error {
	r.log.Debug("send", "channel_id", channelID, "text", text)
	return nil
}

func (r logResponder) Reply(_ context.Context, to dispatch.Message, text string) error {
	r.log.Debug("reply", "channel_id", to.ChannelID, "message_id", to.ID, "text", text)
	return nil
}

func (r logResponder) Delete(_ context.Context, msg dispatch.Message) error {
	r.log.Debug("delete", "channel_id", msg.ChannelID, "message_id", msg.ID)
	return nil
}

func (r logResponder) Typing(_ context.Context, channelID string) error {
	r.log.Debug("typing", "channel_id", channelID)
	return nil
}
