package handlers

import (
	"context"
	"fmt"

	"github.com/Gerardo115pp/Dexnet/internal/command"
	"github.com/Gerardo115pp/Dexnet/internal/dispatch"
)

// StatusHandler reports whether the current channel is enabled.
type StatusHandler struct {
	deps *Deps
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(deps *Deps) *StatusHandler {
	return &StatusHandler{deps: deps}
}

// Definition returns the command spec.
func (h *StatusHandler) Definition() command.Spec {
	return command.Spec{
		Name:    "status",
		Usage:   "status",
		Summary: "check if the bot is enabled in this channel",
		Arity:   command.Exactly(0),
		Ungated: true,
		New:     noArgs,
	}
}

// Handle answers in any channel state.
func (h *StatusHandler) Handle(_ context.Context, req *dispatch.Request) (string, error) {
	state := "disabled"
	if h.deps.Servers.IsChannelEnabled(req.Message.ServerID, req.Message.ChannelID) {
		state = "enabled"
	}
	return fmt.Sprintf("Channel %s is: %s", req.Message.ChannelName, state), nil
}

// EnableHandler enables the current channel.
type EnableHandler struct {
	deps *Deps
}

// NewEnableHandler creates an EnableHandler.
func NewEnableHandler(deps *Deps) *EnableHandler {
	return &EnableHandler{deps: deps}
}

// Definition returns the command spec.
func (h *EnableHandler) Definition() command.Spec {
	return command.Spec{
		Name:    "enable",
		Usage:   "enable",
		Summary: "enable bot commands in this channel",
		Arity:   command.Exactly(0),
		Admin:   true,
		Ungated: true,
		New:     noArgs,
	}
}

// Handle is idempotent: an enabled channel gets the same confirmation.
func (h *EnableHandler) Handle(_ context.Context, req *dispatch.Request) (string, error) {
	changed, err := h.deps.Servers.EnableChannel(req.Message.Location())
	if err != nil {
		return "", err
	}
	if changed {
		req.Log.Info("channel enabled by admin", "author", req.Message.AuthorName)
	}
	return fmt.Sprintf("Channel %s is now enabled", req.Message.ChannelName), nil
}
