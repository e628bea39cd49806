package handlers

import (
	"context"
	"fmt"

	"github.com/Gerardo115pp/Dexnet/internal/command"
	"github.com/Gerardo115pp/Dexnet/internal/dispatch"
	"github.com/Gerardo115pp/Dexnet/internal/domain"
)

// HistoryHandler shows the latest journal entries of this server.
type HistoryHandler struct {
	deps *Deps
}

// NewHistoryHandler creates a HistoryHandler.
func NewHistoryHandler(deps *Deps) *HistoryHandler {
	return &HistoryHandler{deps: deps}
}

// Definition returns the command spec.
func (h *HistoryHandler) Definition() command.Spec {
	return command.Spec{
		Name:    "history",
		Usage:   "history [-n limit]",
		Summary: "show the latest commands run on this server",
		Arity:   command.AtLeast(0),
		Admin:   true,
		New:     func() command.Args { return &command.HistoryArgs{} },
	}
}

// Handle renders newest first.
func (h *HistoryHandler) Handle(ctx context.Context, req *dispatch.Request) (string, error) {
	if h.deps.Journal == nil {
		return "", domain.ErrJournalDisabled
	}
	args := req.Args.(*command.HistoryArgs)
	entries, err := h.deps.Journal.Recent(ctx, req.Message.ServerID, args.Limit)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "No commands recorded yet", nil
	}
	lines := make([]string, len(entries))
	for i, e := range entries {
		name := e.Command
		if name == "" {
			name = "-"
		}
		lines[i] = fmt.Sprintf("%s %-16s %-14s %s", e.At, e.AuthorName, name, e.Outcome)
	}
	return codeBlock("", lines), nil
}
