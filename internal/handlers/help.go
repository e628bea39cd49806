package handlers

import (
	"context"
	"fmt"

	"github.com/Gerardo115pp/Dexnet/internal/command"
	"github.com/Gerardo115pp/Dexnet/internal/dispatch"
)

// HelpHandler lists the public commands.
type HelpHandler struct {
	deps *Deps
}

// NewHelpHandler creates a HelpHandler.
func NewHelpHandler(deps *Deps) *HelpHandler {
	return &HelpHandler{deps: deps}
}

// Definition returns the command spec.
func (h *HelpHandler) Definition() command.Spec {
	return command.Spec{
		Name:    "help",
		Usage:   "help",
		Summary: "list the available commands",
		Arity:   command.Exactly(0),
		New:     noArgs,
	}
}

// Handle renders the help text.
func (h *HelpHandler) Handle(context.Context, *dispatch.Request) (string, error) {
	return codeBlock("", usageLines(h.deps, false)), nil
}

// AdminHelpHandler lists the admin commands.
type AdminHelpHandler struct {
	deps *Deps
}

// NewAdminHelpHandler creates an AdminHelpHandler.
func NewAdminHelpHandler(deps *Deps) *AdminHelpHandler {
	return &AdminHelpHandler{deps: deps}
}

// Definition returns the command spec.
func (h *AdminHelpHandler) Definition() command.Spec {
	return command.Spec{
		Name:    "admin-help",
		Usage:   "admin-help",
		Summary: "list the admin commands, only visible to admins",
		Arity:   command.Exactly(0),
		Admin:   true,
		New:     noArgs,
	}
}

// Handle renders the admin help text.
func (h *AdminHelpHandler) Handle(context.Context, *dispatch.Request) (string, error) {
	return codeBlock("sql", usageLines(h.deps, true)), nil
}

func usageLines(deps *Deps, admin bool) []string {
	var lines []string
	if deps.Specs == nil {
		return lines
	}
	for _, s := range deps.Specs() {
		if s.Admin != admin {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s%s - %s", deps.Prefix, s.Usage, s.Summary))
	}
	return lines
}
