package handlers

import (
	"context"
	"fmt"

	"github.com/Gerardo115pp/Dexnet/internal/command"
	"github.com/Gerardo115pp/Dexnet/internal/dispatch"
	"github.com/Gerardo115pp/Dexnet/internal/domain"
)

// CreateMemberHandler adds a mentioned chat user to the server's team.
type CreateMemberHandler struct {
	deps *Deps
}

// NewCreateMemberHandler creates a CreateMemberHandler.
func NewCreateMemberHandler(deps *Deps) *CreateMemberHandler {
	return &CreateMemberHandler{deps: deps}
}

// Definition returns the command spec.
func (h *CreateMemberHandler) Definition() command.Spec {
	return command.Spec{
		Name:    "create-member",
		Usage:   "create-member <clickup_user_id> <github_account> @member",
		Summary: "add a mentioned member to this server's team",
		Arity:   command.AtLeast(2),
		Admin:   true,
		New:     func() command.Args { return &command.CreateMemberArgs{} },
	}
}

// Handle uses the first mentioned user as the member's chat handle.
func (h *CreateMemberHandler) Handle(_ context.Context, req *dispatch.Request) (string, error) {
	args := req.Args.(*command.CreateMemberArgs)
	if len(req.Message.Mentions) == 0 {
		return "", domain.ErrMentionRequired
	}
	member := domain.TeamMember{
		Username:      req.Message.Mentions[0].Name,
		TrackerUserID: args.TrackerUserID,
		GitHubAccount: args.GitHubAccount,
		ProjectIDs:    []int{},
	}
	if err := h.deps.Registry.AddMember(req.Message.ServerID, member); err != nil {
		return "", err
	}
	return fmt.Sprintf("Added '%s' to the team", member.Username), nil
}
