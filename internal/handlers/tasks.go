package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Gerardo115pp/Dexnet/internal/command"
	"github.com/Gerardo115pp/Dexnet/internal/dispatch"
	"github.com/Gerardo115pp/Dexnet/internal/domain"
	"github.com/Gerardo115pp/Dexnet/internal/tracker"
)

// --- create-task ---

// CreateTaskHandler creates a task on a tracker list. It does not touch any
// local state.
type CreateTaskHandler struct {
	deps *Deps
}

// NewCreateTaskHandler creates a CreateTaskHandler.
func NewCreateTaskHandler(deps *Deps) *CreateTaskHandler {
	return &CreateTaskHandler{deps: deps}
}

// Definition returns the command spec.
func (h *CreateTaskHandler) Definition() command.Spec {
	return command.Spec{
		Name:    "create-task",
		Usage:   "create-task <list_id> <task_name> <task_description> [-t seconds] [-p 1-4] [-s status]",
		Summary: "create a new task on a ClickUp list (priority 1=urgent 2=high 3=normal 4=low)",
		Arity:   command.AtLeast(3),
		Admin:   true,
		New:     func() command.Args { return &command.CreateTaskArgs{} },
	}
}

// Handle sends the estimate in milliseconds.
func (h *CreateTaskHandler) Handle(ctx context.Context, req *dispatch.Request) (string, error) {
	args := req.Args.(*command.CreateTaskArgs)
	task, err := h.deps.Tracker.CreateTask(ctx, strconv.Itoa(args.ListID), tracker.NewTask{
		Name:         args.Name,
		Description:  args.Description,
		Status:       args.Status,
		Priority:     args.Priority,
		TimeEstimate: int64(args.TimeEstimate) * 1000,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Task '%s' created successfully (id %s)", args.Name, task.ID), nil
}

// --- clickup-team ---

// ClickUpTeamHandler lists the members of the first workspace.
type ClickUpTeamHandler struct {
	deps *Deps
}

// NewClickUpTeamHandler creates a ClickUpTeamHandler.
func NewClickUpTeamHandler(deps *Deps) *ClickUpTeamHandler {
	return &ClickUpTeamHandler{deps: deps}
}

// Definition returns the command spec.
func (h *ClickUpTeamHandler) Definition() command.Spec {
	return command.Spec{
		Name:    "clickup-team",
		Usage:   "clickup-team",
		Summary: "list the members of the ClickUp workspace",
		Arity:   command.Exactly(0),
		Admin:   true,
		Slow:    true,
		New:     noArgs,
	}
}

// Handle renders each member with who invited them, when known.
func (h *ClickUpTeamHandler) Handle(ctx context.Context, _ *dispatch.Request) (string, error) {
	teams, err := h.deps.Tracker.Teams(ctx)
	if err != nil {
		return "", err
	}
	if len(teams) == 0 {
		return "No teams found", nil
	}
	var lines []string
	for _, m := range teams[0].Members {
		lines = append(lines,
			field("id", m.User.ID),
			field("username", m.User.Username),
			field("email", m.User.Email),
			field("role", m.User.Role),
		)
		if m.InvitedBy != nil {
			lines = append(lines, field("invited_by", m.InvitedBy.Username))
		}
		lines = append(lines, "", separator(30))
	}
	return codeBlock("sql", lines), nil
}

// --- save-list ---

// SaveListHandler stores a tracker list descriptor on the server record.
type SaveListHandler struct {
	deps *Deps
}

// NewSaveListHandler creates a SaveListHandler.
func NewSaveListHandler(deps *Deps) *SaveListHandler {
	return &SaveListHandler{deps: deps}
}

// Definition returns the command spec.
func (h *SaveListHandler) Definition() command.Spec {
	return command.Spec{
		Name:    "save-list",
		Usage:   "save-list <list_id>",
		Summary: "save a ClickUp list for this server",
		Arity:   command.Exactly(1),
		Admin:   true,
		New:     func() command.Args { return &command.ListArgs{} },
	}
}

// Handle fetches the descriptor and saves the config document.
func (h *SaveListHandler) Handle(ctx context.Context, req *dispatch.Request) (string, error) {
	args := req.Args.(*command.ListArgs)
	list, err := h.deps.Tracker.GetList(ctx, args.ListID)
	if errors.Is(err, domain.ErrListNotFound) {
		return fmt.Sprintf("List %s does not exist", args.ListID), nil
	}
	if err != nil {
		return "", err
	}
	if err := h.deps.Servers.SaveTaskList(req.Message.ServerID, list); err != nil {
		return "", err
	}
	return fmt.Sprintf("Saved list %s", list.Name()), nil
}

// --- list-lists ---

// ListListsHandler lists the descriptors saved for this server.
type ListListsHandler struct {
	deps *Deps
}

// NewListListsHandler creates a ListListsHandler.
func NewListListsHandler(deps *Deps) *ListListsHandler {
	return &ListListsHandler{deps: deps}
}

// Definition returns the command spec.
func (h *ListListsHandler) Definition() command.Spec {
	return command.Spec{
		Name:    "list-lists",
		Usage:   "list-lists",
		Summary: "list the saved ClickUp lists",
		Arity:   command.Exactly(0),
		Admin:   true,
		New:     noArgs,
	}
}

// Handle renders name and id of each saved list.
func (h *ListListsHandler) Handle(_ context.Context, req *dispatch.Request) (string, error) {
	lists := h.deps.Servers.TaskLists(req.Message.ServerID)
	if len(lists) == 0 {
		return "No lists saved", nil
	}
	lines := make([]string, len(lists))
	for i, l := range lists {
		lines[i] = fmt.Sprintf("%s - id:%s", l.Name(), l.ID())
	}
	return codeBlock("yaml", lines), nil
}

// --- list-team ---

// ListTeamHandler lists the users with access to a tracker list.
type ListTeamHandler struct {
	deps *Deps
}

// NewListTeamHandler creates a ListTeamHandler.
func NewListTeamHandler(deps *Deps) *ListTeamHandler {
	return &ListTeamHandler{deps: deps}
}

// Definition returns the command spec.
func (h *ListTeamHandler) Definition() command.Spec {
	return command.Spec{
		Name:    "list-team",
		Usage:   "list-team <list_id>",
		Summary: "list all members of a ClickUp list",
		Arity:   command.Exactly(1),
		Admin:   true,
		New:     func() command.Args { return &command.ListArgs{} },
	}
}

// Handle renders one member per line.
func (h *ListTeamHandler) Handle(ctx context.Context, req *dispatch.Request) (string, error) {
	args := req.Args.(*command.ListArgs)
	members, err := h.deps.Tracker.ListMembers(ctx, args.ListID)
	if err != nil {
		return "", err
	}
	if len(members) == 0 {
		return fmt.Sprintf("No members in list %s", args.ListID), nil
	}
	lines := make([]string, len(members))
	for i, m := range members {
		lines[i] = fmt.Sprintf("%s - id: %d - email: %s", m.Username, m.ID, m.Email)
	}
	return codeBlock("sql", lines), nil
}

// --- task-assign ---

// TaskAssignHandler assigns tracker users to a task.
type TaskAssignHandler struct {
	deps *Deps
}

// NewTaskAssignHandler creates a TaskAssignHandler.
func NewTaskAssignHandler(deps *Deps) *TaskAssignHandler {
	return &TaskAssignHandler{deps: deps}
}

// Definition returns the command spec.
func (h *TaskAssignHandler) Definition() command.Spec {
	return command.Spec{
		Name:    "task-assign",
		Usage:   "task-assign <task_id> -a <clickup_user_id>...",
		Summary: "assign a task to users on ClickUp",
		Arity:   command.AtLeast(2),
		Admin:   true,
		New:     func() command.Args { return &command.TaskAssignArgs{} },
	}
}

// Handle requires at least one -a.
func (h *TaskAssignHandler) Handle(ctx context.Context, req *dispatch.Request) (string, error) {
	args := req.Args.(*command.TaskAssignArgs)
	if len(args.Assignees) == 0 {
		return "No assignee specified", nil
	}
	if err := h.deps.Tracker.AddAssignees(ctx, args.TaskID, args.AssigneeIDs()); err != nil {
		return "", err
	}
	return fmt.Sprintf("Task %s assigned to %s", args.TaskID, strings.Join(args.Assignees, ", ")), nil
}
