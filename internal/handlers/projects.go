package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Gerardo115pp/Dexnet/internal/command"
	"github.com/Gerardo115pp/Dexnet/internal/dispatch"
)

// --- list-projects ---

// ListProjectsHandler lists every registered project.
type ListProjectsHandler struct {
	deps *Deps
}

// NewListProjectsHandler creates a ListProjectsHandler.
func NewListProjectsHandler(deps *Deps) *ListProjectsHandler {
	return &ListProjectsHandler{deps: deps}
}

// Definition returns the command spec.
func (h *ListProjectsHandler) Definition() command.Spec {
	return command.Spec{
		Name:    "list-projects",
		Usage:   "list-projects",
		Summary: "list all projects",
		Arity:   command.Exactly(0),
		New:     noArgs,
	}
}

// Handle renders the projects ordered by id.
func (h *ListProjectsHandler) Handle(context.Context, *dispatch.Request) (string, error) {
	projects := h.deps.Registry.Projects()
	if len(projects) == 0 {
		return "No projects yet", nil
	}
	var lines []string
	for _, p := range projects {
		lines = append(lines,
			field("name", p.Name),
			field("clickup_id", p.TaskListID),
			field("github_repo", p.RepoName),
			separator(40),
		)
	}
	return codeBlock("sql", lines), nil
}

// --- project-tasks ---

// ProjectTasksHandler lists the tracker tasks of a project's list.
type ProjectTasksHandler struct {
	deps *Deps
}

// NewProjectTasksHandler creates a ProjectTasksHandler.
func NewProjectTasksHandler(deps *Deps) *ProjectTasksHandler {
	return &ProjectTasksHandler{deps: deps}
}

// Definition returns the command spec.
func (h *ProjectTasksHandler) Definition() command.Spec {
	return command.Spec{
		Name:    "project-tasks",
		Usage:   "project-tasks <project_name>",
		Summary: "list all tasks for a project",
		Arity:   command.AtLeast(1),
		Slow:    true,
		New:     func() command.Args { return &command.ProjectArgs{} },
	}
}

// Handle fetches and renders the tasks.
func (h *ProjectTasksHandler) Handle(ctx context.Context, req *dispatch.Request) (string, error) {
	args := req.Args.(*command.ProjectArgs)
	project, err := h.deps.Registry.Project(args.Project)
	if err != nil {
		return "", err
	}
	tasks, err := h.deps.Tracker.ListTasks(ctx, project.TaskListID)
	if err != nil {
		return "", err
	}
	if len(tasks) == 0 {
		return fmt.Sprintf("No tasks in '%s'", project.Name), nil
	}

	var lines []string
	for _, t := range tasks {
		names := make([]string, len(t.Assignees))
		for i, a := range t.Assignees {
			names[i] = a.Username
		}
		lines = append(lines,
			field("name", t.Name),
			field("id", t.ID),
			field("status", t.Status.Status),
			field("priority", t.PriorityLabel()),
			field("time_estimate", t.EstimateSeconds()),
			field("assignees", strings.Join(names, ", ")),
			separator(80),
		)
	}
	return codeBlock("sql", lines), nil
}

// --- create-project ---

// CreateProjectHandler registers a project.
type CreateProjectHandler struct {
	deps *Deps
}

// NewCreateProjectHandler creates a CreateProjectHandler.
func NewCreateProjectHandler(deps *Deps) *CreateProjectHandler {
	return &CreateProjectHandler{deps: deps}
}

// Definition returns the command spec.
func (h *CreateProjectHandler) Definition() command.Spec {
	return command.Spec{
		Name:    "create-project",
		Usage:   "create-project <project_name> <clickup_list_id> <github_repo>",
		Summary: "create a new project",
		Arity:   command.Exactly(3),
		Admin:   true,
		New:     func() command.Args { return &command.CreateProjectArgs{} },
	}
}

// Handle creates the project and saves the registry.
func (h *CreateProjectHandler) Handle(_ context.Context, req *dispatch.Request) (string, error) {
	args := req.Args.(*command.CreateProjectArgs)
	p, err := h.deps.Registry.CreateProject(args.Name, args.ListID, args.Repo)
	if err != nil {
		return "", err
	}
	req.Log.Info("project created", "project", p.Name, "id", p.ID)
	return fmt.Sprintf("Project '%s' created with id %d", p.Name, p.ID), nil
}

// --- list-devs ---

// ListDevsHandler lists a project's assignees.
type ListDevsHandler struct {
	deps *Deps
}

// NewListDevsHandler creates a ListDevsHandler.
func NewListDevsHandler(deps *Deps) *ListDevsHandler {
	return &ListDevsHandler{deps: deps}
}

// Definition returns the command spec.
func (h *ListDevsHandler) Definition() command.Spec {
	return command.Spec{
		Name:    "list-devs",
		Usage:   "list-devs <project_name>",
		Summary: "list all developers for a project",
		Arity:   command.Exactly(1),
		Admin:   true,
		New:     func() command.Args { return &command.ExactProjectArgs{} },
	}
}

// Handle renders the assignees in insertion order.
func (h *ListDevsHandler) Handle(_ context.Context, req *dispatch.Request) (string, error) {
	args := req.Args.(*command.ExactProjectArgs)
	project, err := h.deps.Registry.Project(args.Project)
	if err != nil {
		return "", err
	}
	if len(project.Assignees) == 0 {
		return fmt.Sprintf("No developers in '%s'", project.Name), nil
	}
	lines := make([]string, len(project.Assignees))
	for i, a := range project.Assignees {
		lines[i] = "- " + a
	}
	return codeBlock("yaml", lines), nil
}

// --- new-dev ---

// AddDevHandler adds a source-host user to a project's assignees.
type AddDevHandler struct {
	deps *Deps
}

// NewAddDevHandler creates an AddDevHandler.
func NewAddDevHandler(deps *Deps) *AddDevHandler {
	return &AddDevHandler{deps: deps}
}

// Definition returns the command spec.
func (h *AddDevHandler) Definition() command.Spec {
	return command.Spec{
		Name:    "new-dev",
		Usage:   "new-dev <project_name> <github_username>",
		Summary: "add a new developer to a project",
		Arity:   command.Exactly(2),
		Admin:   true,
		New:     func() command.Args { return &command.NewDevArgs{} },
	}
}

// Handle checks the project, then the user, then saves the assignee. The
// registry is only touched once both lookups succeeded.
func (h *AddDevHandler) Handle(ctx context.Context, req *dispatch.Request) (string, error) {
	args := req.Args.(*command.NewDevArgs)
	if _, err := h.deps.Registry.Project(args.Project); err != nil {
		return "", err
	}
	user, err := h.deps.Source.GetUser(ctx, args.GitHubUser)
	if err != nil {
		return "", err
	}
	if _, err := h.deps.Registry.AddAssignee(args.Project, args.GitHubUser); err != nil {
		return "", err
	}
	return fmt.Sprintf("Added '%s' to '%s'", user.HTMLURL, args.Project), nil
}
