package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Gerardo115pp/Dexnet/internal/command"
	"github.com/Gerardo115pp/Dexnet/internal/dispatch"
	"github.com/Gerardo115pp/Dexnet/internal/sourcehost"
	"github.com/Gerardo115pp/Dexnet/internal/tracker"
)

// Values used for tasks created by new-feature.
const (
	featureStatus       = "Open"
	featurePriority     = 3
	featureEstimateSecs = 60 * 60
)

var featureLabels = []string{"feature", "clickup"}

// --- new-feature ---

// FeatureHandler creates a tracker task and a linked source-host issue.
type FeatureHandler struct {
	deps *Deps
}

// NewFeatureHandler creates a FeatureHandler.
func NewFeatureHandler(deps *Deps) *FeatureHandler {
	return &FeatureHandler{deps: deps}
}

// Definition returns the command spec.
func (h *FeatureHandler) Definition() command.Spec {
	return command.Spec{
		Name:    "new-feature",
		Usage:   "new-feature <project_name> <issue_title> <issue_body>",
		Summary: "create a feature both as a ClickUp task and a GitHub issue",
		Arity:   command.Exactly(3),
		Admin:   true,
		Slow:    true,
		New:     func() command.Args { return &command.IssueArgs{} },
	}
}

// Handle creates the task first. If the issue then fails the task is left in
// place and the error says so.
func (h *FeatureHandler) Handle(ctx context.Context, req *dispatch.Request) (string, error) {
	args := req.Args.(*command.IssueArgs)
	project, err := h.deps.Registry.Project(args.Project)
	if err != nil {
		return "", err
	}

	task, err := h.deps.Tracker.CreateTask(ctx, project.TaskListID, tracker.NewTask{
		Name:         args.Title,
		Description:  args.Body,
		Status:       featureStatus,
		Priority:     featurePriority,
		TimeEstimate: featureEstimateSecs * 1000,
	})
	if err != nil {
		return "", err
	}

	issue, err := h.deps.Source.CreateIssue(ctx, project.RepoName, sourcehost.NewIssue{
		Title:  args.Title,
		Body:   fmt.Sprintf("This issue is created from ClickUp Task #%s: %s", task.ID, args.Body),
		Labels: featureLabels,
	})
	if err != nil {
		req.Log.Warn("feature half created", "task_id", task.ID, "error", err)
		return "", fmt.Errorf("ClickUp task #%s was created but the GitHub issue was not: %w", task.ID, err)
	}
	return fmt.Sprintf("Created issue '%s' (#%d) linked to ClickUp task #%s\n%s", args.Title, issue.Number, task.ID, issue.HTMLURL), nil
}

// --- set-assignee ---

// SetAssigneeHandler assigns a user to an existing issue.
type SetAssigneeHandler struct {
	deps *Deps
}

// NewSetAssigneeHandler creates a SetAssigneeHandler.
func NewSetAssigneeHandler(deps *Deps) *SetAssigneeHandler {
	return &SetAssigneeHandler{deps: deps}
}

// Definition returns the command spec.
func (h *SetAssigneeHandler) Definition() command.Spec {
	return command.Spec{
		Name:    "set-assignee",
		Usage:   "set-assignee <project_name> <issue_number> <github_user>",
		Summary: "set the assignee for an issue on GitHub",
		Arity:   command.Exactly(3),
		Admin:   true,
		New:     func() command.Args { return &command.SetAssigneeArgs{} },
	}
}

// Handle posts the assignee to the issue.
func (h *SetAssigneeHandler) Handle(ctx context.Context, req *dispatch.Request) (string, error) {
	args := req.Args.(*command.SetAssigneeArgs)
	project, err := h.deps.Registry.Project(args.Project)
	if err != nil {
		return "", err
	}
	if _, err := h.deps.Source.AddAssignees(ctx, project.RepoName, args.IssueNumber, args.GitHubUser); err != nil {
		return "", err
	}
	return fmt.Sprintf("Assignee for issue '%d' in project '%s' set to '%s'", args.IssueNumber, project.Name, args.GitHubUser), nil
}

// --- list-issues ---

// ListIssuesHandler lists a project's open issues.
type ListIssuesHandler struct {
	deps *Deps
}

// NewListIssuesHandler creates a ListIssuesHandler.
func NewListIssuesHandler(deps *Deps) *ListIssuesHandler {
	return &ListIssuesHandler{deps: deps}
}

// Definition returns the command spec.
func (h *ListIssuesHandler) Definition() command.Spec {
	return command.Spec{
		Name:    "list-issues",
		Usage:   "list-issues <project_name>",
		Summary: "list all GitHub issues for a project",
		Arity:   command.Exactly(1),
		Admin:   true,
		Slow:    true,
		New:     func() command.Args { return &command.ExactProjectArgs{} },
	}
}

// Handle fetches and renders the issues.
func (h *ListIssuesHandler) Handle(ctx context.Context, req *dispatch.Request) (string, error) {
	args := req.Args.(*command.ExactProjectArgs)
	project, err := h.deps.Registry.Project(args.Project)
	if err != nil {
		return "", err
	}
	issues, err := h.deps.Source.ListIssues(ctx, project.RepoName)
	if err != nil {
		return "", err
	}
	if len(issues) == 0 {
		return fmt.Sprintf("No open issues in '%s'", project.Name), nil
	}
	lines := make([]string, 0, len(issues))
	for _, is := range issues {
		lines = append(lines, fmt.Sprintf("-> %s - id:%d - state:%s - assignees: %s",
			is.Title, is.Number, is.State, strings.Join(is.AssigneeLogins(), ", ")))
	}
	return codeBlock("yaml", lines), nil
}

// --- create-issue ---

// CreateIssueHandler opens an issue without a tracker task.
type CreateIssueHandler struct {
	deps *Deps
}

// NewCreateIssueHandler creates a CreateIssueHandler.
func NewCreateIssueHandler(deps *Deps) *CreateIssueHandler {
	return &CreateIssueHandler{deps: deps}
}

// Definition returns the command spec.
func (h *CreateIssueHandler) Definition() command.Spec {
	return command.Spec{
		Name:    "create-issue",
		Usage:   "create-issue <project_name> <issue_title> <issue_body>",
		Summary: "create a new GitHub issue",
		Arity:   command.Exactly(3),
		Admin:   true,
		New:     func() command.Args { return &command.IssueArgs{} },
	}
}

// Handle creates the issue.
func (h *CreateIssueHandler) Handle(ctx context.Context, req *dispatch.Request) (string, error) {
	args := req.Args.(*command.IssueArgs)
	project, err := h.deps.Registry.Project(args.Project)
	if err != nil {
		return "", err
	}
	issue, err := h.deps.Source.CreateIssue(ctx, project.RepoName, sourcehost.NewIssue{Title: args.Title, Body: args.Body})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Issue '%s' created: %s", args.Title, issue.HTMLURL), nil
}
