// Package handlers implements one chat command per struct.
//
// Each handler receives its collaborators through Deps, exposes a
// Definition for the dispatcher's command table and a Handle method that
// returns the reply text. Handlers depend on small interfaces for the two
// REST collaborators and the journal so they can be tested with fakes.
package handlers

import (
	"context"

	"github.com/Gerardo115pp/Dexnet/internal/access"
	"github.com/Gerardo115pp/Dexnet/internal/command"
	"github.com/Gerardo115pp/Dexnet/internal/dispatch"
	"github.com/Gerardo115pp/Dexnet/internal/domain"
	"github.com/Gerardo115pp/Dexnet/internal/journal"
	"github.com/Gerardo115pp/Dexnet/internal/registry"
	"github.com/Gerardo115pp/Dexnet/internal/sourcehost"
	"github.com/Gerardo115pp/Dexnet/internal/tracker"
)

// Tracker is the task-tracker surface the handlers use.
type Tracker interface {
	CreateTask(ctx context.Context, listID string, task tracker.NewTask) (*tracker.Task, error)
	ListTasks(ctx context.Context, listID string) ([]tracker.Task, error)
	GetList(ctx context.Context, listID string) (domain.TaskList, error)
	ListMembers(ctx context.Context, listID string) ([]tracker.User, error)
	Teams(ctx context.Context) ([]tracker.Team, error)
	AddAssignees(ctx context.Context, taskID string, userIDs []int) error
}

// SourceHost is the source-host surface the handlers use.
type SourceHost interface {
	GetUser(ctx context.Context, login string) (*sourcehost.User, error)
	CreateIssue(ctx context.Context, repo string, issue sourcehost.NewIssue) (*sourcehost.Issue, error)
	ListIssues(ctx context.Context, repo string) ([]sourcehost.Issue, error)
	AddAssignees(ctx context.Context, repo string, number int, logins ...string) (*sourcehost.Issue, error)
}

// Journal reads the command journal.
type Journal interface {
	Recent(ctx context.Context, serverID string, limit int) ([]journal.Entry, error)
}

// Deps holds everything a handler may need.
type Deps struct {
	Registry *registry.Registry
	Servers  *access.Servers
	Tracker  Tracker
	Source   SourceHost
	// Journal is nil when the journal is disabled.
	Journal Journal
	// Prefix is the invocation prefix shown in help texts.
	Prefix string
	// Specs returns the registered command table for the help commands.
	Specs func() []command.Spec
}

// Handler is one command.
type Handler interface {
	Definition() command.Spec
	Handle(ctx context.Context, req *dispatch.Request) (string, error)
}

// All returns every handler in declaration order. The order is the
// grammar's match order.
func All(deps *Deps) []Handler {
	return []Handler{
		NewStatusHandler(deps),
		NewEnableHandler(deps),
		NewListProjectsHandler(deps),
		NewProjectTasksHandler(deps),
		NewHelpHandler(deps),
		NewCreateProjectHandler(deps),
		NewCreateMemberHandler(deps),
		NewFeatureHandler(deps),
		NewAddDevHandler(deps),
		NewSetAssigneeHandler(deps),
		NewListDevsHandler(deps),
		NewListIssuesHandler(deps),
		NewCreateIssueHandler(deps),
		NewCreateTaskHandler(deps),
		NewClickUpTeamHandler(deps),
		NewSaveListHandler(deps),
		NewListListsHandler(deps),
		NewListTeamHandler(deps),
		NewTaskAssignHandler(deps),
		NewAdminHelpHandler(deps),
		NewHistoryHandler(deps),
	}
}

// Register adds every handler to the dispatcher.
func Register(d *dispatch.Dispatcher, deps *Deps) error {
	for _, h := range All(deps) {
		if err := d.Register(h.Definition(), h.Handle); err != nil {
			return err
		}
	}
	return nil
}

func noArgs() command.Args { return &command.NoArgs{} }
