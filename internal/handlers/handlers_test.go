package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/Gerardo115pp/Dexnet/internal/access"
	"github.com/Gerardo115pp/Dexnet/internal/command"
	"github.com/Gerardo115pp/Dexnet/internal/dispatch"
	"github.com/Gerardo115pp/Dexnet/internal/domain"
	"github.com/Gerardo115pp/Dexnet/internal/journal"
	"github.com/Gerardo115pp/Dexnet/internal/registry"
	"github.com/Gerardo115pp/Dexnet/internal/sourcehost"
	"github.com/Gerardo115pp/Dexnet/internal/store"
	"github.com/Gerardo115pp/Dexnet/internal/tracker"
)

// --- Fakes ---

type fakeTracker struct {
	created     []tracker.NewTask
	createdList []string
	createErr   error
	tasks       []tracker.Task
	lists       map[string]domain.TaskList
	members     []tracker.User
	teams       []tracker.Team
	assigned    map[string][]int
}

func (f *fakeTracker) CreateTask(_ context.Context, listID string, task tracker.NewTask) (*tracker.Task, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, task)
	f.createdList = append(f.createdList, listID)
	return &tracker.Task{ID: "tsk9", Name: task.Name}, nil
}

func (f *fakeTracker) ListTasks(context.Context, string) ([]tracker.Task, error) {
	return f.tasks, nil
}

func (f *fakeTracker) GetList(_ context.Context, listID string) (domain.TaskList, error) {
	l, ok := f.lists[listID]
	if !ok {
		return nil, domain.ErrListNotFound
	}
	return l, nil
}

func (f *fakeTracker) ListMembers(context.Context, string) ([]tracker.User, error) {
	return f.members, nil
}

func (f *fakeTracker) Teams(context.Context) ([]tracker.Team, error) {
	return f.teams, nil
}

func (f *fakeTracker) AddAssignees(_ context.Context, taskID string, ids []int) error {
	if f.assigned == nil {
		f.assigned = map[string][]int{}
	}
	f.assigned[taskID] = append(f.assigned[taskID], ids...)
	return nil
}

type fakeSource struct {
	users     map[string]*sourcehost.User
	issues    []sourcehost.NewIssue
	issueErr  error
	open      []sourcehost.Issue
	assignees map[int][]string
}

func (f *fakeSource) GetUser(_ context.Context, login string) (*sourcehost.User, error) {
	u, ok := f.users[login]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeSource) CreateIssue(_ context.Context, _ string, issue sourcehost.NewIssue) (*sourcehost.Issue, error) {
	if f.issueErr != nil {
		return nil, f.issueErr
	}
	f.issues = append(f.issues, issue)
	return &sourcehost.Issue{Number: len(f.issues), Title: issue.Title, HTMLURL: "https://github.com/acme/api/issues/1"}, nil
}

func (f *fakeSource) ListIssues(context.Context, string) ([]sourcehost.Issue, error) {
	return f.open, nil
}

func (f *fakeSource) AddAssignees(_ context.Context, _ string, number int, logins ...string) (*sourcehost.Issue, error) {
	if f.assignees == nil {
		f.assignees = map[int][]string{}
	}
	f.assignees[number] = append(f.assignees[number], logins...)
	return &sourcehost.Issue{Number: number}, nil
}

type fakeJournal struct {
	entries []journal.Entry
}

func (f *fakeJournal) Recent(_ context.Context, serverID string, limit int) ([]journal.Entry, error) {
	var out []journal.Entry
	for _, e := range f.entries {
		if e.ServerID == serverID && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

// --- Fixture ---

type env struct {
	deps    *Deps
	fs      *store.FileStore
	tracker *fakeTracker
	source  *fakeSource
}

func newEnv(t *testing.T) *env {
	t.Helper()
	fs := store.NewFileStore(t.TempDir())
	reg, err := registry.Load(fs)
	if err != nil {
		t.Fatal(err)
	}
	servers, err := access.Load(fs)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := servers.Observe("g1", "guild", []access.ChannelInfo{{ID: "c1", Name: "general", IsText: true}}); err != nil {
		t.Fatal(err)
	}
	e := &env{
		fs:      fs,
		tracker: &fakeTracker{lists: map[string]domain.TaskList{}},
		source:  &fakeSource{users: map[string]*sourcehost.User{"octocat": {Login: "octocat", HTMLURL: "https://github.com/octocat"}}},
	}
	e.deps = &Deps{Registry: reg, Servers: servers, Tracker: e.tracker, Source: e.source, Prefix: "$dexnet "}
	return e
}

var testMsg = dispatch.Message{
	ID: "m1", AuthorID: "u1", AuthorName: "ana",
	ChannelID: "c1", ChannelName: "general",
	ServerID: "g1", ServerName: "guild",
}

// run binds line against h's spec and calls Handle.
func run(t *testing.T, h Handler, msg dispatch.Message, line string) (string, error) {
	t.Helper()
	spec := h.Definition()
	tokens, err := command.Tokenize(line)
	if err != nil {
		t.Fatalf("Tokenize(%q): %v", line, err)
	}
	if !spec.Arity.Accepts(len(tokens) - 1) {
		t.Fatalf("%q does not fit %s arity %s", line, spec.Name, spec.Arity)
	}
	args, err := command.Bind(spec, tokens)
	if err != nil {
		t.Fatalf("Bind(%q): %v", line, err)
	}
	req := &dispatch.Request{Message: msg, Spec: spec, Args: args, TraceID: "t", Log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	return h.Handle(context.Background(), req)
}

func (e *env) createProject(t *testing.T, name string) {
	t.Helper()
	if _, err := e.deps.Registry.CreateProject(name, "901", name+"-repo"); err != nil {
		t.Fatal(err)
	}
}

// --- Table ---

func TestAll_DeclarationOrderAndUniqueShapes(t *testing.T) {
	e := newEnv(t)
	want := []string{
		"status", "enable", "list-projects", "project-tasks", "help",
		"create-project", "create-member", "new-feature", "new-dev", "set-assignee",
		"list-devs", "list-issues", "create-issue", "create-task", "clickup-team",
		"save-list", "list-lists", "list-team", "task-assign", "admin-help", "history",
	}
	g := command.NewGrammar()
	all := All(e.deps)
	if len(all) != len(want) {
		t.Fatalf("got %d handlers, want %d", len(all), len(want))
	}
	for i, h := range all {
		spec := h.Definition()
		if spec.Name != want[i] {
			t.Errorf("handler %d = %s, want %s", i, spec.Name, want[i])
		}
		if err := g.Add(spec); err != nil {
			t.Errorf("Add(%s): %v", spec.Name, err)
		}
		public := map[string]bool{"status": true, "list-projects": true, "project-tasks": true, "help": true}
		if spec.Admin == public[spec.Name] {
			t.Errorf("%s: Admin = %v", spec.Name, spec.Admin)
		}
	}
}

// --- Channel ---

func TestStatusAndEnable(t *testing.T) {
	e := newEnv(t)
	out, _ := run(t, NewStatusHandler(e.deps), testMsg, "status")
	if out != "Channel general is: disabled" {
		t.Errorf("status = %q", out)
	}
	for i := 0; i < 2; i++ {
		out, err := run(t, NewEnableHandler(e.deps), testMsg, "enable")
		if err != nil || out != "Channel general is now enabled" {
			t.Errorf("enable = %q, %v", out, err)
		}
	}
	out, _ = run(t, NewStatusHandler(e.deps), testMsg, "status")
	if out != "Channel general is: enabled" {
		t.Errorf("status = %q", out)
	}
}

func TestHelp_SplitsPublicAndAdmin(t *testing.T) {
	e := newEnv(t)
	e.deps.Specs = func() []command.Spec {
		var specs []command.Spec
		for _, h := range All(e.deps) {
			specs = append(specs, h.Definition())
		}
		return specs
	}
	help, _ := run(t, NewHelpHandler(e.deps), testMsg, "help")
	if !strings.Contains(help, "$dexnet project-tasks <project_name>") || strings.Contains(help, "create-task") {
		t.Errorf("help = %s", help)
	}
	admin, _ := run(t, NewAdminHelpHandler(e.deps), testMsg, "admin-help")
	if !strings.Contains(admin, "$dexnet create-task <list_id>") || strings.Contains(admin, "list-projects") {
		t.Errorf("admin-help = %s", admin)
	}
}

// --- Projects ---

func TestCreateProject_AndList(t *testing.T) {
	e := newEnv(t)
	h := NewCreateProjectHandler(e.deps)
	out, err := run(t, h, testMsg, "create-project apollo 901 apollo-api")
	if err != nil || out != "Project 'apollo' created with id 1" {
		t.Fatalf("create = %q, %v", out, err)
	}
	if _, err := run(t, h, testMsg, "create-project apollo 902 other"); !errors.Is(err, domain.ErrProjectExists) {
		t.Errorf("duplicate err = %v", err)
	}

	list, _ := run(t, NewListProjectsHandler(e.deps), testMsg, "list-projects")
	if !strings.Contains(list, "           name: apollo") || !strings.Contains(list, "    github_repo: apollo-api") {
		t.Errorf("list = %s", list)
	}
}

func TestProjectTasks(t *testing.T) {
	e := newEnv(t)
	e.createProject(t, "apollo")
	est := int64(5400000)
	e.tracker.tasks = []tracker.Task{{
		ID: "t1", Name: "Login", Status: tracker.TaskStatus{Status: "open"},
		TimeEstimate: &est, Assignees: []tracker.User{{Username: "ana"}, {Username: "bo"}},
	}}
	out, err := run(t, NewProjectTasksHandler(e.deps), testMsg, "project-tasks apollo")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"name: Login", "priority: none", "time_estimate: 5400", "assignees: ana, bo"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
	if _, err := run(t, NewProjectTasksHandler(e.deps), testMsg, "project-tasks hermes"); !errors.Is(err, domain.ErrProjectNotFound) {
		t.Errorf("err = %v, want ErrProjectNotFound", err)
	}
}

func TestNewDev(t *testing.T) {
	e := newEnv(t)
	e.createProject(t, "apollo")
	h := NewAddDevHandler(e.deps)

	out, err := run(t, h, testMsg, "new-dev apollo octocat")
	if err != nil || out != "Added 'https://github.com/octocat' to 'apollo'" {
		t.Fatalf("new-dev = %q, %v", out, err)
	}
	if _, err := run(t, h, testMsg, "new-dev apollo ghost"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("unknown user err = %v", err)
	}
	p, _ := e.deps.Registry.Project("apollo")
	if len(p.Assignees) != 1 || p.Assignees[0] != "octocat" {
		t.Errorf("Assignees = %v", p.Assignees)
	}

	out, _ = run(t, NewListDevsHandler(e.deps), testMsg, "list-devs apollo")
	if out != "```yaml\n- octocat\n```" {
		t.Errorf("list-devs = %q", out)
	}
}

func TestNewDev_UnknownProjectLeavesFileUntouched(t *testing.T) {
	e := newEnv(t)
	e.createProject(t, "apollo")
	before, _ := os.ReadFile(e.fs.Path(store.ProjectsFile))

	_, err := run(t, NewAddDevHandler(e.deps), testMsg, "new-dev hermes octocat")
	if !errors.Is(err, domain.ErrProjectNotFound) {
		t.Fatalf("err = %v, want ErrProjectNotFound", err)
	}
	after, _ := os.ReadFile(e.fs.Path(store.ProjectsFile))
	if string(before) != string(after) {
		t.Error("projects.json changed")
	}
}

// --- Members ---

func TestCreateMember(t *testing.T) {
	e := newEnv(t)
	h := NewCreateMemberHandler(e.deps)
	if _, err := run(t, h, testMsg, "create-member 77 ana-gh"); !errors.Is(err, domain.ErrMentionRequired) {
		t.Errorf("err = %v, want ErrMentionRequired", err)
	}

	msg := testMsg
	msg.Mentions = []dispatch.User{{ID: "u9", Name: "zoe"}, {ID: "u8", Name: "max"}}
	out, err := run(t, h, msg, "create-member 77 zoe-gh <@u9> <@u8>")
	if err != nil || out != "Added 'zoe' to the team" {
		t.Fatalf("create-member = %q, %v", out, err)
	}
	members := e.deps.Registry.Members("g1")
	if len(members) != 1 || members[0].TrackerUserID != "77" || members[0].GitHubAccount != "zoe-gh" {
		t.Errorf("members = %+v", members)
	}
}

// --- Issues ---

func TestNewFeature_CreatesTaskThenIssue(t *testing.T) {
	e := newEnv(t)
	e.createProject(t, "apollo")
	out, err := run(t, NewFeatureHandler(e.deps), testMsg, `new-feature apollo "Dark mode" "Add a dark theme"`)
	if err != nil {
		t.Fatalf("new-feature: %v", err)
	}
	if !strings.Contains(out, "ClickUp task #tsk9") {
		t.Errorf("out = %q", out)
	}
	task := e.tracker.created[0]
	if e.tracker.createdList[0] != "901" || task.Status != "Open" || task.Priority != 3 || task.TimeEstimate != 3600000 {
		t.Errorf("task = %+v on %s", task, e.tracker.createdList[0])
	}
	issue := e.source.issues[0]
	if issue.Body != "This issue is created from ClickUp Task #tsk9: Add a dark theme" {
		t.Errorf("body = %q", issue.Body)
	}
	if strings.Join(issue.Labels, ",") != "feature,clickup" {
		t.Errorf("labels = %v", issue.Labels)
	}
}

func TestNewFeature_PartialFailureSurfaced(t *testing.T) {
	e := newEnv(t)
	e.createProject(t, "apollo")
	e.source.issueErr = &sourcehost.APIError{StatusCode: 410, Body: "Issues are disabled"}

	_, err := run(t, NewFeatureHandler(e.deps), testMsg, `new-feature apollo "Dark mode" "x"`)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "task #tsk9 was created") || !strings.Contains(err.Error(), "status 410") {
		t.Errorf("err = %v", err)
	}
	if len(e.tracker.created) != 1 {
		t.Error("the task should not be rolled back")
	}
}

func TestNewFeature_TrackerFailureSkipsIssue(t *testing.T) {
	e := newEnv(t)
	e.createProject(t, "apollo")
	e.tracker.createErr = &tracker.APIError{StatusCode: 400, Body: "bad"}
	if _, err := run(t, NewFeatureHandler(e.deps), testMsg, `new-feature apollo "a" "b"`); err == nil {
		t.Fatal("expected error")
	}
	if len(e.source.issues) != 0 {
		t.Error("issue created despite tracker failure")
	}
}

func TestSetAssigneeAndListIssues(t *testing.T) {
	e := newEnv(t)
	e.createProject(t, "apollo")
	out, err := run(t, NewSetAssigneeHandler(e.deps), testMsg, "set-assignee apollo 4 octocat")
	if err != nil || !strings.Contains(out, "set to 'octocat'") {
		t.Fatalf("set-assignee = %q, %v", out, err)
	}
	if got := e.source.assignees[4]; len(got) != 1 || got[0] != "octocat" {
		t.Errorf("assignees = %v", got)
	}

	e.source.open = []sourcehost.Issue{{Number: 4, Title: "Login", State: "open", Assignees: []sourcehost.User{{Login: "octocat"}}}}
	out, _ = run(t, NewListIssuesHandler(e.deps), testMsg, "list-issues apollo")
	if !strings.Contains(out, "-> Login - id:4 - state:open - assignees: octocat") {
		t.Errorf("list-issues = %s", out)
	}

	out, _ = run(t, NewCreateIssueHandler(e.deps), testMsg, `create-issue apollo "Crash" "on start"`)
	if !strings.HasPrefix(out, "Issue 'Crash' created") || e.source.issues[0].Body != "on start" {
		t.Errorf("create-issue = %q, %+v", out, e.source.issues)
	}
}

// --- Tasks ---

func TestCreateTask_NoLocalStateChange(t *testing.T) {
	e := newEnv(t)
	e.createProject(t, "apollo")
	files := []string{store.ConfigFile, store.ProjectsFile, store.MembersFile}
	before := map[string]string{}
	for _, f := range files {
		data, _ := os.ReadFile(e.fs.Path(f))
		before[f] = string(data)
	}

	out, err := run(t, NewCreateTaskHandler(e.deps), testMsg, `create-task 123 "My Task" "desc text"`)
	if err != nil {
		t.Fatalf("create-task: %v", err)
	}
	if out != "Task 'My Task' created successfully (id tsk9)" {
		t.Errorf("out = %q", out)
	}
	task := e.tracker.created[0]
	if e.tracker.createdList[0] != "123" || task.Name != "My Task" || task.Description != "desc text" {
		t.Errorf("task = %+v", task)
	}
	if task.Priority != 3 || task.Status != "Open" || task.TimeEstimate != 3600*1000 {
		t.Errorf("defaults = %+v", task)
	}

	for _, f := range files {
		data, _ := os.ReadFile(e.fs.Path(f))
		if string(data) != before[f] {
			t.Errorf("%s changed after create-task", f)
		}
	}
}

func TestSaveListAndListLists(t *testing.T) {
	e := newEnv(t)
	h := NewSaveListHandler(e.deps)

	out, err := run(t, h, testMsg, "save-list 404")
	if err != nil || out != "List 404 does not exist" {
		t.Errorf("missing list = %q, %v", out, err)
	}

	e.tracker.lists["900"] = domain.TaskList{"id": "900", "name": "Sprint"}
	out, err = run(t, h, testMsg, "save-list 900")
	if err != nil || out != "Saved list Sprint" {
		t.Fatalf("save-list = %q, %v", out, err)
	}

	reloaded, err := access.Load(e.fs)
	if err != nil {
		t.Fatal(err)
	}
	if lists := reloaded.TaskLists("g1"); len(lists) != 1 || lists[0].ID() != "900" {
		t.Errorf("persisted lists = %v", lists)
	}

	out, _ = run(t, NewListListsHandler(e.deps), testMsg, "list-lists")
	if out != "```yaml\nSprint - id:900\n```" {
		t.Errorf("list-lists = %q", out)
	}
}

func TestTeamCommands(t *testing.T) {
	e := newEnv(t)
	out, _ := run(t, NewClickUpTeamHandler(e.deps), testMsg, "clickup-team")
	if out != "No teams found" {
		t.Errorf("empty teams = %q", out)
	}
	e.tracker.teams = []tracker.Team{{Members: []tracker.TeamMember{
		{User: tracker.User{ID: 7, Username: "ana", Email: "a@x", Role: 1}, InvitedBy: &tracker.User{Username: "bo"}},
	}}}
	out, _ = run(t, NewClickUpTeamHandler(e.deps), testMsg, "clickup-team")
	if !strings.Contains(out, "invited_by: bo") || !strings.Contains(out, "username: ana") {
		t.Errorf("clickup-team = %s", out)
	}

	e.tracker.members = []tracker.User{{ID: 7, Username: "ana", Email: "a@x"}}
	out, _ = run(t, NewListTeamHandler(e.deps), testMsg, "list-team 900")
	if !strings.Contains(out, "ana - id: 7 - email: a@x") {
		t.Errorf("list-team = %s", out)
	}
}

func TestTaskAssign(t *testing.T) {
	e := newEnv(t)
	h := NewTaskAssignHandler(e.deps)
	out, err := run(t, h, testMsg, "task-assign t1 --")
	if err != nil || out != "No assignee specified" {
		t.Errorf("no assignee = %q, %v", out, err)
	}
	out, err = run(t, h, testMsg, "task-assign t1 -a 11 -a 22")
	if err != nil || out != "Task t1 assigned to 11, 22" {
		t.Errorf("task-assign = %q, %v", out, err)
	}
	if got := e.tracker.assigned["t1"]; len(got) != 2 || got[1] != 22 {
		t.Errorf("assigned = %v", got)
	}
}

// --- History ---

func TestHistory(t *testing.T) {
	e := newEnv(t)
	h := NewHistoryHandler(e.deps)
	if _, err := run(t, h, testMsg, "history"); !errors.Is(err, domain.ErrJournalDisabled) {
		t.Errorf("err = %v, want ErrJournalDisabled", err)
	}

	e.deps.Journal = &fakeJournal{entries: []journal.Entry{
		{At: "2026-03-01T09:30:00Z", ServerID: "g1", AuthorName: "ana", Command: "create-task", Outcome: journal.OutcomeOK},
		{At: "2026-03-01T09:31:00Z", ServerID: "g2", AuthorName: "bo", Command: "help", Outcome: journal.OutcomeOK},
		{At: "2026-03-01T09:32:00Z", ServerID: "g1", AuthorName: "ana", Command: "", Outcome: journal.OutcomeInvalid},
	}}
	out, err := run(t, h, testMsg, "history -n 5")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "create-task") || strings.Contains(out, "bo") || strings.Count(out, "\n") != 3 {
		t.Errorf("history = %s", out)
	}
}
