package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// Default values for create-task.
const (
	DefaultTimeEstimate = 3600
	DefaultPriority     = 3
	DefaultStatus       = "Open"
	DefaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

func expect(positional []string, names ...string) error {
	if len(positional) != len(names) {
		return fmt.Errorf("expected %d argument(s) (%s), got %d", len(names), strings.Join(names, ", "), len(positional))
	}
	return nil
}

func parseInt(name, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, value)
	}
	return n, nil
}

// noFlags is embedded by records without flags.
type noFlags struct{}

func (noFlags) DeclareFlags(*pflag.FlagSet) {}

// NoArgs is the record of commands that take nothing.
type NoArgs struct{ noFlags }

func (*NoArgs) Bind(positional []string) error { return expect(positional) }

// ProjectArgs names one project. Extra words are joined so unquoted names
// with spaces still resolve.
type ProjectArgs struct {
	noFlags
	Project string
}

func (a *ProjectArgs) Bind(positional []string) error {
	if len(positional) == 0 {
		return expect(positional, "project_name")
	}
	a.Project = strings.Join(positional, " ")
	return nil
}

// ExactProjectArgs names one project and nothing else.
type ExactProjectArgs struct {
	noFlags
	Project string
}

func (a *ExactProjectArgs) Bind(positional []string) error {
	if err := expect(positional, "project_name"); err != nil {
		return err
	}
	a.Project = positional[0]
	return nil
}

// CreateProjectArgs is the record of create-project.
type CreateProjectArgs struct {
	noFlags
	Name   string
	ListID string
	Repo   string
}

func (a *CreateProjectArgs) Bind(positional []string) error {
	if err := expect(positional, "project_name", "list_id", "repo"); err != nil {
		return err
	}
	a.Name, a.ListID, a.Repo = positional[0], positional[1], positional[2]
	return nil
}

// CreateMemberArgs is the record of create-member. The trailing mention
// tokens are left to the gateway, which resolves who they refer to.
type CreateMemberArgs struct {
	noFlags
	TrackerUserID string
	GitHubAccount string
}

func (a *CreateMemberArgs) Bind(positional []string) error {
	if len(positional) < 2 {
		return expect(positional, "tracker_user_id", "github_account")
	}
	if strings.HasPrefix(positional[0], "<@") {
		return errors.New("the tracker user id comes first, the mention goes last")
	}
	a.TrackerUserID, a.GitHubAccount = positional[0], positional[1]
	return nil
}

// IssueArgs is the record of new-feature and create-issue.
type IssueArgs struct {
	noFlags
	Project string
	Title   string
	Body    string
}

func (a *IssueArgs) Bind(positional []string) error {
	if err := expect(positional, "project_name", "title", "body"); err != nil {
		return err
	}
	a.Project, a.Title, a.Body = positional[0], positional[1], positional[2]
	return nil
}

// NewDevArgs is the record of new-dev.
type NewDevArgs struct {
	noFlags
	Project    string
	GitHubUser string
}

func (a *NewDevArgs) Bind(positional []string) error {
	if err := expect(positional, "project_name", "github_user"); err != nil {
		return err
	}
	a.Project, a.GitHubUser = positional[0], positional[1]
	return nil
}

// SetAssigneeArgs is the record of set-assignee.
type SetAssigneeArgs struct {
	noFlags
	Project     string
	IssueNumber int
	GitHubUser  string
}

func (a *SetAssigneeArgs) Bind(positional []string) error {
	if err := expect(positional, "project_name", "issue_number", "github_user"); err != nil {
		return err
	}
	n, err := parseInt("issue_number", positional[1])
	if err != nil {
		return err
	}
	a.Project, a.IssueNumber, a.GitHubUser = positional[0], n, positional[2]
	return nil
}

// CreateTaskArgs is the record of create-task.
type CreateTaskArgs struct {
	ListID       int
	Name         string
	Description  string
	TimeEstimate int
	Priority     int
	Status       string
}

func (a *CreateTaskArgs) DeclareFlags(fs *pflag.FlagSet) {
	fs.IntVarP(&a.TimeEstimate, "time", "t", DefaultTimeEstimate, "time estimate in seconds")
	fs.IntVarP(&a.Priority, "priority", "p", DefaultPriority, "priority, 1 (urgent) to 4 (low)")
	fs.StringVarP(&a.Status, "status", "s", DefaultStatus, "initial status")
}

func (a *CreateTaskArgs) Bind(positional []string) error {
	if err := expect(positional, "list_id", "task_name", "task_description"); err != nil {
		return err
	}
	id, err := parseInt("list_id", positional[0])
	if err != nil {
		return err
	}
	if a.Priority < 1 || a.Priority > 4 {
		return fmt.Errorf("priority must be between 1 and 4, got %d", a.Priority)
	}
	if a.TimeEstimate < 0 {
		return fmt.Errorf("time estimate must not be negative, got %d", a.TimeEstimate)
	}
	a.ListID, a.Name, a.Description = id, positional[1], positional[2]
	return nil
}

// ListArgs names one tracker list.
type ListArgs struct {
	noFlags
	ListID string
}

func (a *ListArgs) Bind(positional []string) error {
	if err := expect(positional, "list_id"); err != nil {
		return err
	}
	a.ListID = positional[0]
	return nil
}

// TaskAssignArgs is the record of task-assign. Assignees are tracker user
// ids.
type TaskAssignArgs struct {
	TaskID    string
	Assignees []string
}

func (a *TaskAssignArgs) DeclareFlags(fs *pflag.FlagSet) {
	fs.StringArrayVarP(&a.Assignees, "assign", "a", nil, "tracker user id to assign (repeatable)")
}

func (a *TaskAssignArgs) Bind(positional []string) error {
	if err := expect(positional, "task_id"); err != nil {
		return err
	}
	for _, id := range a.Assignees {
		if _, err := strconv.Atoi(id); err != nil {
			return fmt.Errorf("assignee must be a numeric user id, got %q", id)
		}
	}
	a.TaskID = positional[0]
	return nil
}

// AssigneeIDs returns the assignees as integers. Bind has validated them.
func (a *TaskAssignArgs) AssigneeIDs() []int {
	ids := make([]int, 0, len(a.Assignees))
	for _, s := range a.Assignees {
		n, _ := strconv.Atoi(s)
		ids = append(ids, n)
	}
	return ids
}

// HistoryArgs is the record of history.
type HistoryArgs struct {
	Limit int
}

func (a *HistoryArgs) DeclareFlags(fs *pflag.FlagSet) {
	fs.IntVarP(&a.Limit, "limit", "n", DefaultHistoryLimit, "number of entries")
}

func (a *HistoryArgs) Bind(positional []string) error {
	if err := expect(positional); err != nil {
		return err
	}
	if a.Limit < 1 || a.Limit > maxHistoryLimit {
		return fmt.Errorf("limit must be between 1 and %d, got %d", maxHistoryLimit, a.Limit)
	}
	return nil
}
