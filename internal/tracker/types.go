package tracker

// NewTask is the body of a task creation request. TimeEstimate is in
// milliseconds, as the API expects.
type NewTask struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Status       string `json:"status"`
	Priority     int    `json:"priority"`
	TimeEstimate int64  `json:"time_estimate"`
}

// Task is the subset of a task the bot displays.
type Task struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	URL          string        `json:"url"`
	Status       TaskStatus    `json:"status"`
	Priority     *TaskPriority `json:"priority"`
	TimeEstimate *int64        `json:"time_estimate"`
	Assignees    []User        `json:"assignees"`
}

// TaskStatus is a task's workflow state.
type TaskStatus struct {
	Status string `json:"status"`
}

// TaskPriority is null on tasks without a priority.
type TaskPriority struct {
	Priority string `json:"priority"`
}

// PriorityLabel returns the priority name or "none".
func (t Task) PriorityLabel() string {
	if t.Priority == nil || t.Priority.Priority == "" {
		return "none"
	}
	return t.Priority.Priority
}

// EstimateSeconds returns the time estimate in seconds, zero when unset.
func (t Task) EstimateSeconds() float64 {
	if t.TimeEstimate == nil {
		return 0
	}
	return float64(*t.TimeEstimate) / 1000
}

// User is a workspace member.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     int    `json:"role"`
}

// Team is a workspace.
type Team struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Members []TeamMember `json:"members"`
}

// TeamMember is one membership entry of a workspace.
type TeamMember struct {
	User      User  `json:"user"`
	InvitedBy *User `json:"invited_by"`
}
