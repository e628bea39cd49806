package sourcehost

// User is a GitHub account.
type User struct {
	Login   string `json:"login"`
	Name    string `json:"name"`
	HTMLURL string `json:"html_url"`
}

// NewIssue is the body of an issue creation request.
type NewIssue struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels,omitempty"`
}

// Issue is the subset of an issue the bot displays.
type Issue struct {
	Number    int    `json:"number"`
	Title     string `json:"title"`
	State     string `json:"state"`
	HTMLURL   string `json:"html_url"`
	Assignees []User `json:"assignees"`
}

// AssigneeLogins returns the logins of the issue's assignees.
func (i Issue) AssigneeLogins() []string {
	out := make([]string, len(i.Assignees))
	for n, a := range i.Assignees {
		out[n] = a.Login
	}
	return out
}
