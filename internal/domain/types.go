// Package domain holds the data model shared by the stores, the registry,
// the authorization state machine and the command handlers.
//
// The JSON tags match the documents the bot has always written to its data
// directory, so existing config.json, projects.json and team_members.json
// files load without conversion.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Project links a tracker list to a source-host repository.
type Project struct {
	ID         int      `json:"id"`
	Name       string   `json:"name"`
	TaskListID string   `json:"clickup_id"`
	RepoName   string   `json:"github_repo_name"`
	Assignees  []string `json:"assignees"`
}

// TeamMember maps a chat user to their tracker and source-host identities.
type TeamMember struct {
	Username      string `json:"username"`
	TrackerUserID string `json:"clickup_id"`
	GitHubAccount string `json:"github_user_account"`
	ProjectIDs    []int  `json:"projects"`
}

// Channel is the persisted state of one chat channel.
type Channel struct {
	Name    string `json:"name"`
	Enabled bool   `json:"status"`
}

// TaskList is a tracker list descriptor saved verbatim from the tracker API.
// Only id and name are interpreted; everything else is carried through.
type TaskList map[string]any

// ID returns the descriptor's id as text.
func (l TaskList) ID() string {
	return stringField(l, "id")
}

// Name returns the descriptor's display name.
func (l TaskList) Name() string {
	return stringField(l, "name")
}

func stringField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return fmt.Sprintf("%.0f", t)
	default:
		return fmt.Sprint(t)
	}
}

// TrackerState groups the tracker data kept per server.
type TrackerState struct {
	Lists []TaskList `json:"lists"`
}

// ServerRecord is everything the bot remembers about one chat server.
type ServerRecord struct {
	Name       string             `json:"name"`
	Procedures []any              `json:"procedures"`
	Channels   map[string]Channel `json:"channels"`
	Admins     IDList             `json:"admins"`
	Tracker    TrackerState       `json:"click_up"`
}

// NewServerRecord returns an empty record for a freshly observed server.
func NewServerRecord(name string) *ServerRecord {
	return &ServerRecord{
		Name:       name,
		Procedures: []any{},
		Channels:   map[string]Channel{},
		Admins:     IDList{},
		Tracker:    TrackerState{Lists: []TaskList{}},
	}
}

// HasAdmin reports whether userID is in the admin set.
func (r *ServerRecord) HasAdmin(userID string) bool {
	for _, id := range r.Admins {
		if id == userID {
			return true
		}
	}
	return false
}

// IDList is a list of chat snowflake ids. Older documents stored them as
// JSON numbers; both forms decode without losing precision.
type IDList []string

// UnmarshalJSON accepts strings and bare numbers.
func (l *IDList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ids := make(IDList, 0, len(raw))
	for _, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '"' {
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				return err
			}
			ids = append(ids, s)
			continue
		}
		var n json.Number
		if err := json.Unmarshal(item, &n); err != nil {
			return fmt.Errorf("admin id %s: %w", item, err)
		}
		ids = append(ids, n.String())
	}
	*l = ids
	return nil
}

// ConfigDocument is the root of config.json.
type ConfigDocument struct {
	Servers map[string]*ServerRecord `json:"servers_data"`
}

// NewConfigDocument returns the in-memory default used when no file exists.
func NewConfigDocument() *ConfigDocument {
	return &ConfigDocument{Servers: map[string]*ServerRecord{}}
}

// SortedProjects returns the projects ordered by id.
func SortedProjects(projects map[string]*Project) []*Project {
	out := make([]*Project, 0, len(projects))
	for _, p := range projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
