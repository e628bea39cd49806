// Package tracker is a small client for the ClickUp v2 REST API, covering the
// list, task and team resources the bot's commands use.
//
// Every call sends and receives JSON. Any 2xx is success; anything else comes
// back as an *APIError carrying the status and body for diagnostics.
package tracker

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Gerardo115pp/Dexnet/internal/domain"
	"github.com/Gerardo115pp/Dexnet/internal/rest"
)

// DefaultBaseURL is the public ClickUp API root.
const DefaultBaseURL = "https://api.clickup.com/api/v2"

// APIError is a non-2xx response.
type APIError = rest.APIError

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool { return rest.IsNotFound(err) }

// Client talks to one ClickUp workspace with a personal token.
type Client struct {
	api *rest.Client
}

// New creates a client. A nil httpClient uses http.DefaultClient.
func New(baseURL, token string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{api: rest.New(baseURL, httpClient, func(r *http.Request) {
		r.Header.Set("Authorization", token)
	})}
}

// CreateTask adds a task to a list.
func (c *Client) CreateTask(ctx context.Context, listID string, task NewTask) (*Task, error) {
	var out Task
	if err := c.api.Do(ctx, http.MethodPost, "/list/"+url.PathEscape(listID)+"/task", task, &out); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	return &out, nil
}

// ListTasks returns the tasks of a list.
func (c *Client) ListTasks(ctx context.Context, listID string) ([]Task, error) {
	var out struct {
		Tasks []Task `json:"tasks"`
	}
	if err := c.api.Do(ctx, http.MethodGet, "/list/"+url.PathEscape(listID)+"/task", nil, &out); err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return out.Tasks, nil
}

// GetList fetches a list descriptor as the API returns it. A missing list
// fails with domain.ErrListNotFound.
func (c *Client) GetList(ctx context.Context, listID string) (domain.TaskList, error) {
	out := domain.TaskList{}
	if err := c.api.Do(ctx, http.MethodGet, "/list/"+url.PathEscape(listID), nil, &out); err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrListNotFound, listID)
		}
		return nil, fmt.Errorf("fetching list: %w", err)
	}
	return out, nil
}

// ListMembers returns the users with access to a list.
func (c *Client) ListMembers(ctx context.Context, listID string) ([]User, error) {
	var out struct {
		Members []User `json:"members"`
	}
	if err := c.api.Do(ctx, http.MethodGet, "/list/"+url.PathEscape(listID)+"/member", nil, &out); err != nil {
		return nil, fmt.Errorf("listing list members: %w", err)
	}
	return out.Members, nil
}

// Teams returns the workspaces the token can see.
func (c *Client) Teams(ctx context.Context) ([]Team, error) {
	var out struct {
		Teams []Team `json:"teams"`
	}
	if err := c.api.Do(ctx, http.MethodGet, "/team", nil, &out); err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	return out.Teams, nil
}

// AddAssignees assigns users to an existing task.
func (c *Client) AddAssignees(ctx context.Context, taskID string, userIDs []int) error {
	body := map[string]any{
		"assignees": map[string][]int{"add": userIDs},
	}
	if err := c.api.Do(ctx, http.MethodPut, "/task/"+url.PathEscape(taskID), body, nil); err != nil {
		return fmt.Errorf("assigning task: %w", err)
	}
	return nil
}
