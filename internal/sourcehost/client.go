// Package sourcehost is a GitHub v3 REST client for the issue and user
// endpoints. Repositories are always looked up under the configured owner
// account, and requests authenticate with HTTP Basic (account + token).
package sourcehost

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Gerardo115pp/Dexnet/internal/domain"
	"github.com/Gerardo115pp/Dexnet/internal/rest"
)

// DefaultBaseURL is the public GitHub API root.
const DefaultBaseURL = "https://api.github.com"

// APIError is a non-2xx response.
type APIError = rest.APIError

// Client issues requests on behalf of one account.
type Client struct {
	api   *rest.Client
	owner string
}

// New creates a client. owner is both the Basic auth user and the owner of
// every repository the client touches.
func New(baseURL, owner, token string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	api := rest.New(baseURL, httpClient, func(r *http.Request) {
		r.SetBasicAuth(owner, token)
		r.Header.Set("Accept", "application/vnd.github.v3+json")
		r.Header.Set("User-Agent", "dexnet")
	})
	return &Client{api: api, owner: owner}
}

// Owner returns the account repositories are resolved under.
func (c *Client) Owner() string {
	return c.owner
}

// GetUser looks up a user. An unknown login fails with domain.ErrUserNotFound.
func (c *Client) GetUser(ctx context.Context, login string) (*User, error) {
	var out User
	if err := c.api.Do(ctx, http.MethodGet, "/users/"+url.PathEscape(login), nil, &out); err != nil {
		if rest.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, login)
		}
		return nil, fmt.Errorf("fetching user: %w", err)
	}
	return &out, nil
}

// CreateIssue opens an issue on one of the owner's repositories.
func (c *Client) CreateIssue(ctx context.Context, repo string, issue NewIssue) (*Issue, error) {
	var out Issue
	if err := c.api.Do(ctx, http.MethodPost, c.repoPath(repo)+"/issues", issue, &out); err != nil {
		return nil, fmt.Errorf("creating issue: %w", err)
	}
	return &out, nil
}

// ListIssues returns the open issues of a repository.
func (c *Client) ListIssues(ctx context.Context, repo string) ([]Issue, error) {
	var out []Issue
	if err := c.api.Do(ctx, http.MethodGet, c.repoPath(repo)+"/issues", nil, &out); err != nil {
		return nil, fmt.Errorf("listing issues: %w", err)
	}
	return out, nil
}

// AddAssignees adds users to an issue's assignees.
func (c *Client) AddAssignees(ctx context.Context, repo string, number int, logins ...string) (*Issue, error) {
	body := map[string][]string{"assignees": logins}
	path := c.repoPath(repo) + "/issues/" + strconv.Itoa(number) + "/assignees"
	var out Issue
	if err := c.api.Do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, fmt.Errorf("assigning issue: %w", err)
	}
	return &out, nil
}

func (c *Client) repoPath(repo string) string {
	return "/repos/" + url.PathEscape(c.owner) + "/" + url.PathEscape(repo)
}
