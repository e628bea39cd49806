// Package registry owns the in-memory project and team-member registries.
//
// It is built from the store once at startup and is the only write path
// back to projects.json and team_members.json: every mutation saves the
// affected document in full before returning.
package registry

import (
	"fmt"
	"sync"

	"github.com/Gerardo115pp/Dexnet/internal/domain"
	"github.com/Gerardo115pp/Dexnet/internal/store"
)

// Registry holds projects keyed by name and team members keyed by server id.
type Registry struct {
	mu       sync.RWMutex
	store    store.Store
	projects map[string]*domain.Project
	members  map[string][]domain.TeamMember
}

// Load builds a registry from the store's current documents.
func Load(s store.Store) (*Registry, error) {
	projects, err := s.LoadProjects()
	if err != nil {
		return nil, fmt.Errorf("loading projects: %w", err)
	}
	members, err := s.LoadMembers()
	if err != nil {
		return nil, fmt.Errorf("loading team members: %w", err)
	}
	return &Registry{store: s, projects: projects, members: members}, nil
}

// CreateProject registers a new project under a fresh id one past the
// highest existing id.
func (r *Registry) CreateProject(name, taskListID, repoName string) (domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.projects[name]; ok {
		return domain.Project{}, fmt.Errorf("%w: %q", domain.ErrProjectExists, name)
	}

	p := &domain.Project{
		ID:         r.nextIDLocked(),
		Name:       name,
		TaskListID: taskListID,
		RepoName:   repoName,
		Assignees:  []string{},
	}
	r.projects[name] = p
	if err := r.store.SaveProjects(r.projects); err != nil {
		delete(r.projects, name)
		return domain.Project{}, fmt.Errorf("saving projects: %w", err)
	}
	return clone(p), nil
}

// AddAssignee appends a source-host handle to a project's assignees.
// An unknown project fails with ErrProjectNotFound and nothing is written.
func (r *Registry) AddAssignee(projectName, handle string) (domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.projects[projectName]
	if !ok {
		return domain.Project{}, fmt.Errorf("%w: %q", domain.ErrProjectNotFound, projectName)
	}
	p.Assignees = append(p.Assignees, handle)
	if err := r.store.SaveProjects(r.projects); err != nil {
		p.Assignees = p.Assignees[:len(p.Assignees)-1]
		return domain.Project{}, fmt.Errorf("saving projects: %w", err)
	}
	return clone(p), nil
}

// Project returns a copy of the named project.
func (r *Registry) Project(name string) (domain.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.projects[name]
	if !ok {
		return domain.Project{}, fmt.Errorf("%w: %q", domain.ErrProjectNotFound, name)
	}
	return clone(p), nil
}

// Projects returns copies of all projects ordered by id.
func (r *Registry) Projects() []domain.Project {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sorted := domain.SortedProjects(r.projects)
	out := make([]domain.Project, len(sorted))
	for i, p := range sorted {
		out[i] = clone(p)
	}
	return out
}

// AddMember appends a member to a server's list. Duplicate usernames are
// allowed.
func (r *Registry) AddMember(serverID string, m domain.TeamMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m.ProjectIDs == nil {
		m.ProjectIDs = []int{}
	}
	prev := r.members[serverID]
	r.members[serverID] = append(prev, m)
	if err := r.store.SaveMembers(r.members); err != nil {
		if prev == nil {
			delete(r.members, serverID)
		} else {
			r.members[serverID] = prev
		}
		return fmt.Errorf("saving team members: %w", err)
	}
	return nil
}

// Members returns a copy of a server's team members in insertion order.
func (r *Registry) Members(serverID string) []domain.TeamMember {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src := r.members[serverID]
	out := make([]domain.TeamMember, len(src))
	for i, m := range src {
		m.ProjectIDs = append([]int(nil), m.ProjectIDs...)
		out[i] = m
	}
	return out
}

// AllMembers returns a copy of every server's member list.
func (r *Registry) AllMembers() map[string][]domain.TeamMember {
	r.mu.RLock()
	ids := make([]string, 0, len(r.members))
	for id := range r.members {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	out := make(map[string][]domain.TeamMember, len(ids))
	for _, id := range ids {
		out[id] = r.Members(id)
	}
	return out
}

func (r *Registry) nextIDLocked() int {
	maxID := 0
	for _, p := range r.projects {
		if p.ID > maxID {
			maxID = p.ID
		}
	}
	return maxID + 1
}

func clone(p *domain.Project) domain.Project {
	c := *p
	c.Assignees = append([]string{}, p.Assignees...)
	return c
}
