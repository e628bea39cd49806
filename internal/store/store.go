// Package store persists the bot's three JSON documents (server
// configuration, project registry, team-member registry) in a data
// directory.
//
// It is pure data access: every Save rewrites its document in full and every
// Load of a missing file yields an empty default rather than an error.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Gerardo115pp/Dexnet/internal/domain"
)

const (
	// ConfigFile holds the per-server authorization records.
	ConfigFile = "config.json"
	// ProjectsFile maps project name to project.
	ProjectsFile = "projects.json"
	// MembersFile maps server id to its team members.
	MembersFile = "team_members.json"
)

// Store defines the persistence interface for the bot's documents.
// Abstracted so the registry and the access state machine can be tested
// against fakes.
type Store interface {
	LoadConfig() (*domain.ConfigDocument, error)
	SaveConfig(doc *domain.ConfigDocument) error
	LoadProjects() (map[string]*domain.Project, error)
	SaveProjects(projects map[string]*domain.Project) error
	LoadMembers() (map[string][]domain.TeamMember, error)
	SaveMembers(members map[string][]domain.TeamMember) error
}

// FileStore implements Store on the local filesystem.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir. The directory is created on
// the first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the data directory.
func (fs *FileStore) Dir() string {
	return fs.dir
}

// Path returns the absolute location of one of the named documents.
func (fs *FileStore) Path(name string) string {
	return filepath.Join(fs.dir, name)
}

// LoadConfig reads config.json. Unknown top-level keys are ignored.
func (fs *FileStore) LoadConfig() (*domain.ConfigDocument, error) {
	doc := domain.NewConfigDocument()
	found, err := fs.readJSON(ConfigFile, doc)
	if err != nil {
		return nil, err
	}
	if !found || doc.Servers == nil {
		doc.Servers = map[string]*domain.ServerRecord{}
	}
	for id, rec := range doc.Servers {
		if rec == nil {
			delete(doc.Servers, id)
			continue
		}
		normalizeServer(rec)
	}
	return doc, nil
}

// SaveConfig rewrites config.json.
func (fs *FileStore) SaveConfig(doc *domain.ConfigDocument) error {
	return fs.writeJSON(ConfigFile, doc)
}

// LoadProjects reads projects.json.
func (fs *FileStore) LoadProjects() (map[string]*domain.Project, error) {
	projects := map[string]*domain.Project{}
	if _, err := fs.readJSON(ProjectsFile, &projects); err != nil {
		return nil, err
	}
	if projects == nil {
		projects = map[string]*domain.Project{}
	}
	for name, p := range projects {
		if p == nil {
			delete(projects, name)
			continue
		}
		if p.Assignees == nil {
			p.Assignees = []string{}
		}
	}
	return projects, nil
}

// SaveProjects rewrites projects.json.
func (fs *FileStore) SaveProjects(projects map[string]*domain.Project) error {
	return fs.writeJSON(ProjectsFile, projects)
}

// LoadMembers reads team_members.json, keyed by server id.
func (fs *FileStore) LoadMembers() (map[string][]domain.TeamMember, error) {
	members := map[string][]domain.TeamMember{}
	if _, err := fs.readJSON(MembersFile, &members); err != nil {
		return nil, err
	}
	if members == nil {
		members = map[string][]domain.TeamMember{}
	}
	return members, nil
}

// SaveMembers rewrites team_members.json.
func (fs *FileStore) SaveMembers(members map[string][]domain.TeamMember) error {
	return fs.writeJSON(MembersFile, members)
}

// readJSON decodes the named document into v. A missing file leaves v
// untouched and reports found=false.
func (fs *FileStore) readJSON(name string, v any) (bool, error) {
	data, err := os.ReadFile(fs.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("reading %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("parsing %s: %w", name, err)
	}
	return true, nil
}

// writeJSON marshals v with indentation and replaces the named document.
// The new content goes to a sibling temp file first and is renamed over the
// old one, so a crash mid-write never leaves a truncated document.
func (fs *FileStore) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", name, err)
	}

	if err := os.MkdirAll(fs.dir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	path := fs.Path(name)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replacing %s: %w", name, err)
	}
	return nil
}

// normalizeServer fills the collections an older or hand-edited file may
// have left out.
func normalizeServer(rec *domain.ServerRecord) {
	if rec.Channels == nil {
		rec.Channels = map[string]domain.Channel{}
	}
	if rec.Admins == nil {
		rec.Admins = domain.IDList{}
	}
	if rec.Procedures == nil {
		rec.Procedures = []any{}
	}
	if rec.Tracker.Lists == nil {
		rec.Tracker.Lists = []domain.TaskList{}
	}
}
