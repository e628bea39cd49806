package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Gerardo115pp/Dexnet/internal/domain"
)

// --- Missing files ---

func TestLoad_MissingFilesYieldEmptyDefaults(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "does-not-exist"))

	doc, err := fs.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if doc.Servers == nil || len(doc.Servers) != 0 {
		t.Errorf("Servers = %v, want empty map", doc.Servers)
	}

	projects, err := fs.LoadProjects()
	if err != nil {
		t.Fatalf("LoadProjects: %v", err)
	}
	if len(projects) != 0 {
		t.Errorf("projects = %v, want empty", projects)
	}

	members, err := fs.LoadMembers()
	if err != nil {
		t.Fatalf("LoadMembers: %v", err)
	}
	if len(members) != 0 {
		t.Errorf("members = %v, want empty", members)
	}
}

func TestLoad_CorruptFileIsAnError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ProjectsFile), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(dir).LoadProjects(); err == nil {
		t.Fatal("expected parse error for corrupt projects.json")
	}
}

func TestLoad_NullDocumentsYieldWritableMaps(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{ConfigFile, ProjectsFile, MembersFile} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("null\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	fs := NewFileStore(dir)

	doc, err := fs.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if doc.Servers == nil {
		t.Error("Servers = nil, want empty map")
	}

	projects, err := fs.LoadProjects()
	if err != nil {
		t.Fatalf("LoadProjects: %v", err)
	}
	if projects == nil {
		t.Fatal("projects = nil, want empty map")
	}
	projects["apollo"] = &domain.Project{Name: "apollo"}

	members, err := fs.LoadMembers()
	if err != nil {
		t.Fatalf("LoadMembers: %v", err)
	}
	if members == nil {
		t.Fatal("members = nil, want empty map")
	}
	members["111"] = append(members["111"], domain.TeamMember{Username: "ana"})
}

// --- Projects ---

func TestProjects_RoundTripPreservesFieldsAndOrder(t *testing.T) {
	dir := t.TempDir()
	want := map[string]*domain.Project{
		"apollo": {ID: 1, Name: "apollo", TaskListID: "901", RepoName: "apollo-api", Assignees: []string{"zed", "amy", "mia"}},
		"hermes": {ID: 2, Name: "hermes", TaskListID: "902", RepoName: "hermes-web", Assignees: []string{}},
	}

	if err := NewFileStore(dir).SaveProjects(want); err != nil {
		t.Fatalf("SaveProjects: %v", err)
	}

	got, err := NewFileStore(dir).LoadProjects()
	if err != nil {
		t.Fatalf("LoadProjects: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("loaded %d projects, want %d", len(got), len(want))
	}
	for name, w := range want {
		g, ok := got[name]
		if !ok {
			t.Fatalf("project %q missing after reload", name)
		}
		if g.ID != w.ID || g.Name != w.Name || g.TaskListID != w.TaskListID || g.RepoName != w.RepoName {
			t.Errorf("project %q = %+v, want %+v", name, g, w)
		}
		if strings.Join(g.Assignees, ",") != strings.Join(w.Assignees, ",") {
			t.Errorf("project %q assignees = %v, want %v", name, g.Assignees, w.Assignees)
		}
	}
}

func TestSaveProjects_PrettyPrintedWithLegacyKeys(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileStore(dir)
	projects := map[string]*domain.Project{
		"apollo": {ID: 1, Name: "apollo", TaskListID: "901", RepoName: "apollo-api", Assignees: []string{}},
	}
	if err := fs.SaveProjects(projects); err != nil {
		t.Fatalf("SaveProjects: %v", err)
	}

	data, err := os.ReadFile(fs.Path(ProjectsFile))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	text := string(data)
	for _, key := range []string{`"clickup_id": "901"`, `"github_repo_name": "apollo-api"`, "\n    "} {
		if !strings.Contains(text, key) {
			t.Errorf("projects.json missing %q:\n%s", key, text)
		}
	}
	if _, err := os.Stat(fs.Path(ProjectsFile) + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after save")
	}
}

// --- Config ---

func TestLoadConfig_AcceptsNumericAdminIDs(t *testing.T) {
	dir := t.TempDir()
	legacy := `{
    "servers_data": {
        "111": {
            "name": "guild",
            "procedures": [],
            "channels": {"222": {"name": "general", "status": true}},
            "admins": [123456789012345678, "42"],
            "click_up": {"lists": [{"id": "900", "name": "Sprint"}]}
        }
    }
}`
	if err := os.WriteFile(filepath.Join(dir, ConfigFile), []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := NewFileStore(dir).LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	rec := doc.Servers["111"]
	if rec == nil {
		t.Fatal("server 111 missing")
	}
	if !rec.HasAdmin("123456789012345678") || !rec.HasAdmin("42") {
		t.Errorf("Admins = %v, want both ids preserved", rec.Admins)
	}
	if !rec.Channels["222"].Enabled {
		t.Error("channel 222 should be enabled")
	}
	if len(rec.Tracker.Lists) != 1 || rec.Tracker.Lists[0].Name() != "Sprint" {
		t.Errorf("Lists = %v, want one list named Sprint", rec.Tracker.Lists)
	}
}

func TestLoadConfig_NormalizesMissingCollections(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFile), []byte(`{"servers_data": {"1": {"name": "g"}}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := NewFileStore(dir).LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	rec := doc.Servers["1"]
	if rec.Channels == nil || rec.Admins == nil || rec.Tracker.Lists == nil {
		t.Errorf("record not normalized: %+v", rec)
	}
}

// --- Members ---

func TestMembers_RoundTripKeyedByServer(t *testing.T) {
	dir := t.TempDir()
	want := map[string][]domain.TeamMember{
		"111": {
			{Username: "ana", TrackerUserID: "77", GitHubAccount: "ana-gh", ProjectIDs: []int{1}},
			{Username: "ana", TrackerUserID: "78", GitHubAccount: "ana2", ProjectIDs: []int{}},
		},
		"222": {{Username: "bo", TrackerUserID: "9", GitHubAccount: "bo-gh"}},
	}
	if err := NewFileStore(dir).SaveMembers(want); err != nil {
		t.Fatalf("SaveMembers: %v", err)
	}
	got, err := NewFileStore(dir).LoadMembers()
	if err != nil {
		t.Fatalf("LoadMembers: %v", err)
	}
	if len(got["111"]) != 2 || len(got["222"]) != 1 {
		t.Fatalf("members = %+v", got)
	}
	if got["111"][1].TrackerUserID != "78" {
		t.Errorf("second member of 111 = %+v, order not preserved", got["111"][1])
	}
}
