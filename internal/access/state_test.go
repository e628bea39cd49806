package access

import (
	"errors"
	"testing"

	"github.com/Gerardo115pp/Dexnet/internal/domain"
	"github.com/Gerardo115pp/Dexnet/internal/store"
)

// --- Helpers ---

// countingStore counts config saves and can be told to fail them.
type countingStore struct {
	*store.FileStore
	saves int
	fail  bool
}

func (c *countingStore) SaveConfig(doc *domain.ConfigDocument) error {
	if c.fail {
		return errors.New("read-only filesystem")
	}
	c.saves++
	return c.FileStore.SaveConfig(doc)
}

func newTestServers(t *testing.T) (*Servers, *countingStore) {
	t.Helper()
	cs := &countingStore{FileStore: store.NewFileStore(t.TempDir())}
	s, err := Load(cs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s, cs
}

var guildChannels = []ChannelInfo{
	{ID: "c1", Name: "general", IsText: true},
	{ID: "c2", Name: "voice", IsText: false},
	{ID: "c3", Name: "dev", IsText: true},
}

func loc(channelID string) Location {
	return Location{ServerID: "g1", ServerName: "guild", ChannelID: channelID, ChannelName: channelID + "-name"}
}

// --- Observe ---

func TestObserve_RegistersTextChannelsDisabled(t *testing.T) {
	s, _ := newTestServers(t)
	created, err := s.Observe("g1", "guild", guildChannels)
	if err != nil || !created {
		t.Fatalf("Observe = %v, %v; want true, nil", created, err)
	}

	for _, id := range []string{"c1", "c3"} {
		if got := s.State("g1", id); got != StateDisabled {
			t.Errorf("State(%s) = %s, want %s", id, got, StateDisabled)
		}
	}
	if got := s.State("g1", "c2"); got != StateUnknown {
		t.Errorf("voice channel State = %s, want %s", got, StateUnknown)
	}
}

func TestObserve_ExistingServerIsNotRefreshed(t *testing.T) {
	s, cs := newTestServers(t)
	if _, err := s.Observe("g1", "guild", guildChannels); err != nil {
		t.Fatal(err)
	}
	more := append(guildChannels, ChannelInfo{ID: "c4", Name: "late", IsText: true})
	created, err := s.Observe("g1", "guild", more)
	if err != nil || created {
		t.Fatalf("second Observe = %v, %v; want false, nil", created, err)
	}
	if got := s.State("g1", "c4"); got != StateUnknown {
		t.Errorf("late channel State = %s, want %s", got, StateUnknown)
	}
	if cs.saves != 1 {
		t.Errorf("saves = %d, want 1", cs.saves)
	}
}

// --- EnableChannel ---

func TestEnableChannel_Idempotent(t *testing.T) {
	s, cs := newTestServers(t)
	if _, err := s.Observe("g1", "guild", guildChannels); err != nil {
		t.Fatal(err)
	}
	before := cs.saves

	changed, err := s.EnableChannel(loc("c1"))
	if err != nil || !changed {
		t.Fatalf("first EnableChannel = %v, %v; want true, nil", changed, err)
	}
	changed, err = s.EnableChannel(loc("c1"))
	if err != nil || changed {
		t.Fatalf("second EnableChannel = %v, %v; want false, nil", changed, err)
	}

	if !s.IsChannelEnabled("g1", "c1") {
		t.Error("c1 should be enabled")
	}
	if s.IsChannelEnabled("g1", "c3") {
		t.Error("c3 should stay disabled")
	}
	if cs.saves-before != 1 {
		t.Errorf("saves during enable = %d, want 1", cs.saves-before)
	}
}

func TestEnableChannel_UnseenChannelAndServer(t *testing.T) {
	s, _ := newTestServers(t)
	changed, err := s.EnableChannel(loc("new"))
	if err != nil || !changed {
		t.Fatalf("EnableChannel = %v, %v", changed, err)
	}
	if !s.Known("g1") {
		t.Error("server record should have been created")
	}
	sum := s.Snapshot()
	if len(sum) != 1 || len(sum[0].Channels) != 1 || sum[0].Channels[0].Name != "new-name" {
		t.Errorf("Snapshot = %+v", sum)
	}
}

func TestEnableChannel_PersistsAcrossReload(t *testing.T) {
	s, cs := newTestServers(t)
	if _, err := s.Observe("g1", "guild", guildChannels); err != nil {
		t.Fatal(err)
	}
	if _, err := s.EnableChannel(loc("c3")); err != nil {
		t.Fatal(err)
	}

	reloaded, err := Load(cs.FileStore)
	if err != nil {
		t.Fatal(err)
	}
	if !reloaded.IsChannelEnabled("g1", "c3") {
		t.Error("enablement lost across reload")
	}
}

func TestEnableChannel_SaveFailureRollsBack(t *testing.T) {
	s, cs := newTestServers(t)
	if _, err := s.Observe("g1", "guild", guildChannels); err != nil {
		t.Fatal(err)
	}
	cs.fail = true
	if _, err := s.EnableChannel(loc("c1")); err == nil {
		t.Fatal("expected save error")
	}
	if got := s.State("g1", "c1"); got != StateDisabled {
		t.Errorf("State = %s, want rollback to %s", got, StateDisabled)
	}
	if _, err := s.EnableChannel(Location{ServerID: "g2", ChannelID: "x"}); err == nil {
		t.Fatal("expected save error")
	}
	if s.Known("g2") {
		t.Error("server created by a failed transition should be rolled back")
	}
}

// --- Admins ---

func TestGrantAdmin_OnlyOnce(t *testing.T) {
	s, cs := newTestServers(t)
	if _, err := s.Observe("g1", "guild", guildChannels); err != nil {
		t.Fatal(err)
	}
	before := cs.saves

	for i, want := range []bool{true, false, false} {
		added, err := s.GrantAdmin(loc("c1"), "u1")
		if err != nil {
			t.Fatal(err)
		}
		if added != want {
			t.Errorf("GrantAdmin call %d = %v, want %v", i, added, want)
		}
	}
	if !s.IsAdmin("g1", "u1") || s.IsAdmin("g1", "u2") || s.IsAdmin("g9", "u1") {
		t.Error("admin membership wrong")
	}
	if got := s.Snapshot()[0].Admins; len(got) != 1 {
		t.Errorf("Admins = %v, want exactly one", got)
	}
	if cs.saves-before != 1 {
		t.Errorf("saves = %d, want 1", cs.saves-before)
	}
}

// --- Task lists ---

func TestSaveTaskList(t *testing.T) {
	s, _ := newTestServers(t)
	list := domain.TaskList{"id": "900", "name": "Sprint", "task_count": float64(4)}

	err := s.SaveTaskList("g1", list)
	if !errors.Is(err, domain.ErrServerNotFound) {
		t.Fatalf("err = %v, want ErrServerNotFound", err)
	}

	if _, err := s.Observe("g1", "guild", nil); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveTaskList("g1", list); err != nil {
		t.Fatalf("SaveTaskList: %v", err)
	}
	got := s.TaskLists("g1")
	if len(got) != 1 || got[0].ID() != "900" || got[0].Name() != "Sprint" {
		t.Fatalf("TaskLists = %v", got)
	}
	got[0]["name"] = "mutated"
	if s.TaskLists("g1")[0].Name() != "Sprint" {
		t.Error("TaskLists should return copies")
	}
}

// --- Incomplete locations ---

func TestTransitions_RejectMissingIDs(t *testing.T) {
	s, cs := newTestServers(t)

	if _, err := s.EnableChannel(Location{ServerID: "g1"}); !errors.Is(err, domain.ErrNoChannelID) {
		t.Errorf("EnableChannel without channel err = %v, want %v", err, domain.ErrNoChannelID)
	}
	if _, err := s.EnableChannel(Location{ChannelID: "c1"}); !errors.Is(err, domain.ErrNoServerID) {
		t.Errorf("EnableChannel without server err = %v, want %v", err, domain.ErrNoServerID)
	}
	if _, err := s.GrantAdmin(Location{ChannelID: "c1"}, "u1"); !errors.Is(err, domain.ErrNoServerID) {
		t.Errorf("GrantAdmin without server err = %v, want %v", err, domain.ErrNoServerID)
	}
	if _, err := s.GrantAdmin(loc("c1"), ""); err == nil {
		t.Error("GrantAdmin without user should fail")
	}
	if s.Known("") || s.Known("g1") {
		t.Error("rejected transitions must not create records")
	}
	if cs.saves != 0 {
		t.Errorf("saves = %d, want 0", cs.saves)
	}
}
