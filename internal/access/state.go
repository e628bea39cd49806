// Package access is the authorization state machine: per-server records of
// enabled channels, admins and saved task lists.
//
// Every transition saves the whole config document. A failed save rolls the
// in-memory transition back so memory and disk never disagree.
package access

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Gerardo115pp/Dexnet/internal/domain"
	"github.com/Gerardo115pp/Dexnet/internal/store"
)

// Servers owns the config document for the lifetime of the process.
type Servers struct {
	mu    sync.RWMutex
	store store.Store
	doc   *domain.ConfigDocument
}

// Load reads the config document from the store.
func Load(s store.Store) (*Servers, error) {
	doc, err := s.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &Servers{store: s, doc: doc}, nil
}

// Observe records a server the first time the gateway reports it. Every text
// channel becomes known-disabled; other channel kinds are skipped. A server
// that already has a record is left alone, so channels created later stay
// unknown until explicitly enabled.
func (s *Servers) Observe(serverID, name string, channels []ChannelInfo) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.doc.Servers[serverID]; ok {
		return false, nil
	}
	rec := domain.NewServerRecord(name)
	for _, ch := range channels {
		if !ch.IsText {
			continue
		}
		rec.Channels[ch.ID] = domain.Channel{Name: ch.Name, Enabled: false}
	}
	s.doc.Servers[serverID] = rec
	if err := s.store.SaveConfig(s.doc); err != nil {
		delete(s.doc.Servers, serverID)
		return false, fmt.Errorf("saving config: %w", err)
	}
	return true, nil
}

// Known reports whether a record exists for serverID.
func (s *Servers) Known(serverID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.doc.Servers[serverID]
	return ok
}

// State returns the channel's current state.
func (s *Servers) State(serverID, channelID string) ChannelState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.doc.Servers[serverID]
	if !ok {
		return StateUnknown
	}
	ch, ok := rec.Channels[channelID]
	if !ok {
		return StateUnknown
	}
	return channelState(ch)
}

// IsChannelEnabled reports whether the channel is known-enabled.
func (s *Servers) IsChannelEnabled(serverID, channelID string) bool {
	return s.State(serverID, channelID) == StateEnabled
}

// EnableChannel moves a channel to known-enabled. It reports whether a
// transition happened: enabling an already enabled channel is a no-op and
// writes nothing. A channel or server without a record is created on the
// spot. Both ids must be set.
func (s *Servers) EnableChannel(loc Location) (bool, error) {
	if loc.ServerID == "" {
		return false, domain.ErrNoServerID
	}
	if loc.ChannelID == "" {
		return false, domain.ErrNoChannelID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, created := s.ensureLocked(loc)
	prev, existed := rec.Channels[loc.ChannelID]
	if existed && prev.Enabled {
		return false, nil
	}

	name := prev.Name
	if name == "" {
		name = loc.ChannelName
	}
	rec.Channels[loc.ChannelID] = domain.Channel{Name: name, Enabled: true}
	if err := s.store.SaveConfig(s.doc); err != nil {
		switch {
		case created:
			delete(s.doc.Servers, loc.ServerID)
		case existed:
			rec.Channels[loc.ChannelID] = prev
		default:
			delete(rec.Channels, loc.ChannelID)
		}
		return false, fmt.Errorf("saving config: %w", err)
	}
	return true, nil
}

// GrantAdmin adds userID to the server's admin set. It reports false without
// writing when the user already is an admin.
func (s *Servers) GrantAdmin(loc Location, userID string) (bool, error) {
	if loc.ServerID == "" {
		return false, domain.ErrNoServerID
	}
	if userID == "" {
		return false, domain.ErrUserNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, created := s.ensureLocked(loc)
	if rec.HasAdmin(userID) {
		return false, nil
	}
	rec.Admins = append(rec.Admins, userID)
	if err := s.store.SaveConfig(s.doc); err != nil {
		if created {
			delete(s.doc.Servers, loc.ServerID)
		} else {
			rec.Admins = rec.Admins[:len(rec.Admins)-1]
		}
		return false, fmt.Errorf("saving config: %w", err)
	}
	return true, nil
}

// IsAdmin reports whether userID is in the server's admin set.
func (s *Servers) IsAdmin(serverID, userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.doc.Servers[serverID]
	return ok && rec.HasAdmin(userID)
}

// SaveTaskList appends a tracker list descriptor to the server record.
func (s *Servers) SaveTaskList(serverID string, list domain.TaskList) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.doc.Servers[serverID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrServerNotFound, serverID)
	}
	rec.Tracker.Lists = append(rec.Tracker.Lists, list)
	if err := s.store.SaveConfig(s.doc); err != nil {
		rec.Tracker.Lists = rec.Tracker.Lists[:len(rec.Tracker.Lists)-1]
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}

// TaskLists returns the descriptors saved for a server, oldest first.
func (s *Servers) TaskLists(serverID string) []domain.TaskList {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.doc.Servers[serverID]
	if !ok {
		return nil
	}
	out := make([]domain.TaskList, len(rec.Tracker.Lists))
	for i, l := range rec.Tracker.Lists {
		c := make(domain.TaskList, len(l))
		for k, v := range l {
			c[k] = v
		}
		out[i] = c
	}
	return out
}

// Snapshot summarizes every server record, ordered by server id.
func (s *Servers) Snapshot() []ServerSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ServerSummary, 0, len(s.doc.Servers))
	for id, rec := range s.doc.Servers {
		sum := ServerSummary{
			ID:        id,
			Name:      rec.Name,
			Admins:    append([]string{}, rec.Admins...),
			Channels:  make([]ChannelSummary, 0, len(rec.Channels)),
			TaskLists: make([]string, 0, len(rec.Tracker.Lists)),
		}
		for chID, ch := range rec.Channels {
			sum.Channels = append(sum.Channels, ChannelSummary{ID: chID, Name: ch.Name, State: channelState(ch)})
		}
		sort.Slice(sum.Channels, func(i, j int) bool { return sum.Channels[i].ID < sum.Channels[j].ID })
		for _, l := range rec.Tracker.Lists {
			sum.TaskLists = append(sum.TaskLists, l.Name())
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ensureLocked returns the server record, creating an empty one if the
// gateway never reported the server.
func (s *Servers) ensureLocked(loc Location) (*domain.ServerRecord, bool) {
	if rec, ok := s.doc.Servers[loc.ServerID]; ok {
		return rec, false
	}
	rec := domain.NewServerRecord(loc.ServerName)
	s.doc.Servers[loc.ServerID] = rec
	return rec, true
}
