package access

import "github.com/Gerardo115pp/Dexnet/internal/domain"

// ChannelState is the authorization state of one (server, channel) pair.
type ChannelState string

const (
	StateUnknown  ChannelState = "unknown"
	StateDisabled ChannelState = "known-disabled"
	StateEnabled  ChannelState = "known-enabled"
)

// Location identifies where a message was posted. Names are only used when a
// record has to be created.
type Location struct {
	ServerID    string
	ServerName  string
	ChannelID   string
	ChannelName string
}

// ChannelInfo describes a channel as enumerated by the chat gateway.
type ChannelInfo struct {
	ID     string
	Name   string
	IsText bool
}

// ServerSummary is a read-only view of one server record.
type ServerSummary struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Admins    []string         `json:"admins"`
	Channels  []ChannelSummary `json:"channels"`
	TaskLists []string         `json:"task_lists"`
}

// ChannelSummary is one channel within a ServerSummary.
type ChannelSummary struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	State ChannelState `json:"state"`
}

func channelState(ch domain.Channel) ChannelState {
	if ch.Enabled {
		return StateEnabled
	}
	return StateDisabled
}
