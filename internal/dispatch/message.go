package dispatch

import (
	"context"
	"log/slog"

	"github.com/Gerardo115pp/Dexnet/internal/access"
	"github.com/Gerardo115pp/Dexnet/internal/command"
	"github.com/Gerardo115pp/Dexnet/internal/journal"
)

// User is a chat user referenced by a message.
type User struct {
	ID   string
	Name string
}

// Message is an inbound chat message, reduced to what the pipeline needs.
type Message struct {
	ID          string
	Content     string
	AuthorID    string
	AuthorName  string
	ChannelID   string
	ChannelName string
	ServerID    string
	ServerName  string
	Mentions    []User
	// FromSelf is set when the bot authored the message.
	FromSelf bool
}

// Location returns where the message was posted.
func (m Message) Location() access.Location {
	return access.Location{
		ServerID:    m.ServerID,
		ServerName:  m.ServerName,
		ChannelID:   m.ChannelID,
		ChannelName: m.ChannelName,
	}
}

// Responder is the chat gateway's outbound side.
type Responder interface {
	Send(ctx context.Context, channelID, text string) error
	Reply(ctx context.Context, to Message, text string) error
	Delete(ctx context.Context, msg Message) error
	Typing(ctx context.Context, channelID string) error
}

// Recorder receives one journal entry per handled message.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) error
}

// Request is what a handler receives.
type Request struct {
	Message Message
	Spec    command.Spec
	Args    command.Args
	TraceID string
	Log     *slog.Logger
	// Operator is set for commands run from the operator console.
	Operator bool
}

// HandlerFunc runs one command and returns the reply text. An empty reply
// sends nothing.
type HandlerFunc func(ctx context.Context, req *Request) (string, error)
