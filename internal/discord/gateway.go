// Package discord connects the dispatcher to the Discord gateway.
//
// The session delivers events one at a time (SyncEvents), so the dispatcher
// sees messages in arrival order. Every guild the bot can see is offered to
// the authorization state on GUILD_CREATE; every message is reduced to a
// dispatch.Message and handed to the dispatcher.
package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/Gerardo115pp/Dexnet/internal/access"
	"github.com/Gerardo115pp/Dexnet/internal/dispatch"
)

// Intents requested on identify. Message content is privileged and must be
// enabled for the application.
const Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

// MessageHandler consumes inbound messages.
type MessageHandler interface {
	Handle(ctx context.Context, msg dispatch.Message)
}

// ServerObserver registers servers as they become available.
type ServerObserver interface {
	Observe(serverID, name string, channels []access.ChannelInfo) (bool, error)
}

// Gateway owns the Discord session.
type Gateway struct {
	session *discordgo.Session
	log     *slog.Logger
}

// New creates a gateway for a bot token. Nothing connects until Run.
func New(token string, log *slog.Logger) (*Gateway, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	session.Identify.Intents = Intents
	session.SyncEvents = true
	session.StateEnabled = true
	return &Gateway{session: session, log: log}, nil
}

// Responder returns the outbound side of the session.
func (g *Gateway) Responder() dispatch.Responder {
	return &Responder{session: g.session}
}

// Run opens the session, routes events until ctx is done and closes the
// session.
func (g *Gateway) Run(ctx context.Context, handler MessageHandler, observer ServerObserver) error {
	g.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		g.log.Info("connected to gateway", "user", r.User.Username, "guilds", len(r.Guilds))
	})
	g.session.AddHandler(func(_ *discordgo.Session, e *discordgo.GuildCreate) {
		if e.Guild == nil || e.Unavailable {
			return
		}
		added, err := observer.Observe(e.ID, e.Name, textChannels(e.Guild))
		if err != nil {
			g.log.Error("registering server", "server_id", e.ID, "error", err)
			return
		}
		if added {
			g.log.Info("server registered", "server_id", e.ID, "server", e.Name)
		}
	})
	g.session.AddHandler(func(s *discordgo.Session, e *discordgo.MessageCreate) {
		if e.Message == nil || e.Author == nil {
			return
		}
		handler.Handle(ctx, g.convert(s, e.Message))
	})

	if err := g.session.Open(); err != nil {
		return fmt.Errorf("opening discord session: %w", err)
	}
	<-ctx.Done()
	g.log.Info("closing gateway session")
	if err := g.session.Close(); err != nil {
		return fmt.Errorf("closing discord session: %w", err)
	}
	return nil
}

// convert resolves channel and guild names from the session state, falling
// back to ids when the cache has not seen them.
func (g *Gateway) convert(s *discordgo.Session, m *discordgo.Message) dispatch.Message {
	selfID := ""
	if s.State != nil && s.State.User != nil {
		selfID = s.State.User.ID
	}
	channelName, serverName := m.ChannelID, m.GuildID
	if s.State != nil {
		if ch, err := s.State.Channel(m.ChannelID); err == nil {
			channelName = ch.Name
		}
		if m.GuildID != "" {
			if guild, err := s.State.Guild(m.GuildID); err == nil {
				serverName = guild.Name
			}
		}
	}
	return toMessage(selfID, m, channelName, serverName)
}

// toMessage reduces a gateway message. Direct messages carry no guild id
// and are ignored by the dispatcher.
func toMessage(selfID string, m *discordgo.Message, channelName, serverName string) dispatch.Message {
	msg := dispatch.Message{
		ID:          m.ID,
		Content:     m.Content,
		ChannelID:   m.ChannelID,
		ChannelName: channelName,
		ServerID:    m.GuildID,
		ServerName:  serverName,
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.AuthorName = m.Author.Username
		msg.FromSelf = selfID != "" && m.Author.ID == selfID
	}
	for _, u := range m.Mentions {
		if u == nil {
			continue
		}
		msg.Mentions = append(msg.Mentions, dispatch.User{ID: u.ID, Name: u.Username})
	}
	return msg
}

// textChannels lists the guild's text channels.
func textChannels(g *discordgo.Guild) []access.ChannelInfo {
	var out []access.ChannelInfo
	for _, ch := range g.Channels {
		if ch == nil {
			continue
		}
		out = append(out, access.ChannelInfo{
			ID:     ch.ID,
			Name:   ch.Name,
			IsText: ch.Type == discordgo.ChannelTypeGuildText,
		})
	}
	return out
}
