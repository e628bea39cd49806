package discord

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/Gerardo115pp/Dexnet/internal/dispatch"
)

// MaxMessageLength is the gateway's per-message character limit.
const MaxMessageLength = 2000

const (
	fence      = "```"
	fenceClose = "\n" + fence
	fenceOpen  = fence + "\n"
)

// Responder implements dispatch.Responder on a session. Long texts are
// sent as several messages; only the first one of a reply references the
// original message.
type Responder struct {
	session *discordgo.Session
}

// Send posts text to a channel.
func (r *Responder) Send(ctx context.Context, channelID, text string) error {
	for _, part := range splitMessage(text, MaxMessageLength) {
		if _, err := r.session.ChannelMessageSend(channelID, part, discordgo.WithContext(ctx)); err != nil {
			return err
		}
	}
	return nil
}

// Reply answers a message.
func (r *Responder) Reply(ctx context.Context, to dispatch.Message, text string) error {
	ref := &discordgo.MessageReference{MessageID: to.ID, ChannelID: to.ChannelID, GuildID: to.ServerID}
	for i, part := range splitMessage(text, MaxMessageLength) {
		var err error
		if i == 0 {
			_, err = r.session.ChannelMessageSendReply(to.ChannelID, part, ref, discordgo.WithContext(ctx))
		} else {
			_, err = r.session.ChannelMessageSend(to.ChannelID, part, discordgo.WithContext(ctx))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a message.
func (r *Responder) Delete(ctx context.Context, msg dispatch.Message) error {
	return r.session.ChannelMessageDelete(msg.ChannelID, msg.ID, discordgo.WithContext(ctx))
}

// Typing shows the typing indicator in a channel.
func (r *Responder) Typing(ctx context.Context, channelID string) error {
	return r.session.ChannelTyping(channelID, discordgo.WithContext(ctx))
}

// splitMessage cuts text into parts of at most limit bytes, preferring line
// breaks. A code fence left open by a cut is closed at the end of the part
// and reopened at the start of the next one.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var parts []string
	for len(text) > limit {
		room := limit - len(fenceClose)
		cut := strings.LastIndex(text[:room], "\n")
		if cut < room/2 {
			cut = room
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}
		part, rest := text[:cut], strings.TrimPrefix(text[cut:], "\n")
		if strings.Count(part, fence)%2 == 1 {
			part += fenceClose
			if strings.TrimSpace(rest) == fence {
				rest = ""
			} else {
				rest = fenceOpen + rest
			}
		}
		parts = append(parts, part)
		text = rest
	}
	if strings.TrimSpace(text) != "" {
		parts = append(parts, text)
	}
	return parts
}
