package discord

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/chris/flightai/internal/agent"
	"github.com/chris/flightai/internal/llm"
	"github.com/chris/flightai/internal/tools"
)

const (
	maxMessageLen = 2000
	clearCommand  = "!clear"
	replyTimeout  = 2 * time.Minute
)

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == s.State.User.ID {
		return
	}

	// Only DMs and mentions.
	isDM := m.GuildID == ""
	isMentioned := false
	for _, u := range m.Mentions {
		if u.ID == s.State.User.ID {
			isMentioned = true
			break
		}
	}
	if !isDM && !isMentioned {
		return
	}

	content := strings.TrimSpace(stripMention(m.Content, s.State.User.ID))
	if content == "" {
		return
	}

	s.ChannelTyping(m.ChannelID)

	ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
	defer cancel()

	text, artifacts := b.handle(ctx, m.ChannelID, content)
	for _, chunk := range splitMessage(text, maxMessageLen) {
		if _, err := s.ChannelMessageSend(m.ChannelID, chunk); err != nil {
			slog.Error("discord send failed", "channel", m.ChannelID, "err", err)
			return
		}
	}
	for _, a := range artifacts {
		if a.Kind != "image" {
			continue
		}
		_, err := s.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
			Files: []*discordgo.File{{Name: "destination.png", ContentType: a.MIMEType, Reader: bytes.NewReader(a.Data)}},
		})
		if err != nil {
			slog.Error("discord image send failed", "channel", m.ChannelID, "err", err)
		}
	}
}

// handle runs one exchange on the channel's conversation and returns what to
// post back.
func (b *Bot) handle(ctx context.Context, channelID, content string) (string, []tools.Artifact) {
	ch := b.channel(channelID)
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if content == clearCommand {
		ch.conv.Clear()
		return "Conversation cleared.", nil
	}

	reply, err := b.engine.Respond(ctx, ch.conv, content)
	if err != nil {
		slog.Error("airline exchange failed", "channel", channelID, "err", err)
		return "Something went wrong. Try again?", nil
	}
	b.capHistory(ch)
	return reply.Text, reply.Artifacts
}

// capHistory drops the oldest turns once the channel's conversation grows
// past the history budget. Tool calls stay with their results.
func (b *Bot) capHistory(ch *channel) {
	messages := ch.conv.Messages()
	trimmed := llm.TrimMessages(messages, b.historyTokens)
	if len(trimmed) == len(messages) {
		return
	}
	conv, err := agent.ConversationFrom(trimmed)
	if err != nil {
		slog.Error("trimming channel history", "err", err)
		return
	}
	ch.conv = conv
}

func stripMention(s, userID string) string {
	s = strings.ReplaceAll(s, "<@"+userID+">", "")
	s = strings.ReplaceAll(s, "<@!"+userID+">", "")
	return s
}

// splitMessage cuts s into chunks of at most maxLen characters, preferring
// to break after a newline.
func splitMessage(s string, maxLen int) []string {
	r := []rune(s)
	if len(r) <= maxLen {
		return []string{s}
	}
	var chunks []string
	for len(r) > 0 {
		end := min(maxLen, len(r))
		if end < len(r) {
			for i := end - 1; i > 0; i-- {
				if r[i] == '\n' {
					end = i + 1
					break
				}
			}
		}
		chunks = append(chunks, string(r[:end]))
		r = r[end:]
	}
	return chunks
}
