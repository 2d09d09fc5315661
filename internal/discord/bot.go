// Package discord exposes the airline assistant as a Discord bot that
// answers direct messages and mentions.
package discord

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/chris/flightai/internal/agent"
)

// defaultHistoryTokens bounds a channel's stored conversation when the
// engine has no context budget of its own.
const defaultHistoryTokens = 8000

type Bot struct {
	session       *discordgo.Session
	engine        *agent.Engine
	systemPrompt  string
	historyTokens int

	mu       sync.Mutex
	channels map[string]*channel
}

// channel owns one Conversation; mu keeps exchanges on it sequential.
type channel struct {
	mu   sync.Mutex
	conv *agent.Conversation
}

func newBot(engine *agent.Engine, systemPrompt string) *Bot {
	historyTokens := engine.MaxContextTokens
	if historyTokens <= 0 {
		historyTokens = defaultHistoryTokens
	}
	return &Bot{
		engine:        engine,
		systemPrompt:  systemPrompt,
		historyTokens: historyTokens,
		channels:      make(map[string]*channel),
	}
}

// NewBot connects to Discord and starts answering.
func NewBot(token string, engine *agent.Engine, systemPrompt string) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating Discord session: %w", err)
	}

	bot := newBot(engine, systemPrompt)
	bot.session = s
	s.AddHandler(bot.onMessage)
	s.Identify.Intents = discordgo.IntentsDirectMessages | discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	if err := s.Open(); err != nil {
		return nil, fmt.Errorf("opening Discord connection: %w", err)
	}

	slog.Info("discord bot connected", "user", s.State.User.Username)
	return bot, nil
}

func (b *Bot) Close() {
	b.session.Close()
}

func (b *Bot) channel(id string) *channel {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.channels[id]
	if !ok {
		ch = &channel{conv: agent.NewConversation(b.systemPrompt)}
		b.channels[id] = ch
	}
	return ch
}
