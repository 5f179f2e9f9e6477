// Package discord connects to Discord via the Bot API using gateway
// events and bridges messages onto the bus.
package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/penguware/crackgpt/internal/bus"
	"github.com/penguware/crackgpt/internal/channels"
	"github.com/penguware/crackgpt/internal/config"
)

// Channel is the Discord transport.
type Channel struct {
	*channels.BaseChannel
	session   *discordgo.Session
	botUserID string // populated on start
}

// New creates a new Discord channel from config.
func New(cfg config.DiscordConfig, router bus.MessageRouter) (*Channel, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	base := channels.NewBaseChannel("discord", router, cfg.AllowedChannels)

	return &Channel{
		BaseChannel: base,
		session:     session,
	}, nil
}

// Start opens the Discord gateway connection and begins receiving events.
func (c *Channel) Start(_ context.Context) error {
	slog.Info("starting discord bot")

	c.session.AddHandler(c.handleMessage)

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	user, err := c.session.User("@me")
	if err != nil {
		c.session.Close()
		return fmt.Errorf("fetch discord bot identity: %w", err)
	}
	c.botUserID = user.ID

	c.SetRunning(true)
	slog.Info("discord bot connected", "username", user.Username, "id", user.ID)

	return nil
}

// Stop closes the Discord gateway connection.
func (c *Channel) Stop(_ context.Context) error {
	slog.Info("stopping discord bot")
	c.SetRunning(false)
	return c.session.Close()
}

// Send delivers an outbound message to a Discord channel.
func (c *Channel) Send(_ context.Context, msg bus.OutboundMessage) error {
	if !c.IsRunning() {
		return fmt.Errorf("discord bot not running")
	}
	if msg.ChatID == "" {
		return fmt.Errorf("empty chat ID for discord send")
	}
	return c.sendChunked(msg.ChatID, msg.Content)
}

// sendChunked sends a message, splitting into multiple messages if over
// Discord's 2000-char limit, breaking at newlines where possible.
func (c *Channel) sendChunked(channelID, content string) error {
	const maxLen = 2000

	for len(content) > 0 {
		chunk := content
		if len(chunk) > maxLen {
			cutAt := maxLen
			if idx := lastIndexByte(content[:maxLen], '\n'); idx > maxLen/2 {
				cutAt = idx + 1
			}
			chunk = content[:cutAt]
			content = content[cutAt:]
		} else {
			content = ""
		}

		if _, err := c.session.ChannelMessageSend(channelID, chunk); err != nil {
			return fmt.Errorf("send discord message: %w", err)
		}
	}

	return nil
}

// handleMessage processes incoming Discord messages.
func (c *Channel) handleMessage(_ *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore our own messages
	if m.Author == nil || m.Author.ID == c.botUserID {
		return
	}
	if m.Content == "" {
		return
	}

	channelID := m.ChannelID
	if !c.IsAllowed(channelID) {
		slog.Debug("discord message rejected by allowlist", "channel_id", channelID)
		return
	}

	senderName := resolveDisplayName(m)

	slog.Debug("discord message received",
		"sender_id", m.Author.ID,
		"channel_id", channelID,
		"preview", channels.Truncate(m.Content, 50),
	)

	// Best effort; Discord clears it automatically after 10s or on send.
	if err := c.session.ChannelTyping(channelID); err != nil {
		slog.Debug("discord typing indicator failed", "channel_id", channelID, "error", err)
	}

	c.HandleMessage(bus.InboundMessage{
		SenderID:   m.Author.ID,
		SenderName: senderName,
		ChatID:     channelID,
		Content:    m.Content,
		FromBot:    m.Author.Bot,
		PeerKind:   peerKind(m),
		Metadata: map[string]string{
			"message_id": m.ID,
			"username":   m.Author.Username,
			"guild_id":   m.GuildID,
		},
	})
}

func peerKind(m *discordgo.MessageCreate) string {
	if m.GuildID == "" {
		return "direct"
	}
	return "group"
}

// resolveDisplayName returns the best available display name for a
// Discord message author.
// Priority: server nickname > global display name > username.
func resolveDisplayName(m *discordgo.MessageCreate) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	if m.Author.GlobalName != "" {
		return m.Author.GlobalName
	}
	return m.Author.Username
}

// lastIndexByte returns the last index of byte c in s, or -1.
func lastIndexByte(s string, c byte) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == c {
			return i
		}
	}
	return -1
}
