package bus

import "context"

// InboundMessage represents a message received from a chat channel.
type InboundMessage struct {
	Channel     string            `json:"channel"`
	SenderID    string            `json:"sender_id"`
	SenderName  string            `json:"sender_name"`         // display name as resolved by the channel
	ChatID      string            `json:"chat_id"`
	Content     string            `json:"content"`
	FromBot     bool              `json:"from_bot,omitempty"`  // author is a bot account
	PeerKind    string            `json:"peer_kind,omitempty"` // "direct" or "group"
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// OutboundMessage represents a message to be sent to a channel.
type OutboundMessage struct {
	Channel  string            `json:"channel"`
	ChatID   string            `json:"chat_id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"` // channel-specific metadata
}

// MessageHandler handles an inbound message from a specific channel.
type MessageHandler func(InboundMessage) error

// MessageRouter abstracts inbound/outbound message routing between channels
// and the relay runtime.
type MessageRouter interface {
	PublishInbound(msg InboundMessage)
	ConsumeInbound(ctx context.Context) (InboundMessage, bool)
	PublishOutbound(msg OutboundMessage)
	SubscribeOutbound(ctx context.Context) (OutboundMessage, bool)
}
