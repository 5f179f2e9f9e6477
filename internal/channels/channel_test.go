package channels

import (
	"context"
	"testing"
	"time"

	"github.com/penguware/crackgpt/internal/bus"
)

func TestBaseChannelIsAllowed(t *testing.T) {
	tests := []struct {
		name      string
		allowList []string
		chatID    string
		want      bool
	}{
		{"empty list allows all", nil, "123", true},
		{"listed channel", []string{"123", "456"}, "456", true},
		{"unlisted channel", []string{"123"}, "789", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewBaseChannel("test", bus.NewMessageBus(1), tt.allowList)
			if got := c.IsAllowed(tt.chatID); got != tt.want {
				t.Errorf("IsAllowed(%q) = %v, want %v", tt.chatID, got, tt.want)
			}
		})
	}
}

func TestHandleMessagePublishesWithChannelName(t *testing.T) {
	b := bus.NewMessageBus(1)
	c := NewBaseChannel("test", b, nil)

	c.HandleMessage(bus.InboundMessage{ChatID: "c1", Content: "hi"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, ok := b.ConsumeInbound(ctx)
	if !ok {
		t.Fatal("expected an inbound message")
	}
	if msg.Channel != "test" || msg.Content != "hi" {
		t.Errorf("msg = %+v, want channel name stamped", msg)
	}
}

func TestHandleMessageDropsDisallowed(t *testing.T) {
	b := bus.NewMessageBus(1)
	c := NewBaseChannel("test", b, []string{"allowed"})

	c.HandleMessage(bus.InboundMessage{ChatID: "blocked", Content: "hi"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, ok := b.ConsumeInbound(ctx); ok {
		t.Error("disallowed message should not reach the bus")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Errorf("Truncate short = %q", got)
	}
	if got := Truncate("hello world", 5); got != "hello..." {
		t.Errorf("Truncate long = %q, want %q", got, "hello...")
	}
}
