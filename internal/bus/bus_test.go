package bus

import (
	"context"
	"testing"
	"time"
)

func TestInboundRoundTrip(t *testing.T) {
	b := NewMessageBus(4)
	b.PublishInbound(InboundMessage{Channel: "discord", Content: "hi"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, ok := b.ConsumeInbound(ctx)
	if !ok {
		t.Fatal("expected a message")
	}
	if msg.Content != "hi" {
		t.Errorf("content = %q, want %q", msg.Content, "hi")
	}
}

func TestConsumeReturnsFalseOnCancel(t *testing.T) {
	b := NewMessageBus(4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, ok := b.ConsumeInbound(ctx); ok {
		t.Error("ConsumeInbound should report false on cancelled context")
	}
	if _, ok := b.SubscribeOutbound(ctx); ok {
		t.Error("SubscribeOutbound should report false on cancelled context")
	}
}

func TestPublishNeverBlocksWhenFull(t *testing.T) {
	b := NewMessageBus(1)
	b.PublishOutbound(OutboundMessage{Content: "first"})

	done := make(chan struct{})
	go func() {
		b.PublishOutbound(OutboundMessage{Content: "dropped"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("PublishOutbound blocked on a full queue")
	}
}
