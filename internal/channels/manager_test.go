package channels

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/penguware/crackgpt/internal/bus"
)

type stubChannel struct {
	*BaseChannel
	mu      sync.Mutex
	sent    []bus.OutboundMessage
	sendErr error
}

func newStubChannel(b bus.MessageRouter) *stubChannel {
	return &stubChannel{BaseChannel: NewBaseChannel("stub", b, nil)}
}

func (s *stubChannel) Start(ctx context.Context) error {
	s.SetRunning(true)
	return nil
}

func (s *stubChannel) Stop(ctx context.Context) error {
	s.SetRunning(false)
	return nil
}

func (s *stubChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return s.sendErr
}

func (s *stubChannel) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func TestManagerDispatchesOutbound(t *testing.T) {
	b := bus.NewMessageBus(8)
	m := NewManager(b)
	ch := newStubChannel(b)
	m.RegisterChannel("stub", ch)

	ctx := context.Background()
	if err := m.StartAll(ctx); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	defer m.StopAll(ctx)

	b.PublishOutbound(bus.OutboundMessage{Channel: "stub", ChatID: "c1", Content: "hello"})

	deadline := time.Now().Add(2 * time.Second)
	for ch.sentCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if ch.sentCount() != 1 {
		t.Fatal("outbound message was not dispatched")
	}
}

func TestManagerSwallowsSendErrors(t *testing.T) {
	b := bus.NewMessageBus(8)
	m := NewManager(b)
	ch := newStubChannel(b)
	ch.sendErr = errors.New("network down")
	m.RegisterChannel("stub", ch)

	ctx := context.Background()
	if err := m.StartAll(ctx); err != nil {
		t.Fatalf("StartAll: %v", err)
	}

	b.PublishOutbound(bus.OutboundMessage{Channel: "stub", ChatID: "c1", Content: "x"})
	b.PublishOutbound(bus.OutboundMessage{Channel: "stub", ChatID: "c1", Content: "y"})

	deadline := time.Now().Add(2 * time.Second)
	for ch.sentCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if ch.sentCount() != 2 {
		t.Error("dispatcher stopped after a send error")
	}

	if err := m.StopAll(ctx); err != nil {
		t.Errorf("StopAll: %v", err)
	}
	if ch.IsRunning() {
		t.Error("channel still running after StopAll")
	}
}

func TestManagerUnknownChannelIgnored(t *testing.T) {
	b := bus.NewMessageBus(8)
	m := NewManager(b)

	ctx := context.Background()
	if err := m.StartAll(ctx); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	b.PublishOutbound(bus.OutboundMessage{Channel: "ghost", ChatID: "c1", Content: "x"})
	time.Sleep(20 * time.Millisecond)
	if err := m.StopAll(ctx); err != nil {
		t.Errorf("StopAll: %v", err)
	}
}
