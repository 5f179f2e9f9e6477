package providers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

type scriptedProvider struct {
	calls   int
	replies []func() (*ChatResponse, error)
}

func (p *scriptedProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	step := p.calls
	p.calls++
	if step >= len(p.replies) {
		step = len(p.replies) - 1
	}
	return p.replies[step]()
}

func (p *scriptedProvider) DefaultModel() string { return "test" }
func (p *scriptedProvider) Name() string         { return "scripted" }

func newTestInvoker(p Provider) (*Invoker, *[]time.Duration) {
	inv := NewInvoker(p, slog.New(slog.NewTextHandler(io.Discard, nil)))
	var sleeps []time.Duration
	inv.sleep = func(ctx context.Context, d time.Duration) {
		sleeps = append(sleeps, d)
	}
	return inv, &sleeps
}

func TestInvokeRecoversAfterTwoFailures(t *testing.T) {
	fail := func() (*ChatResponse, error) { return nil, errors.New("boom") }
	ok := func() (*ChatResponse, error) { return &ChatResponse{Content: "hi"}, nil }
	p := &scriptedProvider{replies: []func() (*ChatResponse, error){fail, fail, ok}}

	inv, sleeps := newTestInvoker(p)
	reply, fromBackend := inv.Invoke(context.Background(), nil)

	if reply != "hi" || !fromBackend {
		t.Errorf("Invoke = (%q, %v), want (%q, true)", reply, fromBackend, "hi")
	}
	if p.calls != 3 {
		t.Errorf("calls = %d, want 3", p.calls)
	}
	want := []time.Duration{1 * time.Second, 2 * time.Second}
	if len(*sleeps) != len(want) {
		t.Fatalf("sleeps = %v, want %v", *sleeps, want)
	}
	for i := range want {
		if (*sleeps)[i] != want[i] {
			t.Errorf("sleep[%d] = %v, want %v", i, (*sleeps)[i], want[i])
		}
	}
}

func TestInvokeFallsBackAfterThreeFailures(t *testing.T) {
	fail := func() (*ChatResponse, error) { return nil, errors.New("timeout") }
	p := &scriptedProvider{replies: []func() (*ChatResponse, error){fail}}

	inv, _ := newTestInvoker(p)
	reply, fromBackend := inv.Invoke(context.Background(), nil)

	if reply != FallbackReply || fromBackend {
		t.Errorf("Invoke = (%q, %v), want fallback", reply, fromBackend)
	}
	if p.calls != 3 {
		t.Errorf("calls = %d, want 3", p.calls)
	}
}

func TestInvokeTreatsEmptyContentAsFailure(t *testing.T) {
	empty := func() (*ChatResponse, error) { return &ChatResponse{Content: ""}, nil }
	p := &scriptedProvider{replies: []func() (*ChatResponse, error){empty}}

	inv, _ := newTestInvoker(p)
	reply, fromBackend := inv.Invoke(context.Background(), nil)

	if reply != FallbackReply || fromBackend {
		t.Errorf("Invoke = (%q, %v), want fallback", reply, fromBackend)
	}
}

func TestInvokeStopsOnCancelledContext(t *testing.T) {
	fail := func() (*ChatResponse, error) { return nil, errors.New("down") }
	p := &scriptedProvider{replies: []func() (*ChatResponse, error){fail}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inv, _ := newTestInvoker(p)
	reply, _ := inv.Invoke(ctx, nil)

	if reply != FallbackReply {
		t.Errorf("reply = %q, want fallback", reply)
	}
	if p.calls != 1 {
		t.Errorf("calls = %d, want 1 after cancellation", p.calls)
	}
}
