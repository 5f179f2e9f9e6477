package state

import (
	"fmt"
	"testing"
)

func TestHistoryBound(t *testing.T) {
	tests := []struct {
		turns int
		want  int
	}{
		{12, 24},
		{3, 6},
		{2, 6},
		{1, 6},
		{0, 6},
	}
	for _, tt := range tests {
		if got := HistoryBound(tt.turns); got != tt.want {
			t.Errorf("HistoryBound(%d) = %d, want %d", tt.turns, got, tt.want)
		}
	}
}

func TestAppendEvictsOldestFirst(t *testing.T) {
	s := NewStore(2) // bound 6

	for i := 0; i < 10; i++ {
		s.Append("ch", Turn{Role: "user", Content: fmt.Sprintf("msg-%d", i)})
	}

	hist := s.History("ch")
	if len(hist) != 6 {
		t.Fatalf("history length = %d, want 6", len(hist))
	}
	if hist[0].Content != "msg-4" {
		t.Errorf("oldest entry = %q, want %q", hist[0].Content, "msg-4")
	}
	if hist[5].Content != "msg-9" {
		t.Errorf("newest entry = %q, want %q", hist[5].Content, "msg-9")
	}
}

func TestHistoryReturnsCopy(t *testing.T) {
	s := NewStore(12)
	s.Append("ch", Turn{Role: "user", Content: "hello"})

	hist := s.History("ch")
	hist[0].Content = "mutated"

	if got := s.History("ch")[0].Content; got != "hello" {
		t.Errorf("stored content = %q, want %q", got, "hello")
	}
}

func TestHistoryUnknownChannelEmpty(t *testing.T) {
	s := NewStore(12)
	if hist := s.History("nope"); len(hist) != 0 {
		t.Errorf("history = %v, want empty", hist)
	}
}

func TestTogglePairRestoresAndIsChannelScoped(t *testing.T) {
	s := NewStore(12)

	if !s.ToggleOn("a") {
		t.Fatal("fresh channel should default to toggle on")
	}
	if got := s.Toggle("a"); got {
		t.Errorf("first toggle = %v, want false", got)
	}
	if got := s.Toggle("a"); !got {
		t.Errorf("second toggle = %v, want true", got)
	}

	s.Toggle("a")
	if s.ToggleOn("a") {
		t.Error("channel a should be off")
	}
	if !s.ToggleOn("b") {
		t.Error("channel b should be unaffected")
	}
}

func TestActiveChannels(t *testing.T) {
	s := NewStore(12)

	s.Append("quiet", Turn{Role: "user", Content: "hi"})
	s.MarkActive("busy")
	s.MarkActive("busy") // idempotent

	active := s.ActiveChannels()
	if len(active) != 1 || active[0] != "busy" {
		t.Errorf("active = %v, want [busy]", active)
	}
}

func TestResizeTrimsToNewestEntries(t *testing.T) {
	s := NewStore(12)
	for i := 0; i < 20; i++ {
		s.Append("ch", Turn{Role: "user", Content: fmt.Sprintf("msg-%d", i)})
	}

	s.Resize(3) // bound 6

	hist := s.History("ch")
	if len(hist) != 6 {
		t.Fatalf("history length = %d, want 6", len(hist))
	}
	if hist[0].Content != "msg-14" {
		t.Errorf("oldest after resize = %q, want %q", hist[0].Content, "msg-14")
	}
}
