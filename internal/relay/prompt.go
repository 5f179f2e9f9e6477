// Package relay orchestrates the message pipeline: per-channel state,
// URL enrichment, prompt assembly, backend invocation and idle chatter.
package relay

import (
	"strings"

	"github.com/penguware/crackgpt/internal/providers"
	"github.com/penguware/crackgpt/internal/state"
)

// promptHistoryCap bounds how many history entries go into a single
// backend request, regardless of the stored history bound.
const promptHistoryCap = 50

const (
	strictSuffix  = "\n(You are currently in STRICT mode.)"
	relaxedSuffix = "\n(Style-guidance is OFF for this channel.)"
)

// BuildSystemPrompt composes the system directive for a channel: the
// trimmed master instruction plus a suffix selected by the channel's
// style toggle.
func BuildSystemPrompt(master string, toggleOn bool) string {
	suffix := relaxedSuffix
	if toggleOn {
		suffix = strictSuffix
	}
	return strings.TrimSpace(master) + suffix
}

// BuildMessages assembles the backend request: one system entry
// followed by the most recent history entries, oldest first.
func BuildMessages(systemPrompt string, history []state.Turn) []providers.Message {
	if len(history) > promptHistoryCap {
		history = history[len(history)-promptHistoryCap:]
	}
	msgs := make([]providers.Message, 0, len(history)+1)
	msgs = append(msgs, providers.Message{Role: "system", Content: systemPrompt})
	for _, turn := range history {
		msgs = append(msgs, providers.Message{Role: turn.Role, Content: turn.Content})
	}
	return msgs
}
