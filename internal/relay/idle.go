package relay

import (
	"context"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/penguware/crackgpt/internal/bus"
	"github.com/penguware/crackgpt/internal/state"
)

// ChatterOptions configure the idle chatter loop.
type ChatterOptions struct {
	ChannelName  string // bus channel to publish to, e.g. "discord"
	SystemPrompt string
	// AllowedChannels restricts eligibility; empty allows every channel.
	AllowedChannels []string
	MinInterval     time.Duration
	MaxInterval     time.Duration
}

// Chatter occasionally injects a generated message into a random
// active channel. It owns no lifecycle beyond its Run loop; cancel the
// context to stop it.
type Chatter struct {
	router  bus.MessageRouter
	store   *state.Store
	invoker Invoker
	opts    ChatterOptions
	logger  *slog.Logger

	// test seams
	sleep func(ctx context.Context, d time.Duration)
	randn func(n int) int
}

// NewChatter wires an idle chatter task.
func NewChatter(router bus.MessageRouter, store *state.Store, invoker Invoker, opts ChatterOptions, logger *slog.Logger) *Chatter {
	return &Chatter{
		router:  router,
		store:   store,
		invoker: invoker,
		opts:    opts,
		logger:  logger,
		sleep:   sleepCtx,
		randn:   rand.Intn,
	}
}

// Run loops until ctx is cancelled: sleep a random interval, pick an
// eligible channel, generate and send one message. Every failure is
// skipped, never fatal.
func (c *Chatter) Run(ctx context.Context) {
	c.logger.Info("idle chatter started",
		"min_interval", c.opts.MinInterval, "max_interval", c.opts.MaxInterval)
	for {
		c.sleep(ctx, c.nextInterval())
		if ctx.Err() != nil {
			c.logger.Info("idle chatter stopped")
			return
		}
		c.runOnce(ctx)
	}
}

// nextInterval picks a uniformly random duration in [min, max].
func (c *Chatter) nextInterval() time.Duration {
	min, max := c.opts.MinInterval, c.opts.MaxInterval
	if max <= min {
		return min
	}
	return min + time.Duration(c.randn(int(max-min)+1))
}

func (c *Chatter) runOnce(ctx context.Context) {
	eligible := c.eligibleChannels()
	if len(eligible) == 0 {
		return
	}
	chatID := eligible[c.randn(len(eligible))]

	sysPrompt := BuildSystemPrompt(c.opts.SystemPrompt, c.store.ToggleOn(chatID))
	messages := BuildMessages(sysPrompt, c.store.History(chatID))

	reply, fromBackend := c.invoker.Invoke(ctx, messages)
	if !fromBackend {
		// Unsolicited messages never fall back to the canned apology.
		c.logger.Debug("idle chatter skipped, backend unavailable", "channel_id", chatID)
		return
	}

	c.store.Append(chatID, state.Turn{Role: "assistant", Content: reply})
	c.router.PublishOutbound(bus.OutboundMessage{
		Channel: c.opts.ChannelName,
		ChatID:  chatID,
		Content: reply,
	})
	c.logger.Info("idle chatter sent", "channel_id", chatID)
}

// eligibleChannels returns active channels permitted by the allow-list,
// sorted for deterministic selection.
func (c *Chatter) eligibleChannels() []string {
	var out []string
	for _, id := range c.store.ActiveChannels() {
		if channelAllowed(id, c.opts.AllowedChannels) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
