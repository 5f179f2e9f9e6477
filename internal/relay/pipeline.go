package relay

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/penguware/crackgpt/internal/bus"
	"github.com/penguware/crackgpt/internal/enrich"
	"github.com/penguware/crackgpt/internal/providers"
	"github.com/penguware/crackgpt/internal/state"
)

// defaultToggleKeyword flips a channel's style-guidance flag when the
// options leave the keyword unset.
const defaultToggleKeyword = "!crackgpt toggle"

// enrichmentHeader prefixes the system turn that carries URL annotations.
const enrichmentHeader = "Context from shared links:\n"

var helpAliases = map[string]struct{}{
	"!crackgpt help": {},
	"!cg help":       {},
	"!help cg":       {},
}

func helpText(toggleKeyword string) string {
	return "Commands:\n" +
		"- `" + toggleKeyword + "` — toggle style guidance for this channel\n" +
		"- `!crackgpt help` — show this help\n"
}

// Invoker produces a reply for an assembled message list. The string
// is always usable; the bool reports whether it came from the backend.
type Invoker interface {
	Invoke(ctx context.Context, messages []providers.Message) (string, bool)
}

// Enricher resolves URLs into context annotation lines.
type Enricher interface {
	EnrichAll(ctx context.Context, urls []string) []string
}

// Options hold the pipeline's static configuration.
type Options struct {
	SystemPrompt string
	// ToggleKeyword overrides the stock style-toggle command.
	ToggleKeyword string
	// AllowedChannels restricts processing; empty allows every channel.
	AllowedChannels []string
	RespondToBots   bool
}

// Pipeline processes inbound messages end to end and publishes replies
// back onto the bus.
type Pipeline struct {
	router   bus.MessageRouter
	store    *state.Store
	enricher Enricher
	invoker  Invoker
	opts     Options
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewPipeline wires a pipeline over the shared bus and state store.
func NewPipeline(router bus.MessageRouter, store *state.Store, enricher Enricher, invoker Invoker, opts Options, logger *slog.Logger) *Pipeline {
	if opts.ToggleKeyword == "" {
		opts.ToggleKeyword = defaultToggleKeyword
	}
	return &Pipeline{
		router:   router,
		store:    store,
		enricher: enricher,
		invoker:  invoker,
		opts:     opts,
		logger:   logger,
		tracer:   otel.Tracer("crackgpt/relay"),
	}
}

// Run consumes inbound messages until ctx is cancelled. Each message
// is handled on its own goroutine so slow backends don't stall other
// channels.
func (p *Pipeline) Run(ctx context.Context) {
	for {
		msg, ok := p.router.ConsumeInbound(ctx)
		if !ok {
			return
		}
		go p.Handle(ctx, msg)
	}
}

// Handle runs one message through filter → command → enrich →
// assemble → invoke → relay.
func (p *Pipeline) Handle(ctx context.Context, msg bus.InboundMessage) {
	if msg.Content == "" {
		return
	}
	if msg.FromBot && !p.opts.RespondToBots {
		return
	}
	if !channelAllowed(msg.ChatID, p.opts.AllowedChannels) {
		return
	}

	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID, "channel_id", msg.ChatID)

	ctx, span := p.tracer.Start(ctx, "relay.handle",
		trace.WithAttributes(attribute.String("run.id", runID), attribute.String("chat.id", msg.ChatID)))
	defer span.End()

	content := strings.TrimSpace(msg.Content)

	// Commands short-circuit before any state mutation.
	if strings.HasPrefix(strings.ToLower(content), strings.ToLower(p.opts.ToggleKeyword)) {
		on := p.store.Toggle(msg.ChatID)
		stateWord := "OFF"
		if on {
			stateWord = "ON"
		}
		logger.Info("style toggle flipped", "toggle_on", on)
		p.send(msg, fmt.Sprintf("CrackGPT style toggle is now **%s** for this channel.", stateWord))
		return
	}
	if _, ok := helpAliases[strings.ToLower(content)]; ok {
		p.send(msg, helpText(p.opts.ToggleKeyword))
		return
	}

	p.store.MarkActive(msg.ChatID)
	p.store.Append(msg.ChatID, state.Turn{
		Role:    "user",
		Content: fmt.Sprintf("%s: %s", msg.SenderName, content),
	})

	if urls := enrich.ExtractURLs(content); len(urls) > 0 {
		if lines := p.enricher.EnrichAll(ctx, urls); len(lines) > 0 {
			logger.Info("enriched message", "urls", len(urls), "annotations", len(lines))
			p.store.Append(msg.ChatID, state.Turn{
				Role:    "system",
				Content: enrichmentHeader + strings.Join(lines, "\n"),
			})
		}
	}

	sysPrompt := BuildSystemPrompt(p.opts.SystemPrompt, p.store.ToggleOn(msg.ChatID))
	messages := BuildMessages(sysPrompt, p.store.History(msg.ChatID))

	reply, fromBackend := p.invoker.Invoke(ctx, messages)
	if !fromBackend {
		logger.Warn("backend exhausted, sending fallback")
	}

	p.store.Append(msg.ChatID, state.Turn{Role: "assistant", Content: reply})
	p.send(msg, reply)
}

// send publishes an outbound reply. Delivery failures are the channel
// adapter's to log; history is already committed either way.
func (p *Pipeline) send(msg bus.InboundMessage, content string) {
	p.router.PublishOutbound(bus.OutboundMessage{
		Channel: msg.Channel,
		ChatID:  msg.ChatID,
		Content: content,
	})
}

// channelAllowed applies the allow-list; empty permits everything.
func channelAllowed(chatID string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, id := range allowed {
		if id == chatID {
			return true
		}
	}
	return false
}
