package providers

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// FallbackReply is sent when every backend attempt fails or returns
// empty content.
const FallbackReply = "Sorry, my brain just lagged. Try again in a moment."

const maxAttempts = 3

// Invoker wraps a Provider with fixed retry semantics: up to three
// attempts, sleeping 1+n seconds after the nth failure, and a canned
// fallback reply when nothing usable comes back. It never surfaces an
// error to the caller.
type Invoker struct {
	provider Provider
	logger   *slog.Logger
	tracer   trace.Tracer

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration)
}

// NewInvoker wraps a provider.
func NewInvoker(provider Provider, logger *slog.Logger) *Invoker {
	return &Invoker{
		provider: provider,
		logger:   logger,
		tracer:   otel.Tracer("crackgpt/providers"),
		sleep:    sleepCtx,
	}
}

// Invoke produces a reply for the given messages. The returned string
// is never empty; the bool reports whether it came from the backend
// rather than the fallback.
func (inv *Invoker) Invoke(ctx context.Context, messages []Message) (string, bool) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err := inv.chatAttempt(ctx, attempt, messages)
		if err == nil && resp != nil && resp.Content != "" {
			return resp.Content, true
		}

		if err != nil {
			inv.logger.Warn("backend error",
				"attempt", attempt+1, "max_attempts", maxAttempts, "error", err)
		} else {
			inv.logger.Warn("backend returned empty reply",
				"attempt", attempt+1, "max_attempts", maxAttempts)
		}

		inv.sleep(ctx, time.Duration(1+attempt)*time.Second)
		if ctx.Err() != nil {
			break
		}
	}
	return FallbackReply, false
}

// chatAttempt runs one backend call under its own span.
func (inv *Invoker) chatAttempt(ctx context.Context, attempt int, messages []Message) (*ChatResponse, error) {
	ctx, span := inv.tracer.Start(ctx, "backend.chat",
		trace.WithAttributes(attribute.Int("attempt", attempt+1)))
	defer span.End()

	resp, err := inv.provider.Chat(ctx, ChatRequest{Messages: messages})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend attempt failed")
	}
	return resp, err
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
