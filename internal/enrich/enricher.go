package enrich

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// concurrency caps simultaneous fetches per message.
const concurrency = 4

// Enricher resolves shared URLs into context annotations. Spotify
// track links get metadata lookups; everything else gets a page
// summary. Every lookup is best effort: a failed URL simply produces
// no annotation.
type Enricher struct {
	spotify    *SpotifyClient
	pages      *PageFetcher
	webEnabled bool
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewEnricher assembles an enricher. spotify may be nil (feature off);
// pages is required but ignored when webEnabled is false.
func NewEnricher(spotify *SpotifyClient, pages *PageFetcher, webEnabled bool, logger *slog.Logger) *Enricher {
	return &Enricher{
		spotify:    spotify,
		pages:      pages,
		webEnabled: webEnabled,
		logger:     logger,
		tracer:     otel.Tracer("crackgpt/enrich"),
	}
}

// EnrichAll resolves each URL concurrently and returns the successful
// annotations in the order of the input URLs.
func (e *Enricher) EnrichAll(ctx context.Context, urls []string) []string {
	if len(urls) == 0 {
		return nil
	}

	results := make([]string, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, url := range urls {
		i, url := i, url
		g.Go(func() error {
			sctx, span := e.tracer.Start(gctx, "enrich.fetch",
				trace.WithAttributes(attribute.String("url", url)))
			defer span.End()
			results[i] = e.enrichOne(sctx, url)
			return nil
		})
	}
	g.Wait()

	out := make([]string, 0, len(urls))
	for _, line := range results {
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// enrichOne returns an annotation line for one URL, or "" when the URL
// yields nothing.
func (e *Enricher) enrichOne(ctx context.Context, url string) string {
	if e.spotify.Enabled() {
		if tid := ExtractTrackID(url); tid != "" {
			info, err := e.spotify.TrackInfo(ctx, tid)
			if err == nil {
				return info.Annotation()
			}
			e.logger.Debug("spotify lookup failed", "url", url, "error", err)
			// fall through to the generic fetch
		}
	}

	if !e.webEnabled {
		return ""
	}
	text, err := e.pages.FetchText(ctx, url)
	if err != nil {
		e.logger.Debug("page fetch failed", "url", url, "error", err)
		return ""
	}
	return fmt.Sprintf("🔗 %s → %s", url, OneLiner(text))
}
