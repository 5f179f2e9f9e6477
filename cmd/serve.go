package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/penguware/crackgpt/internal/bus"
	"github.com/penguware/crackgpt/internal/channels"
	"github.com/penguware/crackgpt/internal/channels/discord"
	"github.com/penguware/crackgpt/internal/config"
	"github.com/penguware/crackgpt/internal/enrich"
	"github.com/penguware/crackgpt/internal/providers"
	"github.com/penguware/crackgpt/internal/relay"
	"github.com/penguware/crackgpt/internal/state"
	"github.com/penguware/crackgpt/internal/telemetry"
)

const banner = `
 ██████ ██████   █████   ██████ ██   ██  ██████  ██████  ████████
██      ██   ██ ██   ██ ██      ██  ██  ██       ██   ██    ██
██      ██████  ███████ ██      █████   ██   ███ ██████     ██
██      ██   ██ ██   ██ ██      ██  ██  ██    ██ ██         ██
 ██████ ██   ██ ██   ██  ██████ ██   ██  ██████  ██         ██
`

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the relay (default command)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	setupLogging(cfg.LogLevel)

	fmt.Print(banner + "\n")
	fmt.Printf("CrackGPT %s\nby Pengu\n\n", Version)
	slog.Info("starting", "model", cfg.Backend.Model, "host", cfg.Backend.Host)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}

	router := bus.NewMessageBus(0)
	store := state.NewStore(cfg.Prompt.MaxHistoryTurns)

	provider := providers.NewOllamaProvider(
		cfg.Backend.Host, cfg.Backend.Model,
		time.Duration(cfg.Backend.TimeoutSec)*time.Second)
	invoker := providers.NewInvoker(provider, slog.Default())

	var spotify *enrich.SpotifyClient
	if cfg.Enrich.Spotify.Enabled {
		spotify = enrich.NewSpotifyClient(ctx,
			cfg.Enrich.Spotify.ClientID, cfg.Enrich.Spotify.ClientSecret, slog.Default())
		if spotify == nil {
			slog.Warn("spotify enabled but credentials missing, track enrichment disabled")
		}
	}
	pages := enrich.NewPageFetcher(cfg.Enrich.UserAgent, cfg.Enrich.MaxContentChars,
		time.Duration(cfg.Enrich.TimeoutSec)*time.Second)
	enricher := enrich.NewEnricher(spotify, pages, cfg.Enrich.WebEnabled, slog.Default())

	allowed := []string(cfg.Channels.Discord.AllowedChannels)
	pipeline := relay.NewPipeline(router, store, enricher, invoker, relay.Options{
		SystemPrompt:    cfg.SystemPrompt(),
		ToggleKeyword:   cfg.ToggleKeyword(),
		AllowedChannels: allowed,
		RespondToBots:   cfg.Channels.Discord.RespondToBots,
	}, slog.Default())

	manager := channels.NewManager(router)
	if cfg.Channels.Discord.Enabled {
		dc, err := discord.New(cfg.Channels.Discord, router)
		if err != nil {
			return fmt.Errorf("create discord channel: %w", err)
		}
		manager.RegisterChannel(dc.Name(), dc)
	}

	if err := manager.StartAll(ctx); err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		pipeline.Run(ctx)
	}()

	if cfg.Chatter.Enabled {
		chatter := relay.NewChatter(router, store, invoker, relay.ChatterOptions{
			ChannelName:     "discord",
			SystemPrompt:    cfg.SystemPrompt(),
			AllowedChannels: allowed,
			MinInterval:     time.Duration(cfg.Chatter.MinIntervalSec) * time.Second,
			MaxInterval:     time.Duration(cfg.Chatter.MaxIntervalSec) * time.Second,
		}, slog.Default())
		wg.Add(1)
		go func() {
			defer wg.Done()
			chatter.Run(ctx)
		}()
	}

	<-ctx.Done()
	slog.Info("shutting down")

	wg.Wait()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := manager.StopAll(stopCtx); err != nil {
		slog.Error("error stopping channels", "error", err)
	}
	if err := shutdownTelemetry(stopCtx); err != nil {
		slog.Error("error flushing telemetry", "error", err)
	}

	slog.Info("goodbye")
	return nil
}

func setupLogging(level string) {
	lvl := slog.LevelInfo
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
