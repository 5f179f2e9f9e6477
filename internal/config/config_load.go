package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/titanous/json5"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Channels: ChannelsConfig{
			Discord: DiscordConfig{
				Enabled: true,
			},
		},
		Backend: BackendConfig{
			Host:       "http://localhost:11434",
			Model:      "llama3",
			TimeoutSec: 60,
		},
		Prompt: PromptConfig{
			ToggleKeyword:   DefaultToggleKeyword,
			MaxHistoryTurns: 12,
		},
		Enrich: EnrichConfig{
			WebEnabled:      true,
			MaxContentChars: 2000,
			TimeoutSec:      10,
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
				"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			Spotify: SpotifyConfig{Enabled: true},
		},
		Chatter: ChatterConfig{
			Enabled:        false,
			MinIntervalSec: 900,
			MaxIntervalSec: 1800,
		},
		Telemetry: TelemetryConfig{
			Protocol:    "grpc",
			ServiceName: "crackgpt",
		},
	}
}

// Load reads config from a JSON5 file, then overlays env vars.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config.
// Env vars take precedence over file values.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				*dst = n
			}
		}
	}
	envBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			*dst = v == "true" || v == "1"
		}
	}

	envStr("CRACKGPT_DISCORD_TOKEN", &c.Channels.Discord.Token)
	if v := os.Getenv("CRACKGPT_ALLOWED_CHANNELS"); v != "" {
		c.Channels.Discord.AllowedChannels = FlexibleStringSlice(strings.Split(v, ","))
	}

	envStr("CRACKGPT_OLLAMA_HOST", &c.Backend.Host)
	envStr("CRACKGPT_MODEL", &c.Backend.Model)
	envInt("CRACKGPT_OLLAMA_TIMEOUT_SEC", &c.Backend.TimeoutSec)

	envStr("CRACKGPT_SPOTIFY_CLIENT_ID", &c.Enrich.Spotify.ClientID)
	envStr("CRACKGPT_SPOTIFY_CLIENT_SECRET", &c.Enrich.Spotify.ClientSecret)
	envBool("CRACKGPT_SPOTIFY_ENABLED", &c.Enrich.Spotify.Enabled)
	envBool("CRACKGPT_WEB_ENABLED", &c.Enrich.WebEnabled)

	envBool("CRACKGPT_CHATTER_ENABLED", &c.Chatter.Enabled)
	envInt("CRACKGPT_CHATTER_MIN_SEC", &c.Chatter.MinIntervalSec)
	envInt("CRACKGPT_CHATTER_MAX_SEC", &c.Chatter.MaxIntervalSec)

	envStr("CRACKGPT_LOG_LEVEL", &c.LogLevel)

	envStr("CRACKGPT_TELEMETRY_ENDPOINT", &c.Telemetry.Endpoint)
	envStr("CRACKGPT_TELEMETRY_PROTOCOL", &c.Telemetry.Protocol)
	envStr("CRACKGPT_TELEMETRY_SERVICE_NAME", &c.Telemetry.ServiceName)
	envBool("CRACKGPT_TELEMETRY_ENABLED", &c.Telemetry.Enabled)
	envBool("CRACKGPT_TELEMETRY_INSECURE", &c.Telemetry.Insecure)
}

// Validate reports configuration problems that prevent startup.
func (c *Config) Validate() error {
	if c.Channels.Discord.Enabled && c.Channels.Discord.Token == "" {
		return fmt.Errorf("discord channel enabled but no token configured")
	}
	if c.Chatter.Enabled && c.Chatter.MinIntervalSec > c.Chatter.MaxIntervalSec {
		return fmt.Errorf("chatter min_interval_sec %d exceeds max_interval_sec %d",
			c.Chatter.MinIntervalSec, c.Chatter.MaxIntervalSec)
	}
	return nil
}
