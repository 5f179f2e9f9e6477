package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend.Model != "llama3" {
		t.Errorf("model = %q, want %q", cfg.Backend.Model, "llama3")
	}
	if cfg.Prompt.MaxHistoryTurns != 12 {
		t.Errorf("max_history_turns = %d, want 12", cfg.Prompt.MaxHistoryTurns)
	}
	if cfg.ToggleKeyword() != DefaultToggleKeyword {
		t.Errorf("toggle keyword = %q, want %q", cfg.ToggleKeyword(), DefaultToggleKeyword)
	}
}

func TestLoadJSON5AndNumericChannelIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		// comments are fine
		backend: { model: "qwen3", timeout_sec: 30 },
		prompt: { toggle_keyword: "!cg style" },
		channels: { discord: { token: "abc", allowed_channels: [123456789012345678, "987"] } },
	}`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend.Model != "qwen3" {
		t.Errorf("model = %q, want %q", cfg.Backend.Model, "qwen3")
	}
	if cfg.ToggleKeyword() != "!cg style" {
		t.Errorf("toggle keyword = %q, want %q", cfg.ToggleKeyword(), "!cg style")
	}
	got := cfg.Channels.Discord.AllowedChannels
	want := []string{"123456789012345678", "987"}
	if len(got) != len(want) {
		t.Fatalf("allowed_channels = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("allowed_channels[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CRACKGPT_MODEL", "mistral")
	t.Setenv("CRACKGPT_ALLOWED_CHANNELS", "1,2,3")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend.Model != "mistral" {
		t.Errorf("model = %q, want %q", cfg.Backend.Model, "mistral")
	}
	if len(cfg.Channels.Discord.AllowedChannels) != 3 {
		t.Errorf("allowed_channels = %v, want 3 entries", cfg.Channels.Discord.AllowedChannels)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"discord enabled without token", func(c *Config) {}, true},
		{"discord disabled without token", func(c *Config) { c.Channels.Discord.Enabled = false }, false},
		{"token set", func(c *Config) { c.Channels.Discord.Token = "t" }, false},
		{"chatter interval inverted", func(c *Config) {
			c.Channels.Discord.Token = "t"
			c.Chatter.Enabled = true
			c.Chatter.MinIntervalSec = 100
			c.Chatter.MaxIntervalSec = 10
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
