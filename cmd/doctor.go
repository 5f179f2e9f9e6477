package cmd

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/penguware/crackgpt/internal/config"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and environment health",
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor()
		},
	}
}

func runDoctor() {
	fmt.Println("crackgpt doctor")
	fmt.Printf("  Version:  %s\n", Version)
	fmt.Printf("  OS:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go:       %s\n", runtime.Version())
	fmt.Println()

	cfgPath := resolveConfigPath()
	fmt.Printf("  Config:   %s", cfgPath)
	if _, err := os.Stat(cfgPath); err != nil {
		fmt.Println(" (NOT FOUND, using defaults)")
	} else {
		fmt.Println(" (OK)")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  Config load error: %s\n", err)
		return
	}

	fmt.Println()
	fmt.Println("  Backend:")
	fmt.Printf("    %-12s %s\n", "Host:", cfg.Backend.Host)
	fmt.Printf("    %-12s %s\n", "Model:", cfg.Backend.Model)
	fmt.Printf("    %-12s %ds\n", "Timeout:", cfg.Backend.TimeoutSec)

	fmt.Println()
	fmt.Println("  Channels:")
	checkChannel("Discord", cfg.Channels.Discord.Enabled, cfg.Channels.Discord.Token != "")
	if n := len(cfg.Channels.Discord.AllowedChannels); n > 0 {
		fmt.Printf("    %-12s %d channel(s)\n", "Allow-list:", n)
	} else {
		fmt.Printf("    %-12s all channels\n", "Allow-list:")
	}

	fmt.Println()
	fmt.Println("  Enrichment:")
	fmt.Printf("    %-12s %v\n", "Web:", cfg.Enrich.WebEnabled)
	checkSpotify(cfg.Enrich.Spotify)

	fmt.Println()
	fmt.Println("  Idle chatter:")
	if cfg.Chatter.Enabled {
		fmt.Printf("    %-12s every %d-%ds\n", "Enabled:", cfg.Chatter.MinIntervalSec, cfg.Chatter.MaxIntervalSec)
	} else {
		fmt.Printf("    %-12s disabled\n", "Enabled:")
	}

	fmt.Println()
	if err := cfg.Validate(); err != nil {
		fmt.Printf("  PROBLEM: %s\n", err)
	} else {
		fmt.Println("Doctor check complete.")
	}
}

func checkChannel(name string, enabled, hasCredentials bool) {
	status := "disabled"
	if enabled && hasCredentials {
		status = "enabled"
	} else if enabled {
		status = "enabled (missing credentials)"
	}
	fmt.Printf("    %-12s %s\n", name+":", status)
}

func checkSpotify(cfg config.SpotifyConfig) {
	switch {
	case !cfg.Enabled:
		fmt.Printf("    %-12s disabled\n", "Spotify:")
	case cfg.ClientID == "" || cfg.ClientSecret == "":
		fmt.Printf("    %-12s enabled (missing credentials, will be inactive)\n", "Spotify:")
	default:
		fmt.Printf("    %-12s %s\n", "Spotify:", maskKey(cfg.ClientID))
	}
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
