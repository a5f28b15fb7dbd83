// Package cli implements the agentbridge command surface.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ajitnk-lab/agentcore-bridge/server"
)

// loadConfigFromFlags discovers and loads the configuration shared by the
// serve and invoke commands.
func loadConfigFromFlags(cmd *cobra.Command) (server.Config, error) {
	explicitPath, _ := cmd.Flags().GetString("config")

	path, found, err := server.DiscoverConfigPath(explicitPath)
	if err != nil {
		return server.Config{}, exitError(exitConfig, "resolving config: %v", err)
	}
	if !found {
		// No file anywhere; environment variables may still carry enough.
		cfg := server.Config{}
		cfg.ApplyEnvAndDefaults()
		return cfg, nil
	}

	cfg, err := server.LoadConfig(path)
	if err != nil {
		return server.Config{}, exitError(exitConfig, "loading config: %v", err)
	}
	return cfg, nil
}

// newLogger builds the process logger from the root verbosity flags.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
