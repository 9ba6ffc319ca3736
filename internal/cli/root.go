package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "mafiactl",
		Short: "CLI tool for the mafia game API",
		Long: `mafiactl is a CLI tool for interacting with the mafia game JSON API.

It supports all API operations including room management, game actions,
matchmaking, and real-time SSE event streaming.

Identity is a client-held player ID sent with every request. On first run
a fresh ID is generated and saved so later invocations act as the same
player.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load or mint the player ID if not provided via flag/env
			if err := cfg.EnsurePlayerID(); err != nil {
				return err
			}

			// Create HTTP client
			client = NewClient(cfg.ServerURL, cfg.PlayerID)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: MAFIA_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.PlayerID, "player-id", cfg.PlayerID, "Player ID (env: MAFIA_PLAYER_ID)")
	rootCmd.PersistentFlags().StringVar(&cfg.PlayerIDFile, "player-id-file", cfg.PlayerIDFile, "Player ID file path (env: MAFIA_PLAYER_ID_FILE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newRoomCmd())
	rootCmd.AddCommand(newGameCmd())
	rootCmd.AddCommand(newQueueCmd())
	rootCmd.AddCommand(newEventsCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
