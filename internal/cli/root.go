package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var serverURL string

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sweepctl",
		Short: "CLI client for the sweeparena game server",
		Long: `sweepctl is a terminal client for the sweeparena multiplayer
mine-field server. It can create and join rooms, mark ready, play
reveal and flag actions, and stream the room's broadcast events.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envDefault("SWEEPARENA_SERVER", "http://localhost:8080"), "Server URL (env: SWEEPARENA_SERVER)")

	rootCmd.AddCommand(newCreateCmd())
	rootCmd.AddCommand(newJoinCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
