package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd runs the server when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "signaling",
	Short: "WebRTC signaling relay that records call media",
	Long: `signaling relays WebRTC offers, answers and ICE candidates between
connected peers, appends base64 media fragments to per-call files and
registers each call's files in a catalog when the call hangs up.

Configuration is read from the environment (PORT, MEDIA_ROOT, DATABASE_DSN,
REDIS_*, ...).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// Execute runs the root command. Called once by main.
func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd, recordingsCmd)
}
