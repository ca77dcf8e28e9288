package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "studyroom-server",
	Short: "Study room server: presence, rooms, chat over WebSocket",
	Long:  `HTTP + WebSocket API for shared study rooms. Commands: serve, seed.`,
	RunE:  runServe, // default: run the server (same as "studyroom-server serve")
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
}

// Execute runs the root command and returns the error (for main to log.Fatal).
func Execute() error {
	return rootCmd.Execute()
}
