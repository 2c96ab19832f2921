package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "chamadasbot",
	Short: "IPEA scholarship-call notice pipeline and Telegram bot",
	Long: `chamadasbot scrapes the IPEA research-scholarship listing page,
normalizes the calls into bronze/silver/gold parquet tiers and serves them
through a Telegram bot with per-user alert subscriptions.`,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML config file")
}
