package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	configPath string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "strmd",
	Short: "Stream pointer daemon for debrid-backed libraries",
	Long: `strmd - stream pointer daemon

Watches an intake directory for magnet and torrent artifacts, resolves
them against a debrid service, and maintains a library of .strm pointer
files that redirect media server playback to cached stream links.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Secrets referenced as ${VAR} in config.toml can live in .env.
		_ = godotenv.Load()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.toml", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("strmd {{.Version}}\n")
}
