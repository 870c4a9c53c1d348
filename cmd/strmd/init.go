package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const starterConfig = `# strmd configuration

[server]
host = "0.0.0.0"
port = 8787
log_level = "info"

[database]
path = "./data/strmd.db"

[libraries.movies]
root = "/media/Movies"

[libraries.tv]
root = "/media/TV Shows"

[ingest]
path = "./intake"
poll_interval = "30s"

[debrid]
# api_key can reference an environment variable, e.g. from .env
api_key = "${DEBRID_API_KEY}"

# Addons are queried in order; earlier entries win rank ties.
[[addons]]
name = "torrentio"
url = "https://torrentio.strem.fun"

[stream]
# base_url is what pointer files redirect through; it must be reachable
# from the media server.
base_url = "http://127.0.0.1:8787"
default_quality = "1080p"

[refresh]
schedule = "@daily"

# [mediaserver]
# kind = "jellyfin"
# url = "http://127.0.0.1:8096"
# token = "${JELLYFIN_TOKEN}"
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config.toml",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(configPath); err == nil && !force {
			return fmt.Errorf("%s already exists, use --force to overwrite", configPath)
		}
		if err := os.WriteFile(configPath, []byte(starterConfig), 0644); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("Wrote %s\n", configPath)
		fmt.Println("Edit the library roots and debrid api_key, then run 'strmd serve'.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().Bool("force", false, "Overwrite existing config file")
}
