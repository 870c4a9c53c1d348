package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vmunix/strmd/pkg/release"
)

// parsedJSON is the JSON-friendly representation of a parsed name.
type parsedJSON struct {
	Title   string `json:"title"`
	Year    int    `json:"year,omitempty"`
	Season  int    `json:"season,omitempty"`
	Episode int    `json:"episode,omitempty"`
	Quality string `json:"quality"`
	IMDbID  string `json:"imdb_id,omitempty"`
	Kind    string `json:"kind"`
}

var parseCmd = &cobra.Command{
	Use:   "parse <artifact-name>",
	Short: "Parse an artifact name (local, no server needed)",
	Long: `Parse an artifact name to see what the intake pipeline would extract.

Examples:
  strmd parse "The.Matrix.1999.1080p.BluRay.magnet"
  strmd parse "Some.Show.S01E04.720p.WEB-DL.torrent" --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := release.Parse(args[0])

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(parsedJSON{
				Title:   p.Title,
				Year:    p.Year,
				Season:  p.Season,
				Episode: p.Episode,
				Quality: string(p.Quality),
				IMDbID:  p.IMDbID,
				Kind:    string(p.Kind),
			})
		}

		fmt.Printf("Title:    %s\n", p.Title)
		if p.Year > 0 {
			fmt.Printf("Year:     %d\n", p.Year)
		}
		if p.Season > 0 {
			fmt.Printf("Season:   %d\n", p.Season)
		}
		if p.Episode > 0 {
			fmt.Printf("Episode:  %d\n", p.Episode)
		}
		fmt.Printf("Quality:  %s\n", p.Quality)
		if p.IMDbID != "" {
			fmt.Printf("IMDb:     %s\n", p.IMDbID)
		}
		fmt.Printf("Kind:     %s\n", p.Kind)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}
