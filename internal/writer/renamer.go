// Package writer owns the on-disk pointer file tree: one .strm file per
// quality variant per title or episode, each containing a stable redirect
// URL rather than the raw stream link.
package writer

import (
	"fmt"
	"regexp"
	"strconv"
)

// Default naming templates for pointer files.
const (
	DefaultMovieTemplate  = "{title} ({year})/{title} ({year}) - {quality}.strm"
	DefaultSeriesTemplate = "{title} ({year})/Season {season:02}/{title} - S{season:02}E{episode:02} - {quality}.strm"
)

// Renamer applies naming templates to generate pointer file paths.
type Renamer struct {
	movieTemplate  string
	seriesTemplate string
}

// NewRenamer creates a Renamer. Empty strings use the default templates.
func NewRenamer(movieTemplate, seriesTemplate string) *Renamer {
	if movieTemplate == "" {
		movieTemplate = DefaultMovieTemplate
	}
	if seriesTemplate == "" {
		seriesTemplate = DefaultSeriesTemplate
	}
	return &Renamer{
		movieTemplate:  movieTemplate,
		seriesTemplate: seriesTemplate,
	}
}

// MoviePath generates the relative path for a movie pointer file.
func (r *Renamer) MoviePath(title string, year int, quality string) string {
	vars := map[string]any{
		"title":   SanitizeFilename(title),
		"year":    year,
		"quality": quality,
	}
	return applyTemplate(r.movieTemplate, vars)
}

// EpisodePath generates the relative path for an episode pointer file.
func (r *Renamer) EpisodePath(title string, year, season, episode int, quality string) string {
	vars := map[string]any{
		"title":   SanitizeFilename(title),
		"year":    year,
		"season":  season,
		"episode": episode,
		"quality": quality,
	}
	return applyTemplate(r.seriesTemplate, vars)
}

// formatPattern matches {name} or {name:02} style placeholders.
var formatPattern = regexp.MustCompile(`\{(\w+)(?::(\d+))?\}`)

// applyTemplate substitutes variables into a template string. {name:02}
// zero-pads integer values.
func applyTemplate(template string, vars map[string]any) string {
	return formatPattern.ReplaceAllStringFunc(template, func(match string) string {
		parts := formatPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		val, ok := vars[parts[1]]
		if !ok {
			return match
		}

		if len(parts) >= 3 && parts[2] != "" {
			width, err := strconv.Atoi(parts[2])
			if err == nil {
				switch v := val.(type) {
				case int:
					return fmt.Sprintf("%0*d", width, v)
				case int64:
					return fmt.Sprintf("%0*d", width, v)
				}
			}
		}

		return fmt.Sprintf("%v", val)
	})
}
