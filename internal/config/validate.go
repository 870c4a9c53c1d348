package config

import (
	"fmt"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

var validMediaServerKinds = map[string]bool{
	"jellyfin": true, "plex": true,
}

var validQualities = map[string]bool{
	"480p": true, "720p": true, "1080p": true, "4k": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}

	if c.Libraries.Movies.Root == "" && c.Libraries.TV.Root == "" {
		errs = append(errs, "libraries: at least one library (movies or tv) must be configured")
	}

	if c.Ingest.Path == "" {
		errs = append(errs, "ingest.path: required")
	}

	if c.Debrid.APIKey == "" {
		errs = append(errs, "debrid.api_key: required")
	}
	if c.Debrid.MaxAttempts < 1 {
		errs = append(errs, fmt.Sprintf("debrid.max_attempts: must be at least 1, got %d", c.Debrid.MaxAttempts))
	}

	for i, addon := range c.Addons {
		if addon.URL == "" {
			errs = append(errs, fmt.Sprintf("addons[%d].url: required", i))
		}
		if addon.Name == "" {
			errs = append(errs, fmt.Sprintf("addons[%d].name: required", i))
		}
	}

	if !validQualities[c.Stream.DefaultQuality] {
		errs = append(errs, fmt.Sprintf("stream.default_quality: must be one of 480p, 720p, 1080p, 4k; got %q", c.Stream.DefaultQuality))
	}

	if c.Refresh.SafetyMargin >= c.Refresh.ValidityHorizon {
		errs = append(errs, fmt.Sprintf("refresh.safety_margin: must be smaller than validity_horizon (%s >= %s)",
			c.Refresh.SafetyMargin, c.Refresh.ValidityHorizon))
	}

	if c.MediaServer != nil {
		if c.MediaServer.URL == "" {
			errs = append(errs, "mediaserver.url: required when mediaserver is configured")
		}
		if !validMediaServerKinds[c.MediaServer.Kind] {
			errs = append(errs, fmt.Sprintf("mediaserver.kind: must be one of jellyfin, plex; got %q", c.MediaServer.Kind))
		}
	}

	return errs
}
