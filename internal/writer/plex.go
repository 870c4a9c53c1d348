package writer

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// PlexClient triggers partial library scans on a Plex Media Server.
type PlexClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        *slog.Logger
}

// NewPlexClient creates a Plex client.
func NewPlexClient(baseURL, token string, log *slog.Logger) *PlexClient {
	if log == nil {
		log = slog.Default()
	}
	return &PlexClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		log:     log.With("component", "plex"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// plexSection is one library section in the sections listing.
type plexSection struct {
	Key       string `xml:"key,attr"`
	Title     string `xml:"title,attr"`
	Locations []struct {
		Path string `xml:"path,attr"`
	} `xml:"Location"`
}

type plexSectionsResponse struct {
	XMLName  xml.Name      `xml:"MediaContainer"`
	Sections []plexSection `xml:"Directory"`
}

// ScanPath finds the library section containing path and triggers a
// partial scan of its directory.
func (c *PlexClient) ScanPath(ctx context.Context, path string) error {
	dir := filepath.Dir(path)

	sections, err := c.sections(ctx)
	if err != nil {
		return fmt.Errorf("get sections: %w", err)
	}

	var sectionKey string
	for _, section := range sections {
		for _, loc := range section.Locations {
			if strings.HasPrefix(dir, loc.Path) {
				sectionKey = section.Key
				break
			}
		}
		if sectionKey != "" {
			break
		}
	}
	if sectionKey == "" {
		return fmt.Errorf("no library section found for path: %s", path)
	}

	scanURL := fmt.Sprintf("%s/library/sections/%s/refresh?path=%s",
		c.baseURL, sectionKey, url.QueryEscape(dir))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, scanURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Plex-Token", c.token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("scan failed with status: %d", resp.StatusCode)
	}

	c.log.Debug("scan triggered", "section", sectionKey, "path", dir,
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (c *PlexClient) sections(ctx context.Context) ([]plexSection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/library/sections", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Plex-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sections request failed with status: %d", resp.StatusCode)
	}

	var payload plexSectionsResponse
	if err := xml.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode sections: %w", err)
	}
	return payload.Sections, nil
}
