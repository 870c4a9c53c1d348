package addon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vmunix/strmd/pkg/release"
)

// Client queries one stream-index addon over its HTTP manifest contract.
type Client struct {
	name       string
	baseURL    string
	sourceRank int
	timeout    time.Duration
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a client for one configured addon. rank is the
// addon's position in the configured list and breaks ranking ties.
func NewClient(name, rawURL string, timeout time.Duration, rank int, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		name:       name,
		baseURL:    normalizeBaseURL(rawURL),
		sourceRank: rank,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With("component", "addon", "addon", name),
	}
}

// Name returns the addon's configured name.
func (c *Client) Name() string { return c.name }

// normalizeBaseURL accepts the install-link forms addons are usually
// shared in: stremio:// scheme and trailing /manifest.json.
func normalizeBaseURL(raw string) string {
	u := strings.TrimSpace(raw)
	if rest, ok := strings.CutPrefix(u, "stremio://"); ok {
		u = "https://" + rest
	}
	u = strings.TrimSuffix(u, "/manifest.json")
	return strings.TrimSuffix(u, "/")
}

// streamsResponse is the addon's stream endpoint payload.
type streamsResponse struct {
	Streams []struct {
		URL         string `json:"url"`
		Name        string `json:"name"`
		Title       string `json:"title"`
		Description string `json:"description"`
		InfoHash    string `json:"infoHash"`
	} `json:"streams"`
}

// Streams queries the addon for a movie's candidates.
func (c *Client) Streams(ctx context.Context, contentID string) ([]Candidate, error) {
	return c.fetch(ctx, "movie", contentID)
}

// EpisodeStreams queries the addon for one episode's candidates.
func (c *Client) EpisodeStreams(ctx context.Context, contentID string, season, episode int) ([]Candidate, error) {
	return c.fetch(ctx, "series", fmt.Sprintf("%s:%d:%d", contentID, season, episode))
}

func (c *Client) fetch(ctx context.Context, kind, id string) ([]Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/stream/%s/%s.json", c.baseURL, kind, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("addon %s: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("addon %s: status %d", c.name, resp.StatusCode)
	}

	var payload streamsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("addon %s: decode response: %w", c.name, err)
	}

	var out []Candidate
	for _, s := range payload.Streams {
		// infoHash-only entries need a torrent client on the player
		// side; only direct URLs are playable here.
		if s.URL == "" {
			continue
		}
		title := s.Title
		if title == "" {
			title = s.Description
		}
		out = append(out, Candidate{
			URL:        s.URL,
			Title:      title,
			Quality:    release.DetectQuality(s.Name, title),
			Source:     c.name,
			SourceRank: c.sourceRank,
		})
	}
	return out, nil
}
