package writer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

// JellyfinClient triggers library scans on a Jellyfin (or Emby) server.
type JellyfinClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        *slog.Logger
}

// NewJellyfinClient creates a Jellyfin client.
func NewJellyfinClient(baseURL, token string, log *slog.Logger) *JellyfinClient {
	if log == nil {
		log = slog.Default()
	}
	return &JellyfinClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		log:     log.With("component", "jellyfin"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ScanPath asks Jellyfin to scan the directory containing path. Jellyfin
// accepts updated-path hints on the media-updated endpoint; servers that
// ignore the hint fall back to a full library scan internally.
func (c *JellyfinClient) ScanPath(ctx context.Context, path string) error {
	payload := map[string]any{
		"Updates": []map[string]string{
			{"Path": filepath.Dir(path), "UpdateType": "Created"},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode scan request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/Library/Media/Updated", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Emby-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("scan failed with status: %d", resp.StatusCode)
	}

	c.log.Debug("scan triggered", "path", filepath.Dir(path))
	return nil
}
