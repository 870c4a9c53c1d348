package debrid

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to a Real-Debrid-compatible REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *slog.Logger
}

var _ Service = (*Client)(nil)

// NewClient creates a new debrid client.
func NewClient(baseURL, apiKey string, timeout time.Duration, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		log:     log.With("component", "debrid"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// AddMagnet submits a magnet URI and returns the torrent id.
func (c *Client) AddMagnet(ctx context.Context, magnet string) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	form := url.Values{"magnet": {magnet}}
	if err := c.do(ctx, http.MethodPost, "torrents/addMagnet", form, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("%w: addMagnet returned no torrent id", ErrTransient)
	}
	c.log.Debug("magnet added", "torrent_id", resp.ID)
	return resp.ID, nil
}

// torrentInfoResponse mirrors the service's torrent info payload.
type torrentInfoResponse struct {
	ID       string  `json:"id"`
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	Files    []struct {
		ID       int64  `json:"id"`
		Path     string `json:"path"`
		Bytes    int64  `json:"bytes"`
		Selected int    `json:"selected"`
	} `json:"files"`
	Links []string `json:"links"`
}

// TorrentInfo fetches the state of a submitted torrent.
func (c *Client) TorrentInfo(ctx context.Context, torrentID string) (*TorrentInfo, error) {
	var resp torrentInfoResponse
	if err := c.do(ctx, http.MethodGet, "torrents/info/"+url.PathEscape(torrentID), nil, &resp); err != nil {
		return nil, err
	}

	info := &TorrentInfo{
		ID:       resp.ID,
		Status:   resp.Status,
		Progress: resp.Progress,
		Links:    resp.Links,
	}
	for _, f := range resp.Files {
		info.Files = append(info.Files, TorrentFile{
			ID:       f.ID,
			Path:     f.Path,
			Bytes:    f.Bytes,
			Selected: f.Selected == 1,
		})
	}
	return info, nil
}

// SelectFiles marks files for caching.
func (c *Client) SelectFiles(ctx context.Context, torrentID string, fileIDs []int64) error {
	if len(fileIDs) == 0 {
		return nil
	}
	ids := make([]string, len(fileIDs))
	for i, id := range fileIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}
	form := url.Values{"files": {strings.Join(ids, ",")}}
	return c.do(ctx, http.MethodPost, "torrents/selectFiles/"+url.PathEscape(torrentID), form, nil)
}

// Unrestrict exchanges a service link for a direct download URL.
func (c *Client) Unrestrict(ctx context.Context, link string) (*UnrestrictedLink, error) {
	var resp struct {
		Download string `json:"download"`
		Filename string `json:"filename"`
		Filesize int64  `json:"filesize"`
	}
	form := url.Values{"link": {link}}
	if err := c.do(ctx, http.MethodPost, "unrestrict/link", form, &resp); err != nil {
		return nil, err
	}
	if resp.Download == "" {
		return nil, fmt.Errorf("%w: unrestrict returned no download url", ErrTransient)
	}
	return &UnrestrictedLink{
		URL:      resp.Download,
		Filename: resp.Filename,
		Filesize: resp.Filesize,
	}, nil
}

// Delete removes a torrent from the service.
func (c *Client) Delete(ctx context.Context, torrentID string) error {
	return c.do(ctx, http.MethodDelete, "torrents/delete/"+url.PathEscape(torrentID), nil, nil)
}

// apiError is the service's error payload.
type apiError struct {
	Error     string `json:"error"`
	ErrorCode int    `json:"error_code"`
}

func (c *Client) do(ctx context.Context, method, endpoint string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrTransient, method, endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrAuth, readAPIError(resp.Body))
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s %s: status %d", ErrTransient, method, endpoint, resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("debrid %s %s: status %d: %s", method, endpoint, resp.StatusCode, readAPIError(resp.Body))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", ErrTransient, endpoint, err)
	}
	return nil
}

func readAPIError(r io.Reader) string {
	var e apiError
	if err := json.NewDecoder(r).Decode(&e); err != nil || e.Error == "" {
		return "unknown error"
	}
	return e.Error
}
