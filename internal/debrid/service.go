package debrid

import "context"

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/service.go -package=mocks . Service

// Service is the debrid caching service API surface the resolver depends on.
// Client implements it against a Real-Debrid-compatible REST API.
type Service interface {
	// AddMagnet submits a magnet URI and returns the service-side torrent id.
	AddMagnet(ctx context.Context, magnet string) (string, error)

	// TorrentInfo fetches the current state of a submitted torrent.
	TorrentInfo(ctx context.Context, torrentID string) (*TorrentInfo, error)

	// SelectFiles marks the given files for caching.
	SelectFiles(ctx context.Context, torrentID string, fileIDs []int64) error

	// Unrestrict exchanges a service link for a direct download URL.
	Unrestrict(ctx context.Context, link string) (*UnrestrictedLink, error)

	// Delete removes a torrent from the service. Best effort.
	Delete(ctx context.Context, torrentID string) error
}

// TorrentInfo is the service's view of a submitted torrent.
type TorrentInfo struct {
	ID       string
	Status   string
	Progress float64
	Files    []TorrentFile
	Links    []string
}

// TorrentFile is one file inside a torrent.
type TorrentFile struct {
	ID       int64
	Path     string
	Bytes    int64
	Selected bool
}

// UnrestrictedLink is a direct, streamable URL for one file.
type UnrestrictedLink struct {
	URL      string
	Filename string
	Filesize int64
}

// Statuses reported by the service. "downloaded" means the content is
// cached and links are available; the pending set means not cached yet;
// the dead set means the reference will never resolve.
const (
	StatusDownloaded = "downloaded"
)

var pendingStatuses = map[string]bool{
	"magnet_conversion":       true,
	"waiting_files_selection": true,
	"queued":                  true,
	"downloading":             true,
	"uploading":               true,
	"compressing":             true,
}

// Pending reports whether the status means the torrent may still become
// cached if polled again.
func Pending(status string) bool {
	return pendingStatuses[status]
}

var deadStatuses = map[string]bool{
	"error":        true,
	"magnet_error": true,
	"virus":        true,
	"dead":         true,
}
