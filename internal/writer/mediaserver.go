package writer

import "context"

// MediaServer is the scan-notification surface of a media server. The
// writer only ever nudges the server to pick up pointer file changes;
// failures are logged and never block library mutations.
type MediaServer interface {
	// ScanPath asks the server to rescan the directory containing path.
	ScanPath(ctx context.Context, path string) error
}

var (
	_ MediaServer = (*JellyfinClient)(nil)
	_ MediaServer = (*PlexClient)(nil)
)
