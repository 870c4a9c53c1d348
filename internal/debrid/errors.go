package debrid

import "errors"

// Sentinel errors for the debrid package.
var (
	// ErrAuth is returned when the service rejects the credentials.
	// Fatal: surfaced to the operator, never retried.
	ErrAuth = errors.New("debrid authentication failed")

	// ErrNotCached is returned when the service does not hold the content
	// after the bounded polling attempts are spent.
	ErrNotCached = errors.New("content not cached on debrid service")

	// ErrTransient is returned for network or service failures that are
	// worth retrying with backoff.
	ErrTransient = errors.New("transient debrid service error")

	// ErrNoVideoFiles is returned when a torrent holds nothing playable.
	ErrNoVideoFiles = errors.New("no video files in torrent")
)
