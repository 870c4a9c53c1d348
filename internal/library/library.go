// Package library tracks items, episodes, and the stream pointers that
// represent them on disk.
package library

import (
	"time"
)

// ItemKind distinguishes movies from shows.
type ItemKind string

const (
	KindMovie ItemKind = "movie"
	KindShow  ItemKind = "show"
)

// Item represents a movie or a show in the library.
type Item struct {
	ID        int64
	Kind      ItemKind
	ContentID string // stable content identifier (IMDb id or info hash)
	Title     string
	Year      int
	AddedAt   time.Time
	UpdatedAt time.Time
}

// Episode represents a single episode of a show. Episodes never exist
// without their parent item.
type Episode struct {
	ID        int64
	ItemID    int64
	Season    int
	Episode   int
	AirStatus string
}

// LinkStatus tracks the lifecycle of a pointer's cached link.
type LinkStatus string

const (
	// StatusUnresolved means no link has ever been resolved.
	StatusUnresolved LinkStatus = "unresolved"
	// StatusValid means the cached link is inside its validity horizon.
	StatusValid LinkStatus = "valid"
	// StatusStale means the last refresh failed once; the old link still serves.
	StatusStale LinkStatus = "stale"
	// StatusInvalid means two consecutive refreshes failed; redirects are
	// blocked until the pointer is re-resolved.
	StatusInvalid LinkStatus = "invalid"
)

// Pointer is one quality variant of an item or episode: a stable handle the
// on-disk file refers to, behind which the cached link rotates.
type Pointer struct {
	ID         int64
	ItemID     int64
	EpisodeID  *int64 // nil for movies
	Quality    string
	Path       string // absolute pointer file path
	Status     LinkStatus
	Link       *string
	ResolvedAt *time.Time
	FailCount  int
	SourceRef  string // magnet URI or info hash the pointer was acquired from
	AddedAt    time.Time
	UpdatedAt  time.Time

	// ContentID is the owning item's content identifier, joined in on reads.
	ContentID string
}
