// Package events provides the in-process event bus and the domain events
// flowing between the ingest, resolution, and streaming components.
package events

import (
	"time"

	"github.com/vmunix/strmd/pkg/release"
)

// Event type names.
const (
	TypeAcquisitionDetected = "acquisition.detected"
	TypePointerCreated      = "pointer.created"
	TypePointerRemoved      = "pointer.removed"
	TypeLinkRefreshed       = "link.refreshed"
	TypeLinkInvalid         = "link.invalid"
	TypeSessionExhausted    = "session.exhausted"
)

// Entity type names.
const (
	EntityArtifact = "artifact"
	EntityPointer  = "pointer"
	EntityItem     = "item"
)

// Event is the base interface all events implement.
type Event interface {
	EventType() string
	EntityType() string // "artifact", "pointer", "item"
	EntityID() int64
	OccurredAt() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	Type      string    `json:"type"`
	Entity    string    `json:"entity_type"`
	ID        int64     `json:"entity_id"`
	Timestamp time.Time `json:"occurred_at"`
}

func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) EntityType() string    { return e.Entity }
func (e BaseEvent) EntityID() int64       { return e.ID }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// NewBaseEvent creates a BaseEvent with the current timestamp.
func NewBaseEvent(eventType, entityType string, entityID int64) BaseEvent {
	return BaseEvent{
		Type:      eventType,
		Entity:    entityType,
		ID:        entityID,
		Timestamp: time.Now(),
	}
}

// AcquisitionDetected is published by the ingest watcher for every artifact
// it consumes from the intake directory.
type AcquisitionDetected struct {
	BaseEvent
	Artifact  string         `json:"artifact"`   // original artifact filename
	ContentID string         `json:"content_id"` // IMDb id or info hash
	Magnet    string         `json:"magnet"`     // magnet URI of the acquisition
	Parsed    release.Parsed `json:"parsed"`
}

// NewAcquisitionDetected creates an acquisition event. Artifacts have no
// database identity, so the entity id is zero.
func NewAcquisitionDetected(artifact, contentID, magnet string, parsed release.Parsed) AcquisitionDetected {
	return AcquisitionDetected{
		BaseEvent: NewBaseEvent(TypeAcquisitionDetected, EntityArtifact, 0),
		Artifact:  artifact,
		ContentID: contentID,
		Magnet:    magnet,
		Parsed:    parsed,
	}
}

// PointerCreated is published after a pointer file lands on disk.
type PointerCreated struct {
	BaseEvent
	Path    string `json:"path"`
	Quality string `json:"quality"`
}

func NewPointerCreated(pointerID int64, path, quality string) PointerCreated {
	return PointerCreated{
		BaseEvent: NewBaseEvent(TypePointerCreated, EntityPointer, pointerID),
		Path:      path,
		Quality:   quality,
	}
}

// PointerRemoved is published after a pointer file and record are deleted.
type PointerRemoved struct {
	BaseEvent
	Path string `json:"path"`
}

func NewPointerRemoved(pointerID int64, path string) PointerRemoved {
	return PointerRemoved{
		BaseEvent: NewBaseEvent(TypePointerRemoved, EntityPointer, pointerID),
		Path:      path,
	}
}

// LinkRefreshed is published when a pointer's cached link is swapped.
type LinkRefreshed struct {
	BaseEvent
	ResolvedAt time.Time `json:"resolved_at"`
}

func NewLinkRefreshed(pointerID int64, resolvedAt time.Time) LinkRefreshed {
	return LinkRefreshed{
		BaseEvent:  NewBaseEvent(TypeLinkRefreshed, EntityPointer, pointerID),
		ResolvedAt: resolvedAt,
	}
}

// LinkInvalid is published when a pointer's link is downgraded to invalid.
type LinkInvalid struct {
	BaseEvent
	Reason string `json:"reason"`
}

func NewLinkInvalid(pointerID int64, reason string) LinkInvalid {
	return LinkInvalid{
		BaseEvent: NewBaseEvent(TypeLinkInvalid, EntityPointer, pointerID),
		Reason:    reason,
	}
}

// SessionExhausted is published when a playback session runs out of
// candidates.
type SessionExhausted struct {
	BaseEvent
	SessionID  string `json:"session_id"`
	Candidates int    `json:"candidates"`
}

func NewSessionExhausted(pointerID int64, sessionID string, candidates int) SessionExhausted {
	return SessionExhausted{
		BaseEvent:  NewBaseEvent(TypeSessionExhausted, EntityPointer, pointerID),
		SessionID:  sessionID,
		Candidates: candidates,
	}
}
