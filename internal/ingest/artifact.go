// Package ingest watches an intake directory for acquisition artifacts
// (magnet and torrent files) and turns them into acquisition events.
package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/vmunix/strmd/pkg/release"
)

// btihRegex extracts the BitTorrent info-hash from a magnet URI, hex or
// base32 form.
var btihRegex = regexp.MustCompile(`(?i)urn:btih:([0-9a-f]{40}|[a-z2-7]{32})`)

// Artifact is one parsed acquisition reference from the intake dir.
type Artifact struct {
	// Name is the artifact's base filename.
	Name string

	// Magnet is the canonical magnet URI handed to the resolver.
	Magnet string

	// Hash is the lowercased info-hash.
	Hash string

	// Parsed is the release metadata derived from the filename.
	Parsed release.Parsed
}

// ParseArtifact reads and parses one intake file. Supported forms: a
// .magnet file whose content is a magnet URI, and a .torrent file whose
// info dictionary yields the hash.
func ParseArtifact(path string) (*Artifact, error) {
	name := filepath.Base(path)

	var magnet, hash string
	switch strings.ToLower(filepath.Ext(name)) {
	case ".magnet":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read artifact: %w", err)
		}
		magnet = strings.TrimSpace(string(data))
		m := btihRegex.FindStringSubmatch(magnet)
		if m == nil {
			return nil, fmt.Errorf("no info-hash in %s", name)
		}
		hash = strings.ToLower(m[1])

	case ".torrent":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read artifact: %w", err)
		}
		h, err := infoHash(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		hash = h
		magnet = "magnet:?xt=urn:btih:" + hash

	default:
		return nil, fmt.Errorf("unsupported artifact type %q", filepath.Ext(name))
	}

	parsed := release.Parse(name)
	if parsed.Title == "" {
		return nil, fmt.Errorf("no title in artifact name %s", name)
	}

	return &Artifact{
		Name:   name,
		Magnet: magnet,
		Hash:   hash,
		Parsed: parsed,
	}, nil
}

// ContentID returns the stable content identifier for the artifact: the
// embedded IMDb id when the name carries one, the info-hash otherwise.
func (a *Artifact) ContentID() string {
	if a.Parsed.IMDbID != "" {
		return a.Parsed.IMDbID
	}
	return a.Hash
}
