// Package addon queries external stream-index addons for playable
// candidate URLs and ranks them against a desired quality.
package addon

import (
	"sort"

	"github.com/vmunix/strmd/pkg/release"
)

// Candidate is one playable stream option. Transient, never persisted.
type Candidate struct {
	URL     string
	Title   string
	Quality release.Quality

	// Source identifies the addon that produced the candidate.
	// SourceRank is its position in the configured addon list.
	Source     string
	SourceRank int
}

// rankClass buckets a candidate's quality against the desired one.
// Lower is better: exact match, then below desired, then above.
const (
	classExact = iota
	classBelow
	classAbove
)

func classify(q, desired release.Quality) (class, distance int) {
	if q == desired {
		return classExact, 0
	}
	if q.Rank() < desired.Rank() {
		return classBelow, desired.Rank() - q.Rank()
	}
	return classAbove, q.Rank() - desired.Rank()
}

// Rank orders candidates for a desired quality: exact matches first, then
// the nearest quality below, then qualities above, with the configured
// source order breaking ties. The sort is stable so candidates from one
// addon keep their reported order.
func Rank(candidates []Candidate, desired release.Quality) []Candidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		ci, di := classify(candidates[i].Quality, desired)
		cj, dj := classify(candidates[j].Quality, desired)
		if ci != cj {
			return ci < cj
		}
		if di != dj {
			return di < dj
		}
		return candidates[i].SourceRank < candidates[j].SourceRank
	})
	return candidates
}
