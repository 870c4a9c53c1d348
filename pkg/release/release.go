// Package release parses acquisition artifact names and stream labels to
// extract titles, episode numbering, and quality information.
package release

import "strings"

// Quality is a normalized quality label.
type Quality string

const (
	QualityUnknown Quality = "unknown"
	Quality480p    Quality = "480p"
	Quality720p    Quality = "720p"
	Quality1080p   Quality = "1080p"
	Quality4K      Quality = "4k"
)

// Rank orders qualities from lowest to highest. Unknown ranks below everything.
func (q Quality) Rank() int {
	switch q {
	case Quality480p:
		return 1
	case Quality720p:
		return 2
	case Quality1080p:
		return 3
	case Quality4K:
		return 4
	default:
		return 0
	}
}

// ParseQuality normalizes a user- or config-supplied quality string.
func ParseQuality(s string) Quality {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "480p", "480", "sd":
		return Quality480p
	case "720p", "720", "hd":
		return Quality720p
	case "1080p", "1080", "fhd":
		return Quality1080p
	case "4k", "2160p", "2160", "uhd":
		return Quality4K
	default:
		return QualityUnknown
	}
}

// DetectQuality infers the quality of a stream from its display name and
// title. Resolution tokens are checked highest first so a "4K 1080p remux"
// label resolves to 4k.
func DetectQuality(name, title string) Quality {
	text := strings.ToLower(name + " " + title)
	switch {
	case containsAny(text, "2160p", "2160", "4k", "uhd"):
		return Quality4K
	case containsAny(text, "1080p", "1080", "fhd"):
		return Quality1080p
	case containsAny(text, "720p", "720", "hd"):
		return Quality720p
	case containsAny(text, "480p", "480"):
		return Quality480p
	default:
		return QualityUnknown
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
