package release

import (
	"regexp"

	"github.com/hbollon/go-edlib"
)

// numberRegex extracts sequence numbers from titles (e.g., "2", "3")
var numberRegex = regexp.MustCompile(`\b(\d+)\b`)

// MatchConfidence represents the confidence level of a title match.
type MatchConfidence int

const (
	ConfidenceNone   MatchConfidence = iota // Score < 0.70
	ConfidenceLow                           // Score >= 0.70
	ConfidenceMedium                        // Score >= 0.85
	ConfidenceHigh                          // Score >= 0.95
)

func (c MatchConfidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceLow:
		return "low"
	default:
		return "none"
	}
}

// MatchResult represents the result of a fuzzy title match.
type MatchResult struct {
	Title      string          // The matched candidate title
	Score      float64         // Jaro-Winkler similarity score (0.0-1.0)
	Confidence MatchConfidence // Confidence level based on score
}

// MatchTitle finds the best match for a parsed title against candidate titles.
// Uses Jaro-Winkler similarity which favors prefix matches (good for media
// titles). Sequence numbers must agree for a match to keep its score, so
// "Movie 2" does not land on the library's "Movie 3".
func MatchTitle(parsed string, candidates []string) MatchResult {
	if len(candidates) == 0 {
		return MatchResult{Confidence: ConfidenceNone}
	}

	normalizedParsed := CleanTitle(parsed)
	parsedNumbers := numberRegex.FindAllString(normalizedParsed, -1)

	best := MatchResult{Confidence: ConfidenceNone}

	for _, candidate := range candidates {
		normalizedCandidate := CleanTitle(candidate)

		score := float64(edlib.JaroWinklerSimilarity(normalizedParsed, normalizedCandidate))

		candidateNumbers := numberRegex.FindAllString(normalizedCandidate, -1)
		score = adjustScoreForNumbers(score, parsedNumbers, candidateNumbers)

		if score > best.Score {
			best.Title = candidate
			best.Score = score
		}
	}

	switch {
	case best.Score >= 0.95:
		best.Confidence = ConfidenceHigh
	case best.Score >= 0.85:
		best.Confidence = ConfidenceMedium
	case best.Score >= 0.70:
		best.Confidence = ConfidenceLow
	default:
		best.Confidence = ConfidenceNone
		best.Title = ""
	}

	return best
}

// adjustScoreForNumbers penalizes candidates whose sequence numbers differ
// from the parsed title's, and rewards exact agreement.
func adjustScoreForNumbers(score float64, parsedNums, candidateNums []string) float64 {
	if len(parsedNums) == 0 {
		return score
	}

	parsedSet := make(map[string]bool, len(parsedNums))
	for _, n := range parsedNums {
		parsedSet[n] = true
	}

	matched := 0
	for _, n := range candidateNums {
		if parsedSet[n] {
			matched++
		}
	}

	switch {
	case matched == len(parsedNums) && len(candidateNums) == len(parsedNums):
		return min(score+0.03, 1.0)
	case matched == 0:
		return score * 0.80
	default:
		return score * 0.95
	}
}
