package release

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind distinguishes movie artifacts from show artifacts.
type Kind string

const (
	KindMovie Kind = "movie"
	KindShow  Kind = "show"
)

// Parsed holds the information extracted from an artifact filename.
type Parsed struct {
	Title   string
	Year    int
	Season  int // 0 when absent
	Episode int // 0 when absent (season packs carry a season but no episode)
	Quality Quality
	IMDbID  string // ttNNNNNNN when present in the name
	Kind    Kind
}

var (
	extRegex  = regexp.MustCompile(`(?i)\.(magnet|torrent)$`)
	yearRegex = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	imdbRegex = regexp.MustCompile(`\btt\d{7,8}\b`)

	// Season/episode patterns, most specific first.
	seasonEpisodePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bS(\d{1,2})[\s._-]*E(\d{1,2})\b`),
		regexp.MustCompile(`(?i)\bSeason[\s._-]*(\d{1,2})[\s._-]*Episode[\s._-]*(\d{1,2})\b`),
		regexp.MustCompile(`(?i)\b(\d{1,2})x(\d{1,2})\b`),
	}
	seasonOnlyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bS(\d{1,2})\.?(?:COMPLETE)?\b`),
		regexp.MustCompile(`(?i)\bSeason[\s._-]*(\d{1,2})\b`),
	}

	// Tokens that mark the end of the title portion of a name.
	titleEndRegex = regexp.MustCompile(`(?i)\b(S\d{1,2}E\d{1,2}|S\d{1,2}|Season\s*\d{1,2}|\d{1,2}x\d{1,2}|720p|1080p|2160p|4K|480p|BluRay|BDRip|WEB[\s.-]?DL|WEBRip|HDTV|HEVC|x26[45]|h26[45]|HDR|PROPER|REPACK|REMUX|AMZN|NF|MAX)\b|\[|\((19|20)\d{2}\)`)

	trailingPunct = regexp.MustCompile(`[^\w\s]+$`)
)

// Parse extracts title, year, numbering and quality from an artifact
// filename such as "Some.Show.S01E04.1080p.WEB-DL.x265-GROUP.magnet".
func Parse(filename string) Parsed {
	name := extRegex.ReplaceAllString(filename, "")

	p := Parsed{
		Quality: DetectQuality(name, ""),
		Kind:    KindMovie,
	}

	if m := imdbRegex.FindString(name); m != "" {
		p.IMDbID = m
	}

	// Season/episode detection decides movie vs show.
	for _, re := range seasonEpisodePatterns {
		if m := re.FindStringSubmatch(name); m != nil {
			p.Season, _ = strconv.Atoi(m[1])
			p.Episode, _ = strconv.Atoi(m[2])
			p.Kind = KindShow
			break
		}
	}
	if p.Kind == KindMovie {
		for _, re := range seasonOnlyPatterns {
			if m := re.FindStringSubmatch(name); m != nil {
				p.Season, _ = strconv.Atoi(m[1])
				p.Kind = KindShow
				break
			}
		}
	}

	// First year that is not the leading token is the release year; a name
	// that opens with four digits is a title like "1917".
	for _, loc := range yearRegex.FindAllStringIndex(name, -1) {
		if loc[0] > 0 {
			p.Year, _ = strconv.Atoi(name[loc[0]:loc[1]])
			break
		}
	}

	p.Title = extractTitle(name)
	return p
}

// extractTitle takes everything before the first numbering/quality/year
// marker and cleans separator characters out of it.
func extractTitle(name string) string {
	end := len(name)
	if loc := titleEndRegex.FindStringIndex(name); loc != nil && loc[0] < end {
		end = loc[0]
	}
	// A year also ends the title, unless it sits at the very start of the
	// name (e.g. "1917").
	for _, loc := range yearRegex.FindAllStringIndex(name, -1) {
		if loc[0] > 0 && loc[0] < end {
			end = loc[0]
			break
		}
	}

	title := name[:end]
	title = strings.NewReplacer(".", " ", "_", " ", "-", " ").Replace(title)
	title = trailingPunct.ReplaceAllString(strings.TrimSpace(title), "")
	return strings.Join(strings.Fields(title), " ")
}
