package writer

import (
	"regexp"
	"strings"
)

// illegalChars are characters not allowed in filenames on common filesystems.
var illegalChars = regexp.MustCompile(`[<>:"/\\|?*\x00]`)

var (
	multiSpace = regexp.MustCompile(`\s+`)
	multiDot   = regexp.MustCompile(`\.{2,}`)
)

// SanitizeFilename removes or replaces characters that are unsafe for
// filenames. Titles come straight from artifact names, so this also guards
// against path traversal through crafted separators.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\x00", "")
	name = strings.ReplaceAll(name, "/", " ")
	name = strings.ReplaceAll(name, "\\", " ")
	name = illegalChars.ReplaceAllString(name, " ")
	name = multiDot.ReplaceAllString(name, ".")
	name = multiSpace.ReplaceAllString(name, " ")
	return strings.Trim(name, " .")
}
