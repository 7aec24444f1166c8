package crawler

import (
	"regexp"
	"strings"
)

var (
	nonWordChars = regexp.MustCompile(`[^\w\s-]`)
	spaceRuns    = regexp.MustCompile(`\s+`)
)

// normalizeEntryName converts a scraped entry name into a filesystem-safe
// directory name: punctuation dropped, whitespace runs collapsed to a
// single underscore, lowercased.
func normalizeEntryName(name string) string {
	n := nonWordChars.ReplaceAllString(name, "")
	n = spaceRuns.ReplaceAllString(strings.TrimSpace(n), "_")
	return strings.ToLower(n)
}
