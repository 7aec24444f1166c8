package service

import (
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

// CompareVersions orders two declared entry versions. Directories publish
// anything from strict semver to free-form strings, so comparison is best
// effort: both semver-ish values compare semantically, otherwise the crawl
// timestamps break the tie. Returns <0 if a is older, >0 if newer, 0 if
// indistinguishable.
func CompareVersions(a, b string, aTime, bTime time.Time) int {
	av, aOK := canonical(a)
	bv, bOK := canonical(b)
	if aOK && bOK {
		if c := semver.Compare(av, bv); c != 0 {
			return c
		}
		return 0
	}
	if aTime.After(bTime) {
		return 1
	}
	if bTime.After(aTime) {
		return -1
	}
	return 0
}

func canonical(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return "", false
	}
	return semver.Canonical(v), true
}
