package mirror

import "strings"

// Normalizer maps raw repository-relative paths to canonical local paths.
// Monorepos commonly nest their servers under a single source root (the
// official servers repo uses "src/"); stripping that segment makes
// "src/everything" and "everything" the same logical directory.
type Normalizer struct {
	root string
}

// NewNormalizer returns a Normalizer that strips the given leading path
// segment. An empty marker disables stripping.
func NewNormalizer(rootSegment string) Normalizer {
	return Normalizer{root: strings.Trim(rootSegment, "/")}
}

// Normalize is total: any string is valid input and none ever fails.
// The root segment itself maps to "", which downstream treats as the
// top-level directory.
func (n Normalizer) Normalize(rawPath string) string {
	if n.root == "" {
		return rawPath
	}
	if rawPath == n.root {
		return ""
	}
	if strings.HasPrefix(rawPath, n.root+"/") {
		return rawPath[len(n.root)+1:]
	}
	return rawPath
}
