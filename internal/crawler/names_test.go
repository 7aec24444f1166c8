package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEntryName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Filesystem Server", "filesystem_server"},
		{"  spaced   out  ", "spaced_out"},
		{"weird!@#chars", "weirdchars"},
		{"dash-is-kept", "dash-is-kept"},
		{"under_score", "under_score"},
		{"MixedCASE", "mixedcase"},
		{"", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, normalizeEntryName(tc.raw), "input %q", tc.raw)
	}
}
