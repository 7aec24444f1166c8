package mirror

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNotGitHubRepo is returned for links that do not point at a GitHub
// repository; such entries are skipped, not failed.
var ErrNotGitHubRepo = errors.New("not a github repository URL")

// RepoRef identifies one GitHub repository
type RepoRef struct {
	Owner string
	Name  string
}

// ParseRepoURL extracts owner and repository name from a GitHub URL.
// Trailing ".git" and any extra path segments are dropped.
func ParseRepoURL(raw string) (RepoRef, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return RepoRef{}, fmt.Errorf("%w: %q", ErrNotGitHubRepo, raw)
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	if host != "github.com" {
		return RepoRef{}, fmt.Errorf("%w: %q", ErrNotGitHubRepo, raw)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return RepoRef{}, fmt.Errorf("%w: %q", ErrNotGitHubRepo, raw)
	}

	name := strings.TrimSuffix(parts[1], ".git")
	return RepoRef{Owner: parts[0], Name: name}, nil
}

// ContentsURL returns the contents-API endpoint for the repository root
func (r RepoRef) ContentsURL() string {
	return fmt.Sprintf("https://api.github.com/repos/%s/%s/contents", r.Owner, r.Name)
}
