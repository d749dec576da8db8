package shared

import (
	"net/url"
	"path/filepath"
	"strings"
)

var repoHosts = map[string]struct{}{
	"github.com":                {},
	"raw.githubusercontent.com": {},
	"gitlab.com":                {},
}

// SourceIDFromURL derives a stable source identifier from a requirements
// location. Repository hosts yield "owner/repo" so trust tables can match
// on the owner; other URLs yield host and path; local files yield the
// cleaned path.
func SourceIDFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	raw = scpToURL(raw)
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Scheme == "file" {
		path := raw
		if err == nil && parsed.Scheme == "file" {
			path = parsed.Path
		}
		return filepath.Clean(path)
	}
	segments := strings.FieldsFunc(parsed.Path, func(r rune) bool { return r == '/' })
	if _, ok := repoHosts[strings.ToLower(parsed.Host)]; ok && len(segments) >= 2 {
		return segments[0] + "/" + strings.TrimSuffix(segments[1], ".git")
	}
	return strings.TrimSuffix(parsed.Host+parsed.Path, "/")
}

// scpToURL rewrites git's scp-like syntax (git@github.com:owner/repo.git)
// into an ssh URL.
func scpToURL(raw string) string {
	if strings.Contains(raw, "://") {
		return raw
	}
	userHost, path, ok := strings.Cut(raw, ":")
	if !ok || !strings.Contains(userHost, "@") || strings.ContainsAny(userHost, "/\\") {
		return raw
	}
	return "ssh://" + userHost + "/" + path
}
