package blog

import (
	"errors"
	"strings"
)

// DefaultRevalidatePaths are purged when a revalidation names no paths.
var DefaultRevalidatePaths = []string{"/blog", "/api/posts", "/api/tags"}

var errBadPath = errors.New("path must start with /")

// PathError reports a path that could not be revalidated.
type PathError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Revalidation is the outcome of Revalidate.
type Revalidation struct {
	Revalidated []string    `json:"revalidated"`
	Errors      []PathError `json:"errors,omitempty"`
	Purged      int         `json:"purged"`
}

// Revalidate drops the cached data behind each site path so the next read
// goes to the store. With no paths, DefaultRevalidatePaths are used.
func (s *Service) Revalidate(paths ...string) Revalidation {
	if len(paths) == 0 {
		paths = DefaultRevalidatePaths
	}

	out := Revalidation{Revalidated: []string{}}
	for _, p := range paths {
		if !strings.HasPrefix(p, "/") {
			out.Errors = append(out.Errors, PathError{Path: p, Error: errBadPath.Error()})
			s.log.Warn("revalidate failed", "path", p, "error", errBadPath)
			continue
		}
		n := 0
		if s.cache != nil {
			if slug, ok := postSlug(p); ok {
				if s.cache.Delete(keyPost + slug) {
					n++
				}
			} else {
				for _, prefix := range prefixesFor(p) {
					n += s.cache.DeletePrefix(prefix)
				}
			}
		}
		out.Purged += n
		out.Revalidated = append(out.Revalidated, p)
		s.log.Info("revalidated", "path", p, "purged", n)
	}
	return out
}

// prefixesFor maps a listing path onto the cache key prefixes that feed it.
// Unknown paths clear everything.
func prefixesFor(path string) []string {
	path = strings.TrimSuffix(path, "/")
	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")

	switch {
	case path == "" || path == "/blog" || path == "/api/posts":
		return []string{keyPosts, keyProjects, keySearch}
	case path == "/api/tags" || segments[0] == "tag":
		return []string{keyTags, keyPosts}
	case segments[0] == "projects" || path == "/api/projects" || strings.HasPrefix(path, "/api/projects/"):
		return []string{keyProjects, keyPosts}
	case (segments[0] == "productivity" || segments[0] == "life") && len(segments) == 1:
		return []string{keyPosts}
	}
	return []string{""}
}

// postSlug extracts the slug from /blog/{slug} and /api/posts/{slug}.
func postSlug(path string) (string, bool) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case len(segments) == 2 && segments[0] == "blog":
		return segments[1], segments[1] != ""
	case len(segments) == 3 && segments[0] == "api" && segments[1] == "posts":
		return segments[2], segments[2] != ""
	}
	return "", false
}
