// Package store reads post metadata and bodies from the file system, a
// local SQLite database or a Supabase PostgREST table.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/SeanoChang/learning-blogs/internal/post"
)

// ErrNotFound is returned when no published post has the requested slug.
var ErrNotFound = errors.New("post not found")

// DefaultSearchLimit caps search results when the caller passes no limit.
const DefaultSearchLimit = 10

// Store is the read side shared by every backend.
type Store interface {
	List(ctx context.Context, f post.Filter) (post.Page, error)
	Get(ctx context.Context, slug string) (*post.Post, error)
	Tags(ctx context.Context) ([]post.TagCount, error)
	Slugs(ctx context.Context) ([]string, error)
	Search(ctx context.Context, query string, limit int) ([]post.Metadata, error)
}

// Writer is implemented by the database backends the indexer fills.
type Writer interface {
	Upsert(ctx context.Context, m post.Metadata) error
}

// ContentSource supplies markdown bodies for backends that only hold
// metadata.
type ContentSource interface {
	Content(ctx context.Context, slug string) (string, error)
}

// statusOf returns the status a filter selects, published by default.
func statusOf(f post.Filter) post.Status {
	if f.Status == "" {
		return post.StatusPublished
	}
	return f.Status
}

// matches applies f to one post, ignoring paging.
func matches(m post.Metadata, f post.Filter) bool {
	if m.Status != statusOf(f) {
		return false
	}
	if f.Tag != "" && !m.HasTag(f.Tag) {
		return false
	}
	if f.Category != "" && m.Category != f.Category {
		return false
	}
	if f.Project != "" && m.Project != f.Project {
		return false
	}
	return true
}

// paginate slices an already filtered and sorted list.
func paginate(all []post.Metadata, f post.Filter) post.Page {
	total := len(all)
	if f.Limit <= 0 {
		return post.NewPage(all, total, f)
	}
	start := min(f.Offset(), total)
	end := min(start+f.Limit, total)
	return post.NewPage(all[start:end], total, f)
}

func searchMatch(m post.Metadata, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(m.Title), q) ||
		strings.Contains(strings.ToLower(m.Excerpt), q)
}
