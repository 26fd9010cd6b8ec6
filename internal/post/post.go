// Package post defines blog post metadata and parses posts from markdown
// files with frontmatter.
package post

import (
	"sort"
	"strings"
	"time"
)

// Category groups posts into the site's top-level sections.
type Category string

const (
	CategoryProjects     Category = "projects"
	CategoryProductivity Category = "productivity"
	CategoryLife         Category = "life"
)

// ParseCategory maps a free-form value onto a known category. Unknown values
// yield the empty category and false.
func ParseCategory(s string) (Category, bool) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryProjects, CategoryProductivity, CategoryLife:
		return c, true
	}
	return "", false
}

// Status is the editorial state of a post.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Metadata is everything about a post except its body.
type Metadata struct {
	ID          string    `json:"id,omitempty"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Excerpt     string    `json:"excerpt"`
	CoverImage  string    `json:"coverImage"`
	Date        time.Time `json:"date"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero"`
	Tags        []string  `json:"tags"`
	Category    Category  `json:"category,omitempty"`
	Project     string    `json:"project,omitempty"`
	ReadingTime string    `json:"readingTime"`
	ReadMinutes int       `json:"readMinutes"`
	Status      Status    `json:"status"`
	Published   bool      `json:"published"`
	Size        int       `json:"gridSize,omitempty"`
}

// GridSize reports the declared grid card size, 0 when unset.
func (m Metadata) GridSize() int { return m.Size }

// WithGridSize returns a copy of m with the grid size set.
func WithGridSize(m Metadata, size int) Metadata {
	m.Size = size
	return m
}

// HasTag reports whether the post carries tag, compared exactly.
func (m Metadata) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Post is a post with its markdown body.
type Post struct {
	Metadata
	Content string `json:"content"`
}

// TagCount is a tag and how many published posts use it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Filter selects posts for a listing. Zero fields do not filter.
type Filter struct {
	Tag      string
	Category Category
	Project  string
	Status   Status
	Page     int // 1-based
	Limit    int // 0 means no limit
}

// Offset is the number of posts skipped before the requested page.
func (f Filter) Offset() int {
	if f.Page < 1 || f.Limit < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// Page is one page of a post listing.
type Page struct {
	Posts      []Metadata `json:"posts"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	TotalPages int        `json:"totalPages"`
}

// NewPage fills in the derived paging fields.
func NewPage(posts []Metadata, total int, f Filter) Page {
	if posts == nil {
		posts = []Metadata{}
	}
	p := Page{Posts: posts, Total: total, Page: f.Page, Limit: f.Limit}
	if p.Page < 1 {
		p.Page = 1
	}
	if f.Limit > 0 {
		p.TotalPages = (total + f.Limit - 1) / f.Limit
	} else if total > 0 {
		p.TotalPages = 1
	}
	return p
}

// Sort orders posts newest first. Posts sharing a date keep slug order so
// listings are stable.
func Sort(posts []Metadata) {
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].Date.Equal(posts[j].Date) {
			return posts[i].Slug < posts[j].Slug
		}
		return posts[i].Date.After(posts[j].Date)
	})
}

// CountTags tallies tags across posts, most used first, ties by name.
func CountTags(posts []Metadata) []TagCount {
	counts := map[string]int{}
	for _, p := range posts {
		for _, t := range p.Tags {
			counts[t]++
		}
	}
	out := make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Tag < out[j].Tag
		}
		return out[i].Count > out[j].Count
	})
	return out
}
