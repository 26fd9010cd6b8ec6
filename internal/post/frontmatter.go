package post

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
)

var (
	// ErrUnsupportedFile is returned for files that are not markdown posts.
	ErrUnsupportedFile = errors.New("unsupported post file")
	// ErrInvalidFrontmatter wraps strict validation failures.
	ErrInvalidFrontmatter = errors.New("invalid frontmatter")
)

// SupportedExtensions lists the file extensions read as posts.
var SupportedExtensions = map[string]bool{
	".md":       true,
	".mdx":      true,
	".markdown": true,
}

// IsSupported reports whether name has a post file extension.
func IsSupported(name string) bool {
	return SupportedExtensions[strings.ToLower(path.Ext(name))]
}

// TrimExt returns the base file name without its post extension.
func TrimExt(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if IsSupported(base) {
		return strings.TrimSuffix(base, path.Ext(base))
	}
	return base
}

// Frontmatter is the raw header of a post file. Both spellings used across
// the site's history are accepted for dates and the cover image.
type Frontmatter struct {
	ID               string   `yaml:"id" json:"id"`
	Title            string   `yaml:"title" json:"title"`
	Slug             string   `yaml:"slug" json:"slug"`
	Excerpt          string   `yaml:"excerpt" json:"excerpt"`
	Tags             []string `yaml:"tags" json:"tags"`
	Category         string   `yaml:"category" json:"category"`
	Project          string   `yaml:"project" json:"project"`
	Status           string   `yaml:"status" json:"status"`
	Published        *bool    `yaml:"published" json:"published"`
	GridSize         int      `yaml:"gridSize" json:"gridSize"`
	CoverImage       string   `yaml:"coverImage" json:"coverImage"`
	CoverImageSnake  string   `yaml:"cover_image" json:"cover_image"`
	Date             any      `yaml:"date" json:"date"`
	PublishedAt      any      `yaml:"published_at" json:"published_at"`
	PublishedAtCamel any      `yaml:"publishedAt" json:"publishedAt"`
	UpdatedAt        any      `yaml:"updated_at" json:"updated_at"`
	UpdatedAtCamel   any      `yaml:"updatedAt" json:"updatedAt"`
}

// ParseFrontmatter splits src into its header and markdown body. Files
// without a header yield an empty Frontmatter and the whole input as body.
func ParseFrontmatter(src []byte) (Frontmatter, []byte, error) {
	var fm Frontmatter
	body, err := frontmatter.Parse(bytes.NewReader(src), &fm)
	if err != nil {
		return Frontmatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	return fm, body, nil
}

// Cover returns whichever cover image field is set.
func (f Frontmatter) Cover() string {
	if f.CoverImage != "" {
		return f.CoverImage
	}
	return f.CoverImageSnake
}

// PublishDate returns the first usable value of date, published_at and
// publishedAt, or the zero time.
func (f Frontmatter) PublishDate() time.Time {
	return firstDate(f.Date, f.PublishedAt, f.PublishedAtCamel)
}

// Updated returns the last-modified date, or the zero time.
func (f Frontmatter) Updated() time.Time {
	return firstDate(f.UpdatedAt, f.UpdatedAtCamel)
}

// IsPublished reports whether the post should appear on the site. Posts are
// published unless marked published: false or status: draft.
func (f Frontmatter) IsPublished() bool {
	if f.Published != nil && !*f.Published {
		return false
	}
	return Status(strings.ToLower(f.Status)) != StatusDraft
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func firstDate(candidates ...any) time.Time {
	for _, c := range candidates {
		switch v := c.(type) {
		case time.Time:
			if !v.IsZero() {
				return v.UTC()
			}
		case string:
			if t, ok := parseDate(v); ok {
				return t
			}
		}
	}
	return time.Time{}
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ParseFile builds a Post from a file name and its contents. The slug comes
// from the frontmatter when present, otherwise from the file name.
func ParseFile(name string, src []byte) (*Post, error) {
	if !IsSupported(name) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, name)
	}

	fm, body, err := ParseFrontmatter(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return FromFrontmatter(TrimExt(name), fm, string(body)), nil
}

// FromFrontmatter assembles a Post from an already parsed header.
func FromFrontmatter(fallbackSlug string, fm Frontmatter, body string) *Post {
	slugValue := strings.TrimSpace(fm.Slug)
	if slugValue == "" {
		slugValue = fallbackSlug
	}

	status := StatusPublished
	published := fm.IsPublished()
	if !published {
		status = StatusDraft
	}

	category, _ := ParseCategory(fm.Category)
	minutes, text := ReadingTime(body)

	tags := make([]string, 0, len(fm.Tags))
	for _, t := range fm.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	return &Post{
		Metadata: Metadata{
			ID:          strings.TrimSpace(fm.ID),
			Slug:        slugValue,
			Title:       fm.Title,
			Excerpt:     fm.Excerpt,
			CoverImage:  fm.Cover(),
			Date:        fm.PublishDate(),
			UpdatedAt:   fm.Updated(),
			Tags:        tags,
			Category:    category,
			Project:     strings.TrimSpace(fm.Project),
			ReadingTime: text,
			ReadMinutes: minutes,
			Status:      status,
			Published:   published,
			Size:        fm.GridSize,
		},
		Content: body,
	}
}
