// Package blog answers the site's read queries: lists, articles,
// taxonomies, search and the card grid, caching results between calls.
package blog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/SeanoChang/learning-blogs/internal/cache"
	"github.com/SeanoChang/learning-blogs/internal/grid"
	"github.com/SeanoChang/learning-blogs/internal/post"
	"github.com/SeanoChang/learning-blogs/internal/render"
	"github.com/SeanoChang/learning-blogs/internal/store"
	"github.com/SeanoChang/learning-blogs/internal/toc"
)

const (
	DefaultCacheTTL        = time.Hour
	DefaultListCacheTTL    = time.Minute
	DefaultPostsPerProject = 3
)

// Cache key prefixes. Revalidate maps paths onto these.
const (
	keyPosts    = "posts:"
	keyPost     = "post:"
	keyTags     = "tags"
	keyProjects = "projects:"
	keySearch   = "search:"
)

// Renderer converts a markdown body into HTML and headings. MaxDepth is
// the deepest heading level given an anchor.
type Renderer interface {
	Render(ctx context.Context, markdown string) (*render.Result, error)
	MaxDepth() int
}

// ErrHeadingDepth is returned for a heading depth the renderer does not
// anchor.
var ErrHeadingDepth = errors.New("heading depth out of range")

// Article is a post with its rendered body.
type Article struct {
	post.Post
	HTML     string        `json:"html"`
	Headings []toc.Heading `json:"headings"`
	TOC      []*toc.Node   `json:"toc"`
}

// Options tunes cache lifetimes. A zero CacheTTL takes the cache's own
// TTL, then DefaultCacheTTL; a zero ListCacheTTL takes DefaultListCacheTTL.
type Options struct {
	CacheTTL     time.Duration // rendered articles
	ListCacheTTL time.Duration // lists, tags, projects and search
}

// Service is safe for concurrent use.
type Service struct {
	store    store.Store
	renderer Renderer
	cache    *cache.Cache
	log      *slog.Logger

	articleTTL time.Duration
	listTTL    time.Duration
}

// New wires a service. c may be nil to disable caching.
func New(st store.Store, r Renderer, c *cache.Cache, log *slog.Logger, opts Options) *Service {
	if opts.CacheTTL <= 0 && c != nil {
		opts.CacheTTL = c.TTL()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.ListCacheTTL <= 0 {
		opts.ListCacheTTL = DefaultListCacheTTL
	}
	return &Service{
		store:      st,
		renderer:   r,
		cache:      c,
		log:        log,
		articleTTL: opts.CacheTTL,
		listTTL:    opts.ListCacheTTL,
	}
}

// Posts returns one page of posts matching f.
func (s *Service) Posts(ctx context.Context, f post.Filter) (post.Page, error) {
	key := fmt.Sprintf("%s%s|%s|%s|%s|%d|%d", keyPosts, f.Tag, f.Category, f.Project, f.Status, f.Page, f.Limit)
	return cache.Fetch(ctx, s.cache, key, s.listTTL, func(ctx context.Context) (post.Page, error) {
		return s.store.List(ctx, f)
	})
}

// All returns every published post, newest first.
func (s *Service) All(ctx context.Context) ([]post.Metadata, error) {
	page, err := s.Posts(ctx, post.Filter{})
	if err != nil {
		return nil, err
	}
	return page.Posts, nil
}

// Post returns the rendered article for slug. Missing or unpublished posts
// surface store.ErrNotFound.
func (s *Service) Post(ctx context.Context, slug string) (*Article, error) {
	return cache.Fetch(ctx, s.cache, keyPost+slug, s.articleTTL, func(ctx context.Context) (*Article, error) {
		p, err := s.store.Get(ctx, slug)
		if err != nil {
			return nil, err
		}
		res, err := s.renderer.Render(ctx, p.Content)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", slug, err)
		}
		s.log.Debug("rendered post", "slug", slug, "headings", len(res.Headings))
		return &Article{Post: *p, HTML: res.HTML, Headings: res.Headings, TOC: res.TOC}, nil
	})
}

// HeadingDepth is the deepest heading level that carries an anchor in
// rendered articles.
func (s *Service) HeadingDepth() int { return s.renderer.MaxDepth() }

// Headings returns the article's headings down to depth, or down to
// HeadingDepth when depth is zero. The ids are those of the rendered
// anchors, so depth may not exceed HeadingDepth.
func (s *Service) Headings(ctx context.Context, slug string, depth int) ([]toc.Heading, error) {
	limit := s.HeadingDepth()
	if depth <= 0 {
		depth = limit
	}
	if depth > limit {
		return nil, fmt.Errorf("%w: %d is deeper than %d", ErrHeadingDepth, depth, limit)
	}

	article, err := s.Post(ctx, slug)
	if err != nil {
		return nil, err
	}
	out := make([]toc.Heading, 0, len(article.Headings))
	for _, h := range article.Headings {
		if h.Level <= depth {
			out = append(out, h)
		}
	}
	return out, nil
}

// Tags returns tag usage counts, most used first.
func (s *Service) Tags(ctx context.Context) ([]post.TagCount, error) {
	return cache.Fetch(ctx, s.cache, keyTags, s.listTTL, s.store.Tags)
}

// TagNames returns the distinct tags in alphabetical order.
func (s *Service) TagNames(ctx context.Context) ([]string, error) {
	counts, err := s.Tags(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(counts))
	for i, tc := range counts {
		names[i] = tc.Tag
	}
	slices.Sort(names)
	return names, nil
}

// Slugs lists every published slug.
func (s *Service) Slugs(ctx context.Context) ([]string, error) {
	return s.store.Slugs(ctx)
}

func (s *Service) projectPosts(ctx context.Context) ([]post.Metadata, error) {
	page, err := s.Posts(ctx, post.Filter{Category: post.CategoryProjects})
	if err != nil {
		return nil, err
	}
	return page.Posts, nil
}

// Projects returns the distinct project names of posts in the projects
// category, sorted.
func (s *Service) Projects(ctx context.Context) ([]string, error) {
	posts, err := s.projectPosts(ctx)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, m := range posts {
		if m.Project != "" && !slices.Contains(names, m.Project) {
			names = append(names, m.Project)
		}
	}
	slices.Sort(names)
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// ProjectPosts returns the newest posts of a project. limit <= 0 returns
// them all.
func (s *Service) ProjectPosts(ctx context.Context, name string, limit int) ([]post.Metadata, error) {
	posts, err := s.projectPosts(ctx)
	if err != nil {
		return nil, err
	}
	out := []post.Metadata{}
	for _, m := range posts {
		if m.Project != name {
			continue
		}
		out = append(out, m)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// ProjectsWithPosts maps every project to its n newest posts.
func (s *Service) ProjectsWithPosts(ctx context.Context, n int) (map[string][]post.Metadata, error) {
	if n <= 0 {
		n = DefaultPostsPerProject
	}
	key := fmt.Sprintf("%s%d", keyProjects, n)
	return cache.Fetch(ctx, s.cache, key, s.listTTL, func(ctx context.Context) (map[string][]post.Metadata, error) {
		names, err := s.Projects(ctx)
		if err != nil {
			return nil, err
		}
		out := make(map[string][]post.Metadata, len(names))
		for _, name := range names {
			posts, err := s.ProjectPosts(ctx, name, n)
			if err != nil {
				return nil, err
			}
			out[name] = posts
		}
		return out, nil
	})
}

// Grid lays the posts matching f onto a grid of the given width. Sizes
// default to 1 unless some post declares its own.
func (s *Service) Grid(ctx context.Context, f post.Filter, columns int) ([]grid.Placement[post.Metadata], error) {
	page, err := s.Posts(ctx, f)
	if err != nil {
		return nil, err
	}
	sized := grid.AssignSizes(page.Posts, post.WithGridSize)
	return grid.Pack(sized, columns), nil
}

// Search matches query against titles and excerpts. A blank query returns
// no results.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]post.Metadata, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []post.Metadata{}, nil
	}
	if limit <= 0 {
		limit = store.DefaultSearchLimit
	}
	key := fmt.Sprintf("%s%s|%d", keySearch, strings.ToLower(query), limit)
	return cache.Fetch(ctx, s.cache, key, s.listTTL, func(ctx context.Context) ([]post.Metadata, error) {
		found, err := s.store.Search(ctx, query, limit)
		if err != nil {
			return nil, err
		}
		if found == nil {
			found = []post.Metadata{}
		}
		return found, nil
	})
}
