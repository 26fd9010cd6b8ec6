package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/SeanoChang/learning-blogs/internal/post"
)

// Summarizer derives an excerpt and cover image from a markdown body for
// posts whose frontmatter leaves them out.
type Summarizer func(ctx context.Context, body string) (excerpt, cover string)

// FileStore reads posts straight from a directory of markdown files.
type FileStore struct {
	fsys      fs.FS
	log       *slog.Logger
	summarize Summarizer
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithSummarizer fills missing excerpts and cover images.
func WithSummarizer(fn Summarizer) FileOption {
	return func(s *FileStore) { s.summarize = fn }
}

// NewFileStore reads posts from the top level of fsys.
func NewFileStore(fsys fs.FS, log *slog.Logger, opts ...FileOption) *FileStore {
	s := &FileStore{fsys: fsys, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load parses every post file, published or not. Files that fail to parse
// are logged and skipped. A missing directory yields no posts.
func (s *FileStore) Load(ctx context.Context) ([]*post.Post, error) {
	entries, err := fs.ReadDir(s.fsys, ".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("posts directory not found")
			return nil, nil
		}
		return nil, fmt.Errorf("read posts dir: %w", err)
	}

	posts := make([]*post.Post, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() || !post.IsSupported(e.Name()) {
			continue
		}

		p, err := s.ReadFile(ctx, e.Name())
		if err != nil {
			s.log.Warn("skipping post", "file", e.Name(), "error", err)
			continue
		}
		posts = append(posts, p)
	}
	return posts, nil
}

// ReadFile parses a single post file.
func (s *FileStore) ReadFile(ctx context.Context, name string) (*post.Post, error) {
	src, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	p, err := post.ParseFile(name, src)
	if err != nil {
		return nil, err
	}
	if s.summarize != nil && (p.Excerpt == "" || p.CoverImage == "") {
		excerpt, cover := s.summarize(ctx, p.Content)
		if p.Excerpt == "" {
			p.Excerpt = excerpt
		}
		if p.CoverImage == "" {
			p.CoverImage = cover
		}
	}
	return p, nil
}

func (s *FileStore) metadata(ctx context.Context, f post.Filter) ([]post.Metadata, error) {
	posts, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]post.Metadata, 0, len(posts))
	for _, p := range posts {
		if matches(p.Metadata, f) {
			out = append(out, p.Metadata)
		}
	}
	post.Sort(out)
	return out, nil
}

func (s *FileStore) List(ctx context.Context, f post.Filter) (post.Page, error) {
	all, err := s.metadata(ctx, f)
	if err != nil {
		return post.Page{}, err
	}
	return paginate(all, f), nil
}

// Get returns the published post with slug. Drafts are not found.
func (s *FileStore) Get(ctx context.Context, slug string) (*post.Post, error) {
	posts, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		if p.Slug == slug && p.Published {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, slug)
}

// Content implements ContentSource for the database backends.
func (s *FileStore) Content(ctx context.Context, slug string) (string, error) {
	p, err := s.Get(ctx, slug)
	if err != nil {
		return "", err
	}
	return p.Content, nil
}

func (s *FileStore) Tags(ctx context.Context) ([]post.TagCount, error) {
	all, err := s.metadata(ctx, post.Filter{})
	if err != nil {
		return nil, err
	}
	return post.CountTags(all), nil
}

func (s *FileStore) Slugs(ctx context.Context) ([]string, error) {
	all, err := s.metadata(ctx, post.Filter{})
	if err != nil {
		return nil, err
	}
	slugs := make([]string, len(all))
	for i, m := range all {
		slugs[i] = m.Slug
	}
	return slugs, nil
}

func (s *FileStore) Search(ctx context.Context, query string, limit int) ([]post.Metadata, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	all, err := s.metadata(ctx, post.Filter{})
	if err != nil {
		return nil, err
	}
	out := make([]post.Metadata, 0, limit)
	for _, m := range all {
		if searchMatch(m, query) {
			out = append(out, m)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}
