package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SeanoChang/learning-blogs/internal/post"
	"github.com/SeanoChang/learning-blogs/internal/supabase"
)

const postsTable = "posts_meta"

// supabaseRow is the posts_meta row as PostgREST serializes it.
type supabaseRow struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Tags        []string   `json:"tags"`
	Excerpt     *string    `json:"excerpt"`
	CoverImage  *string    `json:"cover_image"`
	Category    *string    `json:"category,omitempty"`
	Project     *string    `json:"project,omitempty"`
	GridSize    int        `json:"grid_size,omitempty"`
	ReadMinutes int        `json:"read_minutes,omitempty"`
	Status      string     `json:"status"`
	PublishedAt time.Time  `json:"published_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

func (r supabaseRow) metadata() post.Metadata {
	m := post.Metadata{
		ID:          r.ID,
		Slug:        r.Slug,
		Title:       r.Title,
		Tags:        r.Tags,
		Excerpt:     deref(r.Excerpt),
		CoverImage:  deref(r.CoverImage),
		Category:    post.Category(deref(r.Category)),
		Project:     deref(r.Project),
		Size:        r.GridSize,
		ReadMinutes: r.ReadMinutes,
		Status:      post.Status(r.Status),
		Published:   r.Status == string(post.StatusPublished),
		Date:        r.PublishedAt.UTC(),
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	if r.UpdatedAt != nil {
		m.UpdatedAt = r.UpdatedAt.UTC()
	}
	if r.ReadMinutes > 0 {
		m.ReadingTime = fmt.Sprintf("%d min read", r.ReadMinutes)
	}
	return m
}

func supabaseRowFrom(m post.Metadata) supabaseRow {
	r := supabaseRow{
		ID:          m.ID,
		Slug:        m.Slug,
		Title:       m.Title,
		Tags:        m.Tags,
		Excerpt:     ref(m.Excerpt),
		CoverImage:  ref(m.CoverImage),
		Category:    ref(string(m.Category)),
		Project:     ref(m.Project),
		GridSize:    m.Size,
		ReadMinutes: m.ReadMinutes,
		Status:      string(m.Status),
		PublishedAt: m.Date.UTC(),
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if r.Status == "" {
		r.Status = string(post.StatusPublished)
	}
	if !m.UpdatedAt.IsZero() {
		t := m.UpdatedAt.UTC()
		r.UpdatedAt = &t
	}
	return r
}

// SupabaseStore reads post metadata from a Supabase posts_meta table and
// bodies from a ContentSource.
type SupabaseStore struct {
	client  *supabase.Client
	content ContentSource
}

// NewSupabaseStore wraps client. content may be nil when only metadata is
// needed.
func NewSupabaseStore(client *supabase.Client, content ContentSource) *SupabaseStore {
	return &SupabaseStore{client: client, content: content}
}

func (s *SupabaseStore) query(f post.Filter) *supabase.Query {
	q := supabase.NewQuery(postsTable).
		Eq("status", string(statusOf(f))).
		OrderBy("published_at.desc")
	if f.Tag != "" {
		q.Contains("tags", f.Tag)
	}
	if f.Category != "" {
		q.Eq("category", string(f.Category))
	}
	if f.Project != "" {
		q.Eq("project", f.Project)
	}
	return q
}

func (s *SupabaseStore) List(ctx context.Context, f post.Filter) (post.Page, error) {
	q := s.query(f).WithCount()
	if f.Limit > 0 {
		q.Page(f.Limit, f.Offset())
	}

	var rows []supabaseRow
	total, err := s.client.Select(ctx, q, &rows)
	if err != nil {
		return post.Page{}, fmt.Errorf("list posts: %w", err)
	}
	if total < 0 {
		total = len(rows)
	}
	return post.NewPage(supabaseMetadata(rows), total, f), nil
}

func (s *SupabaseStore) Get(ctx context.Context, slug string) (*post.Post, error) {
	var row supabaseRow
	q := supabase.NewQuery(postsTable).
		Eq("slug", slug).
		Eq("status", string(post.StatusPublished))
	if err := s.client.SelectOne(ctx, q, &row); err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, slug)
		}
		return nil, fmt.Errorf("get post %s: %w", slug, err)
	}

	p := &post.Post{Metadata: row.metadata()}
	if s.content == nil {
		return p, nil
	}
	body, err := s.content.Content(ctx, slug)
	if err != nil {
		return nil, err
	}
	p.Content = body
	if p.ReadMinutes == 0 {
		p.ReadMinutes, p.ReadingTime = post.ReadingTime(body)
	}
	return p, nil
}

func (s *SupabaseStore) Tags(ctx context.Context) ([]post.TagCount, error) {
	var rows []supabaseRow
	q := supabase.NewQuery(postsTable).Select("tags").Eq("status", string(post.StatusPublished))
	if _, err := s.client.Select(ctx, q, &rows); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return post.CountTags(supabaseMetadata(rows)), nil
}

func (s *SupabaseStore) Slugs(ctx context.Context) ([]string, error) {
	var rows []supabaseRow
	q := supabase.NewQuery(postsTable).Select("slug").
		Eq("status", string(post.StatusPublished)).
		OrderBy("published_at.desc")
	if _, err := s.client.Select(ctx, q, &rows); err != nil {
		return nil, fmt.Errorf("list slugs: %w", err)
	}
	slugs := make([]string, len(rows))
	for i, r := range rows {
		slugs[i] = r.Slug
	}
	return slugs, nil
}

func (s *SupabaseStore) Search(ctx context.Context, query string, limit int) ([]post.Metadata, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	var rows []supabaseRow
	q := supabase.NewQuery(postsTable).
		Eq("status", string(post.StatusPublished)).
		ILikeAny(query, "title", "excerpt").
		OrderBy("published_at.desc").
		Page(limit, 0)
	if _, err := s.client.Select(ctx, q, &rows); err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	return supabaseMetadata(rows), nil
}

// Upsert writes m, merging on id.
func (s *SupabaseStore) Upsert(ctx context.Context, m post.Metadata) error {
	if m.ID == "" {
		return errors.New("upsert post: missing id")
	}
	if err := s.client.Upsert(ctx, postsTable, "id", []supabaseRow{supabaseRowFrom(m)}); err != nil {
		return fmt.Errorf("upsert post %s: %w", m.Slug, err)
	}
	return nil
}

func supabaseMetadata(rows []supabaseRow) []post.Metadata {
	out := make([]post.Metadata, len(rows))
	for i, r := range rows {
		out[i] = r.metadata()
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ref(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
