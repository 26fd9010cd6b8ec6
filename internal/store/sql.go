package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/SeanoChang/learning-blogs/internal/post"
)

// postRow is the posts_meta table.
type postRow struct {
	bun.BaseModel `bun:"table:posts_meta,alias:pm"`

	ID          string     `bun:"id,pk"`
	Slug        string     `bun:"slug,notnull,unique"`
	Title       string     `bun:"title,notnull"`
	Tags        []string   `bun:"tags,type:jsonb"`
	Excerpt     string     `bun:"excerpt"`
	CoverImage  string     `bun:"cover_image"`
	Category    string     `bun:"category"`
	Project     string     `bun:"project"`
	GridSize    int        `bun:"grid_size,notnull,default:0"`
	ReadMinutes int        `bun:"read_minutes,notnull,default:0"`
	Status      string     `bun:"status,notnull"`
	PublishedAt time.Time  `bun:"published_at,notnull"`
	UpdatedAt   *time.Time `bun:"updated_at,nullzero"`
	CreatedAt   time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func rowFrom(m post.Metadata) *postRow {
	r := &postRow{
		ID:          m.ID,
		Slug:        m.Slug,
		Title:       m.Title,
		Tags:        m.Tags,
		Excerpt:     m.Excerpt,
		CoverImage:  m.CoverImage,
		Category:    string(m.Category),
		Project:     m.Project,
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

func (r *postRow) metadata() post.Metadata {
	m := post.Metadata{
		ID:          r.ID,
		Slug:        r.Slug,
		Title:       r.Title,
		Tags:        r.Tags,
		Excerpt:     r.Excerpt,
		CoverImage:  r.CoverImage,
		Category:    post.Category(r.Category),
		Project:     r.Project,
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

// SQLStore keeps post metadata in SQLite and reads bodies from a
// ContentSource.
type SQLStore struct {
	db      *bun.DB
	content ContentSource
}

// OpenSQLite opens dsn with the sqlite3 driver, which the caller must
// register by importing github.com/mattn/go-sqlite3.
func OpenSQLite(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqldb.SetMaxOpenConns(1)
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// NewSQLStore wraps db. content may be nil when only metadata is needed.
func NewSQLStore(db *bun.DB, content ContentSource) *SQLStore {
	return &SQLStore{db: db, content: content}
}

// Migrate creates the posts_meta table and its indexes.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model((*postRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create posts_meta: %w", err)
	}
	indexes := map[string]string{
		"idx_posts_meta_status_published": "status, published_at",
		"idx_posts_meta_category":         "category",
	}
	for name, cols := range indexes {
		if _, err := s.db.NewCreateIndex().
			Model((*postRow)(nil)).
			Index(name).
			IfNotExists().
			ColumnExpr(cols).
			Exec(ctx); err != nil {
			return fmt.Errorf("create index %s: %w", name, err)
		}
	}
	return nil
}

// Upsert inserts m or updates the row with the same id.
func (s *SQLStore) Upsert(ctx context.Context, m post.Metadata) error {
	if m.ID == "" {
		return errors.New("upsert post: missing id")
	}
	_, err := s.db.NewInsert().
		Model(rowFrom(m)).
		On("CONFLICT (id) DO UPDATE").
		Set("slug = EXCLUDED.slug").
		Set("title = EXCLUDED.title").
		Set("tags = EXCLUDED.tags").
		Set("excerpt = EXCLUDED.excerpt").
		Set("cover_image = EXCLUDED.cover_image").
		Set("category = EXCLUDED.category").
		Set("project = EXCLUDED.project").
		Set("grid_size = EXCLUDED.grid_size").
		Set("read_minutes = EXCLUDED.read_minutes").
		Set("status = EXCLUDED.status").
		Set("published_at = EXCLUDED.published_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert post %s: %w", m.Slug, err)
	}
	return nil
}

func applyFilter(q *bun.SelectQuery, f post.Filter) *bun.SelectQuery {
	q = q.Where("pm.status = ?", string(statusOf(f)))
	if f.Tag != "" {
		q = q.Where("EXISTS (SELECT 1 FROM json_each(pm.tags) WHERE json_each.value = ?)", f.Tag)
	}
	if f.Category != "" {
		q = q.Where("pm.category = ?", string(f.Category))
	}
	if f.Project != "" {
		q = q.Where("pm.project = ?", f.Project)
	}
	return q.Order("pm.published_at DESC", "pm.slug ASC")
}

func (s *SQLStore) List(ctx context.Context, f post.Filter) (post.Page, error) {
	var rows []postRow
	q := applyFilter(s.db.NewSelect().Model(&rows), f)
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset())
	}
	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return post.Page{}, fmt.Errorf("list posts: %w", err)
	}
	return post.NewPage(toMetadata(rows), total, f), nil
}

func (s *SQLStore) meta(ctx context.Context, slug string) (*postRow, error) {
	row := new(postRow)
	err := s.db.NewSelect().Model(row).
		Where("pm.slug = ?", slug).
		Where("pm.status = ?", string(post.StatusPublished)).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, slug)
	}
	if err != nil {
		return nil, fmt.Errorf("get post %s: %w", slug, err)
	}
	return row, nil
}

// Get returns the metadata row joined with the body from the content
// source. A row whose file has disappeared is reported as not found.
func (s *SQLStore) Get(ctx context.Context, slug string) (*post.Post, error) {
	row, err := s.meta(ctx, slug)
	if err != nil {
		return nil, err
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

func (s *SQLStore) Tags(ctx context.Context) ([]post.TagCount, error) {
	var rows []postRow
	err := s.db.NewSelect().Model(&rows).
		Column("tags").
		Where("pm.status = ?", string(post.StatusPublished)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return post.CountTags(toMetadata(rows)), nil
}

func (s *SQLStore) Slugs(ctx context.Context) ([]string, error) {
	var slugs []string
	err := s.db.NewSelect().Model((*postRow)(nil)).
		Column("slug").
		Where("pm.status = ?", string(post.StatusPublished)).
		Order("pm.published_at DESC", "pm.slug ASC").
		Scan(ctx, &slugs)
	if err != nil {
		return nil, fmt.Errorf("list slugs: %w", err)
	}
	return slugs, nil
}

func (s *SQLStore) Search(ctx context.Context, query string, limit int) ([]post.Metadata, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	var rows []postRow
	err := s.db.NewSelect().Model(&rows).
		Where("pm.status = ?", string(post.StatusPublished)).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where(`lower(pm.title) LIKE ? ESCAPE '!'`, pattern).
				WhereOr(`lower(pm.excerpt) LIKE ? ESCAPE '!'`, pattern)
		}).
		Order("pm.published_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	return toMetadata(rows), nil
}

func toMetadata(rows []postRow) []post.Metadata {
	out := make([]post.Metadata, len(rows))
	for i := range rows {
		out[i] = rows[i].metadata()
	}
	return out
}

func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
