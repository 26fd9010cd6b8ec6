package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/SeanoChang/learning-blogs/internal/feed"
)

// Store backends.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendSupabase = "supabase"
)

// MaxSiteFileSize limits the YAML site file.
const MaxSiteFileSize = 1 << 20

var ErrSiteFileTooLarge = errors.New("site file exceeds maximum size")

type Config struct {
	Port string

	// Content
	PostsDir     string
	StoreBackend string
	SQLiteDSN    string

	// Supabase connection
	SupabaseURL            string
	SupabaseAnonKey        string
	SupabaseServiceRoleKey string

	// On-demand cache purge
	RevalidationSecret string

	// Site metadata, optionally overridden by SiteConfigPath
	Site           feed.Site
	SiteConfigPath string

	// Listing and caching
	PostsPerPage int
	CacheTTL     time.Duration
	ListCacheTTL time.Duration

	// Rendering
	TOCMaxDepth    int
	GridColumns    int
	HighlightStyle string

	// Indexer
	IndexWorkers int
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		PostsDir:     envOr("POSTS_DIR", "content/posts"),
		StoreBackend: envOr("STORE_BACKEND", BackendFile),
		SQLiteDSN:    envOr("SQLITE_DSN", "file:posts.db?cache=shared&_foreign_keys=on"),

		SupabaseURL:            os.Getenv("SUPABASE_URL"),
		SupabaseAnonKey:        os.Getenv("SUPABASE_ANON_KEY"),
		SupabaseServiceRoleKey: os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),

		RevalidationSecret: os.Getenv("REVALIDATION_SECRET"),

		Site: feed.Site{
			URL:         envOr("SITE_URL", "http://localhost:8090"),
			Title:       envOr("SITE_TITLE", "Learning Blogs"),
			Description: envOr("SITE_DESCRIPTION", "Projects, productivity, and life insights"),
			Language:    envOr("SITE_LANGUAGE", "en"),
		},
		SiteConfigPath: os.Getenv("SITE_CONFIG"),

		PostsPerPage: envInt("POSTS_PER_PAGE", 10),
		CacheTTL:     envDuration("CACHE_TTL", 1*time.Hour),
		ListCacheTTL: envDuration("LIST_CACHE_TTL", 1*time.Minute),

		TOCMaxDepth:    envInt("TOC_MAX_DEPTH", 3),
		GridColumns:    envInt("GRID_COLUMNS", 3),
		HighlightStyle: envOr("HIGHLIGHT_STYLE", "github"),

		IndexWorkers: envInt("INDEX_WORKERS", 4),
	}

	if cfg.PostsPerPage <= 0 {
		cfg.PostsPerPage = 10
	}
	if cfg.CacheTTL < 0 {
		cfg.CacheTTL = 1 * time.Hour
	}
	if cfg.ListCacheTTL < 0 {
		cfg.ListCacheTTL = 1 * time.Minute
	}
	if cfg.GridColumns <= 0 {
		cfg.GridColumns = 3
	}
	if cfg.IndexWorkers <= 0 {
		cfg.IndexWorkers = 4
	}

	return cfg
}

func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendFile:
	case BackendSQLite:
		if c.SQLiteDSN == "" {
			return fmt.Errorf("SQLITE_DSN is required for the sqlite backend")
		}
	case BackendSupabase:
		if c.SupabaseURL == "" {
			return fmt.Errorf("SUPABASE_URL is required for the supabase backend")
		}
		if c.SupabaseAnonKey == "" && c.SupabaseServiceRoleKey == "" {
			return fmt.Errorf("SUPABASE_ANON_KEY or SUPABASE_SERVICE_ROLE_KEY is required for the supabase backend")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be file, sqlite or supabase, got %q", c.StoreBackend)
	}
	if c.PostsDir == "" {
		return fmt.Errorf("POSTS_DIR is required")
	}
	if u, err := url.Parse(c.Site.URL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("SITE_URL must be an absolute URL, got %q", c.Site.URL)
	}
	if c.TOCMaxDepth < 1 || c.TOCMaxDepth > 6 {
		return fmt.Errorf("TOC_MAX_DEPTH must be between 1 and 6, got %d", c.TOCMaxDepth)
	}
	return nil
}

// SupabaseKey returns the key for writes when one is configured, otherwise
// the public key.
func (c Config) SupabaseKey(write bool) string {
	if write && c.SupabaseServiceRoleKey != "" {
		return c.SupabaseServiceRoleKey
	}
	if c.SupabaseAnonKey != "" {
		return c.SupabaseAnonKey
	}
	return c.SupabaseServiceRoleKey
}

// LoadSiteFile overlays the YAML site file at path onto site. Unknown keys
// are rejected; empty values keep the current setting.
func LoadSiteFile(path string, site feed.Site) (feed.Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return site, fmt.Errorf("read site file: %w", err)
	}
	return ParseSite(data, site)
}

// ParseSite is LoadSiteFile over raw bytes.
func ParseSite(data []byte, site feed.Site) (feed.Site, error) {
	if len(data) > MaxSiteFileSize {
		return site, fmt.Errorf("%w: %d bytes (max %d)", ErrSiteFileTooLarge, len(data), MaxSiteFileSize)
	}
	var file feed.Site
	if err := yaml.UnmarshalWithOptions(data, &file, yaml.Strict()); err != nil {
		return site, fmt.Errorf("parse site file: %w", err)
	}
	if file.URL != "" {
		site.URL = file.URL
	}
	if file.Title != "" {
		site.Title = file.Title
	}
	if file.Description != "" {
		site.Description = file.Description
	}
	if file.Language != "" {
		site.Language = file.Language
	}
	return site, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}
