package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/SeanoChang/learning-blogs/internal/blog"
	"github.com/SeanoChang/learning-blogs/internal/config"
	"github.com/SeanoChang/learning-blogs/internal/render"
)

// Cache-Control values for public responses.
const (
	listCacheControl = "public, s-maxage=60, stale-while-revalidate"
	feedCacheControl = "public, max-age=3600, s-maxage=3600"
)

// Server is the HTTP API server for the blog.
type Server struct {
	router chi.Router
	blog   *blog.Service
	stats  *render.Stats
	log    *slog.Logger
	cfg    config.Config
	now    func() time.Time
}

// NewServer creates and configures the HTTP server. stats may be nil.
func NewServer(svc *blog.Service, stats *render.Stats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		blog:  svc,
		stats: stats,
		log:   log,
		cfg:   cfg,
		now:   time.Now,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	// Listings, cached briefly at the edge.
	r.Group(func(r chi.Router) {
		r.Use(CacheControl(listCacheControl))

		r.Get("/api/posts", s.handleListPosts)
		r.Get("/api/posts/{slug}", s.handleGetPost)
		r.Get("/api/posts/{slug}/headings", s.handleHeadings)
		r.Get("/api/tags", s.handleTags)
		r.Get("/api/projects", s.handleProjects)
		r.Get("/api/projects/{name}", s.handleProject)
		r.Get("/api/search", s.handleSearch)
		r.Get("/api/grid", s.handleGrid)
	})

	// Syndication, cached for an hour.
	r.Group(func(r chi.Router) {
		r.Use(CacheControl(feedCacheControl))

		r.Get("/feed.xml", s.handleRSS)
		r.Get("/posts.json", s.handleJSONFeed)
		r.Get("/sitemap.xml", s.handleSitemap)
		r.Get("/robots.txt", s.handleRobots)
		r.Get("/static/chroma.css", s.handleChromaCSS)
	})

	r.Post("/api/newsletter", s.handleNewsletter)
	r.Post("/api/revalidate", s.handleRevalidate)
	r.Get("/api/stats/render", s.handleRenderStats)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, "not found", http.StatusNotFound)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
