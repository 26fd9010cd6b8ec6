package api

import (
	"bytes"
	"net/http"

	"github.com/SeanoChang/learning-blogs/internal/feed"
	"github.com/SeanoChang/learning-blogs/internal/render"
)

func (s *Server) handleRSS(w http.ResponseWriter, r *http.Request) {
	posts, err := s.blog.All(r.Context())
	if err != nil {
		s.serverError(w, r, "failed to list posts", err)
		return
	}
	out, err := feed.RSS(s.cfg.Site, posts, s.now())
	if err != nil {
		s.serverError(w, r, "failed to build feed", err)
		return
	}
	writeBody(w, "application/xml; charset=utf-8", out)
}

func (s *Server) handleJSONFeed(w http.ResponseWriter, r *http.Request) {
	posts, err := s.blog.All(r.Context())
	if err != nil {
		s.serverError(w, r, "failed to list posts", err)
		return
	}
	out, err := feed.JSON(s.cfg.Site, posts, s.now())
	if err != nil {
		s.serverError(w, r, "failed to build feed", err)
		return
	}
	writeBody(w, "application/json", out)
}

func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	posts, err := s.blog.All(ctx)
	if err != nil {
		s.serverError(w, r, "failed to list posts", err)
		return
	}
	projects, err := s.blog.Projects(ctx)
	if err != nil {
		s.serverError(w, r, "failed to list projects", err)
		return
	}
	tags, err := s.blog.TagNames(ctx)
	if err != nil {
		s.serverError(w, r, "failed to list tags", err)
		return
	}

	out, err := feed.Sitemap(feed.SiteEntries(s.cfg.Site, posts, projects, tags, s.now()))
	if err != nil {
		s.serverError(w, r, "failed to build sitemap", err)
		return
	}
	writeBody(w, "application/xml; charset=utf-8", out)
}

func (s *Server) handleRobots(w http.ResponseWriter, r *http.Request) {
	writeBody(w, "text/plain; charset=utf-8", feed.Robots(s.cfg.Site))
}

func (s *Server) handleChromaCSS(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := render.StyleCSS(&buf, s.cfg.HighlightStyle); err != nil {
		s.serverError(w, r, "failed to write stylesheet", err)
		return
	}
	writeBody(w, "text/css; charset=utf-8", buf.Bytes())
}

func writeBody(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Write(body)
}
