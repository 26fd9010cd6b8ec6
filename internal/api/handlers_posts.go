package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/SeanoChang/learning-blogs/internal/post"
	"github.com/SeanoChang/learning-blogs/internal/store"
	"github.com/SeanoChang/learning-blogs/internal/toc"
)

// MaxPageSize caps the limit query parameter.
const MaxPageSize = 100

// intParam reads a positive integer query parameter, returning fallback
// when it is absent.
func intParam(r *http.Request, name string, fallback int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, errors.New(name + " must be a positive integer")
	}
	return n, nil
}

// filterFromQuery builds a listing filter from tag, category and project.
func filterFromQuery(r *http.Request) (post.Filter, error) {
	q := r.URL.Query()
	f := post.Filter{Tag: q.Get("tag"), Project: q.Get("project")}
	if c := q.Get("category"); c != "" {
		cat, ok := post.ParseCategory(c)
		if !ok {
			return f, errors.New("category must be projects, productivity or life")
		}
		f.Category = cat
	}
	return f, nil
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if f.Page, err = intParam(r, "page", 1); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if f.Limit, err = intParam(r, "limit", s.cfg.PostsPerPage); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if f.Limit > MaxPageSize {
		jsonError(w, "limit must be at most "+strconv.Itoa(MaxPageSize), http.StatusBadRequest)
		return
	}

	page, err := s.blog.Posts(r.Context(), f)
	if err != nil {
		s.serverError(w, r, "failed to list posts", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	article, err := s.blog.Post(r.Context(), slug)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "post not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.serverError(w, r, "failed to load post", err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

func (s *Server) handleHeadings(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	limit := s.blog.HeadingDepth()
	depth, err := intParam(r, "depth", limit)
	if err != nil || depth > limit {
		jsonError(w, "depth must be between 1 and "+strconv.Itoa(limit), http.StatusBadRequest)
		return
	}

	headings, err := s.blog.Headings(r.Context(), slug, depth)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "post not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.serverError(w, r, "failed to load post", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"slug":     slug,
		"headings": headings,
		"toc":      toc.Nest(headings),
	})
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.blog.Tags(r.Context())
	if err != nil {
		s.serverError(w, r, "failed to list tags", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags, "total": len(tags)})
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	n, err := intParam(r, "posts", 0)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	projects, err := s.blog.ProjectsWithPosts(r.Context(), n)
	if err != nil {
		s.serverError(w, r, "failed to list projects", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	posts, err := s.blog.ProjectPosts(r.Context(), name, limit)
	if err != nil {
		s.serverError(w, r, "failed to list project posts", err)
		return
	}
	if len(posts) == 0 {
		jsonError(w, "project not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"project": name, "posts": posts, "total": len(posts)})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", store.DefaultSearchLimit)
	if err != nil || limit > MaxPageSize {
		jsonError(w, "limit must be between 1 and "+strconv.Itoa(MaxPageSize), http.StatusBadRequest)
		return
	}
	query := r.URL.Query().Get("q")
	results, err := s.blog.Search(r.Context(), query, limit)
	if err != nil {
		s.serverError(w, r, "search failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": query, "posts": results, "total": len(results)})
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	columns, err := intParam(r, "columns", s.cfg.GridColumns)
	if err != nil || columns > 12 {
		jsonError(w, "columns must be between 1 and 12", http.StatusBadRequest)
		return
	}
	placements, err := s.blog.Grid(r.Context(), f, columns)
	if err != nil {
		s.serverError(w, r, "failed to build grid", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"columns": columns, "items": placements})
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.log.Error(msg, "path", r.URL.Path, "error", err)
	jsonError(w, msg, http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
