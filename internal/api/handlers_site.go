package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/SeanoChang/learning-blogs/internal/newsletter"
)

// maxFormBytes bounds JSON request bodies.
const maxFormBytes = 64 << 10

func (s *Server) handleNewsletter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := newsletter.Validate(req.Email); err != nil {
		var verr *newsletter.Error
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"valid": false, "code": verr.Code, "error": verr.Message})
			return
		}
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "message": newsletter.SuccessMessage})
}

// handleRevalidate purges cached listings after content changes. The
// secret may come in the body or the X-Revalidation-Secret header.
func (s *Server) handleRevalidate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Secret string   `json:"secret"`
		Paths  []string `json:"paths"`
	}
	if err := decodeBody(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if s.cfg.RevalidationSecret == "" {
		s.log.Error("revalidation secret not configured")
		jsonError(w, "Revalidation not configured", http.StatusInternalServerError)
		return
	}
	secret := req.Secret
	if secret == "" {
		secret = r.Header.Get("X-Revalidation-Secret")
	}
	if !secretMatches(secret, s.cfg.RevalidationSecret) {
		s.log.Warn("invalid revalidation secret attempt")
		jsonError(w, "Invalid secret", http.StatusUnauthorized)
		return
	}

	res := s.blog.Revalidate(req.Paths...)
	if len(res.Errors) > 0 {
		writeJSON(w, http.StatusMultiStatus, map[string]any{
			"message":     "Revalidation completed with errors",
			"revalidated": res.Revalidated,
			"errors":      res.Errors,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Revalidation successful",
		"revalidated": res.Revalidated,
		"purged":      res.Purged,
		"timestamp":   s.now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) handleRenderStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "render stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"style": s.cfg.HighlightStyle,
		"stats": s.stats.Snapshot(),
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	return json.NewDecoder(r.Body).Decode(v)
}
