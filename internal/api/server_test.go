package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/SeanoChang/learning-blogs/internal/blog"
	"github.com/SeanoChang/learning-blogs/internal/cache"
	"github.com/SeanoChang/learning-blogs/internal/config"
	"github.com/SeanoChang/learning-blogs/internal/feed"
	"github.com/SeanoChang/learning-blogs/internal/render"
	"github.com/SeanoChang/learning-blogs/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPosts() fstest.MapFS {
	file := func(front, body string) *fstest.MapFile {
		return &fstest.MapFile{Data: []byte("---\n" + front + "---\n" + body)}
	}
	return fstest.MapFS{
		"hello.md": file("title: Hello World\ndate: \"2024-03-01\"\ntags: [go, web]\ncategory: projects\nproject: Atlas\n",
			"# Hello\n\nIntro text.\n\n## Setup\n\n### Details\n\n```go\nfmt.Println(1)\n```\n"),
		"routine.md": file("title: Morning Routine\ndate: \"2024-02-01\"\ntags: [habits]\ncategory: productivity\n",
			"Wake up early.\n"),
		"older.md": file("title: Older Note\ndate: \"2024-01-01\"\ntags: [go]\ncategory: projects\nproject: Atlas\n",
			"Old.\n"),
		"draft.md": file("title: Draft\ndate: \"2024-04-01\"\npublished: false\n", "wip\n"),
	}
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	return newServerFor(t, testPosts(), mutate)
}

func newServerFor(t *testing.T, posts fstest.MapFS, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Config{
		PostsPerPage:       10,
		GridColumns:        3,
		HighlightStyle:     "monokai",
		RevalidationSecret: "s3cret",
		Site:               feed.Site{URL: "https://blog.example.com", Title: "Example", Description: "Notes"},
	}
	if mutate != nil {
		mutate(&cfg)
	}
	stats := render.NewStats(time.Hour)
	r := render.New(render.Options{Stats: stats})
	st := store.NewFileStore(posts, testLogger(), store.WithSummarizer(r.Summarize))
	svc := blog.New(st, r, cache.New(time.Minute), testLogger(), blog.Options{})
	srv := NewServer(svc, stats, testLogger(), cfg)
	srv.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return srv
}

func do(t *testing.T, srv *Server, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	w := do(t, newTestServer(t, nil), http.MethodGet, "/health", "")
	if w.Code != http.StatusOK || w.Body.String() != `{"status":"ok"}` {
		t.Errorf("unexpected health response %d %q", w.Code, w.Body.String())
	}
}

func TestListPosts(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name   string
		target string
		code   int
		slugs  []string
	}{
		{"all", "/api/posts", 200, []string{"hello", "routine", "older"}},
		{"tag", "/api/posts?tag=go", 200, []string{"hello", "older"}},
		{"category", "/api/posts?category=Productivity", 200, []string{"routine"}},
		{"project", "/api/posts?project=Atlas", 200, []string{"hello", "older"}},
		{"paged", "/api/posts?page=2&limit=2", 200, []string{"older"}},
		{"zero page", "/api/posts?page=0", 400, nil},
		{"bad limit", "/api/posts?limit=abc", 400, nil},
		{"limit too big", "/api/posts?limit=101", 400, nil},
		{"bad category", "/api/posts?category=food", 400, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, http.MethodGet, tt.target, "")
			if w.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, w.Code, w.Body.String())
			}
			if tt.code != 200 {
				var e map[string]string
				decode(t, w, &e)
				if e["error"] == "" {
					t.Error("expected error message")
				}
				return
			}
			if got := w.Header().Get("Cache-Control"); got != listCacheControl {
				t.Errorf("expected cache header, got %q", got)
			}
			var page struct {
				Posts []struct {
					Slug string `json:"slug"`
				} `json:"posts"`
			}
			decode(t, w, &page)
			if len(page.Posts) != len(tt.slugs) {
				t.Fatalf("expected %d posts, got %d", len(tt.slugs), len(page.Posts))
			}
			for i, s := range tt.slugs {
				if page.Posts[i].Slug != s {
					t.Errorf("position %d: expected %q, got %q", i, s, page.Posts[i].Slug)
				}
			}
		})
	}
}

func TestGetPost(t *testing.T) {
	srv := newTestServer(t, nil)

	w := do(t, srv, http.MethodGet, "/api/posts/hello", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var a struct {
		Slug     string `json:"slug"`
		Title    string `json:"title"`
		Excerpt  string `json:"excerpt"`
		HTML     string `json:"html"`
		Headings []struct {
			ID string `json:"id"`
		} `json:"headings"`
		TOC []struct {
			ID       string            `json:"id"`
			Children []json.RawMessage `json:"children"`
		} `json:"toc"`
	}
	decode(t, w, &a)
	if a.Title != "Hello World" || a.Excerpt != "Intro text." {
		t.Errorf("unexpected article %+v", a)
	}
	if !strings.Contains(a.HTML, `<h2 id="setup">`) {
		t.Errorf("expected heading ids in html, got %s", a.HTML)
	}
	if len(a.Headings) != 3 || len(a.TOC) != 1 || a.TOC[0].ID != "hello" {
		t.Errorf("unexpected headings %+v / toc %+v", a.Headings, a.TOC)
	}

	for _, slug := range []string{"draft", "missing"} {
		if w := do(t, srv, http.MethodGet, "/api/posts/"+slug, ""); w.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", slug, w.Code)
		}
	}
}

func TestHeadings(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		target string
		code   int
		count  int
	}{
		{"/api/posts/hello/headings", 200, 3},
		{"/api/posts/hello/headings?depth=2", 200, 2},
		{"/api/posts/hello/headings?depth=1", 200, 1},
		{"/api/posts/hello/headings?depth=4", 400, 0},
		{"/api/posts/hello/headings?depth=9", 400, 0},
		{"/api/posts/missing/headings", 404, 0},
	}
	for _, tt := range tests {
		w := do(t, srv, http.MethodGet, tt.target, "")
		if w.Code != tt.code {
			t.Errorf("%s: expected %d, got %d", tt.target, tt.code, w.Code)
			continue
		}
		if tt.code != 200 {
			continue
		}
		var res struct {
			Headings []json.RawMessage `json:"headings"`
		}
		decode(t, w, &res)
		if len(res.Headings) != tt.count {
			t.Errorf("%s: expected %d headings, got %d", tt.target, tt.count, len(res.Headings))
		}
	}
}

func TestHeadings_IDsMatchRenderedAnchors(t *testing.T) {
	posts := fstest.MapFS{
		"deep.md": {Data: []byte("---\ntitle: Deep\ndate: \"2024-01-01\"\n---\n" +
			"#### Setup\n\n## Setup\n\n### Steps\n\n#### !!!\n\n## Setup\n")},
	}
	srv := newServerFor(t, posts, nil)

	var article struct {
		HTML string `json:"html"`
	}
	decode(t, do(t, srv, http.MethodGet, "/api/posts/deep", ""), &article)
	if !strings.Contains(article.HTML, `<h2 id="setup">`) {
		t.Fatalf("expected first h2 to keep the unsuffixed id, got %s", article.HTML)
	}

	for _, depth := range []string{"", "1", "2", "3"} {
		target := "/api/posts/deep/headings"
		if depth != "" {
			target += "?depth=" + depth
		}
		w := do(t, srv, http.MethodGet, target, "")
		if w.Code != http.StatusOK {
			t.Fatalf("depth=%q: expected 200, got %d", depth, w.Code)
		}
		var res struct {
			Headings []struct {
				ID    string `json:"id"`
				Level int    `json:"level"`
			} `json:"headings"`
		}
		decode(t, w, &res)
		if len(res.Headings) == 0 {
			t.Fatalf("depth=%q: expected headings", depth)
		}
		for _, h := range res.Headings {
			anchor := fmt.Sprintf(`<h%d id="%s">`, h.Level, h.ID)
			if !strings.Contains(article.HTML, anchor) {
				t.Errorf("depth=%q: expected %s in rendered html", depth, anchor)
			}
		}
	}
}

func TestTagsProjectsSearch(t *testing.T) {
	srv := newTestServer(t, nil)

	var tags struct {
		Tags []struct {
			Tag   string `json:"tag"`
			Count int    `json:"count"`
		} `json:"tags"`
	}
	decode(t, do(t, srv, http.MethodGet, "/api/tags", ""), &tags)
	if len(tags.Tags) != 3 || tags.Tags[0].Tag != "go" || tags.Tags[0].Count != 2 {
		t.Errorf("unexpected tags %+v", tags)
	}

	var projects struct {
		Projects map[string][]json.RawMessage `json:"projects"`
	}
	decode(t, do(t, srv, http.MethodGet, "/api/projects", ""), &projects)
	if len(projects.Projects["Atlas"]) != 2 {
		t.Errorf("unexpected projects %+v", projects)
	}

	if w := do(t, srv, http.MethodGet, "/api/projects/Atlas?limit=1", ""); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"total":1`) {
		t.Errorf("unexpected project response %d %s", w.Code, w.Body.String())
	}
	if w := do(t, srv, http.MethodGet, "/api/projects/Nowhere", ""); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown project, got %d", w.Code)
	}

	var found struct {
		Posts []struct {
			Slug string `json:"slug"`
		} `json:"posts"`
	}
	decode(t, do(t, srv, http.MethodGet, "/api/search?q=morning", ""), &found)
	if len(found.Posts) != 1 || found.Posts[0].Slug != "routine" {
		t.Errorf("unexpected search results %+v", found)
	}
	if w := do(t, srv, http.MethodGet, "/api/search?q=x&limit=0", ""); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", w.Code)
	}
}

func TestGrid(t *testing.T) {
	srv := newTestServer(t, nil)

	var res struct {
		Columns int `json:"columns"`
		Items   []struct {
			Size int `json:"size"`
			Row  int `json:"row"`
			Col  int `json:"col"`
		} `json:"items"`
	}
	w := do(t, srv, http.MethodGet, "/api/grid?columns=2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	decode(t, w, &res)
	if res.Columns != 2 || len(res.Items) != 3 {
		t.Fatalf("unexpected grid %+v", res)
	}
	if res.Items[2].Row != 1 || res.Items[2].Col != 0 {
		t.Errorf("expected third card to wrap, got %+v", res.Items[2])
	}

	if w := do(t, srv, http.MethodGet, "/api/grid?columns=0", ""); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestFeeds(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		target      string
		contentType string
		contains    string
	}{
		{"/feed.xml", "application/xml; charset=utf-8", "<link>https://blog.example.com/blog/hello</link>"},
		{"/posts.json", "application/json", `"url": "https://blog.example.com/blog/routine"`},
		{"/sitemap.xml", "application/xml; charset=utf-8", "<loc>https://blog.example.com/projects/atlas</loc>"},
		{"/robots.txt", "text/plain; charset=utf-8", "Sitemap: https://blog.example.com/sitemap.xml"},
		{"/static/chroma.css", "text/css; charset=utf-8", ".chroma"},
	}
	for _, tt := range tests {
		w := do(t, srv, http.MethodGet, tt.target, "")
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", tt.target, w.Code)
			continue
		}
		if got := w.Header().Get("Content-Type"); got != tt.contentType {
			t.Errorf("%s: expected content type %q, got %q", tt.target, tt.contentType, got)
		}
		if got := w.Header().Get("Cache-Control"); got != feedCacheControl {
			t.Errorf("%s: expected feed cache header, got %q", tt.target, got)
		}
		if !strings.Contains(w.Body.String(), tt.contains) {
			t.Errorf("%s: expected body to contain %q", tt.target, tt.contains)
		}
	}

	if body := do(t, srv, http.MethodGet, "/feed.xml", "").Body.String(); strings.Contains(body, "draft") {
		t.Error("expected drafts to stay out of the feed")
	}
}

func TestNewsletter(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		body string
		code int
		want string
	}{
		{`{"email":"reader@example.com"}`, 200, "Thanks for subscribing!"},
		{`{"email":""}`, 422, "Please enter your email address"},
		{`{"email":"nope"}`, 422, "doesn't look like an email"},
		{`{"email":"a@b"}`, 422, "Please enter a valid email address"},
		{`not json`, 400, "invalid request body"},
	}
	for _, tt := range tests {
		w := do(t, srv, http.MethodPost, "/api/newsletter", tt.body)
		if w.Code != tt.code {
			t.Errorf("%s: expected %d, got %d", tt.body, tt.code, w.Code)
		}
		if !strings.Contains(w.Body.String(), tt.want) {
			t.Errorf("%s: expected %q in %s", tt.body, tt.want, w.Body.String())
		}
	}
}

func TestRevalidate(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name    string
		body    string
		headers []string
		code    int
		want    string
	}{
		{"body secret", `{"secret":"s3cret"}`, nil, 200, `"revalidated":["/blog","/api/posts","/api/tags"]`},
		{"header secret", `{"paths":["/blog/hello"]}`, []string{"X-Revalidation-Secret", "s3cret"}, 200, `"revalidated":["/blog/hello"]`},
		{"empty body with header", "", []string{"X-Revalidation-Secret", "s3cret"}, 200, "Revalidation successful"},
		{"wrong secret", `{"secret":"nope"}`, nil, 401, "Invalid secret"},
		{"missing secret", `{}`, nil, 401, "Invalid secret"},
		{"bad path", `{"secret":"s3cret","paths":["blog"]}`, nil, 207, "completed with errors"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, http.MethodPost, "/api/revalidate", tt.body, tt.headers...)
			if w.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, w.Code, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), tt.want) {
				t.Errorf("expected %q in %s", tt.want, w.Body.String())
			}
		})
	}
}

func TestRevalidate_NotConfigured(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) { c.RevalidationSecret = "" })
	w := do(t, srv, http.MethodPost, "/api/revalidate", `{"secret":"x"}`)
	if w.Code != http.StatusInternalServerError || !strings.Contains(w.Body.String(), "Revalidation not configured") {
		t.Errorf("unexpected response %d %s", w.Code, w.Body.String())
	}
}

func TestRenderStats(t *testing.T) {
	srv := newTestServer(t, nil)
	do(t, srv, http.MethodGet, "/api/posts/hello", "")

	var res struct {
		Style string `json:"style"`
		Stats struct {
			Count int `json:"count"`
		} `json:"stats"`
	}
	decode(t, do(t, srv, http.MethodGet, "/api/stats/render", ""), &res)
	if res.Style != "monokai" || res.Stats.Count < 1 {
		t.Errorf("unexpected stats %+v", res)
	}
}

func TestNotFound(t *testing.T) {
	w := do(t, newTestServer(t, nil), http.MethodGet, "/nope", "")
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), `"error"`) {
		t.Errorf("unexpected response %d %s", w.Code, w.Body.String())
	}
}
