package feed

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/SeanoChang/learning-blogs/internal/post"
)

// Change frequencies used by the sitemap.
const (
	Daily   = "daily"
	Weekly  = "weekly"
	Monthly = "monthly"
)

// Entry is one sitemap URL.
type Entry struct {
	Loc        string
	LastMod    time.Time
	ChangeFreq string
	Priority   float64
}

type staticPage struct {
	path     string
	freq     string
	priority float64
}

var staticPages = []staticPage{
	{"", Daily, 1.0},
	{"/projects", Weekly, 0.9},
	{"/productivity", Weekly, 0.8},
	{"/life", Weekly, 0.8},
}

var whitespace = regexp.MustCompile(`\s+`)

// ProjectPath is the URL path segment of a project page.
func ProjectPath(name string) string {
	return whitespace.ReplaceAllString(strings.ToLower(name), "-")
}

// SiteEntries lists every public page: the static pages, each post, each
// project and each tag. Pages without a natural date use now.
func SiteEntries(site Site, posts []post.Metadata, projects, tags []string, now time.Time) []Entry {
	base := site.BaseURL()
	entries := make([]Entry, 0, len(staticPages)+len(posts)+len(projects)+len(tags))

	for _, p := range staticPages {
		entries = append(entries, Entry{Loc: base + p.path, LastMod: now, ChangeFreq: p.freq, Priority: p.priority})
	}
	for _, m := range posts {
		lastmod := m.Date
		if !m.UpdatedAt.IsZero() {
			lastmod = m.UpdatedAt
		}
		entries = append(entries, Entry{Loc: site.PostURL(m.Slug), LastMod: lastmod, ChangeFreq: Monthly, Priority: 0.7})
	}
	for _, name := range projects {
		entries = append(entries, Entry{Loc: base + "/projects/" + ProjectPath(name), LastMod: now, ChangeFreq: Weekly, Priority: 0.6})
	}
	for _, tag := range tags {
		entries = append(entries, Entry{Loc: base + "/tag/" + url.PathEscape(tag), LastMod: now, ChangeFreq: Monthly, Priority: 0.5})
	}
	return entries
}

type urlset struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []xmlURL `xml:"url"`
}

type xmlURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// Sitemap renders entries as a sitemaps.org urlset.
func Sitemap(entries []Entry) ([]byte, error) {
	doc := urlset{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, e := range entries {
		u := xmlURL{Loc: e.Loc, ChangeFreq: e.ChangeFreq}
		if !e.LastMod.IsZero() {
			u.LastMod = e.LastMod.UTC().Format(time.RFC3339)
		}
		if e.Priority > 0 {
			u.Priority = fmt.Sprintf("%.1f", e.Priority)
		}
		doc.URLs = append(doc.URLs, u)
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal sitemap: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// Robots renders robots.txt allowing everything and pointing at the
// sitemap.
func Robots(site Site) []byte {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Allow: /\n")
	b.WriteString("\n")
	fmt.Fprintf(&b, "Sitemap: %s/sitemap.xml\n", site.BaseURL())
	return []byte(b.String())
}
