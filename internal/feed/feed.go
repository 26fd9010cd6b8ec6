// Package feed renders the site's syndication documents: RSS, the posts
// JSON feed, the sitemap and robots.txt.
package feed

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/SeanoChang/learning-blogs/internal/post"
)

// MaxItems caps the RSS and JSON feeds.
const MaxItems = 20

// Site describes the published site.
type Site struct {
	URL         string `yaml:"url" json:"url"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Language    string `yaml:"language" json:"language"`
}

// BaseURL is the site URL without a trailing slash.
func (s Site) BaseURL() string {
	return strings.TrimRight(s.URL, "/")
}

// PostURL is the canonical address of a post.
func (s Site) PostURL(slug string) string {
	return s.BaseURL() + "/blog/" + slug
}

func (s Site) language() string {
	if s.Language == "" {
		return "en"
	}
	return s.Language
}

// newest returns up to MaxItems posts, newest first, without touching the
// caller's slice.
func newest(posts []post.Metadata) []post.Metadata {
	sorted := slices.Clone(posts)
	post.Sort(sorted)
	if len(sorted) > MaxItems {
		sorted = sorted[:MaxItems]
	}
	return sorted
}

type cdata struct {
	Text string `xml:",cdata"`
}

type rssDoc struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Atom    string     `xml:"xmlns:atom,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language"`
	LastBuildDate string    `xml:"lastBuildDate"`
	AtomLink      atomLink  `xml:"atom:link"`
	Items         []rssItem `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type rssItem struct {
	Title       cdata    `xml:"title"`
	Link        string   `xml:"link"`
	GUID        rssGUID  `xml:"guid"`
	PubDate     string   `xml:"pubDate,omitempty"`
	Description cdata    `xml:"description"`
	Categories  []string `xml:"category"`
}

// RSS renders an RSS 2.0 channel of the newest posts.
func RSS(site Site, posts []post.Metadata, now time.Time) ([]byte, error) {
	base := site.BaseURL()
	doc := rssDoc{
		Version: "2.0",
		Atom:    "http://www.w3.org/2005/Atom",
		Channel: rssChannel{
			Title:         site.Title,
			Link:          base,
			Description:   site.Description,
			Language:      site.language(),
			LastBuildDate: now.UTC().Format(time.RFC1123Z),
			AtomLink:      atomLink{Href: base + "/feed.xml", Rel: "self", Type: "application/rss+xml"},
		},
	}

	for _, m := range newest(posts) {
		item := rssItem{
			Title:       cdata{m.Title},
			Link:        site.PostURL(m.Slug),
			GUID:        rssGUID{IsPermaLink: true, Value: site.PostURL(m.Slug)},
			Description: cdata{m.Excerpt},
		}
		if !m.Date.IsZero() {
			item.PubDate = m.Date.UTC().Format(time.RFC1123Z)
		}
		if m.Category != "" {
			item.Categories = append(item.Categories, string(m.Category))
		}
		item.Categories = append(item.Categories, m.Tags...)
		doc.Channel.Items = append(doc.Channel.Items, item)
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal rss: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

type jsonPost struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Excerpt     string   `json:"excerpt"`
	Date        string   `json:"date"`
	Tags        []string `json:"tags"`
	Category    string   `json:"category,omitempty"`
	ReadingTime string   `json:"readingTime"`
	CoverImage  string   `json:"coverImage"`
	URL         string   `json:"url"`
}

type jsonFeed struct {
	Posts     []jsonPost `json:"posts"`
	Total     int        `json:"total"`
	Generated string     `json:"generated"`
}

// JSON renders the posts.json feed of the newest posts.
func JSON(site Site, posts []post.Metadata, now time.Time) ([]byte, error) {
	items := newest(posts)
	feed := jsonFeed{
		Posts:     make([]jsonPost, 0, len(items)),
		Total:     len(items),
		Generated: now.UTC().Format(time.RFC3339Nano),
	}
	for _, m := range items {
		tags := m.Tags
		if tags == nil {
			tags = []string{}
		}
		jp := jsonPost{
			Slug:        m.Slug,
			Title:       m.Title,
			Excerpt:     m.Excerpt,
			Tags:        tags,
			Category:    string(m.Category),
			ReadingTime: m.ReadingTime,
			CoverImage:  m.CoverImage,
			URL:         site.PostURL(m.Slug),
		}
		if !m.Date.IsZero() {
			jp.Date = m.Date.UTC().Format(time.RFC3339)
		}
		feed.Posts = append(feed.Posts, jp)
	}

	out, err := json.MarshalIndent(feed, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json feed: %w", err)
	}
	return out, nil
}
