package post

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const samplePost = `---
title: Hello World
excerpt: First post
coverImage: /img/hello.png
date: "2024-03-01"
tags: [go, notes]
category: Projects
project: Atlas
gridSize: 2
---
# Hello

Some words here.
`

func TestParseFile(t *testing.T) {
	p, err := ParseFile("hello-world.md", []byte(samplePost))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}

	if p.Slug != "hello-world" {
		t.Errorf("expected slug %q, got %q", "hello-world", p.Slug)
	}
	if p.Title != "Hello World" {
		t.Errorf("expected title %q, got %q", "Hello World", p.Title)
	}
	if p.CoverImage != "/img/hello.png" {
		t.Errorf("expected cover %q, got %q", "/img/hello.png", p.CoverImage)
	}
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if !p.Date.Equal(want) {
		t.Errorf("expected date %v, got %v", want, p.Date)
	}
	if len(p.Tags) != 2 || p.Tags[0] != "go" {
		t.Errorf("expected tags [go notes], got %v", p.Tags)
	}
	if p.Category != CategoryProjects {
		t.Errorf("expected category %q, got %q", CategoryProjects, p.Category)
	}
	if p.Project != "Atlas" {
		t.Errorf("expected project %q, got %q", "Atlas", p.Project)
	}
	if p.GridSize() != 2 {
		t.Errorf("expected grid size 2, got %d", p.GridSize())
	}
	if !p.Published || p.Status != StatusPublished {
		t.Errorf("expected published post, got published=%v status=%q", p.Published, p.Status)
	}
	if p.ReadingTime != "1 min read" {
		t.Errorf("expected %q, got %q", "1 min read", p.ReadingTime)
	}
	if !strings.HasPrefix(strings.TrimSpace(p.Content), "# Hello") || strings.Contains(p.Content, "title:") {
		t.Errorf("expected body without frontmatter, got %q", p.Content)
	}
}

func TestParseFile_SlugOverride(t *testing.T) {
	p, err := ParseFile("2024-01-01-draft.mdx", []byte("---\nslug: custom\n---\nbody"))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if p.Slug != "custom" {
		t.Errorf("expected slug %q, got %q", "custom", p.Slug)
	}
}

func TestParseFile_NoFrontmatter(t *testing.T) {
	p, err := ParseFile("plain.md", []byte("just text"))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if p.Slug != "plain" || strings.TrimSpace(p.Content) != "just text" {
		t.Errorf("expected slug plain with whole body, got %q / %q", p.Slug, p.Content)
	}
	if !p.Date.IsZero() {
		t.Errorf("expected zero date, got %v", p.Date)
	}
	if !p.Published {
		t.Error("expected posts without frontmatter to be published")
	}
}

func TestParseFile_Unsupported(t *testing.T) {
	_, err := ParseFile("notes.txt", []byte("x"))
	if !errors.Is(err, ErrUnsupportedFile) {
		t.Fatalf("expected ErrUnsupportedFile, got %v", err)
	}
}

func TestParseFile_Unpublished(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"published false", "---\npublished: false\n---\nbody"},
		{"draft status", "---\nstatus: draft\n---\nbody"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseFile("x.md", []byte(tt.src))
			if err != nil {
				t.Fatalf("ParseFile: %v", err)
			}
			if p.Published || p.Status != StatusDraft {
				t.Errorf("expected draft, got published=%v status=%q", p.Published, p.Status)
			}
		})
	}
}

func TestFrontmatter_DateSpellings(t *testing.T) {
	tests := []struct {
		name string
		fm   Frontmatter
		want time.Time
	}{
		{"date wins", Frontmatter{Date: "2024-01-02", PublishedAt: "2023-01-01"}, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"invalid date skipped", Frontmatter{Date: "soon", PublishedAt: "2023-05-06T07:08:09Z"}, time.Date(2023, 5, 6, 7, 8, 9, 0, time.UTC)},
		{"camel case", Frontmatter{PublishedAtCamel: "2022-02-02"}, time.Date(2022, 2, 2, 0, 0, 0, 0, time.UTC)},
		{"yaml timestamp", Frontmatter{Date: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)}, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"blank string", Frontmatter{Date: "   "}, time.Time{}},
		{"none", Frontmatter{}, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fm.PublishDate(); !got.Equal(tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFrontmatter_CoverSpellings(t *testing.T) {
	if got := (Frontmatter{CoverImageSnake: "https://x/y.png"}).Cover(); got != "https://x/y.png" {
		t.Errorf("expected snake case cover, got %q", got)
	}
	if got := (Frontmatter{CoverImage: "a", CoverImageSnake: "b"}).Cover(); got != "a" {
		t.Errorf("expected camel case cover to win, got %q", got)
	}
}

func TestReadingTime(t *testing.T) {
	tests := []struct {
		words   int
		minutes int
		text    string
	}{
		{0, 0, "0 min read"},
		{1, 1, "1 min read"},
		{200, 1, "1 min read"},
		{201, 2, "2 min read"},
		{1000, 5, "5 min read"},
	}
	for _, tt := range tests {
		minutes, text := ReadingTime(strings.Repeat("word ", tt.words))
		if minutes != tt.minutes {
			t.Errorf("words=%d: expected %d minutes, got %d", tt.words, tt.minutes, minutes)
		}
		if text != tt.text {
			t.Errorf("words=%d: expected %q, got %q", tt.words, tt.text, text)
		}
	}
}

func TestSort(t *testing.T) {
	posts := []Metadata{
		{Slug: "old", Date: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Slug: "b", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Slug: "a", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Slug: "undated"},
	}
	Sort(posts)
	want := []string{"a", "b", "old", "undated"}
	for i, w := range want {
		if posts[i].Slug != w {
			t.Errorf("position %d: expected %q, got %q", i, w, posts[i].Slug)
		}
	}
}

func TestCountTags(t *testing.T) {
	got := CountTags([]Metadata{
		{Tags: []string{"go", "web"}},
		{Tags: []string{"go"}},
		{Tags: []string{"art"}},
	})
	want := []TagCount{{"go", 2}, {"art", 1}, {"web", 1}}
	if len(got) != len(want) {
		t.Fatalf("expected %d tags, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("tag[%d]: expected %+v, got %+v", i, w, got[i])
		}
	}
}

func TestNewPage(t *testing.T) {
	p := NewPage(nil, 25, Filter{Page: 2, Limit: 10})
	if p.TotalPages != 3 {
		t.Errorf("expected 3 pages, got %d", p.TotalPages)
	}
	if p.Posts == nil {
		t.Error("expected non-nil posts slice")
	}
	if off := (Filter{Page: 3, Limit: 10}).Offset(); off != 20 {
		t.Errorf("expected offset 20, got %d", off)
	}
}

func TestParseCategory(t *testing.T) {
	if c, ok := ParseCategory(" Life "); !ok || c != CategoryLife {
		t.Errorf("expected life, got %q ok=%v", c, ok)
	}
	if _, ok := ParseCategory("cooking"); ok {
		t.Error("expected unknown category to be rejected")
	}
}

func TestTrimExt(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"posts/hello.md", "hello"},
		{"a.b.mdx", "a.b"},
		{"README", "README"},
		{`dir\win.markdown`, "win"},
	}
	for _, tt := range tests {
		if got := TrimExt(tt.in); got != tt.want {
			t.Errorf("TrimExt(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
