package toc

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	linkPattern     = regexp.MustCompile(`\[(.*?)\]\(.*?\)`)
	emphasisPattern = regexp.MustCompile("[*_`]")
	nonSlugPattern  = regexp.MustCompile(`[^a-z0-9]+`)
)

// SanitizeText turns raw heading markdown into display text: links collapse
// to their label and emphasis markers are dropped.
func SanitizeText(raw string) string {
	text := linkPattern.ReplaceAllString(raw, "$1")
	text = emphasisPattern.ReplaceAllString(text, "")
	return strings.TrimFunc(text, isSpace)
}

// SlugBase derives the un-suffixed id for a heading. It may be empty when
// the heading holds no ASCII letters or digits.
func SlugBase(raw string) string {
	s := strings.ToLower(raw)
	s = linkPattern.ReplaceAllString(s, "$1")
	s = emphasisPattern.ReplaceAllString(s, "")
	s = nonSlugPattern.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Slugger hands out document-unique heading ids. The zero value is not
// usable; call NewSlugger. A Slugger is not safe for concurrent use.
type Slugger struct {
	counts map[string]int
	index  int
}

// NewSlugger returns a slugger with an empty id table.
func NewSlugger() *Slugger {
	return &Slugger{counts: make(map[string]int)}
}

// Next assigns the id for the next heading, given its raw markdown text.
// Feeding the retained headings of a document in order yields the same ids
// as Extract.
func (s *Slugger) Next(raw string) string {
	base := SlugBase(raw)
	if base == "" {
		base = "heading-" + strconv.Itoa(s.index)
	}
	s.index++

	count := s.counts[base]
	s.counts[base] = count + 1
	if count == 0 {
		return base
	}
	return base + "-" + strconv.Itoa(count)
}
