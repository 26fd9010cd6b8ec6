// Package toc extracts markdown headings for building an in-page table of
// contents and assigns each one a stable, document-unique anchor id.
package toc

import (
	"regexp"
	"strings"
	"unicode"
)

// DefaultMaxDepth is the deepest heading level kept when no option is given.
const DefaultMaxDepth = 3

// Heading is one entry of a document's table of contents.
type Heading struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Level int    `json:"level"`
	Line  int    `json:"line"`
}

type options struct {
	maxDepth int
}

// Option customises Extract.
type Option func(*options)

// WithMaxDepth keeps headings up to and including level n.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDepth = n
		}
	}
}

// space is any Unicode space separator, the ASCII controls \t\n\v\f\r and
// the byte order mark.
const space = `[\s\v\p{Z}\x{FEFF}]`

var headingPattern = regexp.MustCompile(`^` + space + `{0,3}(#{1,6})` + space + `+(.+)$`)

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// Extract scans markdown line by line and returns its ATX headings in
// document order. Headings inside fenced code blocks are ignored.
func Extract(content string, opts ...Option) []Heading {
	return ExtractWith(content, NewSlugger(), opts...)
}

// ExtractWith is Extract with a caller-supplied slugger, so the same id
// table can continue to serve headings discovered later.
func ExtractWith(content string, slugger *Slugger, opts ...Option) []Heading {
	o := options{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}

	var headings []Heading
	var fence fenceState

	for i, line := range splitLines(content) {
		if fence.consume(line) {
			continue
		}

		m := headingPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		level := len(m[1])
		if level > o.maxDepth {
			continue
		}

		raw := strings.TrimFunc(m[2], isSpace)
		headings = append(headings, Heading{
			ID:    slugger.Next(raw),
			Text:  SanitizeText(raw),
			Level: level,
			Line:  i + 1,
		})
	}

	return headings
}

// splitLines splits on \n and drops a trailing \r from each line.
func splitLines(content string) []string {
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// fenceState tracks whether the scanner is inside a fenced code block.
type fenceState struct {
	open   bool
	char   byte
	length int
}

// consume reports whether line must be skipped: it is either a fence
// delimiter or sits inside an open fence.
func (f *fenceState) consume(line string) bool {
	trimmed := strings.TrimLeftFunc(line, isSpace)
	char, n := fenceRun(trimmed)
	if n >= 3 {
		switch {
		case !f.open:
			f.open, f.char, f.length = true, char, n
		case char == f.char && n >= f.length:
			f.open, f.char, f.length = false, 0, 0
		}
		return true
	}
	return f.open
}

// fenceRun returns the fence character starting s and how many times it repeats.
func fenceRun(s string) (byte, int) {
	if s == "" || (s[0] != '`' && s[0] != '~') {
		return 0, 0
	}
	c := s[0]
	n := 0
	for n < len(s) && s[n] == c {
		n++
	}
	return c, n
}
