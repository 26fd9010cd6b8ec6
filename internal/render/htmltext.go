package render

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// DefaultExcerptLength is the excerpt size used by the indexer and stores.
const DefaultExcerptLength = 160

var trailingPartialWord = regexp.MustCompile(`\s+\S*$`)

// Excerpt returns the text of the first non-empty paragraph in doc,
// truncated at a word boundary to at most max runes plus "...".
func Excerpt(doc string, max int) string {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return ""
	}

	var text string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "pre", "script", "style", "h1", "h2", "h3", "h4", "h5", "h6":
				return false
			case "p":
				if t := collapseSpace(textContent(n)); t != "" {
					text = t
					return true
				}
				return false
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(root)

	return truncate(text, max)
}

// FirstImage returns the src of the first <img> in doc, or "".
func FirstImage(doc string) string {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return ""
	}

	var find func(*html.Node) string
	find = func(n *html.Node) string {
		if n.Type == html.ElementNode && n.Data == "img" {
			for _, a := range n.Attr {
				if a.Key == "src" && a.Val != "" {
					return a.Val
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if src := find(c); src != "" {
				return src
			}
		}
		return ""
	}
	return find(root)
}

func truncate(s string, max int) string {
	if max <= 0 {
		max = DefaultExcerptLength
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	cut := trailingPartialWord.ReplaceAllString(string(runes[:max]), "")
	return cut + "..."
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

// Summarize renders body and returns its excerpt and first image. Render
// failures yield empty strings.
func (r *Renderer) Summarize(ctx context.Context, body string) (excerpt, cover string) {
	res, err := r.Render(ctx, body)
	if err != nil {
		return "", ""
	}
	return Excerpt(res.HTML, DefaultExcerptLength), FirstImage(res.HTML)
}
