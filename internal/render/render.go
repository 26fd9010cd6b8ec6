// Package render turns post markdown into sanitized HTML with heading ids
// that match the extracted table of contents.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/util"

	"github.com/SeanoChang/learning-blogs/internal/toc"
)

// ErrRender indicates goldmark failed to convert a document.
var ErrRender = errors.New("markdown render failed")

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "github"

// Options configures a Renderer.
type Options struct {
	MaxDepth int    // deepest heading level given an id and listed in the TOC
	Style    string // chroma style name for StyleCSS
	Stats    *Stats // optional latency recorder
}

// Result is a rendered post body.
type Result struct {
	HTML     string        `json:"html"`
	Headings []toc.Heading `json:"headings"`
	TOC      []*toc.Node   `json:"toc"`
}

// Renderer converts markdown to HTML. It is safe for concurrent use.
type Renderer struct {
	md       goldmark.Markdown
	policy   *bluemonday.Policy
	maxDepth int
	style    string
	stats    *Stats
}

// New builds a Renderer with GFM, footnotes and class-based highlighting.
func New(opts Options) *Renderer {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = toc.DefaultMaxDepth
	}
	if opts.Style == "" {
		opts.Style = DefaultStyle
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
			),
		),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(util.Prioritized(headingIDTransformer{}, 100)),
		),
	)

	return &Renderer{
		md:       md,
		policy:   newPolicy(),
		maxDepth: opts.MaxDepth,
		style:    opts.Style,
		stats:    opts.Stats,
	}
}

// MaxDepth reports the deepest heading level the renderer lists.
func (r *Renderer) MaxDepth() int { return r.maxDepth }

// Render converts markdown to sanitized HTML. Headings up to the configured
// depth carry the same ids Extract assigns them.
func (r *Renderer) Render(ctx context.Context, markdown string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		res *Result
		err error
	}
	done := make(chan result, 1)

	go func() {
		res, err := r.render(markdown)
		done <- result{res: res, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-done:
		return out.res, out.err
	}
}

func (r *Renderer) render(markdown string) (*Result, error) {
	start := time.Now()

	slugger := toc.NewSlugger()
	headings := toc.ExtractWith(markdown, slugger, toc.WithMaxDepth(r.maxDepth))

	ids := &headingIDs{
		byLine:   make(map[int]string, len(headings)),
		fallback: slugger,
		maxDepth: r.maxDepth,
	}
	for _, h := range headings {
		ids.byLine[h.Line] = h.ID
	}

	pctx := parser.NewContext()
	pctx.Set(headingIDsKey, ids)

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf, parser.WithContext(pctx)); err != nil {
		if r.stats != nil {
			r.stats.RecordError()
		}
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}

	html := r.policy.SanitizeBytes(buf.Bytes())
	if r.stats != nil {
		r.stats.Record(time.Since(start))
	}

	return &Result{
		HTML:     string(html),
		Headings: headings,
		TOC:      toc.Nest(headings),
	}, nil
}

// StyleCSS writes the stylesheet for the renderer's highlight style.
func (r *Renderer) StyleCSS(w io.Writer) error {
	return StyleCSS(w, r.style)
}

// StyleCSS writes chroma's class-based stylesheet for the named style.
// Unknown names fall back to chroma's default style.
func StyleCSS(w io.Writer, name string) error {
	style := styles.Get(name)
	if style == nil {
		style = styles.Fallback
	}
	return writeCSS(w, style)
}

func writeCSS(w io.Writer, style *chroma.Style) error {
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(w, style); err != nil {
		return fmt.Errorf("write chroma css: %w", err)
	}
	return nil
}

var classPattern = regexp.MustCompile(`^[a-zA-Z0-9\s_-]+$`)

// newPolicy allows user content plus the classes chroma and the footnote
// extension emit and read-only task list checkboxes.
func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(classPattern).
		OnElements("span", "pre", "code", "div", "a", "sup", "section", "ol", "li", "hr")
	p.AllowAttrs("role").Matching(regexp.MustCompile(`^doc-[a-z]+$`)).OnElements("a", "section")
	p.AllowAttrs("type").Matching(regexp.MustCompile(`^checkbox$`)).OnElements("input")
	p.AllowAttrs("checked", "disabled").OnElements("input")
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}
