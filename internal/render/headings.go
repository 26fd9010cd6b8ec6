package render

import (
	"bytes"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/SeanoChang/learning-blogs/internal/toc"
)

var headingIDsKey = parser.NewContextKey()

// headingIDs maps heading source lines to the ids the extractor assigned.
// Headings the line scanner never saw (setext, inside block quotes or list
// items) draw from the same slugger so ids stay unique.
type headingIDs struct {
	byLine   map[int]string
	fallback *toc.Slugger
	maxDepth int
}

func (ids *headingIDs) idFor(h *ast.Heading, src []byte) string {
	lines := h.Lines()
	if lines.Len() == 0 {
		return ids.fallback.Next("")
	}

	first := lines.At(0)
	line := bytes.Count(src[:first.Start], []byte("\n")) + 1
	if id, ok := ids.byLine[line]; ok {
		return id
	}

	var raw bytes.Buffer
	for i := 0; i < lines.Len(); i++ {
		if i > 0 {
			raw.WriteByte(' ')
		}
		seg := lines.At(i)
		raw.Write(bytes.TrimSpace(seg.Value(src)))
	}
	return ids.fallback.Next(raw.String())
}

type headingIDTransformer struct{}

func (headingIDTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	ids, ok := pc.Get(headingIDsKey).(*headingIDs)
	if !ok {
		return
	}
	src := reader.Source()

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if h.Level <= ids.maxDepth {
			h.SetAttributeString("id", []byte(ids.idFor(h, src)))
		}
		return ast.WalkSkipChildren, nil
	})
}
