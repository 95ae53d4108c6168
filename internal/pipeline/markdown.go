package pipeline

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// NewMarkdown creates the goldmark instance both passes parse with.
// Extra options are appended after the defaults, so extensions and renderer
// options given here take part in the same parse.
func NewMarkdown(opts ...goldmark.Option) goldmark.Markdown {
	base := []goldmark.Option{
		goldmark.WithExtensions(
			extension.GFM,      // Tables, strikethrough, autolinks, task lists
			extension.Footnote, // [^1] footnotes
			Highlight,          // HackMD ==mark==
		),
		goldmark.WithParserOptions(
			parser.WithAttribute(), // {#id .class} on headings
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(), // HackMD renders single newlines as line breaks
			html.WithUnsafe(),    // Notes embed raw HTML that must reach the blog as-is
		),
	}
	return goldmark.New(append(base, opts...)...)
}

// Parse parses source into a fresh document tree.
func Parse(md goldmark.Markdown, source []byte) ast.Node {
	return md.Parser().Parse(text.NewReader(source))
}

// plainText concatenates the text of n's descendants, ignoring markup.
func plainText(n ast.Node, source []byte) []byte {
	var out []byte
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			out = append(out, decodeText(t.Segment.Value(source))...)
		case *ast.String:
			out = append(out, t.Value...)
		}
		return ast.WalkContinue, nil
	})
	return out
}

// decodeText resolves backslash escapes and character references in raw
// text, the same way goldmark's HTML writer does before escaping.
func decodeText(raw []byte) []byte {
	return util.ResolveEntityNames(util.ResolveNumericReferences(util.UnescapePunctuations(raw)))
}
