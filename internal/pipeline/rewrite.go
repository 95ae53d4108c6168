package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"github.com/alnah/go-md2hatena/internal/codeblock"
)

// ErrHTMLConversion indicates HTML rendering failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// rewritePriority ranks the rewrite renderer above goldmark's HTML renderer
// (1000) and the highlighting extension (200).
const rewritePriority = 100

// RewriteOptions is everything the second pass needs besides the source.
type RewriteOptions struct {
	// Resolved maps original image URLs to their Fotolife URLs.
	Resolved map[string]string

	// Alts maps image URLs to the alt text learned by Scan.
	Alts map[string]string

	Heading HeadingDepth

	// Code frames fenced code blocks. Required.
	Code *codeblock.Renderer
}

// Rewrite parses source again and renders it as Hatena-ready HTML.
// The code renderer's preamble is appended once after the body.
func Rewrite(ctx context.Context, source []byte, opts RewriteOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if opts.Code == nil {
		return "", fmt.Errorf("%w: no code block renderer", ErrHTMLConversion)
	}

	nr := newRewriteRenderer(opts)
	mdOpts := []goldmark.Option{
		goldmark.WithRendererOptions(
			renderer.WithNodeRenderers(util.Prioritized(nr, rewritePriority)),
		),
	}
	if ext := opts.Code.Extension(); ext != nil {
		mdOpts = append(mdOpts, goldmark.WithExtensions(ext))
	}
	md := NewMarkdown(mdOpts...)

	doc := Parse(md, source)

	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, source, doc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}
	buf.WriteString(opts.Code.Predoc())

	return buf.String(), nil
}

// rewriteRenderer overrides the node kinds the rewrite touches and leaves
// every other kind to goldmark's HTML renderer.
type rewriteRenderer struct {
	html.Config
	opts RewriteOptions
}

func newRewriteRenderer(opts RewriteOptions) *rewriteRenderer {
	return &rewriteRenderer{Config: html.NewConfig(), opts: opts}
}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *rewriteRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindImage, r.renderImage)
	reg.Register(ast.KindHeading, r.renderHeading)
	if r.opts.Code.Extension() == nil {
		reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
	}
}

// renderImage replaces a resolved image with a Fotolife figure. The image's
// children carry its alt text, which the figure already shows, so they are
// skipped for both resolved and unresolved images.
func (r *rewriteRenderer) renderImage(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.Image)
	url := string(n.Destination)

	dest, ok := r.opts.Resolved[url]
	if !ok {
		r.renderOriginalImage(w, source, n)
		return ast.WalkSkipChildren, nil
	}

	alt, ok := r.opts.Alts[url]
	if !ok {
		alt = string(n.Title)
	}
	writeFigure(w, dest, alt)
	return ast.WalkSkipChildren, nil
}

// writeFigure emits the caption-wrapped image Hatena's editor produces for
// Fotolife images.
func writeFigure(w util.BufWriter, dest, alt string) {
	escAlt := util.EscapeHTML([]byte(alt))

	_, _ = w.WriteString(`<figure class="figure-image figure-image-fotolife mceNonEditable" title="`)
	_, _ = w.Write(escAlt)
	_, _ = w.WriteString(`">`)
	_, _ = w.WriteString(`<img src="`)
	_, _ = w.Write(util.EscapeHTML([]byte(dest)))
	_, _ = w.WriteString(`" alt="`)
	_, _ = w.Write(escAlt)
	_, _ = w.WriteString(`" class="hatena-fotolife" loading="lazy" itemprop="image" title="">`)
	_, _ = w.WriteString(`<figcaption class="mceEditable">`)
	_, _ = w.Write(escAlt)
	_, _ = w.WriteString(`</figcaption></figure>`)
}

// renderOriginalImage renders an unresolved image the way goldmark's HTML
// renderer does, keeping its original source.
func (r *rewriteRenderer) renderOriginalImage(w util.BufWriter, source []byte, n *ast.Image) {
	_, _ = w.WriteString(`<img src="`)
	if r.Unsafe || !html.IsDangerousURL(n.Destination) {
		_, _ = w.Write(util.EscapeHTML(util.URLEscape(n.Destination, true)))
	}
	_, _ = w.WriteString(`" alt="`)
	_, _ = w.Write(util.EscapeHTML(plainText(n, source)))
	_ = w.WriteByte('"')
	if n.Title != nil {
		_, _ = w.WriteString(` title="`)
		r.Writer.Write(w, n.Title)
		_ = w.WriteByte('"')
	}
	if n.Attributes() != nil {
		html.RenderAttributes(w, n, html.ImageAttributeFilter)
	}
	if r.XHTML {
		_, _ = w.WriteString(" />")
	} else {
		_, _ = w.WriteString(">")
	}
}

// renderHeading writes the heading at its shifted level. Attributes such as
// ids and classes are kept.
func (r *rewriteRenderer) renderHeading(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.Heading)
	level := byte('0' + r.opts.Heading.Apply(n.Level))

	if entering {
		_, _ = w.WriteString("<h")
		_ = w.WriteByte(level)
		if n.Attributes() != nil {
			html.RenderAttributes(w, node, html.HeadingAttributeFilter)
		}
		_ = w.WriteByte('>')
	} else {
		_, _ = w.WriteString("</h")
		_ = w.WriteByte(level)
		_, _ = w.WriteString(">\n")
	}
	return ast.WalkContinue, nil
}

// renderFencedCodeBlock frames the block's content with the code renderer.
// The content itself is escaped and otherwise passed through.
func (r *rewriteRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)
	label := string(n.Language(source))

	_, _ = w.WriteString(r.opts.Code.Start(label))
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		r.Writer.RawWrite(w, line.Value(source))
	}
	_, _ = w.WriteString(r.opts.Code.End(label))
	return ast.WalkContinue, nil
}
