// Package codeblock renders the markup framing fenced code blocks.
//
// The set of renderers is closed and chosen once per run from configuration:
//   - Pure: plain <pre><code> framing, for editors with native code blocks
//   - HighlightJS: title block plus classes understood by highlight.js,
//     with a one-time script preamble
//   - Chroma: server-side highlighting with chroma, with a one-time
//     stylesheet preamble
package codeblock

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/util"
)

// Sentinel errors for renderer selection.
var (
	ErrUnknownKind  = errors.New("unknown code block renderer")
	ErrUnknownStyle = errors.New("unknown chroma style")
)

// FallbackLanguage is the highlight.js class used when the fence label
// names no known language.
const FallbackLanguage = "txt"

// DefaultChromaStyle is used when no chroma style is configured.
const DefaultChromaStyle = "github"

// highlightJSPredoc loads highlight.js and the line-numbers plugin once per page.
const highlightJSPredoc = `<script src="https://cdnjs.cloudflare.com/ajax/libs/highlight.js/11.6.0/highlight.min.js"></script>
<script src="//cdnjs.cloudflare.com/ajax/libs/highlightjs-line-numbers.js/2.8.0/highlightjs-line-numbers.min.js"></script>
<script>hljs.highlightAll(); hljs.initLineNumbersOnLoad({singleLine:true});</script>
<!-- Add <link rel="stylesheet" href="https://cdnjs.cloudflare.com/ajax/libs/highlight.js/11.6.0/styles/default.min.css"> to the blog design -->
`

// HackMD appends "=", "=N" or "=+" to a fence label to request line numbers.
var lineNumberMarker = regexp.MustCompile(`=(\d+|\+)?$`)

// Kind selects a code block renderer.
type Kind int

const (
	Pure Kind = iota
	HighlightJS
	Chroma
)

// String returns the configuration name of the kind.
func (k Kind) String() string {
	switch k {
	case Pure:
		return "pure"
	case HighlightJS:
		return "highlightjs"
	case Chroma:
		return "chroma"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps a configuration name to a Kind.
// Accepted: "pure", "highlightjs", "highlight.js", "chroma" (case-insensitive).
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "pure":
		return Pure, nil
	case "highlightjs", "highlight.js":
		return HighlightJS, nil
	case "chroma":
		return Chroma, nil
	default:
		return 0, fmt.Errorf("%w: %q (must be pure, highlightjs or chroma)", ErrUnknownKind, name)
	}
}

// Renderer emits code block framing for one Kind. It holds no per-block state.
type Renderer struct {
	kind   Kind
	style  string
	predoc string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithChromaStyle sets the chroma style used by the Chroma kind.
func WithChromaStyle(name string) Option {
	return func(r *Renderer) {
		if name != "" {
			r.style = name
		}
	}
}

// New creates a Renderer for kind.
func New(kind Kind, opts ...Option) (*Renderer, error) {
	r := &Renderer{kind: kind, style: DefaultChromaStyle}
	for _, opt := range opts {
		opt(r)
	}

	switch kind {
	case Pure:
	case HighlightJS:
		r.predoc = highlightJSPredoc
	case Chroma:
		css, err := chromaStylesheet(r.style)
		if err != nil {
			return nil, err
		}
		r.predoc = css
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownKind, kind)
	}
	return r, nil
}

// Kind reports which renderer this is.
func (r *Renderer) Kind() Kind { return r.kind }

// Start returns the markup opening a code block whose fence label is label.
func (r *Renderer) Start(label string) string {
	switch r.kind {
	case HighlightJS:
		return titleBlock(label) +
			`<pre style="padding-top: 0; margin-top: 0;">` +
			`<code class="language-` + NormalizeLanguage(label) + `">`
	case Chroma:
		return titleBlock(label) + `<pre class="chroma"><code>`
	default:
		if label == "" {
			return "<pre><code>"
		}
		return `<pre><code class="language-` + html.EscapeString(label) + `">`
	}
}

// End returns the markup closing a code block opened with Start.
func (r *Renderer) End(string) string {
	return "</code></pre>\n"
}

// Predoc returns the page-level preamble the renderer needs, or "".
// Callers emit it once per document, not once per block.
func (r *Renderer) Predoc() string {
	return r.predoc
}

// Extension returns the goldmark extension that renders fenced code blocks
// for the Chroma kind, or nil for kinds framed by Start and End.
func (r *Renderer) Extension() goldmark.Extender {
	if r.kind != Chroma {
		return nil
	}
	return highlighting.NewHighlighting(
		highlighting.WithStyle(r.style),
		highlighting.WithFormatOptions(
			chromahtml.WithClasses(true),
		),
		highlighting.WithWrapperRenderer(r.wrapChroma),
	)
}

// wrapChroma frames chroma output. When chroma has no lexer for the label the
// code arrives unhighlighted and needs the plain pre/code framing.
func (r *Renderer) wrapChroma(w util.BufWriter, ctx highlighting.CodeBlockContext, entering bool) {
	lang, _ := ctx.Language()
	label := string(lang)

	if ctx.Highlighted() {
		if entering {
			_, _ = w.WriteString(titleBlock(label))
		}
		return
	}

	if entering {
		_, _ = w.WriteString(r.Start(label))
		return
	}
	_, _ = w.WriteString(r.End(label))
}

// NormalizeLanguage turns a fence label into a highlight.js language class.
// The HackMD line-number marker is dropped, dotted labels such as "main.go"
// keep their last segment, and unknown languages become FallbackLanguage.
func NormalizeLanguage(label string) string {
	lang := strings.ToLower(trimLineNumberMarker(label))
	if i := strings.LastIndex(lang, "."); i >= 0 {
		lang = lang[i+1:]
	}
	if !highlightJSAliases.has(lang) {
		return FallbackLanguage
	}
	return lang
}

func trimLineNumberMarker(label string) string {
	return lineNumberMarker.ReplaceAllString(label, "")
}

func titleBlock(label string) string {
	label = trimLineNumberMarker(label)
	if label == "" {
		return ""
	}
	return `<div class="codeblock-title">` + html.EscapeString(label) + `</div>`
}

func chromaStylesheet(name string) (string, error) {
	style := styles.Get(name)
	if style == styles.Fallback && !strings.EqualFold(name, styles.Fallback.Name) {
		return "", fmt.Errorf("%w: %q", ErrUnknownStyle, name)
	}
	return writeStylesheet(style)
}

func writeStylesheet(style *chroma.Style) (string, error) {
	var buf bytes.Buffer
	buf.WriteString("<style>\n")
	if err := chromahtml.New(chromahtml.WithClasses(true)).WriteCSS(&buf, style); err != nil {
		return "", fmt.Errorf("writing chroma stylesheet: %w", err)
	}
	buf.WriteString("</style>\n")
	return buf.String(), nil
}
