package md2hatena

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alnah/go-md2hatena/internal/codeblock"
	"github.com/alnah/go-md2hatena/internal/imagecache"
	"github.com/alnah/go-md2hatena/internal/pipeline"
)

// Converter turns one HackMD note at a time into Hatena Blog HTML.
// Parse a note, optionally resolve its images, then call Convert.
// Resolved images carry over to the next parsed note.
//
// A Converter is not safe for concurrent use.
type Converter struct {
	cfg     converterConfig
	heading pipeline.HeadingDepth
	code    *codeblock.Renderer
	logger  *slog.Logger

	// Current document, set by Parse.
	source  []byte
	meta    FrontMatter
	pending []string
	alts    map[string]string
	parsed  bool

	resolved []ResolvedImage
}

// NewConverter creates a Converter. It fails on a heading minimum outside
// [1,6], an unknown code renderer, or an unknown chroma style.
func NewConverter(opts ...Option) (*Converter, error) {
	cfg := converterConfig{
		headingMin: DefaultHeadingMin,
		renderer:   DefaultCodeRenderer,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	heading, err := pipeline.NewHeadingDepth(cfg.headingMin)
	if err != nil {
		return nil, err
	}

	kind, err := codeblock.ParseKind(cfg.renderer)
	if err != nil {
		return nil, err
	}
	code, err := codeblock.New(kind, codeblock.WithChromaStyle(cfg.chromaStyle))
	if err != nil {
		return nil, err
	}

	return &Converter{
		cfg:     cfg,
		heading: heading,
		code:    code,
		logger:  cfg.logger,
	}, nil
}

// Parse reads a note and records the images it still needs.
// URLs already resolved by an earlier call are not pending again.
func (c *Converter) Parse(markdown string) error {
	if strings.TrimSpace(markdown) == "" {
		return ErrEmptyMarkdown
	}

	note, err := pipeline.Preprocess(markdown)
	if err != nil {
		return err
	}

	source := []byte(note.Body)
	doc := pipeline.Parse(pipeline.NewMarkdown(), source)
	scan := pipeline.Scan(doc, source, c.isResolved)

	c.source = source
	c.meta = FrontMatter(note.Meta)
	c.pending = scan.Pending
	c.alts = scan.Alts
	c.parsed = true

	c.logger.Debug("parsed note",
		"title", c.meta.Title,
		"pending", len(c.pending),
		"images", len(c.alts))
	return nil
}

// Pending returns the image URLs awaiting resolution, in document order.
func (c *Converter) Pending() []string {
	out := make([]string, len(c.pending))
	copy(out, c.pending)
	return out
}

// Meta returns the front matter of the parsed note.
func (c *Converter) Meta() FrontMatter {
	return c.meta
}

// Resolved returns every image resolved so far.
func (c *Converter) Resolved() []ResolvedImage {
	out := make([]ResolvedImage, len(c.resolved))
	copy(out, c.resolved)
	return out
}

// AddResolved records images resolved elsewhere and drops them from the
// pending list. The first destination recorded for a URL wins.
func (c *Converter) AddResolved(images ...ResolvedImage) {
	for _, img := range images {
		if _, ok := imagecache.Lookup(c.resolved, img.OriginalURL); ok {
			continue
		}
		c.resolved = append(c.resolved, img)
	}

	kept := c.pending[:0]
	for _, url := range c.pending {
		if !c.isResolved(url) {
			kept = append(kept, url)
		}
	}
	c.pending = kept
}

// Resolve runs r over the pending images and records the results.
// On failure the images resolved before the error are still recorded.
func (c *Converter) Resolve(ctx context.Context, r *Resolver) error {
	if !c.parsed {
		return ErrNotParsed
	}
	if len(c.pending) == 0 {
		return nil
	}

	images, err := r.Resolve(ctx, c.Pending())
	c.AddResolved(images...)
	return err
}

// Convert renders the parsed note as Hatena Blog HTML. Resolved images
// become Fotolife figures; the rest keep their original source.
func (c *Converter) Convert(ctx context.Context) (html string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if !c.parsed {
		return "", ErrNotParsed
	}

	resolved := make(map[string]string, len(c.resolved))
	for _, img := range c.resolved {
		if _, ok := resolved[img.OriginalURL]; !ok {
			resolved[img.OriginalURL] = img.DestinationURL
		}
	}

	html, err = pipeline.Rewrite(ctx, c.source, pipeline.RewriteOptions{
		Resolved: resolved,
		Alts:     c.alts,
		Heading:  c.heading,
		Code:     c.code,
	})
	if err != nil {
		return "", fmt.Errorf("converting to HTML: %w", err)
	}

	c.logger.Debug("converted note",
		"resolved", len(resolved),
		"renderer", c.code.Kind().String(),
		"bytes", len(html))
	return html, nil
}

func (c *Converter) isResolved(url string) bool {
	_, ok := imagecache.Lookup(c.resolved, url)
	return ok
}
