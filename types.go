package md2hatena

import (
	"context"
	"log/slog"

	"github.com/alnah/go-md2hatena/internal/imagecache"
)

// ResolvedImage pairs an original image URL with its Fotolife URL.
// Two values are equal when both URLs are equal.
type ResolvedImage = imagecache.Image

// FrontMatter is the note metadata read from YAML front matter.
// It never appears in the converted HTML.
type FrontMatter struct {
	Title       string
	Tags        []string
	Description string
}

// Fetcher downloads the bytes of a source image.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Uploader stores a local image on the destination host.
type Uploader interface {
	// Upload sends the file at path and returns the host's image id.
	Upload(ctx context.Context, path, title string) (string, error)

	// PublicURL maps an image id and file extension to the served URL.
	PublicURL(ctx context.Context, id, ext string) (string, error)
}

// Option configures a Converter.
type Option func(*converterConfig)

// converterConfig holds internal configuration for Converter.
type converterConfig struct {
	headingMin  int
	renderer    string
	chromaStyle string
	logger      *slog.Logger
}

// Defaults applied when no option overrides them.
const (
	DefaultHeadingMin   = 1
	DefaultCodeRenderer = "highlightjs"
)

// WithHeadingMin sets the level a top-level "#" heading is rendered at.
// Deeper headings shift by the same amount and saturate at h6.
func WithHeadingMin(n int) Option {
	return func(c *converterConfig) {
		c.headingMin = n
	}
}

// WithCodeRenderer selects the code block renderer: "pure",
// "highlightjs" or "chroma".
func WithCodeRenderer(name string) Option {
	return func(c *converterConfig) {
		c.renderer = name
	}
}

// WithChromaStyle sets the chroma style used by the "chroma" renderer.
func WithChromaStyle(name string) Option {
	return func(c *converterConfig) {
		c.chromaStyle = name
	}
}

// WithLogger sets the logger for conversion tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *converterConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithCachePath enables the image cache at path. An empty path disables it.
func WithCachePath(path string) ResolverOption {
	return func(r *Resolver) {
		r.cachePath = path
	}
}

// WithStagingDir sets where fetched images are kept before upload.
func WithStagingDir(dir string) ResolverOption {
	return func(r *Resolver) {
		if dir != "" {
			r.stagingDir = dir
		}
	}
}

// WithResolverLogger sets the logger for per-image progress records.
func WithResolverLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithTitleGenerator replaces the source of upload titles.
func WithTitleGenerator(fn func() string) ResolverOption {
	return func(r *Resolver) {
		if fn != nil {
			r.newTitle = fn
		}
	}
}

// WithProgress registers a callback run after each image is resolved.
func WithProgress(fn func(Progress)) ResolverOption {
	return func(r *Resolver) {
		r.progress = fn
	}
}

// Progress describes one resolved image.
type Progress struct {
	Index  int // 1-based position in the pending list
	Total  int
	Image  ResolvedImage
	Cached bool // true when the destination came from the cache
}
