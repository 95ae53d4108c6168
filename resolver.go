package md2hatena

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/alnah/go-md2hatena/internal/fileutil"
	"github.com/alnah/go-md2hatena/internal/imagecache"
)

// DefaultStagingDir is where fetched images are kept when no staging
// directory is configured.
const DefaultStagingDir = ".md2hatena-imgs"

const (
	stagingDirPerm  = 0o750
	stagingFilePerm = 0o644
)

// Resolver moves images to the destination host one at a time, consulting
// and extending the image cache as it goes.
type Resolver struct {
	fetcher    Fetcher
	uploader   Uploader
	cachePath  string
	stagingDir string
	logger     *slog.Logger
	newTitle   func() string
	progress   func(Progress)
}

// NewResolver creates a Resolver. Caching is off until WithCachePath is given.
func NewResolver(fetcher Fetcher, uploader Uploader, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		fetcher:    fetcher,
		uploader:   uploader,
		stagingDir: DefaultStagingDir,
		logger:     slog.New(slog.DiscardHandler),
		newTitle:   randomTitle,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns a destination for every URL in pending, in order.
// Cached images cost no network call. Each new pair is appended to the
// cache as soon as it exists, so a failed run keeps what it finished.
// On error the images resolved so far are returned with it.
func (r *Resolver) Resolve(ctx context.Context, pending []string) ([]ResolvedImage, error) {
	cached, err := r.restore()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResolve, err)
	}

	resolved := make([]ResolvedImage, 0, len(pending))
	for i, url := range pending {
		if err := ctx.Err(); err != nil {
			return resolved, err
		}

		if dst, ok := imagecache.Lookup(cached, url); ok {
			img := ResolvedImage{OriginalURL: url, DestinationURL: dst}
			resolved = append(resolved, img)
			r.logger.Info("image cached", "url", url, "destination", dst)
			r.report(i, len(pending), img, true)
			continue
		}

		dst, err := r.relocate(ctx, url)
		if err != nil {
			return resolved, fmt.Errorf("%w: %s: %w", ErrResolve, url, err)
		}

		img := ResolvedImage{OriginalURL: url, DestinationURL: dst}
		resolved = append(resolved, img)
		cached = append(cached, img)

		if r.cachePath != "" {
			if err := imagecache.CacheTo([]ResolvedImage{img}, r.cachePath); err != nil {
				return resolved, fmt.Errorf("%w: %w", ErrResolve, err)
			}
		}

		r.logger.Info("image uploaded", "url", url, "destination", dst)
		r.report(i, len(pending), img, false)
	}
	return resolved, nil
}

// relocate stages, uploads and publishes one image.
func (r *Resolver) relocate(ctx context.Context, url string) (string, error) {
	path, data, err := r.stage(ctx, url)
	if err != nil {
		return "", err
	}

	id, err := r.uploader.Upload(ctx, path, r.newTitle())
	if err != nil {
		return "", err
	}

	ext := fileutil.ImageExtension(filepath.Base(path), data)
	return r.uploader.PublicURL(ctx, id, ext)
}

// stage returns the local copy of url, fetching it only when no staged
// file exists yet.
func (r *Resolver) stage(ctx context.Context, url string) (string, []byte, error) {
	path := filepath.Join(r.stagingDir, fileutil.StagingName(url))

	if fileutil.FileExists(path) {
		data, err := os.ReadFile(path) // #nosec G304 -- path derived from staging dir
		if err != nil {
			return "", nil, fmt.Errorf("reading staged image: %w", err)
		}
		r.logger.Debug("reusing staged image", "url", url, "path", path)
		return path, data, nil
	}

	data, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", nil, err
	}

	if err := os.MkdirAll(r.stagingDir, stagingDirPerm); err != nil {
		return "", nil, fmt.Errorf("creating staging directory: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, data, stagingFilePerm); err != nil {
		return "", nil, fmt.Errorf("staging image: %w", err)
	}
	r.logger.Debug("staged image", "url", url, "path", path, "bytes", len(data))
	return path, data, nil
}

func (r *Resolver) restore() ([]ResolvedImage, error) {
	if r.cachePath == "" {
		return nil, nil
	}
	return imagecache.RestoreFrom(r.cachePath)
}

func (r *Resolver) report(i, total int, img ResolvedImage, cached bool) {
	if r.progress == nil {
		return
	}
	r.progress(Progress{Index: i + 1, Total: total, Image: img, Cached: cached})
}

// randomTitle returns a 32 character hex token used as the upload title.
func randomTitle() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
