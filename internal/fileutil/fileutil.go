// Package fileutil provides file and path helpers shared by the resolver,
// the config loader and the CLI.
package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrEmptyPath indicates a write was requested without a destination.
var ErrEmptyPath = errors.New("path cannot be empty")

// DefaultImageExtension is used when neither the name nor the content of an
// image reveals its format.
const DefaultImageExtension = "jpg"

// stagingHashLen is the number of hex digits of the URL hash that prefix a
// staging name.
const stagingHashLen = 8

// sniffedExtensions maps detected content types to file extensions.
var sniffedExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
	"image/bmp":  "bmp",
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// IsFilePath returns true if the string looks like a file path rather than a name.
// A string containing path separators (/, \) is treated as a path.
//
// Examples:
//   - "blog" -> false (name)
//   - "./blog.yaml" -> true (relative path)
//   - "/etc/md2hatena/blog.yaml" -> true (absolute)
//   - "C:\config\blog.yaml" -> true (Windows)
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// IsURL returns true if the string looks like an http(s) URL.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// StagingName derives the local file name an image URL is downloaded to.
// It is the URL's final path segment prefixed with a short hash of the whole
// URL, so two hosts serving "image.png" never share a staging file.
//
// Examples:
//   - "https://hackmd.io/_uploads/SkX.png" -> "1a2b3c4d-SkX.png"
//   - "https://example.com/dir/" -> "1a2b3c4d"
func StagingName(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	prefix := hex.EncodeToString(sum[:])[:stagingHashLen]

	segment := finalSegment(rawURL)
	if segment == "" {
		return prefix
	}
	return prefix + "-" + segment
}

// finalSegment returns the last path element of rawURL, stripped of
// characters that are unsafe in file names.
func finalSegment(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	if p == "" || strings.HasSuffix(p, "/") {
		return ""
	}

	base := path.Base(p)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			return '_'
		}
		return r
	}, base)
}

// ImageExtension returns the extension (without dot) for an image file.
// The name's extension wins; otherwise the content is sniffed, falling back
// to DefaultImageExtension.
func ImageExtension(name string, data []byte) string {
	if ext := strings.TrimPrefix(filepath.Ext(name), "."); ext != "" {
		return strings.ToLower(ext)
	}
	if len(data) > 0 {
		contentType := http.DetectContentType(data)
		if ext, ok := sniffedExtensions[contentType]; ok {
			return ext
		}
	}
	return DefaultImageExtension
}

// WriteFileAtomic writes data to a temporary file next to path and renames
// it into place, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if path == "" {
		return ErrEmptyPath
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, writeErr := tmp.Write(data); writeErr != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("writing temp file: %w", writeErr)
	}
	if closeErr := tmp.Close(); closeErr != nil {
		cleanup()
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if chmodErr := os.Chmod(tmpPath, perm); chmodErr != nil {
		cleanup()
		return fmt.Errorf("setting permissions: %w", chmodErr)
	}
	if renameErr := os.Rename(tmpPath, path); renameErr != nil {
		cleanup()
		return fmt.Errorf("renaming temp file: %w", renameErr)
	}
	return nil
}
