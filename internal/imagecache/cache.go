// Package imagecache persists the mapping from original image URLs to their
// Hatena Fotolife URLs.
//
// The cache is an append-only text file with one mapping per line:
//
//	https://hackmd.io/_uploads/abc.png -> https://cdn-ak.f.st-hatena.com/images/fotolife/u/user/20240101/20240101123456.png
//
// Existing lines are never rewritten or reordered. A URL containing the
// separator itself cannot be represented.
package imagecache

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Separator splits the original URL from the destination URL on each line.
const Separator = " -> "

// filePermissions is rw-r--r--.
const filePermissions = 0o644

// Sentinel errors for cache operations.
var (
	ErrMalformedLine = errors.New("malformed cache line")
	ErrCacheIO       = errors.New("image cache I/O failed")
)

// Image is a resolved image: an original URL paired with its destination URL.
// Two images are equal when both fields are equal.
type Image struct {
	OriginalURL    string
	DestinationURL string
}

// String formats the image as a cache line without the trailing newline.
func (i Image) String() string {
	return i.OriginalURL + Separator + i.DestinationURL
}

// RestoreFrom reads every mapping stored at path, in file order.
// A missing file yields an empty slice. Blank lines at the end of the file
// are ignored; a blank line followed by more mappings, or a line without the
// separator, is an error: the cache is never silently truncated.
func RestoreFrom(path string) ([]Image, error) {
	f, err := os.Open(path) // #nosec G304 -- cache path is user-provided
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Image{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrCacheIO, err)
	}
	defer f.Close()

	images := []Image{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	lineNo, blankNo := 0, 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			if blankNo == 0 {
				blankNo = lineNo
			}
			continue
		}
		if blankNo != 0 {
			return nil, fmt.Errorf("%w: %s:%d: blank line", ErrMalformedLine, path, blankNo)
		}

		original, destination, ok := strings.Cut(line, Separator)
		if !ok {
			return nil, fmt.Errorf("%w: %s:%d: %q", ErrMalformedLine, path, lineNo, line)
		}
		images = append(images, Image{OriginalURL: original, DestinationURL: destination})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrCacheIO, path, err)
	}

	return images, nil
}

// CacheTo appends images to the cache at path, skipping every image already
// present (structurally equal) in the file or earlier in the batch.
// Appending the same batch twice leaves the file unchanged the second time.
func CacheTo(images []Image, path string) error {
	existing, err := RestoreFrom(path)
	if err != nil {
		return err
	}

	seen := make(map[Image]bool, len(existing)+len(images))
	for _, img := range existing {
		seen[img] = true
	}

	var b strings.Builder
	for _, img := range images {
		if seen[img] {
			continue
		}
		seen[img] = true
		b.WriteString(img.String())
		b.WriteByte('\n')
	}
	if b.Len() == 0 {
		return nil
	}

	terminated, err := endsWithNewline(path)
	if err != nil {
		return err
	}
	out := b.String()
	if !terminated {
		out = "\n" + out
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermissions) // #nosec G304 -- cache path is user-provided
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheIO, err)
	}
	if _, err := f.WriteString(out); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: writing %s: %v", ErrCacheIO, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %v", ErrCacheIO, path, err)
	}
	return nil
}

// endsWithNewline reports whether the file at path is missing, empty, or
// ends with '\n', so that appended lines start on a line of their own.
func endsWithNewline(path string) (bool, error) {
	f, err := os.Open(path) // #nosec G304 -- cache path is user-provided
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return true, nil
		}
		return false, fmt.Errorf("%w: %v", ErrCacheIO, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("%w: stat %s: %v", ErrCacheIO, path, err)
	}
	if info.Size() == 0 {
		return true, nil
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return false, fmt.Errorf("%w: reading %s: %v", ErrCacheIO, path, err)
	}
	return last[0] == '\n', nil
}

// Lookup returns the destination of the first image whose original URL
// matches. Later entries for the same original are shadowed.
func Lookup(images []Image, original string) (string, bool) {
	for _, img := range images {
		if img.OriginalURL == original {
			return img.DestinationURL, true
		}
	}
	return "", false
}
