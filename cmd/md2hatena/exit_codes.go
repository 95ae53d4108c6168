package main

import (
	"context"
	"errors"
	"os"

	flag "github.com/spf13/pflag"

	md2hatena "github.com/alnah/go-md2hatena"
	"github.com/alnah/go-md2hatena/internal/browser"
	"github.com/alnah/go-md2hatena/internal/config"
	"github.com/alnah/go-md2hatena/internal/hackmd"
	"github.com/alnah/go-md2hatena/internal/hatena"
	"github.com/alnah/go-md2hatena/internal/imagecache"
)

// Exit codes for the md2hatena CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful conversion
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or input document
	ExitIO      = 3 // File not found, permission denied, cache I/O
	ExitNetwork = 4 // HackMD, Fotolife, or browser login failures
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Network, authentication and login errors (exit 4)
	if errors.Is(err, hackmd.ErrRequest) ||
		errors.Is(err, hackmd.ErrAuthentication) ||
		errors.Is(err, hackmd.ErrTooLarge) ||
		errors.Is(err, hackmd.ErrNoCookie) ||
		errors.Is(err, hatena.ErrUpload) ||
		errors.Is(err, hatena.ErrAuthentication) ||
		errors.Is(err, hatena.ErrMissingCredentials) ||
		errors.Is(err, hatena.ErrInvalidResponse) ||
		errors.Is(err, hatena.ErrInvalidImageID) ||
		errors.Is(err, browser.ErrLaunch) ||
		errors.Is(err, browser.ErrLogin) ||
		errors.Is(err, context.DeadlineExceeded) {
		return ExitNetwork
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, imagecache.ErrCacheIO) ||
		errors.Is(err, ErrReadMarkdown) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, ErrReadEnvFile) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, flag.ErrHelp) ||
		errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, imagecache.ErrMalformedLine) ||
		errors.Is(err, hackmd.ErrInvalidNoteID) ||
		errors.Is(err, md2hatena.ErrEmptyMarkdown) ||
		errors.Is(err, md2hatena.ErrFrontMatter) ||
		errors.Is(err, md2hatena.ErrInvalidHeadingMin) ||
		errors.Is(err, md2hatena.ErrUnknownRenderer) ||
		errors.Is(err, md2hatena.ErrUnknownChromaStyle) {
		return ExitUsage
	}

	return ExitGeneral
}
