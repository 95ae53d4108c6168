package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"

	md2hatena "github.com/alnah/go-md2hatena"
	"github.com/alnah/go-md2hatena/internal/browser"
	"github.com/alnah/go-md2hatena/internal/config"
	"github.com/alnah/go-md2hatena/internal/hackmd"
	"github.com/alnah/go-md2hatena/internal/hatena"
	"github.com/alnah/go-md2hatena/internal/hints"
	"github.com/alnah/go-md2hatena/internal/imagecache"
)

// status prints user-facing progress lines to stderr.
type status struct {
	w     io.Writer
	quiet bool
	ok    *color.Color
	warn  *color.Color
}

func newStatus(w io.Writer, quiet, noColor bool) *status {
	s := &status{
		w:     w,
		quiet: quiet,
		ok:    color.New(color.FgGreen, color.Bold),
		warn:  color.New(color.FgYellow, color.Bold),
	}
	if noColor {
		s.ok.DisableColor()
		s.warn.DisableColor()
	}
	return s
}

// Success prints a "[+]" line unless quiet.
func (s *status) Success(format string, args ...any) {
	if s.quiet {
		return
	}
	_, _ = s.ok.Fprint(s.w, "[+] ")
	_, _ = fmt.Fprintf(s.w, format+"\n", args...)
}

// Warn prints a "[!]" line unless quiet.
func (s *status) Warn(format string, args ...any) {
	if s.quiet {
		return
	}
	_, _ = s.warn.Fprint(s.w, "[!] ")
	_, _ = fmt.Fprintf(s.w, format+"\n", args...)
}

// Progress reports one resolved image.
func (s *status) Progress(p md2hatena.Progress) {
	how := "uploaded"
	if p.Cached {
		how = "cached"
	}
	s.Success("(%d/%d) %s %s -> %s", p.Index, p.Total, how, p.Image.OriginalURL, p.Image.DestinationURL)
}

// newLogger builds the structured logger handed to the library.
// Records are off by default; --verbose shows them all and --quiet keeps
// errors only.
func newLogger(w io.Writer, quiet, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// describeError formats err for the terminal with an actionable hint.
func describeError(err error, cfg *config.Config) string {
	msg := "error: " + err.Error()

	switch {
	case errors.Is(err, hackmd.ErrAuthentication), errors.Is(err, hackmd.ErrNoCookie):
		return msg + hints.ForHackMDAuth()
	case errors.Is(err, hatena.ErrMissingCredentials):
		return msg + hints.ForMissingEnv([]string{envHatenaUsername, envHatenaAPIKey})
	case errors.Is(err, hatena.ErrAuthentication):
		return msg + hints.ForHatenaAuth()
	case errors.Is(err, browser.ErrLaunch):
		return msg + hints.ForBrowserLogin()
	case errors.Is(err, imagecache.ErrMalformedLine):
		path := ""
		if cfg != nil {
			path = cfg.Images.Cache
		}
		return msg + hints.ForMalformedCache(path)
	case errors.Is(err, config.ErrConfigNotFound):
		return msg + hints.ForConfigNotFound(triedPaths(err))
	case errors.Is(err, md2hatena.ErrUnknownRenderer):
		return msg + hints.ForCodeBlockRenderer([]string{"pure", "highlightjs", "chroma"})
	case errors.Is(err, ErrWriteOutput):
		return msg + hints.ForOutputDirectory()
	case isTimeout(err):
		return msg + hints.ForTimeout()
	}
	return msg
}

// triedPaths recovers the searched locations from a config lookup error.
func triedPaths(err error) []string {
	_, list, ok := strings.Cut(err.Error(), "tried ")
	if !ok {
		return nil
	}
	return strings.Split(list, ", ")
}

// isTimeout reports whether err comes from an expired deadline, including
// http.Client timeouts that do not wrap context.DeadlineExceeded.
func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	if errors.As(err, &te) && te.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), "deadline exceeded")
}
