package hackmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// SessionCookieName is the cookie HackMD uses for logged-in sessions.
const SessionCookieName = "connect.sid"

// ErrNoCookie indicates a provider had no cookie to give.
var ErrNoCookie = errors.New("no session cookie")

// CookieProvider supplies the HackMD session cookie for protected uploads.
type CookieProvider interface {
	Cookie(ctx context.Context) (string, error)
}

// CookieFunc adapts a function to CookieProvider.
type CookieFunc func(ctx context.Context) (string, error)

// Cookie implements CookieProvider.
func (f CookieFunc) Cookie(ctx context.Context) (string, error) { return f(ctx) }

// StaticCookie is a cookie known up front, typically from HACKMD_COOKIE.
type StaticCookie string

// Cookie implements CookieProvider.
func (s StaticCookie) Cookie(context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", ErrNoCookie
	}
	return NormalizeCookie(string(s)), nil
}

// PromptCookie asks the user to paste the cookie from their browser's
// developer tools.
type PromptCookie struct {
	In  io.Reader
	Out io.Writer
}

// Cookie implements CookieProvider.
func (p PromptCookie) Cookie(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.Out != nil {
		_, _ = fmt.Fprintf(p.Out, "Log in to %s, then paste the %q cookie from the browser's devtools: ", DefaultBaseURL, SessionCookieName)
	}

	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading cookie: %w", err)
	}
	if strings.TrimSpace(line) == "" {
		return "", ErrNoCookie
	}
	return NormalizeCookie(line), nil
}

// Chain tries providers in order and returns the first cookie found.
// Providers answering ErrNoCookie are skipped; any other error stops the chain.
type Chain []CookieProvider

// Cookie implements CookieProvider.
func (c Chain) Cookie(ctx context.Context) (string, error) {
	for _, p := range c {
		if p == nil {
			continue
		}
		cookie, err := p.Cookie(ctx)
		switch {
		case err == nil:
			return cookie, nil
		case errors.Is(err, ErrNoCookie):
			continue
		default:
			return "", err
		}
	}
	return "", ErrNoCookie
}

// NormalizeCookie turns a bare session value into a Cookie header value.
// "abc" and "connect.sid=abc" both yield "connect.sid=abc".
func NormalizeCookie(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return ""
	}
	if strings.HasPrefix(v, SessionCookieName+"=") {
		return v
	}
	return SessionCookieName + "=" + v
}
