// Package browser captures the HackMD session cookie by letting the user log
// in through a real Chrome window driven by go-rod.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-md2hatena/internal/hackmd"
	"github.com/alnah/go-md2hatena/internal/process"
)

// Sentinel errors for browser login.
var (
	ErrLaunch = errors.New("failed to launch browser")
	ErrLogin  = errors.New("hackmd browser login failed")
)

const (
	DefaultLoginURL     = hackmd.DefaultBaseURL + "/login"
	DefaultLoginTimeout = 5 * time.Minute
	DefaultPollInterval = time.Second
)

// Login implements hackmd.CookieProvider by waiting for the user to finish
// logging in, then reading connect.sid from the browser's cookie jar.
type Login struct {
	loginURL string
	timeout  time.Duration
	poll     time.Duration
	logger   *slog.Logger
	getenv   func(string) string
}

var _ hackmd.CookieProvider = (*Login)(nil)

// Option configures a Login.
type Option func(*Login)

// WithLoginURL changes the page opened for login.
func WithLoginURL(u string) Option {
	return func(l *Login) { l.loginURL = u }
}

// WithTimeout bounds how long the user has to log in.
func WithTimeout(d time.Duration) Option {
	return func(l *Login) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithPollInterval sets how often the cookie jar is checked.
func WithPollInterval(d time.Duration) Option {
	return func(l *Login) {
		if d > 0 {
			l.poll = d
		}
	}
}

// WithLogger sets the logger for login progress.
func WithLogger(lg *slog.Logger) Option {
	return func(l *Login) {
		if lg != nil {
			l.logger = lg
		}
	}
}

// NewLogin creates a browser login provider.
func NewLogin(opts ...Option) *Login {
	l := &Login{
		loginURL: DefaultLoginURL,
		timeout:  DefaultLoginTimeout,
		poll:     DefaultPollInterval,
		logger:   slog.New(slog.DiscardHandler),
		getenv:   os.Getenv,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Cookie opens a visible browser on the login page and returns the session
// cookie once the user has logged in.
func (l *Login) Cookie(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	lc := l.launcher()
	controlURL, err := lc.Launch()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLaunch, err)
	}
	pid := lc.PID()
	defer func() {
		lc.Kill()
		process.KillTree(pid)
	}()

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrLaunch, err)
	}
	defer func() { _ = b.Close() }()

	page, err := b.Page(proto.TargetCreateTarget{URL: l.loginURL})
	if err != nil {
		return "", fmt.Errorf("%w: opening %s: %v", ErrLogin, l.loginURL, err)
	}

	l.logger.Info("waiting for HackMD login in the browser window", "url", l.loginURL)
	return l.waitForSession(ctx, page)
}

// waitForSession polls until the page has left the login form and the
// session cookie is set.
func (l *Login) waitForSession(ctx context.Context, page *rod.Page) (string, error) {
	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	site := siteURL(l.loginURL)
	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", ErrLogin, ctx.Err())
		case <-ticker.C:
		}

		info, err := page.Info()
		if err != nil {
			return "", fmt.Errorf("%w: reading page: %v", ErrLogin, err)
		}
		if !loggedIn(info.URL, l.loginURL) {
			continue
		}

		cookies, err := page.Cookies([]string{site})
		if err != nil {
			return "", fmt.Errorf("%w: reading cookies: %v", ErrLogin, err)
		}
		if value, ok := findCookie(cookies, hackmd.SessionCookieName); ok {
			l.logger.Debug("captured session cookie")
			return hackmd.NormalizeCookie(value), nil
		}
	}
}

// launcher configures a visible browser the way the environment asks.
func (l *Login) launcher() *launcher.Launcher {
	lc := launcher.New().Headless(false)

	if bin := l.getenv("ROD_BROWSER_BIN"); bin != "" {
		lc = lc.Bin(bin)
	}
	if l.getenv("ROD_NO_SANDBOX") == "1" {
		lc = lc.NoSandbox(true)
	}
	return lc
}

// loggedIn reports whether current is a page of the login site other than
// the login form itself.
func loggedIn(current, loginURL string) bool {
	cur, err := url.Parse(current)
	if err != nil || cur.Host == "" {
		return false
	}
	login, err := url.Parse(loginURL)
	if err != nil {
		return false
	}
	if !strings.EqualFold(cur.Host, login.Host) {
		return false
	}
	return strings.TrimRight(cur.Path, "/") != strings.TrimRight(login.Path, "/")
}

// findCookie returns the value of the named cookie.
func findCookie(cookies []*proto.NetworkCookie, name string) (string, bool) {
	for _, c := range cookies {
		if c != nil && c.Name == name && c.Value != "" {
			return c.Value, true
		}
	}
	return "", false
}

// siteURL strips rawURL down to scheme and host.
func siteURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Scheme + "://" + u.Host
}
