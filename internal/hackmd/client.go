// Package hackmd fetches note markdown and note images from HackMD.
//
// Images under https://hackmd.io/_uploads/ are protected: HackMD redirects
// them to object storage only for a logged-in session, so those requests carry
// the API token and the connect.sid session cookie. Every other image URL is
// fetched anonymously.
package hackmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
)

// Sentinel errors for HackMD operations.
var (
	ErrRequest        = errors.New("hackmd request failed")
	ErrAuthentication = errors.New("hackmd authentication failed")
	ErrInvalidNoteID  = errors.New("invalid hackmd note id")
	ErrTooLarge       = errors.New("hackmd response too large")
)

const (
	DefaultBaseURL = "https://hackmd.io"
	DefaultAPIURL  = "https://api.hackmd.io/v1"

	// MaxImageSize bounds a single downloaded image.
	MaxImageSize = 50 << 20

	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "go-md2hatena (+https://github.com/alnah/go-md2hatena)"
	uploadsPath      = "/_uploads/"
)

// Client talks to HackMD. The zero value is not usable; call New.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiURL     string
	token      string
	cookies    CookieProvider
	logger     *slog.Logger

	cookieOnce sync.Once
	cookie     string
	cookieErr  error
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL points the client at another HackMD host. Protected uploads
// are recognized under this host.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithAPIURL points note requests at another API root.
func WithAPIURL(u string) Option {
	return func(c *Client) { c.apiURL = strings.TrimRight(u, "/") }
}

// WithToken sets the API token sent as a bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithCookieProvider sets where the session cookie for protected uploads
// comes from. The provider is asked at most once per Client.
func WithCookieProvider(p CookieProvider) Option {
	return func(c *Client) { c.cookies = p }
}

// WithLogger sets the logger for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Client with a sensible timeout.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    DefaultBaseURL,
		apiURL:     DefaultAPIURL,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsProtected reports whether rawURL is a HackMD upload needing credentials.
func (c *Client) IsProtected(rawURL string) bool {
	return strings.HasPrefix(rawURL, c.baseURL+uploadsPath)
}

// Fetch downloads the image at rawURL.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", ErrRequest, err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	if c.IsProtected(rawURL) {
		cookie, err := c.sessionCookie(ctx)
		if err != nil {
			return nil, err
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		if cookie != "" {
			req.Header.Set("Cookie", cookie)
		}
	}

	c.logger.Debug("fetching image", "url", rawURL, "protected", c.IsProtected(rawURL))
	return c.do(req, MaxImageSize)
}

// Note returns the markdown content of a note. idOrURL is either a bare
// note id or a HackMD note URL.
func (c *Client) Note(ctx context.Context, idOrURL string) (string, error) {
	id, err := NoteID(idOrURL)
	if err != nil {
		return "", err
	}

	body, err := c.api(ctx, "/notes/"+url.PathEscape(id))
	if err != nil {
		return "", err
	}

	content := gjson.GetBytes(body, "content")
	if !content.Exists() {
		return "", fmt.Errorf("%w: note %s: response has no content", ErrRequest, id)
	}
	return content.String(), nil
}

// api performs an authenticated GET against the API root.
func (c *Client) api(ctx context.Context, path string) ([]byte, error) {
	if c.token == "" {
		return nil, fmt.Errorf("%w: no API token", ErrAuthentication)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", ErrRequest, err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("calling hackmd api", "path", path)
	return c.do(req, MaxImageSize)
}

// do sends req and returns at most limit bytes of a successful body.
func (c *Client) do(req *http.Request, limit int64) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRequest, req.URL.Redacted(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s: status %d", ErrAuthentication, req.URL.Redacted(), resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: %s: status %d", ErrRequest, req.URL.Redacted(), resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", ErrRequest, err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, req.URL.Redacted(), limit)
	}
	return body, nil
}

// sessionCookie asks the provider once and remembers the answer.
func (c *Client) sessionCookie(ctx context.Context) (string, error) {
	c.cookieOnce.Do(func() {
		if c.cookies == nil {
			return
		}
		raw, err := c.cookies.Cookie(ctx)
		if err != nil {
			c.cookieErr = fmt.Errorf("%w: %v", ErrAuthentication, err)
			return
		}
		c.cookie = NormalizeCookie(raw)
	})
	return c.cookie, c.cookieErr
}

// NoteID extracts a note id from a bare id or a HackMD URL such as
// https://hackmd.io/abc123, https://hackmd.io/@user/abc123 or
// https://hackmd.io/abc123/edit.
func NoteID(idOrURL string) (string, error) {
	s := strings.TrimSpace(idOrURL)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidNoteID)
	}

	if !strings.Contains(s, "://") {
		if strings.ContainsAny(s, "/?# ") {
			return "", fmt.Errorf("%w: %q", ErrInvalidNoteID, idOrURL)
		}
		return s, nil
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidNoteID, err)
	}

	var parts []string
	for _, p := range strings.Split(u.Path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 0 && strings.HasPrefix(parts[0], "@") {
		parts = parts[1:]
	}
	if n := len(parts); n > 1 && (parts[n-1] == "edit" || parts[n-1] == "view" || parts[n-1] == "both") {
		parts = parts[:n-1]
	}
	if len(parts) != 1 {
		return "", fmt.Errorf("%w: %q", ErrInvalidNoteID, idOrURL)
	}
	return parts[0], nil
}
