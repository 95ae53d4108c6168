// Package hatena uploads images to Hatena Fotolife through its AtomPub API.
//
// Requests authenticate with WSSE (UsernameToken profile) using the Hatena id
// and the API key shown in the blog's advanced settings. Uploaded images are
// served from the Fotolife CDN at a path derived from the account name and
// the image id.
package hatena

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for Fotolife operations.
var (
	ErrUpload             = errors.New("fotolife upload failed")
	ErrAuthentication     = errors.New("fotolife authentication failed")
	ErrMissingCredentials = errors.New("missing Hatena credentials")
	ErrInvalidResponse    = errors.New("unexpected fotolife response")
	ErrInvalidImageID     = errors.New("invalid fotolife image id")
)

const (
	DefaultEndpoint   = "https://f.hatena.ne.jp/atom"
	DefaultCDNBaseURL = "https://cdn-ak.f.st-hatena.com/images/fotolife"
	DefaultTimeout    = 10 * time.Second

	atomNS = "http://purl.org/atom/ns#"
	dcNS   = "http://purl.org/dc/elements/1.1/"

	maxResponseSize = 1 << 20
	userAgent       = "go-md2hatena (+https://github.com/alnah/go-md2hatena)"
)

// Credentials authenticate against Fotolife.
type Credentials struct {
	Username string // Hatena id
	APIKey   string
}

// Validate reports which credentials are missing.
func (c Credentials) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Username) == "" {
		missing = append(missing, "username")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		missing = append(missing, "API key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// Fotolife is the upload client. It remembers the account name once known.
type Fotolife struct {
	creds      Credentials
	httpClient *http.Client
	endpoint   string
	cdnBaseURL string
	folder     string
	logger     *slog.Logger
	now        func() time.Time
	nonce      func() []byte

	mu      sync.Mutex
	account string
}

// Option configures a Fotolife client.
type Option func(*Fotolife)

// WithTimeout bounds each upload request.
func WithTimeout(d time.Duration) Option {
	return func(f *Fotolife) {
		if d > 0 {
			f.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the default HTTP client. Apply WithTimeout after
// it to keep a timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(f *Fotolife) {
		if hc != nil {
			f.httpClient = hc
		}
	}
}

// WithEndpoint points the client at another AtomPub root.
func WithEndpoint(u string) Option {
	return func(f *Fotolife) { f.endpoint = strings.TrimRight(u, "/") }
}

// WithCDNBaseURL changes the root of public image URLs.
func WithCDNBaseURL(u string) Option {
	return func(f *Fotolife) { f.cdnBaseURL = strings.TrimRight(u, "/") }
}

// WithFolder files uploads into a Fotolife folder.
func WithFolder(name string) Option {
	return func(f *Fotolife) { f.folder = name }
}

// WithLogger sets the logger for upload tracing.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fotolife) {
		if l != nil {
			f.logger = l
		}
	}
}

// New creates a Fotolife client. Credentials are checked for presence only;
// they are verified against the service on first use.
func New(creds Credentials, opts ...Option) (*Fotolife, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	f := &Fotolife{
		creds:      creds,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		endpoint:   DefaultEndpoint,
		cdnBaseURL: DefaultCDNBaseURL,
		logger:     slog.New(slog.DiscardHandler),
		now:        time.Now,
		nonce: func() []byte {
			id := uuid.New()
			return id[:]
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

type postEntry struct {
	XMLName xml.Name    `xml:"entry"`
	Xmlns   string      `xml:"xmlns,attr"`
	XmlnsDC string      `xml:"xmlns:dc,attr,omitempty"`
	Title   string      `xml:"title"`
	Content postContent `xml:"content"`
	Subject string      `xml:"dc:subject,omitempty"`
}

type postContent struct {
	Mode string `xml:"mode,attr"`
	Type string `xml:"type,attr"`
	Data string `xml:",chardata"`
}

type postedEntry struct {
	Syntax   string `xml:"http://www.hatena.ne.jp/info/xmlns# syntax"`
	ImageURL string `xml:"http://www.hatena.ne.jp/info/xmlns# imageurl"`
}

// Upload posts the image at path with the given title and returns its
// Fotolife image id, e.g. "20240101123456".
func (f *Fotolife) Upload(ctx context.Context, path, title string) (string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- staging path built by the resolver
	if err != nil {
		return "", fmt.Errorf("%w: reading %s: %v", ErrUpload, path, err)
	}

	entry := postEntry{
		Xmlns: atomNS,
		Title: title,
		Content: postContent{
			Mode: "base64",
			Type: contentType(path, data),
			Data: base64.StdEncoding.EncodeToString(data),
		},
	}
	if f.folder != "" {
		entry.XmlnsDC = dcNS
		entry.Subject = f.folder
	}

	body, err := xml.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("%w: encoding entry: %v", ErrUpload, err)
	}
	body = append([]byte(xml.Header), body...)

	f.logger.Debug("uploading image", "path", path, "title", title, "bytes", len(data))

	resp, err := f.do(ctx, http.MethodPost, f.endpoint+"/post", body)
	if err != nil {
		// Keep ErrAuthentication matchable for the caller.
		return "", fmt.Errorf("%w: %w", ErrUpload, err)
	}

	var posted postedEntry
	if err := xml.Unmarshal(resp, &posted); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	account, id, err := ParseSyntax(posted.Syntax)
	if err != nil {
		return "", err
	}

	f.rememberAccount(account)
	f.logger.Debug("uploaded image", "id", id, "imageurl", posted.ImageURL)
	return id, nil
}

// AccountName returns the account name used in public URLs. The first call
// verifies the credentials against the feed endpoint unless an upload has
// already revealed the name; the result is memoized.
func (f *Fotolife) AccountName(ctx context.Context) (string, error) {
	f.mu.Lock()
	account := f.account
	f.mu.Unlock()
	if account != "" {
		return account, nil
	}

	if _, err := f.do(ctx, http.MethodGet, f.endpoint+"/feed", nil); err != nil {
		return "", err
	}

	f.rememberAccount(f.creds.Username)
	return f.creds.Username, nil
}

// PublicURL returns the CDN URL of an uploaded image:
// <cdn>/<first letter>/<account>/<first 8 digits of id>/<id>.<ext>.
func (f *Fotolife) PublicURL(ctx context.Context, id, ext string) (string, error) {
	if len(id) < 8 {
		return "", fmt.Errorf("%w: %q", ErrInvalidImageID, id)
	}
	account, err := f.AccountName(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s/%s/%s.%s",
		f.cdnBaseURL, account[:1], account, id[:8], id, strings.TrimPrefix(ext, ".")), nil
}

func (f *Fotolife) rememberAccount(name string) {
	if name == "" {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.account == "" {
		f.account = name
	}
}

// do sends a WSSE-signed request and returns the response body.
func (f *Fotolife) do(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Authorization", `WSSE profile="UsernameToken"`)
	req.Header.Set("X-WSSE", wsseHeader(f.creds.Username, f.creds.APIKey, f.nonce(), f.now()))
	if body != nil {
		req.Header.Set("Content-Type", "application/x.atom+xml; charset=utf-8")
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s %s: status %d", ErrAuthentication, method, url, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%s %s: status %d", method, url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return data, nil
}

// ParseSyntax splits a Fotolife syntax string such as
// "f:id:writer:20240101123456p:image" into the account and the numeric id.
func ParseSyntax(syntax string) (account, id string, err error) {
	parts := strings.Split(strings.TrimSpace(syntax), ":")
	if len(parts) < 4 || parts[0] != "f" || parts[1] != "id" || parts[2] == "" {
		return "", "", fmt.Errorf("%w: syntax %q", ErrInvalidResponse, syntax)
	}

	raw := parts[3]
	end := 0
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end < 8 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidImageID, raw)
	}
	return parts[2], raw[:end], nil
}

// contentType picks the MIME type from the extension, then from the bytes.
func contentType(path string, data []byte) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); t != "" {
		return t
	}
	return http.DetectContentType(data)
}
