package main

// Notes:
// - fakeServices serves HackMD (public images, protected uploads, note API)
//   and the Fotolife AtomPub endpoint from one httptest server; the real
//   clients are pointed at it through Environment options.
// - Environment variables are injected through Environment.Getenv, so these
//   tests stay parallel and never touch the process environment.

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	md2hatena "github.com/alnah/go-md2hatena"
	"github.com/alnah/go-md2hatena/internal/config"
	"github.com/alnah/go-md2hatena/internal/hackmd"
	"github.com/alnah/go-md2hatena/internal/hatena"
	"github.com/alnah/go-md2hatena/internal/imagecache"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeServices struct {
	srv     *httptest.Server
	fetches atomic.Int32
	posts   atomic.Int32
	note    string
}

func newFakeServices(t *testing.T) *fakeServices {
	t.Helper()
	f := &fakeServices{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /img/{name}", func(w http.ResponseWriter, r *http.Request) {
		f.fetches.Add(1)
		_, _ = w.Write(pngBytes)
	})
	mux.HandleFunc("GET /_uploads/{name}", func(w http.ResponseWriter, r *http.Request) {
		f.fetches.Add(1)
		if r.Header.Get("Cookie") != "connect.sid=s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write(pngBytes)
	})
	mux.HandleFunc("GET /v1/notes/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"`+r.PathValue("id")+`","content":`+jsonString(f.note)+`}`)
	})
	mux.HandleFunc("POST /atom/post", func(w http.ResponseWriter, r *http.Request) {
		n := f.posts.Add(1)
		if !strings.Contains(r.Header.Get("X-WSSE"), `Username="writer"`) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `<entry xmlns="http://purl.org/atom/ns#" xmlns:hatena="http://www.hatena.ne.jp/info/xmlns#">`+
			`<hatena:syntax>f:id:writer:2024010203040`+string(rune('0'+n))+`p:image</hatena:syntax></entry>`)
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func jsonString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}

// testEnv wires an Environment to the fake services with the given variables.
func testEnv(f *fakeServices, vars map[string]string) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	env := &Environment{
		Stdin:  strings.NewReader(""),
		Stdout: stdout,
		Stderr: stderr,
		Getenv: func(k string) string { return vars[k] },
		Environ: func() []string {
			out := make([]string, 0, len(vars))
			for k, v := range vars {
				out = append(out, k+"="+v)
			}
			return out
		},
		HackMDOptions: []hackmd.Option{
			hackmd.WithBaseURL(f.srv.URL),
			hackmd.WithAPIURL(f.srv.URL + "/v1"),
		},
		HatenaOptions: []hatena.Option{
			hatena.WithEndpoint(f.srv.URL + "/atom"),
			hatena.WithCDNBaseURL("https://cdn.test"),
		},
	}
	return env, stdout, stderr
}

func credentials() map[string]string {
	return map[string]string{
		envHackMDToken:    "tok",
		envHackMDCookie:   "s3cret",
		envHatenaUsername: "writer",
		envHatenaAPIKey:   "key",
	}
}

func writeNote(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "note.md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// ---------------------------------------------------------------------------
// End to end
// ---------------------------------------------------------------------------

func TestRun_ConvertsAndResolves(t *testing.T) {
	t.Parallel()

	f := newFakeServices(t)
	dir := t.TempDir()
	note := writeNote(t, dir, "# Trip\n\n![harbour]("+f.srv.URL+"/_uploads/a.png)\n\n![sky]("+f.srv.URL+"/img/b)\n")
	out := filepath.Join(dir, "out", "post.html")
	cache := filepath.Join(dir, "images.txt")

	env, _, stderr := testEnv(f, credentials())
	args := []string{note, "-o", out, "-i", cache, "-d", filepath.Join(dir, "staging"),
		"--heading-min", "3", "--codeblock", "pure", "--env-file", ""}

	if _, err := run(context.Background(), args, env); err != nil {
		t.Fatalf("run() error = %v\nstderr:\n%s", err, stderr)
	}

	html, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	got := string(html)
	if !strings.Contains(got, "<h3>Trip</h3>") {
		t.Errorf("heading not shifted:\n%s", got)
	}
	if strings.Count(got, "<figure") != 2 {
		t.Errorf("want two figures:\n%s", got)
	}
	if !strings.Contains(got, `src="https://cdn.test/w/writer/20240102/20240102030401.png"`) {
		t.Errorf("first destination missing:\n%s", got)
	}
	if strings.Contains(got, f.srv.URL) {
		t.Errorf("original source left in output:\n%s", got)
	}

	cached, err := imagecache.RestoreFrom(cache)
	if err != nil || len(cached) != 2 {
		t.Errorf("cache = %v, %v; want two entries", cached, err)
	}
	if !strings.Contains(stderr.String(), "[+]") {
		t.Errorf("no status lines:\n%s", stderr)
	}
}

func TestRun_SecondRunUsesCache(t *testing.T) {
	t.Parallel()

	f := newFakeServices(t)
	dir := t.TempDir()
	note := writeNote(t, dir, "![a]("+f.srv.URL+"/img/a.png)\n")
	args := []string{note, "-i", filepath.Join(dir, "images.txt"), "-d", dir, "--env-file", ""}

	env, first, _ := testEnv(f, credentials())
	if _, err := run(context.Background(), args, env); err != nil {
		t.Fatalf("first run() error = %v", err)
	}
	fetches, posts := f.fetches.Load(), f.posts.Load()

	env, second, _ := testEnv(f, credentials())
	if _, err := run(context.Background(), args, env); err != nil {
		t.Fatalf("second run() error = %v", err)
	}

	if f.fetches.Load() != fetches || f.posts.Load() != posts {
		t.Errorf("second run used the network: fetches %d->%d, posts %d->%d",
			fetches, f.fetches.Load(), posts, f.posts.Load())
	}
	if first.String() != second.String() {
		t.Errorf("outputs differ:\n%s\n---\n%s", first, second)
	}
}

func TestRun_NoteFromAPI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input func(base string) []string
	}{
		{"note flag", func(base string) []string { return []string{"--note", base + "/abc123"} }},
		{"url argument", func(base string) []string { return []string{base + "/@writer/abc123"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFakeServices(t)
			f.note = "---\ntitle: From API\n---\n## Hello\n\nbody ==marked==\n"

			env, stdout, _ := testEnv(f, credentials())
			args := append(tt.input(f.srv.URL), "--codeblock", "pure", "--env-file", "")
			if _, err := run(context.Background(), args, env); err != nil {
				t.Fatalf("run() error = %v", err)
			}

			got := stdout.String()
			if !strings.Contains(got, "<h2>Hello</h2>") || !strings.Contains(got, "<mark>marked</mark>") {
				t.Errorf("unexpected output:\n%s", got)
			}
			if strings.Contains(got, "From API") {
				t.Errorf("front matter leaked:\n%s", got)
			}
		})
	}
}

func TestRun_Stdin(t *testing.T) {
	t.Parallel()

	f := newFakeServices(t)
	env, stdout, _ := testEnv(f, nil)
	env.Stdin = strings.NewReader("plain *text*\n")

	if _, err := run(context.Background(), []string{"-", "--env-file", ""}, env); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "<em>text</em>") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRun_NoResolveKeepsSources(t *testing.T) {
	t.Parallel()

	f := newFakeServices(t)
	dir := t.TempDir()
	note := writeNote(t, dir, "![a]("+f.srv.URL+"/img/a.png)\n")

	// No credentials: resolution must not be attempted at all.
	env, stdout, stderr := testEnv(f, nil)
	if _, err := run(context.Background(), []string{note, "-n", "--env-file", ""}, env); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.Contains(stdout.String(), `src="`+f.srv.URL+`/img/a.png"`) {
		t.Errorf("original source lost:\n%s", stdout)
	}
	if f.fetches.Load() != 0 || f.posts.Load() != 0 {
		t.Error("network used with resolution disabled")
	}
	if !strings.Contains(stderr.String(), "[!]") {
		t.Errorf("no warning about kept sources:\n%s", stderr)
	}
}

// ---------------------------------------------------------------------------
// Failures
// ---------------------------------------------------------------------------

func TestRun_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		markdown string // "{srv}" is replaced by the fake server URL
		vars     map[string]string
		args     []string
		wantErr  error
		wantCode int
	}{
		{
			name:     "missing hatena credentials",
			markdown: "![a]({srv}/img/a.png)\n",
			vars:     map[string]string{envHackMDCookie: "s3cret"},
			wantErr:  hatena.ErrMissingCredentials,
			wantCode: ExitNetwork,
		},
		{
			name:     "rejected hackmd cookie",
			markdown: "![a]({srv}/_uploads/a.png)\n",
			vars: map[string]string{
				envHackMDCookie: "stale", envHatenaUsername: "writer", envHatenaAPIKey: "key",
			},
			wantErr:  hackmd.ErrAuthentication,
			wantCode: ExitNetwork,
		},
		{
			name:     "empty document",
			markdown: "  \n",
			wantErr:  md2hatena.ErrEmptyMarkdown,
			wantCode: ExitUsage,
		},
		{
			name:     "bad heading flag",
			markdown: "text\n",
			args:     []string{"--heading-min", "9"},
			wantErr:  config.ErrInvalidValue,
			wantCode: ExitUsage,
		},
		{
			name:     "unknown renderer",
			markdown: "text\n",
			args:     []string{"--codeblock", "prism"},
			wantErr:  config.ErrInvalidValue,
			wantCode: ExitUsage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFakeServices(t)
			dir := t.TempDir()
			note := writeNote(t, dir, strings.ReplaceAll(tt.markdown, "{srv}", f.srv.URL))
			out := filepath.Join(dir, "post.html")

			env, _, _ := testEnv(f, tt.vars)
			args := append([]string{note, "-o", out, "-d", dir, "--env-file", ""}, tt.args...)

			_, err := run(context.Background(), args, env)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("run() error = %v, want %v", err, tt.wantErr)
			}
			if code := exitCodeFor(err); code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", code, tt.wantCode)
			}
			if _, statErr := os.Stat(out); !errors.Is(statErr, os.ErrNotExist) {
				t.Error("output written despite the error")
			}
		})
	}
}

func TestRun_InputErrors(t *testing.T) {
	t.Parallel()

	f := newFakeServices(t)

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{name: "no input", args: nil, wantErr: ErrNoInput},
		{name: "two inputs", args: []string{"a.md", "b.md"}, wantErr: ErrUsage},
		{name: "file and note", args: []string{"a.md", "--note", "abc"}, wantErr: ErrUsage},
		{name: "missing file", args: []string{"/does/not/exist.md"}, wantErr: ErrReadMarkdown},
		{name: "unknown flag", args: []string{"--bogus"}, wantErr: ErrUsage},
		{name: "note without token", args: []string{"--note", "abc"}, wantErr: hackmd.ErrAuthentication},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, _, _ := testEnv(f, nil)
			_, err := run(context.Background(), append(tt.args, "--env-file", ""), env)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("run() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Informational flags
// ---------------------------------------------------------------------------

func TestRun_VersionAndHelp(t *testing.T) {
	t.Parallel()

	f := newFakeServices(t)

	env, stdout, _ := testEnv(f, nil)
	if _, err := run(context.Background(), []string{"--version"}, env); err != nil {
		t.Fatalf("run(--version) error = %v", err)
	}
	if !strings.HasPrefix(stdout.String(), "md2hatena ") {
		t.Errorf("version output = %q", stdout)
	}

	env, stdout, _ = testEnv(f, nil)
	if _, err := run(context.Background(), []string{"-h"}, env); err != nil {
		t.Fatalf("run(-h) error = %v", err)
	}
	if !strings.Contains(stdout.String(), "Usage: md2hatena") {
		t.Errorf("help output = %q", stdout)
	}
}

func TestRun_PrintConfig(t *testing.T) {
	t.Parallel()

	f := newFakeServices(t)
	env, stdout, _ := testEnv(f, map[string]string{"MD2HATENA_CODEBLOCK": "chroma"})

	args := []string{"--print-config", "--heading-min", "2", "-i", "cache.txt", "--env-file", ""}
	if _, err := run(context.Background(), args, env); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	got := stdout.String()
	for _, want := range []string{"min: 2", "renderer: chroma", "cache: cache.txt"} {
		if !strings.Contains(got, want) {
			t.Errorf("printed config missing %q:\n%s", want, got)
		}
	}
}

// ---------------------------------------------------------------------------
// Dotenv
// ---------------------------------------------------------------------------

func TestEnvironment_LoadDotenv(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("HATENA_USERNAME=fromfile\nHATENA_API_KEY=k\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	env := &Environment{
		Getenv:  func(k string) string { return map[string]string{"HATENA_USERNAME": "fromenv"}[k] },
		Environ: func() []string { return []string{"HATENA_USERNAME=fromenv"} },
	}
	if err := env.loadDotenv(path); err != nil {
		t.Fatalf("loadDotenv() error = %v", err)
	}

	if got := env.Getenv("HATENA_USERNAME"); got != "fromenv" {
		t.Errorf("HATENA_USERNAME = %q, want process value to win", got)
	}
	if got := env.Getenv("HATENA_API_KEY"); got != "k" {
		t.Errorf("HATENA_API_KEY = %q, want value from file", got)
	}
	if n := len(env.Environ()); n != 3 {
		t.Errorf("Environ() has %d entries, want 3", n)
	}

	if err := env.loadDotenv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing file error = %v, want nil", err)
	}
}

func TestWriteOutput_Stdout(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := writeOutput("", "<p>x</p>\n", &buf); err != nil {
		t.Fatalf("writeOutput() error = %v", err)
	}
	if buf.String() != "<p>x</p>\n" {
		t.Errorf("stdout = %q", buf.String())
	}
}
