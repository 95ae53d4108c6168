package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Heading.Min != 1 {
		t.Errorf("Heading.Min = %d, want 1", cfg.Heading.Min)
	}
	if cfg.Images.Cache != "" {
		t.Errorf("Images.Cache = %q, want empty", cfg.Images.Cache)
	}
	if cfg.Images.NoResolve {
		t.Error("Images.NoResolve = true, want false")
	}
	if cfg.Images.DownloadDir != DefaultDownloadDir {
		t.Errorf("Images.DownloadDir = %q, want %q", cfg.Images.DownloadDir, DefaultDownloadDir)
	}
	if cfg.CodeBlock.Renderer != "highlightjs" {
		t.Errorf("CodeBlock.Renderer = %q, want highlightjs", cfg.CodeBlock.Renderer)
	}
	if cfg.CodeBlock.ChromaStyle != "github" {
		t.Errorf("CodeBlock.ChromaStyle = %q, want github", cfg.CodeBlock.ChromaStyle)
	}
	if d, err := cfg.TimeoutDuration(); err != nil || d != 10*time.Second {
		t.Errorf("TimeoutDuration() = %v, %v, want 10s", d, err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestValidateFieldLength(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		maxLength int
		wantErr   bool
	}{
		{name: "empty value is valid", value: "", maxLength: 10},
		{name: "value at limit is valid", value: "1234567890", maxLength: 10},
		{name: "value over limit returns error", value: "12345678901", maxLength: 10, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFieldLength("test.field", tt.value, tt.maxLength)
			if tt.wantErr {
				if !errors.Is(err, ErrFieldTooLong) {
					t.Errorf("error = %v, want ErrFieldTooLong", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestConfig_Validate - Value checks
// ---------------------------------------------------------------------------

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
		field   string
	}{
		{
			name:   "defaults",
			mutate: func(*Config) {},
		},
		{
			name:   "heading min 6",
			mutate: func(c *Config) { c.Heading.Min = 6 },
		},
		{
			name:    "heading min 0",
			mutate:  func(c *Config) { c.Heading.Min = 0 },
			wantErr: ErrInvalidValue,
			field:   "heading.min",
		},
		{
			name:    "heading min 7",
			mutate:  func(c *Config) { c.Heading.Min = 7 },
			wantErr: ErrInvalidValue,
			field:   "heading.min",
		},
		{
			name:    "unknown renderer",
			mutate:  func(c *Config) { c.CodeBlock.Renderer = "prism" },
			wantErr: ErrInvalidValue,
			field:   "codeblock.renderer",
		},
		{
			name:   "renderer alias",
			mutate: func(c *Config) { c.CodeBlock.Renderer = "highlight.js" },
		},
		{
			name:    "bad timeout",
			mutate:  func(c *Config) { c.Images.Timeout = "soon" },
			wantErr: ErrInvalidValue,
			field:   "images.timeout",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Images.Timeout = "-1s" },
			wantErr: ErrInvalidValue,
			field:   "images.timeout",
		},
		{
			name:    "download dir required when resolving",
			mutate:  func(c *Config) { c.Images.DownloadDir = "" },
			wantErr: ErrInvalidValue,
			field:   "images.downloadDir",
		},
		{
			name: "download dir optional without resolving",
			mutate: func(c *Config) {
				c.Images.DownloadDir = ""
				c.Images.NoResolve = true
			},
		},
		{
			name:    "cache path too long",
			mutate:  func(c *Config) { c.Images.Cache = strings.Repeat("a", MaxPathLength+1) },
			wantErr: ErrFieldTooLong,
			field:   "images.cache",
		},
		{
			name:   "valid username",
			mutate: func(c *Config) { c.Hatena.Username = "blog_writer-01" },
		},
		{
			name:    "username with space",
			mutate:  func(c *Config) { c.Hatena.Username = "blog writer" },
			wantErr: ErrInvalidValue,
			field:   "hatena.username",
		},
		{
			name:    "username too long",
			mutate:  func(c *Config) { c.Hatena.Username = strings.Repeat("a", MaxUsernameLength+1) },
			wantErr: ErrFieldTooLong,
			field:   "hatena.username",
		},
		{
			name:    "folder too long",
			mutate:  func(c *Config) { c.Hatena.Folder = strings.Repeat("f", MaxFolderLength+1) },
			wantErr: ErrFieldTooLong,
			field:   "hatena.folder",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not name field %q", err, tt.field)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestLoadConfig - File decoding and location
// ---------------------------------------------------------------------------

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("partial file keeps defaults", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), "blog.yaml", `
heading:
  min: 3
images:
  cache: ./images.txt
codeblock:
  renderer: chroma
  chromaStyle: monokai
hatena:
  username: writer
  folder: Blog
`)
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Heading.Min != 3 {
			t.Errorf("Heading.Min = %d, want 3", cfg.Heading.Min)
		}
		if cfg.Images.Cache != "./images.txt" {
			t.Errorf("Images.Cache = %q", cfg.Images.Cache)
		}
		if cfg.Images.Timeout != DefaultTimeout {
			t.Errorf("Images.Timeout = %q, want default", cfg.Images.Timeout)
		}
		if cfg.Images.DownloadDir != DefaultDownloadDir {
			t.Errorf("Images.DownloadDir = %q, want default", cfg.Images.DownloadDir)
		}
		if cfg.CodeBlock.Renderer != "chroma" || cfg.CodeBlock.ChromaStyle != "monokai" {
			t.Errorf("CodeBlock = %+v", cfg.CodeBlock)
		}
		if cfg.Hatena.Username != "writer" || cfg.Hatena.Folder != "Blog" {
			t.Errorf("Hatena = %+v", cfg.Hatena)
		}
	})

	t.Run("unknown key rejected", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), "blog.yaml", "heading:\n  max: 3\n")
		_, err := LoadConfig(path)
		if !errors.Is(err, ErrConfigParse) {
			t.Errorf("LoadConfig() error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("invalid value rejected", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), "blog.yaml", "heading:\n  min: 9\n")
		_, err := LoadConfig(path)
		if !errors.Is(err, ErrInvalidValue) {
			t.Errorf("LoadConfig() error = %v, want ErrInvalidValue", err)
		}
	})

	t.Run("empty name", func(t *testing.T) {
		if _, err := LoadConfig(""); !errors.Is(err, ErrEmptyConfigName) {
			t.Errorf("LoadConfig() error = %v, want ErrEmptyConfigName", err)
		}
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("LoadConfig() error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("name found in current directory", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "blog.yml", "heading:\n  min: 2\n")
		t.Chdir(dir)

		cfg, err := LoadConfig("blog")
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Heading.Min != 2 {
			t.Errorf("Heading.Min = %d, want 2", cfg.Heading.Min)
		}
	})

	t.Run("name found in user config directory", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", home)
		t.Setenv("HOME", home)
		t.Chdir(t.TempDir())

		userDir, err := os.UserConfigDir()
		if err != nil {
			t.Skipf("no user config dir: %v", err)
		}
		appDir := filepath.Join(userDir, AppDirName)
		if err := os.MkdirAll(appDir, 0o750); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		writeConfig(t, appDir, "blog.yaml", "images:\n  noResolve: true\n")

		cfg, err := LoadConfig("blog")
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if !cfg.Images.NoResolve {
			t.Error("Images.NoResolve = false, want true")
		}
	})

	t.Run("name not found lists tried paths", func(t *testing.T) {
		t.Chdir(t.TempDir())

		_, err := LoadConfig("nowhere")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("LoadConfig() error = %v, want ErrConfigNotFound", err)
		}
		if !strings.Contains(err.Error(), "nowhere.yaml") || !strings.Contains(err.Error(), "nowhere.yml") {
			t.Errorf("error %q does not list tried paths", err)
		}
	})
}
