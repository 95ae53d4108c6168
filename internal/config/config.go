package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/alnah/go-md2hatena/internal/codeblock"
	"github.com/alnah/go-md2hatena/internal/fileutil"
	"github.com/alnah/go-md2hatena/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// AppDirName is the directory under the user config dir searched for configs.
const AppDirName = "go-md2hatena"

// Defaults applied before a config file is decoded.
const (
	DefaultHeadingMin   = 1
	DefaultTimeout      = "10s"
	DefaultDownloadDir  = "./.md2hatena-imgs"
	DefaultCodeRenderer = "highlightjs"
)

// Field length limits.
const (
	MaxPathLength     = 4096
	MaxDurationLength = 20 // "1h30m0s"
	MaxStyleLength    = 64 // chroma style names are short
	MaxUsernameLength = 32 // Hatena ids are 3-32 chars
	MaxFolderLength   = 64
	MaxRendererLength = 20
)

// Hatena ids start with a letter and use letters, digits, '-' and '_'.
var hatenaUsernamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]{1,30}[A-Za-z0-9]$`)

// Config holds all configuration for a conversion run.
type Config struct {
	Heading   HeadingConfig   `yaml:"heading"`
	Images    ImagesConfig    `yaml:"images"`
	CodeBlock CodeBlockConfig `yaml:"codeblock"`
	Hatena    HatenaConfig    `yaml:"hatena"`
	HackMD    HackMDConfig    `yaml:"hackmd"`
}

// HeadingConfig defines heading level shifting.
type HeadingConfig struct {
	Min int `yaml:"min"` // 1-6, 1 keeps levels unchanged
}

// ImagesConfig defines image relocation options.
type ImagesConfig struct {
	NoResolve   bool   `yaml:"noResolve"`   // Keep original image sources
	Cache       string `yaml:"cache"`       // Resolution cache file (empty = no caching)
	DownloadDir string `yaml:"downloadDir"` // Staging directory for fetched images
	Timeout     string `yaml:"timeout"`     // Upload timeout, e.g. "10s"
}

// CodeBlockConfig defines fenced code block rendering.
type CodeBlockConfig struct {
	Renderer    string `yaml:"renderer"`    // "pure", "highlightjs", "chroma"
	ChromaStyle string `yaml:"chromaStyle"` // Only used by the chroma renderer
}

// HatenaConfig defines the Fotolife account.
type HatenaConfig struct {
	Username string `yaml:"username"` // Overrides HATENA_USERNAME when set
	Folder   string `yaml:"folder"`   // Fotolife folder for uploads (empty = account root)
}

// HackMDConfig defines how HackMD credentials are obtained.
type HackMDConfig struct {
	BrowserLogin bool `yaml:"browserLogin"` // Capture the session cookie through a browser
}

// Validate checks field lengths and values.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually (e.g., env or flag overrides).
func (c *Config) Validate() error {
	if c.Heading.Min < 1 || c.Heading.Min > 6 {
		return fmt.Errorf("%w: heading.min must be between 1 and 6, got %d", ErrInvalidValue, c.Heading.Min)
	}

	if err := validateFieldLength("images.cache", c.Images.Cache, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("images.downloadDir", c.Images.DownloadDir, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("images.timeout", c.Images.Timeout, MaxDurationLength); err != nil {
		return err
	}
	if !c.Images.NoResolve && c.Images.DownloadDir == "" {
		return fmt.Errorf("%w: images.downloadDir: required when images are resolved", ErrInvalidValue)
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}

	if err := validateFieldLength("codeblock.renderer", c.CodeBlock.Renderer, MaxRendererLength); err != nil {
		return err
	}
	if _, err := codeblock.ParseKind(c.CodeBlock.Renderer); err != nil {
		return fmt.Errorf("%w: codeblock.renderer: %v", ErrInvalidValue, err)
	}
	if err := validateFieldLength("codeblock.chromaStyle", c.CodeBlock.ChromaStyle, MaxStyleLength); err != nil {
		return err
	}

	if err := validateFieldLength("hatena.username", c.Hatena.Username, MaxUsernameLength); err != nil {
		return err
	}
	if c.Hatena.Username != "" && !hatenaUsernamePattern.MatchString(c.Hatena.Username) {
		return fmt.Errorf("%w: hatena.username: %q is not a Hatena id", ErrInvalidValue, c.Hatena.Username)
	}
	if err := validateFieldLength("hatena.folder", c.Hatena.Folder, MaxFolderLength); err != nil {
		return err
	}

	return nil
}

// TimeoutDuration parses Images.Timeout. An empty value yields the default.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	raw := c.Images.Timeout
	if raw == "" {
		raw = DefaultTimeout
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: images.timeout: %v", ErrInvalidValue, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: images.timeout must be positive, got %s", ErrInvalidValue, d)
	}
	return d, nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Heading: HeadingConfig{Min: DefaultHeadingMin},
		Images: ImagesConfig{
			DownloadDir: DefaultDownloadDir,
			Timeout:     DefaultTimeout,
		},
		CodeBlock: CodeBlockConfig{
			Renderer:    DefaultCodeRenderer,
			ChromaStyle: codeblock.DefaultChromaStyle,
		},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Keys absent from the file keep their default values.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	f, err := os.Open(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	cfg := DefaultConfig()
	if err := yamlutil.DecodeReader(f, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, configPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-md2hatena/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, AppDirName, name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
