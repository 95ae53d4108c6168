package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alnah/go-md2hatena/internal/config"
)

// Credential variables read by the command.
const (
	envHackMDToken    = "HACKMD_APITOKEN"
	envHackMDCookie   = "HACKMD_COOKIE"
	envHatenaUsername = "HATENA_USERNAME"
	envHatenaAPIKey   = "HATENA_API_KEY"
)

const envPrefix = "MD2HATENA_"

// envConfig holds configuration from MD2HATENA_* environment variables.
type envConfig struct {
	ConfigPath  string // MD2HATENA_CONFIG: config file name or path
	HeadingMin  int    // MD2HATENA_HEADING_MIN: 1-6
	Codeblock   string // MD2HATENA_CODEBLOCK: pure, highlightjs, chroma
	ChromaStyle string // MD2HATENA_CHROMA_STYLE: chroma style name
	ImageCache  string // MD2HATENA_IMAGE_CACHE: resolution cache file
	DownloadDir string // MD2HATENA_DOWNLOAD_DIR: staging directory
	Timeout     string // MD2HATENA_TIMEOUT: upload timeout
	NoResolve   bool   // MD2HATENA_NO_RESOLVE: keep original image sources
}

// knownEnvVars lists valid MD2HATENA_* environment variables.
var knownEnvVars = map[string]bool{
	"MD2HATENA_CONFIG":       true,
	"MD2HATENA_HEADING_MIN":  true,
	"MD2HATENA_CODEBLOCK":    true,
	"MD2HATENA_CHROMA_STYLE": true,
	"MD2HATENA_IMAGE_CACHE":  true,
	"MD2HATENA_DOWNLOAD_DIR": true,
	"MD2HATENA_TIMEOUT":      true,
	"MD2HATENA_NO_RESOLVE":   true,
}

// loadEnvConfig reads configuration from environment variables.
// Unparseable numbers and booleans are ignored; the timeout string is kept
// as-is and checked with the rest of the config.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath:  getenv("MD2HATENA_CONFIG"),
		Codeblock:   getenv("MD2HATENA_CODEBLOCK"),
		ChromaStyle: getenv("MD2HATENA_CHROMA_STYLE"),
		ImageCache:  getenv("MD2HATENA_IMAGE_CACHE"),
		DownloadDir: getenv("MD2HATENA_DOWNLOAD_DIR"),
		Timeout:     getenv("MD2HATENA_TIMEOUT"),
	}

	if v := getenv("MD2HATENA_HEADING_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HeadingMin = n
		}
	}
	if v := getenv("MD2HATENA_NO_RESOLVE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.NoResolve = b
		}
	}

	return cfg
}

// warnUnknownEnvVars reports unrecognized MD2HATENA_* variables.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, env := range environ {
		if !strings.HasPrefix(env, envPrefix) {
			continue
		}
		name := strings.SplitN(env, "=", 2)[0]
		if !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

// applyEnvConfig overlays set environment values on cfg.
// Precedence: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.HeadingMin != 0 {
		cfg.Heading.Min = env.HeadingMin
	}
	if env.Codeblock != "" {
		cfg.CodeBlock.Renderer = env.Codeblock
	}
	if env.ChromaStyle != "" {
		cfg.CodeBlock.ChromaStyle = env.ChromaStyle
	}
	if env.ImageCache != "" {
		cfg.Images.Cache = env.ImageCache
	}
	if env.DownloadDir != "" {
		cfg.Images.DownloadDir = env.DownloadDir
	}
	if env.Timeout != "" {
		cfg.Images.Timeout = env.Timeout
	}
	if env.NoResolve {
		cfg.Images.NoResolve = true
	}
}
