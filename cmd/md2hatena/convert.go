package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	md2hatena "github.com/alnah/go-md2hatena"
	"github.com/alnah/go-md2hatena/internal/browser"
	"github.com/alnah/go-md2hatena/internal/config"
	"github.com/alnah/go-md2hatena/internal/fileutil"
	"github.com/alnah/go-md2hatena/internal/hackmd"
	"github.com/alnah/go-md2hatena/internal/hatena"
	"github.com/alnah/go-md2hatena/internal/yamlutil"
)

// Sentinel errors for CLI operations.
var (
	ErrUsage        = errors.New("invalid usage")
	ErrNoInput      = errors.New("no input specified")
	ErrReadMarkdown = errors.New("failed to read markdown")
	ErrWriteOutput  = errors.New("failed to write HTML output")
	ErrReadEnvFile  = errors.New("failed to read env file")
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// stdinArg selects standard input as the markdown source.
const stdinArg = "-"

// run parses args and performs one conversion. The returned config is the
// effective one, when it could be built, for error hints.
func run(ctx context.Context, args []string, env *Environment) (*config.Config, error) {
	flags, positional, err := parseFlags(args, env.Stderr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if flags.help {
		printUsage(env.Stdout)
		return nil, nil
	}
	if flags.version {
		fmt.Fprintf(env.Stdout, "md2hatena %s\n", Version)
		return nil, nil
	}

	if err := env.loadDotenv(flags.common.envFile); err != nil {
		return nil, err
	}
	if !flags.common.quiet {
		warnUnknownEnvVars(env.Stderr, env.Environ())
	}

	cfg, err := buildConfig(flags, env)
	if err != nil {
		return cfg, err
	}

	if flags.printConfig {
		out, err := yamlutil.Encode(cfg)
		if err != nil {
			return cfg, err
		}
		_, err = env.Stdout.Write(out)
		return cfg, err
	}

	logger := newLogger(env.Stderr, flags.common.quiet, flags.common.verbose)
	st := newStatus(env.Stderr, flags.common.quiet, flags.common.noColor)
	return cfg, runConvert(ctx, positional, flags, cfg, env, logger, st)
}

// buildConfig layers defaults, config file, environment and flags, then
// validates the result.
func buildConfig(flags *cliFlags, env *Environment) (*config.Config, error) {
	envCfg := loadEnvConfig(env.Getenv)

	name := flags.common.config
	if name == "" {
		name = envCfg.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(flags *cliFlags, cfg *config.Config) {
	if flags.changed["heading-min"] {
		cfg.Heading.Min = flags.render.headingMin
	}
	if flags.render.codeblock != "" {
		cfg.CodeBlock.Renderer = flags.render.codeblock
	}
	if flags.render.chromaStyle != "" {
		cfg.CodeBlock.ChromaStyle = flags.render.chromaStyle
	}
	if flags.changed["no-resolve"] {
		cfg.Images.NoResolve = flags.images.noResolve
	}
	if flags.changed["image-cache"] {
		cfg.Images.Cache = flags.images.cache
	}
	if flags.images.downloadDir != "" {
		cfg.Images.DownloadDir = flags.images.downloadDir
	}
	if flags.images.timeout != "" {
		cfg.Images.Timeout = flags.images.timeout
	}
	if flags.changed["browser-login"] {
		cfg.HackMD.BrowserLogin = flags.hackmd.browserLogin
	}
}

// runConvert reads the note, resolves its images and writes the HTML.
// Nothing is written when any step fails.
func runConvert(ctx context.Context, positional []string, flags *cliFlags, cfg *config.Config, env *Environment, logger *slog.Logger, st *status) error {
	client := newHackMDClient(cfg, env, logger)

	markdown, err := readInput(ctx, positional, flags.hackmd.note, client, env.Stdin)
	if err != nil {
		return err
	}

	conv, err := md2hatena.NewConverter(
		md2hatena.WithHeadingMin(cfg.Heading.Min),
		md2hatena.WithCodeRenderer(cfg.CodeBlock.Renderer),
		md2hatena.WithChromaStyle(cfg.CodeBlock.ChromaStyle),
		md2hatena.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	if err := conv.Parse(markdown); err != nil {
		return err
	}

	pending := conv.Pending()
	switch {
	case len(pending) == 0:
	case cfg.Images.NoResolve:
		st.Warn("%d image(s) keep their original source (resolution disabled)", len(pending))
	default:
		uploader, err := newUploader(cfg, env, logger)
		if err != nil {
			return err
		}
		resolver := md2hatena.NewResolver(client, uploader,
			md2hatena.WithCachePath(cfg.Images.Cache),
			md2hatena.WithStagingDir(cfg.Images.DownloadDir),
			md2hatena.WithResolverLogger(logger),
			md2hatena.WithProgress(st.Progress),
		)
		if err := conv.Resolve(ctx, resolver); err != nil {
			return err
		}
	}

	html, err := conv.Convert(ctx)
	if err != nil {
		return err
	}

	if err := writeOutput(flags.output, html, env.Stdout); err != nil {
		return err
	}
	if flags.output != "" {
		st.Success("wrote %s", flags.output)
	}
	return nil
}

// readInput returns the markdown named by the positional argument or the
// --note flag. Exactly one source must be given.
func readInput(ctx context.Context, positional []string, note string, client *hackmd.Client, stdin io.Reader) (string, error) {
	switch {
	case len(positional) > 1:
		return "", fmt.Errorf("%w: expected one input, got %d", ErrUsage, len(positional))
	case len(positional) == 1 && note != "":
		return "", fmt.Errorf("%w: give either an input file or --note, not both", ErrUsage)
	case note != "":
		return client.Note(ctx, note)
	case len(positional) == 0:
		return "", ErrNoInput
	}

	path := positional[0]
	if fileutil.IsURL(path) {
		return client.Note(ctx, path)
	}
	if path == stdinArg {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("%w: stdin: %v", ErrReadMarkdown, err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- user-provided path
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrReadMarkdown, err)
	}
	return string(data), nil
}

// writeOutput writes html to path atomically, or to stdout when path is empty.
func writeOutput(path, html string, stdout io.Writer) error {
	if path == "" {
		if _, err := io.WriteString(stdout, html); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteOutput, err)
		}
		return nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, dirPermissions); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteOutput, err)
		}
	}
	if err := fileutil.WriteFileAtomic(path, []byte(html), filePermissions); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return nil
}

// newHackMDClient builds the HackMD client. The session cookie is looked up
// lazily, only when a protected image is fetched: HACKMD_COOKIE first, then
// the browser login when enabled, then a prompt on stdin.
func newHackMDClient(cfg *config.Config, env *Environment, logger *slog.Logger) *hackmd.Client {
	providers := hackmd.Chain{hackmd.StaticCookie(env.Getenv(envHackMDCookie))}
	if cfg.HackMD.BrowserLogin {
		providers = append(providers, browser.NewLogin(browser.WithLogger(logger)))
	}
	providers = append(providers, hackmd.PromptCookie{In: env.Stdin, Out: env.Stderr})

	opts := []hackmd.Option{
		hackmd.WithToken(env.Getenv(envHackMDToken)),
		hackmd.WithCookieProvider(providers),
		hackmd.WithLogger(logger),
	}
	return hackmd.New(append(opts, env.HackMDOptions...)...)
}

// newUploader builds the Fotolife client from the environment. The config
// username, when set, overrides HATENA_USERNAME.
func newUploader(cfg *config.Config, env *Environment, logger *slog.Logger) (*hatena.Fotolife, error) {
	username := strings.TrimSpace(cfg.Hatena.Username)
	if username == "" {
		username = env.Getenv(envHatenaUsername)
	}

	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	opts := []hatena.Option{
		hatena.WithTimeout(timeout),
		hatena.WithLogger(logger),
	}
	if cfg.Hatena.Folder != "" {
		opts = append(opts, hatena.WithFolder(cfg.Hatena.Folder))
	}
	return hatena.New(hatena.Credentials{
		Username: username,
		APIKey:   env.Getenv(envHatenaAPIKey),
	}, append(opts, env.HatenaOptions...)...)
}
