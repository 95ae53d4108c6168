package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags that shape every run.
type commonFlags struct {
	config  string
	envFile string
	quiet   bool
	verbose bool
	noColor bool
}

// imageFlags holds image resolution flags.
type imageFlags struct {
	noResolve   bool
	cache       string
	downloadDir string
	timeout     string
}

// renderFlags holds HTML rendering flags.
type renderFlags struct {
	headingMin  int
	codeblock   string
	chromaStyle string
}

// hackmdFlags holds HackMD access flags.
type hackmdFlags struct {
	note         string
	browserLogin bool
}

// cliFlags holds every flag of the command.
type cliFlags struct {
	common      commonFlags
	output      string
	images      imageFlags
	render      renderFlags
	hackmd      hackmdFlags
	printConfig bool
	version     bool
	help        bool

	// changed records flags given on the command line, so that a flag set
	// to its zero value still overrides the config file.
	changed map[string]bool
}

func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.StringVar(&f.envFile, "env-file", ".env", "file holding credentials (missing file is ignored)")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show per-image progress records")
	fs.BoolVar(&f.noColor, "no-color", false, "disable colored status output")
}

func addImageFlags(fs *flag.FlagSet, f *imageFlags) {
	fs.BoolVarP(&f.noResolve, "no-resolve", "n", false, "keep original image sources")
	fs.StringVarP(&f.cache, "image-cache", "i", "", "image resolution cache file")
	fs.StringVarP(&f.downloadDir, "download-dir", "d", "", "staging directory for fetched images")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "upload timeout (e.g., 10s, 1m)")
}

func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.IntVar(&f.headingMin, "heading-min", 0, "level a top-level heading is rendered at (1-6)")
	fs.StringVar(&f.codeblock, "codeblock", "", "code block renderer: pure, highlightjs, chroma")
	fs.StringVar(&f.chromaStyle, "chroma-style", "", "chroma style for the chroma renderer")
}

func addHackMDFlags(fs *flag.FlagSet, f *hackmdFlags) {
	fs.StringVar(&f.note, "note", "", "HackMD note id or URL to convert")
	fs.BoolVar(&f.browserLogin, "browser-login", false, "log in to HackMD through a browser window")
}

// parseFlags parses args (without the program name).
func parseFlags(args []string, stderr io.Writer) (*cliFlags, []string, error) {
	fs := flag.NewFlagSet("md2hatena", flag.ContinueOnError)
	fs.SetOutput(stderr)
	f := &cliFlags{changed: map[string]bool{}}

	fs.StringVarP(&f.output, "output", "o", "", "output HTML file (default: stdout)")
	fs.BoolVar(&f.printConfig, "print-config", false, "print the effective configuration and exit")
	fs.BoolVar(&f.version, "version", false, "show version information")
	fs.BoolVarP(&f.help, "help", "h", false, "show this help")

	addCommonFlags(fs, &f.common)
	addImageFlags(fs, &f.images)
	addRenderFlags(fs, &f.render)
	addHackMDFlags(fs, &f.hackmd)

	fs.Usage = func() { printUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	fs.Visit(func(fl *flag.Flag) { f.changed[fl.Name] = true })

	return f, fs.Args(), nil
}
