package main

import (
	"fmt"
	"io"
)

// printUsage prints the command usage.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2hatena [flags] <input>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert a HackMD note to Hatena Blog HTML, moving its images to Fotolife.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    Markdown file, HackMD note URL, or - for stdin (omit when using --note)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>        Output HTML file (default: stdout)")
	fmt.Fprintln(w, "      --note <id|url>        Convert a HackMD note fetched through the API")
	fmt.Fprintln(w, "  -c, --config <name>        Config file name or path")
	fmt.Fprintln(w, "      --env-file <path>      Credentials file (default: .env)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Images:")
	fmt.Fprintln(w, "  -n, --no-resolve           Keep original image sources")
	fmt.Fprintln(w, "  -i, --image-cache <path>   Resolution cache file")
	fmt.Fprintln(w, "  -d, --download-dir <path>  Staging directory for fetched images")
	fmt.Fprintln(w, "  -t, --timeout <dur>        Upload timeout (e.g., 10s, 1m)")
	fmt.Fprintln(w, "      --browser-login        Log in to HackMD through a browser window")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rendering:")
	fmt.Fprintln(w, "      --heading-min <n>      Level of a top-level heading (1-6)")
	fmt.Fprintln(w, "      --codeblock <name>     Code blocks: pure, highlightjs, chroma")
	fmt.Fprintln(w, "      --chroma-style <name>  Style for the chroma renderer")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output control:")
	fmt.Fprintln(w, "  -q, --quiet                Only show errors")
	fmt.Fprintln(w, "  -v, --verbose              Show per-image progress records")
	fmt.Fprintln(w, "      --no-color             Disable colored status output")
	fmt.Fprintln(w, "      --print-config         Print the effective configuration and exit")
	fmt.Fprintln(w, "      --version              Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  HACKMD_APITOKEN            HackMD API token")
	fmt.Fprintln(w, "  HACKMD_COOKIE              HackMD connect.sid session cookie")
	fmt.Fprintln(w, "  HATENA_USERNAME            Hatena id")
	fmt.Fprintln(w, "  HATENA_API_KEY             Hatena Blog API key")
	fmt.Fprintln(w, "  MD2HATENA_*                Config overrides (see --print-config)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  md2hatena note.md -o post.html")
	fmt.Fprintln(w, "  md2hatena --note https://hackmd.io/@me/trip -i images.txt --heading-min 3")
	fmt.Fprintln(w, "  md2hatena -n --codeblock chroma note.md")
}
