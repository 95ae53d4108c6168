// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-md2hatena/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForBrowserLogin returns hints for browser launch errors during HackMD login.
// The login window must be visible, so containers are pointed at the cookie
// variable instead.
func ForBrowserLogin() string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	if inCI || IsInContainer() {
		hints = append(hints, "interactive login needs a desktop; set HACKMD_COOKIE instead")
	}

	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}

	return formatHints(hints)
}

// ForHackMDAuth returns hints for rejected HackMD requests.
func ForHackMDAuth() string {
	var missing []string
	if os.Getenv("HACKMD_APITOKEN") == "" {
		missing = append(missing, "HACKMD_APITOKEN")
	}
	if os.Getenv("HACKMD_COOKIE") == "" {
		missing = append(missing, "HACKMD_COOKIE")
	}
	if len(missing) == 0 {
		return format("HackMD rejected the credentials; refresh HACKMD_COOKIE or use --browser-login")
	}
	return format("set " + strings.Join(missing, " and ") + ", or use --browser-login")
}

// ForHatenaAuth returns hints for rejected Fotolife requests.
func ForHatenaAuth() string {
	return format("set HATENA_USERNAME and HATENA_API_KEY (the API key is under Hatena Blog settings > Advanced)")
}

// ForMissingEnv returns a hint naming unset environment variables.
func ForMissingEnv(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return format("set " + strings.Join(names, ", ") + " in the environment or a .env file")
}

// ForTimeout returns a hint about increasing timeout for slow uploads.
func ForTimeout() string {
	return format("for large images, use --timeout flag")
}

// ForMalformedCache returns hints for an unreadable image cache.
func ForMalformedCache(path string) string {
	hint := `cache lines must read "<original> -> <destination>"`
	if path != "" {
		hint += "; fix or delete " + path
	}
	return format(hint)
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-md2hatena/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/go-md2hatena") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForCodeBlockRenderer returns hints for an unknown code block renderer.
func ForCodeBlockRenderer(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
