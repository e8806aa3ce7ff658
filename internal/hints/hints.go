// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-mdexport/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForBrowserConnect returns hints for browser launch errors.
// The sandbox is disabled when CI=true or ROD_BROWSER_BIN is set, so
// containers need one of them.
func ForBrowserConnect() string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""
	browserBin := os.Getenv("ROD_BROWSER_BIN")

	if (inCI || IsInContainer()) && os.Getenv("CI") != "true" && browserBin == "" {
		hints = append(hints, "set CI=true to disable the Chrome sandbox in Docker/CI")
	}
	if browserBin == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use an installed Chrome")
	}
	hints = append(hints, "run 'mdexport doctor' to check the browser setup")

	return formatHints(hints)
}

// ForTimeout returns a hint about increasing timeout for slow captures.
func ForTimeout() string {
	return format("for long documents, use --timeout (e.g. --timeout 2m)")
}

// ForConfigNotFound returns hints for config file not found errors.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/mdexport") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForStyleNotFound lists the built-in styles.
func ForStyleNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// ForAddressInUse suggests another listen address.
func ForAddressInUse(addr string) string {
	return format("another process listens on " + addr + "; use --addr 127.0.0.1:0 for a free port")
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
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
