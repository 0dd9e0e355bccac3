// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"path/filepath"
	"strings"
)

// ForTimeout returns a hint about increasing timeout for large inputs.
func ForTimeout() string {
	return format("for large documents, use --timeout flag")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config and creating a config under the user config directory.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(filepath.ToSlash(p), "/go-md2doc/") {
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

// ForStyleNotFound lists the available highlight styles.
func ForStyleNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// ForThemeNotFound lists the built-in themes and points at the theme
// directory when one is configured.
func ForThemeNotFound(available []string, themeDir string) string {
	var hs []string
	if len(available) > 0 {
		hs = append(hs, "built-in themes: "+strings.Join(available, ", ")+", none")
	}
	if themeDir != "" {
		hs = append(hs, "custom themes are read from "+filepath.Join(themeDir, "<name>.css"))
	}
	return formatHints(hs)
}


// ForSchema points at the schema command.
func ForSchema() string {
	return format("run 'md2doc schema' to print the document JSON Schema")
}

// ForRoundTrip suggests the diagnostics that explain a round trip failure.
func ForRoundTrip() string {
	return formatHints([]string{
		"rerun with --verbose to log capsule misses",
		"compare with 'md2doc convert -f markdown'",
	})
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
