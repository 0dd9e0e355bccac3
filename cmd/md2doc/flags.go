package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	flag "github.com/spf13/pflag"
)

// ErrInvalidFlags wraps flag parsing failures.
var ErrInvalidFlags = errors.New("invalid flags")

// ErrInvalidTimeout is returned for a --timeout that is not a positive duration.
var ErrInvalidTimeout = errors.New("invalid timeout")

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
	timeout string
}

// renderFlags holds the converter options a command can override.
type renderFlags struct {
	style     string
	theme     string
	themeDir  string
	noTables  bool
	noRawHTML bool
	noMeta    bool
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common  commonFlags
	render  renderFlags
	output  string
	format  string
	workers int
	summary bool
}

// roundTripFlags holds flags for the roundtrip command.
type roundTripFlags struct {
	common  commonFlags
	render  renderFlags
	summary bool
}

// validateFlags holds flags for the validate command.
type validateFlags struct {
	common commonFlags
	format string
}

// schemaFlags holds flags for the schema command.
type schemaFlags struct {
	output string
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs and timing")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-document timeout (e.g., 30s, 2m)")
}

// addRenderFlags adds converter option flags to a FlagSet.
func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.StringVar(&f.style, "style", "", "code highlight style for HTML output")
	fs.StringVar(&f.theme, "theme", "", "page stylesheet for HTML output, none to disable")
	fs.StringVar(&f.themeDir, "theme-dir", "", "directory of custom <name>.css themes")
	fs.BoolVar(&f.noTables, "no-tables", false, "keep HTML tables as raw blocks")
	fs.BoolVar(&f.noRawHTML, "no-raw-html", false, "omit raw HTML from HTML output")
	fs.BoolVar(&f.noMeta, "no-front-matter", false, "parse a leading front matter block as Markdown")
}

// newFlagSet returns a FlagSet that reports errors instead of printing them.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	return fs
}

// parseFlagSet parses args, passing flag.ErrHelp through unwrapped.
func parseFlagSet(fs *flag.FlagSet, args []string) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidFlags, err)
	}
	return fs.Args(), nil
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string) (*convertFlags, []string, error) {
	fs := newFlagSet("convert")
	f := &convertFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.StringVarP(&f.format, "format", "f", "", "output format: json, yaml, markdown, html")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.BoolVarP(&f.summary, "summary", "s", false, "print a capsule summary table")
	addCommonFlags(fs, &f.common)
	addRenderFlags(fs, &f.render)

	positional, err := parseFlagSet(fs, args)
	if err != nil {
		return nil, nil, err
	}
	return f, positional, nil
}

// parseRoundTripFlags parses roundtrip command flags.
func parseRoundTripFlags(args []string) (*roundTripFlags, []string, error) {
	fs := newFlagSet("roundtrip")
	f := &roundTripFlags{}

	fs.BoolVarP(&f.summary, "summary", "s", false, "print a report table")
	addCommonFlags(fs, &f.common)
	addRenderFlags(fs, &f.render)

	positional, err := parseFlagSet(fs, args)
	if err != nil {
		return nil, nil, err
	}
	return f, positional, nil
}

// parseValidateFlags parses validate command flags.
func parseValidateFlags(args []string) (*validateFlags, []string, error) {
	fs := newFlagSet("validate")
	f := &validateFlags{}

	fs.StringVarP(&f.format, "format", "f", "", "input format: json, yaml, markdown (default: from extension)")
	addCommonFlags(fs, &f.common)

	positional, err := parseFlagSet(fs, args)
	if err != nil {
		return nil, nil, err
	}
	return f, positional, nil
}

// parseSchemaFlags parses schema command flags.
func parseSchemaFlags(args []string) (*schemaFlags, []string, error) {
	fs := newFlagSet("schema")
	f := &schemaFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "write the schema to a file")

	positional, err := parseFlagSet(fs, args)
	if err != nil {
		return nil, nil, err
	}
	return f, positional, nil
}

// parseTimeout parses a --timeout value. Empty means the library default.
func parseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeout, s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %q must be positive", ErrInvalidTimeout, s)
	}
	return d, nil
}
