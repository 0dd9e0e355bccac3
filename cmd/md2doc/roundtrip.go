package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	md2doc "github.com/alnah/go-md2doc"
	"github.com/alnah/go-md2doc/internal/logging"
)

// ErrRoundTripFailed reports that at least one file did not round trip.
var ErrRoundTripFailed = errors.New("round trip check failed")

// roundTripResult pairs a file with its report.
type roundTripResult struct {
	Path   string
	Report *md2doc.RoundTripReport
	Err    error
}

// runRoundTrip checks that each Markdown file survives capsule encoding and
// a document -> Markdown -> document cycle.
func runRoundTrip(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseRoundTripFlags(args)
	if errors.Is(err, flag.ErrHelp) {
		printRoundTripUsage(env.Stdout)
		return nil
	}
	if err != nil {
		return err
	}
	if len(positional) == 0 {
		return ErrNoInput
	}

	s, err := loadSettings(flags.common, &flags.render, env)
	if err != nil {
		return err
	}
	conv, err := md2doc.NewConverter(s.converterOptions()...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConverterCreation, err)
	}

	results := make([]roundTripResult, 0, len(positional))
	for _, path := range positional {
		results = append(results, verifyFile(ctx, conv, path, env.Stdin))
	}

	failed := printRoundTripResults(results, flags.common.quiet, flags.common.verbose, env)
	if flags.summary && !flags.common.quiet {
		fmt.Fprintln(env.Stdout, renderRoundTripSummary(results, logging.IsTerminal(env.Stdout)))
	}
	if failed > 0 {
		var first error
		for _, r := range results {
			if r.Err != nil {
				first = r.Err
				break
			}
		}
		return fmt.Errorf("%w: %d of %d files: %w", ErrRoundTripFailed, failed, len(results), first)
	}
	return nil
}

// verifyFile runs the round trip check on one file.
func verifyFile(ctx context.Context, conv *md2doc.Converter, path string, stdin io.Reader) roundTripResult {
	r := roundTripResult{Path: path}
	content, err := readInput(path, stdin)
	if err != nil {
		r.Err = fmt.Errorf("%w: %w", ErrReadMarkdown, err)
		return r
	}
	r.Report, r.Err = conv.VerifyRoundTrip(ctx, string(content))
	if r.Err == nil {
		r.Err = r.Report.Err()
	}
	return r
}

// printRoundTripResults prints one line per file and returns the failure count.
func printRoundTripResults(results []roundTripResult, quiet, verbose bool, env *Environment) int {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.Path, r.Err)
			continue
		}
		if quiet {
			continue
		}
		if verbose {
			fmt.Fprintf(env.Stdout, "OK %s (%d capsules: %d structured, %d fallback, %d misses)\n",
				r.Path, r.Report.Capsules, r.Report.Stats.Structured, r.Report.Stats.Fallback, r.Report.Stats.Misses)
		} else {
			fmt.Fprintf(env.Stdout, "OK %s\n", r.Path)
		}
	}
	return failed
}

// readInput reads path, or stdin when path is "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == stdinPath {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path) // #nosec G304 -- user-provided path
}
