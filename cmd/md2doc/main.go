package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Sentinel errors for command dispatch.
var (
	ErrUsage          = errors.New("missing command")
	ErrUnknownCommand = errors.New("unknown command")
)

func main() {
	os.Exit(runMain(os.Args, DefaultEnv()))
}

// runMain runs the command in args and returns the process exit code.
func runMain(args []string, env *Environment) int {
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	if hasVerboseFlag(args) {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			fmt.Fprintf(env.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	if err := run(ctx, args, env); err != nil {
		fmt.Fprintln(env.Stderr, "md2doc: "+err.Error()+hintFor(err))
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// run dispatches args[1] to its command. A first argument that looks like a
// Markdown file or directory is treated as an implicit convert.
func run(ctx context.Context, args []string, env *Environment) error {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ErrUsage
	}

	cmd, rest := args[1], args[2:]
	switch cmd {
	case "convert":
		return runConvert(ctx, rest, env)
	case "roundtrip":
		return runRoundTrip(ctx, rest, env)
	case "validate":
		return runValidate(ctx, rest, env)
	case "schema":
		return runSchema(rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "md2doc %s\n", Version)
		return nil
	case "help", "-h", "--help":
		return runHelp(rest, env)
	}

	if looksLikeMarkdown(cmd) {
		return runConvert(ctx, args[1:], env)
	}
	printUsage(env.Stderr)
	return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
}

// looksLikeMarkdown reports whether arg names a Markdown file or stdin.
func looksLikeMarkdown(arg string) bool {
	if arg == stdinPath {
		return true
	}
	lower := strings.ToLower(arg)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".markdown")
}

// hasVerboseFlag scans raw args for -v or --verbose before flag parsing.
func hasVerboseFlag(args []string) bool {
	for _, a := range args {
		if a == "--" {
			return false
		}
		if a == "-v" || a == "--verbose" {
			return true
		}
	}
	return false
}
