package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2doc <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert    Convert markdown files to structured documents")
	fmt.Fprintln(w, "  roundtrip  Check that markdown files survive conversion")
	fmt.Fprintln(w, "  validate   Check JSON or YAML documents against the schema")
	fmt.Fprintln(w, "  schema     Print the document JSON Schema")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'md2doc help <command>' for details on a specific command.")
}

// printCommonFlags prints the flags shared by every command that converts.
func printCommonFlags(w io.Writer) {
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -t, --timeout <d>         Per-document timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs and timing")
}

// printRenderFlags prints the converter option flags.
func printRenderFlags(w io.Writer) {
	fmt.Fprintln(w, "      --style <name>        Code highlight style for HTML output")
	fmt.Fprintln(w, "      --theme <name>        Page stylesheet for HTML output (default, compact, none)")
	fmt.Fprintln(w, "      --theme-dir <dir>     Directory of custom <name>.css themes")
	fmt.Fprintln(w, "      --no-tables           Keep HTML tables as raw blocks")
	fmt.Fprintln(w, "      --no-front-matter     Parse a leading front matter block as Markdown")
	fmt.Fprintln(w, "      --no-raw-html         Omit raw HTML from HTML output")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2doc convert <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert markdown files to JSON, YAML, Markdown or an HTML preview.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    Markdown file, directory, or - for stdin")
	fmt.Fprintln(w, "           (optional if config has input.defaultDir)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file or directory")
	fmt.Fprintln(w, "  -f, --format <name>       json, yaml (yml), markdown (md), html")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w, "  -s, --summary             Print a capsule summary table")
	printCommonFlags(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rendering:")
	printRenderFlags(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  md2doc convert notes.md")
	fmt.Fprintln(w, "  md2doc convert docs/ -o out/ -f yaml")
	fmt.Fprintln(w, "  cat notes.md | md2doc convert - -f html > notes.html")
}

// printRoundTripUsage prints usage for the roundtrip command.
func printRoundTripUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2doc roundtrip <file>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check that capsule encoding restores each file byte for byte, and that")
	fmt.Fprintln(w, "its document is unchanged after being written back to markdown.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -s, --summary             Print a report table")
	printCommonFlags(w)
	printRenderFlags(w)
}

// printValidateUsage prints usage for the validate command.
func printValidateUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2doc validate <file>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check serialized documents against the document schema.")
	fmt.Fprintln(w, "The format is taken from the file extension unless --format is set.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -f, --format <name>       json, yaml, markdown")
	printCommonFlags(w)
}

// printSchemaUsage prints usage for the schema command.
func printSchemaUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2doc schema [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print the JSON Schema of serialized documents.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -o, --output <path>       Write the schema to a file")
}

// runHelp prints help for the named command, or the main usage.
func runHelp(args []string, env *Environment) error {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return nil
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "roundtrip":
		printRoundTripUsage(env.Stdout)
	case "validate":
		printValidateUsage(env.Stdout)
	case "schema":
		printSchemaUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: md2doc version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: md2doc help [command]")
	default:
		printUsage(env.Stderr)
		return fmt.Errorf("%w: %q", ErrUnknownCommand, args[0])
	}
	return nil
}
