package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	flag "github.com/spf13/pflag"

	md2doc "github.com/alnah/go-md2doc"
	"github.com/alnah/go-md2doc/internal/config"
	"github.com/alnah/go-md2doc/internal/fileutil"
	"github.com/alnah/go-md2doc/internal/logging"
)

// stdinPath is the input argument that reads Markdown from standard input.
const stdinPath = "-"

// Sentinel errors for the convert command.
var (
	ErrNoInput           = errors.New("no input specified")
	ErrNoMarkdownFiles   = errors.New("no markdown files found")
	ErrConversionFailed  = errors.New("conversion failed")
	ErrUnexpectedArgs    = errors.New("unexpected arguments")
	ErrReadMarkdown      = errors.New("failed to read markdown file")
	ErrWriteOutput       = errors.New("failed to write output file")
	ErrConverterCreation = errors.New("failed to create converter")
)

// conversionParams groups parameters shared across batch/file conversion.
type conversionParams struct {
	format md2doc.Format
}

// runConvert orchestrates the convert command.
func runConvert(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseConvertFlags(args)
	if errors.Is(err, flag.ErrHelp) {
		printConvertUsage(env.Stdout)
		return nil
	}
	if err != nil {
		return err
	}

	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	s, err := loadSettings(flags.common, &flags.render, env)
	if err != nil {
		return err
	}
	if err := mergeConvertFlags(flags, s.cfg); err != nil {
		return err
	}
	format := md2doc.Format(s.cfg.Output.Format)

	inputPath, err := resolveInputPath(positional, s.cfg)
	if err != nil {
		return err
	}
	outputDir := resolveOutputDir(flags.output, s.cfg)

	pool, err := md2doc.NewConverterPool(md2doc.ResolvePoolSize(s.cfg.Convert.Workers), s.converterOptions()...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConverterCreation, err)
	}
	adapter := &poolAdapter{pool: pool}
	params := &conversionParams{format: format}

	if inputPath == stdinPath {
		return convertStream(ctx, adapter, env.Stdin, env.Stdout, outputDir, params)
	}

	files, err := discoverFiles(inputPath, outputDir, format)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w in %s", ErrNoMarkdownFiles, inputPath)
	}

	s.logger.Debug("converting", "files", len(files), "workers", adapter.Size(), "format", format)
	results := convertBatch(ctx, adapter, files, params)

	failed := printResultsWithWriter(results, flags.common.quiet, flags.common.verbose, env)
	if flags.summary && !flags.common.quiet {
		fmt.Fprintln(env.Stdout, renderConversionSummary(results, logging.IsTerminal(env.Stdout)))
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d files: %w", ErrConversionFailed, failed, len(results), firstError(results))
	}
	return nil
}

// mergeConvertFlags merges convert-only flags into cfg. CLI values override config values.
func mergeConvertFlags(flags *convertFlags, cfg *config.Config) error {
	if flags.format != "" {
		format, err := md2doc.ParseFormat(flags.format)
		if err != nil {
			return err
		}
		cfg.Output.Format = string(format)
	}
	if flags.workers > 0 {
		cfg.Convert.Workers = flags.workers
	}
	return nil
}

// resolveInputPath picks the positional input or the configured default.
func resolveInputPath(args []string, cfg *config.Config) (string, error) {
	switch {
	case len(args) > 1:
		return "", fmt.Errorf("%w: %v", ErrUnexpectedArgs, args[1:])
	case len(args) == 1:
		return args[0], nil
	case cfg.Input.DefaultDir != "":
		return cfg.Input.DefaultDir, nil
	}
	return "", ErrNoInput
}

// resolveOutputDir picks the --output flag or the configured default.
func resolveOutputDir(flagOutput string, cfg *config.Config) string {
	if flagOutput != "" {
		return flagOutput
	}
	return cfg.Output.DefaultDir
}

// convertStream converts Markdown read from r. The result goes to w, or to
// output when it is set.
func convertStream(ctx context.Context, pool Pool, r io.Reader, w io.Writer, output string, params *conversionParams) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReadMarkdown, err)
	}

	svc := pool.Acquire()
	if svc == nil {
		return ErrConverterCreation
	}
	defer pool.Release(svc)

	out, _, err := render(ctx, svc, string(content), "", params.format)
	if err != nil {
		return err
	}

	if output == "" {
		_, err = w.Write(out)
		return err
	}
	if err := fileutil.WriteAtomic(filepath.Clean(output), out, filePermissions); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	return nil
}
