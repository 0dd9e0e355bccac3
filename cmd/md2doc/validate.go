package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	flag "github.com/spf13/pflag"

	md2doc "github.com/alnah/go-md2doc"
	"github.com/alnah/go-md2doc/internal/fileutil"
)

// Sentinel errors for the validate and schema commands.
var (
	ErrInvalidDocument = errors.New("invalid document")
	ErrFormatRequired  = errors.New("--format is required when reading stdin")
	ErrReadDocument    = errors.New("failed to read document")
)

// runValidate checks serialized documents against the document schema.
func runValidate(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseValidateFlags(args)
	if errors.Is(err, flag.ErrHelp) {
		printValidateUsage(env.Stdout)
		return nil
	}
	if err != nil {
		return err
	}
	if len(positional) == 0 {
		return ErrNoInput
	}

	var forced md2doc.Format
	if flags.format != "" {
		if forced, err = md2doc.ParseFormat(flags.format); err != nil {
			return err
		}
	}

	s, err := loadSettings(flags.common, nil, env)
	if err != nil {
		return err
	}
	conv, err := md2doc.NewConverter(s.converterOptions()...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConverterCreation, err)
	}

	failed := 0
	var first error
	for _, path := range positional {
		if err := validateFile(ctx, conv, path, forced, env.Stdin); err != nil {
			failed++
			if first == nil {
				first = err
			}
			fmt.Fprintf(env.Stderr, "INVALID %s: %v\n", path, err)
			continue
		}
		if !flags.common.quiet {
			fmt.Fprintf(env.Stdout, "VALID %s\n", path)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d files: %w", ErrInvalidDocument, failed, len(positional), first)
	}
	return nil
}

// validateFile decodes one file. The format comes from forced, else from
// the file extension.
func validateFile(ctx context.Context, conv *md2doc.Converter, path string, forced md2doc.Format, stdin io.Reader) error {
	format := forced
	if format == "" {
		if path == stdinPath {
			return ErrFormatRequired
		}
		var err error
		if format, err = md2doc.FormatForPath(path); err != nil {
			return err
		}
	}

	data, err := readInput(path, stdin)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReadDocument, err)
	}
	_, err = conv.Decode(ctx, data, format)
	return err
}

// runSchema prints the document JSON Schema, or writes it to --output.
func runSchema(args []string, env *Environment) error {
	flags, positional, err := parseSchemaFlags(args)
	if errors.Is(err, flag.ErrHelp) {
		printSchemaUsage(env.Stdout)
		return nil
	}
	if err != nil {
		return err
	}
	if len(positional) > 0 {
		return fmt.Errorf("%w: %v", ErrUnexpectedArgs, positional)
	}

	schema := md2doc.DocumentSchema()
	if flags.output == "" {
		_, err := env.Stdout.Write(schema)
		return err
	}
	if err := fileutil.WriteAtomic(filepath.Clean(flags.output), schema, filePermissions); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	return nil
}
