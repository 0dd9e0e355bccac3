package main

import (
	"context"
	"errors"
	"os"

	md2doc "github.com/alnah/go-md2doc"
	"github.com/alnah/go-md2doc/internal/assets"
	"github.com/alnah/go-md2doc/internal/config"
	"github.com/alnah/go-md2doc/internal/hints"
)

// Exit codes for md2doc CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful run
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or input
	ExitIO      = 3 // File not found, permission denied
	ExitCheck   = 4 // roundtrip or validate found a problem
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadMarkdown) ||
		errors.Is(err, ErrReadDocument) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, ErrNoInput) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrUnknownCommand) ||
		errors.Is(err, ErrInvalidFlags) ||
		errors.Is(err, ErrInvalidTimeout) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrOutputIsInput) ||
		errors.Is(err, ErrUnexpectedArgs) ||
		errors.Is(err, ErrFormatRequired) ||
		errors.Is(err, ErrNoMarkdownFiles) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrConfigInvalid) ||
		errors.Is(err, md2doc.ErrEmptyMarkdown) ||
		errors.Is(err, md2doc.ErrUnknownFormat) ||
		errors.Is(err, md2doc.ErrUnknownStyle) ||
		errors.Is(err, assets.ErrThemeNotFound) ||
		errors.Is(err, assets.ErrInvalidThemeName) ||
		errors.Is(err, assets.ErrInvalidBasePath) ||
		errors.Is(err, assets.ErrPathTraversal) ||
		errors.Is(err, md2doc.ErrUnsupportedRead) {
		return ExitUsage
	}

	// Check failures (exit 4)
	if errors.Is(err, ErrRoundTripFailed) ||
		errors.Is(err, ErrInvalidDocument) ||
		errors.Is(err, md2doc.ErrRoundTrip) ||
		errors.Is(err, md2doc.ErrSchemaValidation) ||
		errors.Is(err, md2doc.ErrInvalidContent) {
		return ExitCheck
	}

	return ExitGeneral
}

// hintError attaches an actionable hint to an error.
type hintError struct {
	err  error
	hint string
}

func (e *hintError) Error() string { return e.err.Error() }
func (e *hintError) Unwrap() error { return e.err }

// withHint wraps err with hint. An empty hint returns err unchanged.
func withHint(err error, hint string) error {
	if err == nil || hint == "" {
		return err
	}
	return &hintError{err: err, hint: hint}
}

// hintFor returns the hint to print after err, if any.
func hintFor(err error) string {
	var he *hintError
	if errors.As(err, &he) {
		return he.hint
	}

	switch {
	case errors.Is(err, md2doc.ErrUnknownStyle):
		return hints.ForStyleNotFound(md2doc.HighlightStyles())
	case errors.Is(err, md2doc.ErrSchemaValidation), errors.Is(err, md2doc.ErrInvalidContent):
		return hints.ForSchema()
	case errors.Is(err, md2doc.ErrRoundTrip):
		return hints.ForRoundTrip()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	}
	return ""
}
