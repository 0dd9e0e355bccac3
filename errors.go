package md2doc

import (
	"errors"

	"github.com/alnah/go-md2doc/internal/docmodel"
	"github.com/alnah/go-md2doc/internal/pipeline"
)

// Sentinel errors for library operations.
var (
	ErrEmptyMarkdown   = errors.New("markdown content cannot be empty")
	ErrNilDocument     = errors.New("document cannot be nil")
	ErrUnknownFormat   = errors.New("unknown document format")
	ErrUnsupportedRead = errors.New("format cannot be decoded")
	ErrRegistry        = errors.New("capsule registry setup failed")
	ErrRoundTrip       = errors.New("round trip mismatch")
)

// Errors raised by the document model and the preview renderer, re-exported
// for errors.Is checks.
var (
	ErrInvalidContent   = docmodel.ErrInvalidContent
	ErrSchemaValidation = docmodel.ErrSchemaValidation
	ErrUnknownStyle     = pipeline.ErrUnknownStyle
)
