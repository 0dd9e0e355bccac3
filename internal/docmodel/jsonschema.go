package docmodel

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrSchemaValidation indicates a serialized document that does not match
// the document JSON Schema.
var ErrSchemaValidation = errors.New("document schema validation failed")

//go:embed schema/document.schema.json
var documentSchema []byte

const documentSchemaURL = "document.schema.json"

var (
	compiledOnce sync.Once
	compiled     *jsonschema.Schema
	compileErr   error
)

// Issue is a single JSON Schema violation.
type Issue struct {
	Location string
	Message  string
}

// SchemaError lists the violations found in a serialized document.
type SchemaError struct {
	Issues []Issue
}

func (e *SchemaError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		location := issue.Location
		if location == "" {
			location = "#"
		} else if !strings.HasPrefix(location, "#") {
			location = "#" + location
		}
		parts = append(parts, fmt.Sprintf("%s: %s", location, issue.Message))
	}
	return fmt.Sprintf("%s: %s", ErrSchemaValidation, strings.Join(parts, "; "))
}

func (e *SchemaError) Unwrap() error {
	return ErrSchemaValidation
}

// DocumentSchema returns the JSON Schema describing serialized documents.
func DocumentSchema() []byte {
	return bytes.Clone(documentSchema)
}

func compileDocumentSchema() (*jsonschema.Schema, error) {
	compiledOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(documentSchemaURL, bytes.NewReader(documentSchema)); err != nil {
			compileErr = err
			return
		}
		compiled, compileErr = compiler.Compile(documentSchemaURL)
	})
	return compiled, compileErr
}

// ValidateJSON checks data against the document JSON Schema. It checks the
// serialized shape only; Schema.Validate checks which children a kind allows.
func ValidateJSON(data []byte) error {
	schema, err := compileDocumentSchema()
	if err != nil {
		return fmt.Errorf("compiling document schema: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}

	if err := schema.Validate(v); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return &SchemaError{Issues: collectIssues(verr)}
		}
		return fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}
	return nil
}

// DecodeJSON validates data and decodes it into a document tree checked
// against s.
func DecodeJSON(data []byte, s *Schema) (*Node, error) {
	if err := ValidateJSON(data); err != nil {
		return nil, err
	}
	var n Node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	if n.Type != KindDoc {
		return nil, fmt.Errorf("%w: root is %q, not doc", ErrInvalidContent, n.Type)
	}
	if s == nil {
		s = DefaultSchema()
	}
	if err := s.Validate(&n); err != nil {
		return nil, err
	}
	return &n, nil
}

func collectIssues(err *jsonschema.ValidationError) []Issue {
	var issues []Issue
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if len(node.Causes) == 0 {
			issues = append(issues, Issue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}
