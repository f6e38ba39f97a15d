// Package schema validates the structure of raw MeDF documents against a
// JSON Schema. It knows nothing about hashes; structural validity and
// integrity are checked separately.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/teranos/medf/errors"
)

//go:embed medf.schema.json
var embedded []byte

const embeddedURL = "memory://schemas/medf.schema.json"

// Result is the outcome of validating one document.
type Result struct {
	Valid bool `json:"valid"`
	// Path is the JSON pointer of the first violation ("/" for the root).
	Path    string `json:"path,omitempty"`
	Message string `json:"message,omitempty"`
}

// Validator checks documents against one compiled schema.
type Validator struct {
	source string
	schema *jsonschema.Schema
}

var (
	defaultOnce      sync.Once
	defaultValidator *Validator
	defaultErr       error
)

// NewValidator returns a validator for the built-in MeDF schema. The schema
// is compiled once per process.
func NewValidator() (*Validator, error) {
	defaultOnce.Do(func() {
		defaultValidator, defaultErr = compile(embeddedURL, embedded)
	})
	return defaultValidator, defaultErr
}

// NewValidatorFromFile compiles the schema at path.
func NewValidatorFromFile(path string) (*Validator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read schema %s", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve schema path %s", path)
	}
	return compile("file://"+filepath.ToSlash(abs), data)
}

func compile(url string, definition []byte) (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(url, bytes.NewReader(definition)); err != nil {
		return nil, errors.Wrapf(err, "register schema %s", url)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, errors.Wrapf(err, "compile schema %s", url)
	}
	return &Validator{source: url, schema: compiled}, nil
}

// Source identifies the schema the validator was compiled from.
func (v *Validator) Source() string {
	return v.source
}

// Validate checks raw document bytes. Schema violations are reported in the
// Result; only undecodable input returns an error.
func (v *Validator) Validate(raw []byte) (*Result, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var instance any
	if err := dec.Decode(&instance); err != nil {
		return nil, errors.WrapInvalidDocument(err, "invalid JSON")
	}
	if dec.More() {
		return nil, errors.Wrap(errors.ErrInvalidDocument, "trailing data after document")
	}

	err := v.schema.Validate(instance)
	if err == nil {
		return &Result{Valid: true}, nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return nil, errors.Wrap(err, "schema validation")
	}

	leaf := firstViolation(verr)
	path := leaf.InstanceLocation
	if path == "" {
		path = "/"
	}
	return &Result{Valid: false, Path: path, Message: leaf.Message}, nil
}

// firstViolation follows the first cause down to a leaf, which carries the
// concrete keyword failure rather than the "doesn't validate" wrapper.
func firstViolation(e *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(e.Causes) > 0 {
		e = e.Causes[0]
	}
	return e
}
