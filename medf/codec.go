package medf

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/teranos/medf/errors"
)

// FilePermissions is the mode new document files are created with.
const FilePermissions = 0644

// Parse decodes a document strictly and validates its structure.
//
// Unknown keys are rejected rather than ignored: a key the model does not
// know could never be covered by the document hash. Numbers inside issuer
// and extensions are kept as json.Number so they re-encode exactly.
func Parse(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	dec.DisallowUnknownFields()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.WithHint(
			errors.WrapInvalidDocument(err, "failed to decode document"),
			"move producer-specific fields under \"extensions\"")
	}
	if dec.More() {
		return nil, errors.Wrap(errors.ErrInvalidDocument, "trailing data after document")
	}
	if doc.Blocks == nil {
		doc.Blocks = []Block{}
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks the structural invariants the integrity pipeline relies on.
func (d *Document) Validate() error {
	if d.Version == "" {
		return errors.Wrap(errors.ErrInvalidDocument, "medf_version is required")
	}
	if d.ID == "" {
		return errors.Wrap(errors.ErrInvalidDocument, "id is required")
	}

	seen := make(map[string]int, len(d.Blocks))
	for i, b := range d.Blocks {
		if b.ID == "" {
			return errors.Wrapf(errors.ErrInvalidDocument, "block %d has no block_id", i)
		}
		if prev, ok := seen[b.ID]; ok {
			return errors.WithHintf(
				errors.Wrapf(errors.ErrDuplicateBlockID, "%q at positions %d and %d", b.ID, prev, i),
				"block identifiers are the diff join key and must be unique within a document")
		}
		seen[b.ID] = i
	}
	return nil
}

// Encode renders the document with two-space indentation and without HTML
// escaping, followed by a newline.
func Encode(d *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return nil, errors.Wrapf(err, "failed to encode document %s", d.ID)
	}
	return buf.Bytes(), nil
}

// Load reads and parses a document file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return doc, nil
}

// Save encodes the document and replaces path with it.
//
// The new content is written to a temporary file in the same directory and
// renamed over the target, so a failed run never leaves a truncated document.
// Concurrent writers still race; the last rename wins.
func Save(path string, d *Document) error {
	data, err := Encode(d)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "failed to create temp file in %s", dir)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "failed to write %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %s", tmpName)
	}

	mode := os.FileMode(FilePermissions)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return errors.Wrapf(err, "failed to set permissions on %s", tmpName)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrapf(err, "failed to replace %s", path)
	}
	return nil
}
