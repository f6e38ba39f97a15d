package medf

import (
	"bytes"
	"encoding/json"

	"github.com/teranos/medf/errors"
)

// Optional document keys. A key written with an empty value ("", [], {},
// null) is still part of the document and is kept through decode, hashing
// and encode.
const (
	KeyDocumentType = "document_type"
	KeyIssuer       = "issuer"
	KeyLanguage     = "language"
	KeyReferences   = "references"
	KeyExtensions   = "extensions"
	KeyIndex        = "index"

	KeyReferenceType  = "type"
	KeyReferenceTitle = "title"
)

var documentOptionalKeys = []string{
	KeyDocumentType, KeyIssuer, KeyLanguage, KeyReferences, KeyExtensions, KeyIndex,
}

var referenceOptionalKeys = []string{KeyReferenceType, KeyReferenceTitle}

// Has reports whether the optional key is part of the document, either
// because it holds a value or because it was read with an empty one.
func (d *Document) Has(key string) bool {
	if d.present[key] {
		return true
	}
	switch key {
	case KeyDocumentType:
		return d.DocumentType != ""
	case KeyIssuer:
		return d.Issuer != nil
	case KeyLanguage:
		return d.Language != ""
	case KeyReferences:
		return d.References != nil
	case KeyExtensions:
		return d.Extensions != nil
	case KeyIndex:
		return d.Index != nil
	}
	return false
}

// Has reports whether the optional key is part of the reference.
func (r *Reference) Has(key string) bool {
	if r.present[key] {
		return true
	}
	switch key {
	case KeyReferenceType:
		return r.Type != ""
	case KeyReferenceTitle:
		return r.Title != ""
	}
	return false
}

// UnmarshalJSON decodes strictly and records optional keys that were
// written with an empty value.
func (d *Document) UnmarshalJSON(data []byte) error {
	type plain Document
	var p plain
	if err := decodeStrict(data, &p); err != nil {
		return err
	}
	keys, err := objectKeys(data)
	if err != nil {
		return err
	}

	*d = Document(p)
	d.present = emptyKeys(keys, documentOptionalKeys, d.Has)
	return nil
}

// MarshalJSON writes fields in model order. Optional fields are written
// when Has reports them, empty or not.
func (d Document) MarshalJSON() ([]byte, error) {
	w := objectWriter{}
	w.field("medf_version", d.Version)
	if d.Has(KeyDocumentType) {
		w.field(KeyDocumentType, d.DocumentType)
	}
	w.field("id", d.ID)
	w.field("snapshot", d.Snapshot)
	if d.Has(KeyIssuer) {
		w.field(KeyIssuer, d.Issuer)
	}
	if d.Has(KeyLanguage) {
		w.field(KeyLanguage, d.Language)
	}
	w.field("blocks", d.Blocks)
	if d.Has(KeyReferences) {
		w.field(KeyReferences, d.References)
	}
	if d.Has(KeyExtensions) {
		w.field(KeyExtensions, d.Extensions)
	}
	if d.Has(KeyIndex) {
		w.field(KeyIndex, d.Index)
	}
	if d.DocHash != nil {
		w.field("doc_hash", d.DocHash)
	}
	if d.Signature != nil {
		w.field("signature", d.Signature)
	}
	return w.bytes()
}

// UnmarshalJSON decodes strictly and records empty type or title keys.
func (r *Reference) UnmarshalJSON(data []byte) error {
	type plain Reference
	var p plain
	if err := decodeStrict(data, &p); err != nil {
		return err
	}
	keys, err := objectKeys(data)
	if err != nil {
		return err
	}

	*r = Reference(p)
	r.present = emptyKeys(keys, referenceOptionalKeys, r.Has)
	return nil
}

func (r Reference) MarshalJSON() ([]byte, error) {
	w := objectWriter{}
	w.field("uri", r.URI)
	if r.Has(KeyReferenceType) {
		w.field(KeyReferenceType, r.Type)
	}
	if r.Has(KeyReferenceTitle) {
		w.field(KeyReferenceTitle, r.Title)
	}
	return w.bytes()
}

// emptyKeys returns the optional keys present in the input that has does
// not already report, or nil when there are none.
func emptyKeys(keys map[string]json.RawMessage, optional []string, has func(string) bool) map[string]bool {
	var present map[string]bool
	for _, key := range optional {
		if _, ok := keys[key]; !ok || has(key) {
			continue
		}
		if present == nil {
			present = make(map[string]bool)
		}
		present[key] = true
	}
	return present
}

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func objectKeys(data []byte) (map[string]json.RawMessage, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, errors.Wrap(err, "expected a JSON object")
	}
	return keys, nil
}

// objectWriter builds a JSON object with a fixed key order. Values are
// encoded without HTML escaping; the first error sticks.
type objectWriter struct {
	buf bytes.Buffer
	err error
}

func (w *objectWriter) field(key string, value any) {
	if w.err != nil {
		return
	}
	if w.buf.Len() == 0 {
		w.buf.WriteByte('{')
	} else {
		w.buf.WriteByte(',')
	}

	var enc bytes.Buffer
	e := json.NewEncoder(&enc)
	e.SetEscapeHTML(false)
	if err := e.Encode(key); err != nil {
		w.err = err
		return
	}
	w.buf.Write(bytes.TrimSuffix(enc.Bytes(), []byte("\n")))
	w.buf.WriteByte(':')

	enc.Reset()
	if err := e.Encode(value); err != nil {
		w.err = errors.Wrapf(err, "failed to encode %s", key)
		return
	}
	w.buf.Write(bytes.TrimSuffix(enc.Bytes(), []byte("\n")))
}

func (w *objectWriter) bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	if w.buf.Len() == 0 {
		return []byte("{}"), nil
	}
	w.buf.WriteByte('}')
	return w.buf.Bytes(), nil
}
