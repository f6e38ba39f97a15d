package medf

import (
	"bytes"
	"encoding/json"

	"github.com/teranos/medf/digest"
	"github.com/teranos/medf/errors"
)

// Hash is an algorithm-tagged hex digest.
//
// On disk a hash is either an {"algorithm","value"} object or, for
// block_hash, a bare hex string whose algorithm is implicitly sha-256.
// A hash is written back in the form it was read so that re-encoding a
// document never changes the bytes the document hash covers.
type Hash struct {
	Algorithm string `json:"algorithm"`
	Value     string `json:"value"`

	compact bool
}

// NewHash returns an object-form hash.
func NewHash(algorithm, value string) *Hash {
	return &Hash{Algorithm: algorithm, Value: value}
}

// NewCompactHash returns a bare-string sha-256 hash.
func NewCompactHash(value string) *Hash {
	return &Hash{Algorithm: digest.Algorithm, Value: value, compact: true}
}

// Compact reports whether the hash is persisted as a bare string.
func (h *Hash) Compact() bool {
	return h.compact
}

// Equal compares algorithm and value; the persisted form is ignored.
func (h *Hash) Equal(other *Hash) bool {
	if h == nil || other == nil {
		return h == other
	}
	return h.Algorithm == other.Algorithm && h.Value == other.Value
}

// CanonicalValue is the value this hash contributes to an enclosing hash input.
func (h *Hash) CanonicalValue() any {
	if h.compact {
		return h.Value
	}
	return map[string]any{
		"algorithm": h.Algorithm,
		"value":     h.Value,
	}
}

// MarshalJSON writes the hash in the form it was read or created in.
func (h Hash) MarshalJSON() ([]byte, error) {
	if h.compact {
		return json.Marshal(h.Value)
	}
	type object Hash
	return json.Marshal(object(h))
}

// UnmarshalJSON accepts both the bare-string and the object form.
func (h *Hash) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		*h = Hash{Algorithm: digest.Algorithm, Value: value, compact: true}
		return nil
	}

	type object Hash
	var o object
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&o); err != nil {
		return errors.Wrap(err, "hash must be a hex string or {algorithm, value}")
	}
	*h = Hash(o)
	h.compact = false
	return nil
}
