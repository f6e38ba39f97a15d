// Package canonical produces the deterministic byte encoding that every
// medf hash is computed over.
//
// The encoding follows the JSON Canonicalization Scheme: object keys are
// sorted, no insignificant whitespace is emitted, strings are UTF-8 with only
// the mandatory escapes, array order is preserved and numbers use the
// ECMAScript shortest round-trip form. Two logically equal value trees always
// encode to identical bytes, independent of the order keys were inserted.
//
// Key order is code-point order, which for Go strings is plain byte order
// of their UTF-8 encoding.
package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/teranos/medf/errors"
)

// Marshal returns the canonical encoding of v.
//
// Supported shapes are nil, bool, string, json.Number, Go integer and float
// kinds, []any, map[string]any and their string-typed variants. Anything else,
// including NaN and ±Inf, fails with errors.ErrEncoding.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, v, "$"); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MustMarshal is Marshal for values known to be encodable (tests, constants).
func MustMarshal(v any) []byte {
	b, err := Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// Transform canonicalizes raw JSON text. Numbers keep full precision until
// they are re-serialized.
func Transform(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Wrap(errors.Mark(err, errors.ErrEncoding), "failed to decode JSON")
	}
	if dec.More() {
		return nil, errors.NewEncodingError("trailing data after JSON value")
	}
	return Marshal(v)
}

func encode(buf *bytes.Buffer, v any, path string) error {
	switch x := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if x {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case string:
		return encodeString(buf, x, path)
	case json.Number:
		f, err := strconv.ParseFloat(string(x), 64)
		if err != nil {
			return errors.NewEncodingError("malformed number %q at %s", string(x), path)
		}
		return encodeFloat(buf, f, path)
	case float64:
		return encodeFloat(buf, x, path)
	case float32:
		return encodeFloat(buf, float64(x), path)
	case int:
		return encodeFloat(buf, float64(x), path)
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return encodeFloat(buf, reflect.ValueOf(x).Convert(reflect.TypeOf(float64(0))).Float(), path)
	case []any:
		buf.WriteByte('[')
		for i, elem := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encode(buf, elem, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case []string:
		elems := make([]any, len(x))
		for i, s := range x {
			elems[i] = s
		}
		return encode(buf, elems, path)
	case map[string]any:
		return encodeObject(buf, x, path)
	case map[string]string:
		obj := make(map[string]any, len(x))
		for k, s := range x {
			obj[k] = s
		}
		return encodeObject(buf, obj, path)
	default:
		return errors.NewEncodingError("unsupported value of type %T at %s", v, path)
	}
	return nil
}

func encodeObject(buf *bytes.Buffer, obj map[string]any, path string) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		childPath := path + "." + k
		if err := encodeString(buf, k, childPath); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := encode(buf, obj[k], childPath); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

const hexDigits = "0123456789abcdef"

func encodeString(buf *bytes.Buffer, s string, path string) error {
	if !utf8.ValidString(s) {
		return errors.NewEncodingError("invalid UTF-8 in string at %s", path)
	}
	buf.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if c < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte(hexDigits[c>>4])
				buf.WriteByte(hexDigits[c&0xf])
				continue
			}
			// Multi-byte UTF-8 sequences pass through unescaped.
			buf.WriteByte(c)
		}
	}
	buf.WriteByte('"')
	return nil
}
