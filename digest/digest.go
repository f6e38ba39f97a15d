// Package digest wraps the one-way hash every medf hash value is computed
// with. It is stateless and safe for concurrent use.
package digest

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/teranos/medf/canonical"
	"github.com/teranos/medf/errors"
)

// Algorithm is the identifier stored next to every hash value this package produces.
const Algorithm = "sha-256"

// Size is the length of a hex-encoded digest.
const Size = sha256.Size * 2

// Sum returns the lowercase hex SHA-256 digest of data.
func Sum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Of canonicalizes v and returns the digest of the canonical bytes.
func Of(v any) (string, error) {
	b, err := canonical.Marshal(v)
	if err != nil {
		return "", err
	}
	return Sum(b), nil
}

// Check rejects any stated algorithm other than the one Sum implements.
// A hash labelled with a different algorithm cannot be recomputed and must
// not be compared against a SHA-256 value.
func Check(algorithm string) error {
	if algorithm != Algorithm {
		return errors.Wrapf(errors.ErrUnsupportedAlgorithm, "hash algorithm %q (only %s is supported)", algorithm, Algorithm)
	}
	return nil
}

// Short truncates a digest for display. Full digests remain available to
// callers; this is presentation only.
func Short(value string, width int) string {
	if width <= 0 || len(value) <= width {
		return value
	}
	return value[:width] + "…"
}
