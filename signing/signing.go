// Package signing provides the detached-signature capability for MeDF
// documents. A signature covers the document hash's hex value taken as a
// UTF-8 message, never the document bytes themselves, so verifying it also
// requires the document hash to still match the content.
//
// Signing and verification are capabilities: callers inject a Signer or a
// Verifier. A missing Verifier is a valid configuration that the verify
// package reports as an unverified signature.
package signing

import (
	"crypto/ed25519"
	"encoding/base64"
	"time"

	"github.com/teranos/medf/errors"
	"github.com/teranos/medf/medf"
)

// AlgorithmEd25519 is the only signature scheme this build implements.
const AlgorithmEd25519 = "ed25519"

// ErrBadSignature indicates signature material that does not verify.
var ErrBadSignature = errors.New("signature does not verify")

// Signer holds a private key and signs messages with it.
type Signer interface {
	Algorithm() string
	// PublicKey returns the encoded public key stored next to signatures.
	PublicKey() string
	// Sign returns the encoded signature over message.
	Sign(message []byte) (string, error)
}

// Verifier checks an encoded signature against an encoded public key.
type Verifier interface {
	Algorithm() string
	Verify(publicKey, signature string, message []byte) error
}

// Ed25519Signer signs with an ed25519 private key.
type Ed25519Signer struct {
	PrivateKey ed25519.PrivateKey
}

// NewEd25519Signer wraps an ed25519 private key.
func NewEd25519Signer(priv ed25519.PrivateKey) *Ed25519Signer {
	return &Ed25519Signer{PrivateKey: priv}
}

// Algorithm implements Signer.
func (s *Ed25519Signer) Algorithm() string { return AlgorithmEd25519 }

// PublicKey returns the did:key of the signer.
func (s *Ed25519Signer) PublicKey() string {
	return EncodeDIDKey(s.PrivateKey.Public().(ed25519.PublicKey))
}

// Sign returns the base64-encoded ed25519 signature of message.
func (s *Ed25519Signer) Sign(message []byte) (string, error) {
	if len(s.PrivateKey) != ed25519.PrivateKeySize {
		return "", errors.NewKeyError("private key has %d bytes (expected %d)", len(s.PrivateKey), ed25519.PrivateKeySize)
	}
	return base64.StdEncoding.EncodeToString(ed25519.Sign(s.PrivateKey, message)), nil
}

// Ed25519Verifier verifies base64 ed25519 signatures.
type Ed25519Verifier struct{}

// Algorithm implements Verifier.
func (Ed25519Verifier) Algorithm() string { return AlgorithmEd25519 }

// Verify checks signature over message with publicKey (did:key or base64).
func (Ed25519Verifier) Verify(publicKey, signature string, message []byte) error {
	pub, err := DecodePublicKey(publicKey)
	if err != nil {
		return errors.Mark(err, ErrBadSignature)
	}

	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return errors.Wrap(errors.Mark(err, ErrBadSignature), "signature value is not base64")
	}
	if len(sig) != ed25519.SignatureSize {
		return errors.Wrapf(ErrBadSignature, "signature has %d bytes (expected %d)", len(sig), ed25519.SignatureSize)
	}

	if !ed25519.Verify(pub, message, sig) {
		return errors.Wrapf(ErrBadSignature, "ed25519 signature from %s", publicKey)
	}
	return nil
}

// Sign signs the document hash of doc and stores the result in
// doc.Signature, replacing any previous signature.
//
// Documents without a doc_hash are refused with errors.ErrMissingHash and
// left untouched; signing content that was never hashed would bind the
// signature to nothing checkable.
func Sign(doc *medf.Document, s Signer, now time.Time) error {
	if !doc.IsHashed() {
		return errors.WithHint(
			errors.Wrapf(errors.ErrMissingHash, "cannot sign %s", doc.ID),
			"run 'medf pack' first")
	}

	value, err := s.Sign(Message(doc.DocHash))
	if err != nil {
		return errors.Wrapf(err, "failed to sign %s", doc.ID)
	}

	doc.Signature = &medf.Signature{
		Algorithm: s.Algorithm(),
		Value:     value,
		PublicKey: s.PublicKey(),
		SignedAt:  medf.FormatTimestamp(now),
	}
	return nil
}

// Message is the byte string a document signature covers: the document
// hash's hex value as UTF-8 text.
func Message(h *medf.Hash) []byte {
	return []byte(h.Value)
}
