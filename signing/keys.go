package signing

import (
	"bytes"
	"crypto/ed25519"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"io"
	"os"

	"github.com/teranos/medf/errors"
)

// KeyFilePermissions is the mode private key files are written with.
const KeyFilePermissions = 0600

const pemTypePrivateKey = "PRIVATE KEY"

// LoadKey reads a private key file. See ParseKey for accepted formats.
func LoadKey(path string) (*Ed25519Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapKey(err, "failed to read key file "+path)
	}
	s, err := ParseKey(data)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return s, nil
}

// ParseKey decodes an ed25519 private key from:
//   - a PKCS#8 PEM block ("PRIVATE KEY")
//   - a raw 32-byte seed, or a raw 64-byte seed+public key
//   - a hex-encoded 32-byte seed
//   - a base64-encoded 32-byte seed
//
// Everything else fails with errors.ErrKey.
func ParseKey(data []byte) (*Ed25519Signer, error) {
	if block, _ := pem.Decode(data); block != nil {
		return parsePEM(block)
	}

	// Text encodings first: a 64-char hex seed has the length of a raw
	// 64-byte key.
	text := bytes.TrimSpace(data)
	if len(text) == hex.EncodedLen(ed25519.SeedSize) {
		if seed, err := hex.DecodeString(string(text)); err == nil {
			return NewEd25519Signer(ed25519.NewKeyFromSeed(seed)), nil
		}
	}
	if seed, err := base64.StdEncoding.DecodeString(string(text)); err == nil && len(seed) == ed25519.SeedSize {
		return NewEd25519Signer(ed25519.NewKeyFromSeed(seed)), nil
	}

	switch len(data) {
	case ed25519.SeedSize:
		return NewEd25519Signer(ed25519.NewKeyFromSeed(data)), nil
	case ed25519.PrivateKeySize:
		priv := ed25519.NewKeyFromSeed(data[:ed25519.SeedSize])
		if !bytes.Equal(priv[ed25519.SeedSize:], data[ed25519.SeedSize:]) {
			return nil, errors.NewKeyError("64-byte key does not match its embedded public key")
		}
		return NewEd25519Signer(priv), nil
	}

	return nil, errors.WithHint(
		errors.NewKeyError("unrecognized private key encoding (%d bytes)", len(data)),
		"generate a key with 'medf keygen --out private.key'")
}

func parsePEM(block *pem.Block) (*Ed25519Signer, error) {
	if block.Type != pemTypePrivateKey {
		return nil, errors.NewKeyError("unsupported PEM block %q (expected %q)", block.Type, pemTypePrivateKey)
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, errors.WrapKey(err, "failed to parse PKCS#8 private key")
	}
	priv, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.NewKeyError("PKCS#8 key is %T, not ed25519", key)
	}
	return NewEd25519Signer(priv), nil
}

// GenerateKey creates a new ed25519 signer from rand.
func GenerateKey(rand io.Reader) (*Ed25519Signer, error) {
	_, priv, err := ed25519.GenerateKey(rand)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate ed25519 keypair")
	}
	return NewEd25519Signer(priv), nil
}

// MarshalPrivateKey encodes the signer's key as a PKCS#8 PEM block.
func MarshalPrivateKey(s *Ed25519Signer) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(s.PrivateKey)
	if err != nil {
		return nil, errors.WrapKey(err, "failed to marshal private key")
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemTypePrivateKey, Bytes: der}), nil
}

// WriteKey writes the signer's key to path as PKCS#8 PEM, refusing to
// overwrite an existing file.
func WriteKey(path string, s *Ed25519Signer) error {
	data, err := MarshalPrivateKey(s)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, KeyFilePermissions)
	if err != nil {
		return errors.Wrapf(err, "failed to create key file %s", path)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to write key file %s", path)
	}
	return f.Close()
}
