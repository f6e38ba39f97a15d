package signing

import (
	"crypto/ed25519"
	"encoding/base64"
	"strings"

	"github.com/mr-tron/base58"

	"github.com/teranos/medf/errors"
)

const didKeyPrefix = "did:key:z"

// ed25519 multicodec prefix (varint 0xed)
var ed25519Multicodec = [2]byte{0xed, 0x01}

// EncodeDIDKey encodes an ed25519 public key as a did:key identifier:
// did:key:z + base58btc(0xed 0x01 + 32-byte pubkey)
func EncodeDIDKey(pub ed25519.PublicKey) string {
	buf := make([]byte, 2+len(pub))
	buf[0] = ed25519Multicodec[0]
	buf[1] = ed25519Multicodec[1]
	copy(buf[2:], pub)
	return didKeyPrefix + base58.Encode(buf)
}

// DecodeDIDKey extracts the ed25519 public key from a did:key:z... identifier.
func DecodeDIDKey(did string) (ed25519.PublicKey, error) {
	if !strings.HasPrefix(did, didKeyPrefix) {
		return nil, errors.NewKeyError("invalid did:key format: %s", did)
	}

	decoded, err := base58.Decode(did[len(didKeyPrefix):])
	if err != nil {
		return nil, errors.WrapKey(err, "failed to base58-decode did:key "+did)
	}

	// Expect multicodec prefix 0xed 0x01 followed by 32-byte ed25519 public key
	if len(decoded) != 2+ed25519.PublicKeySize {
		return nil, errors.NewKeyError("unexpected decoded length %d for did:key %s (expected %d)", len(decoded), did, 2+ed25519.PublicKeySize)
	}
	if decoded[0] != ed25519Multicodec[0] || decoded[1] != ed25519Multicodec[1] {
		return nil, errors.NewKeyError("unexpected multicodec prefix [%x %x] for did:key %s", decoded[0], decoded[1], did)
	}

	return ed25519.PublicKey(decoded[2:]), nil
}

// DecodePublicKey accepts a did:key identifier or a base64-encoded raw
// 32-byte public key.
func DecodePublicKey(s string) (ed25519.PublicKey, error) {
	if strings.HasPrefix(s, "did:") {
		return DecodeDIDKey(s)
	}

	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.WrapKey(err, "public key is neither did:key nor base64")
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, errors.NewKeyError("public key has %d bytes (expected %d)", len(raw), ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(raw), nil
}
