// Package primitive adapts decred's secp256k1 and ecdsa packages to the
// fixed-length byte encodings used by commitments.
package primitive

import (
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

const (
	PrivateKeySize            = 32
	CompressedPublicKeySize   = 33
	UncompressedPublicKeySize = 65
	SignatureSize             = 64
)

var (
	ErrScalarOutOfRange    = errors.New("scalar out of range [1, n-1]")
	ErrPublicKeyLength     = errors.New("public key must be 33 (compressed) or 65 (uncompressed) bytes")
	ErrSignatureLength     = errors.New("signature must be 64 bytes (r || s)")
	ErrInvalidPublicKey    = errors.New("public key is not a valid secp256k1 point")
	ErrSignatureOutOfRange = errors.New("signature component out of range [1, n-1]")
	ErrPrivateKeyLength    = errors.New("private key must be 32 bytes")
)

// PrivateKeyFromScalar interprets b as a big-endian scalar and returns the
// corresponding private key. Zero and values >= n are rejected rather than
// reduced so callers can resample.
func PrivateKeyFromScalar(b []byte) (*secp256k1.PrivateKey, error) {
	if len(b) != PrivateKeySize {
		return nil, ErrPrivateKeyLength
	}

	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(b); overflow || s.IsZero() {
		return nil, ErrScalarOutOfRange
	}
	return secp256k1.NewPrivateKey(&s), nil
}

// Sign produces a 64-byte r || s signature over hash.
//
// Nonces are derived per RFC 6979 and s is normalized to the lower half of
// the group order, so the output is unique for a given (key, hash).
func Sign(priv *secp256k1.PrivateKey, hash []byte) []byte {
	// Compact form is recovery byte || r || s.
	compact := ecdsa.SignCompact(priv, hash, false)

	sig := make([]byte, SignatureSize)
	copy(sig, compact[1:])
	return sig
}

// ParsePublicKey decodes a compressed or uncompressed SEC1 public key.
func ParsePublicKey(b []byte) (*secp256k1.PublicKey, error) {
	if len(b) != CompressedPublicKeySize && len(b) != UncompressedPublicKeySize {
		return nil, ErrPublicKeyLength
	}

	pub, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return pub, nil
}

// ParseSignature decodes a 64-byte r || s signature.
func ParseSignature(b []byte) (*ecdsa.Signature, error) {
	if len(b) != SignatureSize {
		return nil, ErrSignatureLength
	}

	var r, s secp256k1.ModNScalar
	if overflow := r.SetByteSlice(b[:32]); overflow || r.IsZero() {
		return nil, fmt.Errorf("%w: r", ErrSignatureOutOfRange)
	}
	if overflow := s.SetByteSlice(b[32:]); overflow || s.IsZero() {
		return nil, fmt.Errorf("%w: s", ErrSignatureOutOfRange)
	}
	return ecdsa.NewSignature(&r, &s), nil
}

// Verify reports whether sig is a valid signature of hash under pub.
func Verify(pub *secp256k1.PublicKey, sig *ecdsa.Signature, hash []byte) bool {
	return sig.Verify(hash, pub)
}

// SerializePublicKey returns the SEC1 encoding of pub.
func SerializePublicKey(pub *secp256k1.PublicKey, compressed bool) []byte {
	if compressed {
		return pub.SerializeCompressed()
	}
	return pub.SerializeUncompressed()
}

// NormalizePublicKey re-encodes a serialized public key in the uncompressed
// form so keys can be compared regardless of how they were transmitted.
func NormalizePublicKey(b []byte) ([]byte, error) {
	pub, err := ParsePublicKey(b)
	if err != nil {
		return nil, err
	}
	return pub.SerializeUncompressed(), nil
}
