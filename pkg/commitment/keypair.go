package commitment

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/mahdiidarabi/ecdsa-commitment/internal/pemenc"
	"github.com/mahdiidarabi/ecdsa-commitment/internal/primitive"
)

// DefaultMaxEntropyAttempts bounds rejection sampling of the private scalar.
// A healthy source fails a single draw with probability below 2^-127.
const DefaultMaxEntropyAttempts = 16

// Keypair is a secp256k1 private scalar and its public point. A keypair
// backs exactly one commitment.
type Keypair struct {
	priv *secp256k1.PrivateKey
	pub  *secp256k1.PublicKey
}

// GenerateKeypair draws a private scalar uniformly from [1, n-1] and derives
// the public point.
//
// Args:
//   - rs: Source of randomness; nil uses OSRandomSource.
//
// Returns:
//   - The keypair, or *InsufficientEntropyError if rs cannot be read.
func GenerateKeypair(rs RandomSource) (*Keypair, error) {
	return generateKeypair(rs, DefaultMaxEntropyAttempts)
}

func generateKeypair(rs RandomSource, maxAttempts int) (*Keypair, error) {
	if rs == nil {
		rs = OSRandomSource
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxEntropyAttempts
	}

	buf := make([]byte, primitive.PrivateKeySize)
	defer zeroBytes(buf)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if _, err := io.ReadFull(rs, buf); err != nil {
			return nil, &InsufficientEntropyError{Attempts: attempt, Err: err}
		}

		priv, err := primitive.PrivateKeyFromScalar(buf)
		if errors.Is(err, primitive.ErrScalarOutOfRange) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &Keypair{priv: priv, pub: priv.PubKey()}, nil
	}

	return nil, &InsufficientEntropyError{Attempts: maxAttempts}
}

// KeypairFromPrivateKey rebuilds a keypair from a 32-byte scalar, e.g. one
// retained for audit.
func KeypairFromPrivateKey(b []byte) (*Keypair, error) {
	priv, err := primitive.PrivateKeyFromScalar(b)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return &Keypair{priv: priv, pub: priv.PubKey()}, nil
}

// KeypairFromPEM reloads a keypair retained with PrivateKeyPEM. The public
// key embedded in the block, when present, must match the scalar.
func KeypairFromPEM(data []byte) (*Keypair, error) {
	priv, pub, err := pemenc.DecodePrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}
	defer zeroBytes(priv)

	kp, err := KeypairFromPrivateKey(priv)
	if err != nil {
		return nil, err
	}
	if len(pub) > 0 && !kp.Owns(pub) {
		kp.Zero()
		return nil, errors.New("embedded public key does not match private key")
	}
	return kp, nil
}

// PublicKeyFromPEM returns the serialized public key of a PUBLIC KEY block.
func PublicKeyFromPEM(data []byte) ([]byte, error) {
	pub, err := pemenc.DecodePublicKey(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode public key: %w", err)
	}
	if _, err := primitive.ParsePublicKey(pub); err != nil {
		return nil, malformed("public_key", publicKeyReason(pub, err), err)
	}
	return pub, nil
}

// Owns reports whether serializedPub, in either form, is this keypair's
// public key.
func (k *Keypair) Owns(serializedPub []byte) bool {
	normalized, err := primitive.NormalizePublicKey(serializedPub)
	if err != nil {
		return false
	}
	return bytes.Equal(normalized, k.PublicKeyBytes())
}

// PrivateKeyBytes returns the 32-byte big-endian scalar, or nil once the
// keypair has been zeroed.
func (k *Keypair) PrivateKeyBytes() []byte {
	if k.priv == nil {
		return nil
	}
	return k.priv.Serialize()
}

// PublicKeyBytes returns the 65-byte uncompressed public key.
func (k *Keypair) PublicKeyBytes() []byte {
	return k.pub.SerializeUncompressed()
}

// CompressedPublicKeyBytes returns the 33-byte compressed public key.
func (k *Keypair) CompressedPublicKeyBytes() []byte {
	return k.pub.SerializeCompressed()
}

// Private reports whether the private scalar is still held.
func (k *Keypair) Private() bool {
	return k.priv != nil
}

// Fingerprint is a short hex digest of the compressed public key, safe to log.
func (k *Keypair) Fingerprint() string {
	return fingerprint(k.CompressedPublicKeyBytes())
}

// PrivateKeyPEM renders the keypair as a SEC1 "EC PRIVATE KEY" block.
func (k *Keypair) PrivateKeyPEM() ([]byte, error) {
	if k.priv == nil {
		return nil, errors.New("keypair has no private key")
	}
	priv := k.priv.Serialize()
	defer zeroBytes(priv)
	return pemenc.EncodePrivateKey(priv, k.PublicKeyBytes())
}

// PublicKeyPEM renders the public key as a "PUBLIC KEY" block.
func (k *Keypair) PublicKeyPEM() ([]byte, error) {
	return pemenc.EncodePublicKey(k.PublicKeyBytes())
}

// Zero wipes the private scalar. The public key stays usable.
func (k *Keypair) Zero() {
	if k.priv != nil {
		k.priv.Zero()
		k.priv = nil
	}
}

func fingerprint(serializedPub []byte) string {
	h := sha256.Sum256(serializedPub)
	return hex.EncodeToString(h[:8])
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
