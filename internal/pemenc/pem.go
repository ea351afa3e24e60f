// Package pemenc renders secp256k1 keys as PEM text: SEC1 "EC PRIVATE KEY"
// blocks (RFC 5915) and SubjectPublicKeyInfo "PUBLIC KEY" blocks (RFC 5480).
//
// crypto/x509 only knows the NIST curves, so the ASN.1 structures are
// marshalled directly.
package pemenc

import (
	"encoding/asn1"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/mahdiidarabi/ecdsa-commitment/internal/primitive"
)

const (
	PrivateKeyBlockType = "EC PRIVATE KEY"
	PublicKeyBlockType  = "PUBLIC KEY"
)

var (
	oidPublicKeyECDSA = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	oidSecp256k1      = asn1.ObjectIdentifier{1, 3, 132, 0, 10}
)

var ErrNoPEMBlock = errors.New("no PEM block found")

type ecPrivateKey struct {
	Version       int
	PrivateKey    []byte
	NamedCurveOID asn1.ObjectIdentifier `asn1:"optional,explicit,tag:0"`
	PublicKey     asn1.BitString        `asn1:"optional,explicit,tag:1"`
}

type algorithmIdentifier struct {
	Algorithm  asn1.ObjectIdentifier
	Parameters asn1.ObjectIdentifier
}

type subjectPublicKeyInfo struct {
	Algorithm algorithmIdentifier
	PublicKey asn1.BitString
}

// EncodePrivateKey wraps a 32-byte scalar and its uncompressed public key.
func EncodePrivateKey(priv, pub []byte) ([]byte, error) {
	if len(priv) != primitive.PrivateKeySize {
		return nil, primitive.ErrPrivateKeyLength
	}
	if len(pub) != primitive.UncompressedPublicKeySize {
		return nil, fmt.Errorf("embedded public key must be uncompressed, got %d bytes", len(pub))
	}

	der, err := asn1.Marshal(ecPrivateKey{
		Version:       1,
		PrivateKey:    priv,
		NamedCurveOID: oidSecp256k1,
		PublicKey:     asn1.BitString{Bytes: pub, BitLength: 8 * len(pub)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: PrivateKeyBlockType, Bytes: der}), nil
}

// DecodePrivateKey returns the scalar and embedded public key of a SEC1 block.
func DecodePrivateKey(data []byte) (priv, pub []byte, err error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, nil, ErrNoPEMBlock
	}
	if block.Type != PrivateKeyBlockType {
		return nil, nil, fmt.Errorf("unexpected PEM block type %q", block.Type)
	}

	var raw ecPrivateKey
	rest, err := asn1.Unmarshal(block.Bytes, &raw)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	if len(rest) > 0 {
		return nil, nil, errors.New("trailing data after private key")
	}
	if raw.Version != 1 {
		return nil, nil, fmt.Errorf("unsupported private key version %d", raw.Version)
	}
	if len(raw.NamedCurveOID) > 0 && !raw.NamedCurveOID.Equal(oidSecp256k1) {
		return nil, nil, fmt.Errorf("unsupported curve %s", raw.NamedCurveOID)
	}
	if len(raw.PrivateKey) != primitive.PrivateKeySize {
		return nil, nil, primitive.ErrPrivateKeyLength
	}
	return raw.PrivateKey, raw.PublicKey.RightAlign(), nil
}

// EncodePublicKey wraps a serialized public key (either form).
func EncodePublicKey(pub []byte) ([]byte, error) {
	if _, err := primitive.ParsePublicKey(pub); err != nil {
		return nil, err
	}

	der, err := asn1.Marshal(subjectPublicKeyInfo{
		Algorithm: algorithmIdentifier{
			Algorithm:  oidPublicKeyECDSA,
			Parameters: oidSecp256k1,
		},
		PublicKey: asn1.BitString{Bytes: pub, BitLength: 8 * len(pub)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: PublicKeyBlockType, Bytes: der}), nil
}

// DecodePublicKey returns the serialized public key carried by a PUBLIC KEY block.
func DecodePublicKey(data []byte) ([]byte, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrNoPEMBlock
	}
	if block.Type != PublicKeyBlockType {
		return nil, fmt.Errorf("unexpected PEM block type %q", block.Type)
	}

	var spki subjectPublicKeyInfo
	rest, err := asn1.Unmarshal(block.Bytes, &spki)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	if len(rest) > 0 {
		return nil, errors.New("trailing data after public key")
	}
	if !spki.Algorithm.Algorithm.Equal(oidPublicKeyECDSA) || !spki.Algorithm.Parameters.Equal(oidSecp256k1) {
		return nil, errors.New("public key is not an secp256k1 ECDSA key")
	}

	pub := spki.PublicKey.RightAlign()
	if _, err := primitive.ParsePublicKey(pub); err != nil {
		return nil, err
	}
	return pub, nil
}
