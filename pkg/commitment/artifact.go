package commitment

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/mahdiidarabi/ecdsa-commitment/internal/digest"
	"github.com/mahdiidarabi/ecdsa-commitment/internal/pemenc"
	"github.com/mahdiidarabi/ecdsa-commitment/internal/primitive"
)

// Artifact is what a committer discloses at commit time: the public key and
// the signature over the withheld message. It is never mutated after Commit.
type Artifact struct {
	ID        uuid.UUID
	PublicKey []byte           // 33 or 65 bytes, SEC1
	Signature []byte           // 64 bytes, r || s
	Digest    digest.Algorithm // hash applied to the payload before signing
	Salted    bool             // the opening must carry a salt
}

// Opening is what a committer discloses at reveal time.
type Opening struct {
	Message []byte
	Salt    []byte // nil when the commitment was not salted
}

type rawArtifact struct {
	ID        []byte
	PublicKey []byte
	Signature []byte
	Digest    string
	Salted    bool
}

type rawOpening struct {
	Message []byte
	Salt    []byte
}

// PublicKeyHex returns the public key as lowercase hex.
func (a *Artifact) PublicKeyHex() string {
	return hex.EncodeToString(a.PublicKey)
}

// SignatureHex returns the signature as lowercase hex.
func (a *Artifact) SignatureHex() string {
	return hex.EncodeToString(a.Signature)
}

// PublicKeyPEM renders the public key as a "PUBLIC KEY" block.
func (a *Artifact) PublicKeyPEM() ([]byte, error) {
	return pemenc.EncodePublicKey(a.PublicKey)
}

// Fingerprint is a short hex digest of the public key, safe to log.
func (a *Artifact) Fingerprint() string {
	pub, err := primitive.ParsePublicKey(a.PublicKey)
	if err != nil {
		return fingerprint(a.PublicKey)
	}
	return fingerprint(pub.SerializeCompressed())
}

// Validate checks the fixed-length encodings without verifying anything.
func (a *Artifact) Validate() error {
	if _, err := primitive.ParsePublicKey(a.PublicKey); err != nil {
		return malformed("public_key", fmt.Sprintf("%d bytes", len(a.PublicKey)), err)
	}
	if _, err := primitive.ParseSignature(a.Signature); err != nil {
		return malformed("signature", fmt.Sprintf("%d bytes", len(a.Signature)), err)
	}
	if _, err := digest.Lookup(a.Digest); err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownDigest, err)
	}
	return nil
}

// MarshalBinary encodes the artifact as CBOR.
func (a *Artifact) MarshalBinary() ([]byte, error) {
	raw := rawArtifact{
		ID:        a.ID[:],
		PublicKey: a.PublicKey,
		Signature: a.Signature,
		Digest:    string(a.Digest),
		Salted:    a.Salted,
	}
	return cbor.Marshal(raw)
}

// UnmarshalBinary decodes a CBOR artifact and validates its encodings.
func (a *Artifact) UnmarshalBinary(data []byte) error {
	raw := &rawArtifact{}
	if err := cbor.Unmarshal(data, raw); err != nil {
		return fmt.Errorf("failed to decode artifact: %w", err)
	}

	id, err := uuid.FromBytes(raw.ID)
	if err != nil {
		return fmt.Errorf("failed to decode artifact id: %w", err)
	}

	decoded := Artifact{
		ID:        id,
		PublicKey: raw.PublicKey,
		Signature: raw.Signature,
		Digest:    digest.Algorithm(raw.Digest),
		Salted:    raw.Salted,
	}
	if err := decoded.Validate(); err != nil {
		return err
	}
	*a = decoded
	return nil
}

type artifactJSON struct {
	ID        string `json:"id"`
	PublicKey string `json:"public_key"`
	Signature string `json:"signature"`
	Digest    string `json:"digest"`
	Salted    bool   `json:"salted"`
}

// MarshalJSON encodes the artifact with hex byte fields.
func (a Artifact) MarshalJSON() ([]byte, error) {
	return json.Marshal(artifactJSON{
		ID:        a.ID.String(),
		PublicKey: a.PublicKeyHex(),
		Signature: a.SignatureHex(),
		Digest:    string(a.Digest),
		Salted:    a.Salted,
	})
}

// UnmarshalJSON decodes an artifact produced by MarshalJSON.
func (a *Artifact) UnmarshalJSON(data []byte) error {
	var raw artifactJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var decoded Artifact
	var err error
	if raw.ID != "" {
		if decoded.ID, err = uuid.Parse(raw.ID); err != nil {
			return fmt.Errorf("failed to parse artifact id: %w", err)
		}
	}
	if decoded.PublicKey, err = hexDecode(raw.PublicKey); err != nil {
		return malformed("public_key", "invalid hex", err)
	}
	if decoded.Signature, err = hexDecode(raw.Signature); err != nil {
		return malformed("signature", "invalid hex", err)
	}
	decoded.Salted = raw.Salted
	if decoded.Digest, err = digest.Parse(raw.Digest); err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownDigest, err)
	}
	if err := decoded.Validate(); err != nil {
		return err
	}
	*a = decoded
	return nil
}

// MarshalBinary encodes the opening as CBOR.
func (o *Opening) MarshalBinary() ([]byte, error) {
	return cbor.Marshal(rawOpening{Message: o.Message, Salt: o.Salt})
}

// UnmarshalBinary decodes a CBOR opening.
func (o *Opening) UnmarshalBinary(data []byte) error {
	raw := &rawOpening{}
	if err := cbor.Unmarshal(data, raw); err != nil {
		return fmt.Errorf("failed to decode opening: %w", err)
	}
	o.Message = raw.Message
	o.Salt = raw.Salt
	return nil
}

type openingJSON struct {
	Message string `json:"message"`
	Salt    string `json:"salt,omitempty"`
}

// MarshalJSON encodes the opening with hex byte fields.
func (o Opening) MarshalJSON() ([]byte, error) {
	return json.Marshal(openingJSON{
		Message: hex.EncodeToString(o.Message),
		Salt:    hex.EncodeToString(o.Salt),
	})
}

// UnmarshalJSON decodes an opening produced by MarshalJSON.
func (o *Opening) UnmarshalJSON(data []byte) error {
	var raw openingJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	message, err := hexDecode(raw.Message)
	if err != nil {
		return malformed("message", "invalid hex", err)
	}
	var salt []byte
	if raw.Salt != "" {
		if salt, err = hexDecode(raw.Salt); err != nil {
			return malformed("salt", "invalid hex", err)
		}
	}
	o.Message = message
	o.Salt = salt
	return nil
}

// hexDecode decodes a hex string, handling 0x prefix
func hexDecode(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	return hex.DecodeString(s)
}
