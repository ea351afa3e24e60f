package commitment

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mahdiidarabi/ecdsa-commitment/internal/digest"
	"github.com/mahdiidarabi/ecdsa-commitment/internal/primitive"
)

// DefaultSaltSize is the salt length used when GenerateSalt is asked for 0 bytes.
const DefaultSaltSize = 32

// Engine commits to messages and verifies openings. It holds no per-commitment
// state; configure it before use and share it freely afterwards.
type Engine struct {
	cfg    Config
	random RandomSource
	log    *logrus.Entry
}

// NewEngine creates an engine with DefaultConfig and the OS random source.
func NewEngine() *Engine {
	return &Engine{
		cfg:    DefaultConfig(),
		random: OSRandomSource,
		log:    logrus.NewEntry(logrus.StandardLogger()).WithField("component", "commitment"),
	}
}

// WithConfig replaces the engine configuration.
func (e *Engine) WithConfig(cfg Config) *Engine {
	e.cfg = cfg
	return e
}

// WithRandomSource sets the randomness used for keys and salts.
func (e *Engine) WithRandomSource(rs RandomSource) *Engine {
	e.random = rs
	return e
}

// WithLogger sets the logger. Messages and salts are never logged.
func (e *Engine) WithLogger(log *logrus.Entry) *Engine {
	e.log = log
	return e
}

// Config returns the active configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// GenerateKeypair draws a fresh keypair from the engine's random source.
func (e *Engine) GenerateKeypair() (*Keypair, error) {
	kp, err := generateKeypair(e.random, e.cfg.MaxEntropyAttempts)
	if err != nil {
		e.log.WithError(err).Warn("key generation failed")
		return nil, err
	}
	e.log.WithField("key", kp.Fingerprint()).Debug("generated keypair")
	return kp, nil
}

// GenerateSalt draws n random bytes for salting a low-entropy message.
func (e *Engine) GenerateSalt(n int) ([]byte, error) {
	if n <= 0 {
		n = DefaultSaltSize
	}
	rs := e.random
	if rs == nil {
		rs = OSRandomSource
	}

	salt := make([]byte, n)
	if _, err := io.ReadFull(rs, salt); err != nil {
		return nil, &InsufficientEntropyError{Attempts: 1, Err: err}
	}
	return salt, nil
}

// Commit signs message under keypair and returns the artifact to publish.
// The message itself is neither returned nor logged.
func (e *Engine) Commit(message []byte, keypair *Keypair) (*Artifact, error) {
	return e.CommitWithSalt(message, nil, keypair)
}

// CommitWithSalt is Commit over the salted payload. The salt must be revealed
// together with the message.
func (e *Engine) CommitWithSalt(message, salt []byte, keypair *Keypair) (*Artifact, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, &InsufficientEntropyError{Attempts: 1, Err: err}
	}
	return e.commit(id, message, salt, keypair)
}

func (e *Engine) commit(id uuid.UUID, message, salt []byte, keypair *Keypair) (*Artifact, error) {
	if keypair == nil || !keypair.Private() {
		return nil, errors.New("commit requires a keypair holding a private key")
	}
	if e.cfg.RejectEmptyMessage && len(message) == 0 {
		return nil, malformed("message", "empty message rejected by policy", nil)
	}

	alg, hash, err := e.digest(e.cfg.Digest)
	if err != nil {
		return nil, err
	}

	artifact := &Artifact{
		ID:        id,
		PublicKey: primitive.SerializePublicKey(keypair.pub, e.cfg.CompressedKeys),
		Signature: primitive.Sign(keypair.priv, hash(payload(message, salt))),
		Digest:    alg,
		Salted:    len(salt) > 0,
	}

	e.log.WithFields(logrus.Fields{
		"artifact": artifact.ID,
		"key":      keypair.Fingerprint(),
		"digest":   alg,
		"salted":   len(salt) > 0,
	}).Debug("commitment produced")

	return artifact, nil
}

// Reveal packages the withheld values for disclosure. Revealing is a
// protocol step, not a transform: the opening is a copy of its inputs.
func (e *Engine) Reveal(message, salt []byte) *Opening {
	o := &Opening{Message: append([]byte{}, message...)}
	if len(salt) > 0 {
		o.Salt = append([]byte{}, salt...)
	}
	return o
}

// Verify reports whether signature is a valid signature over message under
// publicKey, using the engine's digest. It only matches unsalted commitments.
//
// A well-formed signature that does not match returns (false, nil). Keys or
// signatures with the wrong length or an invalid encoding return a
// *MalformedInputError.
func (e *Engine) Verify(publicKey, signature, message []byte) (bool, error) {
	return e.verify(publicKey, signature, message, nil, false, e.cfg.Digest)
}

// VerifyWithSalt is Verify for a commitment made with CommitWithSalt. It only
// matches salted commitments, so an empty salt never verifies.
func (e *Engine) VerifyWithSalt(publicKey, signature, message, salt []byte) (bool, error) {
	return e.verify(publicKey, signature, message, salt, true, e.cfg.Digest)
}

// VerifyOpening checks an opening against an artifact, using the digest and
// salt mode recorded in the artifact. An opening whose salt presence differs
// from the artifact's does not match.
func (e *Engine) VerifyOpening(artifact *Artifact, opening *Opening) (bool, error) {
	if artifact == nil || opening == nil {
		return false, errors.New("verify requires an artifact and an opening")
	}
	return e.verify(artifact.PublicKey, artifact.Signature, opening.Message, opening.Salt, artifact.Salted, artifact.Digest)
}

// verify checks one opening. salted is the mode fixed at commit time; the
// unsalted payload is the raw message, so the same bytes can also parse as
// a salted payload and the mode must be checked before the signature.
func (e *Engine) verify(publicKey, signature, message, salt []byte, salted bool, alg digest.Algorithm) (bool, error) {
	pub, err := primitive.ParsePublicKey(publicKey)
	if err != nil {
		return false, malformed("public_key", publicKeyReason(publicKey, err), err)
	}
	sig, err := primitive.ParseSignature(signature)
	if err != nil {
		return false, malformed("signature", signatureReason(signature, err), err)
	}
	if e.cfg.RejectEmptyMessage && len(message) == 0 {
		return false, malformed("message", "empty message rejected by policy", nil)
	}

	alg, hash, err := e.digest(alg)
	if err != nil {
		return false, err
	}

	if salted != (len(salt) > 0) {
		e.log.WithFields(logrus.Fields{
			"key":    fingerprint(pub.SerializeCompressed()),
			"salted": salted,
		}).Debug("opening salt does not match commitment mode")
		return false, nil
	}

	ok := primitive.Verify(pub, sig, hash(payload(message, salt)))

	e.log.WithFields(logrus.Fields{
		"key":    fingerprint(pub.SerializeCompressed()),
		"digest": alg,
		"valid":  ok,
	}).Debug("commitment verified")

	return ok, nil
}

func publicKeyReason(b []byte, err error) string {
	if errors.Is(err, primitive.ErrPublicKeyLength) {
		return fmt.Sprintf("got %d bytes, want 33 or 65", len(b))
	}
	return "not a point on secp256k1"
}

func signatureReason(b []byte, err error) string {
	if errors.Is(err, primitive.ErrSignatureLength) {
		return fmt.Sprintf("got %d bytes, want 64", len(b))
	}
	return "r or s outside [1, n-1]"
}

func (e *Engine) digest(alg digest.Algorithm) (digest.Algorithm, digest.Func, error) {
	if alg == "" {
		alg = digest.SHA256
	}
	fn, err := digest.Lookup(alg)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUnknownDigest, err)
	}
	return alg, fn, nil
}

// payload is the byte string that gets hashed and signed. Unsalted
// commitments sign the message itself; salted ones prefix the salt with its
// uvarint length so no other (salt, message) split yields the same bytes.
// An unsalted message can equal a salted payload, which is why the artifact
// records the mode.
func payload(message, salt []byte) []byte {
	if len(salt) == 0 {
		return message
	}

	var prefix [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(prefix[:], uint64(len(salt)))

	out := make([]byte, 0, n+len(salt)+len(message))
	out = append(out, prefix[:n]...)
	out = append(out, salt...)
	out = append(out, message...)
	return out
}
