package commitment

import (
	"github.com/mahdiidarabi/ecdsa-commitment/internal/digest"
)

// Config controls how an Engine commits and verifies.
type Config struct {
	// Digest hashes the payload before signing (default: sha256).
	Digest digest.Algorithm

	// RejectEmptyMessage refuses to commit to, or verify, an empty message.
	// The primitive accepts empty messages; this policy treats them as degenerate.
	RejectEmptyMessage bool

	// CompressedKeys publishes 33-byte public keys instead of 65-byte ones.
	CompressedKeys bool

	// NumWorkers bounds VerifyBatch parallelism (0 = auto-detect based on CPU cores).
	NumWorkers int

	// MaxEntropyAttempts bounds rejection sampling during key generation.
	MaxEntropyAttempts int
}

// DefaultConfig returns the configuration used by NewEngine.
func DefaultConfig() Config {
	return Config{
		Digest:             digest.SHA256,
		RejectEmptyMessage: false,
		CompressedKeys:     false,
		NumWorkers:         0,
		MaxEntropyAttempts: DefaultMaxEntropyAttempts,
	}
}
