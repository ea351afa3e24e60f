// Package digest maps digest names to the 32-byte hash functions that turn a
// committed payload into the value the signature is computed over.
package digest

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/sha3"
)

// Algorithm names a supported digest.
type Algorithm string

const (
	SHA256   Algorithm = "sha256"
	SHA3_256 Algorithm = "sha3-256"
	BLAKE3   Algorithm = "blake3"
)

// Size is the output length of every supported digest.
const Size = 32

// Func hashes a payload to Size bytes.
type Func func(payload []byte) []byte

// Algorithms lists the supported digests, default first.
func Algorithms() []Algorithm {
	return []Algorithm{SHA256, SHA3_256, BLAKE3}
}

// Parse resolves a digest name, case-insensitively. The empty string selects SHA256.
func Parse(name string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(name))) {
	case "", SHA256:
		return SHA256, nil
	case SHA3_256, "sha3":
		return SHA3_256, nil
	case BLAKE3:
		return BLAKE3, nil
	default:
		return "", fmt.Errorf("unknown digest %q", name)
	}
}

// Lookup returns the hash function for alg.
func Lookup(alg Algorithm) (Func, error) {
	switch alg {
	case SHA256, "":
		return sum256, nil
	case SHA3_256:
		return sumSHA3, nil
	case BLAKE3:
		return sumBLAKE3, nil
	default:
		return nil, fmt.Errorf("unknown digest %q", string(alg))
	}
}

func sum256(payload []byte) []byte {
	h := sha256.Sum256(payload)
	return h[:]
}

func sumSHA3(payload []byte) []byte {
	h := sha3.Sum256(payload)
	return h[:]
}

func sumBLAKE3(payload []byte) []byte {
	h := blake3.Sum256(payload)
	return h[:]
}
