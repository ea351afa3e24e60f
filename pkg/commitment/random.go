package commitment

import (
	"crypto/rand"
	"sync"

	"github.com/zeebo/blake3"
)

// RandomSource supplies the randomness consumed by key and salt generation.
// Implementations must be safe for concurrent use.
type RandomSource interface {
	Read(p []byte) (n int, err error)
}

// OSRandomSource reads from the operating system's CSPRNG.
var OSRandomSource RandomSource = rand.Reader

// deterministicSource expands a seed into an unbounded BLAKE3 output stream.
type deterministicSource struct {
	mu     sync.Mutex
	stream *blake3.Digest
}

// NewDeterministicSource returns a reproducible RandomSource derived from seed.
// It exists for tests and fixtures; keys drawn from it are only as secret as
// the seed.
func NewDeterministicSource(seed []byte) RandomSource {
	h := blake3.NewDeriveKey("ecdsa-commitment deterministic random source v1")
	_, _ = h.Write(seed)
	return &deterministicSource{stream: h.Digest()}
}

func (s *deterministicSource) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream.Read(p)
}
