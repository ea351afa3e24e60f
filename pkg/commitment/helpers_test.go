package commitment

import (
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const (
	championMessage = "Manchester United is a new champion"
	otherMessage    = "Liverpool City Football Club is a new champion"
)

// newTestEngine returns an engine with a quiet logger.
func newTestEngine() *Engine {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewEngine().WithLogger(logrus.NewEntry(logger))
}

// mustKeypair generates a keypair from the OS source or fails the test.
func mustKeypair(t *testing.T, e *Engine) *Keypair {
	t.Helper()
	kp, err := e.GenerateKeypair()
	require.NoError(t, err)
	return kp
}

// failingSource always returns err.
type failingSource struct {
	err error
}

func (s failingSource) Read([]byte) (int, error) {
	return 0, s.err
}

var errNoEntropy = errors.New("entropy device unavailable")

// constantSource fills every read with b.
type constantSource byte

func (s constantSource) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(s)
	}
	return len(p), nil
}
