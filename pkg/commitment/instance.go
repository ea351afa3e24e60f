package commitment

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// State is the position of an Instance in the commit/reveal protocol.
type State int

const (
	StateUninitialized State = iota
	StateCommitted
	StateRevealed
	StateVerified
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateCommitted:
		return "committed"
	case StateRevealed:
		return "revealed"
	case StateVerified:
		return "verified"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Instance walks a single commitment through
// Uninitialized -> Committed -> Revealed -> Verified.
// It owns a fresh keypair whose private scalar is wiped as soon as the
// signature exists, so the key cannot back a second commitment.
type Instance struct {
	mu sync.Mutex

	id     uuid.UUID
	engine *Engine

	message []byte
	salt    []byte

	keypair  *Keypair
	artifact *Artifact
	opening  *Opening

	state  State
	result bool
}

// NewInstance prepares a commitment to message. salt may be nil.
// The instance keeps private copies of both.
func (e *Engine) NewInstance(message, salt []byte) *Instance {
	inst := &Instance{
		id:      uuid.New(),
		engine:  e,
		message: append([]byte{}, message...),
		state:   StateUninitialized,
	}
	if len(salt) > 0 {
		inst.salt = append([]byte{}, salt...)
	}
	return inst
}

// ID identifies the instance; the artifact carries the same id.
func (i *Instance) ID() uuid.UUID {
	return i.id
}

// State returns the current protocol state.
func (i *Instance) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Commit generates the keypair, signs, and moves to Committed.
func (i *Instance) Commit() (*Artifact, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state != StateUninitialized {
		return nil, fmt.Errorf("%w: commit from %s", ErrInvalidTransition, i.state)
	}

	kp, err := i.engine.GenerateKeypair()
	if err != nil {
		return nil, err
	}

	artifact, err := i.engine.commit(i.id, i.message, i.salt, kp)
	kp.Zero()
	if err != nil {
		return nil, err
	}

	i.keypair = kp
	i.artifact = artifact
	i.state = StateCommitted
	return artifact, nil
}

// Artifact returns the published artifact, or nil before Commit.
func (i *Instance) Artifact() *Artifact {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.artifact
}

// Keypair returns the instance keypair. After Commit it only holds the public key.
func (i *Instance) Keypair() *Keypair {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.keypair
}

// Reveal discloses the message (and salt) and moves to Revealed.
// Calling it again after the reveal returns the same opening.
func (i *Instance) Reveal() (*Opening, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	switch i.state {
	case StateCommitted:
		i.opening = i.engine.Reveal(i.message, i.salt)
		i.state = StateRevealed
		return i.opening, nil
	case StateRevealed, StateVerified:
		return i.opening, nil
	default:
		return nil, fmt.Errorf("%w: reveal from %s", ErrInvalidTransition, i.state)
	}
}

// Verify checks the opening against the artifact and moves to Verified.
// Repeated calls return the recorded result.
func (i *Instance) Verify() (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	switch i.state {
	case StateRevealed:
		ok, err := i.engine.VerifyOpening(i.artifact, i.opening)
		if err != nil {
			return false, err
		}
		i.result = ok
		i.state = StateVerified
		return ok, nil
	case StateVerified:
		return i.result, nil
	default:
		return false, fmt.Errorf("%w: verify from %s", ErrInvalidTransition, i.state)
	}
}
