package commitment

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when an Instance operation is called
	// out of protocol order.
	ErrInvalidTransition = errors.New("invalid commitment state transition")

	// ErrUnknownDigest is returned for digest names the engine cannot resolve.
	ErrUnknownDigest = errors.New("unknown digest")
)

// InsufficientEntropyError reports that the random source could not supply
// a usable private scalar.
type InsufficientEntropyError struct {
	Attempts int
	Err      error
}

func (e *InsufficientEntropyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("insufficient entropy after %d attempt(s): %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("insufficient entropy: no valid scalar after %d attempt(s)", e.Attempts)
}

func (e *InsufficientEntropyError) Unwrap() error {
	return e.Err
}

// MalformedInputError reports bytes that failed length or format validation
// before any verification was attempted. It is distinct from a signature
// that simply does not match.
type MalformedInputError struct {
	Field  string // "public_key", "signature", "message" or "salt"
	Reason string
	Err    error
}

func (e *MalformedInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed %s: %s", e.Field, e.Reason)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

func malformed(field, reason string, err error) *MalformedInputError {
	return &MalformedInputError{
		Field:  field,
		Reason: reason,
		Err:    err,
	}
}

// IsMalformedInput reports whether err is, or wraps, a MalformedInputError.
func IsMalformedInput(err error) bool {
	var target *MalformedInputError
	return errors.As(err, &target)
}

// IsInsufficientEntropy reports whether err is, or wraps, an InsufficientEntropyError.
func IsInsufficientEntropy(err error) bool {
	var target *InsufficientEntropyError
	return errors.As(err, &target)
}
