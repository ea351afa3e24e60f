package commitment

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/mahdiidarabi/ecdsa-commitment/internal/batch"
	"github.com/mahdiidarabi/ecdsa-commitment/internal/digest"
)

// Claim is one (public key, signature, opening) triple to verify.
type Claim struct {
	PublicKey []byte
	Signature []byte
	Message   []byte
	Salt      []byte
	Salted    bool             // commitment mode; must agree with Salt
	Digest    digest.Algorithm // empty = engine default
}

// ClaimFromOpening pairs a published artifact with its later opening.
func ClaimFromOpening(a *Artifact, o *Opening) *Claim {
	return &Claim{
		PublicKey: a.PublicKey,
		Signature: a.Signature,
		Message:   o.Message,
		Salt:      o.Salt,
		Salted:    a.Salted,
		Digest:    a.Digest,
	}
}

// BatchResult holds per-claim outcomes, index-aligned with the input.
type BatchResult struct {
	Valid  []bool
	Errors []error // non-nil where the claim was malformed
}

// Err combines the per-claim errors, or returns nil if every claim was well-formed.
func (r *BatchResult) Err() error {
	var err error
	for i, e := range r.Errors {
		if e != nil {
			err = multierr.Append(err, fmt.Errorf("claim %d: %w", i, e))
		}
	}
	return err
}

// CountValid returns the number of claims that verified.
func (r *BatchResult) CountValid() int {
	n := 0
	for _, ok := range r.Valid {
		if ok {
			n++
		}
	}
	return n
}

// VerifyBatch verifies claims in parallel. A malformed claim is recorded in
// the result and does not stop the others; only cancellation of ctx aborts
// the run.
func (e *Engine) VerifyBatch(ctx context.Context, claims []*Claim) (*BatchResult, error) {
	result := &BatchResult{
		Valid:  make([]bool, len(claims)),
		Errors: make([]error, len(claims)),
	}

	stats, err := batch.Run(ctx, len(claims), e.cfg.NumWorkers, func(_ context.Context, i int) error {
		c := claims[i]
		if c == nil {
			result.Errors[i] = malformed("claim", "nil claim", nil)
			return nil
		}

		alg := c.Digest
		if alg == "" {
			alg = e.cfg.Digest
		}
		result.Valid[i], result.Errors[i] = e.verify(c.PublicKey, c.Signature, c.Message, c.Salt, c.Salted, alg)
		return nil
	})

	e.log.WithFields(logrus.Fields{
		"claims":    len(claims),
		"processed": stats.Processed,
		"workers":   stats.Workers,
		"valid":     result.CountValid(),
	}).Debug("batch verification finished")

	if err != nil {
		return result, fmt.Errorf("batch verification aborted: %w", err)
	}
	return result, nil
}
