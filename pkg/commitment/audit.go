package commitment

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/mahdiidarabi/ecdsa-commitment/internal/primitive"
)

// FindingKind classifies an audit finding.
type FindingKind string

const (
	// FindingKeyReuse: several artifacts were published under one public key.
	FindingKeyReuse FindingKind = "key_reuse"

	// FindingNonceReuse: two distinct signatures under one key share r. With
	// both messages revealed, the private key follows from
	// priv = (s2*z1 - s1*z2) / (r*(s1 - s2)) mod n.
	FindingNonceReuse FindingKind = "nonce_reuse"
)

// Finding is one violation of the fresh-key-per-commitment rule.
type Finding struct {
	Kind        FindingKind
	Fingerprint string // key fingerprint
	Artifacts   []int  // indices into the audited slice
	R           string // hex r, for nonce reuse
}

func (f Finding) String() string {
	if f.Kind == FindingNonceReuse {
		return fmt.Sprintf("%s: key %s, artifacts %v, r=%s", f.Kind, f.Fingerprint, f.Artifacts, f.R)
	}
	return fmt.Sprintf("%s: key %s, artifacts %v", f.Kind, f.Fingerprint, f.Artifacts)
}

// Audit scans published artifacts for reused keys and reused nonces.
// Malformed artifacts are skipped and reported in the returned error;
// findings for the remaining artifacts are still returned.
func (e *Engine) Audit(artifacts []*Artifact) ([]Finding, error) {
	var errs error

	type group struct {
		fingerprint string
		indices     []int
	}
	var order []string
	groups := make(map[string]*group)

	for i, a := range artifacts {
		if a == nil {
			errs = multierr.Append(errs, fmt.Errorf("artifact %d: nil", i))
			continue
		}
		if err := a.Validate(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("artifact %d: %w", i, err))
			continue
		}

		// Compare keys independent of compressed/uncompressed encoding.
		norm, err := primitive.NormalizePublicKey(a.PublicKey)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("artifact %d: %w", i, err))
			continue
		}
		key := string(norm)

		g, ok := groups[key]
		if !ok {
			g = &group{fingerprint: a.Fingerprint()}
			groups[key] = g
			order = append(order, key)
		}
		g.indices = append(g.indices, i)
	}

	var findings []Finding
	for _, key := range order {
		g := groups[key]
		if len(g.indices) < 2 {
			continue
		}

		findings = append(findings, Finding{
			Kind:        FindingKeyReuse,
			Fingerprint: g.fingerprint,
			Artifacts:   append([]int{}, g.indices...),
		})

		// Try all signature pairs under this key
		for x := 0; x < len(g.indices); x++ {
			for y := x + 1; y < len(g.indices); y++ {
				sig1 := artifacts[g.indices[x]].Signature
				sig2 := artifacts[g.indices[y]].Signature
				if bytes.Equal(sig1[:32], sig2[:32]) && !bytes.Equal(sig1[32:], sig2[32:]) {
					findings = append(findings, Finding{
						Kind:        FindingNonceReuse,
						Fingerprint: g.fingerprint,
						Artifacts:   []int{g.indices[x], g.indices[y]},
						R:           hex.EncodeToString(sig1[:32]),
					})
				}
			}
		}
	}

	if len(findings) > 0 {
		e.log.WithFields(logrus.Fields{
			"artifacts": len(artifacts),
			"findings":  len(findings),
		}).Warn("commitment audit found key reuse")
	}

	return findings, errs
}
