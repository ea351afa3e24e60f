// Package commitment implements a commit/reveal scheme built on ECDSA over
// secp256k1.
//
// A committer signs a secret message under a keypair generated for that one
// commitment and publishes the public key and signature (the Artifact). Later
// it publishes the message (the Opening). Anyone can then check that the
// opening matches the artifact. The signature binds the committer to the
// message; the message stays hidden until revealed as long as it cannot be
// guessed, which is what the optional salt is for.
//
// # Quick Start
//
//	import "github.com/mahdiidarabi/ecdsa-commitment/pkg/commitment"
//
//	engine := commitment.NewEngine()
//
//	// Committer
//	kp, err := engine.GenerateKeypair()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	artifact, err := engine.Commit([]byte("Manchester United is a new champion"), kp)
//	kp.Zero()
//
//	// ... publish artifact.PublicKey and artifact.Signature, later the message ...
//
//	// Verifier
//	ok, err := engine.Verify(artifact.PublicKey, artifact.Signature, message)
//	if commitment.IsMalformedInput(err) {
//	    // protocol violation, not a mismatch
//	}
//
// # Instances
//
// Instance tracks one commitment through Uninitialized, Committed, Revealed and
// Verified and refuses out-of-order calls:
//
//	inst := engine.NewInstance(message, nil)
//	artifact, _ := inst.Commit()
//	opening, _ := inst.Reveal()
//	ok, _ := inst.Verify()
//
// # Salting
//
// Messages from a small space (a team name, a yes/no vote) can be recovered by
// verifying every candidate against the artifact. Commit with a random salt and
// reveal it alongside the message:
//
//	salt, _ := engine.GenerateSalt(0)
//	artifact, _ := engine.CommitWithSalt(message, salt, kp)
//	ok, _ := engine.VerifyWithSalt(artifact.PublicKey, artifact.Signature, message, salt)
//
// The signed payload is uvarint(len(salt)) || salt || message. The artifact
// records whether it was salted, and an opening in the other mode never
// verifies.
package commitment
